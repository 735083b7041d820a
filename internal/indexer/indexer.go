package indexer

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/felo/mailroom/internal/db"
	"github.com/felo/mailroom/internal/parser"
	"github.com/felo/mailroom/internal/pipeline"
	"github.com/felo/mailroom/internal/scanner"
)

// Indexer ingests .eml files into the message store.
type Indexer struct {
	db          *db.DB
	scanner     *scanner.Scanner
	logger      *zap.Logger
	concurrency int
}

// NewIndexer creates a new indexer
func NewIndexer(database *db.DB, mailDir string, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		db:          database,
		scanner:     scanner.NewScanner(mailDir),
		logger:      logger,
		concurrency: runtime.NumCPU() * 2, // 2x CPUs for optimal I/O parallelism
	}
}

// WithConcurrency sets the number of concurrent workers
func (idx *Indexer) WithConcurrency(workers int) *Indexer {
	if workers < 1 {
		workers = 1
	}
	idx.concurrency = workers
	return idx
}

// IndexResult contains statistics about an indexing operation
type IndexResult struct {
	TotalFound  int
	NewIndexed  int
	Skipped     int
	Failed      int
	FailedFiles []string
}

// IndexAll scans the mail directory and ingests every .eml file that has
// not been stored yet, using a pool of concurrent workers.
func (idx *Indexer) IndexAll() (*IndexResult, error) {
	files, err := idx.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan for files: %w", err)
	}

	result := &IndexResult{
		TotalFound:  len(files),
		FailedFiles: make([]string, 0),
	}

	idx.logger.Info("starting ingest",
		zap.Int("files", result.TotalFound),
		zap.Int("workers", idx.concurrency))

	fileChan := make(chan string, len(files))
	resultChan := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < idx.concurrency; i++ {
		wg.Add(1)
		go idx.worker(&wg, fileChan, resultChan)
	}

	for _, file := range files {
		fileChan <- file
	}
	close(fileChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for res := range resultChan {
		switch res.status {
		case statusIndexed:
			result.NewIndexed++
		case statusSkipped:
			result.Skipped++
		case statusFailed:
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, res.filePath)
		}
	}

	idx.logger.Info("ingest complete",
		zap.Int("new", result.NewIndexed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result, nil
}

type fileStatus int

const (
	statusIndexed fileStatus = iota
	statusSkipped
	statusFailed
)

type fileResult struct {
	filePath string
	status   fileStatus
}

// worker processes files from the file channel
func (idx *Indexer) worker(wg *sync.WaitGroup, fileChan <-chan string, resultChan chan<- fileResult) {
	defer wg.Done()

	for filePath := range fileChan {
		resultChan <- fileResult{
			filePath: filePath,
			status:   idx.processFile(filePath),
		}
	}
}

// processFile decodes, normalizes and stores a single .eml file.
func (idx *Indexer) processFile(relPath string) fileStatus {
	decoded, err := parser.DecodeFile(idx.scanner.Resolve(relPath))
	if err != nil {
		idx.logger.Warn("failed to decode file",
			zap.String("file", relPath), zap.Error(err))
		return statusFailed
	}

	exists, err := idx.db.MessageExists(decoded.MessageID)
	if err != nil {
		idx.logger.Error("failed to check for duplicate",
			zap.String("file", relPath), zap.Error(err))
		return statusFailed
	}
	if exists {
		return statusSkipped
	}

	email := pipeline.Normalize(decoded)
	if _, err := idx.db.InsertMessage(email); err != nil {
		idx.logger.Error("failed to store message",
			zap.String("file", relPath), zap.Error(err))
		return statusFailed
	}

	return statusIndexed
}
