package db

import (
	"fmt"
	"strings"
)

// SearchResult is a matching message with a highlighted snippet.
type SearchResult struct {
	Message
	Snippet string
}

// SearchMessages performs a full-text search over subject, sender, body text
// and the stripped HTML projection using FTS5.
func (db *DB) SearchMessages(query string, limit int) ([]*SearchResult, error) {
	if query == "" {
		msgs, err := db.ListMessages(limit, 0)
		if err != nil {
			return nil, err
		}
		results := make([]*SearchResult, len(msgs))
		for i, msg := range msgs {
			results[i] = &SearchResult{
				Message: *msg,
				Snippet: truncateText(msg.Email.Body, 200),
			}
		}
		return results, nil
	}

	// Add wildcards to each term for prefix matching: "john doe" -> "john* doe*"
	terms := strings.Fields(query)
	fuzzyTerms := make([]string, len(terms))
	for i, term := range terms {
		// Escape special FTS5 characters
		term = strings.ReplaceAll(term, `"`, `""`)
		fuzzyTerms[i] = `"` + term + `"*`
	}
	fuzzyQuery := strings.Join(fuzzyTerms, " ")

	rows, err := db.Query(`
		SELECT`+messageColumns("m")+`,
			snippet(messages_fts, 3, '<mark>', '</mark>', '...', 32) as snippet
		FROM messages m
		JOIN messages_fts ON m.id = messages_fts.rowid
		WHERE messages_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, fuzzyQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		result := &SearchResult{}
		msg, err := scanMessage(rows, &result.Snippet)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		result.Message = *msg
		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}
	return results, nil
}

// truncateText truncates text to maxLen characters
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
