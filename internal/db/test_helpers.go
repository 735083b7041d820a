package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/felo/mailroom/internal/pipeline"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	return db
}

// CreateTestEmail creates a canonical record with default values
func CreateTestEmail(subject, sender, body string) *pipeline.Email {
	return &pipeline.Email{
		MessageID:        fmt.Sprintf("<%s@test.com>", subject),
		Subject:          subject,
		From:             sender,
		FromName:         "Test Sender",
		To:               []string{"support@test.com"},
		Body:             body,
		BodyHTML:         "",
		BodyHTMLStripped: "",
		Date:             time.Now().UTC().Truncate(time.Second),
		Headers:          map[string][]string{"Subject": {subject}},
	}
}

// InsertTestEmails inserts canonical records and returns their ids
func InsertTestEmails(t *testing.T, db *DB, emails []*pipeline.Email) []int64 {
	t.Helper()

	ids := make([]int64, len(emails))
	for i, email := range emails {
		id, err := db.InsertMessage(email)
		if err != nil {
			t.Fatalf("Failed to insert test email %d: %v", i, err)
		}
		ids[i] = id
	}
	return ids
}
