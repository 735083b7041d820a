package db

import (
	"fmt"
	"strings"
)

// GetThread returns the stored messages belonging to the same conversation as
// the given message, ordered by date. Membership follows the References and
// In-Reply-To chains in both directions.
func (db *DB) GetThread(id int64) ([]*Message, error) {
	msg, err := db.GetMessage(id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}

	// Every Message-ID this message knows about, plus its own.
	ids := make([]string, 0, len(msg.Email.References)+2)
	ids = append(ids, msg.Email.References...)
	if msg.Email.InReplyTo != "" {
		ids = append(ids, msg.Email.InReplyTo)
	}
	if msg.Email.MessageID != "" {
		ids = append(ids, msg.Email.MessageID)
	}
	if len(ids) == 0 {
		return []*Message{msg}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)*3)
	for i := 0; i < 3; i++ {
		for _, v := range ids {
			args = append(args, v)
		}
	}

	rows, err := db.Query(`
		SELECT`+messageColumns("")+` FROM messages
		WHERE message_id IN (`+placeholders+`)
		   OR in_reply_to IN (`+placeholders+`)
		   OR `+referencesMatch(len(ids))+`
		ORDER BY date ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// referencesMatch builds an OR-chain matching any of n Message-IDs inside the
// space-separated thread_references column.
func referencesMatch(n int) string {
	terms := make([]string, n)
	for i := range terms {
		terms[i] = "instr(thread_references, ?) > 0"
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}
