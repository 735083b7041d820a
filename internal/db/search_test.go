package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felo/mailroom/internal/pipeline"
)

// TestSearchMessages_BodyMatch tests FTS matching on the plain body text
func TestSearchMessages_BodyMatch(t *testing.T) {
	db := SetupTestDB(t)

	InsertTestEmails(t, db, []*pipeline.Email{
		CreateTestEmail("invoice", "billing@shop.test", "your invoice is attached"),
		CreateTestEmail("shipping", "logistics@shop.test", "your parcel has shipped"),
	})

	results, err := db.SearchMessages("invoice", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "invoice", results[0].Email.Subject)
	assert.Contains(t, results[0].Snippet, "<mark>invoice</mark>")
}

// TestSearchMessages_StrippedHTMLMatch tests matching on the HTML projection
func TestSearchMessages_StrippedHTMLMatch(t *testing.T) {
	db := SetupTestDB(t)

	email := CreateTestEmail("newsletter", "news@shop.test", "")
	email.BodyHTML = "<p>Exclusive <b>midsummer</b> discounts inside</p>"
	email.BodyHTMLStripped = "Exclusive midsummer discounts inside"
	InsertTestEmails(t, db, []*pipeline.Email{email})

	results, err := db.SearchMessages("midsummer", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "newsletter", results[0].Email.Subject)
}

// TestSearchMessages_PrefixMatch tests that terms match as prefixes
func TestSearchMessages_PrefixMatch(t *testing.T) {
	db := SetupTestDB(t)

	InsertTestEmails(t, db, []*pipeline.Email{
		CreateTestEmail("refund", "support@shop.test", "processing your refund now"),
	})

	results, err := db.SearchMessages("refun", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

// TestSearchMessages_NoMatch tests the empty result set
func TestSearchMessages_NoMatch(t *testing.T) {
	db := SetupTestDB(t)

	InsertTestEmails(t, db, []*pipeline.Email{
		CreateTestEmail("hello", "a@b.test", "nothing to see"),
	})

	results, err := db.SearchMessages("zzzzunmatched", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// TestSearchMessages_EmptyQuery tests fallback to a recent-message listing
func TestSearchMessages_EmptyQuery(t *testing.T) {
	db := SetupTestDB(t)

	InsertTestEmails(t, db, []*pipeline.Email{
		CreateTestEmail("one", "a@b.test", "first body"),
		CreateTestEmail("two", "a@b.test", "second body"),
	})

	results, err := db.SearchMessages("", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEmpty(t, r.Snippet)
	}
}

// TestSearchMessages_QuoteEscaping tests that embedded quotes do not break FTS
func TestSearchMessages_QuoteEscaping(t *testing.T) {
	db := SetupTestDB(t)

	InsertTestEmails(t, db, []*pipeline.Email{
		CreateTestEmail("plain", "a@b.test", "ordinary text"),
	})

	_, err := db.SearchMessages(`say "hello" there`, 10)
	assert.NoError(t, err)
}
