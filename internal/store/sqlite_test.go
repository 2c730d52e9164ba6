package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteTokens(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveToken(ctx, "tok-1", "user-1", nil))

	userID, err := s.UserIDForToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	userID, err = s.UserIDForToken(ctx, "tok-unknown")
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestSQLiteAPIKeys(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	key, err := s.APIKey(ctx, "user-1", "openai")
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, s.SetAPIKey(ctx, "user-1", "openai", "sk-first"))
	require.NoError(t, s.SetAPIKey(ctx, "user-1", "openai", "sk-second"))

	key, err = s.APIKey(ctx, "user-1", "openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-second", key)
}

func TestSQLiteClientUpdate(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreateClient(ctx, "client-1", "user-1", "Acme"))

	upd := model.ClientUpdate{
		ClientID:      "client-1",
		Company:       "Acme Corp",
		Website:       "https://acme.com",
		Industry:      "Manufacturing",
		EmployeeCount: "350",
		City:          "Albuquerque",
		Keywords:      []string{"anvils", "mesa"},
		ProviderData:  map[string]any{"funding_events": []any{map[string]any{"amount": "10M"}}},
	}
	require.NoError(t, s.ApplyClientUpdate(ctx, "user-1", upd))

	c, err := s.GetClient(ctx, "client-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", c.Company)
	assert.Equal(t, "350", c.EmployeeCount)
	assert.Equal(t, []string{"anvils", "mesa"}, c.Keywords)
	assert.Contains(t, c.ApolloData, "funding_events")
}

func TestSQLiteClientUpdate_WrongUser(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreateClient(ctx, "client-1", "user-1", "Acme"))

	err := s.ApplyClientUpdate(ctx, "user-2", model.ClientUpdate{ClientID: "client-1"})
	var nf *fault.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = s.GetClient(ctx, "client-1", "user-2")
	require.ErrorAs(t, err, &nf)
}

func TestSQLiteContactUpsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	contact := model.Contact{
		ClientID:        "client-1",
		UserID:          "user-1",
		Name:            "Jo Smith",
		Email:           "jo@acme.com",
		Role:            "CEO",
		IsDecisionMaker: true,
		Source:          "apollo",
	}
	require.NoError(t, s.UpsertContact(ctx, contact))

	// Same (client_id, email) updates in place instead of duplicating.
	contact.Role = "Chief Executive Officer"
	contact.LinkedinURL = "https://linkedin.com/in/josmith"
	require.NoError(t, s.UpsertContact(ctx, contact))

	contacts, err := s.ListContacts(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Chief Executive Officer", contacts[0].Role)
	assert.Equal(t, "https://linkedin.com/in/josmith", contacts[0].LinkedinURL)
}

func TestSQLiteChatHistory(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, s.SaveChatMessage(ctx, ChatMessage{
			ClientID: "client-1",
			UserID:   "user-1",
			Role:     "user",
			Content:  content,
		}))
	}

	msgs, err := s.ListChatHistory(ctx, "client-1", "user-1", 2)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	msgs, err = s.ListChatHistory(ctx, "client-1", "other-user", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLiteOpportunities(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.AddOpportunity(ctx, Opportunity{
		ClientID: "client-1",
		Title:    "Anvil contract",
		Stage:    "proposal",
		Value:    "50000",
	}))

	opps, err := s.ListOpportunities(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "Anvil contract", opps[0].Title)
	assert.NotEmpty(t, opps[0].ID)
}
