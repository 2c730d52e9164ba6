package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

// anyArgs returns n pgxmock.AnyArg matchers; pgxmock requires the expected
// argument count to match even when individual values are unconstrained.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestPostgresStore_UserIDForToken(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT user_id FROM auth_tokens`).
		WithArgs("tok-1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("user-1"))

	userID, err := s.UserIDForToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UserIDForToken_Unknown(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT user_id FROM auth_tokens`).
		WithArgs("tok-bad").
		WillReturnError(pgx.ErrNoRows)

	userID, err := s.UserIDForToken(context.Background(), "tok-bad")
	require.NoError(t, err)
	assert.Empty(t, userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_APIKey_Absent(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT api_key FROM api_keys`).
		WithArgs("user-1", "openai").
		WillReturnError(pgx.ErrNoRows)

	key, err := s.APIKey(context.Background(), "user-1", "openai")
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetAPIKey_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO api_keys .* ON CONFLICT`).
		WithArgs("user-1", "apollo", "key-xyz").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SetAPIKey(context.Background(), "user-1", "apollo", "key-xyz")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetClient_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM clients WHERE id = \$1 AND user_id = \$2`).
		WithArgs("client-404", "user-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetClient(context.Background(), "client-404", "user-1")
	var nf *fault.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "client", nf.Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ApplyClientUpdate_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE clients SET`).
		WithArgs(anyArgs(19)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.ApplyClientUpdate(context.Background(), "user-1", model.ClientUpdate{ClientID: "client-404"})
	var nf *fault.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ApplyClientUpdate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE clients SET`).
		WithArgs(anyArgs(19)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.ApplyClientUpdate(context.Background(), "user-1", model.ClientUpdate{
		ClientID: "client-1",
		Company:  "Acme",
		Website:  "https://acme.com",
		Keywords: []string{"anvils"},
		ProviderData: map[string]any{
			"funding_events": []any{},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertContact(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO contacts .* ON CONFLICT \(client_id, email\)`).
		WithArgs(anyArgs(12)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertContact(context.Background(), model.Contact{
		ClientID:        "client-1",
		UserID:          "user-1",
		Name:            "Jo Smith",
		Email:           "jo@acme.com",
		Role:            "CEO",
		IsDecisionMaker: true,
		Source:          "apollo",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListContacts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"client_id", "user_id", "name", "email", "phone", "role", "department",
		"is_primary", "is_decision_maker", "source", "linkedin_url",
	}).AddRow("client-1", "user-1", "Jo Smith", "jo@acme.com", "", "CEO", "", false, true, "apollo", "")

	mock.ExpectQuery(`SELECT .* FROM contacts WHERE client_id = \$1`).
		WithArgs("client-1").
		WillReturnRows(rows)

	contacts, err := s.ListContacts(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "jo@acme.com", contacts[0].Email)
	assert.True(t, contacts[0].IsDecisionMaker)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListChatHistory_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM chat_history`).
		WithArgs("client-1", "user-1", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "client_id", "user_id", "role", "content", "created_at"}))

	msgs, err := s.ListChatHistory(context.Background(), "client-1", "user-1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.NotNil(t, msgs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
