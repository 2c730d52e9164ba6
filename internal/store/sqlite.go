package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for local
// development and tests; the service runs on Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	company        TEXT NOT NULL DEFAULT '',
	website        TEXT NOT NULL DEFAULT '',
	industry       TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	founded        TEXT NOT NULL DEFAULT '',
	employee_count TEXT NOT NULL DEFAULT '',
	annual_revenue TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	country        TEXT NOT NULL DEFAULT '',
	zip_code       TEXT NOT NULL DEFAULT '',
	primary_phone  TEXT NOT NULL DEFAULT '',
	linkedin_url   TEXT NOT NULL DEFAULT '',
	twitter_url    TEXT NOT NULL DEFAULT '',
	facebook_url   TEXT NOT NULL DEFAULT '',
	keywords       TEXT NOT NULL DEFAULT '[]',
	apollo_data    TEXT,
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_clients_user_id ON clients(user_id);

CREATE TABLE IF NOT EXISTS api_keys (
	user_id  TEXT NOT NULL,
	provider TEXT NOT NULL,
	api_key  TEXT NOT NULL,
	PRIMARY KEY (user_id, provider)
);

CREATE TABLE IF NOT EXISTS auth_tokens (
	token      TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	expires_at DATETIME
);

CREATE TABLE IF NOT EXISTS contacts (
	id                TEXT PRIMARY KEY,
	client_id         TEXT NOT NULL,
	user_id           TEXT NOT NULL,
	name              TEXT NOT NULL,
	email             TEXT NOT NULL,
	phone             TEXT NOT NULL DEFAULT '',
	role              TEXT NOT NULL,
	department        TEXT NOT NULL DEFAULT '',
	is_primary        INTEGER NOT NULL DEFAULT 0,
	is_decision_maker INTEGER NOT NULL DEFAULT 0,
	source            TEXT NOT NULL DEFAULT '',
	linkedin_url      TEXT NOT NULL DEFAULT '',
	UNIQUE (client_id, email)
);

CREATE INDEX IF NOT EXISTS idx_contacts_client_id ON contacts(client_id);

CREATE TABLE IF NOT EXISTS chat_history (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_chat_history_client ON chat_history(client_id, created_at DESC);

CREATE TABLE IF NOT EXISTS opportunities (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	title      TEXT NOT NULL,
	stage      TEXT NOT NULL DEFAULT '',
	value      TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_opportunities_client_id ON opportunities(client_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UserIDForToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM auth_tokens WHERE token = ? AND (expires_at IS NULL OR expires_at > datetime('now'))`,
		token,
	).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", eris.Wrap(err, "sqlite: lookup token")
	}
	return userID, nil
}

// SaveToken inserts an auth token; used to seed local environments.
func (s *SQLiteStore) SaveToken(ctx context.Context, token, userID string, expiresAt *time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO auth_tokens (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt,
	)
	return eris.Wrap(err, "sqlite: save token")
}

func (s *SQLiteStore) APIKey(ctx context.Context, userID, provider string) (string, error) {
	var key string
	err := s.db.QueryRowContext(ctx,
		`SELECT api_key FROM api_keys WHERE user_id = ? AND provider = ?`,
		userID, provider,
	).Scan(&key)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", eris.Wrapf(err, "sqlite: get api key %s", provider)
	}
	return key, nil
}

func (s *SQLiteStore) SetAPIKey(ctx context.Context, userID, provider, key string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (user_id, provider, api_key) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, provider) DO UPDATE SET api_key = excluded.api_key`,
		userID, provider, key,
	)
	return eris.Wrapf(err, "sqlite: set api key %s", provider)
}

// CreateClient inserts an empty client row; used to seed local environments.
func (s *SQLiteStore) CreateClient(ctx context.Context, id, userID, company string) error {
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, user_id, company, updated_at) VALUES (?, ?, ?, ?)`,
		id, userID, company, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: create client")
}

func (s *SQLiteStore) GetClient(ctx context.Context, clientID, userID string) (*ClientRecord, error) {
	var c ClientRecord
	var keywordsJSON string
	var apolloJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, company, website, industry, description, founded,
		        employee_count, annual_revenue, city, country, zip_code,
		        primary_phone, linkedin_url, twitter_url, facebook_url,
		        keywords, apollo_data, updated_at
		 FROM clients WHERE id = ? AND user_id = ?`,
		clientID, userID,
	).Scan(&c.ID, &c.UserID, &c.Company, &c.Website, &c.Industry, &c.Description,
		&c.Founded, &c.EmployeeCount, &c.AnnualRevenue, &c.City, &c.Country,
		&c.ZipCode, &c.PrimaryPhone, &c.LinkedinURL, &c.TwitterURL,
		&c.FacebookURL, &keywordsJSON, &apolloJSON, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &fault.NotFoundError{Subject: "client", Hint: "id " + clientID}
		}
		return nil, eris.Wrapf(err, "sqlite: get client %s", clientID)
	}

	if err := json.Unmarshal([]byte(keywordsJSON), &c.Keywords); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal keywords")
	}
	if apolloJSON.Valid && apolloJSON.String != "" {
		if err := json.Unmarshal([]byte(apolloJSON.String), &c.ApolloData); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal apollo data")
		}
	}
	return &c, nil
}

func (s *SQLiteStore) ApplyClientUpdate(ctx context.Context, userID string, upd model.ClientUpdate) error {
	keywords := upd.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal keywords")
	}
	apolloJSON, err := json.Marshal(upd.ProviderData)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal apollo data")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE clients SET
		   company = ?, website = ?, industry = ?, description = ?,
		   founded = ?, employee_count = ?, annual_revenue = ?,
		   city = ?, country = ?, zip_code = ?, primary_phone = ?,
		   linkedin_url = ?, twitter_url = ?, facebook_url = ?,
		   keywords = ?, apollo_data = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		upd.Company, upd.Website, upd.Industry, upd.Description,
		upd.Founded, upd.EmployeeCount, upd.AnnualRevenue,
		upd.City, upd.Country, upd.ZipCode, upd.PrimaryPhone,
		upd.LinkedinURL, upd.TwitterURL, upd.FacebookURL,
		string(keywordsJSON), string(apolloJSON), time.Now().UTC(),
		upd.ClientID, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update client %s", upd.ClientID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return &fault.NotFoundError{Subject: "client", Hint: "id " + upd.ClientID}
	}
	return nil
}

func (s *SQLiteStore) UpsertContact(ctx context.Context, c model.Contact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts
		   (id, client_id, user_id, name, email, phone, role, department,
		    is_primary, is_decision_maker, source, linkedin_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (client_id, email) DO UPDATE SET
		   name = excluded.name, phone = excluded.phone, role = excluded.role,
		   department = excluded.department,
		   is_decision_maker = excluded.is_decision_maker,
		   source = excluded.source, linkedin_url = excluded.linkedin_url`,
		uuid.New().String(), c.ClientID, c.UserID, c.Name, c.Email, c.Phone,
		c.Role, c.Department, c.IsPrimary, c.IsDecisionMaker, c.Source, c.LinkedinURL,
	)
	return eris.Wrapf(err, "sqlite: upsert contact %s", c.Email)
}

func (s *SQLiteStore) ListContacts(ctx context.Context, clientID string) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT client_id, user_id, name, email, phone, role, department,
		        is_primary, is_decision_maker, source, linkedin_url
		 FROM contacts WHERE client_id = ? ORDER BY name`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ClientID, &c.UserID, &c.Name, &c.Email, &c.Phone,
			&c.Role, &c.Department, &c.IsPrimary, &c.IsDecisionMaker,
			&c.Source, &c.LinkedinURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		contacts = append(contacts, c)
	}
	return contacts, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

func (s *SQLiteStore) SaveChatMessage(ctx context.Context, msg ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (id, client_id, user_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ClientID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: save chat message")
}

func (s *SQLiteStore) ListChatHistory(ctx context.Context, clientID, userID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, user_id, role, content, created_at
		 FROM chat_history WHERE client_id = ? AND user_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		clientID, userID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list chat history")
	}
	defer rows.Close()

	msgs := []ChatMessage{}
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.ClientID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan chat message")
		}
		msgs = append(msgs, m)
	}
	return msgs, eris.Wrap(rows.Err(), "sqlite: list chat history iterate")
}

// AddOpportunity inserts an opportunity row; used to seed local environments.
func (s *SQLiteStore) AddOpportunity(ctx context.Context, o Opportunity) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO opportunities (id, client_id, title, stage, value, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ClientID, o.Title, o.Stage, o.Value, o.Notes, o.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: add opportunity")
}

func (s *SQLiteStore) ListOpportunities(ctx context.Context, clientID string) ([]Opportunity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, title, stage, value, notes, created_at
		 FROM opportunities WHERE client_id = ? ORDER BY created_at DESC`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list opportunities")
	}
	defer rows.Close()

	opps := []Opportunity{}
	for rows.Next() {
		var o Opportunity
		if err := rows.Scan(&o.ID, &o.ClientID, &o.Title, &o.Stage, &o.Value, &o.Notes, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan opportunity")
		}
		opps = append(opps, o)
	}
	return opps, eris.Wrap(rows.Err(), "sqlite: list opportunities iterate")
}
