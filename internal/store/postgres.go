package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Satisfied by pgxmock
// pools in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	keywords       JSONB NOT NULL DEFAULT '[]',
	apollo_data    JSONB,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
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
	expires_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS contacts (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id         TEXT NOT NULL,
	user_id           TEXT NOT NULL,
	name              TEXT NOT NULL,
	email             TEXT NOT NULL,
	phone             TEXT NOT NULL DEFAULT '',
	role              TEXT NOT NULL,
	department        TEXT NOT NULL DEFAULT '',
	is_primary        BOOLEAN NOT NULL DEFAULT false,
	is_decision_maker BOOLEAN NOT NULL DEFAULT false,
	source            TEXT NOT NULL DEFAULT '',
	linkedin_url      TEXT NOT NULL DEFAULT '',
	UNIQUE (client_id, email)
);

CREATE INDEX IF NOT EXISTS idx_contacts_client_id ON contacts(client_id);

CREATE TABLE IF NOT EXISTS chat_history (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id  TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chat_history_client ON chat_history(client_id, created_at DESC);

CREATE TABLE IF NOT EXISTS opportunities (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id  TEXT NOT NULL,
	title      TEXT NOT NULL,
	stage      TEXT NOT NULL DEFAULT '',
	value      TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_opportunities_client_id ON opportunities(client_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UserIDForToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.pool.QueryRow(ctx,
		`SELECT user_id FROM auth_tokens WHERE token = $1 AND (expires_at IS NULL OR expires_at > now())`,
		token,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", eris.Wrap(err, "postgres: lookup token")
	}
	return userID, nil
}

func (s *PostgresStore) APIKey(ctx context.Context, userID, provider string) (string, error) {
	var key string
	err := s.pool.QueryRow(ctx,
		`SELECT api_key FROM api_keys WHERE user_id = $1 AND provider = $2`,
		userID, provider,
	).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", eris.Wrapf(err, "postgres: get api key %s", provider)
	}
	return key, nil
}

func (s *PostgresStore) SetAPIKey(ctx context.Context, userID, provider, key string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (user_id, provider, api_key) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, provider) DO UPDATE SET api_key = $3`,
		userID, provider, key,
	)
	return eris.Wrapf(err, "postgres: set api key %s", provider)
}

func (s *PostgresStore) GetClient(ctx context.Context, clientID, userID string) (*ClientRecord, error) {
	var c ClientRecord
	var keywordsJSON []byte
	var apolloJSON *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, company, website, industry, description, founded,
		        employee_count, annual_revenue, city, country, zip_code,
		        primary_phone, linkedin_url, twitter_url, facebook_url,
		        keywords, apollo_data, updated_at
		 FROM clients WHERE id = $1 AND user_id = $2`,
		clientID, userID,
	).Scan(&c.ID, &c.UserID, &c.Company, &c.Website, &c.Industry, &c.Description,
		&c.Founded, &c.EmployeeCount, &c.AnnualRevenue, &c.City, &c.Country,
		&c.ZipCode, &c.PrimaryPhone, &c.LinkedinURL, &c.TwitterURL,
		&c.FacebookURL, &keywordsJSON, &apolloJSON, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &fault.NotFoundError{Subject: "client", Hint: "id " + clientID}
		}
		return nil, eris.Wrapf(err, "postgres: get client %s", clientID)
	}

	if err := json.Unmarshal(keywordsJSON, &c.Keywords); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal keywords")
	}
	if apolloJSON != nil {
		if err := json.Unmarshal(*apolloJSON, &c.ApolloData); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal apollo data")
		}
	}
	return &c, nil
}

func (s *PostgresStore) ApplyClientUpdate(ctx context.Context, userID string, upd model.ClientUpdate) error {
	keywords := upd.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal keywords")
	}
	apolloJSON, err := json.Marshal(upd.ProviderData)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal apollo data")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE clients SET
		   company = $1, website = $2, industry = $3, description = $4,
		   founded = $5, employee_count = $6, annual_revenue = $7,
		   city = $8, country = $9, zip_code = $10, primary_phone = $11,
		   linkedin_url = $12, twitter_url = $13, facebook_url = $14,
		   keywords = $15, apollo_data = $16, updated_at = $17
		 WHERE id = $18 AND user_id = $19`,
		upd.Company, upd.Website, upd.Industry, upd.Description,
		upd.Founded, upd.EmployeeCount, upd.AnnualRevenue,
		upd.City, upd.Country, upd.ZipCode, upd.PrimaryPhone,
		upd.LinkedinURL, upd.TwitterURL, upd.FacebookURL,
		keywordsJSON, apolloJSON, time.Now().UTC(),
		upd.ClientID, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update client %s", upd.ClientID)
	}
	if tag.RowsAffected() == 0 {
		return &fault.NotFoundError{Subject: "client", Hint: "id " + upd.ClientID}
	}
	return nil
}

func (s *PostgresStore) UpsertContact(ctx context.Context, c model.Contact) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contacts
		   (id, client_id, user_id, name, email, phone, role, department,
		    is_primary, is_decision_maker, source, linkedin_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (client_id, email) DO UPDATE SET
		   name = $4, phone = $6, role = $7, department = $8,
		   is_decision_maker = $10, source = $11, linkedin_url = $12`,
		uuid.New().String(), c.ClientID, c.UserID, c.Name, c.Email, c.Phone,
		c.Role, c.Department, c.IsPrimary, c.IsDecisionMaker, c.Source, c.LinkedinURL,
	)
	return eris.Wrapf(err, "postgres: upsert contact %s", c.Email)
}

func (s *PostgresStore) ListContacts(ctx context.Context, clientID string) ([]model.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT client_id, user_id, name, email, phone, role, department,
		        is_primary, is_decision_maker, source, linkedin_url
		 FROM contacts WHERE client_id = $1 ORDER BY name`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ClientID, &c.UserID, &c.Name, &c.Email, &c.Phone,
			&c.Role, &c.Department, &c.IsPrimary, &c.IsDecisionMaker,
			&c.Source, &c.LinkedinURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		contacts = append(contacts, c)
	}
	return contacts, eris.Wrap(rows.Err(), "postgres: list contacts iterate")
}

func (s *PostgresStore) SaveChatMessage(ctx context.Context, msg ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_history (id, client_id, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.ClientID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt,
	)
	return eris.Wrap(err, "postgres: save chat message")
}

func (s *PostgresStore) ListChatHistory(ctx context.Context, clientID, userID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, user_id, role, content, created_at
		 FROM chat_history WHERE client_id = $1 AND user_id = $2
		 ORDER BY created_at DESC LIMIT $3`,
		clientID, userID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list chat history")
	}
	defer rows.Close()

	msgs := []ChatMessage{}
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.ClientID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan chat message")
		}
		msgs = append(msgs, m)
	}
	return msgs, eris.Wrap(rows.Err(), "postgres: list chat history iterate")
}

func (s *PostgresStore) ListOpportunities(ctx context.Context, clientID string) ([]Opportunity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, title, stage, value, notes, created_at
		 FROM opportunities WHERE client_id = $1 ORDER BY created_at DESC`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list opportunities")
	}
	defer rows.Close()

	opps := []Opportunity{}
	for rows.Next() {
		var o Opportunity
		if err := rows.Scan(&o.ID, &o.ClientID, &o.Title, &o.Stage, &o.Value, &o.Notes, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan opportunity")
		}
		opps = append(opps, o)
	}
	return opps, eris.Wrap(rows.Err(), "postgres: list opportunities iterate")
}
