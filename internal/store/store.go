package store

import (
	"context"
	"time"

	"github.com/personapro/enrich/internal/model"
)

// ClientRecord is a row of the clients table: fixed columns for common
// fields plus a catch-all apollo_data blob for everything the flat schema
// has no column for.
type ClientRecord struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Company       string         `json:"company"`
	Website       string         `json:"website"`
	Industry      string         `json:"industry"`
	Description   string         `json:"description"`
	Founded       string         `json:"founded"`
	EmployeeCount string         `json:"employee_count"`
	AnnualRevenue string         `json:"annual_revenue"`
	City          string         `json:"city"`
	Country       string         `json:"country"`
	ZipCode       string         `json:"zip_code"`
	PrimaryPhone  string         `json:"primary_phone"`
	LinkedinURL   string         `json:"linkedin_url"`
	TwitterURL    string         `json:"twitter_url"`
	FacebookURL   string         `json:"facebook_url"`
	Keywords      []string       `json:"keywords"`
	ApolloData    map[string]any `json:"apollo_data,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ChatMessage is one turn of a client's stored conversation history.
type ChatMessage struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Opportunity is a sales opportunity attached to a client.
type Opportunity struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Title     string    `json:"title"`
	Stage     string    `json:"stage"`
	Value     string    `json:"value"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the persistence interface for the enrichment service.
type Store interface {
	// Auth
	UserIDForToken(ctx context.Context, token string) (string, error)

	// Per-user provider credentials; "" when the user has none stored.
	APIKey(ctx context.Context, userID, provider string) (string, error)
	SetAPIKey(ctx context.Context, userID, provider, key string) error

	// Clients
	GetClient(ctx context.Context, clientID, userID string) (*ClientRecord, error)
	ApplyClientUpdate(ctx context.Context, userID string, upd model.ClientUpdate) error

	// Contacts, upserted on (client_id, email)
	UpsertContact(ctx context.Context, c model.Contact) error
	ListContacts(ctx context.Context, clientID string) ([]model.Contact, error)

	// Chat history
	SaveChatMessage(ctx context.Context, msg ChatMessage) error
	ListChatHistory(ctx context.Context, clientID, userID string, limit int) ([]ChatMessage, error)

	// Opportunities
	ListOpportunities(ctx context.Context, clientID string) ([]Opportunity, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
