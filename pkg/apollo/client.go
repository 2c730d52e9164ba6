// Package apollo is a client for the Apollo.io B2B data API. Apollo
// enforces tight per-minute quotas, so all calls go through a shared rate
// limiter.
package apollo

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/personapro/enrich/internal/fault"
)

const defaultBaseURL = "https://api.apollo.io/api/v1"

// requestsPerMinute matches Apollo's default per-key quota.
const requestsPerMinute = 50

// Client exposes the Apollo operations the resolver needs.
type Client interface {
	// EnrichOrganization resolves a bare domain to an organization. Returns
	// (nil, nil) when Apollo has no record for the domain.
	EnrichOrganization(ctx context.Context, domain string) (*Organization, error)

	// GetOrganization fetches the full organization record by id.
	GetOrganization(ctx context.Context, id string) (*Organization, error)

	// SearchPeople runs a filtered people search within organizations.
	SearchPeople(ctx context.Context, req SearchPeopleRequest) (*SearchPeopleResponse, error)

	// MatchPerson enriches a single person record by id.
	MatchPerson(ctx context.Context, req MatchPersonRequest) (*Person, error)

	// SearchOrganizations runs a mixed_companies search by name.
	SearchOrganizations(ctx context.Context, name string) ([]Organization, error)
}

// Organization is Apollo's company record. Raw retains the full payload for
// fields without first-class columns downstream.
type Organization struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	WebsiteURL            string   `json:"website_url"`
	PrimaryDomain         string   `json:"primary_domain"`
	Industry              string   `json:"industry"`
	ShortDescription      string   `json:"short_description"`
	FoundedYear           int      `json:"founded_year"`
	EstimatedNumEmployees int      `json:"estimated_num_employees"`
	AnnualRevenuePrinted  string   `json:"annual_revenue_printed"`
	City                  string   `json:"city"`
	Country               string   `json:"country"`
	PostalCode            string   `json:"postal_code"`
	PrimaryPhone          Phone    `json:"primary_phone"`
	LinkedinURL           string   `json:"linkedin_url"`
	TwitterURL            string   `json:"twitter_url"`
	FacebookURL           string   `json:"facebook_url"`
	Keywords              []string `json:"keywords"`

	Raw map[string]any `json:"-"`
}

// Phone is Apollo's structured phone number.
type Phone struct {
	Number string `json:"number"`
}

// Person is Apollo's people record, shared by search and match responses.
type Person struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Email       string `json:"email"`
	LinkedinURL string `json:"linkedin_url"`
	Seniority   string `json:"seniority"`
	PhotoURL    string `json:"photo_url"`
}

// SearchPeopleRequest filters a mixed_people search.
type SearchPeopleRequest struct {
	OrganizationIDs   []string `json:"organization_ids,omitempty"`
	PersonSeniorities []string `json:"person_seniorities,omitempty"`
	PersonTitles      []string `json:"person_titles,omitempty"`
	Page              int      `json:"page,omitempty"`
	PerPage           int      `json:"per_page,omitempty"`
}

// SearchPeopleResponse is the mixed_people search result page.
type SearchPeopleResponse struct {
	People     []Person   `json:"people"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes a result page.
type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
	TotalPages   int `json:"total_pages"`
}

// MatchPersonRequest identifies the person to enrich.
type MatchPersonRequest struct {
	ID                   string `json:"id"`
	RevealPersonalEmails bool   `json:"reveal_personal_emails,omitempty"`
}

// Option configures the client.
type Option func(*restyClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *restyClient) {
		c.http.SetBaseURL(url)
	}
}

// WithRateLimit overrides the default requests-per-minute quota.
func WithRateLimit(perMinute int) Option {
	return func(c *restyClient) {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

type restyClient struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates an Apollo API client.
func NewClient(apiKey string, opts ...Option) Client {
	rc := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Cache-Control", "no-cache").
		SetHeader("X-Api-Key", apiKey)

	c := &restyClient{
		http:    rc,
		limiter: rate.NewLimiter(rate.Every(time.Minute/requestsPerMinute), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *restyClient) EnrichOrganization(ctx context.Context, domain string) (*Organization, error) {
	body, err := c.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParam("domain", domain).Get("/organizations/enrich")
	}, "apollo: enrich organization")
	if err != nil {
		return nil, err
	}

	org, err := decodeOrganization(body)
	if err != nil {
		return nil, err
	}
	// Apollo answers 200 with an empty organization when the domain is
	// unknown; absence of an id is the not-found signal.
	if org == nil || org.ID == "" {
		return nil, nil
	}
	return org, nil
}

func (c *restyClient) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	body, err := c.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/organizations/" + id)
	}, "apollo: get organization")
	if err != nil {
		return nil, err
	}

	org, err := decodeOrganization(body)
	if err != nil {
		return nil, err
	}
	if org == nil || org.ID == "" {
		return nil, &fault.NotFoundError{Subject: "organization", Hint: "id " + id}
	}
	return org, nil
}

func (c *restyClient) SearchPeople(ctx context.Context, req SearchPeopleRequest) (*SearchPeopleResponse, error) {
	body, err := c.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post("/mixed_people/search")
	}, "apollo: search people")
	if err != nil {
		return nil, err
	}

	var result SearchPeopleResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "apollo: unmarshal people search")
	}
	if result.People == nil {
		result.People = []Person{}
	}
	return &result, nil
}

func (c *restyClient) MatchPerson(ctx context.Context, req MatchPersonRequest) (*Person, error) {
	body, err := c.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post("/people/match")
	}, "apollo: match person")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Person *Person `json:"person"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "apollo: unmarshal person match")
	}
	if envelope.Person == nil {
		return nil, &fault.NotFoundError{Subject: "person", Hint: "id " + req.ID}
	}
	return envelope.Person, nil
}

func (c *restyClient) SearchOrganizations(ctx context.Context, name string) ([]Organization, error) {
	body, err := c.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(map[string]any{
			"q_organization_name": name,
			"page":                1,
			"per_page":            5,
		}).Post("/mixed_companies/search")
	}, "apollo: search organizations")
	if err != nil {
		return nil, err
	}

	var result struct {
		Organizations []Organization `json:"organizations"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "apollo: unmarshal company search")
	}
	if result.Organizations == nil {
		result.Organizations = []Organization{}
	}
	return result.Organizations, nil
}

func (c *restyClient) do(ctx context.Context, call func(*resty.Request) (*resty.Response, error), op string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, op)
	}

	resp, err := call(c.http.R().SetContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, op+": send request")
	}

	if resp.StatusCode() != http.StatusOK {
		err := eris.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode(), resp.String())
		if fault.IsTransientHTTPStatus(resp.StatusCode()) {
			return nil, fault.NewTransient(err, resp.StatusCode())
		}
		return nil, err
	}

	return resp.Body(), nil
}

// decodeOrganization unmarshals both the typed organization and its raw
// payload, unwrapping the {"organization": ...} envelope when present.
func decodeOrganization(body []byte) (*Organization, error) {
	var envelope struct {
		Organization json.RawMessage `json:"organization"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "apollo: unmarshal organization envelope")
	}

	payload := envelope.Organization
	if len(payload) == 0 || string(payload) == "null" {
		return nil, nil
	}

	var org Organization
	if err := json.Unmarshal(payload, &org); err != nil {
		return nil, eris.Wrap(err, "apollo: unmarshal organization")
	}
	if err := json.Unmarshal(payload, &org.Raw); err != nil {
		return nil, eris.Wrap(err, "apollo: unmarshal organization payload")
	}
	if org.Keywords == nil {
		org.Keywords = []string{}
	}
	return &org, nil
}
