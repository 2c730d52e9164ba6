// Package resolver turns a website URL into structured organization and
// contact data through Apollo: domain extraction, organization enrichment,
// full detail fetch, and filtered people search with per-person enrichment.
package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/model"
	"github.com/personapro/enrich/internal/normalize"
	"github.com/personapro/enrich/internal/store"
	"github.com/personapro/enrich/pkg/apollo"
)

// seniorities and titles filter the people search to likely buyers.
var (
	searchSeniorities = []string{"executive", "director", "manager"}
	searchTitles      = []string{
		"CEO", "CFO", "CTO", "COO", "Founder", "Co-Founder",
		"President", "Vice President", "VP", "Director", "Manager", "Head",
	}
	decisionMakerHints = []string{
		"ceo", "founder", "president", "vp", "vice president", "director", "chief",
	}
)

// peoplePerPage bounds a single search batch.
const peoplePerPage = 25

// enrichConcurrency bounds parallel per-person enrichment calls.
const enrichConcurrency = 5

// Resolver runs the Apollo flows. The store is optional; without it the
// resolver returns data but persists nothing.
type Resolver struct {
	client apollo.Client
	store  store.Store
}

// New creates a Resolver.
func New(client apollo.Client, st store.Store) *Resolver {
	return &Resolver{client: client, store: st}
}

// Organization resolves website → domain → organization and maps the result
// into a client update. When clientID is set and a store is configured, the
// update is written back to the clients table.
func (r *Resolver) Organization(ctx context.Context, clientID, userID, website string) (*model.ClientUpdate, error) {
	domain := normalize.Domain(website)
	if domain == "" {
		return nil, &fault.ValidationError{Field: "website", Message: "could not extract a domain"}
	}

	org, err := r.client.EnrichOrganization(ctx, domain)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, &fault.NotFoundError{Subject: "organization", Hint: "verify the website URL"}
	}

	full, err := r.client.GetOrganization(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	r.backfillSparse(ctx, domain, full)

	upd := mapOrganization(clientID, full)
	if r.store != nil && clientID != "" {
		if err := r.store.ApplyClientUpdate(ctx, userID, *upd); err != nil {
			return nil, err
		}
	}

	zap.L().Info("organization resolved",
		zap.String("domain", domain),
		zap.String("org_id", full.ID),
		zap.String("client_id", clientID),
	)
	return upd, nil
}

// People resolves website → organization → filtered people, enriches each
// person concurrently, applies the admission filter, and upserts the
// survivors as contacts. Per-person enrichment failures degrade that person
// to the bulk-search record; they never fail the batch.
func (r *Resolver) People(ctx context.Context, clientID, userID, website string) (*model.PeopleResult, error) {
	domain := normalize.Domain(website)
	if domain == "" {
		return nil, &fault.ValidationError{Field: "website", Message: "could not extract a domain"}
	}

	org, err := r.client.EnrichOrganization(ctx, domain)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, &fault.NotFoundError{Subject: "organization", Hint: "verify the website URL"}
	}

	search, err := r.client.SearchPeople(ctx, apollo.SearchPeopleRequest{
		OrganizationIDs:   []string{org.ID},
		PersonSeniorities: searchSeniorities,
		PersonTitles:      searchTitles,
		Page:              1,
		PerPage:           peoplePerPage,
	})
	if err != nil {
		return nil, err
	}

	people := r.enrichPeople(ctx, search.People)

	result := &model.PeopleResult{
		Contacts:   []model.Contact{},
		TotalFound: len(people),
	}
	for _, p := range people {
		contact, reject := admit(p, clientID, userID)
		switch reject {
		case "":
			result.Contacts = append(result.Contacts, contact)
		case "email":
			result.Filtered.MissingEmail++
		case "name":
			result.Filtered.MissingName++
		case "title":
			result.Filtered.MissingTitle++
		}
	}
	result.TotalAdmitted = len(result.Contacts)

	if r.store != nil && clientID != "" {
		for _, c := range result.Contacts {
			if err := r.store.UpsertContact(ctx, c); err != nil {
				return nil, err
			}
		}
	}

	zap.L().Info("people resolved",
		zap.String("domain", domain),
		zap.Int("found", result.TotalFound),
		zap.Int("admitted", result.TotalAdmitted),
		zap.Int("rejected", result.Filtered.Total()),
	)
	return result, nil
}

// backfillSparse fills missing location and phone fields from a company-name
// search when the enriched record lacks them. Best effort: a failed search
// leaves the record as-is.
func (r *Resolver) backfillSparse(ctx context.Context, domain string, org *apollo.Organization) {
	if org.Name == "" || (org.City != "" && org.PrimaryPhone.Number != "") {
		return
	}

	candidates, err := r.client.SearchOrganizations(ctx, org.Name)
	if err != nil {
		zap.L().Debug("organization backfill degraded",
			zap.String("org", org.Name),
			zap.Error(err),
		)
		return
	}
	for _, c := range candidates {
		if c.PrimaryDomain != domain {
			continue
		}
		if org.City == "" {
			org.City = c.City
		}
		if org.Country == "" {
			org.Country = c.Country
		}
		if org.PostalCode == "" {
			org.PostalCode = c.PostalCode
		}
		if org.PrimaryPhone.Number == "" {
			org.PrimaryPhone = c.PrimaryPhone
		}
		return
	}
}

// enrichPeople backfills email/linkedin/name fields with a per-person match
// call, bounded parallelism. A failed match leaves the bulk record as-is.
func (r *Resolver) enrichPeople(ctx context.Context, people []apollo.Person) []apollo.Person {
	out := make([]apollo.Person, len(people))
	copy(out, people)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range out {
		g.Go(func() error {
			matched, err := r.client.MatchPerson(ctx, apollo.MatchPersonRequest{ID: out[i].ID})
			if err != nil {
				zap.L().Debug("person enrichment degraded",
					zap.String("person_id", out[i].ID),
					zap.Error(err),
				)
				return nil
			}
			merge(&out[i], matched)
			return nil
		})
	}
	// Workers always return nil; Wait only propagates context cancellation.
	_ = g.Wait()
	return out
}

// merge fills empty fields of dst from src.
func merge(dst *apollo.Person, src *apollo.Person) {
	if dst.Email == "" {
		dst.Email = src.Email
	}
	if dst.LinkedinURL == "" {
		dst.LinkedinURL = src.LinkedinURL
	}
	if dst.FirstName == "" {
		dst.FirstName = src.FirstName
	}
	if dst.LastName == "" {
		dst.LastName = src.LastName
	}
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
}

// admit applies the contact admission filter. Returns the contact and "" on
// success, or a zero contact and the first reject reason that applied.
func admit(p apollo.Person, clientID, userID string) (model.Contact, string) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	}

	if strings.TrimSpace(p.Email) == "" {
		return model.Contact{}, "email"
	}
	if name == "" {
		return model.Contact{}, "name"
	}
	if strings.TrimSpace(p.Title) == "" {
		return model.Contact{}, "title"
	}

	return model.Contact{
		ClientID:        clientID,
		UserID:          userID,
		Name:            name,
		Email:           strings.TrimSpace(p.Email),
		Role:            strings.TrimSpace(p.Title),
		IsDecisionMaker: isDecisionMaker(p.Title),
		Source:          "apollo",
		LinkedinURL:     p.LinkedinURL,
	}, ""
}

// isDecisionMaker is a deterministic title heuristic, not a provider field.
func isDecisionMaker(title string) bool {
	title = strings.ToLower(title)
	for _, hint := range decisionMakerHints {
		if strings.Contains(title, hint) {
			return true
		}
	}
	return false
}

// apolloDataKeys lists the payload fields retained under apollo_data; the
// flat schema has no first-class columns for these.
var apolloDataKeys = []string{
	"keywords", "technologies", "current_technologies", "funding_events",
	"total_funding", "total_funding_printed", "latest_funding_round_date",
	"latest_funding_stage", "departmental_head_count", "employee_metrics",
	"industries", "secondary_industries", "languages",
}

// mapOrganization partitions an organization into fixed columns and the
// apollo_data catch-all blob.
func mapOrganization(clientID string, org *apollo.Organization) *model.ClientUpdate {
	founded := ""
	if org.FoundedYear > 0 {
		founded = strconv.Itoa(org.FoundedYear)
	}
	employees := ""
	if org.EstimatedNumEmployees > 0 {
		employees = fmt.Sprintf("%d", org.EstimatedNumEmployees)
	}

	data := map[string]any{}
	for _, k := range apolloDataKeys {
		if v, ok := org.Raw[k]; ok && v != nil {
			data[k] = v
		}
	}

	keywords := org.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return &model.ClientUpdate{
		ClientID:      clientID,
		Company:       org.Name,
		Website:       org.WebsiteURL,
		Industry:      org.Industry,
		Description:   org.ShortDescription,
		Founded:       founded,
		EmployeeCount: employees,
		AnnualRevenue: org.AnnualRevenuePrinted,
		City:          org.City,
		Country:       org.Country,
		ZipCode:       org.PostalCode,
		PrimaryPhone:  org.PrimaryPhone.Number,
		LinkedinURL:   org.LinkedinURL,
		TwitterURL:    org.TwitterURL,
		FacebookURL:   org.FacebookURL,
		Keywords:      keywords,
		ProviderData:  data,
	}
}
