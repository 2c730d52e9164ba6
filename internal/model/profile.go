package model

// CompanyProfile is the canonical company record every provider adapter
// converges to, independent of source. Scalars are "" when unknown and
// collections are empty (never null) so the completeness scorer can treat
// absence uniformly.
type CompanyProfile struct {
	CompanyName      string `json:"companyName"`
	Website          string `json:"website"`
	Industry         string `json:"industry"`
	Description      string `json:"description"`
	ValueProposition string `json:"valueProposition"`
	Founded          string `json:"founded"`
	Location         string `json:"location"`
	Size             string `json:"size"`
	Mission          string `json:"mission"`
	Vision           string `json:"vision"`

	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	LinkedinURL  string `json:"linkedinUrl"`
	TwitterURL   string `json:"twitterUrl"`
	FacebookURL  string `json:"facebookUrl"`
	InstagramURL string `json:"instagramUrl"`
	YoutubeURL   string `json:"youtubeUrl"`

	Services   []Service  `json:"services"`
	Leadership []Leader   `json:"leadership"`
	Blogs      []BlogPost `json:"blogs"`
	Technology Technology `json:"technology"`
}

// Service is a single offering in a company profile.
type Service struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Pricing     string   `json:"pricing"`
}

// Leader is a leadership team member.
type Leader struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Bio         string   `json:"bio"`
	LinkedinURL string   `json:"linkedinUrl"`
	Email       string   `json:"email"`
	Experience  string   `json:"experience"`
	Education   string   `json:"education"`
	Skills      []string `json:"skills"`
}

// BlogPost is a published article attributed to the company.
type BlogPost struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Date    string `json:"date"`
	Summary string `json:"summary"`
	Author  string `json:"author"`
}

// Technology groups the company's technical footprint.
type Technology struct {
	Stack        []string `json:"stack"`
	Partners     []string `json:"partners"`
	Integrations []string `json:"integrations"`
}

// ClientProfile is the canonical client record produced by the client-mode
// enrichment adapters. Flatter than CompanyProfile: location is split and the
// primary contact is inlined.
type ClientProfile struct {
	Company       string `json:"company"`
	Website       string `json:"website"`
	Industry      string `json:"industry"`
	Description   string `json:"description"`
	Founded       string `json:"founded"`
	CompanySize   string `json:"companySize"`
	EmployeeCount string `json:"employeeCount"`
	AnnualRevenue string `json:"annualRevenue"`

	City    string `json:"city"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode"`

	LinkedinURL  string `json:"linkedinUrl"`
	TwitterURL   string `json:"twitterUrl"`
	FacebookURL  string `json:"facebookUrl"`
	InstagramURL string `json:"instagramUrl"`

	ContactName  string `json:"contactName"`
	PrimaryEmail string `json:"primaryEmail"`
	PrimaryPhone string `json:"primaryPhone"`
	JobTitle     string `json:"jobTitle"`

	Services       []ClientService    `json:"services"`
	Technologies   []ClientTechnology `json:"technologies"`
	PainPoints     []string           `json:"painPoints"`
	Competitors    []Competitor       `json:"competitors"`
	Blogs          []ClientBlog       `json:"blogs"`
	ShortTermGoals string             `json:"shortTermGoals"`
	LongTermGoals  string             `json:"longTermGoals"`
}

// ClientService is a service entry in a client profile.
type ClientService struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ClientTechnology is a categorized technology entry.
type ClientTechnology struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Competitor pairs a competitor with a short comparison note.
type Competitor struct {
	Name       string `json:"name"`
	Comparison string `json:"comparison"`
}

// ClientBlog is a blog entry in a client profile.
type ClientBlog struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date"`
}

// Contact is a person resolved from a structured data source, flattened to
// the shape the contacts table accepts.
type Contact struct {
	ClientID        string `json:"client_id"`
	UserID          string `json:"user_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Role            string `json:"role"`
	Department      string `json:"department,omitempty"`
	IsPrimary       bool   `json:"is_primary"`
	IsDecisionMaker bool   `json:"is_decision_maker"`
	Source          string `json:"source"`
	LinkedinURL     string `json:"linkedin_url,omitempty"`
}
