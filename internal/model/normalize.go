package model

import "github.com/google/uuid"

// Normalize fills in collection zero values and assigns ids to nested
// entities that arrived without one. Call it on every profile before it
// leaves the process: downstream consumers rely on collections encoding as
// [] rather than null.
func (p *CompanyProfile) Normalize() {
	if p.Services == nil {
		p.Services = []Service{}
	}
	for i := range p.Services {
		if p.Services[i].ID == "" {
			p.Services[i].ID = uuid.NewString()
		}
		if p.Services[i].Tags == nil {
			p.Services[i].Tags = []string{}
		}
	}
	if p.Leadership == nil {
		p.Leadership = []Leader{}
	}
	for i := range p.Leadership {
		if p.Leadership[i].ID == "" {
			p.Leadership[i].ID = uuid.NewString()
		}
		if p.Leadership[i].Skills == nil {
			p.Leadership[i].Skills = []string{}
		}
	}
	if p.Blogs == nil {
		p.Blogs = []BlogPost{}
	}
	for i := range p.Blogs {
		if p.Blogs[i].ID == "" {
			p.Blogs[i].ID = uuid.NewString()
		}
	}
	if p.Technology.Stack == nil {
		p.Technology.Stack = []string{}
	}
	if p.Technology.Partners == nil {
		p.Technology.Partners = []string{}
	}
	if p.Technology.Integrations == nil {
		p.Technology.Integrations = []string{}
	}
}

// Normalize fills in collection zero values on a client profile.
func (p *ClientProfile) Normalize() {
	if p.Services == nil {
		p.Services = []ClientService{}
	}
	if p.Technologies == nil {
		p.Technologies = []ClientTechnology{}
	}
	if p.PainPoints == nil {
		p.PainPoints = []string{}
	}
	if p.Competitors == nil {
		p.Competitors = []Competitor{}
	}
	if p.Blogs == nil {
		p.Blogs = []ClientBlog{}
	}
}
