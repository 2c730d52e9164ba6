package normalize

import "github.com/personapro/enrich/internal/model"

// Company rewrites every URL field of a company profile to absolute form
// against the record's own website, then fills collection defaults. Relative
// URLs are illegal at rest; this is the single place they get repaired.
func Company(p *model.CompanyProfile) {
	base := p.Website
	p.Website = URL(p.Website, base)
	p.LinkedinURL = URL(p.LinkedinURL, base)
	p.TwitterURL = URL(p.TwitterURL, base)
	p.FacebookURL = URL(p.FacebookURL, base)
	p.InstagramURL = URL(p.InstagramURL, base)
	p.YoutubeURL = URL(p.YoutubeURL, base)
	for i := range p.Leadership {
		p.Leadership[i].LinkedinURL = URL(p.Leadership[i].LinkedinURL, base)
	}
	for i := range p.Blogs {
		p.Blogs[i].URL = URL(p.Blogs[i].URL, base)
	}
	p.Normalize()
}

// Client rewrites every URL field of a client profile to absolute form
// against the record's own website, then fills collection defaults.
func Client(p *model.ClientProfile) {
	base := p.Website
	p.Website = URL(p.Website, base)
	p.LinkedinURL = URL(p.LinkedinURL, base)
	p.TwitterURL = URL(p.TwitterURL, base)
	p.FacebookURL = URL(p.FacebookURL, base)
	p.InstagramURL = URL(p.InstagramURL, base)
	for i := range p.Blogs {
		p.Blogs[i].URL = URL(p.Blogs[i].URL, base)
	}
	p.Normalize()
}
