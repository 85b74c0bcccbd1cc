package engine

import "net/url"

// ShareLink is one "share this post" target.
type ShareLink struct {
	Network string
	Label   string
	URL     string
}

// ShareLinks builds the share targets for a post from its canonical URL.
func (e *Engine) ShareLinks(slug, title string) []ShareLink {
	link := e.PostURL(slug)
	u := url.QueryEscape(link)
	return []ShareLink{
		{"twitter", "X", "https://twitter.com/intent/tweet?url=" + u + "&text=" + url.QueryEscape(title)},
		{"linkedin", "LinkedIn", "https://www.linkedin.com/sharing/share-offsite/?url=" + u},
		{"facebook", "Facebook", "https://www.facebook.com/sharer/sharer.php?u=" + u},
		{"whatsapp", "WhatsApp", "https://wa.me/?text=" + url.QueryEscape(title+" "+link)},
		{"email", "Email", "mailto:?subject=" + url.PathEscape(title) + "&body=" + url.PathEscape(link)},
	}
}
