package client

import (
	"net/url"
	"strings"
)

// FormattedURL is a display form of a resource URL: hostname without the
// leading "www.", and the path segments joined with " > ".
type FormattedURL struct {
	Hostname string
	Path     string
}

// FormatURL renders rawURL for display. Unparseable input yields the zero
// value rather than an error.
func FormatURL(rawURL string) FormattedURL {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return FormattedURL{}
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")

	var segs []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	path := strings.Join(segs, " > ")
	if len(segs) > 0 {
		path = "> " + path
	}

	return FormattedURL{Hostname: host, Path: path}
}
