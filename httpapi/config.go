package httpapi

import (
	"strings"
	"time"

	"pkt.systems/yukora/schema"
)

// Config defines HTTP API and web console settings.
type Config struct {
	Addr     string
	BaseURL  string
	BasePath string
	// SessionTTL closes a page's console after this much inactivity.
	SessionTTL time.Duration
	Theme      schema.ThemeName
}

// DefaultSessionTTL applies when Config.SessionTTL is unset.
const DefaultSessionTTL = 30 * time.Minute

// mountPath returns BasePath as "/x/y" without a trailing slash, or "" for root.
func (c Config) mountPath() string {
	p := strings.Trim(strings.TrimSpace(c.BasePath), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// baseHref is the document base for the page, always ending in "/" when set.
func (c Config) baseHref() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	href := base + c.mountPath()
	if href == "" {
		return ""
	}
	return href + "/"
}
