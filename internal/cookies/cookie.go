package cookies

import (
	"net/url"
	"strings"
	"time"
)

// deletionTime marks a cookie that must be removed on arrival
var deletionTime = time.Unix(0, 0).UTC()

// Cookie is one stored cookie.
//
// Identity for replacement is (Name case-insensitively, Domain, Path). A zero
// Expires means the cookie lives for the whole conversation.
type Cookie struct {
	Name    string
	Value   string
	Domain  string
	Path    string
	Expires time.Time

	// HTTPOnly is tracked but does not restrict access in this model
	HTTPOnly bool
	Secure   bool

	singleUse bool
}

type identity struct {
	name   string
	domain string
	path   string
}

func (c *Cookie) identity() identity {
	return identity{
		name:   strings.ToLower(c.Name),
		domain: strings.ToLower(c.Domain),
		path:   c.Path,
	}
}

// SingleUse reports whether the cookie is dropped after one request
func (c *Cookie) SingleUse() bool {
	return c.singleUse
}

// Expired reports whether the cookie is past its expiration at now
func (c *Cookie) Expired(now time.Time) bool {
	if c.Expires.IsZero() {
		return false
	}
	return !c.Expires.After(now)
}

// MaySendTo reports whether the cookie belongs in a request to u.
// An empty Domain or Path places no restriction.
func (c *Cookie) MaySendTo(u *url.URL) bool {
	if c.Domain != "" && !domainMatches(c.Domain, u.Hostname()) {
		return false
	}
	if c.Path != "" && !strings.HasPrefix(requestPath(u), c.Path) {
		return false
	}
	if c.Secure && !strings.EqualFold(u.Scheme, "https") {
		return false
	}
	return true
}

// String renders the cookie as it appears in a Cookie header
func (c *Cookie) String() string {
	return c.Name + "=" + c.Value
}

func (c *Cookie) clone() *Cookie {
	dup := *c
	return &dup
}

// domainMatches applies send-time matching: a dotted domain covers the host
// and every host beneath it, an undotted one only the exact host.
func domainMatches(domain, host string) bool {
	domain = strings.ToLower(domain)
	host = strings.ToLower(host)
	if strings.HasPrefix(domain, ".") {
		return host == domain[1:] || strings.HasSuffix(host, domain)
	}
	return host == domain
}

func requestPath(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		return "/"
	}
	return p
}

// defaultPath returns the directory of the request path, used when a
// Set-Cookie carries no Path attribute.
func defaultPath(path string) string {
	if len(path) == 0 || path[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(path, "/")
	if i == 0 {
		return "/"
	}
	return path[:i]
}
