package cookies

import "strings"

// RejectReason explains why a cookie was not stored
type RejectReason int

const (
	Accepted RejectReason = iota
	DomainNotSourceSuffix
	DomainOneDot
	DomainTooManyLevels
	PathNotPrefix
)

// String returns the reason code
func (r RejectReason) String() string {
	switch r {
	case Accepted:
		return "ACCEPTED"
	case DomainNotSourceSuffix:
		return "DOMAIN_NOT_SOURCE_SUFFIX"
	case DomainOneDot:
		return "DOMAIN_ONE_DOT"
	case DomainTooManyLevels:
		return "DOMAIN_TOO_MANY_LEVELS"
	case PathNotPrefix:
		return "PATH_NOT_PREFIX"
	default:
		return "UNKNOWN"
	}
}

// Policy selects the acceptance rules applied to header-borne cookies
type Policy struct {
	StrictDomain bool
	StrictPath   bool
}

// StrictPolicy is the default policy
func StrictPolicy() Policy {
	return Policy{StrictDomain: true, StrictPath: true}
}

// LenientPolicy accepts any domain suffix and any path
func LenientPolicy() Policy {
	return Policy{}
}

// checkDomain validates a Domain attribute against the host that sent it and
// returns the domain to store.
func (p Policy) checkDomain(domain, host string) (string, RejectReason) {
	host = strings.ToLower(host)
	d := strings.ToLower(domain)
	if d == host {
		return host, Accepted
	}
	if !strings.HasPrefix(d, ".") {
		if p.StrictDomain {
			return "", DomainNotSourceSuffix
		}
		d = "." + d
	}
	if strings.LastIndex(d, ".") == 0 {
		return "", DomainOneDot
	}
	if !strings.HasSuffix(host, d) {
		return "", DomainNotSourceSuffix
	}
	// host must carry exactly one label in front of the domain
	if p.StrictDomain && strings.LastIndex(host, d) > strings.Index(host, ".") {
		return "", DomainTooManyLevels
	}
	return d, Accepted
}

// checkPath validates a Path attribute against the path that set it
func (p Policy) checkPath(path, sourcePath string) RejectReason {
	if !p.StrictPath || sourcePath == "" || strings.HasPrefix(sourcePath, path) {
		return Accepted
	}
	return PathNotPrefix
}

// Rejection pairs a refused cookie with the reason and offending attribute
type Rejection struct {
	Cookie    *Cookie
	Reason    RejectReason
	Attribute string
}

// UpdateResult is the outcome of folding one response into the jar
type UpdateResult struct {
	Accepted []*Cookie
	Rejected []Rejection
}

// Listener receives cookie rejections as they happen
type Listener interface {
	CookieRejected(name string, reason RejectReason, attribute string)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(name string, reason RejectReason, attribute string)

// CookieRejected calls f
func (f ListenerFunc) CookieRejected(name string, reason RejectReason, attribute string) {
	f(name, reason, attribute)
}
