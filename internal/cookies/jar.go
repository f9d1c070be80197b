package cookies

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Jar stores the cookies of one conversation in insertion order
type Jar struct {
	policy    Policy
	now       func() time.Time
	logger    *zap.Logger
	listeners []Listener

	cookies []*Cookie
}

// Option configures a Jar
type Option func(*Jar)

// WithPolicy sets the acceptance policy
func WithPolicy(p Policy) Option {
	return func(j *Jar) { j.policy = p }
}

// WithClock replaces time.Now, for expiration tests
func WithClock(now func() time.Time) Option {
	return func(j *Jar) { j.now = now }
}

// WithLogger sets the logger used to report rejections
func WithLogger(logger *zap.Logger) Option {
	return func(j *Jar) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// WithListener registers a push listener for rejections
func WithListener(l Listener) Option {
	return func(j *Jar) { j.listeners = append(j.listeners, l) }
}

// NewJar creates an empty jar with the strict policy unless overridden
func NewJar(opts ...Option) *Jar {
	j := &Jar{
		policy: StrictPolicy(),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Policy returns the active acceptance policy
func (j *Jar) Policy() Policy {
	return j.policy
}

// SetPolicy changes the acceptance policy for later updates
func (j *Jar) SetPolicy(p Policy) {
	j.policy = p
}

// AddListener registers a push listener for rejections
func (j *Jar) AddListener(l Listener) {
	j.listeners = append(j.listeners, l)
}

// UpdateFrom folds every Set-Cookie and Set-Cookie2 header of a response
// received from source into the jar.
func (j *Jar) UpdateFrom(header http.Header, source *url.URL) UpdateResult {
	var values []string
	values = append(values, header.Values("Set-Cookie")...)
	values = append(values, header.Values("Set-Cookie2")...)
	return j.Update(values, source)
}

// Update folds raw Set-Cookie values received from source into the jar
func (j *Jar) Update(values []string, source *url.URL) UpdateResult {
	var result UpdateResult
	now := j.now()

	for _, value := range values {
		for _, c := range ParseSetCookie(value, now) {
			if reason, attr := j.accept(c, source); reason != Accepted {
				j.reject(&result, c, reason, attr)
				continue
			}
			j.store(c, now)
			result.Accepted = append(result.Accepted, c)
		}
	}
	return result
}

// accept applies the policy to c and fills in defaulted domain and path.
// Paths are compared escaped, the form they are matched in when sending.
func (j *Jar) accept(c *Cookie, source *url.URL) (RejectReason, string) {
	sourcePath := requestPath(source)
	if c.Path == "" {
		c.Path = defaultPath(sourcePath)
	} else if reason := j.policy.checkPath(c.Path, sourcePath); reason != Accepted {
		return reason, c.Path
	}

	if c.Domain == "" {
		c.Domain = strings.ToLower(source.Hostname())
		return Accepted, ""
	}
	domain, reason := j.policy.checkDomain(c.Domain, source.Hostname())
	if reason != Accepted {
		return reason, c.Domain
	}
	c.Domain = domain
	return Accepted, ""
}

func (j *Jar) reject(result *UpdateResult, c *Cookie, reason RejectReason, attr string) {
	result.Rejected = append(result.Rejected, Rejection{Cookie: c, Reason: reason, Attribute: attr})
	j.logger.Warn("Cookie rejected",
		zap.String("cookie", c.Name),
		zap.Stringer("reason", reason),
		zap.String("attribute", attr))
	for _, l := range j.listeners {
		l.CookieRejected(c.Name, reason, attr)
	}
}

// store replaces any cookie with the same identity. An expired cookie is a
// deletion marker and is not kept.
func (j *Jar) store(c *Cookie, now time.Time) {
	id := c.identity()
	kept := j.cookies[:0]
	for _, existing := range j.cookies {
		if existing.identity() != id {
			kept = append(kept, existing)
		}
	}
	j.cookies = kept

	if c.Expired(now) {
		return
	}
	j.cookies = append(j.cookies, c)
}

func (j *Jar) purgeExpired(now time.Time) {
	kept := j.cookies[:0]
	for _, c := range j.cookies {
		if !c.Expired(now) {
			kept = append(kept, c)
		}
	}
	j.cookies = kept
}

// CookieHeaderField returns the Cookie request header value for target:
// every live cookie that may be sent there, in insertion order.
func (j *Jar) CookieHeaderField(target *url.URL) string {
	return strings.Join(j.matching(target, false), "; ")
}

// TakeCookieHeaderField is CookieHeaderField for an outgoing request:
// single-use cookies included in the header are removed from the jar.
func (j *Jar) TakeCookieHeaderField(target *url.URL) string {
	return strings.Join(j.matching(target, true), "; ")
}

// SpendSingleUse drops the single-use cookies that would be sent to target
func (j *Jar) SpendSingleUse(target *url.URL) {
	j.matching(target, true)
}

func (j *Jar) matching(target *url.URL, consume bool) []string {
	j.purgeExpired(j.now())

	var parts []string
	kept := j.cookies[:0]
	for _, c := range j.cookies {
		send := c.MaySendTo(target)
		if send {
			parts = append(parts, c.String())
		}
		if consume && send && c.singleUse {
			continue
		}
		kept = append(kept, c)
	}
	j.cookies = kept
	return parts
}

// Cookie returns the most recently stored live cookie named name
func (j *Jar) Cookie(name string) *Cookie {
	now := j.now()
	for i := len(j.cookies) - 1; i >= 0; i-- {
		c := j.cookies[i]
		if strings.EqualFold(c.Name, name) && !c.Expired(now) {
			return c
		}
	}
	return nil
}

// CookieValue returns the value of Cookie(name), or ""
func (j *Jar) CookieValue(name string) string {
	if c := j.Cookie(name); c != nil {
		return c.Value
	}
	return ""
}

// Cookies returns copies of all live cookies in insertion order
func (j *Jar) Cookies() []*Cookie {
	j.purgeExpired(j.now())
	out := make([]*Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		out = append(out, c.clone())
	}
	return out
}

// CookieNames returns the distinct names of live cookies
func (j *Jar) CookieNames() []string {
	j.purgeExpired(j.now())
	seen := make(map[string]bool, len(j.cookies))
	names := make([]string, 0, len(j.cookies))
	for _, c := range j.cookies {
		key := strings.ToLower(c.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, c.Name)
	}
	return names
}

// PutCookie stores a cookie sent to every host and path
func (j *Jar) PutCookie(name, value string) {
	j.store(&Cookie{Name: name, Value: value}, j.now())
}

// PutSingleUseCookie stores a cookie scoped to domain and path that skips
// acceptance checks and is dropped after it is sent once. A Set-Cookie with
// the same identity replaces it.
func (j *Jar) PutSingleUseCookie(name, value, domain, path string) {
	j.store(&Cookie{Name: name, Value: value, Domain: domain, Path: path, singleUse: true}, j.now())
}

// Add stores c as-is without acceptance checks
func (j *Jar) Add(c *Cookie) {
	j.store(c.clone(), j.now())
}

// Clear removes every cookie
func (j *Jar) Clear() {
	j.cookies = nil
}

// Len returns the number of live cookies
func (j *Jar) Len() int {
	j.purgeExpired(j.now())
	return len(j.cookies)
}
