package cookies

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestDomainAcceptance(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		source   string
		policy   Policy
		reason   RejectReason
		expected string
	}{
		{
			name:     "dotted domain one level above host",
			header:   "name=value;Domain=.meterware.com",
			source:   "http://www.meterware.com/",
			policy:   StrictPolicy(),
			reason:   Accepted,
			expected: ".meterware.com",
		},
		{
			name:   "dotted domain two levels above host",
			header: "name=value;Domain=.meterware.com",
			source: "http://www.some.meterware.com/",
			policy: StrictPolicy(),
			reason: DomainTooManyLevels,
		},
		{
			name:     "lenient accepts two levels",
			header:   "name=value;Domain=.meterware.com",
			source:   "http://www.some.meterware.com/",
			policy:   LenientPolicy(),
			reason:   Accepted,
			expected: ".meterware.com",
		},
		{
			name:     "domain equal to host",
			header:   "name=value;Domain=www.meterware.com",
			source:   "http://www.meterware.com/",
			policy:   StrictPolicy(),
			reason:   Accepted,
			expected: "www.meterware.com",
		},
		{
			name:   "undotted parent domain in strict mode",
			header: "name=value;Domain=meterware.com",
			source: "http://www.meterware.com/",
			policy: StrictPolicy(),
			reason: DomainNotSourceSuffix,
		},
		{
			name:     "undotted parent domain in lenient mode",
			header:   "name=value;Domain=meterware.com",
			source:   "http://www.meterware.com/",
			policy:   LenientPolicy(),
			reason:   Accepted,
			expected: ".meterware.com",
		},
		{
			name:   "unrelated domain",
			header: "name=value;Domain=.other.com",
			source: "http://www.meterware.com/",
			policy: LenientPolicy(),
			reason: DomainNotSourceSuffix,
		},
		{
			name:   "top level domain only",
			header: "name=value;Domain=.com",
			source: "http://www.com/",
			policy: LenientPolicy(),
			reason: DomainOneDot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar := NewJar(WithPolicy(tt.policy))
			result := jar.Update([]string{tt.header}, mustURL(t, tt.source))

			if tt.reason == Accepted {
				require.Len(t, result.Accepted, 1)
				assert.Empty(t, result.Rejected)
				assert.Equal(t, tt.expected, result.Accepted[0].Domain)
				assert.Equal(t, "value", jar.CookieValue("name"))
				return
			}

			require.Len(t, result.Rejected, 1)
			assert.Empty(t, result.Accepted)
			assert.Equal(t, tt.reason, result.Rejected[0].Reason)
			assert.Equal(t, 0, jar.Len())
		})
	}
}

func TestPathAcceptance(t *testing.T) {
	source := "http://www.meterware.com/servlets/login"

	jar := NewJar()
	result := jar.Update([]string{"a=b; path=/other"}, mustURL(t, source))
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, PathNotPrefix, result.Rejected[0].Reason)
	assert.Equal(t, "/other", result.Rejected[0].Attribute)

	jar = NewJar(WithPolicy(LenientPolicy()))
	result = jar.Update([]string{"a=b; path=/other"}, mustURL(t, source))
	require.Len(t, result.Accepted, 1)
	assert.Equal(t, "/other", result.Accepted[0].Path)

	jar = NewJar()
	jar.Update([]string{"c=d"}, mustURL(t, source))
	require.NotNil(t, jar.Cookie("c"))
	assert.Equal(t, "/servlets", jar.Cookie("c").Path)
	assert.Equal(t, "www.meterware.com", jar.Cookie("c").Domain)
}

func TestEscapedPathsRoundTrip(t *testing.T) {
	jar := NewJar()
	jar.Update([]string{"sid=1"}, mustURL(t, "http://host.test/my%20app/login"))
	require.NotNil(t, jar.Cookie("sid"))
	assert.Equal(t, "/my%20app", jar.Cookie("sid").Path)
	assert.Equal(t, "sid=1", jar.CookieHeaderField(mustURL(t, "http://host.test/my%20app/page")))
	assert.Empty(t, jar.CookieHeaderField(mustURL(t, "http://host.test/other")))

	result := jar.Update([]string{"pref=x; path=/my%20app"}, mustURL(t, "http://host.test/my%20app/settings"))
	require.Len(t, result.Accepted, 1)
	assert.Equal(t, "sid=1; pref=x", jar.CookieHeaderField(mustURL(t, "http://host.test/my%20app/")))
}

func TestCookieReplacement(t *testing.T) {
	source := mustURL(t, "http://www.meterware.com/")
	jar := NewJar()

	jar.Update([]string{"third=day"}, source)
	jar.Update([]string{"third=tomorrow"}, source)

	assert.Equal(t, 1, jar.Len())
	assert.Equal(t, "third=tomorrow", jar.CookieHeaderField(source))
	assert.Equal(t, "tomorrow", jar.CookieValue("THIRD"))
}

func TestSameNameDifferentPathIsKept(t *testing.T) {
	jar := NewJar()
	jar.Update([]string{"id=root; path=/"}, mustURL(t, "http://host.test/"))
	jar.Update([]string{"id=app; path=/app"}, mustURL(t, "http://host.test/app/index"))

	assert.Equal(t, 2, jar.Len())
	assert.Equal(t, "id=root; id=app", jar.CookieHeaderField(mustURL(t, "http://host.test/app/page")))
	assert.Equal(t, "id=root", jar.CookieHeaderField(mustURL(t, "http://host.test/other")))
	assert.Equal(t, "app", jar.CookieValue("id"))
}

func TestHeaderCompositionOrder(t *testing.T) {
	source := mustURL(t, "http://www.meterware.com/")
	jar := NewJar()

	header := http.Header{}
	header.Add("Set-Cookie", "zero=none")
	header.Add("Set-Cookie", "first=ready; second=set")
	jar.UpdateFrom(header, source)

	header = http.Header{}
	header.Add("Set-Cookie", "zero=nil")
	jar.UpdateFrom(header, source)

	assert.Equal(t, "first=ready; second=set; zero=nil", jar.CookieHeaderField(source))
	assert.Equal(t, "first=ready; second=set; zero=nil", jar.CookieHeaderField(source))
	assert.Equal(t, []string{"first", "second", "zero"}, jar.CookieNames())
}

func TestSetCookie2IsFolded(t *testing.T) {
	source := mustURL(t, "http://www.meterware.com/")
	jar := NewJar()

	header := http.Header{}
	header.Add("Set-Cookie", "one=1")
	header.Add("Set-Cookie2", "two=2")
	result := jar.UpdateFrom(header, source)

	assert.Len(t, result.Accepted, 2)
	assert.Equal(t, "one=1; two=2", jar.CookieHeaderField(source))
}

func TestMaxAgeExpiration(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	jar := NewJar(WithClock(func() time.Time { return now }))
	source := mustURL(t, "http://www.meterware.com/")

	jar.Update([]string{"session=abc; max-age=5000"}, source)
	c := jar.Cookie("session")
	require.NotNil(t, c)

	expected := now.Add(5000 * time.Second)
	assert.False(t, c.Expires.Before(expected))
	assert.True(t, c.Expires.Before(expected.Add(time.Second)))

	now = now.Add(4999 * time.Second)
	assert.Equal(t, "session=abc", jar.CookieHeaderField(source))

	now = now.Add(2 * time.Second)
	assert.Empty(t, jar.CookieHeaderField(source))
	assert.Equal(t, 0, jar.Len())
}

func TestDeletionMarkers(t *testing.T) {
	source := mustURL(t, "http://www.meterware.com/")

	tests := []struct {
		name   string
		header string
	}{
		{name: "expires at epoch", header: "gone=x; expires=Thu, 01-Jan-1970 00:00:00 GMT"},
		{name: "expires before epoch", header: "gone=x; expires=Wed, 31-Dec-1969 23:59:59 GMT"},
		{name: "zero max-age", header: "gone=x; max-age=0"},
		{name: "negative max-age", header: "gone=x; max-age=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar := NewJar()
			jar.Update([]string{"gone=here", "kept=yes"}, source)
			require.Equal(t, 2, jar.Len())

			result := jar.Update([]string{tt.header}, source)
			require.Len(t, result.Accepted, 1)
			assert.True(t, result.Accepted[0].Expires.Equal(deletionTime))

			assert.Nil(t, jar.Cookie("gone"))
			assert.Equal(t, "kept=yes", jar.CookieHeaderField(source))
		})
	}
}

func TestSingleUseCookie(t *testing.T) {
	target := mustURL(t, "http://www.meterware.com/login")
	jar := NewJar()
	jar.PutCookie("always", "1")
	jar.PutSingleUseCookie("once", "token", "www.meterware.com", "/")

	assert.Equal(t, "always=1; once=token", jar.CookieHeaderField(target))
	assert.Equal(t, "always=1; once=token", jar.TakeCookieHeaderField(target))
	assert.Equal(t, "always=1", jar.TakeCookieHeaderField(target))
	assert.Nil(t, jar.Cookie("once"))
}

func TestSpendSingleUseOnlyTouchesMatchingCookies(t *testing.T) {
	jar := NewJar()
	jar.PutSingleUseCookie("here", "1", "www.meterware.com", "/")
	jar.PutSingleUseCookie("there", "2", "other.test", "/")

	jar.SpendSingleUse(mustURL(t, "http://www.meterware.com/"))
	assert.Nil(t, jar.Cookie("here"))
	assert.NotNil(t, jar.Cookie("there"))
}

func TestSingleUseCookieReplacedByHeader(t *testing.T) {
	source := mustURL(t, "http://www.meterware.com/")
	jar := NewJar()
	jar.PutSingleUseCookie("once", "token", "www.meterware.com", "/")

	jar.Update([]string{"once=server"}, source)
	c := jar.Cookie("once")
	require.NotNil(t, c)
	assert.False(t, c.SingleUse())

	jar.TakeCookieHeaderField(source)
	assert.Equal(t, "server", jar.CookieValue("once"))
}

func TestSecureCookieOnlyOverHTTPS(t *testing.T) {
	jar := NewJar()
	jar.Update([]string{"s=1; secure", "p=2"}, mustURL(t, "https://host.test/"))

	assert.Equal(t, "s=1; p=2", jar.CookieHeaderField(mustURL(t, "https://host.test/")))
	assert.Equal(t, "p=2", jar.CookieHeaderField(mustURL(t, "http://host.test/")))
}

func TestDottedDomainSentToSubdomains(t *testing.T) {
	jar := NewJar()
	jar.Update([]string{"d=1; domain=.meterware.com; path=/"}, mustURL(t, "http://www.meterware.com/"))

	assert.Equal(t, "d=1", jar.CookieHeaderField(mustURL(t, "http://meterware.com/")))
	assert.Equal(t, "d=1", jar.CookieHeaderField(mustURL(t, "http://api.meterware.com/x")))
	assert.Empty(t, jar.CookieHeaderField(mustURL(t, "http://meterware.org/")))
}

func TestRejectionListener(t *testing.T) {
	type rejection struct {
		name   string
		reason RejectReason
		attr   string
	}
	var got []rejection

	jar := NewJar(WithListener(ListenerFunc(func(name string, reason RejectReason, attr string) {
		got = append(got, rejection{name, reason, attr})
	})))

	result := jar.Update([]string{
		"bad=1; domain=.some.other.com",
		"good=2",
	}, mustURL(t, "http://www.meterware.com/"))

	require.Len(t, got, 1)
	assert.Equal(t, rejection{"bad", DomainNotSourceSuffix, ".some.other.com"}, got[0])
	assert.Len(t, result.Accepted, 1)
	assert.Equal(t, "good", result.Accepted[0].Name)
	assert.Equal(t, "DOMAIN_NOT_SOURCE_SUFFIX", result.Rejected[0].Reason.String())
}

func TestCookiesReturnsCopies(t *testing.T) {
	jar := NewJar()
	jar.PutCookie("a", "1")

	list := jar.Cookies()
	require.Len(t, list, 1)
	list[0].Value = "changed"

	assert.Equal(t, "1", jar.CookieValue("a"))

	jar.Clear()
	assert.Equal(t, 0, jar.Len())
	assert.Empty(t, jar.CookieValue("a"))
}
