package cookies

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// segment is one piece of a Set-Cookie value and the separator that ended it
type segment struct {
	text string
	sep  byte
}

// attribute names recognized inside a Set-Cookie value
var knownAttributes = map[string]bool{
	"path":       true,
	"domain":     true,
	"expires":    true,
	"max-age":    true,
	"version":    true,
	"comment":    true,
	"commenturl": true,
	"port":       true,
	"samesite":   true,
	"secure":     true,
	"httponly":   true,
	"discard":    true,
}

var flagAttributes = map[string]bool{
	"secure":   true,
	"httponly": true,
	"discard":  true,
}

// dateLayouts covers RFC 1123, RFC 850, asctime and the Netscape draft forms
var dateLayouts = []string{
	time.RFC1123,
	"Mon, 02-Jan-2006 15:04:05 MST",
	"Mon, 02-Jan-06 15:04:05 MST",
	time.RFC850,
	time.ANSIC,
	"Mon, 02 Jan 06 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

type parsedCookie struct {
	cookie  *Cookie
	maxAge  *int64
	expires *time.Time
}

// ParseSetCookie splits one raw Set-Cookie value into cookies.
//
// Cookies packed into one value may be separated by ',' or ';'. A token whose
// name is a known attribute belongs to the preceding cookie; any other
// name=value token starts a new cookie. Malformed attributes are skipped one
// at a time and tokens with no '=' that are not flags are dropped. Values
// that themselves contain a ',' are split; that case is best effort.
//
// Expiration: max-age wins over expires in the same cookie regardless of the
// order they appear in. A max-age of zero or less, or an expires at or before
// the epoch, yields a deletion marker.
func ParseSetCookie(value string, now time.Time) []*Cookie {
	segs := splitSegments(value)

	var parsed []*parsedCookie
	var cur *parsedCookie

	for i := 0; i < len(segs); i++ {
		text := strings.TrimSpace(segs[i].text)
		if text == "" {
			continue
		}

		name, val, hasEq := strings.Cut(text, "=")
		name = strings.TrimSpace(name)
		val = strings.TrimSpace(val)
		lname := strings.ToLower(name)

		if cur != nil && knownAttributes[lname] && (hasEq || flagAttributes[lname]) {
			if lname == "expires" && segs[i].sep == ',' && i+1 < len(segs) && isWeekday(val) {
				// "Wed, 09 Jun 2021 10:18:14 GMT" was split at its comma
				i++
				val = val + ", " + strings.TrimSpace(segs[i].text)
			}
			cur.applyAttribute(lname, unquote(val))
			continue
		}

		if !hasEq || name == "" {
			continue
		}

		cur = &parsedCookie{cookie: &Cookie{Name: name, Value: unquote(val)}}
		parsed = append(parsed, cur)
	}

	cookies := make([]*Cookie, 0, len(parsed))
	for _, p := range parsed {
		cookies = append(cookies, p.finish(now))
	}
	return cookies
}

func (p *parsedCookie) applyAttribute(name, value string) {
	switch name {
	case "path":
		if value != "" {
			p.cookie.Path = value
		}
	case "domain":
		if value != "" {
			p.cookie.Domain = value
		}
	case "max-age":
		secs, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return
		}
		p.maxAge = &secs
	case "expires":
		t, ok := parseHTTPDate(value)
		if !ok {
			return
		}
		p.expires = &t
	case "secure":
		p.cookie.Secure = true
	case "httponly":
		p.cookie.HTTPOnly = true
	}
}

func (p *parsedCookie) finish(now time.Time) *Cookie {
	switch {
	case p.maxAge != nil:
		if *p.maxAge <= 0 {
			p.cookie.Expires = deletionTime
		} else {
			p.cookie.Expires = now.Add(time.Duration(*p.maxAge) * time.Second)
		}
	case p.expires != nil:
		if !p.expires.After(deletionTime) {
			p.cookie.Expires = deletionTime
		} else {
			p.cookie.Expires = *p.expires
		}
	}
	return p.cookie
}

// splitSegments splits on ';' and ',' outside double quotes
func splitSegments(value string) []segment {
	var segs []segment
	var b strings.Builder
	quoted := false

	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch == '"':
			quoted = !quoted
			b.WriteByte(ch)
		case !quoted && (ch == ';' || ch == ','):
			segs = append(segs, segment{text: b.String(), sep: ch})
			b.Reset()
		default:
			b.WriteByte(ch)
		}
	}
	if b.Len() > 0 {
		segs = append(segs, segment{text: b.String()})
	}
	return segs
}

func parseHTTPDate(value string) (time.Time, bool) {
	if t, err := http.ParseTime(value); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isWeekday reports whether s is a bare day name such as "Wed" or "Wednesday"
func isWeekday(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
