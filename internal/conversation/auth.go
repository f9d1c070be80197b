package conversation

import (
	"encoding/base64"
	"strings"
)

// AnyRealm matches every authentication realm
const AnyRealm = ""

type credential struct {
	user     string
	password string
}

func (c credential) header() string {
	return basicAuth(c.user, c.password)
}

func basicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// challenge is one parsed WWW-Authenticate value
type challenge struct {
	scheme string
	params map[string]string
}

// parseChallenge reads `Scheme k=v, k2="v 2"`. Malformed parameters are
// skipped.
func parseChallenge(value string) challenge {
	value = strings.TrimSpace(value)
	scheme, rest, _ := strings.Cut(value, " ")
	c := challenge{scheme: strings.ToLower(scheme), params: make(map[string]string)}

	for rest = strings.TrimSpace(rest); rest != ""; rest = strings.TrimSpace(rest) {
		key, after, ok := strings.Cut(rest, "=")
		if !ok {
			break
		}
		key = strings.ToLower(strings.TrimSpace(key))
		after = strings.TrimSpace(after)

		var val string
		if strings.HasPrefix(after, `"`) {
			end := closingQuote(after)
			val = strings.ReplaceAll(after[1:end], `\"`, `"`)
			rest = after[min(end+1, len(after)):]
		} else {
			val, rest, _ = strings.Cut(after, ",")
			val = strings.TrimSpace(val)
		}
		rest = strings.TrimPrefix(strings.TrimSpace(rest), ",")
		if key != "" {
			c.params[key] = val
		}
	}
	return c
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(s)
}
