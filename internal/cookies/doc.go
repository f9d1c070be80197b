// Package cookies implements the cookie jar owned by a web conversation.
//
// The jar parses Set-Cookie (and Set-Cookie2) response headers, decides
// whether each cookie may be stored for the origin that sent it, and builds
// the Cookie request header for later requests.
//
// Acceptance rules:
//   - Strict domain matching (default): the Domain attribute must equal the
//     request host, or be a dot-prefixed suffix of it with exactly one extra
//     label (".meterware.com" is accepted from "www.meterware.com" but not
//     from "www.some.meterware.com").
//   - Strict path matching (default): the Path attribute must be a prefix of
//     the path of the URL that set it.
//   - The lenient policy keeps the suffix/prefix containment checks but drops
//     the label-count and path constraints.
//
// Rejected cookies are never errors. UpdateFrom returns them in the
// UpdateResult and pushes them to any registered Listener.
//
// A Jar is not safe for concurrent use; conversations sharing a jar must
// serialize access themselves.
//
// Example Usage:
//
//	jar := cookies.NewJar(cookies.WithPolicy(cookies.LenientPolicy()))
//	result := jar.UpdateFrom(resp.Header, requestURL)
//	for _, r := range result.Rejected {
//		log.Printf("%s rejected: %s", r.Cookie.Name, r.Reason)
//	}
//	header := jar.CookieHeaderField(nextURL)
package cookies
