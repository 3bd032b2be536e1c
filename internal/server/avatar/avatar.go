// Package avatar derives placeholder avatar URLs for new accounts.
package avatar

import (
	"net/url"
	"strings"
)

// PlaceholderURL returns the avatar for fullName under base. The result is
// a pure function of its inputs, so the same name always yields the same
// image.
func PlaceholderURL(base, fullName string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return ""
	}
	q := u.Query()
	q.Set("seed", strings.TrimSpace(fullName))
	u.RawQuery = q.Encode()
	return u.String()
}
