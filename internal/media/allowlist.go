package media

import (
	"regexp"
	"strings"
)

// AllowList decides which URLs the resolver may fetch. Everything else is refused
// before any network access, so comment HTML cannot point the service at arbitrary hosts.
type AllowList struct {
	pattern *regexp.Regexp
}

func NewAllowList(pattern *regexp.Regexp) *AllowList {
	return &AllowList{pattern: pattern}
}

// ZendeskAllowList accepts attachment token URLs on the account's own Zendesk host.
func ZendeskAllowList(subdomain string) *AllowList {
	return NewAllowList(regexp.MustCompile(
		`^https://` + regexp.QuoteMeta(subdomain) + `\.zendesk\.com/attachments/token/[A-Za-z0-9_-]+/?\?name=\S+$`,
	))
}

func (a *AllowList) Allows(rawURL string) bool {
	if a == nil || a.pattern == nil {
		return false
	}
	return a.pattern.MatchString(strings.TrimSpace(rawURL))
}
