package ingest

import (
	"regexp"
	"strings"
)

var personTokenRe = regexp.MustCompile(`([^<]+)<([^>]+)>`)

// PersonToken is the parsed form of a free-text person field.
// Zero-value Name means the field resolved to nothing.
type PersonToken struct {
	Name  string
	Email string
}

// ParsePersonToken parses the three accepted shapes of a person field:
//
//	"Jane Doe <jane@x.com>"  -> name + email
//	"jane@x.com"             -> email, name from the local part
//	"Jane Doe"               -> name only
func ParsePersonToken(s string) PersonToken {
	s = strings.TrimSpace(s)
	if s == "" {
		return PersonToken{}
	}
	if m := personTokenRe.FindStringSubmatch(s); m != nil {
		return PersonToken{
			Name:  strings.TrimSpace(m[1]),
			Email: strings.TrimSpace(m[2]),
		}
	}
	if strings.Contains(s, "@") {
		return PersonToken{
			Name:  strings.TrimSpace(strings.SplitN(s, "@", 2)[0]),
			Email: s,
		}
	}
	return PersonToken{Name: s}
}
