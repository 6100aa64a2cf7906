package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultEmailDomain is appended when an imported person has no usable
// email address.
const DefaultEmailDomain = "almasecurity.com"

// DefaultImportedTitle is assigned to people auto-created during ingest.
const DefaultImportedTitle = "Imported User"

// Person 人员目录条目（Owner/Auditor/Stakeholder）
// A directory entry referenced by assessment rows as owner, auditor or
// stakeholder. Lookup during ingest is case-insensitive, email first
// then name.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
	Email string `json:"email"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (p *Person) ToJSON() map[string]any {
	return map[string]any{
		"id":    p.ID,
		"name":  p.Name,
		"title": p.Title,
		"email": p.Email,
	}
}

// DefaultEmail builds the fallback address for a person with no email:
// lowercase the name, strip diacritics, join words with dots, append the
// default domain. "Jörg van Дорф" -> "jorg.van.dorf@almasecurity.com".
func DefaultEmail(name string) string {
	slug := stripDiacritics(strings.ToLower(strings.TrimSpace(name)))
	fields := strings.Fields(slug)
	return strings.Join(fields, ".") + "@" + DefaultEmailDomain
}

// CompleteEmail normalizes a supplied email token: a token without "@"
// gets the default domain appended, one with "@" is kept as-is.
func CompleteEmail(email string) string {
	if strings.Contains(email, "@") {
		return email
	}
	return email + "@" + DefaultEmailDomain
}

// RepairEmail collapses duplicated domain suffixes produced by older
// imports: "a@x.com@x.com" -> "a@x.com". Returns the input unchanged
// when there is nothing to fix.
func RepairEmail(email string) (string, bool) {
	parts := strings.Split(email, "@")
	if len(parts) <= 2 {
		return email, false
	}
	return parts[0] + "@" + parts[len(parts)-1], true
}

// stripDiacritics decomposes to NFD and drops combining marks, so
// accented names still produce plain-ASCII address slugs.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
