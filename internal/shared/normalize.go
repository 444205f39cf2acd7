package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var domainFolder = cases.Lower(language.Und)

// NormalizeEmail trims the address and lower-cases its domain part. The
// local part is kept as typed since mailbox names may be case-sensitive.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + domainFolder.String(email[at+1:])
}

// NormalizeUsername applies NFKC so visually identical names compare equal.
func NormalizeUsername(username string) string {
	return norm.NFKC.String(strings.TrimSpace(username))
}
