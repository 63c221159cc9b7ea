package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeName приводит имя к виду для сравнения: NFKC, схлопнутые пробелы, case folding
func normalizeName(name string) string {
	name = norm.NFKC.String(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), " ")
	return cases.Fold().String(name)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sameIdentity(name, email, otherName, otherEmail string) bool {
	return normalizeName(name) == normalizeName(otherName) &&
		normalizeEmail(email) == normalizeEmail(otherEmail)
}
