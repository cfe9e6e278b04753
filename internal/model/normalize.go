package model

import (
	"regexp"
	"strings"
)

// NormalizeEmail lowercases and trims an email for matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone reduces a phone number to digits, stripping the US country
// code prefix when the result is 11 digits starting with 1.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// Legal entity suffixes stripped for company dedup. Business identity terms
// (Holdings, Capital, Group) are deliberately not in this list.
var legalSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i),?\s*llc\.?$`),
	regexp.MustCompile(`(?i),?\s*l\.l\.c\.?$`),
	regexp.MustCompile(`(?i),?\s*inc\.?$`),
	regexp.MustCompile(`(?i),?\s*incorporated$`),
	regexp.MustCompile(`(?i),?\s*corp\.?$`),
	regexp.MustCompile(`(?i),?\s*corporation$`),
	regexp.MustCompile(`(?i),?\s*ltd\.?$`),
	regexp.MustCompile(`(?i),?\s*limited$`),
	regexp.MustCompile(`(?i),?\s*lp\.?$`),
	regexp.MustCompile(`(?i),?\s*l\.p\.?$`),
	regexp.MustCompile(`(?i),?\s*co\.?$`),
	regexp.MustCompile(`(?i),?\s*company$`),
}

// NormalizeCompanyName lowercases a company name and strips legal entity
// suffixes so "ABC Lending, LLC" and "ABC Lending" dedup to the same key.
func NormalizeCompanyName(name string) string {
	result := strings.ToLower(strings.TrimSpace(name))
	for _, re := range legalSuffixes {
		result = re.ReplaceAllString(result, "")
	}
	return strings.TrimSpace(result)
}
