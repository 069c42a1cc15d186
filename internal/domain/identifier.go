package domain

import "strings"

// CaseNumber is the canonical identifier of a judicial case: digits only.
// Court portals render the same number with dots, dashes and slashes in
// inconsistent places, so every identifier entering the system is reduced
// to its digit sequence first.
type CaseNumber string

func NormalizeCaseNumber(raw string) CaseNumber {
	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return CaseNumber(b.String())
}

func (n CaseNumber) String() string {
	return string(n)
}

func (n CaseNumber) IsZero() bool {
	return n == ""
}

// Formatted renders the NNNNNNN-DD.AAAA.J.TR.OOOO mask for canonical
// twenty-digit numbers and falls back to the raw digit string otherwise.
func (n CaseNumber) Formatted() string {
	s := string(n)
	if len(s) != 20 {
		return s
	}

	return s[:7] + "-" + s[7:9] + "." + s[9:13] + "." + s[13:14] + "." + s[14:16] + "." + s[16:]
}
