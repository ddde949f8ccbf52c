package extraction

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/idintake/internal/domain/identity"
)

// Service extracts identity fields from recognized lines. It never fails:
// fields it cannot find are left empty.
type Service struct {
	now func() time.Time
}

// New creates an extraction service using the wall clock for age.
func New() *Service {
	return &Service{now: time.Now}
}

// WithClock overrides the clock used for age derivation.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Extract classifies the document and pulls out its fields.
func (s *Service) Extract(lines []string) identity.Identity {
	return ExtractAt(lines, s.now())
}

// Age derives whole years from a birth date in any recognized layout.
// Nil when the date cannot be parsed or lies in the future.
func (s *Service) Age(birthDate string) *int {
	return ageAt(birthDate, s.now())
}

// ExtractAt is Extract with an explicit reference date for age.
func ExtractAt(lines []string, now time.Time) identity.Identity {
	joined := strings.Join(lines, "\n")
	upper := strings.ToUpper(joined)

	f := identity.Fields{
		DocumentType: classify(upper),
		FullName:     findName(lines),
		BirthDate:    findBirthDate(joined),
		AddressText:  findAddress(lines),
		IDNumber:     findIDNumber(upper),
	}
	if f.BirthDate != "" {
		f.Age = ageAt(f.BirthDate, now)
	}
	return identity.New(f)
}

func classify(upper string) identity.DocumentType {
	for _, rule := range documentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(upper, kw) {
				return rule.docType
			}
		}
	}
	return identity.DocGovernmentID
}

func findName(lines []string) string {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if n < nameMinRunes || n > nameMaxRunes {
			continue
		}
		if !nameCharset.MatchString(line) {
			continue
		}
		if containsAny(strings.ToLower(line), nameBlocklist) {
			continue
		}
		return line
	}
	return ""
}

func findBirthDate(text string) string {
	for _, re := range birthDatePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func findAddress(lines []string) string {
	for i, line := range lines {
		if !containsAny(strings.ToUpper(line), addressKeywords) {
			continue
		}
		addr := strings.TrimSpace(line)
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && !strings.Contains(next, ":") {
				addr += " " + next
			}
		}
		return addr
	}
	return ""
}

func findIDNumber(upper string) string {
	for _, re := range idNumberPatterns {
		if m := re.FindString(upper); m != "" {
			return m
		}
	}
	return ""
}

// ageAt returns whole years between birth and now, or nil when the date
// cannot be parsed or lies in the future.
func ageAt(birth string, now time.Time) *int {
	b, ok := parseBirthDate(birth)
	if !ok {
		return nil
	}
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return nil
	}
	return &age
}

func parseBirthDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, ".", "")), " ")
	s = normalizeSept(s)
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// single-digit day or month in numeric forms
	for _, layout := range []string{"2006-1-2", "2006/1/2", "2-1-2006", "2/1/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeSept maps the "Sept" abbreviation to one the time package knows.
func normalizeSept(s string) string {
	if len(s) >= 5 && strings.EqualFold(s[:4], "sept") && s[4] == ' ' {
		return "Sep" + s[4:]
	}
	return s
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
