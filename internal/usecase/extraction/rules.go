package extraction

import (
	"regexp"

	"github.com/kailas-cloud/idintake/internal/domain/identity"
)

// documentRule maps keyword hits to a document type. Keywords are upper-case.
type documentRule struct {
	docType  identity.DocumentType
	keywords []string
}

// documentRules is checked top to bottom; the first rule with any keyword hit wins.
// Generic keywords must stay below specific ones.
var documentRules = []documentRule{
	{identity.DocNationalID, []string{"PHILIPPINE IDENTIFICATION", "PHILSYS"}},
	{identity.DocDriversLicense, []string{"DRIVER", "LICENSE", "LTO"}},
	{identity.DocUMID, []string{"UMID", "UNIFIED MULTI-PURPOSE"}},
	{identity.DocSSS, []string{"SSS", "SOCIAL SECURITY"}},
	{identity.DocPostalID, []string{"POSTAL", "PHLPOST"}},
	{identity.DocVotersID, []string{"VOTER", "COMELEC"}},
}

const (
	nameMinRunes = 6
	nameMaxRunes = 49
)

var (
	nameCharset   = regexp.MustCompile(`^[\p{L}\s,.'-]+$`)
	nameBlocklist = []string{"republic", "philippines", "identification"}
)

// birthDatePatterns are tried in order against the joined text; group 1 is the result.
var birthDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{4}[-/]\d{1,2}[-/]\d{1,2})\b`),
	regexp.MustCompile(`\b(\d{1,2}[-/]\d{1,2}[-/]\d{4})\b`),
	regexp.MustCompile(`(?i)\b((?:JAN(?:UARY)?|FEB(?:RUARY)?|MAR(?:CH)?|APR(?:IL)?|MAY|JUNE?|JULY?|AUG(?:UST)?|SEPT?(?:EMBER)?|OCT(?:OBER)?|NOV(?:EMBER)?|DEC(?:EMBER)?)\.?\s+\d{1,2},?\s+\d{4})\b`),
}

// addressKeywords mark the first address line. Upper-case.
var addressKeywords = []string{"BRGY", "BARANGAY", "CITY", "PROVINCE", "STREET", "PUROK"}

// idNumberPatterns go from most to least specific; the whole match is the result.
var idNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{4}-\d{4}-\d{4}\b`),
	regexp.MustCompile(`\b[A-Z]\d{2}-?\d{2}-?\d{6}\b`),
	regexp.MustCompile(`\b\d{2}-\d{7}-\d\b`),
	regexp.MustCompile(`\b\d{10,12}\b`),
}

// birthDateLayouts are tried in order when deriving age.
var birthDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}
