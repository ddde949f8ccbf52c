// Package geo models the province / city / barangay reference hierarchy.
package geo

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/idintake/internal/domain"
)

// Level is a tier of the reference hierarchy.
type Level string

const (
	// LevelProvince is the top tier.
	LevelProvince Level = "province"
	// LevelCity covers cities and municipalities, scoped by province code.
	LevelCity Level = "city"
	// LevelBarangay is the smallest unit, scoped by city code.
	LevelBarangay Level = "barangay"
)

// Levels lists the hierarchy top-down.
var Levels = []Level{LevelProvince, LevelCity, LevelBarangay}

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelProvince, LevelCity, LevelBarangay:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidLevel, s)
	}
}

// Parent returns the level whose codes scope this one.
func (l Level) Parent() (Level, bool) {
	switch l {
	case LevelCity:
		return LevelProvince, true
	case LevelBarangay:
		return LevelCity, true
	default:
		return "", false
	}
}

// CityKind distinguishes chartered cities from municipalities.
type CityKind string

const (
	// KindCity is a chartered city.
	KindCity CityKind = "city"
	// KindMunicipality is a municipality.
	KindMunicipality CityKind = "municipality"
)

// Entry is one row of the reference hierarchy.
type Entry struct {
	Level      Level
	Code       string
	Name       string
	ParentCode string   // province code for a city, city code for a barangay
	ZipCode    string   // cities only
	Kind       CityKind // cities only
}

// Match is a resolved reference entry.
type Match struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	ZipCode string `json:"zip_code,omitempty"`
}

// MatchOf projects an entry to the resolved form.
func MatchOf(e Entry) *Match {
	return &Match{Code: e.Code, Name: e.Name, ZipCode: e.ZipCode}
}

// Input is a pre-split free-text address.
type Input struct {
	Province string `json:"province"`
	City     string `json:"city"`
	Barangay string `json:"barangay"`
}

// Resolution holds the canonical match per level. Nil means unresolved.
type Resolution struct {
	Province *Match `json:"province"`
	City     *Match `json:"city"`
	Barangay *Match `json:"barangay"`
}
