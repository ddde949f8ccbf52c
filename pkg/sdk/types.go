package idintake

// Level is a tier of the place reference.
type Level string

// Level constants, top-down.
const (
	LevelProvince Level = "province"
	LevelCity     Level = "city"
	LevelBarangay Level = "barangay"
)

// Identity holds fields extracted from an ID card. Empty strings mean "not found".
type Identity struct {
	FullName     string
	BirthDate    string
	Address      string
	DocumentType string
	IDNumber     string
	Age          *int
}

// ScanResult is the outcome of Scan.
type ScanResult struct {
	Lines    []string
	Identity Identity
}

// AddressInput is a free-text address already split by level.
type AddressInput struct {
	Province string
	City     string
	Barangay string
}

// Match is a resolved place.
type Match struct {
	Code    string
	Name    string
	ZipCode string
}

// Resolution holds one match per level. Nil means unresolved.
type Resolution struct {
	Province *Match
	City     *Match
	Barangay *Match
}

// Place is one row of the reference.
type Place struct {
	Level      Level
	Code       string
	Name       string
	ParentCode string // province code for a city, city code for a barangay
	ZipCode    string // cities only
	Kind       string // cities only: "city" or "municipality"
}
