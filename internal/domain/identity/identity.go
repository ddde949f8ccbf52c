package identity

// DocumentType is the classified kind of an identity document.
type DocumentType string

const (
	// DocNationalID is the PhilSys national identity card.
	DocNationalID DocumentType = "PhilSys National ID"
	// DocDriversLicense is an LTO driver's license.
	DocDriversLicense DocumentType = "Driver's License"
	// DocUMID is the unified multi-purpose ID.
	DocUMID DocumentType = "UMID"
	// DocSSS is a social security card.
	DocSSS DocumentType = "SSS ID"
	// DocPostalID is a PHLPost postal ID.
	DocPostalID DocumentType = "Postal ID"
	// DocVotersID is a COMELEC voter's ID.
	DocVotersID DocumentType = "Voter's ID"
	// DocGovernmentID is the fallback when no rule matches.
	DocGovernmentID DocumentType = "Government ID"
)

// Fields is the mutable builder for Identity. Empty strings mean "not found".
type Fields struct {
	FullName     string
	BirthDate    string
	AddressText  string
	DocumentType DocumentType
	IDNumber     string
	Age          *int
}

// Identity is the structured result of field extraction (immutable value object).
type Identity struct {
	fullName     string
	birthDate    string
	addressText  string
	documentType DocumentType
	idNumber     string
	age          *int
}

// New builds an Identity. An empty document type becomes DocGovernmentID.
func New(f Fields) Identity {
	dt := f.DocumentType
	if dt == "" {
		dt = DocGovernmentID
	}
	var age *int
	if f.Age != nil {
		v := *f.Age
		age = &v
	}
	return Identity{
		fullName:     f.FullName,
		birthDate:    f.BirthDate,
		addressText:  f.AddressText,
		documentType: dt,
		idNumber:     f.IDNumber,
		age:          age,
	}
}

// FullName returns the extracted holder name.
func (i Identity) FullName() string { return i.fullName }

// BirthDate returns the birth date substring as printed.
func (i Identity) BirthDate() string { return i.birthDate }

// AddressText returns the raw address text.
func (i Identity) AddressText() string { return i.addressText }

// DocumentType returns the classified document type.
func (i Identity) DocumentType() DocumentType { return i.documentType }

// IDNumber returns the extracted document number.
func (i Identity) IDNumber() string { return i.idNumber }

// Age returns the derived age and whether it is known.
func (i Identity) Age() (int, bool) {
	if i.age == nil {
		return 0, false
	}
	return *i.age, true
}

// Fields returns a mutable copy, used to merge refinements.
func (i Identity) Fields() Fields {
	f := Fields{
		FullName:     i.fullName,
		BirthDate:    i.birthDate,
		AddressText:  i.addressText,
		DocumentType: i.documentType,
		IDNumber:     i.idNumber,
	}
	if i.age != nil {
		v := *i.age
		f.Age = &v
	}
	return f
}

// Missing lists the names of fields that extraction left empty.
func (i Identity) Missing() []string {
	var out []string
	if i.fullName == "" {
		out = append(out, "full_name")
	}
	if i.birthDate == "" {
		out = append(out, "birth_date")
	}
	if i.addressText == "" {
		out = append(out, "address")
	}
	if i.idNumber == "" {
		out = append(out, "id_number")
	}
	return out
}
