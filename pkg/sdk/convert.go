package idintake

import (
	"github.com/kailas-cloud/idintake/internal/domain/geo"
	"github.com/kailas-cloud/idintake/internal/domain/identity"
	intakeuc "github.com/kailas-cloud/idintake/internal/usecase/intake"
)

func scanResultFromDomain(r intakeuc.Result) ScanResult {
	lines := r.Lines
	if lines == nil {
		lines = []string{}
	}
	return ScanResult{Lines: lines, Identity: identityFromDomain(r.Identity)}
}

func identityFromDomain(id identity.Identity) Identity {
	out := Identity{
		FullName:     id.FullName(),
		BirthDate:    id.BirthDate(),
		Address:      id.AddressText(),
		DocumentType: string(id.DocumentType()),
		IDNumber:     id.IDNumber(),
	}
	if age, ok := id.Age(); ok {
		out.Age = &age
	}
	return out
}

func matchFromDomain(m *geo.Match) *Match {
	if m == nil {
		return nil
	}
	return &Match{Code: m.Code, Name: m.Name, ZipCode: m.ZipCode}
}

func placeFromDomain(e geo.Entry) Place {
	return Place{
		Level:      Level(e.Level),
		Code:       e.Code,
		Name:       e.Name,
		ParentCode: e.ParentCode,
		ZipCode:    e.ZipCode,
		Kind:       string(e.Kind),
	}
}

func placeToDomain(p Place) geo.Entry {
	return geo.Entry{
		Level:      geo.Level(p.Level),
		Code:       p.Code,
		Name:       p.Name,
		ParentCode: p.ParentCode,
		ZipCode:    p.ZipCode,
		Kind:       geo.CityKind(p.Kind),
	}
}
