package georef

import "github.com/kailas-cloud/idintake/internal/domain/geo"

// entryRow is the common projection of all three reference tables.
type entryRow struct {
	Code       string `db:"code"`
	Name       string `db:"name"`
	ParentCode string `db:"parent_code"`
	ZipCode    string `db:"zip_code"`
	Kind       string `db:"kind"`
}

func (r entryRow) toDomain(level geo.Level) geo.Entry {
	return geo.Entry{
		Level:      level,
		Code:       r.Code,
		Name:       r.Name,
		ParentCode: r.ParentCode,
		ZipCode:    r.ZipCode,
		Kind:       geo.CityKind(r.Kind),
	}
}

// levelTable describes how a level maps onto its table.
type levelTable struct {
	table      string
	parentCol  string // empty for provinces
	selectCols string
}

var levelTables = map[geo.Level]levelTable{
	geo.LevelProvince: {
		table:      "provinces",
		selectCols: "code, name, '' AS parent_code, '' AS zip_code, '' AS kind",
	},
	geo.LevelCity: {
		table:      "cities",
		parentCol:  "province_code",
		selectCols: "code, name, province_code AS parent_code, zip_code, type AS kind",
	},
	geo.LevelBarangay: {
		table:      "barangays",
		parentCol:  "city_code",
		selectCols: "code, name, city_code AS parent_code, '' AS zip_code, '' AS kind",
	},
}
