package georef

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/idintake/internal/domain/geo"
)

// seed is a small slice of the Central Luzon hierarchy.
var seed = []geo.Entry{
	{Level: geo.LevelProvince, Code: "0354", Name: "Pampanga"},
	{Level: geo.LevelProvince, Code: "0369", Name: "Tarlac"},
	{Level: geo.LevelProvince, Code: "0314", Name: "Bulacan"},

	{Level: geo.LevelCity, Code: "035409", Name: "Mabalacat City", ParentCode: "0354", ZipCode: "2010", Kind: geo.KindCity},
	{Level: geo.LevelCity, Code: "035401", Name: "Angeles City", ParentCode: "0354", ZipCode: "2009", Kind: geo.KindCity},
	{Level: geo.LevelCity, Code: "035416", Name: "San Fernando", ParentCode: "0354", ZipCode: "2000", Kind: geo.KindCity},
	{Level: geo.LevelCity, Code: "036916", Name: "San Jose", ParentCode: "0369", ZipCode: "2318"},
	{Level: geo.LevelCity, Code: "031420", Name: "San Jose del Monte", ParentCode: "0314", ZipCode: "3023", Kind: geo.KindCity},

	{Level: geo.LevelBarangay, Code: "035409001", Name: "Atlu-Bola", ParentCode: "035409"},
	{Level: geo.LevelBarangay, Code: "035409002", Name: "Dau", ParentCode: "035409"},
	{Level: geo.LevelBarangay, Code: "035401001", Name: "Balibago", ParentCode: "035401"},
	{Level: geo.LevelBarangay, Code: "036916001", Name: "Atlu Proper", ParentCode: "036916"},
	{Level: geo.LevelBarangay, Code: "035409003", Name: "Sta_Ines 100%", ParentCode: "035409"},
}

// newTestRepo opens a migrated, seeded SQLite reference in a temp dir.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "geo.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := New(db.DB)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := repo.Upsert(ctx, seed); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return repo
}

func names(entries []geo.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
