package georef

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/kailas-cloud/idintake/internal/domain"
	"github.com/kailas-cloud/idintake/internal/domain/geo"
)

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSearch_ProvinceCaseInsensitiveSubstring(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Search(context.Background(), geo.LevelProvince, "  pAMp ", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Code != "0354" || got[0].Name != "Pampanga" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got[0].Level != geo.LevelProvince || got[0].ParentCode != "" {
		t.Errorf("unexpected projection: %+v", got[0])
	}
}

func TestSearch_CityOrderedByName(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Search(context.Background(), geo.LevelCity, "san", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"San Fernando", "San Jose", "San Jose del Monte"}
	if !reflect.DeepEqual(names(got), want) {
		t.Errorf("names = %v, want %v", names(got), want)
	}
}

func TestSearch_CityScopedByProvince(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Search(context.Background(), geo.LevelCity, "San Jose", "0314")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Code != "031420" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got[0].ZipCode != "3023" || got[0].Kind != geo.KindCity || got[0].ParentCode != "0314" {
		t.Errorf("unexpected city projection: %+v", got[0])
	}
}

func TestSearch_CityDefaultKind(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Search(context.Background(), geo.LevelCity, "san jose", "0369")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Kind != geo.KindMunicipality {
		t.Fatalf("expected municipality, got %+v", got)
	}
}

func TestSearch_BarangayRequiresScope(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Search(context.Background(), geo.LevelBarangay, "Atlu", "")
	if !errors.Is(err, domain.ErrScopeRequired) {
		t.Fatalf("expected ErrScopeRequired, got %v", err)
	}

	got, err := repo.Search(context.Background(), geo.LevelBarangay, "Atlu", "035409")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Atlu-Bola" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestSearch_WildcardsAreLiteral(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Search(context.Background(), geo.LevelBarangay, "%", "035409")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Sta_Ines 100%" {
		t.Errorf("percent must match literally, got %v", names(got))
	}

	got, err = repo.Search(context.Background(), geo.LevelBarangay, "a_i", "035409")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("underscore must match literally, got %v", names(got))
	}
}

func TestSearch_NoMatch(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Search(context.Background(), geo.LevelCity, "Nonexistent", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no rows, got %+v", got)
	}
}

func TestSearch_InvalidLevel(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Search(context.Background(), geo.Level("region"), "x", ""); !errors.Is(err, domain.ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestSearch_ResultWindow(t *testing.T) {
	repo := newTestRepo(t)

	var extra []geo.Entry
	for i := 0; i < 30; i++ {
		extra = append(extra, geo.Entry{
			Level: geo.LevelBarangay, Code: fmt.Sprintf("035401%03d", 100+i),
			Name: fmt.Sprintf("Barangay %02d", i), ParentCode: "035401",
		})
	}
	if err := repo.Upsert(context.Background(), extra); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Search(context.Background(), geo.LevelBarangay, "barangay", "035401")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != DefaultLimit {
		t.Errorf("expected %d rows, got %d", DefaultLimit, len(got))
	}
	if got[0].Name != "Barangay 00" {
		t.Errorf("expected name-ascending window, first = %q", got[0].Name)
	}

	got, err = repo.WithLimit(5).Search(context.Background(), geo.LevelBarangay, "barangay", "035401")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("expected 5 rows, got %d", len(got))
	}
}

func TestUpsert_UpdatesExisting(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx, []geo.Entry{{Level: geo.LevelProvince, Code: "0369", Name: "Tarlac Province"}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := repo.Search(ctx, geo.LevelProvince, "tarlac", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Tarlac Province" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestUpsert_Validation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry geo.Entry
	}{
		{"missing code", geo.Entry{Level: geo.LevelProvince, Name: "X"}},
		{"city without province", geo.Entry{Level: geo.LevelCity, Code: "1", Name: "X"}},
		{"barangay without city", geo.Entry{Level: geo.LevelBarangay, Code: "1", Name: "X"}},
		{"unknown level", geo.Entry{Level: "region", Code: "1", Name: "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Upsert(ctx, []geo.Entry{tt.entry}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
