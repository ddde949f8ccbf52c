package address

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kailas-cloud/idintake/internal/domain/geo"
	"github.com/kailas-cloud/idintake/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type searchCall struct {
	level  geo.Level
	text   string
	parent string
}

// mockReference answers substring lookups from an in-memory table, name-ascending.
type mockReference struct {
	entries []geo.Entry
	failOn  map[geo.Level]error
	calls   []searchCall
}

func (m *mockReference) Search(_ context.Context, level geo.Level, text, parent string) ([]geo.Entry, error) {
	m.calls = append(m.calls, searchCall{level: level, text: text, parent: parent})
	if err := m.failOn[level]; err != nil {
		return nil, err
	}
	var out []geo.Entry
	for _, e := range m.entries {
		if e.Level != level {
			continue
		}
		if parent != "" && e.ParentCode != parent {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name), strings.ToLower(text)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockReference) calledFor(level geo.Level) bool {
	for _, c := range m.calls {
		if c.level == level {
			return true
		}
	}
	return false
}

func reference() *mockReference {
	return &mockReference{entries: []geo.Entry{
		{Level: geo.LevelProvince, Code: "0354", Name: "Pampanga"},
		{Level: geo.LevelProvince, Code: "0369", Name: "Tarlac"},
		{Level: geo.LevelCity, Code: "035409", Name: "Mabalacat City", ParentCode: "0354", ZipCode: "2010"},
		{Level: geo.LevelCity, Code: "036916", Name: "Tarlac City", ParentCode: "0369", ZipCode: "2300"},
		{Level: geo.LevelBarangay, Code: "035409001", Name: "Atlu-Bola", ParentCode: "035409"},
		{Level: geo.LevelBarangay, Code: "036916001", Name: "Atlu", ParentCode: "036916"},
	}}
}

// --- Tests ---

func TestResolve_FullCascade(t *testing.T) {
	ref := reference()
	res := New(ref).Resolve(context.Background(), geo.Input{
		Province: "Pampanga", City: "Mabalacat", Barangay: "Atlu",
	})

	if res.Province == nil || res.Province.Code != "0354" {
		t.Fatalf("province: %+v", res.Province)
	}
	if res.City == nil || res.City.Code != "035409" || res.City.ZipCode != "2010" {
		t.Fatalf("city: %+v", res.City)
	}
	if res.Barangay == nil || res.Barangay.Code != "035409001" {
		t.Fatalf("barangay must come from the resolved city: %+v", res.Barangay)
	}
	if ref.calls[1].parent != "0354" || ref.calls[2].parent != "035409" {
		t.Errorf("stages must be scoped by the previous match: %+v", ref.calls)
	}
}

func TestResolve_UnknownCity_NoBarangayQuery(t *testing.T) {
	ref := reference()
	res := New(ref).Resolve(context.Background(), geo.Input{City: "Nonexistent", Barangay: "Atlu"})

	if res.Province != nil || res.City != nil || res.Barangay != nil {
		t.Fatalf("expected empty resolution, got %+v", res)
	}
	if ref.calledFor(geo.LevelBarangay) {
		t.Error("barangay must not be queried without a resolved city")
	}
	if ref.calledFor(geo.LevelProvince) {
		t.Error("blank province must not be queried")
	}
}

func TestResolve_BarangayOnly_Skipped(t *testing.T) {
	ref := reference()
	res := New(ref).Resolve(context.Background(), geo.Input{Barangay: "Atlu"})

	if res.Barangay != nil {
		t.Errorf("barangay must stay unresolved: %+v", res.Barangay)
	}
	if len(ref.calls) != 0 {
		t.Errorf("expected no lookups, got %+v", ref.calls)
	}
}

func TestResolve_CityUnscopedWithoutProvince(t *testing.T) {
	ref := reference()
	res := New(ref).Resolve(context.Background(), geo.Input{City: "tarlac", Barangay: "atlu"})

	if res.City == nil || res.City.Code != "036916" {
		t.Fatalf("city: %+v", res.City)
	}
	if ref.calls[0].parent != "" {
		t.Errorf("city must be unscoped, got parent %q", ref.calls[0].parent)
	}
	if res.Barangay == nil || res.Barangay.Code != "036916001" {
		t.Errorf("barangay: %+v", res.Barangay)
	}
}

func TestResolve_ErrorIsMiss(t *testing.T) {
	ref := reference()
	ref.failOn = map[geo.Level]error{geo.LevelProvince: errors.New("connection refused")}

	res := New(ref).Resolve(context.Background(), geo.Input{
		Province: "Pampanga", City: "Mabalacat", Barangay: "Atlu",
	})
	if res.Province != nil {
		t.Errorf("failed stage must be nil: %+v", res.Province)
	}
	if res.City == nil || res.City.Code != "035409" {
		t.Errorf("later stages must still run: %+v", res.City)
	}
	if res.Barangay == nil {
		t.Error("barangay should resolve within the city")
	}
}

func TestResolve_TrimsInput(t *testing.T) {
	ref := reference()
	res := New(ref).Resolve(context.Background(), geo.Input{Province: "   ", City: "  Mabalacat  "})

	if res.City == nil {
		t.Fatal("expected city match")
	}
	if len(ref.calls) != 1 || ref.calls[0].text != "Mabalacat" {
		t.Errorf("unexpected calls: %+v", ref.calls)
	}
}

func TestResolve_FirstResultOrder(t *testing.T) {
	ref := &mockReference{entries: []geo.Entry{
		{Level: geo.LevelCity, Code: "A", Name: "San Fernando"},
		{Level: geo.LevelCity, Code: "B", Name: "San Jose"},
	}}
	res := New(ref).Resolve(context.Background(), geo.Input{City: "San"})
	if res.City == nil || res.City.Code != "A" {
		t.Errorf("first result must win: %+v", res.City)
	}
}

func TestResolve_SimilarityRanker(t *testing.T) {
	ref := &mockReference{entries: []geo.Entry{
		{Level: geo.LevelCity, Code: "A", Name: "San Jose del Monte"},
		{Level: geo.LevelCity, Code: "B", Name: "San Jose"},
	}}
	res := New(ref).WithRanker(Similarity{}).Resolve(context.Background(), geo.Input{City: "San Jose"})
	if res.City == nil || res.City.Code != "B" {
		t.Errorf("closest name must win: %+v", res.City)
	}
}

func TestWithRanker_NilKeepsDefault(t *testing.T) {
	s := New(&mockReference{}).WithRanker(nil)
	if _, ok := s.ranker.(FirstResult); !ok {
		t.Errorf("expected FirstResult, got %T", s.ranker)
	}
}
