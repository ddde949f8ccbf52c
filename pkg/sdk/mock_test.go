package idintake

import (
	"context"

	"github.com/kailas-cloud/idintake/internal/domain/geo"
	"github.com/kailas-cloud/idintake/internal/domain/identity"
	healthuc "github.com/kailas-cloud/idintake/internal/usecase/health"
	intakeuc "github.com/kailas-cloud/idintake/internal/usecase/intake"
)

// --- intakeUseCase mock ---

type mockIntakeUC struct {
	scanFn        func(ctx context.Context, image []byte) (intakeuc.Result, error)
	scanEncodedFn func(ctx context.Context, encoded string) (intakeuc.Result, error)
	extractFn     func(ctx context.Context, lines []string) identity.Identity
}

func (m *mockIntakeUC) Scan(ctx context.Context, image []byte) (intakeuc.Result, error) {
	return m.scanFn(ctx, image)
}

func (m *mockIntakeUC) ScanEncoded(ctx context.Context, encoded string) (intakeuc.Result, error) {
	return m.scanEncodedFn(ctx, encoded)
}

func (m *mockIntakeUC) Extract(ctx context.Context, lines []string) identity.Identity {
	return m.extractFn(ctx, lines)
}

// --- addressUseCase mock ---

type mockAddressUC struct {
	resolveFn func(ctx context.Context, in geo.Input) geo.Resolution
	searchFn  func(ctx context.Context, level geo.Level, text, parent string) ([]geo.Entry, error)
}

func (m *mockAddressUC) Resolve(ctx context.Context, in geo.Input) geo.Resolution {
	return m.resolveFn(ctx, in)
}

func (m *mockAddressUC) Search(ctx context.Context, level geo.Level, text, parent string) ([]geo.Entry, error) {
	return m.searchFn(ctx, level, text, parent)
}

// --- placeWriter mock ---

type mockPlaceWriter struct {
	upsertFn func(ctx context.Context, entries []geo.Entry) error
}

func (m *mockPlaceWriter) Upsert(ctx context.Context, entries []geo.Entry) error {
	return m.upsertFn(ctx, entries)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
