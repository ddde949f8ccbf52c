package idintake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/idintake/internal/domain/geo"
	"github.com/kailas-cloud/idintake/internal/domain/identity"
	domrec "github.com/kailas-cloud/idintake/internal/domain/recognition"
	"github.com/kailas-cloud/idintake/internal/repository/georef"
	"github.com/kailas-cloud/idintake/internal/transport/azureread"
	addressuc "github.com/kailas-cloud/idintake/internal/usecase/address"
	extractionuc "github.com/kailas-cloud/idintake/internal/usecase/extraction"
	healthuc "github.com/kailas-cloud/idintake/internal/usecase/health"
	intakeuc "github.com/kailas-cloud/idintake/internal/usecase/intake"
	recognitionuc "github.com/kailas-cloud/idintake/internal/usecase/recognition"
)

const defaultConnectTimeout = 10 * time.Second

// Internal interfaces for substitution in tests.
type intakeUseCase interface {
	Scan(ctx context.Context, image []byte) (intakeuc.Result, error)
	ScanEncoded(ctx context.Context, encoded string) (intakeuc.Result, error)
	Extract(ctx context.Context, lines []string) identity.Identity
}

type addressUseCase interface {
	Resolve(ctx context.Context, in geo.Input) geo.Resolution
	Search(ctx context.Context, level geo.Level, text, parentCode string) ([]geo.Entry, error)
}

type placeWriter interface {
	Upsert(ctx context.Context, entries []geo.Entry) error
}

// Client is the idintake SDK entry point.
type Client struct {
	db         *georef.DB
	intakeSvc  intakeUseCase
	addressSvc addressUseCase
	places     placeWriter
	healthSvc  healthUseCase
	scanReady  bool
	obs        *observer
}

// New opens the place reference and wires the pipeline.
// The provided context bounds the initial connection and migration.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" || cfg.dsn == "" {
		return nil, errors.New("idintake: place reference required (use WithPostgres or WithSQLite)")
	}
	if cfg.minScore < 0 || cfg.minScore > 1 {
		return nil, fmt.Errorf("idintake: similarity score must be within [0, 1], got %v", cfg.minScore)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var rec *azureread.Client
	if cfg.recognizerEndpoint != "" {
		rec, err = azureread.NewClient(&azureread.Config{
			Endpoint:        cfg.recognizerEndpoint,
			SubscriptionKey: cfg.recognizerKey,
			HTTPClient:      cfg.httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("idintake: create recognizer: %w", err)
		}
	}

	db, err := georef.Open(ctx, georef.Config{
		Driver:      cfg.driver,
		DSN:         cfg.dsn,
		DialTimeout: defaultConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("idintake: open place reference: %w", err)
	}

	repo := georef.New(db.DB).WithLimit(cfg.resultLimit)
	if cfg.migrate {
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("idintake: migrate place reference: %w", err)
		}
	}

	return wireClient(db, repo, rec, cfg, obs), nil
}

func wireClient(db *georef.DB, repo *georef.Repo, rec *azureread.Client, cfg *clientConfig, obs *observer) *Client {
	c := &Client{
		db:        db,
		places:    repo,
		healthSvc: healthuc.New(repo),
		obs:       obs,
	}

	// Without a recognizer the pipeline still extracts and resolves; Scan is refused up front.
	var recognizer recognitionuc.Recognizer = unconfiguredRecognizer{}
	if rec != nil {
		recognizer = rec
		c.scanReady = true
	}
	recognitionSvc := recognitionuc.New(recognizer).WithPolling(cfg.pollInterval, cfg.maxAttempts)
	c.intakeSvc = intakeuc.New(recognitionSvc, extractionuc.New()).WithTimeout(cfg.scanTimeout)

	addressSvc := addressuc.New(repo)
	if cfg.similarity {
		addressSvc.WithRanker(addressuc.Similarity{MinScore: cfg.minScore})
	}
	c.addressSvc = addressSvc

	return c
}

// Close releases the reference database.
func (c *Client) Close() {
	if c.db != nil {
		_ = c.db.Close()
	}
}

// Scan recognizes text on raw image bytes and extracts identity fields.
func (c *Client) Scan(ctx context.Context, image []byte) (_ ScanResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("scan", start, err, "image_bytes", len(image)) }()

	if !c.scanReady {
		return ScanResult{}, ErrRecognizerNotConfigured
	}
	res, err := c.intakeSvc.Scan(ctx, image)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan: %w", err)
	}
	return scanResultFromDomain(res), nil
}

// ScanBase64 is Scan for a base64 string or a data URI.
func (c *Client) ScanBase64(ctx context.Context, encoded string) (_ ScanResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("scan", start, err) }()

	if !c.scanReady {
		return ScanResult{}, ErrRecognizerNotConfigured
	}
	res, err := c.intakeSvc.ScanEncoded(ctx, encoded)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan: %w", err)
	}
	return scanResultFromDomain(res), nil
}

// Extract derives identity fields from already recognized lines. Never fails.
func (c *Client) Extract(ctx context.Context, lines []string) Identity {
	start := time.Now()
	defer c.obs.observe("extract", start, nil, "lines", len(lines))

	return identityFromDomain(c.intakeSvc.Extract(ctx, lines))
}

// ResolveAddress maps free-text place names to reference codes, top-down. Never fails.
func (c *Client) ResolveAddress(ctx context.Context, in AddressInput) Resolution {
	start := time.Now()
	defer c.obs.observe("resolve_address", start, nil)

	res := c.addressSvc.Resolve(ctx, geo.Input{
		Province: in.Province,
		City:     in.City,
		Barangay: in.Barangay,
	})
	return Resolution{
		Province: matchFromDomain(res.Province),
		City:     matchFromDomain(res.City),
		Barangay: matchFromDomain(res.Barangay),
	}
}

// SearchPlaces lists reference entries of a level whose name contains text.
// Barangay searches require parentCode (a city code).
func (c *Client) SearchPlaces(ctx context.Context, level Level, text, parentCode string) (_ []Place, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search_places", start, err, "level", string(level)) }()

	lvl, err := geo.ParseLevel(string(level))
	if err != nil {
		return nil, err
	}
	entries, err := c.addressSvc.Search(ctx, lvl, text, parentCode)
	if err != nil {
		return nil, fmt.Errorf("search places: %w", err)
	}
	places := make([]Place, len(entries))
	for i, e := range entries {
		places[i] = placeFromDomain(e)
	}
	return places, nil
}

// SeedPlaces inserts or updates reference entries.
func (c *Client) SeedPlaces(ctx context.Context, places []Place) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("seed_places", start, err, "count", len(places)) }()

	entries := make([]geo.Entry, len(places))
	for i, p := range places {
		entries[i] = placeToDomain(p)
	}
	if err = c.places.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("seed places: %w", err)
	}
	return nil
}

// unconfiguredRecognizer stands in when WithRecognizer was not used.
type unconfiguredRecognizer struct{}

func (unconfiguredRecognizer) Submit(context.Context, []byte) (domrec.Handle, error) {
	return "", ErrRecognizerNotConfigured
}

func (unconfiguredRecognizer) Fetch(context.Context, domrec.Handle) (domrec.Snapshot, error) {
	return domrec.Snapshot{}, ErrRecognizerNotConfigured
}
