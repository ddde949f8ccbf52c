package idintake

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	recognizerEndpoint string
	recognizerKey      string
	httpClient         *http.Client

	driver  string // "postgres" or "sqlite"
	dsn     string
	migrate bool

	pollInterval time.Duration
	maxAttempts  int
	scanTimeout  time.Duration

	similarity  bool
	minScore    float64
	resultLimit int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRecognizer configures the text-recognition endpoint and its subscription key.
func WithRecognizer(endpoint, subscriptionKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.recognizerEndpoint = endpoint
		c.recognizerKey = subscriptionKey
	})
}

// WithHTTPClient overrides the HTTP client used for recognizer calls.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithPostgres reads the place reference from PostgreSQL (pgx connection string).
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
	})
}

// WithSQLite reads the place reference from an SQLite file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.dsn = path
	})
}

// WithMigrate creates the reference tables on startup if they are missing.
func WithMigrate() Option {
	return optionFunc(func(c *clientConfig) {
		c.migrate = true
	})
}

// WithPolling sets the wait between result polls and the attempt ceiling.
// Defaults: 1.5s and 20 attempts.
func WithPolling(interval time.Duration, maxAttempts int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pollInterval = interval
		c.maxAttempts = maxAttempts
	})
}

// WithScanTimeout bounds one Scan call end to end. Default: 40s.
func WithScanTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.scanTimeout = d
	})
}

// WithRankingSimilarity picks the closest place name by edit distance
// instead of the first alphabetical match. minScore is in [0, 1].
func WithRankingSimilarity(minScore float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.similarity = true
		c.minScore = minScore
	})
}

// WithResultLimit caps rows per reference lookup. Default: 20.
func WithResultLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.resultLimit = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
