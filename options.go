package meddpicc

import "log/slog"

// Option configures an Engine.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	store         string
	databaseURL   string
	sqlitePath    string
	logger        *slog.Logger
	version       string
	configuration *Configuration
	hooks         []AssessmentHook
}

// WithLogger sets the structured logger for the Engine.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported by the MCP server and logs.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithMemoryStore selects the in-process store. Assessments do not
// survive the process; intended for tests and evaluation.
func WithMemoryStore() Option {
	return func(o *resolvedOptions) { o.store = "memory" }
}

// WithSQLiteStore selects the embedded SQLite store backed by the given
// database file (MEDDPICC_SQLITE_PATH env var).
func WithSQLiteStore(path string) Option {
	return func(o *resolvedOptions) {
		o.store = "sqlite"
		o.sqlitePath = path
	}
}

// WithPostgresStore selects the Postgres store, overriding the
// connection string from config (DATABASE_URL env var).
func WithPostgresStore(dsn string) Option {
	return func(o *resolvedOptions) {
		o.store = "postgres"
		o.databaseURL = dsn
	}
}

// WithConfiguration replaces the built-in scoring configuration. The
// configuration is validated during New; an invalid one fails
// construction rather than degrading scoring later. It is also
// persisted, superseding any configuration already in the store.
func WithConfiguration(cfg Configuration) Option {
	return func(o *resolvedOptions) { o.configuration = &cfg }
}

// WithAssessmentHook registers a hook to receive assessment lifecycle
// notifications. Multiple hooks may be registered; all registered hooks
// receive every event.
func WithAssessmentHook(hook AssessmentHook) Option {
	return func(o *resolvedOptions) { o.hooks = append(o.hooks, hook) }
}
