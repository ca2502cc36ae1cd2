package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"klisi/internal/config"
	"klisi/internal/logging"
	"klisi/internal/normalize"
	"klisi/internal/source"
)

// BuildDiagnostics summarizes one startup build pass.
type BuildDiagnostics struct {
	// BuildID correlates all log entries for this pass.
	BuildID string

	// Rebuilt reports whether the table was replaced this startup.
	Rebuilt bool

	RowsRead     int
	RowsDropped  int
	DuplicateIDs int
	RowsInserted int

	Duration time.Duration
}

// Bootstrap runs the one-shot startup build: it checks the staleness
// policy, loads and normalizes the source table when a rebuild is due, and
// returns the store handle plus diagnostics.
//
// Build failures never abort the process. On any error Bootstrap logs it
// and returns the best store it has: the previous table if one survives,
// otherwise an unavailable handle whose queries all report
// ErrStoreUnavailable.
func Bootstrap(ctx context.Context, storeCfg config.StoreConfig, sourceCfg config.SourceConfig) (*Store, *BuildDiagnostics) {
	diag := &BuildDiagnostics{BuildID: uuid.NewString()}
	logger := logging.WithFields(ctx, "build_id", diag.BuildID, "store", storeCfg.Path)
	start := time.Now()
	defer func() { diag.Duration = time.Since(start) }()

	stale := Stale(storeCfg.Path, storeCfg.MinSize, storeCfg.RebuildAlways())

	st, err := Open(storeCfg.Path, storeCfg.Table)
	if err != nil {
		logger.Error("cannot open store, serving degraded", "error", err)
		return &Store{table: storeCfg.Table}, diag
	}

	if !stale && st.Available() {
		logger.Info("store valid, skipping rebuild")
		return st, diag
	}

	rows, header, err := source.Load(sourceCfg.Path, sourceCfg.Encodings)
	if err != nil {
		logDegraded(logger, st, "source load failed", err)
		return st, diag
	}

	res, err := normalize.Normalize(rows, header)
	if err != nil {
		logDegraded(logger, st, "normalization failed", err)
		return st, diag
	}
	diag.RowsRead = res.RowsRead
	diag.RowsDropped = res.RowsDropped
	diag.DuplicateIDs = res.DuplicateIDs

	inserted, err := st.Build(ctx, res)
	if err != nil {
		// The table may have been dropped partway; the next startup's
		// staleness check catches that and retries.
		logDegraded(logger, st, "rebuild failed", err)
		return st, diag
	}
	diag.Rebuilt = true
	diag.RowsInserted = inserted

	logger.Info("store rebuilt",
		"rows_read", diag.RowsRead,
		"rows_dropped", diag.RowsDropped,
		"duplicate_ids", diag.DuplicateIDs,
		"rows_inserted", diag.RowsInserted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return st, diag
}

// logDegraded reports a build failure and what service level remains.
func logDegraded(logger *slog.Logger, st *Store, msg string, err error) {
	if st.Available() {
		logger.Warn(msg+", serving previous store", "error", err)
	} else {
		logger.Error(msg+", serving degraded", "error", err)
	}
}
