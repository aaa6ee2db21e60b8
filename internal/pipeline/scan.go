// Package pipeline orchestrates the two phases: scan the module list into
// a snapshot, then publish the snapshot across endpoint worker pools. It
// only talks to the console layer through small interfaces so the phase
// logic stays testable without a browser.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"backoffice-republisher/internal/module"
	"backoffice-republisher/internal/snapshot"
)

// ErrScanIncomplete marks a scan that hit an error mid-walk. The partial
// snapshot has already been persisted when this is returned.
var ErrScanIncomplete = errors.New("scan finished with errors")

// ListSource yields one listing page of flagged records per call.
// more is false once the listing is exhausted.
type ListSource interface {
	NextPage(ctx context.Context) (records []module.Record, more bool, err error)
}

// Scanner accumulates flagged modules from a ListSource, deduplicates by
// URL, orders by the category hierarchy, and persists the snapshot.
type Scanner struct {
	Source       ListSource
	SnapshotPath string
	// Categories optionally narrows what the scan records. Empty means
	// record everything.
	Categories map[string]bool
	Log        *slog.Logger
}

// Run walks the listing to completion and writes the snapshot. Whatever
// was accumulated before a mid-walk failure is still persisted; the
// failure surfaces as ErrScanIncomplete so the caller can report it
// without losing the partial result.
func (s *Scanner) Run(ctx context.Context) ([]module.Record, error) {
	seen := make(map[string]bool)
	var accumulated []module.Record

	var walkErr error
	for {
		records, more, err := s.Source.NextPage(ctx)
		if err != nil {
			walkErr = err
			break
		}
		for _, rec := range records {
			if seen[rec.URL] {
				continue
			}
			if len(s.Categories) > 0 && !s.Categories[module.Normalize(rec.Suffix)] {
				continue
			}
			seen[rec.URL] = true
			accumulated = append(accumulated, rec)
		}
		if !more {
			break
		}
	}

	module.Sort(accumulated)

	if err := snapshot.Save(s.SnapshotPath, accumulated); err != nil {
		if walkErr != nil {
			return accumulated, fmt.Errorf("%w: %v (and persisting partial results failed: %v)", ErrScanIncomplete, walkErr, err)
		}
		return accumulated, err
	}

	if walkErr != nil {
		s.Log.Error("scan aborted mid-walk, partial snapshot persisted",
			slog.Int("modules", len(accumulated)),
			slog.String("error", walkErr.Error()))
		return accumulated, fmt.Errorf("%w: %v", ErrScanIncomplete, walkErr)
	}

	s.Log.Info("scan complete",
		slog.Int("modules", len(accumulated)),
		slog.String("snapshot", s.SnapshotPath))
	return accumulated, nil
}
