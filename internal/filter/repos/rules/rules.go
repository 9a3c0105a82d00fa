// Package rules provides the rule sources the classifier engine is built from:
// structured rule files, fixed in-memory feeds, and a last-known-good snapshot
// wrapper backed by a persistent store.
package rules

import (
	"errors"
	"time"

	"github.com/haukened/s1-filter/internal/filter/domain"
)

var (
	// ErrSourceNotFound is returned when a rule file does not exist.
	ErrSourceNotFound = errors.New("rule source not found")
	// ErrUnsupportedFormat is returned for rule files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported rule file format")
	// ErrNoSnapshot is returned by a SnapshotStore that has never been written.
	ErrNoSnapshot = errors.New("no rule snapshot stored")
)

// SnapshotMeta describes the stored snapshot.
type SnapshotMeta struct {
	Version uint64    // incremented on every Save
	Updated time.Time // when the snapshot was written
	Rules   int       // total records in the snapshot
}

// SnapshotStore persists the last rule feed that was read successfully.
type SnapshotStore interface {
	Save(feed domain.RuleFeed, updated time.Time) error
	Load() (domain.RuleFeed, SnapshotMeta, error)
	Close() error
}
