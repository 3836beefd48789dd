package interfaces

import (
	"context"

	"github.com/m-mizutani/jfind/pkg/domain/model"
	"github.com/m-mizutani/jfind/pkg/domain/types"
)

// ScanRepository persists scan snapshots and their runtime records. It is the
// only write path into the store and it guarantees that at most one snapshot
// per host carries the most-recent flag after any completed Submit, even
// under concurrent submissions for the same host.
type ScanRepository interface {
	// Submit atomically demotes the host's current snapshot, inserts the new
	// one as current, and inserts its runtime records. The report must be
	// validated beforehand. Returns the stored snapshot with assigned IDs.
	Submit(ctx context.Context, report *model.Report) (*model.ScanSnapshot, error)

	// GetScan returns the snapshot with the given ID, or ErrNotFound.
	GetScan(ctx context.Context, id types.ScanID) (*model.ScanSnapshot, error)

	// GetCurrentScan returns the current snapshot of the host, or nil when
	// the host has never been scanned.
	GetCurrentScan(ctx context.Context, host string) (*model.ScanSnapshot, error)

	// ListScansByHost returns the host's snapshots per the selection, newest
	// first by scan timestamp.
	ListScansByHost(ctx context.Context, host string, sel types.HistorySelection) ([]*model.ScanSnapshot, error)

	// ListLatestScans returns the current snapshot of every host, newest
	// first by scan timestamp, capped at limit.
	ListLatestScans(ctx context.Context, limit int) ([]*model.ScanSnapshot, error)

	// ListOracleRuntimes returns Oracle-branded runtime records whose owning
	// snapshot is current, newest first by the owning scan timestamp.
	ListOracleRuntimes(ctx context.Context, limit int) ([]*model.RuntimeRecord, error)
}
