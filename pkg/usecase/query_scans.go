package usecase

import (
	"context"

	"github.com/m-mizutani/jfind/pkg/domain/model"
	"github.com/m-mizutani/jfind/pkg/domain/types"
)

// Read-side queries are thin compositions over the repository. There is no
// caching: every call re-queries the store so a read after a completed
// submit always sees it.

func (x *UseCase) GetScan(ctx context.Context, id types.ScanID) (*model.ScanSnapshot, error) {
	return x.clients.ScanRepository().GetScan(ctx, id)
}

func (x *UseCase) GetCurrentScan(ctx context.Context, host string) (*model.ScanSnapshot, error) {
	return x.clients.ScanRepository().GetCurrentScan(ctx, host)
}

func (x *UseCase) ListScansByHost(ctx context.Context, host string, sel types.HistorySelection) ([]*model.ScanSnapshot, error) {
	return x.clients.ScanRepository().ListScansByHost(ctx, host, sel)
}

func (x *UseCase) ListLatestScans(ctx context.Context, limit int) ([]*model.ScanSnapshot, error) {
	return x.clients.ScanRepository().ListLatestScans(ctx, limit)
}

func (x *UseCase) ListOracleRuntimes(ctx context.Context, limit int) ([]*model.RuntimeRecord, error) {
	return x.clients.ScanRepository().ListOracleRuntimes(ctx, limit)
}
