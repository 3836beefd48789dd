package interfaces

import (
	"context"

	"github.com/m-mizutani/jfind/pkg/domain/model"
	"github.com/m-mizutani/jfind/pkg/domain/types"
)

type UseCase interface {
	SubmitScan(ctx context.Context, report *model.Report) (*model.ScanSnapshot, error)

	GetScan(ctx context.Context, id types.ScanID) (*model.ScanSnapshot, error)
	GetCurrentScan(ctx context.Context, host string) (*model.ScanSnapshot, error)
	ListScansByHost(ctx context.Context, host string, sel types.HistorySelection) ([]*model.ScanSnapshot, error)
	ListLatestScans(ctx context.Context, limit int) ([]*model.ScanSnapshot, error)
	ListOracleRuntimes(ctx context.Context, limit int) ([]*model.RuntimeRecord, error)

	// CheckLicense distinguishes "never scanned" (unknown) from "scanned and
	// clean" (false).
	CheckLicense(ctx context.Context, host string) (types.LicenseStatus, error)
}
