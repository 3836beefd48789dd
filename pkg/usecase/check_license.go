package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/jfind/pkg/domain/types"
)

// CheckLicense answers whether the host's current snapshot contains a
// license-requiring JDK. A host that has never submitted a scan yields
// LicenseUnknown, which callers must not conflate with LicenseNotRequired.
func (x *UseCase) CheckLicense(ctx context.Context, host string) (types.LicenseStatus, error) {
	current, err := x.clients.ScanRepository().GetCurrentScan(ctx, host)
	if err != nil {
		return types.LicenseUnknown, goerr.Wrap(err, "failed to fetch current scan", goerr.V("host", host))
	}
	if current == nil {
		return types.LicenseUnknown, nil
	}

	if current.RequiresLicense() {
		return types.LicenseRequired, nil
	}
	return types.LicenseNotRequired, nil
}
