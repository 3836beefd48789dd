package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/jfind/pkg/domain/types"
	"github.com/m-mizutani/jfind/pkg/infra"
	"github.com/m-mizutani/jfind/pkg/repository/memory"
	"github.com/m-mizutani/jfind/pkg/repository/testhelper"
	"github.com/m-mizutani/jfind/pkg/usecase"
)

func TestCheckLicense(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(infra.New(infra.WithScanRepository(memory.New())))

	t.Run("unknown for a never-seen host", func(t *testing.T) {
		status := gt.R1(uc.CheckLicense(ctx, testhelper.NewHost("ghost"))).NoError(t)
		gt.V(t, status).Equal(types.LicenseUnknown)
	})

	t.Run("false for a clean current snapshot", func(t *testing.T) {
		host := testhelper.NewHost("clean")
		gt.R1(uc.SubmitScan(ctx, testhelper.NewReport(host, time.Now(),
			testhelper.OpenRuntime("/usr/bin/java"),
		))).NoError(t)

		status := gt.R1(uc.CheckLicense(ctx, host)).NoError(t)
		gt.V(t, status).Equal(types.LicenseNotRequired)
	})

	t.Run("false for a host scanned with no runtimes at all", func(t *testing.T) {
		host := testhelper.NewHost("empty")
		gt.R1(uc.SubmitScan(ctx, testhelper.NewReport(host, time.Now()))).NoError(t)

		status := gt.R1(uc.CheckLicense(ctx, host)).NoError(t)
		gt.V(t, status).Equal(types.LicenseNotRequired)
	})

	t.Run("true when the current snapshot requires a license", func(t *testing.T) {
		host := testhelper.NewHost("licensed")
		gt.R1(uc.SubmitScan(ctx, testhelper.NewReport(host, time.Now(),
			testhelper.OracleRuntime("/opt/oracle/jdk8/bin/java"),
			testhelper.OpenRuntime("/usr/bin/java"),
		))).NoError(t)

		status := gt.R1(uc.CheckLicense(ctx, host)).NoError(t)
		gt.V(t, status).Equal(types.LicenseRequired)
	})

	t.Run("answer follows the current snapshot after a new submit", func(t *testing.T) {
		host := testhelper.NewHost("upgraded")
		gt.R1(uc.SubmitScan(ctx, testhelper.NewReport(host, time.Now().Add(-time.Hour),
			testhelper.OracleRuntime("/opt/oracle/jdk8/bin/java"),
		))).NoError(t)

		status := gt.R1(uc.CheckLicense(ctx, host)).NoError(t)
		gt.V(t, status).Equal(types.LicenseRequired)

		// Oracle JDK removed, next scan is clean
		gt.R1(uc.SubmitScan(ctx, testhelper.NewReport(host, time.Now(),
			testhelper.OpenRuntime("/usr/bin/java"),
		))).NoError(t)

		status = gt.R1(uc.CheckLicense(ctx, host)).NoError(t)
		gt.V(t, status).Equal(types.LicenseNotRequired)
	})
}
