package testhelper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/jfind/pkg/domain/interfaces"
	"github.com/m-mizutani/jfind/pkg/domain/model"
	"github.com/m-mizutani/jfind/pkg/domain/types"
	"github.com/m-mizutani/jfind/pkg/repository"
)

// TestAll runs all behavior tests for a ScanRepository implementation.
// This is the main entry point for testing any backend.
func TestAll(t *testing.T, repo interfaces.ScanRepository) {
	t.Run("SubmitAndFetch", func(t *testing.T) {
		TestSubmitAndFetch(t, repo)
	})
	t.Run("CurrentFlagFollowsSubmissionOrder", func(t *testing.T) {
		TestCurrentFlagFollowsSubmissionOrder(t, repo)
	})
	t.Run("HistorySelection", func(t *testing.T) {
		TestHistorySelection(t, repo)
	})
	t.Run("UnknownLookups", func(t *testing.T) {
		TestUnknownLookups(t, repo)
	})
	t.Run("LatestScansAcrossHosts", func(t *testing.T) {
		TestLatestScansAcrossHosts(t, repo)
	})
	t.Run("OracleRuntimes", func(t *testing.T) {
		TestOracleRuntimes(t, repo)
	})
	t.Run("ConcurrentSubmitsSameHost", func(t *testing.T) {
		TestConcurrentSubmitsSameHost(t, repo)
	})
	t.Run("NegativeLimitUncapped", func(t *testing.T) {
		TestNegativeLimitUncapped(t, repo)
	})
}

// NewHost returns a unique host name so suites can run against a shared
// database without colliding.
func NewHost(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}

// NewReport builds a valid agent report for tests.
func NewReport(host string, scanTS time.Time, runtimes ...model.Runtime) *model.Report {
	return &model.Report{
		Meta: model.Meta{
			ScanTS:              scanTS.UTC().Format(time.RFC3339),
			ComputerName:        host,
			UserName:            "tester",
			ScanDuration:        "PT1M30S",
			HasOracleJDK:        false,
			CountResult:         len(runtimes),
			CountRequireLicense: 0,
			ScannedDirs:         3120,
			ScanPath:            "/usr",
			PlatformInfo:        ptr("linux/amd64"),
		},
		Runtimes: runtimes,
	}
}

// OracleRuntime builds a license-requiring Oracle runtime entry.
func OracleRuntime(path string) model.Runtime {
	return model.Runtime{
		JavaExecutable:    path,
		JavaRuntime:       ptr("Java(TM) SE Runtime Environment"),
		JavaVendor:        ptr("Oracle Corporation"),
		IsOracle:          ptr(true),
		JavaVersion:       ptr("1.8.0_361"),
		JavaVersionMajor:  ptr(8),
		JavaVersionUpdate: ptr(361),
		RequireLicense:    ptr(true),
	}
}

// OpenRuntime builds a non-Oracle runtime entry.
func OpenRuntime(path string) model.Runtime {
	return model.Runtime{
		JavaExecutable:    path,
		JavaRuntime:       ptr("OpenJDK Runtime Environment"),
		JavaVendor:        ptr("Eclipse Adoptium"),
		IsOracle:          ptr(false),
		JavaVersion:       ptr("17.0.8"),
		JavaVersionMajor:  ptr(17),
		JavaVersionUpdate: ptr(8),
		RequireLicense:    ptr(false),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestSubmitAndFetch(t *testing.T, repo interfaces.ScanRepository) {
	ctx := context.Background()
	host := NewHost("alpha")

	submitted := gt.R1(repo.Submit(ctx, NewReport(host, time.Now(),
		OracleRuntime("/opt/oracle/jdk8/bin/java"),
		OpenRuntime("/usr/lib/jvm/temurin/bin/java"),
	))).NoError(t)

	gt.True(t, submitted.ID.Int64() > 0)
	gt.True(t, submitted.MostRecent)
	gt.A(t, submitted.Runtimes).Length(2)
	for _, rt := range submitted.Runtimes {
		gt.True(t, rt.ID > 0)
		gt.V(t, rt.ScanID).Equal(submitted.ID)
		gt.V(t, rt.ComputerName).Equal(host)
	}

	fetched := gt.R1(repo.GetScan(ctx, submitted.ID)).NoError(t)
	gt.V(t, fetched.ID).Equal(submitted.ID)
	gt.V(t, fetched.ComputerName).Equal(host)
	gt.A(t, fetched.Runtimes).Length(2)

	// Fetching the current snapshot twice without an intervening submit
	// returns identical results.
	first := gt.R1(repo.GetCurrentScan(ctx, host)).NoError(t)
	second := gt.R1(repo.GetCurrentScan(ctx, host)).NoError(t)
	gt.V(t, first.ID).Equal(submitted.ID)
	gt.V(t, second.ID).Equal(first.ID)
	gt.A(t, second.Runtimes).Length(len(first.Runtimes))
}

func TestCurrentFlagFollowsSubmissionOrder(t *testing.T, repo interfaces.ScanRepository) {
	ctx := context.Background()
	host := NewHost("beta")

	// B is submitted after A but carries an older scan timestamp. Submission
	// order, not scan-timestamp order, decides which snapshot is current.
	scanA := gt.R1(repo.Submit(ctx, NewReport(host, time.Now(), OpenRuntime("/usr/bin/java")))).NoError(t)
	scanB := gt.R1(repo.Submit(ctx, NewReport(host, time.Now().Add(-time.Hour), OpenRuntime("/usr/bin/java")))).NoError(t)

	current := gt.R1(repo.GetCurrentScan(ctx, host)).NoError(t)
	gt.V(t, current.ID).Equal(scanB.ID)

	history := gt.R1(repo.ListScansByHost(ctx, host, types.AllScans())).NoError(t)
	gt.A(t, history).Length(2)

	// Newest scan timestamp first, regardless of current flag
	gt.V(t, history[0].ID).Equal(scanA.ID)
	gt.V(t, history[1].ID).Equal(scanB.ID)

	currentCount := 0
	for _, s := range history {
		if s.MostRecent {
			currentCount++
			gt.V(t, s.ID).Equal(scanB.ID)
		}
	}
	gt.Equal(t, currentCount, 1)
}

func TestHistorySelection(t *testing.T, repo interfaces.ScanRepository) {
	ctx := context.Background()
	host := NewHost("gamma")
	base := time.Now().Add(-24 * time.Hour)

	var ids []types.ScanID
	for i := 0; i < 3; i++ {
		s := gt.R1(repo.Submit(ctx, NewReport(host, base.Add(time.Duration(i)*time.Hour)))).NoError(t)
		ids = append(ids, s.ID)
	}

	all := gt.R1(repo.ListScansByHost(ctx, host, types.AllScans())).NoError(t)
	gt.A(t, all).Length(3)
	gt.V(t, all[0].ID).Equal(ids[2])
	gt.V(t, all[2].ID).Equal(ids[0])

	current := gt.R1(repo.ListScansByHost(ctx, host, types.CurrentOnly())).NoError(t)
	gt.A(t, current).Length(1)
	gt.V(t, current[0].ID).Equal(ids[2])
	gt.True(t, current[0].MostRecent)

	recent := gt.R1(repo.ListScansByHost(ctx, host, types.MostRecent(2))).NoError(t)
	gt.A(t, recent).Length(2)
	gt.V(t, recent[0].ID).Equal(ids[2])
	gt.V(t, recent[1].ID).Equal(ids[1])
}

func TestUnknownLookups(t *testing.T, repo interfaces.ScanRepository) {
	ctx := context.Background()

	_, err := repo.GetScan(ctx, types.ScanID(999999999))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, repository.ErrNotFound))

	current := gt.R1(repo.GetCurrentScan(ctx, NewHost("never-seen"))).NoError(t)
	gt.V(t, current).Nil()

	history := gt.R1(repo.ListScansByHost(ctx, NewHost("never-seen"), types.AllScans())).NoError(t)
	gt.A(t, history).Length(0)
}

func TestLatestScansAcrossHosts(t *testing.T, repo interfaces.ScanRepository) {
	ctx := context.Background()
	hostA := NewHost("fleet-a")
	hostB := NewHost("fleet-b")

	old := gt.R1(repo.Submit(ctx, NewReport(hostA, time.Now().Add(-time.Hour)))).NoError(t)
	newA := gt.R1(repo.Submit(ctx, NewReport(hostA, time.Now()))).NoError(t)
	newB := gt.R1(repo.Submit(ctx, NewReport(hostB, time.Now()))).NoError(t)

	latest := gt.R1(repo.ListLatestScans(ctx, 1000)).NoError(t)

	seen := map[types.ScanID]bool{}
	for _, s := range latest {
		if s.ComputerName == hostA || s.ComputerName == hostB {
			seen[s.ID] = true
			gt.True(t, s.MostRecent)
		}
	}
	gt.True(t, seen[newA.ID])
	gt.True(t, seen[newB.ID])
	gt.False(t, seen[old.ID])
}

func TestOracleRuntimes(t *testing.T, repo interfaces.ScanRepository) {
	ctx := context.Background()
	host := NewHost("oracle-host")

	// First snapshot carries an Oracle runtime, the follow-up does not. Only
	// runtimes of current snapshots are reported.
	gt.R1(repo.Submit(ctx, NewReport(host, time.Now().Add(-time.Hour), OracleRuntime("/opt/oracle/jdk8/bin/java")))).NoError(t)

	listed := gt.R1(repo.ListOracleRuntimes(ctx, 1000)).NoError(t)
	found := false
	for _, rt := range listed {
		if rt.ComputerName == host {
			found = true
			gt.True(t, *rt.IsOracle)
		}
	}
	gt.True(t, found)

	gt.R1(repo.Submit(ctx, NewReport(host, time.Now(), OpenRuntime("/usr/bin/java")))).NoError(t)

	listed = gt.R1(repo.ListOracleRuntimes(ctx, 1000)).NoError(t)
	for _, rt := range listed {
		gt.V(t, rt.ComputerName).NotEqual(host)
	}
}

// TestNegativeLimitUncapped checks that every backend treats a negative row
// cap as "no cap" instead of erroring or panicking.
func TestNegativeLimitUncapped(t *testing.T, repo interfaces.ScanRepository) {
	ctx := context.Background()
	host := NewHost("uncapped")

	submitted := gt.R1(repo.Submit(ctx, NewReport(host, time.Now(),
		OracleRuntime("/opt/oracle/jdk8/bin/java"),
	))).NoError(t)

	history := gt.R1(repo.ListScansByHost(ctx, host, types.MostRecent(-1))).NoError(t)
	gt.A(t, history).Length(1)
	gt.V(t, history[0].ID).Equal(submitted.ID)

	latest := gt.R1(repo.ListLatestScans(ctx, -1)).NoError(t)
	found := false
	for _, s := range latest {
		if s.ID == submitted.ID {
			found = true
		}
	}
	gt.True(t, found)

	runtimes := gt.R1(repo.ListOracleRuntimes(ctx, -1)).NoError(t)
	found = false
	for _, rt := range runtimes {
		if rt.ComputerName == host {
			found = true
		}
	}
	gt.True(t, found)
}

func TestConcurrentSubmitsSameHost(t *testing.T, repo interfaces.ScanRepository) {
	ctx := context.Background()
	host := NewHost("racer")
	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Submit(ctx, NewReport(host, time.Now().Add(time.Duration(i)*time.Second)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		gt.NoError(t, err)
	}

	history := gt.R1(repo.ListScansByHost(ctx, host, types.AllScans())).NoError(t)
	gt.A(t, history).Length(writers)

	currentCount := 0
	for _, s := range history {
		if s.MostRecent {
			currentCount++
		}
	}
	gt.Equal(t, currentCount, 1)

	current := gt.R1(repo.GetCurrentScan(ctx, host)).NoError(t)
	gt.V(t, current).NotNil()
	gt.True(t, current.MostRecent)
}
