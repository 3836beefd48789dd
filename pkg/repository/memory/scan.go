package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/jfind/pkg/domain/model"
	"github.com/m-mizutani/jfind/pkg/domain/types"
	"github.com/m-mizutani/jfind/pkg/repository"
)

type scanRepository struct {
	mu            sync.RWMutex
	scans         map[types.ScanID]*model.ScanSnapshot
	nextScanID    int64
	nextRuntimeID int64
}

func (r *scanRepository) Submit(ctx context.Context, report *model.Report) (*model.ScanSnapshot, error) {
	snapshot, err := model.NewScanSnapshot(report)
	if err != nil {
		return nil, goerr.Wrap(repository.ErrInvalidInput, "invalid report", goerr.V("error", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Demote the current snapshot of this host, if any
	for _, s := range r.scans {
		if s.ComputerName == snapshot.ComputerName && s.MostRecent {
			s.MostRecent = false
		}
	}

	r.nextScanID++
	snapshot.ID = types.ScanID(r.nextScanID)
	snapshot.CreatedAt = time.Now().UTC()
	for _, rt := range snapshot.Runtimes {
		r.nextRuntimeID++
		rt.ID = r.nextRuntimeID
		rt.ScanID = snapshot.ID
		rt.CreatedAt = snapshot.CreatedAt
	}

	r.scans[snapshot.ID] = copySnapshot(snapshot)

	return snapshot, nil
}

func (r *scanRepository) GetScan(ctx context.Context, id types.ScanID) (*model.ScanSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot, exists := r.scans[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "scan not found", goerr.V("scanID", id))
	}

	return copySnapshot(snapshot), nil
}

func (r *scanRepository) GetCurrentScan(ctx context.Context, host string) (*model.ScanSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.scans {
		if s.ComputerName == host && s.MostRecent {
			return copySnapshot(s), nil
		}
	}

	return nil, nil
}

func (r *scanRepository) ListScansByHost(ctx context.Context, host string, sel types.HistorySelection) ([]*model.ScanSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var scans []*model.ScanSnapshot
	for _, s := range r.scans {
		if s.ComputerName != host {
			continue
		}
		if sel.IsCurrentOnly() && !s.MostRecent {
			continue
		}
		scans = append(scans, copySnapshot(s))
	}

	sortNewestFirst(scans)

	if n, ok := sel.Limit(); ok && len(scans) > n {
		scans = scans[:n]
	}

	return scans, nil
}

func (r *scanRepository) ListLatestScans(ctx context.Context, limit int) ([]*model.ScanSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var scans []*model.ScanSnapshot
	for _, s := range r.scans {
		if s.MostRecent {
			scans = append(scans, copySnapshot(s))
		}
	}

	sortNewestFirst(scans)

	if limit >= 0 && len(scans) > limit {
		scans = scans[:limit]
	}

	return scans, nil
}

func (r *scanRepository) ListOracleRuntimes(ctx context.Context, limit int) ([]*model.RuntimeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var currents []*model.ScanSnapshot
	for _, s := range r.scans {
		if s.MostRecent {
			currents = append(currents, s)
		}
	}
	sortNewestFirst(currents)

	var runtimes []*model.RuntimeRecord
	for _, s := range currents {
		for _, rt := range s.Runtimes {
			if rt.IsOracle != nil && *rt.IsOracle {
				runtimes = append(runtimes, copyRuntime(rt))
			}
		}
	}

	if limit >= 0 && len(runtimes) > limit {
		runtimes = runtimes[:limit]
	}

	return runtimes, nil
}

// sortNewestFirst orders by scan timestamp descending, newest submission
// first on ties.
func sortNewestFirst(scans []*model.ScanSnapshot) {
	sort.Slice(scans, func(i, j int) bool {
		if !scans[i].ScanTS.Equal(scans[j].ScanTS) {
			return scans[i].ScanTS.After(scans[j].ScanTS)
		}
		return scans[i].ID > scans[j].ID
	})
}

func copySnapshot(s *model.ScanSnapshot) *model.ScanSnapshot {
	c := *s
	c.PlatformInfo = copyPtr(s.PlatformInfo)
	c.Runtimes = nil
	for _, rt := range s.Runtimes {
		c.Runtimes = append(c.Runtimes, copyRuntime(rt))
	}
	return &c
}

func copyRuntime(rt *model.RuntimeRecord) *model.RuntimeRecord {
	c := *rt
	c.JavaRuntime = copyPtr(rt.JavaRuntime)
	c.JavaVendor = copyPtr(rt.JavaVendor)
	c.IsOracle = copyPtr(rt.IsOracle)
	c.JavaVersion = copyPtr(rt.JavaVersion)
	c.JavaVersionMajor = copyPtr(rt.JavaVersionMajor)
	c.JavaVersionUpdate = copyPtr(rt.JavaVersionUpdate)
	c.RequireLicense = copyPtr(rt.RequireLicense)
	return &c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
