package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/jfind/pkg/domain/model"
	"github.com/m-mizutani/jfind/pkg/domain/types"
	"github.com/m-mizutani/jfind/pkg/repository"
	"github.com/m-mizutani/jfind/pkg/utils/safe"
)

const scanColumns = `id, scan_ts, computer_name, user_name, scan_duration, has_oracle_jdk,
count_result, count_require_license, scanned_dirs, scan_path, platform_info, most_recent, created_at`

const runtimeColumns = `id, scan_id, computer_name, java_executable, java_runtime, java_vendor,
is_oracle, java_version, java_version_major, java_version_update, require_license, created_at`

func (r *scanRepository) Submit(ctx context.Context, report *model.Report) (*model.ScanSnapshot, error) {
	snapshot, err := model.NewScanSnapshot(report)
	if err != nil {
		return nil, goerr.Wrap(repository.ErrInvalidInput, "invalid report", goerr.V("error", err))
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction")
	}
	defer safe.Rollback(ctx, tx)

	// Serialize submissions per host. Under READ COMMITTED, two concurrent
	// writers for the same host would otherwise each miss the other's
	// uncommitted insert and both end up most_recent.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, snapshot.ComputerName); err != nil {
		return nil, goerr.Wrap(err, "failed to acquire host lock", goerr.V("host", snapshot.ComputerName))
	}

	if _, err := tx.Exec(ctx,
		`UPDATE scan_info SET most_recent = FALSE WHERE computer_name = $1 AND most_recent`,
		snapshot.ComputerName,
	); err != nil {
		return nil, goerr.Wrap(err, "failed to demote current snapshot", goerr.V("host", snapshot.ComputerName))
	}

	row := tx.QueryRow(ctx, `
INSERT INTO scan_info (scan_ts, computer_name, user_name, scan_duration, has_oracle_jdk,
  count_result, count_require_license, scanned_dirs, scan_path, platform_info, most_recent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
RETURNING id, created_at`,
		snapshot.ScanTS,
		snapshot.ComputerName,
		snapshot.UserName,
		snapshot.ScanDuration,
		snapshot.HasOracleJDK,
		snapshot.CountResult,
		snapshot.CountRequireLicense,
		snapshot.ScannedDirs,
		snapshot.ScanPath,
		snapshot.PlatformInfo,
	)
	if err := row.Scan(&snapshot.ID, &snapshot.CreatedAt); err != nil {
		return nil, goerr.Wrap(err, "failed to insert snapshot", goerr.V("host", snapshot.ComputerName))
	}

	if len(snapshot.Runtimes) > 0 {
		batch := &pgx.Batch{}
		for _, rt := range snapshot.Runtimes {
			batch.Queue(`
INSERT INTO java_info (scan_id, computer_name, java_executable, java_runtime, java_vendor,
  is_oracle, java_version, java_version_major, java_version_update, require_license)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at`,
				snapshot.ID.Int64(),
				rt.ComputerName,
				rt.JavaExecutable,
				rt.JavaRuntime,
				rt.JavaVendor,
				rt.IsOracle,
				rt.JavaVersion,
				rt.JavaVersionMajor,
				rt.JavaVersionUpdate,
				rt.RequireLicense,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for _, rt := range snapshot.Runtimes {
			rt.ScanID = snapshot.ID
			if err := results.QueryRow().Scan(&rt.ID, &rt.CreatedAt); err != nil {
				_ = results.Close()
				return nil, goerr.Wrap(err, "failed to insert runtime record", goerr.V("scanID", snapshot.ID))
			}
		}
		if err := results.Close(); err != nil {
			return nil, goerr.Wrap(err, "failed to close runtime insert batch")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to commit scan submission", goerr.V("host", snapshot.ComputerName))
	}

	return snapshot, nil
}

func (r *scanRepository) GetScan(ctx context.Context, id types.ScanID) (*model.ScanSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM scan_info WHERE id = $1`, scanColumns), id.Int64())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query scan", goerr.V("scanID", id))
	}

	scans, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, goerr.Wrap(repository.ErrNotFound, "scan not found", goerr.V("scanID", id))
	}

	if err := r.attachRuntimes(ctx, scans); err != nil {
		return nil, err
	}
	return scans[0], nil
}

func (r *scanRepository) GetCurrentScan(ctx context.Context, host string) (*model.ScanSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM scan_info WHERE computer_name = $1 AND most_recent`, scanColumns), host)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query current scan", goerr.V("host", host))
	}

	scans, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, nil
	}

	if err := r.attachRuntimes(ctx, scans); err != nil {
		return nil, err
	}
	return scans[0], nil
}

func (r *scanRepository) ListScansByHost(ctx context.Context, host string, sel types.HistorySelection) ([]*model.ScanSnapshot, error) {
	query := fmt.Sprintf(`SELECT %s FROM scan_info WHERE computer_name = $1`, scanColumns)
	args := []any{host}

	if sel.IsCurrentOnly() {
		query += ` AND most_recent`
	}
	query += ` ORDER BY scan_ts DESC, id DESC`
	if n, ok := sel.Limit(); ok {
		query += ` LIMIT $2`
		args = append(args, n)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query scans by host", goerr.V("host", host))
	}

	scans, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachRuntimes(ctx, scans); err != nil {
		return nil, err
	}
	return scans, nil
}

func (r *scanRepository) ListLatestScans(ctx context.Context, limit int) ([]*model.ScanSnapshot, error) {
	// Negative means uncapped, same as the memory backend
	query := fmt.Sprintf(`SELECT %s FROM scan_info WHERE most_recent ORDER BY scan_ts DESC, id DESC`, scanColumns)
	args := []any{}
	if limit >= 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query latest scans")
	}

	scans, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachRuntimes(ctx, scans); err != nil {
		return nil, err
	}
	return scans, nil
}

func (r *scanRepository) ListOracleRuntimes(ctx context.Context, limit int) ([]*model.RuntimeRecord, error) {
	query := `
SELECT j.id, j.scan_id, j.computer_name, j.java_executable, j.java_runtime, j.java_vendor,
  j.is_oracle, j.java_version, j.java_version_major, j.java_version_update, j.require_license, j.created_at
FROM java_info j
JOIN scan_info s ON s.id = j.scan_id
WHERE j.is_oracle AND s.most_recent
ORDER BY s.scan_ts DESC, j.id DESC`
	args := []any{}
	if limit >= 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query oracle runtimes")
	}

	return scanRuntimes(rows)
}

// attachRuntimes loads runtime records for all snapshots in one query.
func (r *scanRepository) attachRuntimes(ctx context.Context, scans []*model.ScanSnapshot) error {
	if len(scans) == 0 {
		return nil
	}

	byID := make(map[types.ScanID]*model.ScanSnapshot, len(scans))
	ids := make([]int64, 0, len(scans))
	for _, s := range scans {
		s.Runtimes = []*model.RuntimeRecord{}
		byID[s.ID] = s
		ids = append(ids, s.ID.Int64())
	}

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM java_info WHERE scan_id = ANY($1) ORDER BY id`, runtimeColumns), ids)
	if err != nil {
		return goerr.Wrap(err, "failed to query runtime records")
	}

	runtimes, err := scanRuntimes(rows)
	if err != nil {
		return err
	}
	for _, rt := range runtimes {
		if s, ok := byID[rt.ScanID]; ok {
			s.Runtimes = append(s.Runtimes, rt)
		}
	}
	return nil
}

func scanSnapshots(rows pgx.Rows) ([]*model.ScanSnapshot, error) {
	defer rows.Close()

	var scans []*model.ScanSnapshot
	for rows.Next() {
		var s model.ScanSnapshot
		if err := rows.Scan(
			&s.ID,
			&s.ScanTS,
			&s.ComputerName,
			&s.UserName,
			&s.ScanDuration,
			&s.HasOracleJDK,
			&s.CountResult,
			&s.CountRequireLicense,
			&s.ScannedDirs,
			&s.ScanPath,
			&s.PlatformInfo,
			&s.MostRecent,
			&s.CreatedAt,
		); err != nil {
			return nil, goerr.Wrap(err, "failed to scan snapshot row")
		}
		scans = append(scans, &s)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(err, "failed to read snapshot rows")
	}
	return scans, nil
}

func scanRuntimes(rows pgx.Rows) ([]*model.RuntimeRecord, error) {
	defer rows.Close()

	var runtimes []*model.RuntimeRecord
	for rows.Next() {
		var rt model.RuntimeRecord
		if err := rows.Scan(
			&rt.ID,
			&rt.ScanID,
			&rt.ComputerName,
			&rt.JavaExecutable,
			&rt.JavaRuntime,
			&rt.JavaVendor,
			&rt.IsOracle,
			&rt.JavaVersion,
			&rt.JavaVersionMajor,
			&rt.JavaVersionUpdate,
			&rt.RequireLicense,
			&rt.CreatedAt,
		); err != nil {
			return nil, goerr.Wrap(err, "failed to scan runtime row")
		}
		runtimes = append(runtimes, &rt)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(err, "failed to read runtime rows")
	}
	return runtimes, nil
}
