package model

// ScanRawRecord is the analytics row form of a snapshot for BigQuery export.
// Timestamps are flattened to epoch microseconds for the storage write API.
type ScanRawRecord struct {
	ID                  int64              `bigquery:"id" json:"id"`
	ScanTS              int64              `bigquery:"scan_ts" json:"scan_ts"`
	ComputerName        string             `bigquery:"computer_name" json:"computer_name"`
	UserName            string             `bigquery:"user_name" json:"user_name"`
	ScanDuration        string             `bigquery:"scan_duration" json:"scan_duration"`
	HasOracleJDK        bool               `bigquery:"has_oracle_jdk" json:"has_oracle_jdk"`
	CountResult         int                `bigquery:"count_result" json:"count_result"`
	CountRequireLicense int                `bigquery:"count_require_license" json:"count_require_license"`
	ScannedDirs         int                `bigquery:"scanned_dirs" json:"scanned_dirs"`
	ScanPath            string             `bigquery:"scan_path" json:"scan_path"`
	PlatformInfo        string             `bigquery:"platform_info" json:"platform_info"`
	MostRecent          bool               `bigquery:"most_recent" json:"most_recent"`
	CreatedAt           int64              `bigquery:"created_at" json:"created_at"`
	Runtimes            []RuntimeRawRecord `bigquery:"runtimes" json:"runtimes"`
}

type RuntimeRawRecord struct {
	ID                int64  `bigquery:"id" json:"id"`
	JavaExecutable    string `bigquery:"java_executable" json:"java_executable"`
	JavaRuntime       string `bigquery:"java_runtime" json:"java_runtime"`
	JavaVendor        string `bigquery:"java_vendor" json:"java_vendor"`
	IsOracle          bool   `bigquery:"is_oracle" json:"is_oracle"`
	JavaVersion       string `bigquery:"java_version" json:"java_version"`
	JavaVersionMajor  int    `bigquery:"java_version_major" json:"java_version_major"`
	JavaVersionUpdate int    `bigquery:"java_version_update" json:"java_version_update"`
	RequireLicense    bool   `bigquery:"require_license" json:"require_license"`
}

// NewScanRawRecord flattens a stored snapshot into its analytics row form.
// Optional runtime fields collapse to zero values, the row is for aggregate
// queries, not for rehydration.
func NewScanRawRecord(snapshot *ScanSnapshot) *ScanRawRecord {
	rec := &ScanRawRecord{
		ID:                  snapshot.ID.Int64(),
		ScanTS:              snapshot.ScanTS.UnixMicro(),
		ComputerName:        snapshot.ComputerName,
		UserName:            snapshot.UserName,
		ScanDuration:        snapshot.ScanDuration,
		HasOracleJDK:        snapshot.HasOracleJDK,
		CountResult:         snapshot.CountResult,
		CountRequireLicense: snapshot.CountRequireLicense,
		ScannedDirs:         snapshot.ScannedDirs,
		ScanPath:            snapshot.ScanPath,
		MostRecent:          snapshot.MostRecent,
		CreatedAt:           snapshot.CreatedAt.UnixMicro(),
	}
	if snapshot.PlatformInfo != nil {
		rec.PlatformInfo = *snapshot.PlatformInfo
	}

	for _, rt := range snapshot.Runtimes {
		raw := RuntimeRawRecord{
			ID:             rt.ID,
			JavaExecutable: rt.JavaExecutable,
		}
		if rt.JavaRuntime != nil {
			raw.JavaRuntime = *rt.JavaRuntime
		}
		if rt.JavaVendor != nil {
			raw.JavaVendor = *rt.JavaVendor
		}
		if rt.IsOracle != nil {
			raw.IsOracle = *rt.IsOracle
		}
		if rt.JavaVersion != nil {
			raw.JavaVersion = *rt.JavaVersion
		}
		if rt.JavaVersionMajor != nil {
			raw.JavaVersionMajor = *rt.JavaVersionMajor
		}
		if rt.JavaVersionUpdate != nil {
			raw.JavaVersionUpdate = *rt.JavaVersionUpdate
		}
		if rt.RequireLicense != nil {
			raw.RequireLicense = *rt.RequireLicense
		}
		rec.Runtimes = append(rec.Runtimes, raw)
	}

	return rec
}
