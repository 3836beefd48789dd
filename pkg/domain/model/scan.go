package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/jfind/pkg/domain/types"
)

// Report is one inventory report submitted by the jfind scanning agent.
type Report struct {
	Meta     Meta      `json:"meta"`
	Runtimes []Runtime `json:"runtimes"`
}

// Meta is the metadata block of an inbound report. ScanTS stays a string on
// the wire; Timestamp parses it.
type Meta struct {
	ScanTS              string  `json:"scan_ts"`
	ComputerName        string  `json:"computer_name"`
	UserName            string  `json:"user_name"`
	ScanDuration        string  `json:"scan_duration"`
	HasOracleJDK        bool    `json:"has_oracle_jdk"`
	CountResult         int     `json:"count_result"`
	CountRequireLicense int     `json:"count_require_license"`
	ScannedDirs         int     `json:"scanned_dirs"`
	ScanPath            string  `json:"scan_path"`
	PlatformInfo        *string `json:"platform_info"`
}

// Runtime is one discovered Java installation as reported by the agent.
// Everything except the executable path is optional.
type Runtime struct {
	JavaExecutable    string  `json:"java_executable"`
	JavaRuntime       *string `json:"java_runtime"`
	JavaVendor        *string `json:"java_vendor"`
	IsOracle          *bool   `json:"is_oracle"`
	JavaVersion       *string `json:"java_version"`
	JavaVersionMajor  *int    `json:"java_version_major"`
	JavaVersionUpdate *int    `json:"java_version_update"`
	RequireLicense    *bool   `json:"require_license"`
}

// timestamp layouts accepted from agents. Older agents omit the zone suffix,
// those values are taken as UTC.
var scanTSLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
}

// Timestamp parses the scan_ts field.
func (x *Meta) Timestamp() (time.Time, error) {
	for _, layout := range scanTSLayouts {
		if ts, err := time.Parse(layout, x.ScanTS); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, goerr.New("unparsable scan_ts", goerr.V("scan_ts", x.ScanTS))
}

// Validate checks the semantic requirements of a report: a host name, a
// parseable timestamp, and an executable path on every runtime entry. It must
// pass before any write begins.
func (x *Report) Validate() error {
	if x.Meta.ComputerName == "" {
		return goerr.New("computer_name is empty")
	}
	if _, err := x.Meta.Timestamp(); err != nil {
		return goerr.Wrap(err, "invalid scan_ts", goerr.V("computer_name", x.Meta.ComputerName))
	}
	for i, rt := range x.Runtimes {
		if rt.JavaExecutable == "" {
			return goerr.New("java_executable is empty", goerr.V("index", i))
		}
	}
	return nil
}

// ScanSnapshot is one persisted scan report. Immutable after creation except
// for MostRecent, which flips to false when a newer snapshot for the same
// host is submitted.
type ScanSnapshot struct {
	ID                  types.ScanID
	ScanTS              time.Time
	ComputerName        string
	UserName            string
	ScanDuration        string
	HasOracleJDK        bool
	CountResult         int
	CountRequireLicense int
	ScannedDirs         int
	ScanPath            string
	PlatformInfo        *string
	MostRecent          bool
	CreatedAt           time.Time

	Runtimes []*RuntimeRecord
}

// RuntimeRecord is one discovered Java installation owned by a snapshot. The
// host name is denormalized from the parent for query convenience.
type RuntimeRecord struct {
	ID                int64
	ScanID            types.ScanID
	ComputerName      string
	JavaExecutable    string
	JavaRuntime       *string
	JavaVendor        *string
	IsOracle          *bool
	JavaVersion       *string
	JavaVersionMajor  *int
	JavaVersionUpdate *int
	RequireLicense    *bool
	CreatedAt         time.Time
}

// NewScanSnapshot builds the snapshot to be stored for a validated report.
// The repository assigns ID and CreatedAt, and attaches the runtime records.
func NewScanSnapshot(report *Report) (*ScanSnapshot, error) {
	ts, err := report.Meta.Timestamp()
	if err != nil {
		return nil, err
	}

	snapshot := &ScanSnapshot{
		ScanTS:              ts,
		ComputerName:        report.Meta.ComputerName,
		UserName:            report.Meta.UserName,
		ScanDuration:        report.Meta.ScanDuration,
		HasOracleJDK:        report.Meta.HasOracleJDK,
		CountResult:         report.Meta.CountResult,
		CountRequireLicense: report.Meta.CountRequireLicense,
		ScannedDirs:         report.Meta.ScannedDirs,
		ScanPath:            report.Meta.ScanPath,
		PlatformInfo:        report.Meta.PlatformInfo,
		MostRecent:          true,
	}

	for _, rt := range report.Runtimes {
		snapshot.Runtimes = append(snapshot.Runtimes, &RuntimeRecord{
			ComputerName:      report.Meta.ComputerName,
			JavaExecutable:    rt.JavaExecutable,
			JavaRuntime:       rt.JavaRuntime,
			JavaVendor:        rt.JavaVendor,
			IsOracle:          rt.IsOracle,
			JavaVersion:       rt.JavaVersion,
			JavaVersionMajor:  rt.JavaVersionMajor,
			JavaVersionUpdate: rt.JavaVersionUpdate,
			RequireLicense:    rt.RequireLicense,
		})
	}

	return snapshot, nil
}

// RequiresLicense reports whether any runtime of the snapshot needs a
// commercial license.
func (x *ScanSnapshot) RequiresLicense() bool {
	for _, rt := range x.Runtimes {
		if rt.RequireLicense != nil && *rt.RequireLicense {
			return true
		}
	}
	return false
}
