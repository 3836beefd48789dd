package model

import (
	"time"

	"github.com/m-mizutani/jfind/pkg/domain/types"
)

// ScanMeta is the response form of a snapshot's metadata.
type ScanMeta struct {
	ScanTS              string       `json:"scan_ts"`
	ComputerName        string       `json:"computer_name"`
	UserName            string       `json:"user_name"`
	ScanDuration        string       `json:"scan_duration"`
	HasOracleJDK        bool         `json:"has_oracle_jdk"`
	CountResult         int          `json:"count_result"`
	CountRequireLicense int          `json:"count_require_license"`
	ScannedDirs         int          `json:"scanned_dirs"`
	ScanPath            string       `json:"scan_path"`
	PlatformInfo        *string      `json:"platform_info"`
	ScanID              types.ScanID `json:"scan_id"`
}

// ScanResponse is the response form of a full snapshot.
type ScanResponse struct {
	Meta     ScanMeta  `json:"meta"`
	Runtimes []Runtime `json:"runtimes"`
}

func (x *ScanSnapshot) MetaView() ScanMeta {
	return ScanMeta{
		ScanTS:              x.ScanTS.UTC().Format(time.RFC3339),
		ComputerName:        x.ComputerName,
		UserName:            x.UserName,
		ScanDuration:        x.ScanDuration,
		HasOracleJDK:        x.HasOracleJDK,
		CountResult:         x.CountResult,
		CountRequireLicense: x.CountRequireLicense,
		ScannedDirs:         x.ScannedDirs,
		ScanPath:            x.ScanPath,
		PlatformInfo:        x.PlatformInfo,
		ScanID:              x.ID,
	}
}

func (x *ScanSnapshot) View() ScanResponse {
	resp := ScanResponse{
		Meta:     x.MetaView(),
		Runtimes: []Runtime{},
	}
	for _, rt := range x.Runtimes {
		resp.Runtimes = append(resp.Runtimes, rt.View())
	}
	return resp
}

func (x *RuntimeRecord) View() Runtime {
	return Runtime{
		JavaExecutable:    x.JavaExecutable,
		JavaRuntime:       x.JavaRuntime,
		JavaVendor:        x.JavaVendor,
		IsOracle:          x.IsOracle,
		JavaVersion:       x.JavaVersion,
		JavaVersionMajor:  x.JavaVersionMajor,
		JavaVersionUpdate: x.JavaVersionUpdate,
		RequireLicense:    x.RequireLicense,
	}
}
