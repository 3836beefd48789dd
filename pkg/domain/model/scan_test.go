package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/jfind/pkg/domain/model"
)

func validReport() *model.Report {
	platform := "Windows 11 Pro 10.0.22631"
	vendor := "Oracle Corporation"
	oracle := true
	version := "1.8.0_381"
	major := 8
	update := 381
	required := true

	return &model.Report{
		Meta: model.Meta{
			ScanTS:              "2025-01-15T10:30:00Z",
			ComputerName:        "alpha",
			UserName:            "svc-scan",
			ScanDuration:        "0:01:32",
			HasOracleJDK:        true,
			CountResult:         1,
			CountRequireLicense: 1,
			ScannedDirs:         4821,
			ScanPath:            "C:\\",
			PlatformInfo:        &platform,
		},
		Runtimes: []model.Runtime{
			{
				JavaExecutable:    "C:\\Program Files\\Java\\jdk1.8.0_381\\bin\\java.exe",
				JavaRuntime:       &version,
				JavaVendor:        &vendor,
				IsOracle:          &oracle,
				JavaVersion:       &version,
				JavaVersionMajor:  &major,
				JavaVersionUpdate: &update,
				RequireLicense:    &required,
			},
		},
	}
}

func TestReportValidate(t *testing.T) {
	t.Run("valid report", func(t *testing.T) {
		gt.NoError(t, validReport().Validate())
	})

	t.Run("empty computer name", func(t *testing.T) {
		report := validReport()
		report.Meta.ComputerName = ""
		gt.Error(t, report.Validate())
	})

	t.Run("unparsable scan_ts", func(t *testing.T) {
		report := validReport()
		report.Meta.ScanTS = "15/01/2025 10:30"
		gt.Error(t, report.Validate())
	})

	t.Run("runtime without executable", func(t *testing.T) {
		report := validReport()
		report.Runtimes = append(report.Runtimes, model.Runtime{})
		gt.Error(t, report.Validate())
	})
}

func TestMetaTimestamp(t *testing.T) {
	cases := map[string]struct {
		input string
		want  time.Time
	}{
		"rfc3339": {
			input: "2025-01-15T10:30:00Z",
			want:  time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		"rfc3339 with offset": {
			input: "2025-01-15T19:30:00+09:00",
			want:  time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		"no zone": {
			input: "2025-01-15T10:30:00",
			want:  time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		"fractional seconds": {
			input: "2025-01-15T10:30:00.123456",
			want:  time.Date(2025, 1, 15, 10, 30, 0, 123456000, time.UTC),
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			meta := model.Meta{ScanTS: tc.input}
			ts := gt.R1(meta.Timestamp()).NoError(t)
			gt.True(t, ts.Equal(tc.want))
		})
	}

	t.Run("garbage", func(t *testing.T) {
		meta := model.Meta{ScanTS: "not a timestamp"}
		_, err := meta.Timestamp()
		gt.Error(t, err)
	})
}

func TestNewScanSnapshot(t *testing.T) {
	report := validReport()
	snapshot := gt.R1(model.NewScanSnapshot(report)).NoError(t)

	gt.V(t, snapshot.ComputerName).Equal("alpha")
	gt.True(t, snapshot.MostRecent)
	gt.True(t, snapshot.ScanTS.Equal(time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)))
	gt.A(t, snapshot.Runtimes).Length(1)
	gt.V(t, snapshot.Runtimes[0].ComputerName).Equal("alpha")
	gt.V(t, snapshot.Runtimes[0].JavaExecutable).Equal(report.Runtimes[0].JavaExecutable)
}

func TestRequiresLicense(t *testing.T) {
	required := true
	notRequired := false

	t.Run("no runtimes", func(t *testing.T) {
		gt.False(t, (&model.ScanSnapshot{}).RequiresLicense())
	})

	t.Run("all clear", func(t *testing.T) {
		snapshot := &model.ScanSnapshot{Runtimes: []*model.RuntimeRecord{
			{RequireLicense: &notRequired},
			{RequireLicense: nil},
		}}
		gt.False(t, snapshot.RequiresLicense())
	})

	t.Run("one flagged", func(t *testing.T) {
		snapshot := &model.ScanSnapshot{Runtimes: []*model.RuntimeRecord{
			{RequireLicense: &notRequired},
			{RequireLicense: &required},
		}}
		gt.True(t, snapshot.RequiresLicense())
	})
}

func TestValidateReportJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		body := `{
			"meta": {
				"scan_ts": "2025-01-15T10:30:00Z",
				"computer_name": "alpha",
				"user_name": "svc-scan",
				"scan_duration": "0:01:32",
				"has_oracle_jdk": false,
				"count_result": 0,
				"count_require_license": 0,
				"scanned_dirs": 10,
				"scan_path": "/",
				"platform_info": null
			},
			"runtimes": []
		}`
		gt.NoError(t, model.ValidateReportJSON([]byte(body)))
	})

	t.Run("null runtimes means zero entries", func(t *testing.T) {
		// Clients with no findings marshal a nil slice, which arrives as null
		body := `{
			"meta": {
				"scan_ts": "2025-01-15T10:30:00Z",
				"computer_name": "alpha",
				"user_name": "svc-scan",
				"scan_duration": "0:01:32",
				"has_oracle_jdk": false,
				"count_result": 0,
				"count_require_license": 0,
				"scanned_dirs": 10,
				"scan_path": "/",
				"platform_info": null
			},
			"runtimes": null
		}`
		gt.NoError(t, model.ValidateReportJSON([]byte(body)))
	})

	t.Run("missing meta", func(t *testing.T) {
		gt.Error(t, model.ValidateReportJSON([]byte(`{"runtimes": []}`)))
	})

	t.Run("empty computer_name", func(t *testing.T) {
		body := `{
			"meta": {
				"scan_ts": "2025-01-15T10:30:00Z",
				"computer_name": "",
				"user_name": "svc-scan",
				"scan_duration": "0:01:32",
				"has_oracle_jdk": false,
				"count_result": 0,
				"count_require_license": 0,
				"scanned_dirs": 10,
				"scan_path": "/",
				"platform_info": null
			},
			"runtimes": []
		}`
		gt.Error(t, model.ValidateReportJSON([]byte(body)))
	})

	t.Run("not json", func(t *testing.T) {
		gt.Error(t, model.ValidateReportJSON([]byte("meta: {}")))
	})
}
