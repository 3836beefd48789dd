package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/jfind/pkg/controller/server"
	"github.com/m-mizutani/jfind/pkg/domain/model"
	"github.com/m-mizutani/jfind/pkg/infra"
	"github.com/m-mizutani/jfind/pkg/repository/memory"
	"github.com/m-mizutani/jfind/pkg/repository/testhelper"
	"github.com/m-mizutani/jfind/pkg/usecase"
)

func newTestServer() *server.Server {
	clients := infra.New(infra.WithScanRepository(memory.New()))
	return server.New(usecase.New(clients))
}

func postReport(t *testing.T, srv *server.Server, report *model.Report) int64 {
	t.Helper()

	body := gt.R1(json.Marshal(report)).NoError(t)
	req := httptest.NewRequest(http.MethodPost, "/jfind", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Mux().ServeHTTP(rec, req)
	gt.V(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Result string `json:"result"`
		ScanID int64  `json:"scan_id"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gt.V(t, resp.Result).Equal("ok")
	gt.True(t, resp.ScanID > 0)
	return resp.ScanID
}

func getJSON(t *testing.T, srv *server.Server, path string, out any) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	if out != nil && rec.Code == http.StatusOK {
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	gt.V(t, rec.Code).Equal(http.StatusOK)
	gt.V(t, rec.Body.String()).Equal("ok")
}

func TestSubmitEndpoint(t *testing.T) {
	t.Run("valid report returns scan_id", func(t *testing.T) {
		srv := newTestServer()
		host := testhelper.NewHost("alpha")
		scanID := postReport(t, srv, testhelper.NewReport(host, time.Now(),
			testhelper.OracleRuntime("/opt/oracle/jdk8/bin/java"),
			testhelper.OpenRuntime("/usr/bin/java"),
		))
		gt.True(t, scanID > 0)
	})

	t.Run("report with zero runtimes is accepted", func(t *testing.T) {
		srv := newTestServer()
		host := testhelper.NewHost("empty")
		scanID := postReport(t, srv, testhelper.NewReport(host, time.Now()))

		var scans []model.ScanResponse
		code := getJSON(t, srv, fmt.Sprintf("/jfind?scan_id=%d", scanID), &scans)
		gt.V(t, code).Equal(http.StatusOK)
		gt.A(t, scans).Length(1)
		gt.A(t, scans[0].Runtimes).Length(0)
	})

	t.Run("null runtimes field is accepted", func(t *testing.T) {
		srv := newTestServer()
		body := []byte(`{"meta":{"scan_ts":"2026-08-01T10:00:00Z","computer_name":"bare-host","user_name":"u","scan_duration":"PT1S","has_oracle_jdk":false,"count_result":0,"count_require_license":0,"scanned_dirs":1,"scan_path":"/","platform_info":null},"runtimes":null}`)
		req := httptest.NewRequest(http.MethodPost, "/jfind", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("malformed JSON body returns 422", func(t *testing.T) {
		srv := newTestServer()
		req := httptest.NewRequest(http.MethodPost, "/jfind", bytes.NewReader([]byte(`{"meta": {`)))
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("report missing computer_name returns 422", func(t *testing.T) {
		srv := newTestServer()
		body := []byte(`{"meta":{"scan_ts":"2026-08-01T10:00:00Z","user_name":"u","scan_duration":"PT1S","has_oracle_jdk":false,"count_result":0,"count_require_license":0,"scanned_dirs":1,"scan_path":"/"},"runtimes":[]}`)
		req := httptest.NewRequest(http.MethodPost, "/jfind", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("report with bad timestamp returns 422", func(t *testing.T) {
		srv := newTestServer()
		report := testhelper.NewReport(testhelper.NewHost("badts"), time.Now())
		report.Meta.ScanTS = "not-a-timestamp"
		body := gt.R1(json.Marshal(report)).NoError(t)
		req := httptest.NewRequest(http.MethodPost, "/jfind", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusUnprocessableEntity)
	})
}

func TestQueryEndpoint(t *testing.T) {
	t.Run("lookup by scan_id", func(t *testing.T) {
		srv := newTestServer()
		host := testhelper.NewHost("byid")
		scanID := postReport(t, srv, testhelper.NewReport(host, time.Now(),
			testhelper.OpenRuntime("/usr/bin/java"),
		))

		var scans []model.ScanResponse
		code := getJSON(t, srv, fmt.Sprintf("/jfind?scan_id=%d", scanID), &scans)
		gt.V(t, code).Equal(http.StatusOK)
		gt.A(t, scans).Length(1)
		gt.V(t, scans[0].Meta.ScanID.Int64()).Equal(scanID)
		gt.V(t, scans[0].Meta.ComputerName).Equal(host)
		gt.A(t, scans[0].Runtimes).Length(1)
	})

	t.Run("unknown scan_id returns 404", func(t *testing.T) {
		srv := newTestServer()
		code := getJSON(t, srv, "/jfind?scan_id=424242", nil)
		gt.V(t, code).Equal(http.StatusNotFound)
	})

	t.Run("non-numeric scan_id returns 422", func(t *testing.T) {
		srv := newTestServer()
		code := getJSON(t, srv, "/jfind?scan_id=abc", nil)
		gt.V(t, code).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("lookup by computer_name", func(t *testing.T) {
		srv := newTestServer()
		host := testhelper.NewHost("byhost")
		postReport(t, srv, testhelper.NewReport(host, time.Now().Add(-time.Hour)))
		postReport(t, srv, testhelper.NewReport(host, time.Now()))

		var scans []model.ScanResponse
		code := getJSON(t, srv, "/jfind?computer_name="+host, &scans)
		gt.V(t, code).Equal(http.StatusOK)
		gt.A(t, scans).Length(2)
	})

	t.Run("negative limit returns 422", func(t *testing.T) {
		srv := newTestServer()
		host := testhelper.NewHost("neg")
		postReport(t, srv, testhelper.NewReport(host, time.Now()))

		gt.V(t, getJSON(t, srv, "/jfind?computer_name="+host+"&limit=-1", nil)).Equal(http.StatusUnprocessableEntity)
		gt.V(t, getJSON(t, srv, "/jfind?limit=-1", nil)).Equal(http.StatusUnprocessableEntity)
		gt.V(t, getJSON(t, srv, "/jfind/scans?limit=-1", nil)).Equal(http.StatusUnprocessableEntity)
		gt.V(t, getJSON(t, srv, "/jfind/jdk/oracle?limit=-1", nil)).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("no parameters returns fleet latest", func(t *testing.T) {
		srv := newTestServer()
		hostA := testhelper.NewHost("fleet-a")
		hostB := testhelper.NewHost("fleet-b")
		postReport(t, srv, testhelper.NewReport(hostA, time.Now()))
		postReport(t, srv, testhelper.NewReport(hostB, time.Now()))

		var scans []model.ScanResponse
		code := getJSON(t, srv, "/jfind", &scans)
		gt.V(t, code).Equal(http.StatusOK)
		gt.A(t, scans).Length(2)
	})
}

func TestHistoryEndpoint(t *testing.T) {
	srv := newTestServer()
	host := testhelper.NewHost("history")
	base := time.Now().Add(-24 * time.Hour)
	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, postReport(t, srv, testhelper.NewReport(host, base.Add(time.Duration(i)*time.Hour))))
	}

	t.Run("default limit returns only the current snapshot", func(t *testing.T) {
		var scans []model.ScanResponse
		code := getJSON(t, srv, "/jfind/scans/"+host, &scans)
		gt.V(t, code).Equal(http.StatusOK)
		gt.A(t, scans).Length(1)
		gt.V(t, scans[0].Meta.ScanID.Int64()).Equal(ids[2])
	})

	t.Run("negative limit returns full history newest first", func(t *testing.T) {
		var scans []model.ScanResponse
		code := getJSON(t, srv, "/jfind/scans/"+host+"?limit=-1", &scans)
		gt.V(t, code).Equal(http.StatusOK)
		gt.A(t, scans).Length(3)
		gt.V(t, scans[0].Meta.ScanID.Int64()).Equal(ids[2])
		gt.V(t, scans[2].Meta.ScanID.Int64()).Equal(ids[0])
	})

	t.Run("positive limit caps the history", func(t *testing.T) {
		var scans []model.ScanResponse
		code := getJSON(t, srv, "/jfind/scans/"+host+"?limit=2", &scans)
		gt.V(t, code).Equal(http.StatusOK)
		gt.A(t, scans).Length(2)
		gt.V(t, scans[0].Meta.ScanID.Int64()).Equal(ids[2])
	})

	t.Run("unknown host returns empty list", func(t *testing.T) {
		var scans []model.ScanResponse
		code := getJSON(t, srv, "/jfind/scans/"+testhelper.NewHost("nobody")+"?limit=-1", &scans)
		gt.V(t, code).Equal(http.StatusOK)
		gt.A(t, scans).Length(0)
	})
}

func TestOracleEndpoint(t *testing.T) {
	srv := newTestServer()
	host := testhelper.NewHost("oracle")
	postReport(t, srv, testhelper.NewReport(host, time.Now(),
		testhelper.OracleRuntime("/opt/oracle/jdk8/bin/java"),
		testhelper.OpenRuntime("/usr/bin/java"),
	))

	var runtimes []model.Runtime
	code := getJSON(t, srv, "/jfind/jdk/oracle", &runtimes)
	gt.V(t, code).Equal(http.StatusOK)
	gt.A(t, runtimes).Length(1)
	gt.True(t, *runtimes[0].IsOracle)
}

func TestRequireLicenseEndpoint(t *testing.T) {
	srv := newTestServer()

	check := func(t *testing.T, host string) string {
		var resp struct {
			ComputerName   string `json:"computer_name"`
			RequireLicense string `json:"require_license"`
		}
		code := getJSON(t, srv, "/jfind/require_license/"+host, &resp)
		gt.V(t, code).Equal(http.StatusOK)
		gt.V(t, resp.ComputerName).Equal(host)
		return resp.RequireLicense
	}

	t.Run("unknown host", func(t *testing.T) {
		gt.V(t, check(t, testhelper.NewHost("ghost"))).Equal("unknown")
	})

	t.Run("clean host", func(t *testing.T) {
		host := testhelper.NewHost("clean")
		postReport(t, srv, testhelper.NewReport(host, time.Now(), testhelper.OpenRuntime("/usr/bin/java")))
		gt.V(t, check(t, host)).Equal("false")
	})

	t.Run("license-requiring host", func(t *testing.T) {
		host := testhelper.NewHost("licensed")
		postReport(t, srv, testhelper.NewReport(host, time.Now(), testhelper.OracleRuntime("/opt/oracle/jdk8/bin/java")))
		gt.V(t, check(t, host)).Equal("true")
	})
}

func TestEndToEnd(t *testing.T) {
	srv := newTestServer()
	host := testhelper.NewHost("e2e")

	firstID := postReport(t, srv, testhelper.NewReport(host, time.Now().Add(-time.Hour),
		testhelper.OracleRuntime("/opt/oracle/jdk8/bin/java"),
		testhelper.OpenRuntime("/usr/bin/java"),
	))

	var scans []model.ScanResponse
	gt.V(t, getJSON(t, srv, "/jfind/scans/"+host, &scans)).Equal(http.StatusOK)
	gt.A(t, scans).Length(1)
	gt.V(t, scans[0].Meta.ScanID.Int64()).Equal(firstID)
	gt.A(t, scans[0].Runtimes).Length(2)

	secondID := postReport(t, srv, testhelper.NewReport(host, time.Now()))

	scans = nil
	gt.V(t, getJSON(t, srv, "/jfind/scans/"+host, &scans)).Equal(http.StatusOK)
	gt.A(t, scans).Length(1)
	gt.V(t, scans[0].Meta.ScanID.Int64()).Equal(secondID)

	scans = nil
	gt.V(t, getJSON(t, srv, "/jfind/scans/"+host+"?limit=-1", &scans)).Equal(http.StatusOK)
	gt.A(t, scans).Length(2)
	gt.V(t, scans[0].Meta.ScanID.Int64()).Equal(secondID)
	gt.V(t, scans[1].Meta.ScanID.Int64()).Equal(firstID)
}
