package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/jfind/pkg/domain/interfaces"
	"github.com/m-mizutani/jfind/pkg/domain/model"
	"github.com/m-mizutani/jfind/pkg/domain/types"
	"github.com/m-mizutani/jfind/pkg/repository"
	"github.com/m-mizutani/jfind/pkg/utils/errutil"
	"github.com/m-mizutani/jfind/pkg/utils/logging"
)

const defaultQueryLimit = 10

type Server struct {
	mux *chi.Mux
}

func safeWrite(w http.ResponseWriter, code int, body []byte) {
	w.WriteHeader(code)

	if _, err := w.Write(body); err != nil {
		logging.Default().Error("fail to write response", slog.Any("error", err))
	}
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logging.Default().Error("fail to marshal response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	safeWrite(w, code, body)
}

// respondError maps domain errors onto HTTP status codes: invalid input to
// 422, missing data to 404, anything else (storage loss included) to 503.
func respondError(r *http.Request, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrInvalidInput):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		errutil.HandleError(r.Context(), "request failed", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "service unavailable"})
	}
}

func queryLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, goerr.Wrap(repository.ErrInvalidInput, "limit is not an integer", goerr.V("limit", raw))
	}
	return limit, nil
}

// capLimit parses the limit for endpoints where it is a plain row cap. The
// signed history convention does not apply there, a negative value is invalid.
func capLimit(r *http.Request, fallback int) (int, error) {
	limit, err := queryLimit(r, fallback)
	if err != nil {
		return 0, err
	}
	if limit < 0 {
		return 0, goerr.Wrap(repository.ErrInvalidInput, "limit must not be negative", goerr.V("limit", limit))
	}
	return limit, nil
}

func New(uc interfaces.UseCase) *Server {
	r := chi.NewRouter()
	r.Use(preProcess)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		safeWrite(w, http.StatusOK, []byte("ok"))
	})
	r.Route("/jfind", func(r chi.Router) {
		r.Post("/", handleSubmit(uc))
		r.Get("/", handleQuery(uc))
		r.Get("/scans", handleLatestScans(uc))
		r.Get("/scans/{computerName}", handleHostHistory(uc))
		r.Get("/jdk/oracle", handleOracleRuntimes(uc))
		r.Get("/require_license/{computerName}", handleRequireLicense(uc))
	})

	return &Server{
		mux: r,
	}
}

func (x *Server) Mux() *chi.Mux {
	return x.mux
}

func handleSubmit(uc interfaces.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			respondError(r, w, goerr.Wrap(repository.ErrInvalidInput, "failed to read request body"))
			return
		}

		if err := model.ValidateReportJSON(body); err != nil {
			respondError(r, w, goerr.Wrap(repository.ErrInvalidInput, "report rejected", goerr.V("error", err)))
			return
		}

		var report model.Report
		if err := json.Unmarshal(body, &report); err != nil {
			respondError(r, w, goerr.Wrap(repository.ErrInvalidInput, "failed to decode report", goerr.V("error", err)))
			return
		}

		snapshot, err := uc.SubmitScan(r.Context(), &report)
		if err != nil {
			respondError(r, w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"result":  "ok",
			"scan_id": snapshot.ID,
		})
	}
}

// handleQuery serves the combined lookup endpoint: by scan_id, by
// computer_name, or the fleet's latest snapshots when neither is given.
func handleQuery(uc interfaces.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := capLimit(r, defaultQueryLimit)
		if err != nil {
			respondError(r, w, err)
			return
		}

		if rawID := r.URL.Query().Get("scan_id"); rawID != "" {
			scanID, err := types.ParseScanID(rawID)
			if err != nil {
				respondError(r, w, goerr.Wrap(repository.ErrInvalidInput, "scan_id is not an integer", goerr.V("scan_id", rawID)))
				return
			}

			snapshot, err := uc.GetScan(r.Context(), scanID)
			if err != nil {
				respondError(r, w, err)
				return
			}
			respondJSON(w, http.StatusOK, []model.ScanResponse{snapshot.View()})
			return
		}

		var scans []*model.ScanSnapshot
		if host := r.URL.Query().Get("computer_name"); host != "" {
			scans, err = uc.ListScansByHost(r.Context(), host, types.MostRecent(limit))
		} else {
			scans, err = uc.ListLatestScans(r.Context(), limit)
		}
		if err != nil {
			respondError(r, w, err)
			return
		}

		respondJSON(w, http.StatusOK, scanViews(scans))
	}
}

func handleLatestScans(uc interfaces.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := capLimit(r, defaultQueryLimit)
		if err != nil {
			respondError(r, w, err)
			return
		}

		scans, err := uc.ListLatestScans(r.Context(), limit)
		if err != nil {
			respondError(r, w, err)
			return
		}

		metas := []model.ScanMeta{}
		for _, s := range scans {
			metas = append(metas, s.MetaView())
		}
		respondJSON(w, http.StatusOK, metas)
	}
}

// handleHostHistory keeps the agent-facing signed limit convention: negative
// for full history, zero for the current snapshot only, positive for the N
// most recent.
func handleHostHistory(uc interfaces.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := chi.URLParam(r, "computerName")
		limit, err := queryLimit(r, 0)
		if err != nil {
			respondError(r, w, err)
			return
		}

		scans, err := uc.ListScansByHost(r.Context(), host, types.HistoryFromLimit(limit))
		if err != nil {
			respondError(r, w, err)
			return
		}

		respondJSON(w, http.StatusOK, scanViews(scans))
	}
}

func handleOracleRuntimes(uc interfaces.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := capLimit(r, defaultQueryLimit)
		if err != nil {
			respondError(r, w, err)
			return
		}

		runtimes, err := uc.ListOracleRuntimes(r.Context(), limit)
		if err != nil {
			respondError(r, w, err)
			return
		}

		views := []model.Runtime{}
		for _, rt := range runtimes {
			views = append(views, rt.View())
		}
		respondJSON(w, http.StatusOK, views)
	}
}

func handleRequireLicense(uc interfaces.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := chi.URLParam(r, "computerName")

		status, err := uc.CheckLicense(r.Context(), host)
		if err != nil {
			respondError(r, w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{
			"computer_name":   host,
			"require_license": status.String(),
		})
	}
}

func scanViews(scans []*model.ScanSnapshot) []model.ScanResponse {
	views := []model.ScanResponse{}
	for _, s := range scans {
		views = append(views, s.View())
	}
	return views
}
