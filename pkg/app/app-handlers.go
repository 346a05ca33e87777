package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sgaunet/s3grab/pkg/catalog"
	"github.com/sgaunet/s3grab/pkg/downloader"
	"github.com/sgaunet/s3grab/pkg/dto"
)

var (
	// ErrInvalidPrefix is returned when a prefix is neither empty nor ends with "/".
	ErrInvalidPrefix = errors.New("prefix must be empty or end with '/'")
	// ErrMissingBucket is returned when a download request names no bucket.
	ErrMissingBucket = errors.New("bucket is missing")
	// ErrEmptySelection is returned when a download request selects nothing.
	ErrEmptySelection = errors.New("no item selected")
	// ErrNoJob is returned when no download was ever started.
	ErrNoJob = errors.New("no download job")
	// ErrInvalidPage is returned when page or pageSize is not a positive integer.
	ErrInvalidPage = errors.New("page and pageSize must be positive integers")
)

type errorResponse struct {
	Error string `json:"error"`
}

type bucketsResponse struct {
	Buckets []dto.Bucket `json:"buckets"`
}

type entriesResponse struct {
	Bucket  string          `json:"bucket"`
	Prefix  string          `json:"prefix"`
	Folders []catalog.Entry `json:"folders"`
	Files   []catalog.Entry `json:"files"`
	Page    dto.PageInfo    `json:"page"`
	Error   string          `json:"error,omitempty"`
}

// DownloadRequest is the body of POST /api/downloads. A trailing "/"
// selects a whole folder.
type DownloadRequest struct {
	Bucket      string   `json:"bucket"`
	Items       []string `json:"items"`
	Destination string   `json:"destination"`
}

// BucketsHandler lists the buckets of the account.
func (s *App) BucketsHandler(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.store.ListBuckets(r.Context())
	if err != nil {
		s.log.Error("Error listing buckets", slog.String("error", err.Error()))
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	if buckets == nil {
		buckets = []dto.Bucket{}
	}
	s.writeJSON(w, http.StatusOK, bucketsResponse{Buckets: buckets})
}

// EntriesHandler lists the direct folders and files of a prefix,
// optionally filtered by name. With pageSize set, folders and files are
// paged as one list, folders first.
func (s *App) EntriesHandler(w http.ResponseWriter, r *http.Request) {
	bucket := mux.Vars(r)["bucket"]
	query := r.URL.Query()
	prefix := query.Get("prefix")
	search := query.Get("search")

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidPrefix.Error()})
		return
	}
	page, err := queryInt(query.Get("page"), 1)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidPage.Error()})
		return
	}
	pageSize, err := queryInt(query.Get("pageSize"), 0)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidPage.Error()})
		return
	}

	folders, files, err := s.lister.ListChildren(r.Context(), bucket, prefix)
	folders = catalog.Filter(folders, search)
	files = catalog.Filter(files, search)
	info := dto.NewPageInfo(len(folders)+len(files), pageSize, page)
	start, end := info.Bounds()
	n := len(folders)

	resp := entriesResponse{
		Bucket:  bucket,
		Prefix:  prefix,
		Folders: folders[min(start, n):min(end, n)],
		Files:   files[max(start-n, 0):max(end-n, 0)],
		Page:    info,
	}
	if err != nil {
		resp.Error = err.Error()
		s.writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// queryInt parses a positive integer parameter, def when absent.
func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, ErrInvalidPage
	}
	return n, nil
}

// StartDownloadHandler expands the selection and starts the job.
func (s *App) StartDownloadHandler(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid body: %s", err)})
		return
	}
	sel := downloader.ParseItems(req.Items)
	switch {
	case req.Bucket == "":
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrMissingBucket.Error()})
		return
	case len(sel) == 0:
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrEmptySelection.Error()})
		return
	}

	job, err := s.runner.Start(s.jobsCtx, req.Bucket, sel, req.Destination)
	switch {
	case errors.Is(err, downloader.ErrJobInFlight):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, downloader.ErrNoDestination):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case err != nil:
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusAccepted, job.Snapshot())
}

// CurrentDownloadHandler returns the running or last finished job.
func (s *App) CurrentDownloadHandler(w http.ResponseWriter, _ *http.Request) {
	job := s.runner.Current()
	if job == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrNoJob.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, job.Snapshot())
}

// CancelDownloadHandler asks the current job to stop at the next file.
func (s *App) CancelDownloadHandler(w http.ResponseWriter, _ *http.Request) {
	job := s.runner.Current()
	if job == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrNoJob.Error()})
		return
	}
	job.Cancel()
	s.log.Info("Cancel requested", slog.String("job", job.ID()))
	s.writeJSON(w, http.StatusAccepted, job.Snapshot())
}

// HealthCheckHandler reports store connectivity.
func (s *App) HealthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	info := s.health.GetHealthInfo()
	statusCode := http.StatusOK
	if !info.IsConnected {
		statusCode = http.StatusServiceUnavailable
	}
	s.writeJSON(w, statusCode, map[string]any{
		"overall": info.Status,
		"store":   info,
	})
}

func (s *App) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}
