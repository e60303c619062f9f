package httpapi

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driving"
)

type queryRequest struct {
	Question   string `json:"question"`
	FileFilter string `json:"file_filter"`
	Debug      bool   `json:"debug"`
	NoCache    bool   `json:"no_cache"`
}

type queryResponse struct {
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
	Prompt  string          `json:"prompt,omitempty"`
	Cached  bool            `json:"cached"`
	TookMS  int64           `json:"took_ms"`
}

type vectorSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type tableSearchRequest struct {
	FileFilter string `json:"file_filter"`
	Limit      int    `json:"limit"`
}

// healthPingTimeout bounds each backend probe so one hung dependency
// cannot stall the whole health check.
const healthPingTimeout = 2 * time.Second

func (s *Server) handleHealth(c echo.Context) error {
	status := "ok"
	backends := make(map[string]string, len(s.pingers))
	for name, ping := range s.pingers {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
		err := ping(ctx)
		cancel()
		if err != nil {
			backends[name] = err.Error()
			status = "degraded"
		} else {
			backends[name] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]any{"status": status, "backends": backends})
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	answer, err := s.query.Ask(c.Request().Context(), req.Question, driving.AskOptions{
		FileFilter:  req.FileFilter,
		Debug:       req.Debug,
		BypassCache: req.NoCache,
	})
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, queryResponse{
		Answer:  answer.Text,
		Sources: answer.Sources,
		Prompt:  answer.Prompt,
		Cached:  answer.Cached,
		TookMS:  answer.Took.Milliseconds(),
	})
}

func (s *Server) handleVectorSearch(c echo.Context) error {
	var req vectorSearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	hits, err := s.query.SearchVectors(c.Request().Context(), req.Query, clampLimit(req.Limit))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"results": hits})
}

func (s *Server) handleTableSearch(c echo.Context) error {
	var req tableSearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	tables, err := s.query.SearchTables(c.Request().Context(), req.FileFilter, clampLimit(req.Limit))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"results": tables})
}

func (s *Server) handleListDocuments(c echo.Context) error {
	docs, err := s.ingest.ListDocuments(c.Request().Context())
	if err != nil {
		return jsonError(c, err)
	}
	if docs == nil {
		docs = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleUploadDocument(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
	}

	strategy := domain.Strategy(c.FormValue("strategy"))
	if strategy == "" {
		strategy = domain.StrategyAuto
	}
	if !strategy.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown strategy: " + string(strategy)})
	}

	// The uploaded file keeps its original base name so the ingest result
	// and stored records carry the name the client knows.
	path, cleanup, err := saveUpload(fh)
	if err != nil {
		return jsonError(c, err)
	}
	defer cleanup()

	result, err := s.ingest.IngestFile(c.Request().Context(), path, strategy)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	name := c.Param("filename")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	if err := s.ingest.DeleteDocument(c.Request().Context(), name); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"deleted": name})
}

func (s *Server) handleClearDocuments(c echo.Context) error {
	if err := s.ingest.ClearAll(c.Request().Context()); err != nil {
		return jsonError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCacheStats(c echo.Context) error {
	stats := s.query.CacheStats(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]any{
		"backend":     stats.Backend,
		"available":   stats.Available,
		"entries":     stats.Entries,
		"max_entries": stats.MaxEntries,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"hit_rate":    stats.HitRate(),
	})
}

func (s *Server) handleCacheClear(c echo.Context) error {
	if err := s.query.ClearCache(c.Request().Context()); err != nil {
		return jsonError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// saveUpload writes a multipart file into a fresh temp directory, keeping
// the client's base name. The returned cleanup removes the directory.
func saveUpload(fh *multipart.FileHeader) (string, func(), error) {
	src, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	dir, err := os.MkdirTemp("", "tableqa-upload-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(fh.Filename))
	dst, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

func jsonError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotPDF):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrFileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBackendUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrVectorIndexUnavailable),
		errors.Is(err, domain.ErrTableStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
