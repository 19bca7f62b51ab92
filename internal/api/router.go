// Package api serves flowchart recognition over HTTP.
//
// Each POST /recognize creates a job directory named by a UUID. The upload
// is stored there as input.<ext> and every artifact of the run is written
// next to it, so a job can be fetched again until its directory is removed.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/ironsheep/flowchart-recognizer/internal/config"
	"github.com/ironsheep/flowchart-recognizer/internal/graph"
	"github.com/ironsheep/flowchart-recognizer/internal/log"
	"github.com/ironsheep/flowchart-recognizer/internal/ocr"
	"github.com/ironsheep/flowchart-recognizer/internal/pipeline"
)

// RequestTimeout bounds a single request, recognition included.
const RequestTimeout = 2 * time.Minute

var uploadExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

type handler struct {
	cfg    *config.Config
	engine ocr.Engine
	jobs   *JobStore
}

// NewRouter returns the HTTP API. engine reads labels; a nil engine
// disables OCR.
func NewRouter(cfg *config.Config, engine ocr.Engine, jobs *JobStore) http.Handler {
	h := &handler{cfg: cfg, engine: engine, jobs: jobs}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	}).Handler)

	r.Get("/health", h.health)
	r.Post("/recognize", h.recognize)
	r.Get("/jobs/{id}/data", h.jobData)
	r.Get("/jobs/{id}/overlay", h.jobOverlay)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Infof("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(),
			time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	out := map[string]any{"status": "ok"}
	if t, ok := h.engine.(*ocr.Tesseract); ok {
		out["ocr"] = t.Info()
	}
	writeJSON(w, http.StatusOK, out)
}

type recognizeResponse struct {
	JobID     string            `json:"job_id"`
	Graph     *graph.Graph      `json:"graph"`
	Artifacts map[string]string `json:"artifacts"`
}

func (h *handler) recognize(w http.ResponseWriter, r *http.Request) {
	limit := int64(h.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("upload exceeds %s", humanize.IBytes(uint64(limit))))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("file is required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !isUploadExtension(ext) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported file type %q", ext))
		return
	}

	var params [3]int
	for i, name := range []string{"padding", "offset", "arrow"} {
		v := r.FormValue(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%s must be a positive integer", name))
			return
		}
		params[i] = n
	}

	id, dir, err := h.jobs.Create()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	input := filepath.Join(dir, "input"+ext)
	if err := saveUpload(input, file); err != nil {
		h.discard(id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	log.Debugf("job %s: stored %s (%s)", id, header.Filename, humanize.Bytes(uint64(header.Size)))

	cfg := h.cfg.WithParams(params[0], params[1], params[2])
	cfg.Output.Dir = dir
	p, err := pipeline.New(cfg, h.engine)
	if err != nil {
		h.discard(id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	res, err := p.Run(r.Context(), input)
	if err != nil {
		h.discard(id)
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrInputNotFound) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, recognizeResponse{
		JobID: id,
		Graph: res.Graph,
		Artifacts: map[string]string{
			"data":    "/jobs/" + id + "/data",
			"overlay": "/jobs/" + id + "/overlay",
		},
	})
}

// discard removes a job that failed before producing its artifacts.
func (h *handler) discard(id string) {
	if err := h.jobs.Remove(id); err != nil {
		log.Warnf("job %s: failed to remove: %v", id, err)
	}
}

func isUploadExtension(ext string) bool {
	for _, e := range uploadExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to store upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to store upload: %w", err)
	}
	return dst.Close()
}

func (h *handler) jobData(w http.ResponseWriter, r *http.Request) {
	dir, err := h.jobs.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	h.serveArtifact(w, r, filepath.Join(dir, h.cfg.Output.Data), "application/json")
}

func (h *handler) jobOverlay(w http.ResponseWriter, r *http.Request) {
	dir, err := h.jobs.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "input"+h.cfg.Output.Suffix+".*"))
	if len(matches) == 0 {
		writeError(w, http.StatusNotFound, errors.New("overlay not found"))
		return
	}
	h.serveArtifact(w, r, matches[0], "")
}

func (h *handler) serveArtifact(w http.ResponseWriter, r *http.Request, path, contentType string) {
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("%s not found", filepath.Base(path)))
		return
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	http.ServeFile(w, r, path)
}
