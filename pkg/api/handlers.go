package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ssargent/geoimg/pkg/record"
)

// Server holds the API server state
type Server struct {
	store   record.Store
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server around an already opened store
func NewServer(store record.Store, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// handleHealth reports whether the server has a store to talk to
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.metrics.RecordHealthCheck(false)
		sendJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	s.metrics.RecordHealthCheck(true)
	sendJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// handleUpload stores an image and its coordinates.
//
//	POST /upload {"pngBlob": "<base64>", "latitude": 43.47, "longitude": -80.54}
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	}

	req, err := decodeUploadRequest(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := req.Record()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	id, err := s.store.Insert(r.Context(), rec)
	s.metrics.RecordStoreOperation("insert", err == nil, time.Since(start))
	if err != nil {
		s.writeError(w, r, &StoreError{Op: "insert", Err: err})
		return
	}
	s.metrics.RecordImageSize(len(rec.ImageData))

	s.logger.DebugContext(r.Context(), "image stored",
		"id", id.String(),
		"bytes", len(rec.ImageData),
		"request_id", middleware.GetReqID(r.Context()),
	)
	sendJSON(w, http.StatusCreated, UploadResponse{Message: UploadMessage, ID: id.String()})
}

// handleGetImage returns a stored image and its coordinates.
//
//	GET /image/{id}
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := record.ParseID(raw)
	if err != nil {
		s.writeError(w, r, &InvalidIdentifierError{Value: raw, Err: err})
		return
	}

	start := time.Now()
	rec, err := s.store.FindByID(r.Context(), id)
	// a miss is a successful lookup
	s.metrics.RecordStoreOperation("find", err == nil || errors.Is(err, record.ErrNotFound), time.Since(start))
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, &StoreError{Op: "find", Err: err})
		return
	}

	sendJSON(w, http.StatusOK, ImageResponse{
		PNGBlob:   base64.StdEncoding.EncodeToString(rec.ImageData),
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
	})
}

// decodeUploadRequest reads exactly one JSON object from body. Anything but
// whitespace after it makes the body invalid.
func decodeUploadRequest(body io.Reader) (*UploadRequest, error) {
	dec := json.NewDecoder(body)

	var req UploadRequest
	if err := dec.Decode(&req); err != nil {
		return nil, bodyError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errInvalidJSON
		}
		return nil, bodyError(err)
	}
	return &req, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errBodyTooLarge
	}
	return errInvalidJSON
}

// Record validates the request and decodes the image payload
func (req *UploadRequest) Record() (*record.Record, error) {
	var missing []string
	if req.PNGBlob == nil || *req.PNGBlob == "" {
		missing = append(missing, "pngBlob")
	}
	if req.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if req.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if len(missing) > 0 {
		return nil, &MissingFieldError{Fields: missing}
	}

	data, err := base64.StdEncoding.DecodeString(*req.PNGBlob)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return &record.Record{
		ImageData: data,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	}, nil
}

// writeError logs err and sends the matching status and message
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classifyError(err)

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", attrs...)
	}

	sendError(w, message, status)
}
