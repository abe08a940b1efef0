package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/subleasefinder/sublease-client/internal/adapter/httpapi"
	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
	"github.com/subleasefinder/sublease-client/internal/platform/metrics"
)

type Options struct {
	Service   *ListingService
	JWTSecret string
	// Presigner issues upload URLs. Nil serves uploads from Blobs.
	Presigner domain.UploadAuthorizer
	Blobs     *LocalBlobs
	Logger    *logger.Logger
	Metrics   *metrics.MetricsManager
}

// Server implements the listings HTTP API for local development and tests.
type Server struct {
	service   *ListingService
	secret    []byte
	presigner domain.UploadAuthorizer
	blobs     *LocalBlobs
	logger    *logger.Logger
	metrics   *metrics.MetricsManager
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	blobs := opts.Blobs
	if blobs == nil {
		blobs = NewLocalBlobs("", int64(domain.DefaultDraftLimits.MaxImageSize))
	}
	return &Server{
		service:   opts.Service,
		secret:    []byte(opts.JWTSecret),
		presigner: opts.Presigner,
		blobs:     blobs,
		logger:    log,
		metrics:   opts.Metrics,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.logger, s.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Get("/listings", s.handleSearch)
	r.Group(func(r chi.Router) {
		r.Use(authenticate(s.secret, s.logger))
		r.Post("/listings", s.handleCreate)
		r.Put("/listings/{id}", s.handleUpdate)
		r.Post("/favorites/{id}", s.handleFavorite)
		r.Get("/presign", s.handlePresign)
	})
	r.Put(uploadsPrefix+"*", s.blobs.handlePut)
	r.Get(uploadsPrefix+"*", s.blobs.handleGet)

	return otelhttp.NewHandler(r, "devserver")
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := httpapi.DecodeQuery(r.URL.Query())
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.service.Search(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var req domain.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	listing, err := s.service.Create(r.Context(), claims, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var req domain.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	listing, err := s.service.Update(r.Context(), claims.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	res, err := s.service.ToggleFavorite(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePresign(w http.ResponseWriter, r *http.Request) {
	contentType := r.URL.Query().Get("contentType")
	if contentType == "" {
		contentType = domain.DefaultImageContentType
	}
	if !strings.HasPrefix(contentType, "image/") {
		writeMessage(w, http.StatusUnprocessableEntity, "contentType must be an image type")
		return
	}

	if s.presigner == nil {
		writeJSON(w, http.StatusOK, s.blobs.authorize(requestBaseURL(r), contentType))
		return
	}
	up, err := s.presigner.RequestUploadAuthorization(r.Context(), contentType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDraft), errors.Is(err, domain.ErrInvalidListingData):
		writeMessage(w, http.StatusUnprocessableEntity, validationMessage(err))
	case errors.Is(err, domain.ErrListingNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	default:
		s.logger.Error("Server: request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// validationMessage drops the sentinel prefix so the client shows only
// the field problem.
func validationMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrInvalidDraft, domain.ErrInvalidListingData} {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
