package devserver

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/subleasefinder/sublease-client/internal/adapter/storage/s3"
	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

const uploadsPrefix = "/uploads/"

type blob struct {
	contentType string
	data        []byte
}

// LocalBlobs stands in for object storage: presigned URLs point back at
// the devserver's own /uploads route.
type LocalBlobs struct {
	baseURL  string
	maxBytes int64

	mu      sync.RWMutex
	objects map[string]blob
}

func NewLocalBlobs(baseURL string, maxBytes int64) *LocalBlobs {
	return &LocalBlobs{
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		objects:  make(map[string]blob),
	}
}

// authorize issues a destination under base, or under the configured
// public URL when one was given.
func (b *LocalBlobs) authorize(base, contentType string) *domain.PresignedUpload {
	if b.baseURL != "" {
		base = b.baseURL
	}
	key := s3.ObjectKey(contentType)
	url := base + uploadsPrefix + key
	return &domain.PresignedUpload{UploadURL: url, FileURL: url, Key: key}
}

// RequestUploadAuthorization needs a public URL; the handler otherwise
// derives one from the request.
func (b *LocalBlobs) RequestUploadAuthorization(_ context.Context, contentType string) (*domain.PresignedUpload, error) {
	return b.authorize(b.baseURL, contentType), nil
}

func (b *LocalBlobs) Get(key string) ([]byte, string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	return obj.data, obj.contentType, ok
}

func (b *LocalBlobs) handlePut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeMessage(w, http.StatusBadRequest, "object key is required")
		return
	}
	body := io.Reader(r.Body)
	if b.maxBytes > 0 {
		body = io.LimitReader(r.Body, b.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if b.maxBytes > 0 && int64(len(data)) > b.maxBytes {
		writeMessage(w, http.StatusRequestEntityTooLarge, "object exceeds "+strconv.FormatInt(b.maxBytes, 10)+" bytes")
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	b.mu.Lock()
	b.objects[key] = blob{contentType: contentType, data: data}
	b.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (b *LocalBlobs) handleGet(w http.ResponseWriter, r *http.Request) {
	data, contentType, ok := b.Get(chi.URLParam(r, "*"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "object not found")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
