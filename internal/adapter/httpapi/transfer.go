package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
)

// Transfer PUTs raw bytes to presigned object-storage URLs. It never sends
// the API bearer token and never retries.
type Transfer struct {
	httpClient *http.Client
	logger     *logger.Logger
}

var _ domain.ObjectTransfer = (*Transfer)(nil)

func NewTransfer(hc *http.Client, log *logger.Logger) *Transfer {
	if hc == nil {
		hc = NewHTTPClient(2 * DefaultTimeout)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Transfer{httpClient: hc, logger: log}
}

func (t *Transfer) Put(ctx context.Context, uploadURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUploadFailed, classifyTransport(err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.logger.Warn("Transfer.Put: storage rejected upload", "status", resp.StatusCode, "size_bytes", len(data))
		return fmt.Errorf("%w: storage returned status %d", domain.ErrUploadFailed, resp.StatusCode)
	}
	return nil
}
