package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
	"github.com/subleasefinder/sublease-client/internal/platform/metrics"
)

// UploadCoordinator gets image bytes into object storage before a listing
// is created.
type UploadCoordinator struct {
	authorizer domain.UploadAuthorizer
	transfer   domain.ObjectTransfer
	events     domain.EventPublisher
	logger     *logger.Logger
	metrics    *metrics.MetricsManager
}

func NewUploadCoordinator(authorizer domain.UploadAuthorizer, transfer domain.ObjectTransfer, log *logger.Logger, m *metrics.MetricsManager, events domain.EventPublisher) *UploadCoordinator {
	if log == nil {
		log = logger.NewNop()
	}
	return &UploadCoordinator{authorizer: authorizer, transfer: transfer, events: events, logger: log, metrics: m}
}

// UploadOne authorizes and transfers one file and returns its public URL.
func (u *UploadCoordinator) UploadOne(ctx context.Context, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = domain.DefaultImageContentType
	}
	ctx, span := tracer.Start(ctx, "UploadCoordinator.UploadOne")
	defer span.End()

	dest, err := u.authorizer.RequestUploadAuthorization(ctx, contentType)
	if err != nil {
		u.metrics.Upload(false)
		return "", fmt.Errorf("authorize upload: %w", err)
	}
	if err := u.transfer.Put(ctx, dest.UploadURL, contentType, data); err != nil {
		u.metrics.Upload(false)
		u.logger.Error("UploadCoordinator.UploadOne: transfer failed", "key", dest.Key, "error", err)
		return "", err
	}
	u.metrics.Upload(true)
	u.logger.Debug("UploadCoordinator.UploadOne: uploaded", "key", dest.Key, "size_bytes", len(data))
	if u.events != nil {
		event := domain.AnalyticsEvent{Name: domain.EventImageUpload, OccurredAt: time.Now(), Properties: map[string]interface{}{"key": dest.Key, "bytes": len(data)}}
		if err := u.events.Publish(ctx, domain.EventImageUpload, event); err != nil {
			u.logger.Warn("UploadCoordinator.UploadOne: failed to publish event", "error", err)
		}
	}
	return dest.FileURL, nil
}

// UploadMany uploads every item concurrently. The result is all-or-nothing
// and URLs come back in input order. Files already transferred when another
// fails are not removed.
func (u *UploadCoordinator) UploadMany(ctx context.Context, items []domain.ImageUpload) ([]string, error) {
	urls := make([]string, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			url, err := u.UploadOne(gctx, item.Data, item.ContentType)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
