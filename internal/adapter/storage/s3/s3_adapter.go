package s3

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	Expiry    time.Duration
}

// Presigner authorizes uploads straight into an S3-compatible bucket. It is
// the upload authorizer for self-hosted deployments without a /presign API.
type Presigner struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger *logger.Logger
}

var _ domain.UploadAuthorizer = (*Presigner)(nil)

// NewPresigner does not contact the server; with Region set, signing is local.
func NewPresigner(cfg Config, log *logger.Logger) (*Presigner, error) {
	if log == nil {
		log = logger.NewNop()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	log.Info("Presigner: initialized", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket, "use_ssl", cfg.UseSSL)
	return &Presigner{client: client, bucket: cfg.Bucket, expiry: expiry, logger: log}, nil
}

// EnsureBucket creates the bucket when missing.
func (p *Presigner) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket %s: %w", p.bucket, err)
	}
	p.logger.Info("Presigner.EnsureBucket: bucket created", "bucket", p.bucket)
	return nil
}

func (p *Presigner) RequestUploadAuthorization(ctx context.Context, contentType string) (*domain.PresignedUpload, error) {
	key := ObjectKey(contentType)
	uploadURL, err := p.client.PresignedPutObject(ctx, p.bucket, key, p.expiry)
	if err != nil {
		p.logger.Error("Presigner.RequestUploadAuthorization: presign failed", "bucket", p.bucket, "key", key, "error", err)
		return nil, fmt.Errorf("presign %s/%s: %w", p.bucket, key, err)
	}
	fileURL := fmt.Sprintf("%s/%s/%s", p.client.EndpointURL().String(), p.bucket, key)
	return &domain.PresignedUpload{UploadURL: uploadURL.String(), FileURL: fileURL, Key: key}, nil
}

// ObjectKey names a new object: listings/<uuid><ext>.
func ObjectKey(contentType string) string {
	ext := ".bin"
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = preferredExt(exts)
	}
	return "listings/" + uuid.NewString() + ext
}

func preferredExt(exts []string) string {
	for _, e := range exts {
		if e == ".jpg" || e == ".png" || e == ".webp" || e == ".heic" {
			return e
		}
	}
	return exts[0]
}

// KeyFromURL recovers the object key from a file URL built by this package.
func KeyFromURL(fileURL, bucket string) (string, bool) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", false
	}
	prefix := "/" + bucket + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	return strings.TrimPrefix(u.Path, prefix), true
}
