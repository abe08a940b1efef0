package s3

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignedUploadIsSignedLocally(t *testing.T) {
	p, err := NewPresigner(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "listing-images",
		Region:    "us-east-1",
		Expiry:    5 * time.Minute,
	}, nil)
	require.NoError(t, err)

	up, err := p.RequestUploadAuthorization(context.Background(), "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.Key, "listings/"))
	assert.True(t, strings.HasSuffix(up.Key, ".jpg"))
	assert.Equal(t, "http://localhost:9000/listing-images/"+up.Key, up.FileURL)

	u, err := url.Parse(up.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "/listing-images/"+up.Key, u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))

	key, ok := KeyFromURL(up.FileURL, "listing-images")
	assert.True(t, ok)
	assert.Equal(t, up.Key, key)
}

func TestObjectKeyUnknownType(t *testing.T) {
	assert.True(t, strings.HasSuffix(ObjectKey("application/x-unknown-thing"), ".bin"))
	assert.True(t, strings.HasSuffix(ObjectKey("image/png"), ".png"))
}
