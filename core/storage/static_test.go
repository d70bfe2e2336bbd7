package storage_test

import (
	"context"
	"net/url"
	"testing"

	"mediavault/core/storage"
	"mediavault/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStaticBackend_AlwaysPublic(t *testing.T) {
	cfg := testResolved(t, nil)
	require.False(t, cfg.IsPublic(cfg.StaticBucket), "static bucket is not declared public by default")

	client := new(mocks.Client)
	endpoint, _ := url.Parse("http://minio.local:9000")
	client.On("EndpointURL").Return(endpoint)

	b, err := storage.NewStaticBackendWithClients(cfg, client, client, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, storage.DefaultStaticBucket, b.Bucket())
	assert.True(t, b.IsPublic())

	u, err := b.URL(context.Background(), "css/site.css")
	require.NoError(t, err)
	assert.Equal(t, "http://minio.local:9000/"+storage.DefaultStaticBucket+"/css/site.css", u)
	assert.NotContains(t, u, "?")

	// The caller's configuration must stay untouched.
	assert.False(t, cfg.IsPublic(cfg.StaticBucket))
}

func TestStaticBackend_CustomBucketName(t *testing.T) {
	cfg := testResolved(t, func(c *storage.Config) { c.StaticBucket = "site-static" })
	client := new(mocks.Client)

	b, err := storage.NewStaticBackendWithClients(cfg, client, client, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "site-static", b.Bucket())
	assert.True(t, b.IsPublic())
}
