package storage

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minioNotFoundErr() error {
	return minio.ErrorResponse{
		Code:       "NoSuchKey",
		Message:    "The specified key does not exist.",
		StatusCode: http.StatusNotFound,
	}
}

func minioAccessDeniedErr() error {
	return minio.ErrorResponse{
		Code:       "AccessDenied",
		Message:    "Access Denied.",
		StatusCode: http.StatusForbidden,
	}
}

func baseConfig() Config {
	return Config{
		Endpoint:       "minio.local:9000",
		AccessKey:      "test-access",
		SecretKey:      "test-secret",
		PrivateBuckets: []string{"docs"},
		PublicBuckets:  []string{"images"},
	}
}

func TestResolve_Defaults(t *testing.T) {
	r, err := baseConfig().Resolve()
	require.NoError(t, err)

	assert.Equal(t, DefaultMediaBucket, r.DefaultBucket)
	assert.Equal(t, DefaultStaticBucket, r.StaticBucket)
	assert.Equal(t, 7*24*time.Hour, r.URLExpiry)

	// The default bucket is adopted into the private set.
	assert.True(t, r.IsDeclared(DefaultMediaBucket))
	assert.False(t, r.IsPublic(DefaultMediaBucket))
}

func TestResolve_MultipartTuningClamped(t *testing.T) {
	t.Run("ZeroValues", func(t *testing.T) {
		cfg := baseConfig()
		cfg.MultipartThreshold = 0
		cfg.MultipartPartSize = 0

		r, err := cfg.Resolve()
		require.NoError(t, err)
		assert.Equal(t, int64(defaultMultipartBytes), r.MultipartThreshold)
		assert.Equal(t, uint64(defaultMultipartBytes), r.MultipartPartSize)
	})

	t.Run("NegativeThreshold", func(t *testing.T) {
		cfg := baseConfig()
		cfg.MultipartThreshold = -1

		r, err := cfg.Resolve()
		require.NoError(t, err)
		assert.Equal(t, int64(defaultMultipartBytes), r.MultipartThreshold)
	})

	t.Run("PartSizeBelowStoreMinimum", func(t *testing.T) {
		cfg := baseConfig()
		cfg.MultipartPartSize = 1024 * 1024

		r, err := cfg.Resolve()
		require.NoError(t, err)
		assert.Equal(t, uint64(defaultMultipartBytes), r.MultipartPartSize)
	})

	t.Run("ValidValuesKept", func(t *testing.T) {
		cfg := baseConfig()
		cfg.MultipartThreshold = 64 * 1024 * 1024
		cfg.MultipartPartSize = 16 * 1024 * 1024

		r, err := cfg.Resolve()
		require.NoError(t, err)
		assert.Equal(t, int64(64*1024*1024), r.MultipartThreshold)
		assert.Equal(t, uint64(16*1024*1024), r.MultipartPartSize)
	})
}

func TestResolve_MissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"NoEndpoint", func(c *Config) { c.Endpoint = "" }},
		{"NoAccessKey", func(c *Config) { c.AccessKey = "" }},
		{"NoSecretKey", func(c *Config) { c.SecretKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			_, err := cfg.Resolve()

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestResolve_MixedVisibility(t *testing.T) {
	cfg := baseConfig()
	cfg.PrivateBuckets = []string{"images", "assets", "docs"}
	cfg.PublicBuckets = []string{"images", "assets"}

	_, err := cfg.Resolve()

	var mixedErr *PrivatePublicMixedError
	require.ErrorAs(t, err, &mixedErr)
	assert.Equal(t, []string{"assets", "images"}, mixedErr.Buckets)
}

func TestResolve_NoBucketsDeclared(t *testing.T) {
	cfg := baseConfig()
	cfg.PrivateBuckets = nil
	cfg.PublicBuckets = nil

	_, err := cfg.Resolve()

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestResolve_ExternalEndpoint(t *testing.T) {
	t.Run("RequiresSSLFlag", func(t *testing.T) {
		cfg := baseConfig()
		cfg.ExternalEndpoint = "cdn.example.com"

		_, err := cfg.Resolve()
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("SSLFlagWithoutEndpoint", func(t *testing.T) {
		cfg := baseConfig()
		cfg.ExternalUseSSL = "true"

		_, err := cfg.Resolve()
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("InvalidSSLFlag", func(t *testing.T) {
		cfg := baseConfig()
		cfg.ExternalEndpoint = "cdn.example.com"
		cfg.ExternalUseSSL = "maybe"

		_, err := cfg.Resolve()
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("Valid", func(t *testing.T) {
		cfg := baseConfig()
		cfg.ExternalEndpoint = "cdn.example.com"
		cfg.ExternalUseSSL = "true"

		r, err := cfg.Resolve()
		require.NoError(t, err)
		assert.True(t, r.ExternalSSL)
		assert.False(t, r.SameEndpoints())
		assert.Equal(t, "http://minio.local:9000", r.BaseURL())
		assert.Equal(t, "https://cdn.example.com", r.ExternalBaseURL())
	})

	t.Run("SameHostIsNotExternal", func(t *testing.T) {
		cfg := baseConfig()
		cfg.ExternalEndpoint = cfg.Endpoint

		r, err := cfg.Resolve()
		require.NoError(t, err)
		assert.True(t, r.SameEndpoints())
		assert.Equal(t, r.BaseURL(), r.ExternalBaseURL())
	})
}

func TestResolved_Buckets(t *testing.T) {
	cfg := baseConfig()
	cfg.PrivateBuckets = []string{"zeta", "docs"}
	cfg.PublicBuckets = []string{"images"}
	cfg.DefaultBucket = "docs"

	r, err := cfg.Resolve()
	require.NoError(t, err)

	assert.Equal(t, []string{"docs", "images", "zeta"}, r.Buckets())
	assert.Equal(t, []string{"images"}, r.PublicBucketNames())
	assert.True(t, r.IsPublic("images"))
	assert.False(t, r.IsPublic("docs"))
	assert.False(t, r.IsDeclared("unknown"))
}

func TestResolved_WithBucketPublic(t *testing.T) {
	r, err := baseConfig().Resolve()
	require.NoError(t, err)
	require.False(t, r.IsPublic(r.StaticBucket))

	forced := r.withBucketPublic(r.StaticBucket)
	assert.True(t, forced.IsPublic(r.StaticBucket))
	assert.True(t, forced.IsPublic("images"), "existing public buckets survive")

	// The receiver must stay untouched.
	assert.False(t, r.IsPublic(r.StaticBucket))
}

func TestResolved_WithBucketPublic_MovesPrivate(t *testing.T) {
	r, err := baseConfig().Resolve()
	require.NoError(t, err)

	forced := r.withBucketPublic("docs")
	assert.True(t, forced.IsPublic("docs"))
	assert.True(t, forced.IsDeclared("docs"))
	assert.False(t, r.IsPublic("docs"))
}

func TestTranslateError(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil, "docs", "a.txt"))
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		err := translateError(minioNotFoundErr(), "docs", "a.txt")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "docs/a.txt")
	})

	t.Run("OtherS3Code", func(t *testing.T) {
		src := minioAccessDeniedErr()
		err := translateError(src, "docs", "a.txt")
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrConnectivity)
		assert.ErrorIs(t, err, src)
	})

	t.Run("Transport", func(t *testing.T) {
		err := translateError(errors.New("dial tcp: connection refused"), "docs", "a.txt")
		assert.ErrorIs(t, err, ErrConnectivity)
	})
}
