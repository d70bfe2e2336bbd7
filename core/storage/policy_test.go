package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"mediavault/core/storage"
	"mediavault/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublicReadPolicy(t *testing.T) {
	var doc struct {
		Version   string `json:"Version"`
		Statement []struct {
			Effect    string            `json:"Effect"`
			Principal map[string]string `json:"Principal"`
			Action    string            `json:"Action"`
			Resource  string            `json:"Resource"`
		} `json:"Statement"`
	}
	require.NoError(t, json.Unmarshal([]byte(storage.PublicReadPolicy("images")), &doc))

	assert.Equal(t, "2012-10-17", doc.Version)
	require.Len(t, doc.Statement, 3)

	actions := make(map[string]string)
	for _, s := range doc.Statement {
		assert.Equal(t, "Allow", s.Effect)
		assert.Equal(t, map[string]string{"AWS": "*"}, s.Principal)
		actions[s.Action] = s.Resource
	}
	assert.Equal(t, "arn:aws:s3:::images", actions["s3:GetBucketLocation"])
	assert.Equal(t, "arn:aws:s3:::images", actions["s3:ListBucket"])
	assert.Equal(t, "arn:aws:s3:::images/*", actions["s3:GetObject"])
}

func TestPolicyManager_EnsureBucket(t *testing.T) {
	cfg := testResolved(t, func(c *storage.Config) { c.Region = "eu-west-1" })

	t.Run("AlreadyExists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "docs").Return(true, nil)

		m := storage.NewPolicyManager(cfg, client, zap.NewNop())
		require.NoError(t, m.EnsureBucket(context.Background(), "docs"))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Creates", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "docs").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "docs", mock.MatchedBy(func(opts minio.MakeBucketOptions) bool {
			return opts.Region == "eu-west-1"
		})).Return(nil)

		m := storage.NewPolicyManager(cfg, client, zap.NewNop())
		require.NoError(t, m.EnsureBucket(context.Background(), "docs"))
		client.AssertExpectations(t)
	})

	t.Run("ExistenceCheckFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "docs").
			Return(false, errors.New("connection refused"))

		m := storage.NewPolicyManager(cfg, client, zap.NewNop())
		err := m.EnsureBucket(context.Background(), "docs")
		assert.ErrorIs(t, err, storage.ErrConnectivity)
	})
}

func TestPolicyManager_EnsureAllDeclaredBuckets(t *testing.T) {
	cfg := testResolved(t, nil)
	client := new(mocks.Client)

	// "docs" fails to create; the siblings must still be attempted.
	client.On("BucketExists", mock.Anything, "docs").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "docs", mock.Anything).
		Return(errors.New("quota exceeded"))
	client.On("BucketExists", mock.Anything, "images").Return(true, nil)
	client.On("BucketExists", mock.Anything, storage.DefaultMediaBucket).Return(true, nil)

	m := storage.NewPolicyManager(cfg, client, zap.NewNop())
	err := m.EnsureAllDeclaredBuckets(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "docs")
	client.AssertCalled(t, "BucketExists", mock.Anything, "images")
	client.AssertCalled(t, "BucketExists", mock.Anything, storage.DefaultMediaBucket)
}

func TestPolicyManager_InitializeBuckets(t *testing.T) {
	cfg := testResolved(t, func(c *storage.Config) {
		c.PolicyHooks = []storage.PolicyHook{{Bucket: "docs", Policy: `{"Version":"2012-10-17"}`}}
	})
	client := new(mocks.Client)

	client.On("BucketExists", mock.Anything, mock.Anything).Return(true, nil)
	client.On("SetBucketPolicy", mock.Anything, "images", storage.PublicReadPolicy("images")).Return(nil)
	client.On("SetBucketPolicy", mock.Anything, "docs", `{"Version":"2012-10-17"}`).Return(nil)

	m := storage.NewPolicyManager(cfg, client, zap.NewNop())
	require.NoError(t, m.InitializeBuckets(context.Background()))
	client.AssertExpectations(t)
}

func TestPolicyManager_InitializeBuckets_AggregatesFailures(t *testing.T) {
	cfg := testResolved(t, func(c *storage.Config) {
		c.PublicBuckets = []string{"images", "assets"}
	})
	client := new(mocks.Client)

	client.On("BucketExists", mock.Anything, mock.Anything).Return(true, nil)
	client.On("SetBucketPolicy", mock.Anything, "assets", mock.Anything).
		Return(errors.New("policy rejected"))
	client.On("SetBucketPolicy", mock.Anything, "images", mock.Anything).Return(nil)

	m := storage.NewPolicyManager(cfg, client, zap.NewNop())
	err := m.InitializeBuckets(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "assets")
	// The failure on one bucket must not have stopped the other.
	client.AssertCalled(t, "SetBucketPolicy", mock.Anything, "images", mock.Anything)
}
