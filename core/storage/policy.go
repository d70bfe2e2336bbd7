package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ensureBucketWorkers caps concurrent bucket checks during
// EnsureAllDeclaredBuckets. Buckets are independent units of work.
const ensureBucketWorkers = 10

// PolicyManager creates buckets on demand and applies access policies.
// It runs at startup and on explicit admin invocation, before any
// Backend call is trusted.
type PolicyManager struct {
	cfg    *Resolved
	client Client
	log    *zap.Logger
}

// NewPolicyManager constructs a PolicyManager over the internal client.
func NewPolicyManager(cfg *Resolved, client Client, logg *zap.Logger) *PolicyManager {
	if logg == nil {
		logg = zap.NewNop()
	}
	return &PolicyManager{cfg: cfg, client: client, log: logg}
}

// EnsureBucket checks that the bucket exists and creates it if absent.
// Idempotent: one remote existence check plus at most one creation call.
func (m *PolicyManager) EnsureBucket(ctx context.Context, name string) error {
	exists, err := m.client.BucketExists(ctx, name)
	if err != nil {
		return translateError(err, name, "")
	}
	if exists {
		m.log.Debug("bucket exists", zap.String("bucket", name))
		return nil
	}
	if err := m.client.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: m.cfg.Region}); err != nil {
		return translateError(err, name, "")
	}
	m.log.Info("created bucket", zap.String("bucket", name))
	return nil
}

// EnsureAllDeclaredBuckets applies EnsureBucket to every declared
// public and private bucket using a bounded worker pool. A failure on
// one bucket does not stop the siblings; all failures are aggregated
// into the returned error after every bucket has been attempted.
func (m *PolicyManager) EnsureAllDeclaredBuckets(ctx context.Context) error {
	buckets := m.cfg.Buckets()

	bucketCh := make(chan string, len(buckets))
	errCh := make(chan error, len(buckets))
	for _, b := range buckets {
		bucketCh <- b
	}
	close(bucketCh)

	workers := ensureBucketWorkers
	if len(buckets) < workers {
		workers = len(buckets)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for bucket := range bucketCh {
				if err := m.EnsureBucket(ctx, bucket); err != nil {
					m.log.Error("failed to ensure bucket", zap.String("bucket", bucket), zap.Error(err))
					errCh <- fmt.Errorf("bucket %s: %w", bucket, err)
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ApplyPublicReadPolicy sets the canned public-read policy on a
// bucket: anonymous GetBucketLocation and ListBucket on the bucket,
// GetObject on its contents.
func (m *PolicyManager) ApplyPublicReadPolicy(ctx context.Context, bucket string) error {
	if err := m.client.SetBucketPolicy(ctx, bucket, PublicReadPolicy(bucket)); err != nil {
		return translateError(err, bucket, "")
	}
	m.log.Info("bucket policy set to public read", zap.String("bucket", bucket))
	return nil
}

// ApplyPolicyHook sets an arbitrary caller-supplied policy document on
// a bucket.
func (m *PolicyManager) ApplyPolicyHook(ctx context.Context, bucket, policy string) error {
	if err := m.client.SetBucketPolicy(ctx, bucket, policy); err != nil {
		return translateError(err, bucket, "")
	}
	m.log.Info("bucket policy set via policy hook", zap.String("bucket", bucket))
	return nil
}

// InitializeBuckets is the "initialize buckets" administrative entry
// point: it ensures every declared bucket exists, applies the
// public-read policy to each public bucket, and applies the configured
// policy hooks. Failures are aggregated, never short-circuited.
func (m *PolicyManager) InitializeBuckets(ctx context.Context) error {
	var errs []error

	if err := m.EnsureAllDeclaredBuckets(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, bucket := range m.cfg.PublicBucketNames() {
		if err := m.ApplyPublicReadPolicy(ctx, bucket); err != nil {
			errs = append(errs, fmt.Errorf("public policy for %s: %w", bucket, err))
		}
	}
	for _, hook := range m.cfg.PolicyHooks {
		if err := m.ApplyPolicyHook(ctx, hook.Bucket, hook.Policy); err != nil {
			errs = append(errs, fmt.Errorf("policy hook for %s: %w", hook.Bucket, err))
		}
	}
	return errors.Join(errs...)
}

// policyStatement is one statement of an S3 policy document.
type policyStatement struct {
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal"`
	Action    string            `json:"Action"`
	Resource  string            `json:"Resource"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicReadPolicy returns the canned public-read policy document for
// a bucket in the store's JSON policy grammar.
func PublicReadPolicy(bucket string) string {
	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Effect:    "Allow",
				Principal: map[string]string{"AWS": "*"},
				Action:    "s3:GetBucketLocation",
				Resource:  "arn:aws:s3:::" + bucket,
			},
			{
				Effect:    "Allow",
				Principal: map[string]string{"AWS": "*"},
				Action:    "s3:ListBucket",
				Resource:  "arn:aws:s3:::" + bucket,
			},
			{
				Effect:    "Allow",
				Principal: map[string]string{"AWS": "*"},
				Action:    "s3:GetObject",
				Resource:  "arn:aws:s3:::" + bucket + "/*",
			},
		},
	}
	// Marshaling a fixed shape cannot fail.
	out, _ := json.Marshal(doc)
	return string(out)
}
