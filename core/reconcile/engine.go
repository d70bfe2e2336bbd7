package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"mediavault/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// defaultWorkers bounds concurrent remote operations. Buckets and
// objects are independent units of work.
const defaultWorkers = 10

// Engine performs best-effort reconciliation between the relational
// database's file references and the objects actually present in the
// buckets. It is built for out-of-band administrative batch runs, not
// the request path.
type Engine struct {
	cfg    *storage.Resolved
	client storage.Client
	source Source
	log    *zap.Logger
}

// NewEngine builds a reconciliation engine over the internal client.
func NewEngine(cfg *storage.Resolved, client storage.Client, source Source, logg *zap.Logger) *Engine {
	if logg == nil {
		logg = zap.NewNop()
	}
	return &Engine{cfg: cfg, client: client, source: source, log: logg}
}

// Run executes the orphan-cleanup pass and, when requested, the
// missing-file pass. The per-bucket results land in the Report even
// when individual buckets fail; the returned error aggregates every
// bucket- and object-level failure after all buckets were attempted.
func (e *Engine) Run(ctx context.Context, opts Options) (*Report, error) {
	refs, err := e.source.ListReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate file references: %w", err)
	}

	// Index referenced keys per bucket for the set difference.
	referenced := make(map[string]map[string]struct{})
	for _, ref := range refs {
		keys, ok := referenced[ref.Bucket]
		if !ok {
			keys = make(map[string]struct{})
			referenced[ref.Bucket] = keys
		}
		keys[ref.Key] = struct{}{}
	}

	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = e.cfg.Buckets()
	}

	report := &Report{
		DryRun:     opts.DryRun,
		References: len(refs),
		Buckets:    make([]BucketReport, len(buckets)),
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, bucket := range buckets {
		wg.Add(1)
		go func(i int, bucket string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			report.Buckets[i] = e.cleanBucket(ctx, bucket, referenced[bucket], opts.DryRun)
		}(i, bucket)
	}
	wg.Wait()

	if opts.CheckMissing {
		report.Missing = e.checkMissing(ctx, refs, workers)
	}

	var errs []error
	for _, br := range report.Buckets {
		if br.Error != "" {
			errs = append(errs, fmt.Errorf("bucket %s: %s", br.Bucket, br.Error))
		}
		for _, oe := range br.DeleteErrors {
			errs = append(errs, fmt.Errorf("delete %s/%s: %s", br.Bucket, oe.Key, oe.Message))
		}
	}
	return report, errors.Join(errs...)
}

// cleanBucket lists one bucket, computes the orphan set and deletes it
// in bulk unless dryRun is set. Failures stay inside the returned
// report so sibling buckets keep going.
func (e *Engine) cleanBucket(ctx context.Context, bucket string, referenced map[string]struct{}, dryRun bool) BucketReport {
	rep := BucketReport{Bucket: bucket, Orphans: []string{}}

	var orphans []string
	for obj := range e.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			rep.Error = obj.Err.Error()
			e.log.Error("failed to list bucket", zap.String("bucket", bucket), zap.Error(obj.Err))
			return rep
		}
		rep.Listed++
		if _, ok := referenced[obj.Key]; !ok {
			orphans = append(orphans, obj.Key)
		}
	}

	// Sorted so every run produces the same auditable log sequence.
	sort.Strings(orphans)
	rep.Orphans = orphans

	for _, key := range orphans {
		if dryRun {
			e.log.Info("orphaned object, would delete",
				zap.String("bucket", bucket), zap.String("key", key), zap.Bool("dry_run", true))
		} else {
			e.log.Info("deleting orphaned object",
				zap.String("bucket", bucket), zap.String("key", key))
		}
	}

	if dryRun || len(orphans) == 0 {
		return rep
	}

	objectsCh := make(chan minio.ObjectInfo, len(orphans))
	for _, key := range orphans {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	// Bulk deletion reports per-object errors without aborting the batch.
	for rerr := range e.client.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			rep.DeleteErrors = append(rep.DeleteErrors, ObjectError{
				Key:     rerr.ObjectName,
				Message: rerr.Err.Error(),
			})
			e.log.Error("failed to delete orphaned object",
				zap.String("bucket", bucket), zap.String("key", rerr.ObjectName), zap.Error(rerr.Err))
		}
	}
	rep.Deleted = len(orphans) - len(rep.DeleteErrors)
	return rep
}

// checkMissing stats every file reference and reports the ones whose
// object is absent or unreachable. Read-only: it never mutates state.
func (e *Engine) checkMissing(ctx context.Context, refs []FileReference, workers int) []FileReference {
	refCh := make(chan FileReference, len(refs))
	missCh := make(chan FileReference, len(refs))
	for _, ref := range refs {
		refCh <- ref
	}
	close(refCh)

	if workers > len(refs) {
		workers = len(refs)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for ref := range refCh {
				if _, err := e.client.StatObject(ctx, ref.Bucket, ref.Key, minio.StatObjectOptions{}); err != nil {
					e.log.Warn("database references a missing object",
						zap.String("model", ref.Model),
						zap.String("record_id", ref.RecordID),
						zap.String("field", ref.Field),
						zap.String("bucket", ref.Bucket),
						zap.String("key", ref.Key),
						zap.Error(err))
					missCh <- ref
				}
			}
		}()
	}
	wg.Wait()
	close(missCh)

	missing := make([]FileReference, 0, len(missCh))
	for ref := range missCh {
		missing = append(missing, ref)
	}
	sort.Slice(missing, func(i, j int) bool {
		a, b := missing[i], missing[j]
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		if a.RecordID != b.RecordID {
			return a.RecordID < b.RecordID
		}
		return a.Key < b.Key
	})
	return missing
}
