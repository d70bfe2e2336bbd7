package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ObjectInfo is the metadata this package exposes for a stored object.
// The underlying store does not track creation or access timestamps.
type ObjectInfo struct {
	// Key is the POSIX-normalized object key.
	Key string
	// Size is the object size in bytes.
	Size int64
	// ETag is the object's versioned identity.
	ETag string
	// ContentType is the stored MIME type.
	ContentType string
	// LastModified is the store's last-modified timestamp.
	LastModified time.Time
}

// SaveOptions carries optional payload attributes for Save.
type SaveOptions struct {
	// ContentType overrides MIME sniffing from the key's extension.
	ContentType string
	// Size is the content length in bytes when known ahead of time.
	// Saves at or above the configured multipart threshold stream as
	// multipart uploads when multipart mode is enabled. Zero or
	// negative means unknown; the content is then buffered.
	Size int64
	// Metadata is user metadata attached to the stored object.
	Metadata map[string]string
}

// Backend implements the storage contract over a single bound bucket.
// All operations are synchronous; the client handles are constructed
// once and safe for concurrent reuse.
type Backend struct {
	cfg      *Resolved
	bucket   string
	public   bool
	internal Client
	// external equals internal when both endpoints match. It is used
	// for URL generation so signatures stay valid for hosts reachable
	// from outside the network.
	external Client
	cache    *URLCache
	log      *zap.Logger
}

// New constructs a Backend bound to the given bucket, building real
// clients from the resolved configuration. An empty bucket name binds
// the configured default bucket.
func New(cfg *Resolved, bucket string, logg *zap.Logger) (*Backend, error) {
	internal, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	external := internal
	if !cfg.SameEndpoints() {
		external, err = NewExternalClient(cfg)
		if err != nil {
			return nil, err
		}
	}
	return NewWithClients(cfg, bucket, internal, external, logg)
}

// NewWithClients constructs a Backend with caller-supplied clients.
func NewWithClients(cfg *Resolved, bucket string, internal, external Client, logg *zap.Logger) (*Backend, error) {
	if logg == nil {
		logg = zap.NewNop()
	}
	if bucket == "" {
		bucket = cfg.DefaultBucket
	}
	if !cfg.IsDeclared(bucket) {
		logg.Warn("bucket is not declared in private_buckets or public_buckets, treating as private",
			zap.String("bucket", bucket))
	}

	b := &Backend{
		cfg:      cfg,
		bucket:   bucket,
		public:   cfg.IsPublic(bucket),
		internal: internal,
		external: external,
		log:      logg.With(zap.String("bucket", bucket)),
	}
	if cfg.URLCacheTTL > 0 && !b.public {
		b.cache = NewURLCache(cfg.URLCacheTTL, cfg.URLExpiry)
	}
	return b, nil
}

// Bucket returns the bound bucket name.
func (b *Backend) Bucket() string { return b.bucket }

// IsPublic reports whether the bound bucket is declared public.
func (b *Backend) IsPublic() bool { return b.public }

// Save stores content under the given key and returns the normalized
// key actually stored. The payload's explicit content type wins over
// extension sniffing. With multipart mode enabled and a known size at
// or above the threshold, content streams as a multipart upload;
// otherwise it is fully buffered and stored with a single PutObject.
func (b *Backend) Save(ctx context.Context, name string, content io.Reader, opts SaveOptions) (string, error) {
	key := NormalizeKey(name)
	if key == "" {
		return "", fmt.Errorf("%w: empty object key", ErrUsage)
	}

	if b.cfg.BucketCheckOnSave {
		if err := b.ensureBucket(ctx); err != nil {
			return "", err
		}
	}

	if b.cfg.ReplaceExisting {
		// Best-effort: a failed stat means "does not exist", not an error.
		if _, err := b.Stat(ctx, key); err == nil {
			if err := b.Delete(ctx, key); err != nil {
				return "", err
			}
		}
	}

	putOpts := minio.PutObjectOptions{
		ContentType:  guessContentType(key, opts.ContentType),
		UserMetadata: opts.Metadata,
	}

	if b.cfg.MultipartEnabled && opts.Size > 0 && opts.Size >= b.cfg.MultipartThreshold {
		putOpts.PartSize = b.cfg.MultipartPartSize
		// Size -1 streams the reader as a multipart upload of unknown
		// total length.
		if _, err := b.internal.PutObject(ctx, b.bucket, key, content, -1, putOpts); err != nil {
			return "", translateError(err, b.bucket, key)
		}
		b.log.Debug("saved object via multipart upload", zap.String("key", key), zap.Int64("size", opts.Size))
		return key, nil
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("failed to read content for %s: %w", key, err)
	}
	if _, err := b.internal.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)), putOpts); err != nil {
		return "", translateError(err, b.bucket, key)
	}
	b.log.Debug("saved object", zap.String("key", key), zap.Int("size", len(data)))
	return key, nil
}

// Open retrieves the object read-only. The returned handle can be
// reopened after Close, which re-fetches from the store.
func (b *Backend) Open(ctx context.Context, name string) (*Object, error) {
	return b.OpenFile(ctx, name, os.O_RDONLY)
}

// OpenFile is Open with an explicit open flag. Any flag other than
// os.O_RDONLY is a usage error: objects are immutable once stored and
// can only be replaced through Save.
func (b *Backend) OpenFile(ctx context.Context, name string, flag int) (*Object, error) {
	if flag != os.O_RDONLY {
		return nil, fmt.Errorf("%w: objects are read-only, use Save to replace contents", ErrUsage)
	}
	key := NormalizeKey(name)
	data, err := b.fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	return newObject(b, key, data), nil
}

func (b *Backend) fetch(ctx context.Context, key string) ([]byte, error) {
	reader, err := b.internal.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateError(err, b.bucket, key)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, translateError(err, b.bucket, key)
	}
	return data, nil
}

// Stat fetches size, ETag and last-modified for an object. A missing
// or unreachable object surfaces as ErrNotFound / ErrConnectivity so
// callers never see the vendor SDK's error types.
func (b *Backend) Stat(ctx context.Context, name string) (ObjectInfo, error) {
	key := NormalizeKey(name)
	info, err := b.internal.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, translateError(err, b.bucket, key)
	}
	return ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// Exists reports whether an object with this key is stored.
func (b *Backend) Exists(ctx context.Context, name string) bool {
	_, err := b.Stat(ctx, name)
	return err == nil
}

// Delete removes the object. Removing a non-existent key is not an
// error at the store level, so Delete is idempotent.
func (b *Backend) Delete(ctx context.Context, name string) error {
	key := NormalizeKey(name)
	if err := b.internal.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return translateError(err, b.bucket, key)
	}
	return nil
}

// Size returns the object's size in bytes, or 0 when Stat fails.
func (b *Backend) Size(ctx context.Context, name string) int64 {
	info, err := b.Stat(ctx, name)
	if err != nil {
		return 0
	}
	return info.Size
}

// URL returns an access URL for the object. Public buckets get a
// stable direct URL with no signature or expiry. Private buckets get a
// pre-signed GET URL valid for the configured expiry, generated via
// the external client when the endpoints differ, and memoized when
// URL caching is enabled.
func (b *Backend) URL(ctx context.Context, name string) (string, error) {
	key := NormalizeKey(name)
	client := b.internal
	if !b.cfg.SameEndpoints() {
		client = b.external
	}

	if b.public {
		base := strings.TrimSuffix(client.EndpointURL().String(), "/")
		return base + "/" + b.bucket + "/" + key, nil
	}

	if b.cache != nil {
		if info, err := b.Stat(ctx, key); err == nil {
			return b.cache.GetOrGenerate(URLCacheKey(b.bucket, key, info.ETag), func() (string, error) {
				return b.presign(ctx, client, key)
			})
		}
		// Stat failed: skip the cache so the store stays the authority
		// on whether presigning succeeds.
	}
	return b.presign(ctx, client, key)
}

func (b *Backend) presign(ctx context.Context, client Client, key string) (string, error) {
	u, err := client.PresignedGetObject(ctx, b.bucket, key, b.cfg.URLExpiry, nil)
	if err != nil {
		// Presign failures are symptomatic of an unreachable store,
		// not a missing object.
		return "", fmt.Errorf("%w: presigning %s/%s: %v", ErrConnectivity, b.bucket, key, err)
	}
	return u.String(), nil
}

// ListDirectory recursively lists objects under prefix and partitions
// the immediate children into subdirectories and files. Both lists are
// deduplicated and sorted.
func (b *Backend) ListDirectory(ctx context.Context, prefix string) (dirs, files []string, err error) {
	p := NormalizeKey(prefix)
	if p != "" {
		p += "/"
	}

	dirSet := make(map[string]struct{})
	fileSet := make(map[string]struct{})
	for obj := range b.internal.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: p, Recursive: true}) {
		if obj.Err != nil {
			return nil, nil, translateError(obj.Err, b.bucket, p)
		}
		rel := strings.TrimPrefix(obj.Key, p)
		if rel == "" {
			continue
		}
		if i := strings.Index(rel, "/"); i >= 0 {
			dirSet[rel[:i]] = struct{}{}
		} else {
			fileSet[rel] = struct{}{}
		}
	}

	dirs = make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	files = make([]string, 0, len(fileSet))
	for f := range fileSet {
		files = append(files, f)
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}

// Path always fails: object storage has no local filesystem paths.
func (b *Backend) Path(string) (string, error) {
	return "", fmt.Errorf("%w: absolute filesystem paths", ErrUnsupported)
}

// AccessedTime always fails: the store does not track access times.
func (b *Backend) AccessedTime(string) (time.Time, error) {
	return time.Time{}, fmt.Errorf("%w: last accessed time is not tracked", ErrUnsupported)
}

// CreatedTime always fails: the store does not track creation times.
func (b *Backend) CreatedTime(string) (time.Time, error) {
	return time.Time{}, fmt.Errorf("%w: creation time is not tracked", ErrUnsupported)
}

// ModifiedTime returns the store's last-modified timestamp for the object.
func (b *Backend) ModifiedTime(ctx context.Context, name string) (time.Time, error) {
	info, err := b.Stat(ctx, name)
	if err != nil {
		return time.Time{}, err
	}
	return info.LastModified, nil
}

// ensureBucket creates the bound bucket when it does not exist yet.
func (b *Backend) ensureBucket(ctx context.Context) error {
	exists, err := b.internal.BucketExists(ctx, b.bucket)
	if err != nil {
		return translateError(err, b.bucket, "")
	}
	if exists {
		return nil
	}
	if err := b.internal.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: b.cfg.Region}); err != nil {
		// A concurrent save may have created it in the meantime.
		if owned, checkErr := b.internal.BucketExists(ctx, b.bucket); checkErr == nil && owned {
			return nil
		}
		return translateError(err, b.bucket, "")
	}
	return nil
}

// IsNotFound reports whether err represents a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
