// Package storage implements a file-attachment storage backend over an
// S3-compatible object store.
//
// It wraps the MinIO Go client to map a named-file storage contract
// (save, open, delete, exists, stat, size, url, list) onto object
// operations against a single bound bucket, and manages the
// surrounding bucket lifecycle.
//
// # Components
//
//   - Config / Resolved: layered backend configuration, validated once
//     at startup. Contradictory settings (a bucket declared both
//     private and public, an external endpoint without its TLS flag)
//     fail fast.
//   - Client: the interface over the MinIO SDK, mockable for unit
//     testing (see core/storage/mocks). Internal and external endpoint
//     clients are constructed once and reused.
//   - Backend: the storage contract implementation. Public buckets
//     yield stable direct URLs; private buckets yield pre-signed URLs,
//     optionally memoized by URLCache.
//   - PolicyManager: creates declared buckets, applies the canned
//     public-read policy and caller-supplied policy hooks.
//   - Prober: lightweight availability check against the store's HTTP
//     endpoint, where a 403 counts as healthy.
//
// # Usage
//
//	resolved, err := cfg.Resolve()
//	backend, err := storage.New(resolved, "images", logger)
//	key, err := backend.Save(ctx, storage.ISODatePrefix("cat.png"), content, storage.SaveOptions{})
//	url, err := backend.URL(ctx, key)
package storage
