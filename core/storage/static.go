package storage

import "go.uber.org/zap"

// NewStaticBackend builds a Backend for static assets: bound to the
// configured static bucket and forced public, since static files are
// always served through direct URLs. This is the general Backend
// composed with a static-assets policy, not a separate implementation;
// unsupported operations (Path, AccessedTime, CreatedTime) behave the
// same.
func NewStaticBackend(cfg *Resolved, logg *zap.Logger) (*Backend, error) {
	return New(cfg.withBucketPublic(cfg.StaticBucket), cfg.StaticBucket, logg)
}

// NewStaticBackendWithClients is NewStaticBackend with caller-supplied
// clients, for hosts that share client handles across backends.
func NewStaticBackendWithClients(cfg *Resolved, internal, external Client, logg *zap.Logger) (*Backend, error) {
	return NewWithClients(cfg.withBucketPublic(cfg.StaticBucket), cfg.StaticBucket, internal, external, logg)
}
