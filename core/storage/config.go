package storage

import (
	"net/http"
	"sort"
	"strconv"
	"time"
)

// DefaultMediaBucket is used when no bucket is bound explicitly.
// It is classified private unless declared otherwise.
const DefaultMediaBucket = "auto-generated-bucket-media-files"

// DefaultStaticBucket holds static assets and is always public.
const DefaultStaticBucket = "auto-generated-bucket-static-files"

const (
	// defaultMultipartBytes is the fallback for both the multipart
	// threshold and part size.
	defaultMultipartBytes = 10 * 1024 * 1024
	// minMultipartPartSize is the store's minimum part size for
	// multipart uploads.
	minMultipartPartSize = 5 * 1024 * 1024
)

// PolicyHook pairs a bucket with a caller-supplied policy document to
// apply at initialization, for ACL scenarios beyond the public/private
// binary.
type PolicyHook struct {
	Bucket string
	Policy string
}

// Config holds configuration for the storage backend.
type Config struct {
	// Endpoint is the host[:port] of the storage service, reachable
	// from inside the network.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// ExternalEndpoint is the publicly reachable host[:port]. Empty
	// means the internal endpoint is also the external one.
	ExternalEndpoint string `mapstructure:"external_endpoint" default:""`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use TLS on the internal endpoint.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// ExternalUseSSL indicates whether to use TLS on the external
	// endpoint ("true"/"false"). It must be set exactly when a distinct
	// external endpoint is configured; declaring one without the other
	// is a configuration error.
	ExternalUseSSL string `mapstructure:"external_use_ssl" default:""`
	// Region is the location of the buckets (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// PrivateBuckets lists buckets served through pre-signed URLs.
	PrivateBuckets []string `mapstructure:"private_buckets" default:""`
	// PublicBuckets lists buckets served through direct URLs.
	PublicBuckets []string `mapstructure:"public_buckets" default:""`
	// DefaultBucket is used when a backend is constructed without an
	// explicit bucket. Classified private when not declared.
	DefaultBucket string `mapstructure:"default_bucket" default:""`
	// StaticBucket holds static assets. Always forced public.
	StaticBucket string `mapstructure:"static_bucket" default:""`
	// URLExpiry is the validity window of pre-signed URLs.
	URLExpiry time.Duration `mapstructure:"url_expiry" default:"168h"`
	// URLCacheTTL enables pre-signed URL memoization when positive.
	// The effective TTL is always kept below URLExpiry.
	URLCacheTTL time.Duration `mapstructure:"url_cache_ttl" default:"0"`
	// ReplaceExisting deletes an existing object before saving over it.
	ReplaceExisting bool `mapstructure:"replace_existing" default:"false"`
	// BucketCheckOnSave ensures bucket existence on every save.
	BucketCheckOnSave bool `mapstructure:"bucket_check_on_save" default:"false"`
	// InitializeBucketsOnStart runs bucket initialization before the
	// server starts listening.
	InitializeBucketsOnStart bool `mapstructure:"initialize_buckets_on_start" default:"false"`
	// MultipartEnabled streams large saves as multipart uploads.
	MultipartEnabled bool `mapstructure:"multipart_enabled" default:"false"`
	// MultipartThreshold is the content size, in bytes, at which
	// multipart streaming kicks in.
	MultipartThreshold int64 `mapstructure:"multipart_threshold" default:"10485760"`
	// MultipartPartSize is the part size, in bytes, for multipart uploads.
	MultipartPartSize uint64 `mapstructure:"multipart_part_size" default:"10485760"`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`

	// PolicyHooks are applied during bucket initialization. Populated
	// programmatically by the host application, not via environment.
	PolicyHooks []PolicyHook `mapstructure:"-"`
	// Transport overrides the HTTP transport used by the clients.
	Transport http.RoundTripper `mapstructure:"-"`
}

// Resolved is the validated, immutable form of Config. It is built
// once by Resolve and passed by reference into every component
// constructor; no component reads ambient configuration.
type Resolved struct {
	Config

	// ExternalSSL is the parsed ExternalUseSSL flag. Meaningful only
	// when the endpoints differ.
	ExternalSSL bool

	private map[string]struct{}
	public  map[string]struct{}
}

// Resolve validates the configuration and returns its immutable form.
// It fails fast with a ConfigurationError on missing transport
// parameters or contradictory endpoint settings, and with a
// PrivatePublicMixedError when a bucket appears in both visibility
// sets.
func (c Config) Resolve() (*Resolved, error) {
	if c.Endpoint == "" || c.AccessKey == "" || c.SecretKey == "" {
		return nil, &ConfigurationError{
			Reason: "endpoint, access_key and secret_key must all be configured",
		}
	}

	externalDiffers := c.ExternalEndpoint != "" && c.ExternalEndpoint != c.Endpoint
	if externalDiffers && c.ExternalUseSSL == "" {
		return nil, &ConfigurationError{
			Reason: "external_endpoint must be configured together with external_use_ssl",
		}
	}
	if !externalDiffers && c.ExternalUseSSL != "" {
		return nil, &ConfigurationError{
			Reason: "external_use_ssl is set but external_endpoint does not differ from endpoint",
		}
	}
	externalSSL := c.UseSSL
	if c.ExternalUseSSL != "" {
		v, err := strconv.ParseBool(c.ExternalUseSSL)
		if err != nil {
			return nil, &ConfigurationError{
				Reason: "external_use_ssl must be a boolean, got " + strconv.Quote(c.ExternalUseSSL),
			}
		}
		externalSSL = v
	}

	r := &Resolved{
		Config:      c,
		ExternalSSL: externalSSL,
		private:     make(map[string]struct{}, len(c.PrivateBuckets)+1),
		public:      make(map[string]struct{}, len(c.PublicBuckets)+1),
	}
	for _, b := range c.PrivateBuckets {
		if b != "" {
			r.private[b] = struct{}{}
		}
	}
	for _, b := range c.PublicBuckets {
		if b != "" {
			r.public[b] = struct{}{}
		}
	}

	var mixed []string
	for b := range r.private {
		if _, ok := r.public[b]; ok {
			mixed = append(mixed, b)
		}
	}
	if len(mixed) > 0 {
		sort.Strings(mixed)
		return nil, &PrivatePublicMixedError{Buckets: mixed}
	}

	if len(r.private)+len(r.public) == 0 {
		return nil, &ConfigurationError{
			Reason: "at least one private or public bucket must be declared",
		}
	}

	// The default media bucket is private unless declared otherwise.
	if r.Config.DefaultBucket == "" {
		r.Config.DefaultBucket = DefaultMediaBucket
	}
	if !r.IsDeclared(r.Config.DefaultBucket) {
		r.private[r.Config.DefaultBucket] = struct{}{}
	}
	if r.Config.StaticBucket == "" {
		r.Config.StaticBucket = DefaultStaticBucket
	}

	if r.Config.URLExpiry <= 0 {
		r.Config.URLExpiry = 7 * 24 * time.Hour
	}
	if r.Config.MultipartThreshold <= 0 {
		r.Config.MultipartThreshold = defaultMultipartBytes
	}
	// Unknown-length multipart streams require parts of at least 5 MiB.
	if r.Config.MultipartPartSize < minMultipartPartSize {
		r.Config.MultipartPartSize = defaultMultipartBytes
	}

	return r, nil
}

// SameEndpoints reports whether internal and external traffic share
// one endpoint.
func (r *Resolved) SameEndpoints() bool {
	return r.ExternalEndpoint == "" || r.ExternalEndpoint == r.Endpoint
}

// IsPublic reports whether the bucket is declared public.
func (r *Resolved) IsPublic(bucket string) bool {
	_, ok := r.public[bucket]
	return ok
}

// IsDeclared reports whether the bucket appears in either visibility set.
func (r *Resolved) IsDeclared(bucket string) bool {
	if _, ok := r.private[bucket]; ok {
		return true
	}
	_, ok := r.public[bucket]
	return ok
}

// Buckets returns every declared bucket name, sorted.
func (r *Resolved) Buckets() []string {
	out := make([]string, 0, len(r.private)+len(r.public))
	for b := range r.private {
		out = append(out, b)
	}
	for b := range r.public {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// PublicBucketNames returns the declared public buckets, sorted.
func (r *Resolved) PublicBucketNames() []string {
	out := make([]string, 0, len(r.public))
	for b := range r.public {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// BaseURL returns the internal base URL of the store.
func (r *Resolved) BaseURL() string {
	return schemePrefix(r.UseSSL) + r.Endpoint
}

// ExternalBaseURL returns the externally reachable base URL.
func (r *Resolved) ExternalBaseURL() string {
	if r.SameEndpoints() {
		return r.BaseURL()
	}
	return schemePrefix(r.ExternalSSL) + r.ExternalEndpoint
}

// withBucketPublic returns a copy with the bucket forced into the
// public set. Used by the static assets composition, which never
// serves signed URLs. The receiver is left untouched.
func (r *Resolved) withBucketPublic(bucket string) *Resolved {
	out := &Resolved{
		Config:      r.Config,
		ExternalSSL: r.ExternalSSL,
		private:     make(map[string]struct{}, len(r.private)),
		public:      make(map[string]struct{}, len(r.public)+1),
	}
	for b := range r.private {
		if b != bucket {
			out.private[b] = struct{}{}
		}
	}
	for b := range r.public {
		out.public[b] = struct{}{}
	}
	out.public[bucket] = struct{}{}
	return out
}

func schemePrefix(ssl bool) string {
	if ssl {
		return "https://"
	}
	return "http://"
}
