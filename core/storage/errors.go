package storage

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Sentinel errors for the storage backend. Callers match them with
// errors.Is; the underlying minio error types never cross this package
// boundary.
var (
	// ErrNotFound indicates the object (or its bucket) does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrConnectivity indicates the store could not be reached
	// (timeout, connection refused, retry exhaustion).
	ErrConnectivity = errors.New("storage unreachable")
	// ErrUnsupported indicates an operation object storage cannot
	// perform (absolute paths, accessed/created timestamps).
	ErrUnsupported = errors.New("operation not supported by object storage")
	// ErrUsage indicates caller misuse, e.g. opening an object in a
	// writable mode.
	ErrUsage = errors.New("invalid storage usage")
)

// ConfigurationError reports invalid, missing, or contradictory
// backend settings. It is fatal at startup and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "storage configuration error: " + e.Reason
}

// PrivatePublicMixedError reports buckets declared both private and
// public. It is a distinct kind so callers can special-case it.
type PrivatePublicMixedError struct {
	Buckets []string
}

func (e *PrivatePublicMixedError) Error() string {
	return fmt.Sprintf("buckets declared both private and public: %s", strings.Join(e.Buckets, ", "))
}

// translateError maps a minio client error into this package's error
// vocabulary. A missing object or bucket becomes ErrNotFound; anything
// without an S3 error response is assumed to be a transport failure
// and becomes ErrConnectivity.
func translateError(err error, bucket, key string) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	case resp.Code != "":
		// A well-formed S3 error (e.g. AccessDenied): pass through wrapped.
		return fmt.Errorf("storage error for %s/%s: %w", bucket, key, err)
	default:
		return fmt.Errorf("%w: %s/%s: %v", ErrConnectivity, bucket, key, err)
	}
}
