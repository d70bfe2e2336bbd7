package reconcile

// FieldBinding declares one relational column holding object keys for
// this storage backend. The host application registers its bindings
// explicitly; nothing is discovered by scanning framework state.
type FieldBinding struct {
	// Model is the display name of the owning model, e.g.
	// "upload.PrivateAttachment". Used in reports only.
	Model string

	// Table is the relational table to scan.
	Table string

	// IDColumn is the primary key column of Table.
	IDColumn string

	// Column is the column storing the object key.
	Column string

	// Bucket is the bucket the keys in Column live in. Empty means the
	// configured default bucket.
	Bucket string
}

// FileReference is one (model, record, field) triple pointing at a
// stored object.
type FileReference struct {
	// Model is the owning model's display name.
	Model string `json:"model"`

	// RecordID is the owning row's primary key, rendered as a string.
	RecordID string `json:"record_id"`

	// Field is the file-bearing column name.
	Field string `json:"field"`

	// Bucket is the bucket the object lives in.
	Bucket string `json:"bucket"`

	// Key is the POSIX-normalized object key.
	Key string `json:"key"`
}

// Options controls a reconciliation run.
type Options struct {
	// DryRun reports orphans without deleting anything.
	DryRun bool

	// CheckMissing also reports database references to objects absent
	// from the store. This pass never mutates state.
	CheckMissing bool

	// Buckets restricts the orphan pass to these buckets. Empty means
	// every declared bucket.
	Buckets []string

	// Workers bounds concurrent stat calls during the missing-file
	// pass. Zero means the default of 10.
	Workers int
}

// ObjectError records a per-object failure during bulk deletion.
type ObjectError struct {
	// Key is the object that failed to delete.
	Key string `json:"key"`

	// Message is the store's error text.
	Message string `json:"message"`
}

// BucketReport is the orphan-pass outcome for a single bucket.
// Failures are isolated per bucket: one bucket's listing failure never
// stops the siblings.
type BucketReport struct {
	// Bucket is the bucket this report covers.
	Bucket string `json:"bucket"`

	// Listed counts objects found in the bucket.
	Listed int `json:"listed"`

	// Orphans lists object keys with no database reference, sorted.
	Orphans []string `json:"orphans"`

	// Deleted counts objects actually removed. Zero on dry runs.
	Deleted int `json:"deleted"`

	// DeleteErrors lists per-object deletion failures.
	DeleteErrors []ObjectError `json:"delete_errors"`

	// Error is the bucket-level failure (e.g. the listing broke),
	// empty when the pass covered the bucket.
	Error string `json:"error,omitempty"`
}

// Report is the aggregate outcome of a reconciliation run.
type Report struct {
	// DryRun echoes whether this run mutated anything.
	DryRun bool `json:"dry_run"`

	// References counts FileReference rows found in the database.
	References int `json:"references"`

	// Buckets holds the per-bucket orphan-pass results.
	Buckets []BucketReport `json:"buckets"`

	// Missing lists database references to objects absent from the
	// store. Populated only when Options.CheckMissing is set.
	Missing []FileReference `json:"missing,omitempty"`
}

// Summary provides aggregate counts for a Report.
type Summary struct {
	// References counts database file references scanned.
	References int `json:"references"`

	// Listed counts bucket objects enumerated across all buckets.
	Listed int `json:"listed"`

	// Orphans counts objects with no database reference.
	Orphans int `json:"orphans"`

	// Deleted counts objects actually removed.
	Deleted int `json:"deleted"`

	// Errored counts per-object delete failures plus failed buckets.
	Errored int `json:"errored"`

	// Missing counts database references to absent objects.
	Missing int `json:"missing"`
}

// Summary computes aggregate counts across all buckets.
func (r *Report) Summary() Summary {
	s := Summary{
		References: r.References,
		Missing:    len(r.Missing),
	}
	for _, b := range r.Buckets {
		s.Listed += b.Listed
		s.Orphans += len(b.Orphans)
		s.Deleted += b.Deleted
		s.Errored += len(b.DeleteErrors)
		if b.Error != "" {
			s.Errored++
		}
	}
	return s
}
