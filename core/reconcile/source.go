package reconcile

import (
	"context"
	"fmt"
	"strconv"

	"mediavault/core/storage"

	"gorm.io/gorm"
)

// Source enumerates every FileReference whose storage backend is this
// adapter. Implementations must tolerate being called repeatedly.
type Source interface {
	ListReferences(ctx context.Context) ([]FileReference, error)
}

// GormSource reads file references from a relational database through
// an explicit binding registry.
type GormSource struct {
	db            *gorm.DB
	bindings      []FieldBinding
	defaultBucket string
}

// NewGormSource builds a Source over the given bindings. References
// whose binding leaves Bucket empty are attributed to defaultBucket.
func NewGormSource(db *gorm.DB, bindings []FieldBinding, defaultBucket string) *GormSource {
	return &GormSource{db: db, bindings: bindings, defaultBucket: defaultBucket}
}

// ListReferences scans every bound table and returns all non-empty
// file references.
func (s *GormSource) ListReferences(ctx context.Context) ([]FileReference, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var refs []FileReference
	for _, binding := range s.bindings {
		bucket := binding.Bucket
		if bucket == "" {
			bucket = s.defaultBucket
		}

		query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IS NOT NULL AND %s <> ''",
			binding.IDColumn, binding.Column, binding.Table, binding.Column, binding.Column)
		rows, err := s.db.WithContext(ctx).Raw(query).Rows()
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", binding.Table, err)
		}

		for rows.Next() {
			var id, key any
			if err := rows.Scan(&id, &key); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan row from %s: %w", binding.Table, err)
			}
			refs = append(refs, FileReference{
				Model:    binding.Model,
				RecordID: toString(id),
				Field:    binding.Column,
				Bucket:   bucket,
				Key:      storage.NormalizeKey(toString(key)),
			})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to iterate %s: %w", binding.Table, err)
		}
		rows.Close()
	}

	return refs, nil
}

// toString renders a scanned database value. Drivers return ints,
// byte slices or strings depending on column type.
func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
