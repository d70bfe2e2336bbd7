// Package reconcile cross-checks the relational database's file
// references against the objects actually stored in the buckets.
//
// Two independent, read-heavy passes run over potentially large
// datasets, intended for periodic administrative batch execution:
//
//  1. Orphan cleanup: every object key in the target buckets is
//     compared against every FileReference in the database; objects
//     nothing references are deleted in bulk (one RemoveObjects call
//     per bucket), with per-object errors reported instead of aborting
//     the batch. Dry-run mode reports the would-delete set untouched.
//
//  2. Missing-file detection: every FileReference is stat'ed against
//     its bucket; failures are reported with model, record id, field,
//     bucket and key so an operator can act. This pass never mutates.
//
// Failures are isolated per bucket and aggregated at the end, so a
// broken bucket listing never stops the remaining buckets.
//
// # Bindings
//
// The database side is driven by an explicit registry of
// FieldBindings the host application populates, one per file-bearing
// column:
//
//	source := reconcile.NewGormSource(db, []reconcile.FieldBinding{
//	    {Model: "upload.PrivateAttachment", Table: "upload_privateattachment", IDColumn: "id", Column: "file", Bucket: "docs"},
//	}, cfg.DefaultBucket)
//	engine := reconcile.NewEngine(cfg, client, source, logger)
//	report, err := engine.Run(ctx, reconcile.Options{DryRun: true, CheckMissing: true})
package reconcile
