// Package database handles the relational database connection.
//
// It wraps GORM to configure MySQL connections from the application's
// configuration. The database owns the FileReference rows the
// reconciliation engine scans; this core owns no other persisted
// state.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("reconciliation disabled", zap.Error(err))
//	}
package database
