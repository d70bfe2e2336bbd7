// Package logger configures the application's structured zap logger.
//
// Output encoding and level come from the log section of the
// configuration; debug level switches to zap's development config for
// ISO8601 timestamps.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("started", zap.String("bucket", "images"))
package logger
