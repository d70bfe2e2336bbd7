// Package config provides configuration management for mediavault.
//
// It utilizes Viper for loading configuration from environment
// variables and a .env file, with defaults declared as struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP status server settings (port, API key)
//   - Database: MySQL connection details for the file-reference side
//   - Storage: object store endpoints, credentials and bucket settings
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resolved, err := cfg.Storage.Resolve()
package config
