package storage

import (
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const defaultContentType = "application/octet-stream"

// NormalizeKey converts a file path into a POSIX-style object key:
// forward slashes regardless of host conventions, no leading slash,
// no redundant segments.
func NormalizeKey(name string) string {
	key := path.Clean(filepath.ToSlash(name))
	key = strings.TrimPrefix(key, "/")
	if key == "." {
		return ""
	}
	return key
}

// ISODate returns the current UTC date as a zero-padded ISO-8601
// string, e.g. "2024-05-01".
func ISODate() string {
	return time.Now().UTC().Format("2006-01-02")
}

// ISODatePrefix prepends the current UTC date to a file name. The date
// becomes the folder storing the object, e.g. "2024-05-01/cat.png".
func ISODatePrefix(fileName string) string {
	return ISODate() + "/" + fileName
}

// guessContentType resolves the MIME type for a save: an explicit type
// on the payload wins, then the key's extension, then the generic
// binary default.
func guessContentType(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if ext := path.Ext(key); ext != "" {
		if guess := mime.TypeByExtension(ext); guess != "" {
			return guess
		}
	}
	return defaultContentType
}
