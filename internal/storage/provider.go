// Package storage defines the vault file-system abstraction.
package storage

import "time"

// Entry describes a file or folder in the vault.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// Exists reports whether a file or folder exists at path.
	Exists(path string) (bool, error)
	// Stat returns the entry at path, or an error wrapping fs.ErrNotExist.
	Stat(path string) (Entry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent folders.
	Write(path string, content []byte) error
	// Append adds content to the end of an existing file.
	Append(path string, content []byte) error
	// MkdirAll creates the folder at path and its parents. It is idempotent.
	MkdirAll(path string) error
}
