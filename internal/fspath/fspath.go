// Package fspath computes OS-aware, length-bounded file names and paths.
package fspath

import (
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"
)

// Platform identifiers accepted by LimitsFor.
const (
	PlatformLinux   = "linux"
	PlatformDarwin  = "darwin"
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformMobile  = "mobile"
	PlatformWindows = "windows"
)

// Limits bounds the length of a full path and of a bare file name, in bytes.
type Limits struct {
	MaxPathLength     int
	MaxFileNameLength int
}

// LimitsFor returns the default limits for a platform identifier. An empty
// identifier means the running OS; anything unknown gets the Windows limits.
func LimitsFor(platform string) Limits {
	if platform == "" {
		platform = runtime.GOOS
	}
	switch strings.ToLower(platform) {
	case PlatformLinux:
		return Limits{MaxPathLength: 4096, MaxFileNameLength: 255}
	case PlatformDarwin, "macos", PlatformIOS, PlatformAndroid, PlatformMobile:
		return Limits{MaxPathLength: 1024, MaxFileNameLength: 255}
	default:
		return Limits{MaxPathLength: 256, MaxFileNameLength: 256}
	}
}

// Override returns l with any positive value from o applied.
func (l Limits) Override(maxPath, maxName int) Limits {
	if maxPath > 0 {
		l.MaxPathLength = maxPath
	}
	if maxName > 0 {
		l.MaxFileNameLength = maxName
	}
	return l
}

const reservedChars = `:#/\|?*<>"`

// NormalizeFilename strips characters that are unsafe in file names, folds
// control whitespace into spaces and trims the result. It is idempotent.
func NormalizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case strings.ContainsRune(reservedChars, r):
			continue
		case r == '\n' || r == '\r' || r == '\t' || r == '\v' || r == '\f':
			b.WriteRune(' ')
		case r < 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// FitFileName truncates name so that "name.ext" stays within
// MaxFileNameLength and "dir/name.ext" stays within MaxPathLength. The
// extension is always preserved. Names that already fit are returned as is.
// At least one rune of the name is kept, so a directory that leaves no room
// at all is the only case in which the path limit can still be exceeded.
func FitFileName(dir, name, ext string, limits Limits) string {
	suffix := ""
	if ext != "" {
		suffix = "." + strings.TrimPrefix(ext, ".")
	}

	if limits.MaxFileNameLength > 0 {
		name = truncateBytes(name, limits.MaxFileNameLength-len(suffix))
	}

	if limits.MaxPathLength > 0 {
		full := len(filepath.Join(dir, name+suffix))
		if over := full - limits.MaxPathLength; over > 0 {
			name = truncateBytes(name, len(name)-over)
		}
	}
	return name
}

// truncateBytes cuts s to at most n bytes without splitting a rune, keeping
// at least the first rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n < 1 {
		n = 1
	}
	cut := 0
	for i, r := range s {
		size := utf8.RuneLen(r)
		if i+size > n {
			break
		}
		cut = i + size
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		cut = size
	}
	return strings.TrimRight(s[:cut], " ")
}
