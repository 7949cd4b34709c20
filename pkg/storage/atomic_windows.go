//go:build windows

package storage

// syncDir is a no-op on Windows, which cannot fsync a directory handle
func syncDir(dir string) error { return nil }
