//go:build !windows

package storage

import "os"

// syncDir fsyncs a directory so entries renamed into it are durable
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
