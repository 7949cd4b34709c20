package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"casecorpus/pkg/models"
)

const rawExt = ".html"

var (
	filenameReplacer = strings.NewReplacer(
		"/", "-", `\`, "-", ":", "-",
		"*", "_", "?", "_", "|", "_", "<", "_", ">", "_",
		`"`, "'",
		",", "-",
		" ", "",
	)
	filenameSpecial  = regexp.MustCompile(`[%&{}$!@#^=+]`)
	filenameRepeated = regexp.MustCompile(`[-_]{2,}`)
)

// SanitizeFilename makes s safe to use as a file name on common filesystems
func SanitizeFilename(s string) string {
	s = filenameReplacer.Replace(s)
	s = filenameSpecial.ReplaceAllString(s, "_")
	s = filenameRepeated.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_.")
}

// DocumentID derives the raw document identifier from a source URL. It
// depends on the URL alone so the same link always maps to the same file.
func DocumentID(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	suffix := hex.EncodeToString(sum[:])[:12]

	base := ""
	if u, err := url.Parse(sourceURL); err == nil {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := len(segments) - 1; i >= 0; i-- {
			seg := segments[i]
			if seg == "" || strings.HasPrefix(seg, "index.") {
				continue
			}
			base = strings.TrimSuffix(seg, path.Ext(seg))
			break
		}
	}

	base = SanitizeFilename(base)
	if base == "" {
		return "doc-" + suffix
	}
	return base + "-" + suffix
}

// RawStore keeps fetched case documents on disk, one file per document ID
type RawStore struct {
	dir string
	mu  sync.RWMutex
	ids map[string]bool
}

// NewRawStore creates the store directory if needed and indexes existing documents
func NewRawStore(dir string) (*RawStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create raw directory: %w", err)
	}

	store := &RawStore{dir: dir, ids: make(map[string]bool)}
	if err := store.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan raw directory: %w", err)
	}
	return store, nil
}

func (s *RawStore) scanExistingFiles() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == rawExt {
			s.ids[strings.TrimSuffix(entry.Name(), rawExt)] = true
		}
	}
	return nil
}

// Path returns the file path for a document ID
func (s *RawStore) Path(id string) string {
	return filepath.Join(s.dir, id+rawExt)
}

// Put writes the document content, replacing any previous copy atomically
func (s *RawStore) Put(doc models.RawDocument) error {
	if doc.ID == "" {
		doc.ID = DocumentID(doc.Link.SourceURL)
	}
	if err := WriteFileAtomic(s.Path(doc.ID), doc.Content, 0644); err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
	}

	s.mu.Lock()
	s.ids[doc.ID] = true
	s.mu.Unlock()
	return nil
}

// Get reads the stored document for link
func (s *RawStore) Get(link models.LinkRecord) (models.RawDocument, error) {
	id := DocumentID(link.SourceURL)
	content, err := os.ReadFile(s.Path(id))
	if err != nil {
		return models.RawDocument{}, fmt.Errorf("failed to read document %s: %w", id, err)
	}

	doc := models.RawDocument{Link: link, ID: id, Content: content}
	if info, err := os.Stat(s.Path(id)); err == nil {
		doc.FetchedAt = info.ModTime()
	}
	return doc, nil
}

// Has reports whether a document for sourceURL is stored
func (s *RawStore) Has(sourceURL string) bool {
	id := DocumentID(sourceURL)

	s.mu.RLock()
	known := s.ids[id]
	s.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(s.Path(id)); err == nil {
		s.mu.Lock()
		s.ids[id] = true
		s.mu.Unlock()
		return true
	}
	return false
}

// Dir returns the store directory
func (s *RawStore) Dir() string {
	return s.dir
}

// Count returns the number of stored documents
func (s *RawStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
