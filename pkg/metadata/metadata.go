package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"casecorpus/pkg/models"
	"casecorpus/pkg/storage"
)

// FetchMetadata records where and when one raw case document came from
type FetchMetadata struct {
	// Core identifiers
	ID        string `json:"id"`
	SourceURL string `json:"source_url"`

	// Discovery context
	Title      string `json:"title,omitempty"`
	CaseNumber string `json:"case_number,omitempty"`
	Window     string `json:"window,omitempty"`

	// Content
	FileSize int64  `json:"file_size"`
	SHA256   string `json:"sha256"`

	FetchedAt time.Time `json:"fetched_at"`
}

// FromRawDocument builds the sidecar for doc
func FromRawDocument(doc models.RawDocument) *FetchMetadata {
	sum := sha256.Sum256(doc.Content)
	meta := &FetchMetadata{
		ID:         doc.ID,
		SourceURL:  doc.Link.SourceURL,
		Title:      doc.Link.Title,
		CaseNumber: doc.Link.CaseNumber,
		FileSize:   int64(len(doc.Content)),
		SHA256:     hex.EncodeToString(sum[:]),
		FetchedAt:  doc.FetchedAt,
	}
	if !doc.Link.Window.End.IsZero() {
		meta.Window = doc.Link.Window.String()
	}
	return meta
}

// Path returns the sidecar path for a raw document path
func Path(rawPath string) string {
	return rawPath + ".json"
}

// Save writes the metadata next to the raw document
func (m *FetchMetadata) Save(rawPath string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := storage.WriteFileAtomic(Path(rawPath), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// Load reads the metadata stored next to a raw document
func Load(rawPath string) (*FetchMetadata, error) {
	data, err := os.ReadFile(Path(rawPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta FetchMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &meta, nil
}

// Store is a RawStore that keeps a metadata sidecar next to every document
type Store struct {
	*storage.RawStore
}

// NewStore wraps raw
func NewStore(raw *storage.RawStore) *Store {
	return &Store{RawStore: raw}
}

// Put stores the document, then its sidecar
func (s *Store) Put(doc models.RawDocument) error {
	if doc.ID == "" {
		doc.ID = storage.DocumentID(doc.Link.SourceURL)
	}
	if err := s.RawStore.Put(doc); err != nil {
		return err
	}
	return FromRawDocument(doc).Save(s.Path(doc.ID))
}

// Get reads the document and, when a sidecar exists, restores its fetch time
// and discovery title. Documents stored without a sidecar keep the file time.
func (s *Store) Get(link models.LinkRecord) (models.RawDocument, error) {
	doc, err := s.RawStore.Get(link)
	if err != nil {
		return doc, err
	}

	meta, err := Load(s.Path(doc.ID))
	if err != nil {
		return doc, nil
	}
	if !meta.FetchedAt.IsZero() {
		doc.FetchedAt = meta.FetchedAt
	}
	if doc.Link.Title == "" {
		doc.Link.Title = meta.Title
	}
	return doc, nil
}
