package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	cerrors "casecorpus/pkg/errors"
	"casecorpus/pkg/logger"
	"casecorpus/pkg/models"
	"casecorpus/pkg/storage"
)

// Registry is the durable set of source URLs whose documents have been
// fetched and stored. It is loaded fully at Open and written through to
// disk after every successful Record.
type Registry struct {
	path   string
	logger logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]models.CheckpointEntry
	claims  map[string]bool
	lastSeq int
}

// entry is the on-disk value. Older checkpoint files stored the case number
// as a bare string; those decode with Seq left at zero.
type entry struct {
	CaseNumber string    `json:"case_number"`
	Seq        int       `json:"seq"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (e *entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*e = entry{}
		return json.Unmarshal(data, &e.CaseNumber)
	}
	type plain entry
	return json.Unmarshal(data, (*plain)(e))
}

// Open loads the registry at path. A missing file yields an empty registry.
func Open(path string, log logger.Logger) (*Registry, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	r := &Registry{
		path:    path,
		logger:  log,
		now:     time.Now,
		entries: make(map[string]models.CheckpointEntry),
		claims:  make(map[string]bool),
	}

	legacy, err := r.load()
	if err != nil {
		return nil, err
	}

	if legacy > 0 {
		if err := r.backup(); err != nil {
			return nil, err
		}
		if err := r.flush(); err != nil {
			return nil, err
		}
		r.logger.InfoWithFields("Converted legacy checkpoint", map[string]interface{}{
			"path":    path,
			"entries": legacy,
		})
	}

	r.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"path":    path,
		"entries": len(r.entries),
	})
	return r, nil
}

// load reads the checkpoint file in key order and returns how many entries
// came from the legacy flat format.
func (r *Registry) load() (int, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return 0, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return 0, fmt.Errorf("failed to decode checkpoint: expected JSON object")
	}

	var unsequenced []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return 0, fmt.Errorf("failed to decode checkpoint: %w", err)
		}
		url, ok := tok.(string)
		if !ok {
			return 0, fmt.Errorf("failed to decode checkpoint: unexpected key %v", tok)
		}

		var e entry
		if err := dec.Decode(&e); err != nil {
			return 0, fmt.Errorf("failed to decode checkpoint entry %s: %w", url, err)
		}

		r.entries[url] = models.CheckpointEntry{
			SourceURL:  url,
			CaseNumber: e.CaseNumber,
			Seq:        e.Seq,
			RecordedAt: e.RecordedAt,
		}
		if e.Seq == 0 {
			unsequenced = append(unsequenced, url)
		} else if e.Seq > r.lastSeq {
			r.lastSeq = e.Seq
		}
	}

	// Legacy entries keep their file order after any sequenced ones
	for _, url := range unsequenced {
		r.lastSeq++
		e := r.entries[url]
		e.Seq = r.lastSeq
		r.entries[url] = e
	}

	return len(unsequenced), nil
}

// Has reports whether url has been recorded
func (r *Registry) Has(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[url]
	return ok
}

// Get returns the entry recorded for url
func (r *Registry) Get(url string) (models.CheckpointEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[url]
	return e, ok
}

// Claim reserves an unrecorded url for the caller. It returns false when the
// url is already recorded or claimed by someone else.
func (r *Registry) Claim(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[url]; ok {
		return false
	}
	if r.claims[url] {
		return false
	}
	r.claims[url] = true
	return true
}

// Release drops a claim without recording, leaving the url eligible again
func (r *Registry) Release(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.claims, url)
}

// Record commits link to the registry and flushes it to disk. Recording a
// url twice returns ErrAlreadyRecorded and leaves the registry unchanged.
func (r *Registry) Record(link models.LinkRecord) (models.CheckpointEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[link.SourceURL]; ok {
		delete(r.claims, link.SourceURL)
		return existing, cerrors.ErrAlreadyRecorded
	}

	e := models.CheckpointEntry{
		SourceURL:  link.SourceURL,
		CaseNumber: link.CaseNumber,
		Seq:        r.lastSeq + 1,
		RecordedAt: r.now().UTC(),
	}
	r.entries[link.SourceURL] = e

	if err := r.flush(); err != nil {
		delete(r.entries, link.SourceURL)
		return models.CheckpointEntry{}, &cerrors.Error{
			Type: cerrors.ErrorTypeStorage,
			Op:   "record",
			URL:  link.SourceURL,
			Err:  err,
		}
	}

	r.lastSeq = e.Seq
	delete(r.claims, link.SourceURL)

	r.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"url":         e.SourceURL,
		"case_number": e.CaseNumber,
		"seq":         e.Seq,
	})
	return e, nil
}

// All returns every entry ordered by Seq
func (r *Registry) All() []models.CheckpointEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]models.CheckpointEntry, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })
	return all
}

// Len returns the number of recorded entries
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Path returns the checkpoint file location
func (r *Registry) Path() string {
	return r.path
}

// flush writes the registry atomically. Callers hold r.mu.
func (r *Registry) flush() error {
	out := make(map[string]entry, len(r.entries))
	for url, e := range r.entries {
		out[url] = entry{CaseNumber: e.CaseNumber, Seq: e.Seq, RecordedAt: e.RecordedAt}
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := storage.WriteFileAtomic(r.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// backup copies the current checkpoint file next to itself before it is rewritten
func (r *Registry) backup() error {
	src, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(r.path + ".backup")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy checkpoint to backup: %w", err)
	}

	r.logger.Debug("Checkpoint backed up")
	return nil
}
