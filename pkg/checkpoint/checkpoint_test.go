package checkpoint

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "casecorpus/pkg/errors"
	"casecorpus/pkg/logger"
	"casecorpus/pkg/models"
)

func link(url, caseNumber string) models.LinkRecord {
	return models.LinkRecord{SourceURL: url, CaseNumber: caseNumber}
}

func TestRegistryRecordAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "scraped_links.json")

	reg, err := Open(path, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())

	e1, err := reg.Record(link("https://a.test/1", "39001"))
	require.NoError(t, err)
	assert.Equal(t, 1, e1.Seq)

	e2, err := reg.Record(link("https://a.test/2", "39002"))
	require.NoError(t, err)
	assert.Equal(t, 2, e2.Seq)

	reopened, err := Open(path, logger.NewNopLogger())
	require.NoError(t, err)
	assert.True(t, reopened.Has("https://a.test/1"))
	assert.True(t, reopened.Has("https://a.test/2"))
	assert.False(t, reopened.Has("https://a.test/3"))

	all := reopened.All()
	require.Len(t, all, 2)
	assert.Equal(t, "https://a.test/1", all[0].SourceURL)
	assert.Equal(t, "39002", all[1].CaseNumber)

	e3, err := reopened.Record(link("https://a.test/3", ""))
	require.NoError(t, err)
	assert.Equal(t, 3, e3.Seq, "sequence continues across runs")
}

func TestRegistryRecordIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	reg, err := Open(path, nil)
	require.NoError(t, err)

	_, err = reg.Record(link("https://a.test/1", "39001"))
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	existing, err := reg.Record(link("https://a.test/1", "other"))
	assert.True(t, errors.Is(err, cerrors.ErrAlreadyRecorded))
	assert.Equal(t, "39001", existing.CaseNumber)
	assert.Equal(t, 1, reg.Len())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRegistryFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	reg, err := Open(path, nil)
	require.NoError(t, err)
	_, err = reg.Record(link("https://a.test/1", "39001"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "https://a.test/1")
	assert.Equal(t, "39001", raw["https://a.test/1"]["case_number"])
	assert.Equal(t, float64(1), raw["https://a.test/1"]["seq"])
	assert.NotEmpty(t, raw["https://a.test/1"]["recorded_at"])
}

func TestRegistryLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraped_links.json")
	legacy := `{
    "https://a.test/z": "38800",
    "https://a.test/a": "citation-2020 SCC 5"
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	tl := logger.NewTestLogger()
	reg, err := Open(path, tl)
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "https://a.test/z", all[0].SourceURL, "legacy entries keep file order")
	assert.Equal(t, 1, all[0].Seq)
	assert.Equal(t, "citation-2020 SCC 5", all[1].CaseNumber)
	assert.True(t, tl.HasMessage("Converted legacy checkpoint"))

	backup, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Equal(t, legacy, string(backup))

	// The rewritten file reopens without conversion
	tl.Clear()
	reopened, err := Open(path, tl)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())
	assert.False(t, tl.HasMessage("Converted legacy checkpoint"))
}

func TestRegistryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	require.NoError(t, os.WriteFile(path, []byte("[1,2,3]"), 0644))

	_, err := Open(path, nil)
	assert.Error(t, err)
}

func TestRegistryClaimRelease(t *testing.T) {
	reg, err := Open(filepath.Join(t.TempDir(), "links.json"), nil)
	require.NoError(t, err)

	assert.True(t, reg.Claim("https://a.test/1"))
	assert.False(t, reg.Claim("https://a.test/1"), "claimed twice")

	reg.Release("https://a.test/1")
	assert.True(t, reg.Claim("https://a.test/1"), "released claim is available again")

	_, err = reg.Record(link("https://a.test/1", "1"))
	require.NoError(t, err)
	assert.False(t, reg.Claim("https://a.test/1"), "recorded url cannot be claimed")
}

func TestRegistryConcurrentClaims(t *testing.T) {
	reg, err := Open(filepath.Join(t.TempDir(), "links.json"), nil)
	require.NoError(t, err)

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.Claim("https://a.test/shared") {
				atomic.AddInt32(&winners, 1)
				_, err := reg.Record(link("https://a.test/shared", "x"))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
	assert.Equal(t, 1, reg.Len())
}
