package contentdb

import (
	"database/sql"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeEmbedding(vec []float32) []byte {
	blob := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func writeTestSnapshot(t *testing.T, chunks []ContentChunk) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "snapshot.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE chunks (
		chunk_id TEXT PRIMARY KEY,
		subject TEXT,
		chapter TEXT,
		section TEXT,
		body TEXT,
		source_uri TEXT,
		dim INTEGER,
		embedding BLOB
	)`)
	require.NoError(t, err)

	for _, c := range chunks {
		_, err = db.Exec(
			`INSERT INTO chunks VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ChunkID, c.Subject, c.Chapter, c.Section, c.Body, c.SourceURI,
			len(c.Embedding), encodeEmbedding(c.Embedding),
		)
		require.NoError(t, err)
	}
	return path
}

func TestLoadSnapshot(t *testing.T) {
	want := []ContentChunk{
		{
			ChunkID:   "phy-light-001",
			Subject:   "Physics",
			Chapter:   "Light",
			Section:   "Reflection",
			Body:      "Light bounces off smooth surfaces at equal angles.",
			SourceURI: "ncert/class10/science/ch10.md",
			Embedding: []float32{0.25, -0.5, 1.0},
		},
		{
			ChunkID:   "bio-life-002",
			Subject:   "Biology",
			Chapter:   "Life Processes",
			Section:   "Photosynthesis",
			Body:      "Chlorophyll captures sunlight to build glucose.",
			SourceURI: "ncert/class10/science/ch6.md",
			Embedding: []float32{0.1, 0.9, -0.2},
		},
	}
	path := writeTestSnapshot(t, want)

	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[string]ContentChunk{}
	for _, c := range got {
		byID[c.ChunkID] = c
	}
	assert.Equal(t, want[0].Body, byID["phy-light-001"].Body)
	assert.Equal(t, want[0].Embedding, byID["phy-light-001"].Embedding)
	assert.Equal(t, "Biology", byID["bio-life-002"].Subject)
}

func TestLoadSnapshotRejectsBadData(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.db"))
		assert.Error(t, err)
	})

	t.Run("empty snapshot", func(t *testing.T) {
		path := writeTestSnapshot(t, nil)
		_, err := LoadSnapshot(path)
		assert.ErrorContains(t, err, "no chunks")
	})

	t.Run("mismatched dimensions", func(t *testing.T) {
		path := writeTestSnapshot(t, []ContentChunk{
			{ChunkID: "a", Embedding: []float32{1, 2, 3}},
			{ChunkID: "b", Embedding: []float32{1, 2}},
		})
		_, err := LoadSnapshot(path)
		assert.ErrorContains(t, err, "dimension")
	})
}

func TestDecodeEmbedding(t *testing.T) {
	vec := []float32{1.5, -2.25, 0}
	decoded, err := decodeEmbedding(encodeEmbedding(vec), 3)
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeEmbedding([]byte{1, 2, 3}, 3)
	assert.Error(t, err)
}
