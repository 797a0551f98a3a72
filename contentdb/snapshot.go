package contentdb

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

// LoadSnapshot reads the content snapshot produced by the offline ingestion
// job. The file is opened read-only; the core never mutates or rebuilds it.
func LoadSnapshot(path string) ([]ContentChunk, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("snapshot ping failed: %w", err)
	}

	rows, err := db.Query(`SELECT chunk_id, subject, chapter, section, body, source_uri, dim, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("query chunks failed: %w", err)
	}
	defer rows.Close()

	var chunks []ContentChunk
	dim := 0
	for rows.Next() {
		var c ContentChunk
		var rowDim int
		var blob []byte
		if err := rows.Scan(&c.ChunkID, &c.Subject, &c.Chapter, &c.Section, &c.Body, &c.SourceURI, &rowDim, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk failed: %w", err)
		}

		if dim == 0 {
			dim = rowDim
		} else if rowDim != dim {
			return nil, fmt.Errorf("chunk %s: dimension %d, snapshot uses %d", c.ChunkID, rowDim, dim)
		}

		c.Embedding, err = decodeEmbedding(blob, rowDim)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ChunkID, err)
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("snapshot has no chunks")
	}

	return chunks, nil
}

// decodeEmbedding unpacks a little-endian float32 blob.
func decodeEmbedding(blob []byte, dim int) ([]float32, error) {
	if len(blob) != dim*4 {
		return nil, fmt.Errorf("embedding blob is %d bytes, want %d", len(blob), dim*4)
	}

	vec := make([]float32, dim)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}
