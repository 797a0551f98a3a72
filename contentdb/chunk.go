package contentdb

// ContentChunk is the unit of retrieval: a bounded span of curriculum text
// with its embedding, produced by the offline ingestion job. Immutable after
// load.
type ContentChunk struct {
	ChunkID   string
	Subject   string
	Chapter   string
	Section   string
	Body      string
	SourceURI string
	Embedding []float32
}
