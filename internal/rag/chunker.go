package rag

import "strings"

const (
	DefaultChunkSize    = 750
	DefaultChunkOverlap = 120
)

// Chunker splits documents with a deterministic sliding window over runes.
// Same input text, same configuration, same boundaries.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split chunks each document in order, carrying the document's user id and
// kind through unchanged. Seq numbers are assigned later, at insert time.
func (c *Chunker) Split(docs []Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		for _, piece := range c.splitText(doc.Text) {
			chunks = append(chunks, Chunk{
				UserID: doc.UserID,
				Kind:   doc.Kind,
				Text:   piece,
			})
		}
	}
	return chunks
}

func (c *Chunker) splitText(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	runes := []rune(trimmed)
	if len(runes) <= c.size {
		return []string{trimmed}
	}
	step := c.size - c.overlap
	var pieces []string
	for start := 0; ; start += step {
		end := start + c.size
		if end >= len(runes) {
			pieces = append(pieces, string(runes[start:]))
			break
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
