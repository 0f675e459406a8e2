package rag_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitaldash/vitaldash/internal/rag"
)

func TestChunkerShortDocumentSingleChunk(t *testing.T) {
	chunker := rag.NewChunker(750, 120)
	chunks := chunker.Split([]rag.Document{
		{UserID: "user-1", Kind: rag.KindProfile, Text: "Weight: 70\nHeight: 175"},
	})
	require.Len(t, chunks, 1)
	require.Equal(t, "Weight: 70\nHeight: 175", chunks[0].Text)
	require.Equal(t, "user-1", chunks[0].UserID)
	require.Equal(t, rag.KindProfile, chunks[0].Kind)
}

func TestChunkerSlidingWindowOverlap(t *testing.T) {
	chunker := rag.NewChunker(10, 4)
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := chunker.Split([]rag.Document{{UserID: "u", Kind: rag.KindNote, Text: text}})
	require.Equal(t, []string{"abcdefghij", "ghijklmnop", "mnopqrstuv", "stuvwxyz"}, chunkTexts(chunks))

	// Same input, same boundaries.
	again := chunker.Split([]rag.Document{{UserID: "u", Kind: rag.KindNote, Text: text}})
	require.Equal(t, chunkTexts(chunks), chunkTexts(again))
}

func TestChunkerRuneBoundaries(t *testing.T) {
	chunker := rag.NewChunker(5, 2)
	text := strings.Repeat("血糖值偏高", 3)
	chunks := chunker.Split([]rag.Document{{UserID: "u", Kind: rag.KindNote, Text: text}})
	for _, chunk := range chunks {
		require.True(t, len([]rune(chunk.Text)) <= 5)
		require.True(t, strings.ContainsAny(chunk.Text, "血糖值偏高"))
	}
}

func TestChunkerDropsBlankDocuments(t *testing.T) {
	chunker := rag.NewChunker(750, 120)
	chunks := chunker.Split([]rag.Document{
		{UserID: "u", Kind: rag.KindNote, Text: "   "},
		{UserID: "u", Kind: rag.KindNote, Text: ""},
	})
	require.Empty(t, chunks)
}

func chunkTexts(chunks []rag.Chunk) []string {
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	return texts
}
