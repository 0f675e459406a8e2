package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	collectionName   = "chunks"
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"
)

var (
	// ErrEmptyKnowledgeBase means there was nothing to index: no profile,
	// no summaries and, on the upsert path, no non-blank texts. It is a
	// legitimate "empty" outcome, not a failure.
	ErrEmptyKnowledgeBase = errors.New("knowledge base empty")

	// ErrConfigMismatch means the configured embedder no longer matches
	// the model or dimensionality the persisted index was built with.
	// Fatal for the request; vectors are never padded or truncated.
	ErrConfigMismatch = errors.New("embedding config mismatch")
)

type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

// LoadState tags the outcome of opening a persisted index, so callers can
// tell "never built" apart from "built but unreadable".
type LoadState int

const (
	LoadAbsent LoadState = iota
	LoadOK
	LoadCorrupt
)

type indexMeta struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	BuiltAt    int64  `json:"built_at"`
}

// Store manages one persistent vector index per user under a user-scoped
// directory. Indexes are replaced wholesale on rebuild (rename-on-write,
// atomic-or-absent) and grown in place on upsert. One user's index is
// never visible to another user's queries.
type Store struct {
	dir      string
	builder  *DocumentBuilder
	chunker  *Chunker
	embedder Embedder
	locks    sync.Map // user id -> *sync.Mutex
}

func NewStore(dir string, builder *DocumentBuilder, chunker *Chunker, embedder Embedder) *Store {
	return &Store{
		dir:      dir,
		builder:  builder,
		chunker:  chunker,
		embedder: embedder,
	}
}

func (s *Store) userLock(userID string) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (s *Store) userDir(userID string) string {
	return filepath.Join(s.dir, "user_"+userID)
}

func (s *Store) metaPath(userID string) string {
	return s.userDir(userID) + ".meta.json"
}

// Rebuild regenerates the user's index from scratch out of the profile
// and latest report summaries. Returns the chunk count, or
// ErrEmptyKnowledgeBase when there is nothing to index (in which case no
// index is left on disk).
func (s *Store) Rebuild(ctx context.Context, userID string) (int, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	return s.rebuildLocked(ctx, userID)
}

func (s *Store) rebuildLocked(ctx context.Context, userID string) (int, error) {
	docs, err := s.builder.Build(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		s.removeLocked(ctx, userID)
		return 0, ErrEmptyKnowledgeBase
	}
	chunks := s.chunker.Split(docs)
	if err := s.buildLocked(ctx, userID, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Upsert appends caller-supplied free-form texts to the user's index,
// dropping blank entries. When no index exists the new one is seeded from
// the texts alone; profile and summaries are intentionally not pulled on
// this path. Returns the number of chunks added.
func (s *Store) Upsert(ctx context.Context, userID string, texts []string, kind Kind) (int, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID))
	chunks := s.chunker.Split(textsToDocuments(userID, texts, kind))

	index, state, err := s.openLocked(ctx, userID)
	if err != nil {
		return 0, err
	}
	if state == LoadCorrupt {
		logger.Warn("persisted index unreadable, replacing")
		s.removeLocked(ctx, userID)
		state = LoadAbsent
	}
	if state == LoadAbsent {
		if len(chunks) == 0 {
			return 0, ErrEmptyKnowledgeBase
		}
		if err := s.buildLocked(ctx, userID, chunks); err != nil {
			return 0, err
		}
		return len(chunks), nil
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := s.appendLocked(ctx, index, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Retrieve returns up to k chunks most similar to the query, ordered by
// similarity, ties broken by insertion sequence. An absent or unreadable
// index triggers a rebuild first; ErrEmptyKnowledgeBase when there is
// still nothing to search.
func (s *Store) Retrieve(ctx context.Context, userID, query string, k int) ([]Chunk, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID))
	index, state, err := s.openLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state != LoadOK {
		if state == LoadCorrupt {
			logger.Warn("persisted index unreadable, rebuilding")
			s.removeLocked(ctx, userID)
		}
		if _, err := s.rebuildLocked(ctx, userID); err != nil {
			return nil, err
		}
		index, state, err = s.openLocked(ctx, userID)
		if err != nil {
			return nil, err
		}
		if state != LoadOK {
			return nil, ErrEmptyKnowledgeBase
		}
	}

	queryEmb, err := s.embedder.Embed(ctx, query, taskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryEmb) != index.meta.Dimensions {
		return nil, fmt.Errorf("%w: query embedding has %d dimensions, index has %d",
			ErrConfigMismatch, len(queryEmb), index.meta.Dimensions)
	}

	if k <= 0 {
		k = 4
	}
	total := index.collection.Count()
	if total == 0 {
		return nil, ErrEmptyKnowledgeBase
	}
	if k > total {
		k = total
	}
	// Query the whole collection so equal-similarity chunks at the k
	// boundary resolve by insertion order, not by chromem's heap order.
	results, err := index.collection.QueryEmbedding(ctx, queryEmb, total, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	chunks := make([]Chunk, 0, len(results))
	for _, result := range results {
		seq, _ := strconv.Atoi(result.Metadata["seq"])
		chunks = append(chunks, Chunk{
			UserID: result.Metadata["user_id"],
			Kind:   Kind(result.Metadata["kind"]),
			Seq:    seq,
			Text:   result.Content,
		})
	}
	sim := make(map[int]float32, len(results))
	for _, result := range results {
		seq, _ := strconv.Atoi(result.Metadata["seq"])
		sim[seq] = result.Similarity
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		if sim[chunks[i].Seq] != sim[chunks[j].Seq] {
			return sim[chunks[i].Seq] > sim[chunks[j].Seq]
		}
		return chunks[i].Seq < chunks[j].Seq
	})
	if len(chunks) > k {
		chunks = chunks[:k]
	}
	return chunks, nil
}

// Count reports the number of chunks in the user's index, zero when absent.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	index, state, err := s.openLocked(ctx, userID)
	if err != nil {
		return 0, err
	}
	if state != LoadOK {
		return 0, nil
	}
	return index.collection.Count(), nil
}

// Load reports the state of the user's persisted index without mutating it.
func (s *Store) Load(ctx context.Context, userID string) (LoadState, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	_, state, err := s.openLocked(ctx, userID)
	return state, err
}

type openIndex struct {
	collection *chromem.Collection
	meta       indexMeta
}

func (s *Store) openLocked(ctx context.Context, userID string) (*openIndex, LoadState, error) {
	dir := s.userDir(userID)
	if _, err := os.Stat(dir); err != nil {
		return nil, LoadAbsent, nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID))
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		logger.Warn("open persisted index failed", zap.Error(err))
		return nil, LoadCorrupt, nil
	}
	collection := db.GetCollection(collectionName, s.embedFunc())
	if collection == nil {
		logger.Warn("persisted index has no chunk collection")
		return nil, LoadCorrupt, nil
	}
	raw, err := os.ReadFile(s.metaPath(userID))
	if err != nil {
		logger.Warn("read index meta failed", zap.Error(err))
		return nil, LoadCorrupt, nil
	}
	var meta indexMeta
	if err := json.Unmarshal(raw, &meta); err != nil || meta.Dimensions <= 0 {
		logger.Warn("decode index meta failed", zap.Error(err))
		return nil, LoadCorrupt, nil
	}
	if meta.Model != s.embedder.ModelName() {
		return nil, LoadOK, fmt.Errorf("%w: index built with model %q, embedder is %q",
			ErrConfigMismatch, meta.Model, s.embedder.ModelName())
	}
	return &openIndex{collection: collection, meta: meta}, LoadOK, nil
}

// buildLocked writes a brand-new index into a temp directory and swaps it
// into place, so a failed build never leaves a half-written index behind.
func (s *Store) buildLocked(ctx context.Context, userID string, chunks []Chunk) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(s.dir, fmt.Sprintf(".build-%s-%d", userID, time.Now().UnixNano()))
	ok := false
	defer func() {
		if !ok {
			_ = os.RemoveAll(tmp)
		}
	}()

	db, err := chromem.NewPersistentDB(tmp, false)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	collection, err := db.CreateCollection(collectionName, nil, s.embedFunc())
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	dims := 0
	for seq, chunk := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunk.Text, taskTypeDocument)
		if err != nil {
			return fmt.Errorf("embed chunk: %w", err)
		}
		if dims == 0 {
			dims = len(embedding)
		} else if len(embedding) != dims {
			return fmt.Errorf("%w: embedder returned %d dimensions after %d", ErrConfigMismatch, len(embedding), dims)
		}
		if err := collection.AddDocument(ctx, chromem.Document{
			ID:        chunkID(seq),
			Metadata:  chunkMetadata(chunk, seq),
			Embedding: embedding,
			Content:   chunk.Text,
		}); err != nil {
			return fmt.Errorf("add chunk: %w", err)
		}
	}

	// Old meta goes before the swap and new meta after it: a crash at any
	// point leaves either no index or an index without meta, both of which
	// load as absent-or-corrupt and get rebuilt.
	final := s.userDir(userID)
	if err := os.RemoveAll(final); err != nil {
		return err
	}
	if err := os.Remove(s.metaPath(userID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		return err
	}
	ok = true
	meta := indexMeta{
		Model:      s.embedder.ModelName(),
		Dimensions: dims,
		BuiltAt:    time.Now().Unix(),
	}
	if err := writeMeta(s.metaPath(userID), meta); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("index built",
		zap.String("user_id", userID),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimensions", dims),
	)
	return nil
}

func (s *Store) appendLocked(ctx context.Context, index *openIndex, chunks []Chunk) error {
	base := index.collection.Count()
	for i, chunk := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunk.Text, taskTypeDocument)
		if err != nil {
			return fmt.Errorf("embed chunk: %w", err)
		}
		if len(embedding) != index.meta.Dimensions {
			return fmt.Errorf("%w: embedder returned %d dimensions, index has %d",
				ErrConfigMismatch, len(embedding), index.meta.Dimensions)
		}
		seq := base + i
		if err := index.collection.AddDocument(ctx, chromem.Document{
			ID:        chunkID(seq),
			Metadata:  chunkMetadata(chunk, seq),
			Embedding: embedding,
			Content:   chunk.Text,
		}); err != nil {
			return fmt.Errorf("add chunk: %w", err)
		}
	}
	return nil
}

func (s *Store) removeLocked(ctx context.Context, userID string) {
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID))
	if err := os.RemoveAll(s.userDir(userID)); err != nil {
		logger.Warn("remove index dir failed", zap.Error(err))
	}
	if err := os.Remove(s.metaPath(userID)); err != nil && !os.IsNotExist(err) {
		logger.Warn("remove index meta failed", zap.Error(err))
	}
}

func (s *Store) embedFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.Embed(ctx, text, taskTypeQuery)
	}
}

func textsToDocuments(userID string, texts []string, kind Kind) []Document {
	var docs []Document
	for _, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		docs = append(docs, Document{UserID: userID, Kind: kind, Text: trimmed})
	}
	return docs
}

func chunkID(seq int) string {
	return fmt.Sprintf("chunk-%06d", seq)
}

func chunkMetadata(chunk Chunk, seq int) map[string]string {
	return map[string]string{
		"user_id": chunk.UserID,
		"kind":    string(chunk.Kind),
		"seq":     strconv.Itoa(seq),
	}
}

func writeMeta(path string, meta indexMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
