package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vitaldash/vitaldash/internal/ai"
	appErr "github.com/vitaldash/vitaldash/internal/pkg/errors"
	"github.com/vitaldash/vitaldash/internal/rag"
	"github.com/vitaldash/vitaldash/internal/repo"
)

var (
	ErrAIUnavailable      = ai.ErrUnavailable
	ErrKnowledgeBaseEmpty = rag.ErrEmptyKnowledgeBase
)

// AssistantService exposes the AI features: RAG question answering over
// the user's own data plus profile-driven guidance generation.
type AssistantService struct {
	manager  *ai.Manager
	kb       *rag.Store
	profiles *repo.ProfileRepo
	topK     int
	cache    *expirable.LRU[string, string]
}

func NewAssistantService(manager *ai.Manager, kb *rag.Store, profiles *repo.ProfileRepo, topK int, cacheSize int, cacheTTL time.Duration) *AssistantService {
	if topK <= 0 {
		topK = 4
	}
	if cacheSize <= 0 {
		cacheSize = 1000
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Hour
	}
	return &AssistantService{
		manager:  manager,
		kb:       kb,
		profiles: profiles,
		topK:     topK,
		cache:    expirable.NewLRU[string, string](cacheSize, nil, cacheTTL),
	}
}

type Answer struct {
	Text    string      `json:"text"`
	Sources []rag.Chunk `json:"sources"`
}

// Ask retrieves the most relevant chunks from the user's knowledge base
// and answers the question with a single grounded completion call. An
// empty knowledge base short-circuits before any completion-model call.
func (s *AssistantService) Ask(ctx context.Context, userID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, appErr.ErrInvalid
	}
	chunks, err := s.kb.Retrieve(ctx, userID, question, s.topK)
	if err != nil {
		return nil, err
	}
	contexts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contexts = append(contexts, chunk.Text)
	}
	text, err := s.manager.Answer(ctx, question, contexts)
	if err != nil {
		logutil.GetLogger(ctx).Error("answer generation failed",
			zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &Answer{Text: text, Sources: chunks}, nil
}

// RebuildKnowledgeBase regenerates the user's index from profile and
// report summaries, returning the resulting chunk count.
func (s *AssistantService) RebuildKnowledgeBase(ctx context.Context, userID string) (int, error) {
	return s.kb.Rebuild(ctx, userID)
}

// AddNotes appends free-form text (e.g. pasted report text) to the
// user's knowledge base.
func (s *AssistantService) AddNotes(ctx context.Context, userID string, texts []string) (int, error) {
	return s.kb.Upsert(ctx, userID, texts, rag.KindNote)
}

func (s *AssistantService) DietSuggestions(ctx context.Context, userID string) (string, error) {
	return s.profilePlan(ctx, userID, "diet", s.manager.DietPlan)
}

func (s *AssistantService) FutureGuidance(ctx context.Context, userID string) (string, error) {
	return s.profilePlan(ctx, userID, "guidance", s.manager.GuidancePlan)
}

func (s *AssistantService) profilePlan(ctx context.Context, userID, kind string, generate func(context.Context, string) (string, error)) (string, error) {
	profile, err := s.profiles.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return "", ErrKnowledgeBaseEmpty
		}
		return "", err
	}
	profileText := rag.ProfileText(profile)
	if profileText == "" {
		return "", ErrKnowledgeBaseEmpty
	}
	cacheKey := planCacheKey(kind, userID, profileText)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}
	plan, err := generate(ctx, profileText)
	if err != nil {
		return "", err
	}
	s.cache.Add(cacheKey, plan)
	return plan, nil
}

func planCacheKey(kind, userID, profileText string) string {
	sum := sha256.Sum256([]byte(kind + "\x00" + userID + "\x00" + profileText))
	return hex.EncodeToString(sum[:])
}
