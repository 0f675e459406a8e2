package service

import (
	"context"
	"errors"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vitaldash/vitaldash/internal/model"
	"github.com/vitaldash/vitaldash/internal/pkg/timeutil"
	"github.com/vitaldash/vitaldash/internal/rag"
	"github.com/vitaldash/vitaldash/internal/repo"
)

type ProfileService struct {
	profiles *repo.ProfileRepo
	kb       *rag.Store
}

func NewProfileService(profiles *repo.ProfileRepo, kb *rag.Store) *ProfileService {
	return &ProfileService{profiles: profiles, kb: kb}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*model.HealthProfile, error) {
	return s.profiles.GetByUser(ctx, userID)
}

// Upsert writes the profile and refreshes the knowledge base so later
// questions see the new values. The refresh is best effort: a provider
// outage must not block saving the profile.
func (s *ProfileService) Upsert(ctx context.Context, p *model.HealthProfile) error {
	p.Mtime = timeutil.NowUnix()
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return err
	}
	if _, err := s.kb.Rebuild(ctx, p.UserID); err != nil && !errors.Is(err, rag.ErrEmptyKnowledgeBase) {
		logutil.GetLogger(ctx).Warn("knowledge base refresh failed after profile update",
			zap.String("user_id", p.UserID), zap.Error(err))
	}
	return nil
}
