package rag_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitaldash/vitaldash/internal/model"
	appErr "github.com/vitaldash/vitaldash/internal/pkg/errors"
	"github.com/vitaldash/vitaldash/internal/rag"
)

type fakeProfiles struct {
	profile *model.HealthProfile
}

func (f *fakeProfiles) GetByUser(ctx context.Context, userID string) (*model.HealthProfile, error) {
	if f.profile == nil {
		return nil, appErr.ErrNotFound
	}
	return f.profile, nil
}

type fakeSummaries struct {
	summaries []model.ReportSummary
}

func (f *fakeSummaries) LatestSummaries(ctx context.Context, userID string) ([]model.ReportSummary, error) {
	return f.summaries, nil
}

func TestProfileTextOmitsEmptyFields(t *testing.T) {
	text := rag.ProfileText(&model.HealthProfile{
		Weight:     70.5,
		HeartRate:  62,
		BloodGroup: "O+",
	})
	require.Contains(t, text, "Weight: 70.5")
	require.Contains(t, text, "Heart Rate: 62")
	require.Contains(t, text, "Blood Group: O+")
	require.NotContains(t, text, "Height")
	require.NotContains(t, text, "Allergies")
}

func TestProfileTextEmptyProfile(t *testing.T) {
	require.Equal(t, "", rag.ProfileText(&model.HealthProfile{}))
}

func TestDocumentBuilderProfileAndSummaries(t *testing.T) {
	builder := rag.NewDocumentBuilder(
		&fakeProfiles{profile: &model.HealthProfile{Weight: 70}},
		&fakeSummaries{summaries: []model.ReportSummary{
			{ReportType: "Blood Test", Summary: "Glucose slightly elevated."},
			{ReportType: "Lipid Panel", Summary: "Cholesterol within range."},
		}},
	)
	docs, err := builder.Build(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, rag.KindProfile, docs[0].Kind)
	require.Contains(t, docs[0].Text, "Weight: 70")
	require.Equal(t, rag.KindReports, docs[1].Kind)
	require.Contains(t, docs[1].Text, "Blood Test Report Summary:\nGlucose slightly elevated.")
	require.Contains(t, docs[1].Text, "Lipid Panel Report Summary:\nCholesterol within range.")
}

func TestDocumentBuilderNothingToIndex(t *testing.T) {
	builder := rag.NewDocumentBuilder(&fakeProfiles{}, &fakeSummaries{})
	docs, err := builder.Build(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestFlattenMarkdown(t *testing.T) {
	flat := rag.FlattenMarkdown("# Findings\n\n- **Glucose** is `high`\n- [Ref](https://example.com)")
	require.Contains(t, flat, "Findings")
	require.Contains(t, flat, "Glucose")
	require.Contains(t, flat, "high")
	require.NotContains(t, flat, "#")
	require.NotContains(t, flat, "**")
}
