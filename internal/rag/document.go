package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/vitaldash/vitaldash/internal/model"
	appErr "github.com/vitaldash/vitaldash/internal/pkg/errors"
)

type Kind string

const (
	KindProfile Kind = "profile"
	KindReports Kind = "reports"
	KindNote    Kind = "note"
)

// Document is an ephemeral unit of text produced fresh on every rebuild;
// it is never persisted standalone.
type Document struct {
	UserID string
	Kind   Kind
	Text   string
}

// Chunk is the atomic unit stored in the vector index. Seq is the
// insertion sequence inside the user's index and breaks similarity ties.
type Chunk struct {
	UserID string `json:"user_id"`
	Kind   Kind   `json:"kind"`
	Seq    int    `json:"seq"`
	Text   string `json:"text"`
}

type ProfileSource interface {
	GetByUser(ctx context.Context, userID string) (*model.HealthProfile, error)
}

type SummarySource interface {
	LatestSummaries(ctx context.Context, userID string) ([]model.ReportSummary, error)
}

// DocumentBuilder turns a user's profile and latest per-type report
// summaries into kind-tagged documents. Read-only against the store.
type DocumentBuilder struct {
	profiles  ProfileSource
	summaries SummarySource
}

func NewDocumentBuilder(profiles ProfileSource, summaries SummarySource) *DocumentBuilder {
	return &DocumentBuilder{profiles: profiles, summaries: summaries}
}

// Build returns the user's documents; an empty slice means "nothing to
// index", not an error.
func (b *DocumentBuilder) Build(ctx context.Context, userID string) ([]Document, error) {
	var docs []Document

	profile, err := b.profiles.GetByUser(ctx, userID)
	if err != nil && !appErr.IsNotFound(err) {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile != nil {
		if text := ProfileText(profile); text != "" {
			docs = append(docs, Document{UserID: userID, Kind: KindProfile, Text: text})
		}
	}

	summaries, err := b.summaries.LatestSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load report summaries: %w", err)
	}
	if len(summaries) > 0 {
		docs = append(docs, Document{UserID: userID, Kind: KindReports, Text: summariesText(summaries)})
	}
	return docs, nil
}

// ProfileText renders a profile one line per field, omitting fields with
// no value.
func ProfileText(p *model.HealthProfile) string {
	var lines []string
	appendNum := func(label string, value float64) {
		if value != 0 {
			lines = append(lines, label+": "+strconv.FormatFloat(value, 'f', -1, 64))
		}
	}
	appendStr := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, label+": "+strings.TrimSpace(value))
		}
	}
	appendNum("Weight", p.Weight)
	appendNum("Height", p.Height)
	if p.HeartRate != 0 {
		lines = append(lines, "Heart Rate: "+strconv.FormatInt(p.HeartRate, 10))
	}
	appendNum("Water Intake", p.WaterIntake)
	appendNum("Sleep", p.SleepHours)
	appendStr("Blood Group", p.BloodGroup)
	appendStr("Blood Pressure", p.BloodPressure)
	appendStr("Chronic Diseases", p.ChronicDiseases)
	appendStr("Family History", p.FamilyHistory)
	appendStr("Allergies", p.Allergies)
	appendStr("Medications", p.Medications)
	appendStr("Diet", p.Diet)
	appendStr("Smoking", p.Smoking)
	appendStr("Alcohol", p.Alcohol)
	return strings.Join(lines, "\n")
}

func summariesText(summaries []model.ReportSummary) string {
	parts := make([]string, 0, len(summaries))
	for _, s := range summaries {
		parts = append(parts, fmt.Sprintf("%s Report Summary:\n%s", s.ReportType, FlattenMarkdown(s.Summary)))
	}
	return strings.Join(parts, "\n\n")
}

// FlattenMarkdown strips markdown structure down to plain text so that
// model-generated summaries embed without formatting noise.
func FlattenMarkdown(markdown string) string {
	source := []byte(markdown)
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var parts []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if txt := extractText(node, source); txt != "" {
			parts = append(parts, txt)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(markdown)
	}
	return strings.Join(parts, "\n")
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
