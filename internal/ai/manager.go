package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type ManagerConfig struct {
	Timeout       int
	MaxInputChars int
}

// Manager owns the prompts sent to the completion model and wraps every
// provider call with the configured timeout.
type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	return &Manager{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	return m.embedder.Embed(ctx, text, taskType)
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

// SummarizeReport produces a clean professional summary of raw report text.
func (m *Manager) SummarizeReport(ctx context.Context, reportText string) (string, error) {
	prompt := fmt.Sprintf(`You are a medical assistant AI.
The following is raw text extracted from a user's medical report.
Summarize the overall findings, trends and any red flags.
- Highlight abnormal values with reference ranges if given.
- Translate medical terms into plain language where possible.
- Output ONLY the summary, in markdown.

REPORT:
%s`, reportText)
	return m.generateText(ctx, prompt)
}

type ExtractedParameter struct {
	Name      string  `json:"parameter_name"`
	Value     float64 `json:"parameter_value"`
	Unit      string  `json:"unit"`
	LowRange  float64 `json:"low_range"`
	HighRange float64 `json:"high_range"`
}

type ReportExtraction struct {
	ReportType string               `json:"report_type"`
	ReportDate string               `json:"report_date"`
	Parameters []ExtractedParameter `json:"parameters"`
}

// ExtractReportData asks the model for the structured content of a report.
func (m *Manager) ExtractReportData(ctx context.Context, reportText string) (*ReportExtraction, error) {
	prompt := fmt.Sprintf(`You are a medical report data extractor.
Given this medical report text:
%s

Extract the following JSON object:
{
  "report_type": "...",
  "report_date": "YYYY-MM-DD",
  "parameters": [
    {"parameter_name": "...", "parameter_value": 0.0, "unit": "...", "low_range": 0.0, "high_range": 0.0}
  ]
}
Only return valid JSON. Do not add comments or explanations.`, reportText)
	result, err := m.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseExtraction(result)
}

// Answer builds a grounded prompt from the retrieved context chunks and
// the user's question. A single completion call, no retry.
func (m *Manager) Answer(ctx context.Context, question string, contexts []string) (string, error) {
	var sb strings.Builder
	for i, chunk := range contexts {
		sb.WriteString(fmt.Sprintf("[%d] %s\n\n", i+1, chunk))
	}
	prompt := fmt.Sprintf(`You are a personal health assistant.
Answer the user's question using ONLY the context below, which comes from
their own health profile and medical reports. If the context does not
contain the answer, say so instead of guessing.

CONTEXT:
%sQUESTION: %s`, sb.String(), question)
	return m.generateText(ctx, prompt)
}

// DietPlan generates diet suggestions from the profile rendering.
func (m *Manager) DietPlan(ctx context.Context, profileText string) (string, error) {
	prompt := fmt.Sprintf(`You are a nutrition assistant.
Based on the health profile below, suggest a practical daily diet plan.
- Respect listed chronic diseases, allergies and medications.
- Keep suggestions concrete (meals, portions, hydration).
- Output markdown with clear sections.

HEALTH PROFILE:
%s`, profileText)
	return m.generateText(ctx, prompt)
}

// GuidancePlan generates longer-term preventive health guidance.
func (m *Manager) GuidancePlan(ctx context.Context, profileText string) (string, error) {
	prompt := fmt.Sprintf(`You are a preventive health advisor.
Based on the health profile below, outline future health guidance:
likely risk areas, screenings to schedule, lifestyle adjustments and
their urgency (routine / follow-up soon / immediate attention).
Output markdown with clear sections.

HEALTH PROFILE:
%s`, profileText)
	return m.generateText(ctx, prompt)
}

func (m *Manager) generateText(ctx context.Context, prompt string) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	if m.cfg.MaxInputChars > 0 && len(prompt) > m.cfg.MaxInputChars {
		prompt = prompt[:m.cfg.MaxInputChars]
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func parseExtraction(output string) (*ReportExtraction, error) {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}
	var extraction ReportExtraction
	if err := json.Unmarshal([]byte(clean), &extraction); err != nil {
		return nil, fmt.Errorf("parse report extraction: %w", err)
	}
	if extraction.ReportType == "" {
		return nil, fmt.Errorf("report extraction missing report_type")
	}
	return &extraction, nil
}
