package ai

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseExtractionPlainJSON(t *testing.T) {
	extraction, err := parseExtraction(`{
		"report_type": "Blood Test",
		"report_date": "2025-11-03",
		"parameters": [
			{"parameter_name": "Glucose", "parameter_value": 110, "unit": "mg/dL", "low_range": 70, "high_range": 100}
		]
	}`)
	require.NoError(t, err)
	require.Equal(t, "Blood Test", extraction.ReportType)
	require.Equal(t, "2025-11-03", extraction.ReportDate)
	require.Len(t, extraction.Parameters, 1)
	require.Equal(t, "Glucose", extraction.Parameters[0].Name)
	require.Equal(t, 110.0, extraction.Parameters[0].Value)
	require.Equal(t, "mg/dL", extraction.Parameters[0].Unit)
}

func TestParseExtractionFencedJSON(t *testing.T) {
	extraction, err := parseExtraction("```json\n{\"report_type\": \"Lipid Panel\", \"parameters\": []}\n```")
	require.NoError(t, err)
	require.Equal(t, "Lipid Panel", extraction.ReportType)
}

func TestParseExtractionSurroundingProse(t *testing.T) {
	extraction, err := parseExtraction(`Here is the extracted data:
{"report_type": "X-Ray", "report_date": "", "parameters": []}
Let me know if you need anything else.`)
	require.NoError(t, err)
	require.Equal(t, "X-Ray", extraction.ReportType)
}

func TestParseExtractionRejectsGarbage(t *testing.T) {
	_, err := parseExtraction("the report looks fine to me")
	require.Error(t, err)
}

func TestParseExtractionRequiresReportType(t *testing.T) {
	_, err := parseExtraction(`{"report_date": "2025-01-01", "parameters": []}`)
	require.Error(t, err)
}

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestManagerAnswerGroundsPrompt(t *testing.T) {
	gen := &stubGenerator{response: "Your glucose is mildly elevated."}
	manager := NewManager(gen, nil, ManagerConfig{})

	answer, err := manager.Answer(context.Background(), "Is my glucose ok?",
		[]string{"Glucose: 110 mg/dL (range 70-100)"})
	require.NoError(t, err)
	require.Equal(t, "Your glucose is mildly elevated.", answer)
	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], "Is my glucose ok?")
	require.Contains(t, gen.prompts[0], "Glucose: 110 mg/dL")
}

func TestManagerTruncatesOversizedPrompt(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	manager := NewManager(gen, nil, ManagerConfig{MaxInputChars: 200})

	_, err := manager.SummarizeReport(context.Background(), strings.Repeat("x", 10000))
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	require.Len(t, gen.prompts[0], 200)
}

func TestManagerEmptyResponseIsError(t *testing.T) {
	gen := &stubGenerator{response: "   "}
	manager := NewManager(gen, nil, ManagerConfig{})

	_, err := manager.SummarizeReport(context.Background(), "some report")
	require.Error(t, err)
}

func TestManagerGeneratorErrorPassthrough(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("upstream boom")}
	manager := NewManager(gen, nil, ManagerConfig{})

	_, err := manager.DietPlan(context.Background(), "Weight: 70")
	require.ErrorContains(t, err, "upstream boom")
}
