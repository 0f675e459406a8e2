package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vitaldash/vitaldash/internal/ai"
	"github.com/vitaldash/vitaldash/internal/filestore"
	"github.com/vitaldash/vitaldash/internal/model"
	appErr "github.com/vitaldash/vitaldash/internal/pkg/errors"
	"github.com/vitaldash/vitaldash/internal/pkg/timeutil"
	"github.com/vitaldash/vitaldash/internal/rag"
	"github.com/vitaldash/vitaldash/internal/repo"
)

type ReportService struct {
	reports *repo.ReportRepo
	store   filestore.Store
	manager *ai.Manager
	kb      *rag.Store
}

func NewReportService(reports *repo.ReportRepo, store filestore.Store, manager *ai.Manager, kb *rag.Store) *ReportService {
	return &ReportService{reports: reports, store: store, manager: manager, kb: kb}
}

type IngestResult struct {
	Report     model.Report            `json:"report"`
	Parameters []model.ReportParameter `json:"parameters"`
}

// Ingest takes an uploaded report PDF plus its extracted text (OCR runs
// outside this service), summarizes it, extracts structured parameters,
// persists everything and appends the raw text to the knowledge base.
func (s *ReportService) Ingest(ctx context.Context, userID, filename string, file filestore.ReadSeekCloser, size int64, ocrText string) (*IngestResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID))
	ocrText = strings.TrimSpace(ocrText)
	if ocrText == "" {
		return nil, appErr.ErrInvalid
	}

	summary, err := s.manager.SummarizeReport(ctx, ocrText)
	if err != nil {
		return nil, err
	}

	reportType := "General"
	reportDate := time.Now().Format("2006-01-02")
	var params []model.ReportParameter
	reportID := newID()
	extraction, err := s.manager.ExtractReportData(ctx, ocrText)
	if err != nil {
		// The summary alone is still worth keeping.
		logger.Warn("structured extraction failed, storing summary only", zap.Error(err))
	} else {
		reportType = extraction.ReportType
		if extraction.ReportDate != "" {
			reportDate = extraction.ReportDate
		}
		for _, p := range extraction.Parameters {
			params = append(params, model.ReportParameter{
				ID:        newID(),
				ReportID:  reportID,
				Name:      p.Name,
				Value:     p.Value,
				Unit:      p.Unit,
				LowRange:  p.LowRange,
				HighRange: p.HighRange,
			})
		}
	}

	fileKey := ""
	if file != nil {
		fileKey = userID + "-" + reportID + ".pdf"
		if err := s.store.Save(ctx, fileKey, file, size); err != nil {
			return nil, err
		}
	}

	report := model.Report{
		ID:         reportID,
		UserID:     userID,
		ReportType: reportType,
		ReportDate: reportDate,
		Summary:    summary,
		FileKey:    fileKey,
		Ctime:      timeutil.NowUnix(),
	}
	if err := s.reports.Create(ctx, &report, params); err != nil {
		return nil, err
	}

	// Best effort: the report is stored even if the index append fails.
	if _, err := s.kb.Upsert(ctx, userID, []string{ocrText}, rag.KindNote); err != nil {
		logger.Warn("knowledge base upsert failed after report ingest", zap.Error(err))
	}

	logger.Info("report ingested",
		zap.String("report_id", reportID),
		zap.String("report_type", reportType),
		zap.Int("parameters", len(params)),
	)
	return &IngestResult{Report: report, Parameters: params}, nil
}

func (s *ReportService) List(ctx context.Context, userID string) ([]model.Report, error) {
	return s.reports.ListByUser(ctx, userID)
}

func (s *ReportService) ParameterSeries(ctx context.Context, userID, name string) ([]model.ParameterPoint, error) {
	if strings.TrimSpace(name) == "" {
		return nil, appErr.ErrInvalid
	}
	return s.reports.ParameterSeries(ctx, userID, name)
}

func (s *ReportService) OpenFile(ctx context.Context, key string) (filestore.ReadSeekCloser, error) {
	return s.store.Open(ctx, key)
}

func (s *ReportService) StoreType() string {
	return s.store.Type()
}
