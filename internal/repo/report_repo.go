package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/vitaldash/vitaldash/internal/model"
	"github.com/vitaldash/vitaldash/internal/pkg/dbutil"
)

type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

func (r *ReportRepo) Create(ctx context.Context, report *model.Report, params []model.ReportParameter) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	data := map[string]interface{}{
		"id":          report.ID,
		"user_id":     report.UserID,
		"report_type": report.ReportType,
		"report_date": report.ReportDate,
		"summary":     report.Summary,
		"file_key":    report.FileKey,
		"ctime":       report.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("reports", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	for _, param := range params {
		row := map[string]interface{}{
			"id":         param.ID,
			"report_id":  report.ID,
			"name":       param.Name,
			"value":      param.Value,
			"unit":       param.Unit,
			"low_range":  param.LowRange,
			"high_range": param.HighRange,
		}
		sqlStr, args, err := builder.BuildInsert("report_parameters", []map[string]interface{}{row})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ReportRepo) ListByUser(ctx context.Context, userID string) ([]model.Report, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("reports", where,
		[]string{"id", "user_id", "report_type", "report_date", "summary", "file_key", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var reports []model.Report
	for rows.Next() {
		var report model.Report
		if err := rows.Scan(&report.ID, &report.UserID, &report.ReportType, &report.ReportDate,
			&report.Summary, &report.FileKey, &report.Ctime); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// LatestSummaries returns the most recent summary per report type. Only
// these participate in knowledge-base building.
func (r *ReportRepo) LatestSummaries(ctx context.Context, userID string) ([]model.ReportSummary, error) {
	const query = `
		SELECT r1.report_type, r1.summary
		FROM reports r1
		INNER JOIN (
			SELECT report_type, MAX(ctime) AS max_ctime
			FROM reports
			WHERE user_id = $1
			GROUP BY report_type
		) r2 ON r1.report_type = r2.report_type AND r1.ctime = r2.max_ctime
		WHERE r1.user_id = $2
		ORDER BY r1.report_type
	`
	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var summaries []model.ReportSummary
	for rows.Next() {
		var item model.ReportSummary
		if err := rows.Scan(&item.ReportType, &item.Summary); err != nil {
			return nil, err
		}
		summaries = append(summaries, item)
	}
	return summaries, rows.Err()
}

func (r *ReportRepo) ParameterSeries(ctx context.Context, userID, name string) ([]model.ParameterPoint, error) {
	const query = `
		SELECT r.report_date, p.value, p.unit, p.low_range, p.high_range
		FROM report_parameters p
		INNER JOIN reports r ON r.id = p.report_id
		WHERE r.user_id = $1 AND p.name = $2
		ORDER BY r.report_date
	`
	rows, err := r.db.QueryContext(ctx, query, userID, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var points []model.ParameterPoint
	for rows.Next() {
		var point model.ParameterPoint
		if err := rows.Scan(&point.ReportDate, &point.Value, &point.Unit, &point.LowRange, &point.HighRange); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, rows.Err()
}
