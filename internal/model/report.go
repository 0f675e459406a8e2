package model

type Report struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	ReportType string `json:"report_type"`
	ReportDate string `json:"report_date"`
	Summary    string `json:"summary"`
	FileKey    string `json:"file_key"`
	Ctime      int64  `json:"ctime"`
}

// ReportSummary is the latest summary for one report type of one user.
// Later ingestions of the same type supersede it.
type ReportSummary struct {
	ReportType string `json:"report_type"`
	Summary    string `json:"summary"`
}

type ReportParameter struct {
	ID        string  `json:"id"`
	ReportID  string  `json:"report_id"`
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	LowRange  float64 `json:"low_range"`
	HighRange float64 `json:"high_range"`
}

// ParameterPoint is one sample of a named parameter over time, as
// plotted by trend views.
type ParameterPoint struct {
	ReportDate string  `json:"report_date"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	LowRange   float64 `json:"low_range"`
	HighRange  float64 `json:"high_range"`
}
