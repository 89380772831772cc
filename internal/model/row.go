package model

import (
	"time"

	"github.com/verte-zerg/qsurvey/internal/datecode"
)

// Layouts without a zone are wall-clock values and are not converted.
var startDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Row is the display projection of a SurveyRecord.
type Row struct {
	ResultID   string `json:"result_id"`
	OutletName string `json:"outlet_name"`
	Zone       string `json:"zone"`
	StartDate  string `json:"start_date"`
	Brand      string `json:"brand"`
	SKU        string `json:"sku"`
	BatchNo    string `json:"batch_no"`
	MFGDate    string `json:"mfg_date"`
	ExpDate    string `json:"exp_date"`
	Freshness  string `json:"freshness"`
	Defects    bool   `json:"visual_defects"`
	DefectType string `json:"defect_type"`
	ImageCount int    `json:"images"`
}

// NewRow decodes the record's date codes relative to today.
func NewRow(r SurveyRecord, today time.Time) Row {
	return Row{
		ResultID:   r.ResultID.String(),
		OutletName: r.OutletName.String(),
		Zone:       r.Zone.String(),
		StartDate:  FormatStartDate(r.StartDate.String()),
		Brand:      r.Brand.String(),
		SKU:        r.SKU.String(),
		BatchNo:    r.BatchNo.String(),
		MFGDate:    datecode.DecodeDayOfYear(r.MFGDate.String()).String(),
		ExpDate:    datecode.DecodeDayOfYear(r.ExpDate.String()).String(),
		Freshness:  datecode.Freshness(r.MFGDate.String(), today),
		Defects:    r.HasDefects(),
		DefectType: r.DefectType.String(),
		ImageCount: len(r.Images()),
	}
}

// NewRows projects every record.
func NewRows(records []SurveyRecord, today time.Time) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = NewRow(r, today)
	}
	return rows
}

// FormatStartDate renders the survey start timestamp as a local calendar date.
// Unparseable values are returned unchanged.
func FormatStartDate(raw string) string {
	if raw == "" {
		return ""
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed.Local().Format(datecode.Layout)
	}
	for _, layout := range startDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format(datecode.Layout)
		}
	}
	return raw
}
