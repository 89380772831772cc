// Package model defines shared data structures.
package model

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"
	"time"
)

// Config defines resolved application settings.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	DownloadDir string
	Theme       string
	LogLevel    string
	LogFile     string
}

// Text is a record field that accepts JSON strings, numbers, booleans and null.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(trimmed)
	return nil
}

// String returns the field value.
func (t Text) String() string {
	return string(t)
}

// SurveyRecord is one row returned by the survey query endpoint.
type SurveyRecord struct {
	ResultID      Text `json:"ResultID"`
	OutletName    Text `json:"Outlet Name"`
	Zone          Text `json:"Zone"`
	StartDate     Text `json:"StartDate"`
	Address       Text `json:"Address"`
	State         Text `json:"State"`
	Location      Text `json:"Location"`
	Brand         Text `json:"Brand"`
	Unit          Text `json:"Unit"`
	SKU           Text `json:"SKU"`
	SampleChecked Text `json:"Sample Checked"`
	BatchNo       Text `json:"Batch No."`
	BatchNo1      Text `json:"Batch No1."`
	MFGDate       Text `json:"MFG Date"`
	ExpDate       Text `json:"Exp. Date"`
	VisualDefects Text `json:"VisualDefects"`
	DefectImage   Text `json:"Defect_image"`
	NoOfDefect    Text `json:"no_of_defect"`
	DefectType    Text `json:"defect_type"`
}

// HasDefects reports whether visual defects were recorded.
func (r SurveyRecord) HasDefects() bool {
	return strings.EqualFold(strings.TrimSpace(r.VisualDefects.String()), "yes")
}

// Images returns the defect image references of the record.
func (r SurveyRecord) Images() []string {
	raw := strings.TrimSpace(r.DefectImage.String())
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ImageExt returns the extension of an image reference, ignoring any query string.
func ImageExt(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return path.Ext(ref)
}
