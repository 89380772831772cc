package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSurveyRecordDecodesMixedTypes(t *testing.T) {
	payload := `{"ResultID": 42, "Outlet Name": "Cafe One", "MFG Date": "2025100", "no_of_defect": 3, "Exp. Date": null, "VisualDefects": "Yes", "Defect_image": "a.jpg, b.png,"}`
	var rec SurveyRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if rec.ResultID != "42" {
		t.Fatalf("expected numeric id as text, got %q", rec.ResultID)
	}
	if rec.OutletName != "Cafe One" {
		t.Fatalf("unexpected outlet name %q", rec.OutletName)
	}
	if rec.NoOfDefect != "3" {
		t.Fatalf("expected 3, got %q", rec.NoOfDefect)
	}
	if rec.ExpDate != "" {
		t.Fatalf("expected null to decode empty, got %q", rec.ExpDate)
	}
	if !rec.HasDefects() {
		t.Fatalf("expected defects")
	}
	images := rec.Images()
	if len(images) != 2 || images[0] != "a.jpg" || images[1] != "b.png" {
		t.Fatalf("unexpected images %v", images)
	}
}

func TestNewRowDecodesDates(t *testing.T) {
	rec := SurveyRecord{
		ResultID:      "R1",
		MFGDate:       "2025100",
		ExpDate:       "abc",
		VisualDefects: "No",
	}
	today := time.Date(2025, time.April, 15, 8, 0, 0, 0, time.UTC)
	row := NewRow(rec, today)
	if row.MFGDate != "2025-04-10" {
		t.Fatalf("expected 2025-04-10, got %q", row.MFGDate)
	}
	if row.ExpDate != "N/A" {
		t.Fatalf("expected placeholder for invalid expiry, got %q", row.ExpDate)
	}
	if row.Freshness != "5d" {
		t.Fatalf("expected 5d, got %q", row.Freshness)
	}
	if row.Defects {
		t.Fatalf("expected no defects")
	}
}

func TestFormatStartDateFallsBackToRaw(t *testing.T) {
	if got := FormatStartDate("yesterday"); got != "yesterday" {
		t.Fatalf("expected raw value, got %q", got)
	}
	if got := FormatStartDate("2025-04-10"); got != "2025-04-10" {
		t.Fatalf("expected 2025-04-10, got %q", got)
	}
}

func TestImageExt(t *testing.T) {
	if got := ImageExt("uploads/x/photo.JPG?sig=1"); got != ".JPG" {
		t.Fatalf("expected .JPG, got %q", got)
	}
	if got := ImageExt("noext"); got != "" {
		t.Fatalf("expected empty ext, got %q", got)
	}
}
