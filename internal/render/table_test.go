package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/qsurvey/internal/model"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"ID", "Fresh"}
	rows := [][]string{
		{"R1", "5d"},
		{"R100", "120d"},
	}

	lines := formatTable(headers, rows, map[int]bool{1: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "ID    Fresh" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "R1       5d" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "R100   120d" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableUsesDisplayWidth(t *testing.T) {
	lines := formatTable([]string{"Outlet", "Zone"}, [][]string{{"東京", "N"}}, nil)
	if lines[1] != "東京    N" {
		t.Fatalf("expected wide runes padded by display width, got %q", lines[1])
	}
}

func TestCellTruncatesLongValues(t *testing.T) {
	cell := cellAt([]string{strings.Repeat("x", 50)}, 0)
	if runewidth.StringWidth(cell) != maxCellWidth {
		t.Fatalf("expected width %d, got %d", maxCellWidth, runewidth.StringWidth(cell))
	}
	if !strings.HasSuffix(cell, ellipsis) {
		t.Fatalf("expected ellipsis, got %q", cell)
	}
}

func TestRecordsWritesCount(t *testing.T) {
	var buf bytes.Buffer
	rows := []model.Row{
		{ResultID: "R1", MFGDate: "2025-01-10", ExpDate: "N/A", Freshness: "5d", Defects: true, ImageCount: 2},
		{ResultID: "R2", MFGDate: "N/A", ExpDate: "N/A", Freshness: "N/A"},
	}
	if err := Records(&buf, rows, 0); err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "ResultID") {
		t.Fatalf("expected header first, got %q", out)
	}
	if !strings.Contains(out, "2025-01-10") || !strings.Contains(out, "Yes") {
		t.Fatalf("expected decoded row values, got %q", out)
	}
	if !strings.HasSuffix(out, "Total Records: 2\n") {
		t.Fatalf("expected record count, got %q", out)
	}
}

func TestRecordsCutsToWidth(t *testing.T) {
	var buf bytes.Buffer
	if err := Records(&buf, []model.Row{{ResultID: "R1"}}, 20); err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if runewidth.StringWidth(line) > 20 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
}

func TestRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Records(&buf, nil, 0); err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if buf.String() != "No data available. Apply filters to see results.\n" {
		t.Fatalf("unexpected empty output %q", buf.String())
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Table(&buf, []string{"Code", "Date"}, [][]string{{"2025032", "2025-02-01"}}, 0); err != nil {
		t.Fatalf("Table failed: %v", err)
	}
	if buf.String() != "Code     Date\n2025032  2025-02-01\n" {
		t.Fatalf("unexpected table %q", buf.String())
	}
}

func TestSize(t *testing.T) {
	if got := Size(2048); got != "2.0 kB" {
		t.Fatalf("unexpected size %q", got)
	}
	if got := Size(-1); got != "0 B" {
		t.Fatalf("unexpected size %q", got)
	}
}
