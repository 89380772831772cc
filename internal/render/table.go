// Package render formats survey rows for plain terminal output.
package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/qsurvey/internal/model"
)

const (
	maxCellWidth = 28
	ellipsis     = "…"
)

var recordHeaders = []string{
	"ResultID", "Outlet", "Zone", "Start", "Brand", "SKU", "Batch",
	"MFG", "Exp", "Fresh", "Defects", "Defect Type", "Images",
}

var recordRightAlign = map[int]bool{9: true, 12: true}

// Records writes rows as an aligned table followed by the record count.
// Lines are cut to width when width is positive.
func Records(w io.Writer, rows []model.Row, width int) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data available. Apply filters to see results.")
		return err
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = recordCells(r)
	}
	for _, line := range formatTable(recordHeaders, cells, recordRightAlign) {
		if width > 0 {
			line = runewidth.Truncate(line, width, ellipsis)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nTotal Records: %d\n", len(rows))
	return err
}

// Table writes an aligned table. Lines are cut to width when width is positive.
func Table(w io.Writer, headers []string, rows [][]string, width int) error {
	for _, line := range formatTable(headers, rows, nil) {
		if width > 0 {
			line = runewidth.Truncate(line, width, ellipsis)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func recordCells(r model.Row) []string {
	defects := "No"
	if r.Defects {
		defects = "Yes"
	}
	return []string{
		r.ResultID, r.OutletName, r.Zone, r.StartDate, r.Brand, r.SKU, r.BatchNo,
		r.MFGDate, r.ExpDate, r.Freshness, defects, r.DefectType, strconv.Itoa(r.ImageCount),
	}
}

// Size renders a byte count for download summaries.
func Size(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// TerminalWidth returns the width of f when it is a terminal, otherwise 0.
func TerminalWidth(f *os.File) int {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			if w := displayWidth(cellAt(row, i)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cellAt(row, i), widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	cell := strings.ReplaceAll(row[i], "\n", " ")
	if runewidth.StringWidth(cell) > maxCellWidth {
		cell = runewidth.Truncate(cell, maxCellWidth, ellipsis)
	}
	return cell
}

func padCell(value string, width int, rightAlign bool) string {
	if rightAlign {
		return runewidth.FillLeft(value, width)
	}
	return runewidth.FillRight(value, width)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
