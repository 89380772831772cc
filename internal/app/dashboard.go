package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/qsurvey/internal/download"
	"github.com/verte-zerg/qsurvey/internal/filter"
	"github.com/verte-zerg/qsurvey/internal/model"
)

const (
	queryFailedMsg    = "Failed to fetch survey data. Please try again."
	emptyResultsMsg   = "No data available. Apply filters to see results."
	exportFailedMsg   = "Export failed!"
	downloadFailedMsg = "Image download failed!"
	noImagesMsg       = "This record has no defect images."
	busyMarker        = "saving…"
)

// Filter input positions.
const (
	fieldOutlet = iota
	fieldFrom
	fieldTo
	fieldBrand
	fieldLocation
	fieldState
	fieldDefectType
	fieldBatch
)

var resultColumns = []table.Column{
	{Title: "ResultID", Width: 10},
	{Title: "Outlet", Width: 20},
	{Title: "Zone", Width: 8},
	{Title: "Start", Width: 10},
	{Title: "Brand", Width: 12},
	{Title: "SKU", Width: 12},
	{Title: "Batch", Width: 10},
	{Title: "MFG", Width: 10},
	{Title: "Exp", Width: 10},
	{Title: "Fresh", Width: 6},
	{Title: "Defects", Width: 7},
	{Title: "Defect Type", Width: 14},
	{Title: "Images", Width: 8},
}

func (m *Model) initFilterInputs() {
	m.filterInputs = []textinput.Model{
		newInput("Outlet name: "),
		newInput("From (YYYY-MM-DD): "),
		newInput("To (YYYY-MM-DD): "),
		newInput("Brand: "),
		newInput("Location: "),
		newInput("State: "),
		newInput("Defect type: "),
		newInput("Batch number: "),
	}
}

func (m *Model) initResults() {
	m.results = table.New(
		table.WithColumns(resultColumns),
		table.WithFocused(true),
		table.WithStyles(m.styles.table),
	)
}

func (m *Model) enterDashboard() tea.Cmd {
	m.dashReady = true
	m.user = m.gate.Identity().DisplayName(defaultUser)
	m.form = filter.Reset()
	m.setInputsFromForm()
	m.resizeResults()
	return m.queryCmd()
}

func (m *Model) resetDashboard() {
	m.dashReady = false
	m.epoch++
	m.form = filter.Reset()
	m.filterMode = false
	m.filterErr = ""
	m.records = nil
	m.rows = nil
	m.results.SetRows(nil)
	m.querying = false
	m.queryErr = ""
	m.exporting = false
	m.tracker = download.NewTracker()
	m.status = ""
	m.notice = ""
}

func (m *Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.notice != "" {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.notice = ""
		}
		return m, nil
	}
	if m.filterMode {
		return m.updateFilter(msg)
	}
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/", "f":
		m.filterMode = true
		m.filterErr = ""
		m.setInputsFromForm()
		return m, m.setFilterIndex(0)
	case "c":
		return m, m.clearFilters()
	case "r":
		return m, m.queryCmd()
	case "e":
		return m, m.exportCmd()
	case "d":
		return m, m.downloadCmd()
	case "t":
		return m, m.toggleThemeCmd()
	case "L":
		gate, ctx := m.gate, m.ctx
		return m, func() tea.Msg {
			return logoutDoneMsg{err: gate.Logout(ctx)}
		}
	}
	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterErr = ""
		m.setInputsFromForm()
		return m, nil
	case tea.KeyEnter:
		form, err := m.formFromInputs()
		if err != nil {
			m.filterErr = err.Error()
			return m, nil
		}
		m.form = form
		m.filterMode = false
		m.filterErr = ""
		m.resizeResults()
		return m, m.queryCmd()
	case tea.KeyCtrlX:
		m.filterMode = false
		return m, m.clearFilters()
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) setInputsFromForm() {
	values := []string{
		m.form.OutletName,
		filter.FormatDate(m.form.FromDate),
		filter.FormatDate(m.form.ToDate),
		m.form.Brand,
		m.form.Location,
		m.form.State,
		m.form.DefectType,
		m.form.BatchNumber,
	}
	for i, v := range values {
		m.filterInputs[i].SetValue(v)
	}
}

func (m *Model) formFromInputs() (filter.Form, error) {
	from, err := filter.ParseDate(m.filterInputs[fieldFrom].Value())
	if err != nil {
		return filter.Form{}, fmt.Errorf("From: %w", err)
	}
	to, err := filter.ParseDate(m.filterInputs[fieldTo].Value())
	if err != nil {
		return filter.Form{}, fmt.Errorf("To: %w", err)
	}
	return filter.Form{
		OutletName:  m.filterInputs[fieldOutlet].Value(),
		FromDate:    from,
		ToDate:      to,
		Brand:       m.filterInputs[fieldBrand].Value(),
		Location:    m.filterInputs[fieldLocation].Value(),
		State:       m.filterInputs[fieldState].Value(),
		DefectType:  m.filterInputs[fieldDefectType].Value(),
		BatchNumber: m.filterInputs[fieldBatch].Value(),
	}, nil
}

func (m *Model) clearFilters() tea.Cmd {
	m.form = filter.Reset()
	m.filterErr = ""
	m.setInputsFromForm()
	m.resizeResults()
	return m.queryCmd()
}

func (m *Model) queryCmd() tea.Cmd {
	m.seq++
	m.querying = true
	m.queryErr = ""
	seq, epoch := m.seq, m.epoch
	params := filter.Normalize(m.form)
	backend, ctx, log := m.backend, m.ctx, m.log
	query := func() tea.Msg {
		log.Debugw("survey query", "seq", seq, "params", params.Encode())
		records, err := backend.SurveyData(ctx, params)
		return queryDoneMsg{seq: seq, epoch: epoch, records: records, err: err}
	}
	return tea.Batch(query, m.spinner.Tick)
}

func (m *Model) handleQueryDone(msg queryDoneMsg) tea.Cmd {
	if msg.epoch != m.epoch {
		return nil
	}
	if msg.seq == m.seq {
		m.querying = false
	}
	if msg.err != nil {
		if cmd, expired := m.handleExpiry(msg.err); expired {
			return cmd
		}
		m.log.Warnw("survey query failed", "seq", msg.seq, "error", msg.err)
		m.queryErr = queryFailedMsg
		return nil
	}
	m.log.Debugw("survey query done", "seq", msg.seq, "records", len(msg.records))
	m.queryErr = ""
	m.records = msg.records
	m.refreshRows()
	return nil
}

func (m *Model) exportCmd() tea.Cmd {
	if m.exporting {
		return nil
	}
	from, to, err := m.form.Range()
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	m.exporting = true
	m.status = "Exporting..."
	epoch := m.epoch
	others := m.form.Others()
	backend, ctx, dir := m.backend, m.ctx, m.dir
	return func() tea.Msg {
		dl, err := backend.ExportExcel(ctx, from, to, others)
		if err != nil {
			return exportDoneMsg{epoch: epoch, err: err}
		}
		path, size, err := download.Save(dir, download.ExportFilename(from, to), dl.Body)
		return exportDoneMsg{epoch: epoch, path: path, size: size, err: err}
	}
}

func (m *Model) handleExportDone(msg exportDoneMsg) tea.Cmd {
	if msg.epoch != m.epoch {
		return nil
	}
	m.exporting = false
	m.status = ""
	if msg.err != nil {
		if cmd, expired := m.handleExpiry(msg.err); expired {
			return cmd
		}
		m.log.Warnw("export failed", "error", msg.err)
		m.notice = exportFailedMsg
		return nil
	}
	m.log.Infow("export saved", "path", msg.path, "bytes", msg.size)
	m.status = fmt.Sprintf("Saved %s (%s)", msg.path, humanize.Bytes(uint64(msg.size)))
	return nil
}

func (m *Model) downloadCmd() tea.Cmd {
	idx := m.results.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return nil
	}
	rec := m.records[idx]
	id := rec.ResultID.String()
	files := rec.Images()
	if len(files) == 0 {
		m.notice = noImagesMsg
		return nil
	}
	if !m.tracker.Begin(id) {
		return nil
	}
	m.refreshRows()
	epoch := m.epoch
	backend, ctx, dir := m.backend, m.ctx, m.dir
	return func() tea.Msg {
		dl, err := backend.DownloadImages(ctx, id, files)
		if err != nil {
			return downloadDoneMsg{epoch: epoch, id: id, err: err}
		}
		path, size, err := download.Save(dir, download.ImageFilename(id, files), dl.Body)
		return downloadDoneMsg{epoch: epoch, id: id, path: path, size: size, err: err}
	}
}

func (m *Model) handleDownloadDone(msg downloadDoneMsg) tea.Cmd {
	if msg.epoch != m.epoch {
		return nil
	}
	m.tracker.Done(msg.id)
	m.refreshRows()
	if msg.err != nil {
		if cmd, expired := m.handleExpiry(msg.err); expired {
			return cmd
		}
		m.log.Warnw("image download failed", "id", msg.id, "error", msg.err)
		m.notice = downloadFailedMsg
		return nil
	}
	m.log.Infow("images saved", "id", msg.id, "path", msg.path, "bytes", msg.size)
	m.status = fmt.Sprintf("Saved %s (%s)", msg.path, humanize.Bytes(uint64(msg.size)))
	return nil
}

func (m *Model) refreshRows() {
	m.rows = model.NewRows(m.records, m.now())
	rows := make([]table.Row, len(m.rows))
	for i, r := range m.rows {
		defects := "No"
		if r.Defects {
			defects = "Yes"
		}
		images := strconv.Itoa(r.ImageCount)
		if m.tracker.Busy(r.ResultID) {
			images = busyMarker
		}
		rows[i] = table.Row{
			r.ResultID, r.OutletName, r.Zone, r.StartDate, r.Brand, r.SKU, r.BatchNo,
			r.MFGDate, r.ExpDate, r.Freshness, defects, r.DefectType, images,
		}
	}
	m.results.SetRows(rows)
	if m.results.Cursor() >= len(rows) {
		m.results.SetCursor(maxInt(0, len(rows)-1))
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = 2 + lipgloss.Height(m.renderFilters())
	footerHeight = 2
	if m.queryErr != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) resizeResults() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.results.SetWidth(m.width)
	m.results.SetHeight(maxInt(1, bodyHeight-1))
}

func (m *Model) viewDashboard() string {
	if m.notice != "" {
		return m.renderNotice()
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) renderHeader() string {
	s := m.styles
	right := s.muted.Render(fmt.Sprintf("Welcome, %s", m.user)) + "  " + s.header.Render("theme: "+m.theme)
	top := spread(s.title.Render("Survey Analytics Dashboard"), right, m.width)
	return top + "\n\n" + m.renderFilters()
}

func (m *Model) renderFilters() string {
	s := m.styles
	if m.filterMode {
		lines := []string{s.text.Render("Filters (enter: apply  ctrl+x: clear  esc: cancel)")}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterErr != "" {
			lines = append(lines, s.err.Render(m.filterErr))
		}
		return strings.Join(lines, "\n")
	}
	return s.header.Render(truncateLine(filterSummary(m.form), m.width))
}

func filterSummary(form filter.Form) string {
	params := filter.Normalize(form)
	if len(params) == 0 {
		return "Filters: none"
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = key + "=" + params.Get(key)
	}
	return "Filters: " + strings.Join(parts, "  ")
}

func (m *Model) renderBody() string {
	s := m.styles
	switch {
	case m.querying && len(m.rows) == 0:
		return m.spinner.View() + " " + s.muted.Render("Loading...")
	case len(m.rows) == 0:
		return s.muted.Render(emptyResultsMsg)
	default:
		return m.results.View()
	}
}

func (m *Model) renderFooter() string {
	s := m.styles
	count := s.text.Render(fmt.Sprintf("Total Records: %d", len(m.rows)))
	if m.querying {
		count += "  " + m.spinner.View()
	}
	if m.status != "" {
		count += "  " + s.ok.Render(m.status)
	}
	help := "/: filters  c: clear  r: refresh  e: export  d: images  t: theme  L: logout  q: quit"
	if !m.form.HasRange() {
		help = "/: filters  c: clear  r: refresh  e: export (needs From/To)  d: images  t: theme  L: logout  q: quit"
	}
	lines := []string{}
	if m.queryErr != "" {
		lines = append(lines, s.err.Render(m.queryErr))
	}
	lines = append(lines, count, s.header.Render(truncateLine(help, m.width)))
	return strings.Join(lines, "\n")
}

func (m *Model) renderNotice() string {
	s := m.styles
	body := []string{
		s.text.Render(m.notice),
		"",
		s.header.Render("enter/esc: dismiss"),
	}
	box := s.modal.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
