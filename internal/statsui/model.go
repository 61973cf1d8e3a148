// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kanadrill/internal/stats"
)

const (
	tabOverview = iota
	tabKana
	tabSets
	tabChars
)

const cellWidth = 7

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))

	levelStyles = map[stats.Level]lipgloss.Style{
		stats.LevelNone: lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		stats.LevelPoor: lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")),
		stats.LevelFair: lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308")),
		stats.LevelGood: lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
	}
)

// Loader produces a fresh report.
type Loader func() (stats.Report, error)

// Model implements the Bubble Tea stats UI.
type Model struct {
	load Loader

	report stats.Report
	errMsg string

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	charTable  table.Model
	charLayout tableLayout
	window     int

	width  int
	height int

	filterMode bool
	filter     textinput.Model
	charFilter []string
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
}

// NewModel constructs a stats UI model and loads the first report.
func NewModel(load Loader) *Model {
	m := &Model{
		load:   load,
		tabs:   []string{"Overview", "Kana", "Study Sets", "Characters"},
		window: stats.DefaultTrendWindow,
	}
	m.filter = textinput.New()
	m.filter.Prompt = "Chars: "
	m.filter.Placeholder = "あかさ"
	m.charTable = buildCharTable(nil, 0, 1)
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.window = nextTrendWindow(m.window)
			m.renderTabContents()
			return m, nil
		case "-":
			m.window = prevTrendWindow(m.window)
			m.renderTabContents()
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "/":
			if m.activeTab != tabChars {
				return m, nil
			}
			m.filterMode = true
			m.filter.SetValue(strings.Join(m.charFilter, ""))
			return m, m.filter.Focus()
		case "g", "home":
			if m.activeTab == tabChars {
				m.charTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabChars {
				m.charTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabChars {
				var cmd tea.Cmd
				m.charTable, cmd = m.charTable.Update(msg)
				return m, cmd
			}
			var cmd tea.Cmd
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEnter:
		m.charFilter = parseRawChars(m.filter.Value())
		m.filterMode = false
		m.filter.Blur()
		m.applyCharTable(true)
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if normalized := normalizeCharInput(m.filter.Value()); normalized != m.filter.Value() {
		m.filter.SetValue(normalized)
	}
	return m, cmd
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.filter.Width = maxInt(10, m.width-lipgloss.Width(m.filter.Prompt)-2)
	m.applyCharTable(false)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabChars {
		m.charTable.Focus()
	} else {
		m.charTable.Blur()
	}
}

func (m *Model) refreshReport() {
	report, err := m.load()
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.applyCharTable(true)
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 || m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.window, width))
	m.viewports[tabKana].SetContent(renderKana(m.report))
	m.viewports[tabSets].SetContent(renderSets(m.report))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filter := "all"
	if len(m.charFilter) > 0 {
		filter = strings.Join(m.charFilter, "")
	}
	summary := fmt.Sprintf("Trend window=%d  chars=%s", m.window, filter)
	return tabs + "\n" + padLines(headerStyle.Render(truncateLine(summary, m.width)), m.width)
}

func (m *Model) renderHelp() string {
	if m.filterMode {
		return headerStyle.Render("enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Reload: r  Quit: q"
	if m.activeTab == tabChars {
		help = "Nav: left/right  Scroll: up/down  Filter: /  Reload: r  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if m.activeTab != tabChars {
		return fitLines(m.viewports[m.activeTab].View(), m.width, height)
	}
	if m.filterMode {
		return fitLines("Filter characters (empty shows all)\n"+m.filter.View(), m.width, height)
	}
	if m.report.Attempts == 0 {
		return fitLines("No answers recorded yet.", m.width, height)
	}
	return fitLines(tableMutedStyle.Render(m.charTable.View()), m.width, height)
}

func renderOverview(r stats.Report, window, width int) string {
	if r.Attempts == 0 {
		return "No answers recorded yet. Start a drill with `kanadrill`."
	}
	cards := []string{
		metricCard("Attempts", fmt.Sprintf("%d", r.Attempts)),
		metricCard("Accuracy", fmt.Sprintf("%.1f%%", r.Accuracy())),
		metricCard("Streak", fmt.Sprintf("%d", r.Streak)),
		metricCard(fmt.Sprintf("Last %d", r.RecentCount), levelStyles[stats.AccuracyLevel(r.Recent, true)].Render(fmt.Sprintf("%.0f%%", r.Recent))),
		metricCard("Seen", fmt.Sprintf("%d", r.UniqueSeen)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, r, window, maxInt(10, width-2)); err != nil {
		return summary
	}
	weak := stats.SelectWeakChars(r.CharList(), 5)
	lines := []string{summary, "", strings.TrimRight(buf.String(), "\n")}
	if len(weak) > 0 {
		glyphs := make([]string, 0, len(weak))
		for _, st := range weak {
			glyphs = append(glyphs, levelStyles[stats.AccuracyLevel(st.Accuracy(), true)].Render(st.Char))
		}
		lines = append(lines, "", cardTitleStyle.Render("Weakest: ")+strings.Join(glyphs, " "))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderKana(r stats.Report) string {
	var blocks []string
	for _, g := range stats.KanaGrids(r) {
		blocks = append(blocks, renderGrid(g))
	}
	return strings.Join(blocks, "\n\n")
}

func renderGrid(g stats.GridStats) string {
	title := cardValueStyle.Render(fmt.Sprintf("%s %s", strings.ToUpper(g.Set[:1])+g.Set[1:], g.Type))
	cell := lipgloss.NewStyle().Width(cellWidth)
	head := []string{cell.Render("")}
	for _, col := range g.Grid.Columns {
		head = append(head, headerStyle.Width(cellWidth).Render(col.Label))
	}
	lines := []string{title, lipgloss.JoinHorizontal(lipgloss.Top, head...)}
	for i, row := range g.Cells {
		parts := []string{headerStyle.Width(cellWidth).Render(g.Grid.Rows[i].Label)}
		for _, c := range row {
			style := levelStyles[stats.AccuracyLevel(c.Stat.Accuracy(), c.Attempted)].Width(cellWidth)
			parts = append(parts, style.Render(stats.FormatCell(c)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}
	return strings.Join(lines, "\n")
}

func renderSets(r stats.Report) string {
	if len(r.Sets) == 0 {
		return "No study sets. Create one with `kanadrill sets add <name>`."
	}
	lines := make([]string, 0, len(r.Sets))
	for _, s := range r.Sets {
		avg := levelStyles[stats.LevelNone].Render("no attempts")
		if s.Attempts > 0 {
			avg = levelStyles[stats.AccuracyLevel(s.Accuracy(), true)].Render(fmt.Sprintf("%.0f%%", s.Accuracy()))
		}
		content := fmt.Sprintf("%s\n%d kanji · %d attempts · %s", cardValueStyle.Render(s.Name), s.Kanji, s.Attempts, avg)
		lines = append(lines, cardStyle.Render(content))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func charColumns() []table.Column {
	return []table.Column{
		{Title: "Char", Width: 4},
		{Title: "Accuracy", Width: 9},
		{Title: "Correct", Width: 7},
		{Title: "Attempts", Width: 8},
		{Title: "Mistakes", Width: 8},
	}
}

func charRows(chars []stats.CharStat, filter []string) []table.Row {
	keep := map[string]struct{}{}
	for _, ch := range filter {
		keep[ch] = struct{}{}
	}
	rows := make([]table.Row, 0, len(chars))
	for _, st := range stats.SelectWeakChars(chars, 0) {
		if len(keep) > 0 {
			if _, ok := keep[st.Char]; !ok {
				continue
			}
		}
		rows = append(rows, table.Row{
			st.Char,
			fmt.Sprintf("%.2f%%", st.Accuracy()),
			fmt.Sprintf("%d", st.Correct),
			fmt.Sprintf("%d", st.Attempts),
			fmt.Sprintf("%d", st.Mistakes),
		})
	}
	return rows
}

func buildCharTable(rows []table.Row, width, height int) table.Model {
	t := table.New(
		table.WithColumns(charColumns()),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(charTableStyles())
	return t
}

func (m *Model) applyCharTable(force bool) {
	rows := charRows(m.report.CharList(), m.charFilter)
	_, bodyHeight, _ := m.layoutHeights()
	height := maxInt(1, bodyHeight-1)
	if !force &&
		m.charLayout.width == m.width &&
		m.charLayout.height == height &&
		m.charLayout.rowCount == len(rows) {
		return
	}
	m.charTable.SetRows(rows)
	m.charTable.SetWidth(m.width)
	m.charTable.SetHeight(height)
	m.charLayout = tableLayout{width: m.width, height: height, rowCount: len(rows)}
}

func charTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func parseRawChars(input string) []string {
	out := make([]string, 0, len([]rune(input)))
	seen := map[string]struct{}{}
	for _, r := range input {
		if unicode.IsSpace(r) || r == ',' {
			continue
		}
		ch := string(r)
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}

func normalizeCharInput(input string) string {
	if input == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == ',' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func nextTrendWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevTrendWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
