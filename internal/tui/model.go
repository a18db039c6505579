// Package tui is an interactive terminal browser over a statement session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/query"
	"github.com/cleared-dev/estatement/internal/session"
)

// Options configures the browser.
type Options struct {
	// Account is loaded on start; empty means every account.
	Account string
	// ExportDir receives exported files. Defaults to the working directory.
	ExportDir string
}

type loadedMsg struct {
	state session.State
	err   error
}

type exportedMsg struct {
	path string
	err  error
}

// Model is the bubbletea model of the browser. It renders whatever state the
// controller last returned and never edits that state itself.
type Model struct {
	ctx       context.Context
	ctrl      *session.Controller
	account   string
	exportDir string

	keys  KeyMap
	help  help.Model
	table table.Model

	state  session.State
	notice string
	width  int
}

var columns = []table.Column{
	{Title: "Ref Number", Width: 12},
	{Title: "Date & Time", Width: 16},
	{Title: "Description", Width: 30},
	{Title: "Withdrawal", Width: 12},
	{Title: "Credit", Width: 12},
	{Title: "Balance", Width: 14},
}

// New creates the browser model for ctrl.
func New(ctx context.Context, ctrl *session.Controller, opts Options) Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(query.DefaultPageSize+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("#fafafa")).Background(primary)
	t.SetStyles(s)

	dir := opts.ExportDir
	if dir == "" {
		dir = "."
	}

	m := Model{
		ctx:       ctx,
		ctrl:      ctrl,
		account:   opts.Account,
		exportDir: dir,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		table:     t,
	}
	m.setState(ctrl.State())
	return m
}

// Init starts loading the configured account.
func (m Model) Init() tea.Cmd {
	return m.load(m.account)
}

func (m Model) load(account string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		s, err := ctrl.Load(ctx, account)
		return loadedMsg{state: s, err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		s, err := ctrl.Refresh(ctx)
		return loadedMsg{state: s, err: err}
	}
}

func (m Model) export(format export.Format) tea.Cmd {
	ctx, ctrl, dir := m.ctx, m.ctrl, m.exportDir
	return func() tea.Msg {
		payload, err := ctrl.Export(ctx, format)
		if err != nil {
			return exportedMsg{err: err}
		}
		path := filepath.Join(dir, payload.Filename)
		if err := os.WriteFile(path, payload.Data, 0o644); err != nil {
			return exportedMsg{err: fmt.Errorf("writing %s: %w", path, err)}
		}
		return exportedMsg{path: path}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.table.SetHeight(max(msg.Height-8, 3))
		return m, nil

	case loadedMsg:
		// The controller already dropped superseded loads; always show its latest state.
		m.setState(m.ctrl.State())
		if msg.err == nil {
			m.notice = ""
		}
		return m, nil

	case exportedMsg:
		m.setState(m.ctrl.State())
		if msg.err != nil {
			m.notice = ""
			if m.state.Err == nil {
				m.state.Err = msg.err
			}
			return m, nil
		}
		m.notice = "Exported " + msg.path
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.PrevPage):
		s, _ := m.ctrl.ChangePage(m.state.Pagination.PageNumber - 1)
		m.setState(s)

	case key.Matches(msg, m.keys.NextPage):
		s, _ := m.ctrl.ChangePage(m.state.Pagination.PageNumber + 1)
		m.setState(s)

	case key.Matches(msg, m.keys.SortDate):
		m.sortBy(query.SortByDateTime)
	case key.Matches(msg, m.keys.SortAmount):
		m.sortBy(query.SortByAmount)
	case key.Matches(msg, m.keys.SortDescription):
		m.sortBy(query.SortByDescription)
	case key.Matches(msg, m.keys.SortBalance):
		m.sortBy(query.SortByRunningBalance)

	case key.Matches(msg, m.keys.CycleType):
		next := nextType(m.state.Filters.Type)
		m.ctrl.SetFilters(query.FilterPatch{Type: &next})
		s, _ := m.ctrl.Search()
		m.setState(s)

	case key.Matches(msg, m.keys.Reset):
		m.setState(m.ctrl.ResetSearch())
		m.notice = ""

	case key.Matches(msg, m.keys.Refresh):
		m.state.Loading = true
		m.notice = "Refreshing..."
		return m, m.refresh()

	case key.Matches(msg, m.keys.ExportPDF):
		m.notice = "Exporting PDF..."
		return m, m.export(export.FormatPDF)

	case key.Matches(msg, m.keys.ExportExcel):
		m.notice = "Exporting Excel..."
		return m, m.export(export.FormatExcel)

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) sortBy(field query.SortField) {
	s, _ := m.ctrl.ChangeSort(field)
	m.setState(s)
}

func nextType(t query.TxnType) query.TxnType {
	switch t {
	case query.TypeDebit:
		return query.TypeCredit
	case query.TypeCredit:
		return query.TypeAll
	default:
		return query.TypeDebit
	}
}

func (m *Model) setState(s session.State) {
	m.state = s
	rows := make([]table.Row, len(s.Visible))
	for i, txn := range s.Visible {
		rows[i] = toRow(txn)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func toRow(txn model.Transaction) table.Row {
	optional := func(v bool, amount string) string {
		if !v {
			return ""
		}
		return amount
	}
	return table.Row{
		txn.ReferenceID,
		txn.Timestamp.Format(export.DateTimeLayout),
		txn.Description,
		optional(txn.Withdrawal.Valid, export.FormatAmount(txn.Withdrawal.Decimal)),
		optional(txn.Credit.Valid, export.FormatAmount(txn.Credit.Decimal)),
		export.FormatAmount(txn.RunningBalance),
	}
}

// View renders the browser.
func (m Model) View() string {
	account := m.state.Account
	if account == "" {
		account = "All accounts"
	}

	sections := []string{
		titleStyle.Render("Statement · " + account),
		m.table.View(),
		m.statusLine(),
	}
	if m.state.Err != nil {
		sections = append(sections, errorStyle.Render("Error: "+errorText(m.state.Err)))
	} else if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}
	sections = append(sections, sectionStyle.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// errorText keeps the cause of a collaborator failure visible.
func errorText(err error) string {
	var te *session.TransportError
	if errors.As(err, &te) && te.Err != nil {
		return te.UserMessage + ": " + te.Err.Error()
	}
	return err.Error()
}

func (m Model) statusLine() string {
	s := m.state
	p := s.Pagination

	parts := []string{
		fmt.Sprintf("Page %d/%d", p.PageNumber, p.TotalPages),
		fmt.Sprintf("%d of %d transactions", p.TotalItems, s.DatasetLen),
		fmt.Sprintf("sort %s %s", s.Sort.Field, s.Sort.Order),
		"type " + string(s.Filters.Type),
	}
	if s.Loading {
		parts = append(parts, "loading")
	}
	if s.Stale {
		parts = append(parts, "stale")
	}

	totals := strings.Join([]string{
		debitStyle.Render("Debits " + export.FormatAmount(s.Stats.TotalDebits)),
		creditStyle.Render("Credits " + export.FormatAmount(s.Stats.TotalCredits)),
		"Net " + export.FormatAmount(s.Stats.NetFlow),
	}, "  ")

	return lipgloss.JoinVertical(lipgloss.Left,
		statusStyle.Render(strings.Join(parts, " · ")),
		totals,
	)
}

// Run starts the browser and blocks until the user quits or ctx is done.
func Run(ctx context.Context, ctrl *session.Controller, opts Options) error {
	p := tea.NewProgram(New(ctx, ctrl, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}
