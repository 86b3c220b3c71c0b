package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/walweb/camisolas/internal/importer"
	"github.com/walweb/camisolas/internal/inventory"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateKindSelect importState = iota
	importStateFilePick
	importStateImporting
	importStateResult
)

// ImportModel applies a stock file as one batch of movements.
type ImportModel struct {
	CommonModel
	deps Deps

	state        importState
	filePicker   filepicker.Model
	kindOptions  []inventory.Kind
	kindCursor   int
	selectedKind inventory.Kind

	result *importer.Result
	status string
	err    error
}

func NewImportModel(deps Deps) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".tsv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		deps:        deps,
		filePicker:  fp,
		kindOptions: []inventory.Kind{inventory.KindIn, inventory.KindOut, inventory.KindToSample, inventory.KindSale},
	}
}

func (m ImportModel) Title() string { return "Import Stock File" }

func (m ImportModel) ShortHelp() string {
	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateKindSelect {
			return m.updateKindSelect(msg)
		}

	case importResultMsg:
		m.state = importStateResult
		m.result = msg.result
		m.err = msg.err

		if msg.err == nil {
			b := msg.result.Batch
			m.status = fmt.Sprintf("Applied %d lines, %d failed, %d skipped.", len(b.Applied), b.Failed(), len(msg.result.Skipped))
		}

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick:
		m.state = importStateKindSelect
		return m, nil
	case importStateResult:
		m.state = importStateKindSelect
		m.result = nil
		m.err = nil
		m.status = ""

		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateKindSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.kindCursor > 0 {
			m.kindCursor--
		}
	case tea.KeyDown:
		if m.kindCursor < len(m.kindOptions)-1 {
			m.kindCursor++
		}
	case tea.KeyEnter:
		m.selectedKind = m.kindOptions[m.kindCursor]
		m.state = importStateFilePick

		return m, m.filePicker.Init()
	}

	return m, nil
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateKindSelect:
		return m.viewKindSelect()
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select stock file to import as %s:\n\n%s", m.selectedKind, m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewKindSelect() string {
	s := "Movement kind for every line:\n\n"

	for i, k := range m.kindOptions {
		cursor := " "
		if i == m.kindCursor {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, string(k))
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(statusLine("", m.err) + "\n\n(Esc to go back)")
	}

	var b strings.Builder
	b.WriteString(statusLine(m.status, nil))
	fmt.Fprintf(&b, "\n\nFile encoding: %s, %d rows read.", m.result.Parsed.Charset, len(m.result.Parsed.Rows))

	faint := lipgloss.NewStyle().Faint(true)
	for _, f := range m.result.Batch.Failures {
		line := 0
		if f.Index < len(m.result.RowLines) {
			line = m.result.RowLines[f.Index]
		}

		b.WriteString("\n" + faint.Render(fmt.Sprintf("line %d: %v", line, f.Err)))
	}

	for _, s := range m.result.Skipped {
		b.WriteString("\n" + faint.Render(fmt.Sprintf("line %d skipped: %v", s.Line, s.Err)))
	}

	b.WriteString("\n\n(Esc to go back)")

	return style.Render(b.String())
}

type importResultMsg struct {
	result *importer.Result
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	deps := m.deps
	req := importer.Request{
		Format: importer.FormatStockCSV,
		Kind:   m.selectedKind,
		Note:   "Imported from " + filepath.Base(path),
	}

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		res, err := deps.Importer.Import(ctx, deps.Actor, req, f)

		return importResultMsg{result: res, err: err}
	}
}
