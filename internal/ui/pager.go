package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"

	"quickfind/internal/domain"
)

// PagerOps shows a bookmark's detail view in an external pager, releasing
// the terminal from Bubble Tea while the pager runs.
type PagerOps struct {
	program *tea.Program
}

// NewPagerOps creates a new pager operations instance
func NewPagerOps(program *tea.Program) *PagerOps {
	return &PagerOps{
		program: program,
	}
}

// ShowDetail renders item and pages it with ov.
func (p *PagerOps) ShowDetail(item domain.Bookmark) error {
	if p.program == nil {
		return fmt.Errorf("program not set")
	}

	// ov needs the terminal to itself while it runs
	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}

	defer func() {
		// Let ov finish tearing down its screen before Bubble Tea redraws
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	reader := strings.NewReader(renderDetail(item))

	root, err := oviewer.NewRoot(reader)
	if err != nil {
		return err
	}

	// ov must not echo its buffer on exit or it corrupts our alt screen
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// renderDetail builds the pager content for a bookmark.
func renderDetail(item domain.Bookmark) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)
	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39"))
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	var b strings.Builder
	b.WriteString(titleStyle.Render(item.Name))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s  %s\n", labelStyle.Render("URL "), valueStyle.Render(item.URL)))
	if len(item.Tags) > 0 {
		b.WriteString(fmt.Sprintf("%s  %s\n", labelStyle.Render("Tags"), valueStyle.Render(strings.Join(item.Tags, ", "))))
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("q to return"))
	b.WriteString("\n")
	return b.String()
}
