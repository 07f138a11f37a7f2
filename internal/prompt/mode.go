// Package prompt asks the operator for the report mode when none is
// configured.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nurpe/goszakup-contracts/internal/model"
)

var ErrCancelled = errors.New("mode selection cancelled")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cba6f7"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fab387"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type option struct {
	mode  model.ReportMode
	label string
	notes []string
}

var options = []option{
	{
		mode:  model.ReportModeSummary,
		label: "Сводный режим",
		notes: []string{"1 договор = 1 строка", "плановая сумма по всем позициям"},
	},
	{
		mode:  model.ReportModeDetail,
		label: "Детализированный режим",
		notes: []string{"каждая позиция договора = отдельная строка", "плановая сумма и экономия по позиции"},
	},
}

type modeModel struct {
	cursor    int
	chosen    model.ReportMode
	cancelled bool
}

func (m modeModel) Init() tea.Cmd { return nil }

func (m modeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j", "tab":
		if m.cursor < len(options)-1 {
			m.cursor++
		}
	case "1", "2":
		m.cursor = int(key.String()[0] - '1')
		m.chosen = options[m.cursor].mode
		return m, tea.Quit
	case "enter":
		m.chosen = options[m.cursor].mode
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m modeModel) View() string {
	if m.chosen != "" || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Выбор режима экспорта"))
	b.WriteString("\n\n")
	for i, opt := range options {
		line := fmt.Sprintf("%d. %s", i+1, opt.label)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
		for _, note := range opt.notes {
			b.WriteString(hintStyle.Render("     " + note))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("↑/↓ выбор, enter подтвердить, 1/2 сразу, q отмена"))
	return boxStyle.Render(b.String())
}

// SelectMode runs the selector on the given terminal streams.
func SelectMode(ctx context.Context, in io.Reader, out io.Writer) (model.ReportMode, error) {
	program := tea.NewProgram(modeModel{}, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		return "", fmt.Errorf("run mode selector: %w", err)
	}

	result, ok := final.(modeModel)
	if !ok || result.cancelled || result.chosen == "" {
		return "", ErrCancelled
	}
	return result.chosen, nil
}
