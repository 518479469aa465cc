package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/notify"
)

func (m *model) View() string {
	sections := []string{m.renderHeader(), m.renderStep()}
	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}
	status := m.statusMsg
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	sections = append(sections,
		statusBarStyle.Render(status),
		footerStyle.Render(m.helpLine()),
	)
	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width > 0 {
		return lipgloss.Place(m.width, lipgloss.Height(view), lipgloss.Left, lipgloss.Top, view)
	}
	return view
}

func (m *model) renderHeader() string {
	def := m.ctrl.Definition()
	st := m.ctrl.State()
	title := titleStyle.Render(def.Title())
	pos, total := m.ctrl.Position()
	progress := subtitleStyle.Render(fmt.Sprintf("Step %d/%d • %s", pos, total, statusDisplay(st.Status)))
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", progress)
	if st.EntityID != "" {
		header += "\n" + subtitleStyle.Render("Draft "+st.EntityID)
	}
	return header
}

func (m *model) renderStep() string {
	step := m.ctrl.CurrentStep()
	if m.done {
		return styleForWidth(panelStyle, m.width).Render(successTextStyle.Render("All done. Your answers were submitted."))
	}

	var b strings.Builder
	b.WriteString(stepTitleStyle.Render(step.Title))
	if step.Description != "" {
		b.WriteString("\n")
		b.WriteString(infoTextStyle.Render(step.Description))
	}
	for i, f := range m.fields {
		b.WriteString("\n\n")
		b.WriteString(m.renderField(i, f))
	}
	if len(m.fields) == 0 {
		b.WriteString("\n\n")
		b.WriteString(infoTextStyle.Render("Nothing to fill in. Press Enter to continue."))
	}
	return styleForWidth(panelStyle, m.width).Render(b.String())
}

func (m *model) renderField(idx int, f *field) string {
	marker := "  "
	label := labelStyle
	if idx == m.focus {
		marker = "› "
		label = focusedLabelStyle
	}
	name := f.def.Label
	if name == "" {
		name = f.def.ID
	}
	lines := []string{marker + label.Render(name)}
	if f.def.Description != "" {
		lines = append(lines, "  "+infoTextStyle.Render(f.def.Description))
	}
	if f.isChoice() {
		lines = append(lines, renderChoices(f.choices, f.selectIndex, idx == m.focus)...)
	} else {
		lines = append(lines, "  "+f.input.View())
	}
	if msg, ok := m.errors[f.def.ID]; ok {
		lines = append(lines, "  "+errorTextStyle.Render(msg))
	}
	return strings.Join(lines, "\n")
}

func renderChoices(choices []wizard.Choice, selected int, focused bool) []string {
	lines := make([]string, 0, len(choices))
	for i, c := range choices {
		label := c.Label
		if label == "" {
			label = c.Value
		}
		prefix := "  ( ) "
		style := infoTextStyle
		if i == selected {
			prefix = "  (•) "
			if focused {
				style = selectedStyle
			}
		}
		lines = append(lines, prefix+style.Render(label))
	}
	return lines
}

func (m *model) renderToasts() string {
	items := m.toasts.Visible(m.now())
	if len(items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(items))
	for _, n := range items {
		style, ok := levelStyles[n.Level]
		if !ok {
			style = infoTextStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s: %s", n.Title, n.Message)))
	}
	return toastPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) helpLine() string {
	if m.done {
		return "Enter quit • Ctrl+Y copy answers"
	}
	help := []string{"Enter next", "Tab switch field", "Esc back"}
	if m.ctrl.CanDraft() {
		help = append(help, "Ctrl+S save draft")
	}
	help = append(help, "Ctrl+Y copy", "Ctrl+C quit")
	return strings.Join(help, " • ")
}

var titleCase = cases.Title(language.English)

func statusDisplay(status wizard.Status) string {
	return titleCase.String(strings.ReplaceAll(string(status), "_", " "))
}

func styleForWidth(base lipgloss.Style, totalWidth int) lipgloss.Style {
	if totalWidth <= 0 {
		return base
	}
	width := totalWidth - base.GetHorizontalFrameSize()
	if width < 20 {
		width = 20
	}
	return base.Width(width)
}

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0AAFF"))
	subtitleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#4C566A")).Padding(0, 1).MarginTop(1)
	toastPanelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7C3AED")).Padding(0, 1).MarginTop(1)
	statusBarStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1).MarginTop(1).Background(lipgloss.Color("#312E81")).Foreground(lipgloss.Color("#E0E7FF"))
	footerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")).Padding(0, 1)
	stepTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FDE047"))
	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#CBD5F5"))
	focusedLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	selectedStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#34D399"))
	infoTextStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#CBD5F5"))
	errorTextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	successTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")).Bold(true)
)

var levelStyles = map[notify.Level]lipgloss.Style{
	notify.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#A5B4FC")),
	notify.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")),
	notify.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316")),
	notify.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
}
