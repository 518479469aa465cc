package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	apperrors "github.com/goliatone/go-errors"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/notify"
	"github.com/goliatone/go-wizard/validation"
)

var boolChoices = []wizard.Choice{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}}

type field struct {
	def         wizard.Input
	input       textinput.Model
	choices     []wizard.Choice
	selectIndex int
}

func (f *field) isChoice() bool {
	return len(f.choices) > 0
}

func (f *field) raw() string {
	if f.isChoice() {
		if f.selectIndex < 0 || f.selectIndex >= len(f.choices) {
			return ""
		}
		return f.choices[f.selectIndex].Value
	}
	return f.input.Value()
}

func (f *field) setRaw(raw string) {
	if f.isChoice() {
		f.selectIndex = choiceIndex(f.choices, raw)
		return
	}
	f.input.SetValue(raw)
}

type submitDoneMsg struct {
	res validation.Result
	err error
}

type noteMsg notify.Notification

type model struct {
	ctx     context.Context
	ctrl    *wizard.Controller
	toasts  *notify.Toasts
	notes   chan notify.Notification
	subs    []interface{ Unsubscribe() }
	copy    func(string) error
	now     func() time.Time
	spinner spinner.Model

	stepID string
	fields []*field
	focus  int
	errors map[string]string

	// typed holds unvalidated text per step id, kept when walking back.
	typed map[string]map[string]string

	busy      bool
	done      bool
	statusMsg string

	width  int
	height int
}

func newModel(ctx context.Context, ctrl *wizard.Controller, cfg Config) (*model, error) {
	if ctrl == nil {
		return nil, ErrNoController
	}
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &model{
		ctx:     ctx,
		ctrl:    ctrl,
		toasts:  cfg.Toasts,
		notes:   make(chan notify.Notification, 16),
		copy:    cfg.Clipboard,
		now:     cfg.Clock,
		spinner: sp,
		errors:  map[string]string{},
		typed:   map[string]map[string]string{},
	}
	if m.toasts == nil {
		m.toasts = notify.NewToasts(0, 0)
	}
	if m.now == nil {
		m.now = time.Now
	}

	center := cfg.Center
	if center == nil {
		center = notify.NewCenter()
	}
	m.subs = append(m.subs,
		center.Subscribe("wizard."+ctrl.Definition().ID()+".#", m.toasts.Handle),
		center.Subscribe("wizard."+ctrl.Definition().ID()+".#", m.forward),
		ctrl.Subscribe(notify.Bridge(center, cfg.Titles)),
	)

	if ctrl.State().Status == wizard.StatusNotStarted {
		if err := ctrl.Start(ctx, cfg.Defaults); err != nil {
			m.close()
			return nil, err
		}
	}
	m.loadStep()
	m.setStatus("Fill in the fields and press Enter")
	return m, nil
}

// forward wakes the program when a notification arrives from another
// goroutine, such as a background draft save.
func (m *model) forward(n notify.Notification) {
	select {
	case m.notes <- n:
	default:
	}
}

func (m *model) close() {
	for _, s := range m.subs {
		s.Unsubscribe()
	}
	m.subs = nil
}

func waitNoteCmd(ch <-chan notify.Notification) tea.Cmd {
	return func() tea.Msg {
		return noteMsg(<-ch)
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(waitNoteCmd(m.notes), textinput.Blink)
}

// loadStep rebuilds the fields for the current step, prefilled from the
// form data or from text left on the step when walking back.
func (m *model) loadStep() {
	step := m.ctrl.CurrentStep()
	data := m.ctrl.State().FormData
	typed := m.typed[step.ID]
	m.stepID = step.ID
	m.fields = m.fields[:0]
	m.errors = map[string]string{}
	m.focus = 0

	for _, in := range step.Inputs {
		f := &field{def: in, selectIndex: -1}
		value, _ := validation.Lookup(data, in.ID)
		switch {
		case in.Kind == wizard.KindSelect && len(in.Choices) > 0:
			f.choices = in.Choices
			f.selectIndex = choiceIndex(in.Choices, in.Format(value))
		case in.Kind == wizard.KindBool:
			f.choices = in.Choices
			if len(f.choices) == 0 {
				f.choices = boolChoices
			}
			f.selectIndex = boolIndex(f.choices, value)
		default:
			ti := textinput.New()
			ti.Prompt = ""
			ti.Placeholder = placeholderText(in)
			if in.Kind == wizard.KindSecret {
				ti.EchoMode = textinput.EchoPassword
				ti.EchoCharacter = '•'
			}
			ti.SetValue(in.Format(value))
			f.input = ti
		}
		if raw, ok := typed[in.ID]; ok {
			f.setRaw(raw)
		}
		m.fields = append(m.fields, f)
	}
	m.focusField(0)
}

func (m *model) focusField(idx int) {
	if len(m.fields) == 0 {
		m.focus = 0
		return
	}
	idx = (idx + len(m.fields)) % len(m.fields)
	for i, f := range m.fields {
		if f.isChoice() {
			continue
		}
		if i == idx {
			f.input.Focus()
		} else {
			f.input.Blur()
		}
	}
	m.focus = idx
}

func (m *model) focused() *field {
	if m.focus < 0 || m.focus >= len(m.fields) {
		return nil
	}
	return m.fields[m.focus]
}

// collect turns the field text into form data. Dotted ids become nested
// maps.
func (m *model) collect() map[string]any {
	flat := make(map[string]any, len(m.fields))
	for _, f := range m.fields {
		flat[f.def.ID] = f.def.Parse(f.raw())
	}
	return wizard.Expand(flat)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case noteMsg:
		return m, waitNoteCmd(m.notes)
	case submitDoneMsg:
		return m, m.handleSubmitDone(msg)
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.ctrl.Close()
		return tea.Quit
	}
	if m.done {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			return tea.Quit
		case tea.KeyCtrlY:
			m.copyResult()
		}
		if msg.String() == "q" {
			return tea.Quit
		}
		return nil
	}
	if m.busy {
		return nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		if m.focus < len(m.fields)-1 {
			m.focusField(m.focus + 1)
			return nil
		}
		return m.advance()
	case tea.KeyEsc:
		m.back()
		return nil
	case tea.KeyTab:
		m.focusField(m.focus + 1)
		return nil
	case tea.KeyShiftTab:
		m.focusField(m.focus - 1)
		return nil
	case tea.KeyCtrlS:
		m.saveDraft()
		return nil
	case tea.KeyCtrlY:
		m.copyResult()
		return nil
	case tea.KeyCtrlD:
		m.toasts.Dismiss()
		return nil
	}

	f := m.focused()
	if f == nil {
		return nil
	}
	if f.isChoice() {
		m.handleSelect(f, msg)
		return nil
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	delete(m.errors, f.def.ID)
	return cmd
}

func (m *model) handleSelect(f *field, msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k", "left", "h":
		f.selectIndex = moveSelection(f.selectIndex, -1, len(f.choices))
	case "down", "j", "right", "l", " ":
		f.selectIndex = moveSelection(f.selectIndex, 1, len(f.choices))
	default:
		return
	}
	delete(m.errors, f.def.ID)
}

func moveSelection(current, delta, n int) int {
	if n == 0 {
		return -1
	}
	if current < 0 {
		return 0
	}
	return (current + delta + n) % n
}

func (m *model) advance() tea.Cmd {
	input := m.collect()
	step := m.ctrl.CurrentStep()
	if step.Terminal {
		m.busy = true
		m.setStatus("Submitting…")
		return tea.Batch(m.spinner.Tick, m.submitCmd(input))
	}
	res, err := m.ctrl.Next(input)
	if err != nil {
		m.showError(res, err)
		return nil
	}
	delete(m.typed, step.ID)
	m.loadStep()
	pos, total := m.ctrl.Position()
	m.setStatusf("Step %d of %d", pos, total)
	return nil
}

func (m *model) submitCmd(input map[string]any) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		res, err := ctrl.Submit(ctx, input)
		return submitDoneMsg{res: res, err: err}
	}
}

func (m *model) handleSubmitDone(msg submitDoneMsg) tea.Cmd {
	m.busy = false
	if msg.err != nil {
		m.showError(msg.res, msg.err)
		return nil
	}
	m.done = true
	m.setStatus("Submitted. Press Enter to exit, Ctrl+Y to copy the answers")
	return nil
}

func (m *model) showError(res validation.Result, err error) {
	if !res.Valid {
		m.errors = res.Map()
		m.setStatusf("%d field(s) need attention", len(m.errors))
		return
	}
	m.setStatus(errorMessage(err))
}

func (m *model) back() {
	stepID := m.stepID
	typed := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		typed[f.def.ID] = f.raw()
	}
	if err := m.ctrl.Back(); err != nil {
		m.setStatus(errorMessage(err))
		return
	}
	m.typed[stepID] = typed
	m.loadStep()
	pos, total := m.ctrl.Position()
	m.setStatusf("Step %d of %d", pos, total)
}

func (m *model) saveDraft() {
	if !m.ctrl.CanDraft() {
		m.setStatus("Drafts are not available for this wizard")
		return
	}
	if err := m.ctrl.SaveDraft(m.ctx); err != nil {
		m.setStatus(errorMessage(err))
		return
	}
	m.setStatus("Saving draft…")
}

// copyResult copies the draft id when there is one, the answers otherwise.
func (m *model) copyResult() {
	st := m.ctrl.State()
	text, what := st.EntityID, "Draft id"
	if text == "" {
		payload, err := json.MarshalIndent(wizard.Expand(st.FormData), "", "  ")
		if err != nil {
			m.setStatusf("Copy failed: %v", err)
			return
		}
		text, what = string(payload), "Answers"
	}
	if m.copy == nil {
		m.setStatus("Clipboard is not available")
		return
	}
	if err := m.copy(text); err != nil {
		m.setStatusf("Copy failed: %v", err)
		return
	}
	m.setStatusf("%s copied to clipboard", what)
}

func (m *model) setStatus(msg string) {
	m.statusMsg = msg
}

func (m *model) setStatusf(format string, args ...any) {
	m.setStatus(fmt.Sprintf(format, args...))
}

// errorMessage renders err for the status bar without the category and
// metadata decorations.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Source != nil {
			msg += ": " + errorMessage(appErr.Source)
		}
		return msg
	}
	return err.Error()
}

func choiceIndex(choices []wizard.Choice, value string) int {
	for i, c := range choices {
		if c.Value == value {
			return i
		}
	}
	return -1
}

func boolIndex(choices []wizard.Choice, value any) int {
	b, ok := value.(bool)
	if !ok {
		return choiceIndex(choices, fmt.Sprint(value))
	}
	parser := wizard.Input{Kind: wizard.KindBool}
	for i, c := range choices {
		if parsed, ok := parser.Parse(c.Value).(bool); ok && parsed == b {
			return i
		}
	}
	return -1
}

func placeholderText(in wizard.Input) string {
	if in.Placeholder != "" {
		return in.Placeholder
	}
	switch in.Kind {
	case wizard.KindMulti:
		if len(in.Choices) > 0 {
			values := make([]string, 0, len(in.Choices))
			for _, c := range in.Choices {
				values = append(values, c.Value)
			}
			return strings.Join(values, ", ")
		}
		return "comma separated"
	case wizard.KindNumber:
		return "0"
	case wizard.KindDate:
		return validation.DateLayout
	}
	return ""
}
