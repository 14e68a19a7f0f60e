// Package tui plays a quiz session in the terminal.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/domain/quizsession"
)

// Options configures the terminal model.
type Options struct {
	NoColor bool
}

// Model walks a session one question at a time.
type Model struct {
	ctx     context.Context
	session *quizsession.Session
	items   []quizsession.Item
	index   int
	cursor  int
	picked  map[int]bool
	input   textinput.Model
	notice  string
	done    bool
	noColor bool
}

// New builds a model over sess. ctx is used for mastery writes.
func New(ctx context.Context, sess *quizsession.Session, opts Options) Model {
	in := textinput.New()
	in.Placeholder = "your answer"
	in.CharLimit = 200
	in.Width = 60

	m := Model{
		ctx:     ctx,
		session: sess,
		items:   sess.Items(),
		picked:  map[int]bool{},
		input:   in,
		noColor: opts.NoColor,
	}
	m.done = len(m.items) == 0
	m.input.Focus()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Done reports whether every question was walked through.
func (m Model) Done() bool {
	return m.done
}

func (m Model) Summary() quizsession.Summary {
	return m.session.Summary()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	}
	if m.done {
		if key.String() == "q" || key.String() == "enter" {
			return m, tea.Quit
		}
		return m, nil
	}

	it := m.current()
	if usesInput(it.Question) && !it.State.Submitted() && key.String() != "enter" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.notice = ""
		return m, cmd
	}

	switch key.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 && !it.State.Submitted() {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(it.Question.Options)-1 && !it.State.Submitted() {
			m.cursor++
		}
	case " ", "x":
		m.toggle(it)
	case "enter":
		if it.State.Submitted() {
			m.next()
			return m, nil
		}
		m.validate(it)
	case "n":
		m.next()
	}
	return m, nil
}

func (m Model) current() quizsession.Item {
	return m.items[m.index]
}

// usesInput reports whether the answer is typed rather than picked.
func usesInput(q question.Question) bool {
	return !q.HasOptions()
}

func (m *Model) toggle(it quizsession.Item) {
	if it.State.Submitted() || !it.Question.HasOptions() {
		return
	}
	if it.Question.Kind == question.KindMulti {
		m.picked[m.cursor] = !m.picked[m.cursor]
	} else {
		m.picked = map[int]bool{m.cursor: true}
	}
}

// answer is the raw text sent to the session for the current question.
func (m *Model) answer(it quizsession.Item) string {
	q := it.Question
	if usesInput(q) {
		return m.input.Value()
	}
	if q.Kind != question.KindMulti {
		if len(m.picked) == 0 {
			return q.Options[m.cursor]
		}
		for i := range q.Options {
			if m.picked[i] {
				return q.Options[i]
			}
		}
	}
	var chosen []string
	for i, opt := range q.Options {
		if m.picked[i] {
			chosen = append(chosen, opt)
		}
	}
	return strings.Join(chosen, ", ")
}

func (m *Model) validate(it quizsession.Item) {
	qid := it.Question.ID
	raw := m.answer(it)
	if err := m.session.Select(qid, raw); err != nil && !errors.Is(err, quizsession.ErrAlreadySubmitted) {
		m.notice = err.Error()
		return
	}
	_, err := m.session.Validate(m.ctx, qid, raw)
	switch {
	case errors.Is(err, quizsession.ErrNoAnswer):
		m.notice = "Give an answer first."
		return
	case err != nil:
		m.notice = err.Error()
		return
	}
	m.notice = ""
	m.items = m.session.Items()
}

func (m *Model) next() {
	if m.index == len(m.items)-1 {
		m.done = true
		return
	}
	m.index++
	m.cursor = 0
	m.picked = map[int]bool{}
	m.notice = ""
	m.input.Reset()
}

// ── Rendering ───────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.done {
		return m.renderSummary()
	}

	it := m.current()
	parts := []string{m.renderHeader(), "", m.stylize(it.Question.Title, lipgloss.Color("15"), true)}
	if it.Question.Code != "" {
		parts = append(parts, m.stylize(it.Question.Code, lipgloss.Color("250"), false))
	}
	parts = append(parts, "")

	if usesInput(it.Question) {
		if it.State.Submitted() {
			parts = append(parts, "> "+it.Selection)
		} else {
			parts = append(parts, m.input.View())
			if it.Question.Kind == question.KindMulti {
				parts = append(parts, m.stylize("several answers, separated by commas", lipgloss.Color("242"), false))
			}
		}
	} else {
		parts = append(parts, m.renderOptions(it)...)
	}

	if it.Feedback != nil {
		parts = append(parts, "", m.renderFeedback(*it.Feedback))
	}
	if m.notice != "" {
		parts = append(parts, "", m.stylize(m.notice, lipgloss.Color("214"), false))
	}
	parts = append(parts, "", m.renderHelp(it))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	s := m.session.Summary()
	line := m.session.Topic + " · " + itoa(m.index+1) + "/" + itoa(len(m.items)) +
		" · ✓ " + itoa(s.Correct) + " ✗ " + itoa(s.Incorrect)
	if s.Hidden > 0 {
		line += " · " + itoa(s.Hidden) + " mastered"
	}
	return m.stylize(line, lipgloss.Color("33"), true)
}

func (m Model) renderOptions(it quizsession.Item) []string {
	lines := make([]string, 0, len(it.Question.Options))
	for i, opt := range it.Question.Options {
		pointer := "  "
		if i == m.cursor && !it.State.Submitted() {
			pointer = "> "
		}
		mark := "( )"
		if it.Question.Kind == question.KindMulti {
			mark = "[ ]"
			if m.picked[i] {
				mark = "[x]"
			}
		} else if m.picked[i] || (it.State.Submitted() && opt == it.Selection) {
			mark = "(•)"
		}
		lines = append(lines, pointer+mark+" "+opt)
	}
	return lines
}

func (m Model) renderFeedback(fb quizsession.Feedback) string {
	var lines []string
	if fb.Correct {
		line := "Correct! " + itoa(fb.Count) + "/" + itoa(fb.Threshold)
		if fb.Mastered {
			line += " · mastered"
		}
		lines = append(lines, m.stylize(line, lipgloss.Color("42"), true))
	} else {
		lines = append(lines,
			m.stylize("Wrong.", lipgloss.Color("196"), true),
			"Expected: "+fb.CorrectAnswer,
		)
	}
	if fb.Explanation != "" {
		lines = append(lines, fb.Explanation)
	}
	if fb.Example != "" {
		lines = append(lines, m.stylize(fb.Example, lipgloss.Color("250"), false))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderHelp(it quizsession.Item) string {
	var help string
	switch {
	case it.State.Submitted():
		help = "enter/n next · q quit"
	case usesInput(it.Question):
		help = "enter validate · esc quit"
	case it.Question.Kind == question.KindMulti:
		help = "↑/↓ move · space toggle · enter validate · n skip · q quit"
	default:
		help = "↑/↓ move · enter validate · n skip · q quit"
	}
	return m.stylize(help, lipgloss.Color("242"), false)
}

func (m Model) renderSummary() string {
	s := m.session.Summary()
	lines := []string{
		m.stylize("Quiz finished: "+m.session.Topic, lipgloss.Color("33"), true),
		"Correct: " + itoa(s.Correct) + "/" + itoa(s.Total),
		"Unanswered: " + itoa(s.Remaining),
	}
	if s.Hidden > 0 {
		lines = append(lines, "Mastered and skipped: "+itoa(s.Hidden))
	}
	if s.Total == 0 {
		lines = append(lines, "Nothing left to practise. Run with -reset to start over.")
	}
	lines = append(lines, "", m.stylize("enter/q quit", lipgloss.Color("242"), false))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// stylize applies optional color styling.
func (m Model) stylize(text string, color lipgloss.Color, bold bool) string {
	if m.noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
