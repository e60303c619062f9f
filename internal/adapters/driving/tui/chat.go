// Package tui provides an interactive chat session over the query service.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driving"
)

// exchange is one question and its answer in the session history.
type exchange struct {
	question string
	answer   *domain.Answer
	err      error
}

// answerReceived carries a completed query back into the update loop.
type answerReceived struct {
	answer *domain.Answer
	err    error
}

// Model is the bubbletea model for the chat session.
type Model struct {
	query  driving.QueryService
	ctx    context.Context
	styles *Styles

	input   textinput.Model
	spinner spinner.Model

	history []exchange
	pending string
	waiting bool
	width   int
	quit    bool
}

// NewModel creates a chat model over the query service.
func NewModel(query driving.QueryService) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question about your documents..."
	ti.Focus()
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		query:   query,
		ctx:     context.Background(),
		styles:  DefaultStyles(nil),
		input:   ti,
		spinner: sp,
		width:   80,
	}
}

// WithContext sets the context used for queries.
func (m *Model) WithContext(ctx context.Context) *Model {
	m.ctx = ctx
	return m
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the chat session.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 6
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		case "enter":
			return m.submit()
		}

	case answerReceived:
		m.history = append(m.history, exchange{
			question: m.pending,
			answer:   msg.answer,
			err:      msg.err,
		})
		m.pending = ""
		m.waiting = false
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" || m.waiting {
		return m, nil
	}

	m.pending = question
	m.waiting = true
	m.input.SetValue("")

	return m, tea.Batch(m.spinner.Tick, m.askCmd(question))
}

func (m *Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.query.Ask(m.ctx, question, driving.AskOptions{})
		return answerReceived{answer: answer, err: err}
	}
}

// View renders the session history, any in-flight query, and the input.
func (m *Model) View() string {
	if m.quit {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("tableqa chat"))
	b.WriteString("\n\n")

	for _, ex := range m.history {
		b.WriteString(m.styles.Question.Render("> " + ex.question))
		b.WriteString("\n")
		if ex.err != nil {
			b.WriteString(m.styles.Error.Render("error: " + ex.err.Error()))
			b.WriteString("\n\n")
			continue
		}
		b.WriteString(m.styles.Answer.Render(ex.answer.Text))
		b.WriteString("\n")
		if line := sourceLine(ex.answer); line != "" {
			b.WriteString(m.styles.Source.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.waiting {
		b.WriteString(m.styles.Question.Render("> " + m.pending))
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(m.styles.Help.Render(" thinking..."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.Input.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("enter: ask • esc: quit"))
	b.WriteString("\n")
	return b.String()
}

func sourceLine(answer *domain.Answer) string {
	if answer == nil || len(answer.Sources) == 0 {
		return ""
	}

	seen := make(map[string]bool)
	var names []string
	for _, src := range answer.Sources {
		if src.Filename == "" || seen[src.Filename] {
			continue
		}
		seen[src.Filename] = true
		names = append(names, src.Filename)
	}
	if len(names) == 0 {
		return ""
	}

	line := "sources: " + strings.Join(names, ", ")
	if answer.Cached {
		line += " (cached)"
	}
	return line
}

// Run starts the chat session and blocks until the user quits.
func Run(ctx context.Context, query driving.QueryService) error {
	model := NewModel(query).WithContext(ctx)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running chat session: %w", err)
	}
	return nil
}
