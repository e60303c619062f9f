package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
	"github.com/sift-labs/tableqa/internal/core/ports/driving"
)

type stubQueryService struct {
	question string
	answer   *domain.Answer
	err      error
}

func (s *stubQueryService) Ask(_ context.Context, question string, _ driving.AskOptions) (*domain.Answer, error) {
	s.question = question
	return s.answer, s.err
}

func (s *stubQueryService) SearchVectors(_ context.Context, _ string, _ int) ([]domain.ScoredChunk, error) {
	return nil, nil
}

func (s *stubQueryService) SearchTables(_ context.Context, _ string, _ int) ([]domain.TableRecord, error) {
	return nil, nil
}

func (s *stubQueryService) CacheStats(_ context.Context) driven.CacheStats {
	return driven.CacheStats{}
}

func (s *stubQueryService) ClearCache(_ context.Context) error { return nil }

var _ driving.QueryService = (*stubQueryService)(nil)

func TestSubmit_EmptyInputIsNoOp(t *testing.T) {
	m := NewModel(&stubQueryService{})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	model := updated.(*Model)
	assert.False(t, model.waiting)
	assert.Nil(t, cmd)
}

func TestSubmit_StartsQuery(t *testing.T) {
	stub := &stubQueryService{answer: &domain.Answer{Text: "14 days"}}
	m := NewModel(stub)
	m.input.SetValue("How long is the testing phase?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	model := updated.(*Model)
	assert.True(t, model.waiting)
	assert.Equal(t, "How long is the testing phase?", model.pending)
	assert.Empty(t, model.input.Value())
	require.NotNil(t, cmd)
}

func TestSubmit_IgnoredWhileWaiting(t *testing.T) {
	m := NewModel(&stubQueryService{})
	m.waiting = true
	m.pending = "first question"
	m.input.SetValue("second question")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	model := updated.(*Model)
	assert.Equal(t, "first question", model.pending)
	assert.Nil(t, cmd)
}

func TestAskCmd_CallsService(t *testing.T) {
	stub := &stubQueryService{answer: &domain.Answer{Text: "42"}}
	m := NewModel(stub)

	msg := m.askCmd("what is the answer")()

	received, ok := msg.(answerReceived)
	require.True(t, ok)
	assert.Equal(t, "what is the answer", stub.question)
	assert.Equal(t, "42", received.answer.Text)
	assert.NoError(t, received.err)
}

func TestAnswerReceived_AppendsHistory(t *testing.T) {
	m := NewModel(&stubQueryService{})
	m.waiting = true
	m.pending = "How long is the testing phase?"

	updated, _ := m.Update(answerReceived{answer: &domain.Answer{
		Text:    "14 days",
		Sources: []domain.Source{{Type: "table", Filename: "plan.pdf"}},
	}})

	model := updated.(*Model)
	require.Len(t, model.history, 1)
	assert.Equal(t, "How long is the testing phase?", model.history[0].question)
	assert.Equal(t, "14 days", model.history[0].answer.Text)
	assert.False(t, model.waiting)
	assert.Empty(t, model.pending)
}

func TestAnswerError_RenderedInView(t *testing.T) {
	m := NewModel(&stubQueryService{})
	m.waiting = true
	m.pending = "anything"

	updated, _ := m.Update(answerReceived{err: errors.New("backend unavailable")})

	view := updated.(*Model).View()
	assert.Contains(t, view, "backend unavailable")
}

func TestView_ShowsAnswerAndSources(t *testing.T) {
	m := NewModel(&stubQueryService{})
	m.history = []exchange{{
		question: "How long was development?",
		answer: &domain.Answer{
			Text: "30 days",
			Sources: []domain.Source{
				{Type: "table", Filename: "plan.pdf"},
				{Type: "text", Filename: "plan.pdf"},
				{Type: "text", Filename: "notes.pdf"},
			},
			Cached: true,
		},
	}}

	view := m.View()
	assert.Contains(t, view, "30 days")
	assert.Contains(t, view, "sources: plan.pdf, notes.pdf")
	assert.Contains(t, view, "(cached)")
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		m := NewModel(&stubQueryService{})

		_, cmd := m.Update(tea.KeyMsg{Type: key})

		require.NotNil(t, cmd, "key %v should quit", key)
	}
}
