// Package tui is the full-screen chat front-end. It renders the same
// question loop as the plain REPL, with the transcript in a scrollable
// viewport.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfqa/internal/chat"
)

// answerMsg carries the outcome of one question back into the update loop.
type answerMsg struct {
	question string
	answer   string
	err      error
}

// turn is one question/answer exchange shown in the transcript.
type turn struct {
	question string
	answer   string
	failed   bool
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	qa      chat.Asker
	ctx     context.Context
	input   textinput.Model
	view    viewport.Model
	turns   []turn
	status  string
	source  string
	ready   bool
	waiting bool
}

// New creates the chat model. source names the ingested document for the
// header line.
func New(ctx context.Context, qa chat.Asker, source string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask your question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		qa:     qa,
		ctx:    ctx,
		input:  ti,
		view:   vp,
		source: source,
		status: "Ready. Type 'quit', 'exit' or 'q' to end.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2 // header + source
		totalFooterLines := 1 // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.view.Width = max(20, msg.Width)
		m.view.Height = max(3, vh-rh)
		m.view.SetContent(m.renderTranscript())
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.turns = append(m.turns, turn{question: msg.question, answer: msg.err.Error(), failed: true})
			m.status = "Error. Please try again."
		} else {
			m.turns = append(m.turns, turn{question: msg.question, answer: msg.answer})
			m.status = "Ready."
		}
		m.view.SetContent(m.renderTranscript())
		m.view.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.waiting {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			if isTerminal(q) {
				return m, tea.Quit
			}
			m.input.SetValue("")
			m.waiting = true
			m.status = "Processing..."
			return m, ask(m.ctx, m.qa, q)
		case "up":
			m.view.LineUp(1)
			return m, nil
		case "down":
			m.view.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and the transcript.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("PDF Q&A")
	source := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.source)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	transcript := transcriptBoxStyle.Render(m.view.View())
	return header + "\n" + source + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return "No questions yet."
	}
	parts := make([]string, 0, len(m.turns))
	for _, t := range m.turns {
		q := questionStyle.Render("Q: " + t.question)
		var a string
		if t.failed {
			a = errorStyle.Render("Error: " + t.answer)
		} else {
			a = "ANSWER: " + t.answer
		}
		parts = append(parts, q+"\n"+a)
	}
	return strings.Join(parts, "\n\n")
}

// ask runs one question off the update loop so the UI stays responsive
// while the model call is in flight.
func ask(ctx context.Context, qa chat.Asker, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := qa.Ask(ctx, question)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

func isTerminal(input string) bool {
	switch strings.ToLower(input) {
	case "", "quit", "exit", "q":
		return true
	}
	return false
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Run starts the program on the alternate screen and blocks until the
// user quits.
func Run(ctx context.Context, qa chat.Asker, source string) error {
	p := tea.NewProgram(New(ctx, qa, source), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
