package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lograg/internal/domain"
	"lograg/internal/summarizer"
)

// ExplainPort is the TUI-facing subset of the service.
type ExplainPort interface {
	Explain(ctx context.Context, query string) (*domain.ExplainResponse, error)
}

// explainTimeout covers a full generation round trip.
const explainTimeout = 3 * time.Minute

type explainMsg struct {
	query string
	resp  *domain.ExplainResponse
	err   error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service    ExplainPort
	summarizer *summarizer.FrequencySummarizer
	input      textinput.Model
	viewport   viewport.Model
	resp       *domain.ExplainResponse
	summary    string
	status     string
	cursor     int
	ready      bool
	busy       bool
	lastQuery  string
}

// New creates a new TUI model instance. summary is shown under the title.
func New(service ExplainPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe the incident and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:    service,
		summarizer: summarizer.NewFrequencySummarizer(),
		input:      ti,
		viewport:   vp,
		summary:    summary,
		status:     "Ready. Up/Down cycles similar logs.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, summary, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case explainMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.resp = nil
		} else {
			m.resp = msg.resp
			m.cursor = 0
			m.lastQuery = msg.query
			m.status = m.statusFor(msg.resp)
		}
		m.viewport.SetContent(m.renderCurrent())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.status = fmt.Sprintf("Explaining %q...", q)
				return m, m.explain(q)
			}
		case "down":
			if n := m.resultCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if n := m.resultCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) explain(q string) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), explainTimeout)
		defer cancel()
		resp, err := svc.Explain(ctx, q)
		return explainMsg{query: q, resp: resp, err: err}
	}
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("LogRAG Incident Explainer")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) resultCount() int {
	if m.resp == nil {
		return 0
	}
	return len(m.resp.Results)
}

func (m Model) statusFor(resp *domain.ExplainResponse) string {
	if len(resp.Results) == 0 {
		return "No similar logs found."
	}
	msgs := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		msgs = append(msgs, r.Record.Field("message"))
	}
	terms := m.summarizer.KeyTerms(msgs, 3)
	if len(terms) == 0 {
		return fmt.Sprintf("%d similar logs", len(resp.Results))
	}
	return fmt.Sprintf("%d similar logs  recurring: %s", len(resp.Results), strings.Join(terms, ", "))
}

func (m Model) renderCurrent() string {
	if m.resp == nil {
		return "No results yet."
	}
	var b strings.Builder
	if m.resp.Available {
		b.WriteString(titleStyle.Render("AI Explanation"))
		b.WriteString("\n")
		b.WriteString(highlightStyle.Render(m.summarizer.Summarize(m.resp.Explanation, 1)))
		b.WriteString("\n\n")
		b.WriteString(m.resp.Explanation)
	} else {
		b.WriteString(warnStyle.Render("AI explanation unavailable: " + m.resp.Reason))
		b.WriteString("\nShowing similar historical logs only.")
	}
	b.WriteString("\n\n")

	if len(m.resp.Results) == 0 {
		b.WriteString("No similar logs.")
		return b.String()
	}
	r := m.resp.Results[m.cursor]
	rec := r.Record
	b.WriteString(titleStyle.Render(fmt.Sprintf("Similar log %d/%d  score=%.3f", m.cursor+1, len(m.resp.Results), r.Score)))
	fmt.Fprintf(&b, "\nService: %s  Level: %s  Time: %s\n\n", rec.Field("service"), rec.Field("level"), rec.Field("timestamp"))
	b.WriteString(m.highlightMessage(rec.Field("message")))
	if stack := strings.TrimSpace(rec.Field("stack")); stack != "" {
		b.WriteString("\n\n")
		b.WriteString(stack)
	}
	return b.String()
}

// highlightMessage marks the sentence of text that best matches the last
// query.
func (m Model) highlightMessage(text string) string {
	sentences := m.summarizer.Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	if best := m.summarizer.BestMatch(sentences, m.lastQuery); best >= 0 {
		sentences[best] = highlightStyle.Render(sentences[best])
	}
	return strings.Join(sentences, " ")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)
