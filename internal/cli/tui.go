package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/search"
)

// =============================================================================
// Messages
// =============================================================================

type sizeStartMsg struct{ n int }

type progressMsg struct {
	n               int
	explored, found int64
}

type sizeDoneMsg struct {
	n     int
	res   *search.Result
	dests []string
	err   error
}

type searchDoneMsg struct{ err error }

type tickMsg time.Time

// =============================================================================
// SearchModel - Live search progress
// =============================================================================

// sizeRow is the state of one size in the progress table.
type sizeRow struct {
	n        int
	state    string // "waiting", "running", "done", "failed"
	explored int64
	found    int64
	started  time.Time
	elapsed  time.Duration
	hitLimit bool
	note     string
}

// SearchModel is the bubbletea model for the --tui progress view.
type SearchModel struct {
	Title    string
	Err      error
	rows     []sizeRow
	index    map[int]int
	cancel   context.CancelFunc
	started  time.Time
	frame    int
	quitting bool
}

// NewSearchModel creates a progress view for the given sizes. cancel is
// called when the user quits before the search finishes.
func NewSearchModel(title string, sizes []int, cancel context.CancelFunc) SearchModel {
	m := SearchModel{
		Title:   title,
		index:   make(map[int]int, len(sizes)),
		cancel:  cancel,
		started: time.Now(),
	}
	for i, n := range sizes {
		m.rows = append(m.rows, sizeRow{n: n, state: "waiting"})
		m.index[n] = i
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m SearchModel) Init() tea.Cmd {
	return tick()
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Keep running until the search goroutine reports back, so
			// sinks are closed before the program exits.
			if !m.quitting && m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
		}
	case tickMsg:
		m.frame++
		return m, tick()
	case sizeStartMsg:
		if i, ok := m.index[msg.n]; ok {
			m.rows[i].state = "running"
			m.rows[i].started = time.Now()
		}
	case progressMsg:
		if i, ok := m.index[msg.n]; ok {
			// Parallel workers may report out of order.
			m.rows[i].explored = max(m.rows[i].explored, msg.explored)
			m.rows[i].found = max(m.rows[i].found, msg.found)
		}
	case sizeDoneMsg:
		if i, ok := m.index[msg.n]; ok {
			r := &m.rows[i]
			r.elapsed = time.Since(r.started)
			if msg.err != nil {
				r.state = "failed"
				r.note = errors.UserMessage(msg.err)
				break
			}
			r.state = "done"
			r.explored, r.found, r.hitLimit = msg.res.Explored, msg.res.Found, msg.res.HitLimit
			r.elapsed = msg.res.Duration
			r.note = strings.Join(msg.dests, ", ")
		}
	case searchDoneMsg:
		m.Err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	if m.quitting {
		b.WriteString(StyleWarning.Render("stopping..."))
	} else {
		b.WriteString(StyleDim.Render("q quit"))
	}
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(m.rows))
	for _, r := range m.rows {
		elapsed := r.elapsed
		if r.state == "running" {
			elapsed = time.Since(r.started)
		}
		status := r.state
		switch r.state {
		case "running":
			status = m.spinnerFrame() + " running"
		case "done":
			status = iconSuccess + " done"
			if r.hitLimit {
				status += " (limit)"
			}
		case "failed":
			status = iconError + " failed"
		}
		took := "—"
		if r.state != "waiting" {
			took = elapsed.Round(100 * time.Millisecond).String()
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.n),
			status,
			fmt.Sprintf("%d", r.explored),
			fmt.Sprintf("%d", r.found),
			took,
			r.note,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("n", "Status", "Explored", "Found", "Time", "Output").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			switch m.rows[row].state {
			case "running":
				return base.Foreground(colorCyan)
			case "done":
				return base.Foreground(colorGreen)
			case "failed":
				return base.Foreground(colorRed)
			}
			return base.Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  elapsed %s", time.Since(m.started).Round(time.Second))))
	b.WriteString("\n")
	return b.String()
}

func (m SearchModel) spinnerFrame() string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return frames[m.frame%len(frames)]
}

// =============================================================================
// Driver
// =============================================================================

// runSearchesTUI runs plan in a goroutine while the progress view owns the
// terminal. Log output below warnings is suppressed for the duration.
func (c *CLI) runSearchesTUI(ctx context.Context, plan *searchPlan) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	title := fmt.Sprintf("%s %s", appName, plan.opts.Mode())
	p := tea.NewProgram(NewSearchModel(title, plan.sizes, cancel), tea.WithOutput(os.Stderr))
	runner := search.NewRunner(quietLogger(loggerFromContext(ctx)))

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		var failed []int
		for _, n := range plan.sizes {
			p.Send(sizeStartMsg{n: n})
			res, dests, err := c.searchSize(ctx, runner, plan, n, func(explored, found int64) {
				p.Send(progressMsg{n: n, explored: explored, found: found})
			})
			p.Send(sizeDoneMsg{n: n, res: res, dests: dests, err: err})
			if err != nil {
				if ctx.Err() != nil {
					p.Send(searchDoneMsg{err: ctx.Err()})
					return
				}
				if !errors.Is(err, errors.ErrCodeIO) {
					p.Send(searchDoneMsg{err: err})
					return
				}
				failed = append(failed, n)
			}
		}
		var err error
		if len(failed) > 0 {
			err = errors.New(errors.ErrCodeIO, "output failed for sizes %v", failed)
		}
		p.Send(searchDoneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-finished
		return fmt.Errorf("progress view: %w", err)
	}
	<-finished
	return final.(SearchModel).Err
}
