package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/bizcheck/internal/engine/batch"
)

const (
	keyQuit  = "q"
	keyCtrlC = "ctrl+c"
	keyEsc   = "esc"
)

// ProgressMsg carries a processor snapshot to the model.
type ProgressMsg struct {
	Snapshot batch.ProgressSnapshot
}

// DoneMsg ends the progress view.
type DoneMsg struct {
	Err error
}

// ProgressModel renders a batch run as a progress bar with counts and ETA.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type ProgressModel struct {
	title    string
	bar      progress.Model
	snapshot batch.ProgressSnapshot
	width    int

	cancel    context.CancelFunc
	cancelled bool
	done      bool
	err       error
}

// NewProgressModel creates a progress model. cancel is called when the user
// asks to stop and may be nil.
func NewProgressModel(title string, total int, cancel context.CancelFunc) ProgressModel {
	return ProgressModel{
		title:    title,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultWidth/2)),
		snapshot: batch.ProgressSnapshot{TotalItems: total},
		width:    defaultWidth,
		cancel:   cancel,
	}
}

// Init initializes the model (Bubble Tea interface).
func (m ProgressModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state (Bubble Tea interface).
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-borderPadding*4, 10) //nolint:mnd // Minimum bar width.
		return m, nil
	case ProgressMsg:
		m.snapshot = msg.Snapshot
		return m, nil
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case keyQuit, keyCtrlC, keyEsc:
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the progress bar (Bubble Tea interface).
func (m ProgressModel) View() string {
	if m.done {
		return ""
	}

	s := m.snapshot
	lines := []string{
		HeaderStyle.Render(m.title),
		m.bar.ViewAs(s.PercentComplete / 100), //nolint:mnd // Percent to ratio.
		m.statusLine(),
	}
	if m.cancelled {
		lines = append(lines, WarningStyle.Render("Cancelling..."))
	} else {
		lines = append(lines, SubtleStyle.Render("q: cancel"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

func (m ProgressModel) statusLine() string {
	s := m.snapshot
	parts := []string{
		fmt.Sprintf("%d/%d items", s.CompletedItems, s.TotalItems),
	}
	if s.TotalBatches > 0 {
		parts = append(parts, fmt.Sprintf("batch %d/%d", min(s.CompletedBatches+1, s.TotalBatches), s.TotalBatches))
	}
	if s.ItemsPerSecond > 0 {
		parts = append(parts, fmt.Sprintf("%.1f items/s", s.ItemsPerSecond))
	}
	if s.EstimatedRemain > 0 {
		parts = append(parts, "ETA "+s.EstimatedRemain.Round(time.Second).String())
	}
	return LabelStyle.Render(strings.Join(parts, " · "))
}

// Cancelled reports whether the user asked to stop.
func (m ProgressModel) Cancelled() bool {
	return m.cancelled
}

// Snapshot returns the last snapshot received.
func (m ProgressModel) Snapshot() batch.ProgressSnapshot {
	return m.snapshot
}

// Job is a batch run reporting snapshots to observe.
type Job func(ctx context.Context, observe func(batch.ProgressSnapshot)) error

// RunWithProgress runs job while rendering a progress bar to out. Pressing
// q or ctrl+c on in cancels the job's context; a nil in disables keys. It
// returns the job's error.
func RunWithProgress(ctx context.Context, title string, total int, in io.Reader, out io.Writer, job Job) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(
		NewProgressModel(title, total, cancel),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	jobErr := make(chan error, 1)
	go func() {
		err := job(ctx, func(s batch.ProgressSnapshot) {
			program.Send(ProgressMsg{Snapshot: s})
		})
		jobErr <- err
		program.Send(DoneMsg{Err: err})
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-jobErr
		return fmt.Errorf("running progress view: %w", err)
	}
	return <-jobErr
}
