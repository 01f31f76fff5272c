// Package tui is the terminal chat view: it resolves the room for a room link
// or a selected listing and shows the listing card for the conversation.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"marketchat/internal/domain/entity"
	"marketchat/internal/usecase"
	"marketchat/pkg/logger"
)

type phase int

const (
	phaseLoading phase = iota
	phaseFailed
	phaseReady
	phaseCompleting
)

// Options wires the view to the resolution core.
type Options struct {
	Resolver     *usecase.RoomResolver
	Synchronizer *usecase.StatusSynchronizer
	Identity     entity.Identity
	Input        usecase.ResolveInput
	// ImageBase is the API base the image endpoint lives under.
	ImageBase string
}

type resolvedMsg struct {
	res usecase.Resolution
}

type statusAppliedMsg struct {
	outcome usecase.Outcome
}

type theme struct {
	root    lipgloss.Style
	card    lipgloss.Style
	title   lipgloss.Style
	label   lipgloss.Style
	errText lipgloss.Style
	help    lipgloss.Style
}

func newTheme() theme {
	accent := lipgloss.Color("#05ffa1")
	muted := lipgloss.Color("#9ca3d8")
	return theme{
		root: lipgloss.NewStyle().Padding(1, 2),
		card: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		title:   lipgloss.NewStyle().Bold(true),
		label:   lipgloss.NewStyle().Foreground(muted),
		errText: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff71ce")).Bold(true),
		help:    lipgloss.NewStyle().Foreground(muted),
	}
}

type Model struct {
	opts Options

	phase   phase
	res     usecase.Resolution
	outcome *usecase.Outcome
	width   int

	spinner spinner.Model
	theme   theme
}

func NewModel(opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	return Model{
		opts:    opts,
		phase:   phaseLoading,
		spinner: sp,
		theme:   newTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.resolveCmd())
}

func (m Model) resolveCmd() tea.Cmd {
	resolver := m.opts.Resolver
	in := m.opts.Input
	return func() tea.Msg {
		return resolvedMsg{res: resolver.Resolve(context.Background(), in)}
	}
}

func (m Model) completeCmd(listingID int64) tea.Cmd {
	synchronizer := m.opts.Synchronizer
	identity := m.opts.Identity
	return func() tea.Msg {
		return statusAppliedMsg{outcome: synchronizer.ApplyStatus(context.Background(), listingID, entity.ListingStatusDone, identity)}
	}
}

// CanComplete reports whether the viewer owns the listing and may mark it done.
func (m Model) CanComplete() bool {
	l := m.res.Listing
	return m.phase == phaseReady &&
		m.opts.Synchronizer != nil &&
		l != nil &&
		l.ID != 0 &&
		l.OwnerID != "" &&
		l.OwnerID == m.opts.Identity.String() &&
		l.Status != entity.ListingStatusDone
}

// Resolution returns the resolution currently shown.
func (m Model) Resolution() usecase.Resolution {
	return m.res
}

// Outcome returns the status outcome once the listing was completed.
func (m Model) Outcome() (usecase.Outcome, bool) {
	if m.outcome == nil {
		return 0, false
	}
	return *m.outcome, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resolvedMsg:
		if msg.res.State == usecase.StateStale || !m.opts.Resolver.IsCurrent(msg.res.Generation) {
			logger.Debug("Dropping stale resolution for generation %d", msg.res.Generation)
			return m, nil
		}
		m.res = msg.res
		if msg.res.State == usecase.StateReady {
			m.phase = phaseReady
		} else {
			m.phase = phaseFailed
		}
		return m, nil
	case statusAppliedMsg:
		outcome := msg.outcome
		m.outcome = &outcome
		if m.res.Listing != nil {
			listing := *m.res.Listing
			listing.Status = entity.ListingStatusDone
			m.res.Listing = &listing
		}
		logger.Info("Transaction completed: outcome=%s", outcome)
		return m, tea.Quit
	case spinner.TickMsg:
		if m.phase != phaseLoading && m.phase != phaseCompleting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			if m.phase == phaseCompleting {
				return m, nil
			}
			m.phase = phaseLoading
			return m, tea.Batch(m.spinner.Tick, m.resolveCmd())
		case "c":
			if !m.CanComplete() {
				return m, nil
			}
			m.phase = phaseCompleting
			return m, tea.Batch(m.spinner.Tick, m.completeCmd(m.res.Listing.ID))
		}
	}
	return m, nil
}

func (m Model) View() string {
	var out string
	switch m.phase {
	case phaseLoading:
		out = m.spinner.View() + " Opening chat room..."
	case phaseCompleting:
		out = m.spinner.View() + " Completing transaction..."
	case phaseFailed:
		out = m.renderFailure()
	default:
		out = m.renderRoom()
	}
	return m.theme.root.Render(out)
}

func (m Model) renderFailure() string {
	lines := []string{
		m.theme.errText.Render(Remediation(m.res.Failure)),
		"",
	}
	if m.res.NavigateAway {
		lines = append(lines, m.theme.help.Render("q: go back · r: retry"))
	} else {
		lines = append(lines, m.theme.help.Render("q: quit"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRoom() string {
	var b strings.Builder
	if l := m.res.Listing; l != nil {
		card := strings.Join([]string{
			m.theme.title.Render(l.Title),
			m.theme.label.Render("Price: ") + FormatPrice(l.Price) + " KRW",
			m.theme.label.Render("Status: ") + statusLabel(l.Status),
			m.theme.label.Render("Image: ") + ImageDisplayURL(m.opts.ImageBase, l.ImageURL),
		}, "\n")
		style := m.theme.card
		if m.width > 8 {
			style = style.Width(m.width - 8)
		}
		b.WriteString(style.Render(card))
		b.WriteString("\n")
	}
	if room := m.res.Room; room != nil {
		b.WriteString(m.theme.label.Render("Room: ") + room.RoomID + "\n")
		b.WriteString(m.theme.label.Render("Chatting with: ") + room.ParticipantB + "\n")
	}

	help := "q: quit · r: reload"
	if m.CanComplete() {
		help = "c: complete transaction · " + help
	}
	b.WriteString("\n" + m.theme.help.Render(help))
	return b.String()
}

// String renders a one-line summary, used in logs.
func (m Model) String() string {
	switch m.phase {
	case phaseReady:
		return fmt.Sprintf("ready room=%s", m.res.Room.RoomID)
	case phaseFailed:
		if m.res.Failure != nil {
			return fmt.Sprintf("failed code=%s", m.res.Failure.Code)
		}
		return "failed"
	case phaseCompleting:
		return "completing"
	}
	return "loading"
}
