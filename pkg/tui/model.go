package tui

import (
	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/watcher"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

// --- Messages ---

type clearStatusMsg struct{}

type eventSource interface {
	Subscribe() watcher.Subscriber
	Unsubscribe(watcher.Subscriber)
}

// --- Model ---

type model struct {
	config  config.Config
	svc     Services
	events  eventSource
	sub     watcher.Subscriber
	address string
	history []string

	section    card
	sectionFor *models.Account
	notFound   bool
	selected   int // index into section.Links(), -1 selects the account itself

	width         int
	height        int
	spinner       spinner.Model
	statusMessage string
	goingTo       bool
	gotoInput     textinput.Model
	help          help.Model
	showHelp      bool
}

func initialModel(svc Services, events eventSource, cfg config.Config, address string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Account address (base58)"
	ti.Width = addressWidth
	ti.CharLimit = addressWidth

	m := model{
		config:    cfg,
		svc:       svc,
		events:    events,
		address:   address,
		selected:  -1,
		spinner:   s,
		gotoInput: ti,
		help:      help.New(),
	}
	if events != nil {
		m.sub = events.Subscribe()
	}
	if address == "" {
		m.goingTo = true
		m.gotoInput.Focus()
	}
	return m
}

func (m model) Init() tea.Cmd {
	var cmds []tea.Cmd

	if m.sub != nil {
		cmds = append(cmds, listenForWatcher(m.sub))
	}
	cmds = append(cmds, m.spinner.Tick)

	if m.address != "" {
		m.svc.FetchAccount(m.address)
	}
	if m.goingTo {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// syncSection builds the card for the current address once its account lookup
// resolves, or rebuilds it when the lookup returns a new account.
func (m *model) syncSection() tea.Cmd {
	if m.address == "" {
		return nil
	}
	acc, resolved := m.svc.Account(m.address)
	if !resolved {
		return nil
	}
	if (m.section != nil || m.notFound) && acc == m.sectionFor {
		return nil
	}
	if s, ok := m.section.(accountSetter); ok && acc != nil {
		if cmd, ok := s.SetAccount(acc); ok {
			m.sectionFor = acc
			if m.selected >= len(m.section.Links()) {
				m.selected = -1
			}
			return cmd
		}
	}

	m.closeSection()
	m.sectionFor = acc
	if acc == nil {
		m.notFound = true
		return nil
	}
	m.section = newSection(m.svc, m.config, acc)
	if m.selected >= len(m.section.Links()) {
		m.selected = -1
	}
	return m.section.Init()
}

func (m *model) closeSection() {
	if m.section != nil {
		m.section.Close()
	}
	m.section = nil
	m.sectionFor = nil
	m.notFound = false
}

// navigate shows address, remembering the current one when push is set.
func (m *model) navigate(address string, push bool) tea.Cmd {
	if address == "" || address == m.address {
		return nil
	}
	if push && m.address != "" {
		m.history = append(m.history, m.address)
	}
	m.closeSection()
	m.address = address
	m.selected = -1
	m.svc.FetchAccount(address)
	return m.syncSection()
}

// target is the address the copy and open actions apply to.
func (m model) target() string {
	if m.section != nil && m.selected >= 0 {
		links := m.section.Links()
		if m.selected < len(links) {
			return links[m.selected]
		}
	}
	return m.address
}
