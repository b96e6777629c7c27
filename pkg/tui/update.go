package tui

import (
	"fmt"
	"strings"
	"time"

	"nftokview/pkg/utils"
	"nftokview/pkg/watcher"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case watcher.Event:
		if m.sub != nil {
			cmds = append(cmds, listenForWatcher(m.sub))
		}

		if msg.Type == watcher.EventAccountUpdated && msg.Key == m.address {
			cmds = append(cmds, m.syncSection())
		}
		if msg.Type == watcher.EventFetchFailed && msg.Key == m.address {
			m.statusMessage = fmt.Sprintf("Fetch failed: %s", msg.Error)
			cmds = append(cmds, clearStatusAfter())
		}
		if m.section != nil {
			cmds = append(cmds, m.section.Update(msg))
		}

	case watcherClosedMsg:
		m.sub = nil

	case imageTickMsg:
		if m.section != nil {
			cmds = append(cmds, m.section.Update(msg))
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case clearStatusMsg:
		m.statusMessage = ""

	case tea.KeyMsg:
		if m.goingTo {
			return m.updateGoTo(msg)
		}
		return m.updateKeys(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateGoTo(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		if m.address == "" {
			return m.quit()
		}
		m.goingTo = false
		m.gotoInput.Blur()
		m.gotoInput.SetValue("")
		return m, nil
	case "enter":
		addr := strings.TrimSpace(m.gotoInput.Value())
		if !utils.IsValidAddress(addr) {
			m.statusMessage = "Invalid address"
			return m, clearStatusAfter()
		}
		m.goingTo = false
		m.gotoInput.Blur()
		m.gotoInput.SetValue("")
		cmd := m.navigate(addr, true)
		return m, cmd
	}

	var cmd tea.Cmd
	m.gotoInput, cmd = m.gotoInput.Update(msg)
	return m, cmd
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, keys.Up):
		if m.selected >= 0 {
			m.selected--
		}

	case key.Matches(msg, keys.Down):
		if m.section != nil && m.selected < len(m.section.Links())-1 {
			m.selected++
		}

	case key.Matches(msg, keys.Enter):
		if m.selected >= 0 {
			return m, m.navigate(m.target(), true)
		}

	case key.Matches(msg, keys.Back):
		if n := len(m.history); n > 0 {
			prev := m.history[n-1]
			m.history = m.history[:n-1]
			return m, m.navigate(prev, false)
		}

	case key.Matches(msg, keys.GoTo):
		m.goingTo = true
		m.gotoInput.Focus()
		return m, nil

	case key.Matches(msg, keys.Refresh):
		if m.section != nil {
			m.section.Refresh()
		} else if m.address != "" {
			m.svc.FetchAccount(m.address)
		}
		m.statusMessage = "Refreshing..."
		return m, clearStatusAfter()

	case key.Matches(msg, keys.Copy):
		addr := m.target()
		if addr == "" {
			return m, nil
		}
		if err := clipboard.WriteAll(addr); err != nil {
			m.statusMessage = fmt.Sprintf("Copy failed: %v", err)
		} else {
			m.statusMessage = "Copied " + utils.ShortAddress(addr, 4)
		}
		return m, clearStatusAfter()

	case key.Matches(msg, keys.Open):
		addr := m.target()
		if addr == "" {
			return m, nil
		}
		if err := openBrowser(explorerURL(m.config, addr)); err != nil {
			m.statusMessage = fmt.Sprintf("Open failed: %v", err)
		} else {
			m.statusMessage = "Opened in browser"
		}
		return m, clearStatusAfter()
	}
	return m, nil
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m.closeSection()
	if m.events != nil && m.sub != nil {
		m.events.Unsubscribe(m.sub)
		m.sub = nil
	}
	return m, tea.Quit
}

func clearStatusAfter() tea.Cmd {
	return tea.Tick(time.Second*2, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
