package tui

import (
	"fmt"

	"nftokview/pkg/config"
	"nftokview/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

// Start runs the explorer for address until the user quits. An empty address
// opens the go-to prompt.
func Start(w *watcher.Watcher, cfg config.Config, address, version string) error {
	Version = version
	p := tea.NewProgram(
		initialModel(w, w, cfg, address),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
