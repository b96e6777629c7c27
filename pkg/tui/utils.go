package tui

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"nftokview/pkg/config"
	"nftokview/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Services is everything the explorer panels read from.
type Services interface {
	watcher.AccountService
	watcher.MetadataService
	watcher.CollectionService
	watcher.ImageService
}

type watcherClosedMsg struct{}

func listenForWatcher(sub watcher.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return watcherClosedMsg{}
		}
		return ev
	}
}

type addressOpts struct {
	Link       bool
	AlignRight bool
	Raw        bool
}

const addressWidth = 44

// renderAddress renders a public key. Raw keys are printed as-is, links are
// styled and may be selected for navigation.
func renderAddress(pubkey string, opts addressOpts, selected bool) string {
	s := pubkey
	if opts.AlignRight {
		s = fmt.Sprintf("%*s", addressWidth, pubkey)
	}
	switch {
	case opts.Raw:
		return s
	case selected:
		return selectedStyle.Render(s)
	case opts.Link:
		return linkStyle.Render(s)
	}
	return s
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// explorerURL builds the web explorer link for an address on the configured cluster.
func explorerURL(cfg config.Config, address string) string {
	base := strings.TrimRight(cfg.ExplorerURL, "/")
	u := fmt.Sprintf("%s/address/%s", base, address)
	if cfg.Cluster != "" {
		u += "?cluster=" + url.QueryEscape(cfg.Cluster)
	}
	return u
}

// openBrowser opens the specified URL in the default browser.
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}
