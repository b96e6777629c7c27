package tui

import (
	"fmt"
	"image"
	"strings"
	"sync/atomic"
	"time"

	"nftokview/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

type imageDisplay int

const (
	displayLoading imageDisplay = iota
	displayError
	displayImage
)

func (d imageDisplay) String() string {
	switch d {
	case displayError:
		return "error"
	case displayImage:
		return "image"
	default:
		return "loading"
	}
}

var imageViewSeq atomic.Int64

// imageTickMsg is a firing of an image view's loading timer. It only counts if
// both the view id and the armed generation still match.
type imageTickMsg struct {
	id         int64
	generation int
}

// imageView shows a cached image, a loading placeholder, or an error block when
// the image failed or its URL never arrived within the timeout.
type imageView struct {
	id      int64
	svc     watcher.ImageService
	url     string
	size    int
	timeout time.Duration

	isLoading  bool
	showError  bool
	armed      bool
	generation int
	closed     bool
}

func newImageView(svc watcher.ImageService, url string, size int, timeout time.Duration) *imageView {
	if size <= 0 {
		size = 8
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &imageView{
		id:        imageViewSeq.Add(1),
		svc:       svc,
		url:       url,
		size:      size,
		timeout:   timeout,
		isLoading: true,
	}
}

func (v *imageView) Init() tea.Cmd {
	return v.sync()
}

// SetURL points the view at a new image URL.
func (v *imageView) SetURL(url string) tea.Cmd {
	if v.closed || url == v.url {
		return nil
	}
	if v.url != "" && url != "" {
		v.showError = false
	}
	v.url = url
	v.isLoading = true
	return v.sync()
}

func (v *imageView) sync() tea.Cmd {
	if v.closed {
		return nil
	}
	if v.url == "" {
		if v.armed {
			return nil
		}
		return v.arm()
	}
	if v.armed {
		v.cancel()
	}
	v.request()
	return nil
}

func (v *imageView) request() {
	if _, ok := v.svc.Image(v.url); ok {
		v.isLoading = false
		return
	}
	if v.svc.ImageFailed(v.url) {
		v.showError = true
		return
	}
	v.svc.FetchImage(v.url)
}

func (v *imageView) arm() tea.Cmd {
	v.generation++
	v.armed = true
	return v.tick()
}

func (v *imageView) tick() tea.Cmd {
	msg := imageTickMsg{id: v.id, generation: v.generation}
	return tea.Tick(v.timeout, func(time.Time) tea.Msg {
		return msg
	})
}

func (v *imageView) cancel() {
	v.generation++
	v.armed = false
}

func (v *imageView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case imageTickMsg:
		if msg.id != v.id || v.closed || !v.armed || msg.generation != v.generation {
			return nil
		}
		v.showError = true
		return v.tick()

	case watcher.Event:
		if v.closed || v.url == "" || msg.Key != v.url {
			return nil
		}
		switch msg.Type {
		case watcher.EventImageLoaded:
			v.isLoading = false
		case watcher.EventImageFailed:
			v.showError = true
		}
	}
	return nil
}

// Close releases the loading timer. Later ticks are ignored.
func (v *imageView) Close() {
	v.cancel()
	v.closed = true
}

// Display reports which of the three renderings is active.
func (v *imageView) Display() imageDisplay {
	if v.showError {
		return displayError
	}
	if v.isLoading {
		return displayLoading
	}
	return displayImage
}

func (v *imageView) rows() int {
	if r := v.size / 2; r > 0 {
		return r
	}
	return 1
}

func (v *imageView) View() string {
	switch v.Display() {
	case displayError:
		return placeholder(imageErrorStyle, v.size, v.rows())
	case displayLoading:
		return placeholder(imageLoadingStyle, v.size, v.rows())
	}
	img, ok := v.svc.Image(v.url)
	if !ok || img.Image == nil {
		return placeholder(imageLoadingStyle, v.size, v.rows())
	}
	return thumbnail(img.Image, v.size, v.rows())
}

func placeholder(style lipgloss.Style, width, height int) string {
	line := style.Render(strings.Repeat(" ", width))
	lines := make([]string, height)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// thumbnail scales src to width x 2*rows pixels and draws each pair of pixel
// rows as one line of upper half blocks.
func thumbnail(src image.Image, width, rows int) string {
	dst := image.NewRGBA(image.Rect(0, 0, width, rows*2))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var b strings.Builder
	for y := 0; y < rows; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < width; x++ {
			cell := lipgloss.NewStyle().
				Foreground(hexColor(dst, x, 2*y)).
				Background(hexColor(dst, x, 2*y+1))
			b.WriteString(cell.Render("▀"))
		}
	}
	return b.String()
}

func hexColor(img *image.RGBA, x, y int) lipgloss.Color {
	c := img.RGBAAt(x, y)
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}
