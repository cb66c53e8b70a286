package main

import (
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	hudBase    = lipgloss.NewStyle().Background(lipgloss.Color("#000000"))
	hudFPS     = hudBase.Foreground(lipgloss.Color("#5fff87"))
	hudTitle   = hudBase.Foreground(lipgloss.Color("#ffffff")).Bold(true)
	hudCount   = hudBase.Foreground(lipgloss.Color("#5fd7ff")).Bold(true)
	hudMode    = hudBase.Foreground(lipgloss.Color("#ffffff"))
	hudHint    = hudBase.Foreground(lipgloss.Color("#ffff5f")).Faint(true)
	hudBanner  = hudBase.Foreground(lipgloss.Color("#ffff5f")).Bold(true)
	hudPadding = 1
)

// toggle is one checkbox in the HUD status line.
type toggle struct {
	Name string
	On   bool
}

// HUD renders the overlay lines shown above and below the frame.
type HUD struct {
	title string
	unit  string
	count int

	fps       float64
	fpsFrames int
	fpsTime   time.Time

	printer *message.Printer
}

// NewHUD creates a HUD showing title and count units (triangles, rays).
func NewHUD(title, unit string, count int) *HUD {
	return &HUD{
		title:   title,
		unit:    unit,
		count:   count,
		fpsTime: time.Now(),
		printer: message.NewPrinter(language.English),
	}
}

// SetCount replaces the number shown in the top right corner.
func (h *HUD) SetCount(n int) { h.count = n }

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Top returns the FPS, title and count line.
func (h *HUD) Top(width int) string {
	pad := func(s string) string {
		p := strings.Repeat(" ", hudPadding)
		return p + s + p
	}
	left := hudFPS.Render(pad(h.printer.Sprintf("%.0f FPS", h.fps)))
	mid := hudTitle.Render(pad(h.title))
	right := hudCount.Render(pad(h.printer.Sprintf("%d %s", h.count, h.unit)))
	return spread(width, left, mid, right)
}

// Bottom returns the mode checkboxes and a key hint. A non-empty banner
// replaces the whole line.
func (h *HUD) Bottom(width int, toggles []toggle, hint, banner string) string {
	if banner != "" {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, hudBanner.Render(" "+banner+" "))
	}
	var b strings.Builder
	for _, t := range toggles {
		box := "[ ]"
		if t.On {
			box = "[✓]"
		}
		b.WriteString(" " + box + " " + t.Name)
	}
	b.WriteString(" ")
	return spread(width, hudMode.Render(b.String()), "", hudHint.Render(" "+hint+" "))
}

// spread lays out left, mid and right across width cells with mid centered
// in the remaining space.
func spread(width int, left, mid, right string) string {
	inner := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + lipgloss.PlaceHorizontal(inner, lipgloss.Center, mid) + right
}
