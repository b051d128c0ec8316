package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/menta2k/collage-maker/internal/utils"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle for headings
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary text
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for counts and sizes
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warnings
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// printer writes styled status lines. Commands print through the one bound
// to their cobra output so tests can capture it.
type printer struct {
	w io.Writer
}

func (p printer) line(s string) {
	fmt.Fprintln(p.w, s)
}

func (p printer) success(format string, args ...any) {
	p.line(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (p printer) error(format string, args ...any) {
	p.line(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	p.line(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.line(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

func (p printer) detail(format string, args ...any) {
	p.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// file prints an output path with its layout name, pixel size and, when
// the file can be read, its size on disk
func (p printer) file(name, path string, w, h int) {
	meta := fmt.Sprintf("%s %dx%d", name, w, h)
	if info, err := os.Stat(path); err == nil {
		meta += " " + utils.FormatFileSize(info.Size())
	}
	p.line("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path) + " " + StyleDim.Render(meta))
}

func (p printer) keyValue(key, value string) {
	p.column(key, value, 12)
}

// column prints key padded to width. Longer keys widen the column rather
// than wrap.
func (p printer) column(key, value string, width int) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray)
	p.line(keyStyle.Render(fmt.Sprintf("%-*s", width, key)) + " " + StyleValue.Render(value))
}

// stats prints non-zero counts on one line separated by dots
func (p printer) stats(counts ...statCount) {
	var parts []string
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.label))
		}
	}
	if len(parts) == 0 {
		return
	}
	p.line("  " + StyleDim.Render(strings.Join(parts, " · ")))
}

type statCount struct {
	n     int
	label string
}
