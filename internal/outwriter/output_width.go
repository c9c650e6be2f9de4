package outwriter

import (
	"os"

	"github.com/huangsam/stockpulse/internal/contract"
	"golang.org/x/term"
)

// Title column bounds, in runes.
const (
	minTitleWidth = 15
	maxTitleWidth = 70
	tableChrome   = 20 // Borders, separators and padding
)

// terminalWidth returns the --width override, the detected stdout width, or 80.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// getMaxTableTitleWidth sizes the product title column from what the other columns leave.
func getMaxTableTitleWidth(cfg *contract.Config, fixedWidth int) int {
	return min(max(terminalWidth(cfg)-fixedWidth-tableChrome, minTitleWidth), maxTitleWidth)
}
