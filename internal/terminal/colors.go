package terminal

// ANSI color codes
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
	colorGray    = "\033[90m"
	colorBold    = "\033[1;32m"
	colorPrompt  = "\033[1;36m"

	clearScreen = "\033[H\033[2J"
)

// palette wraps text in color codes when enabled.
type palette bool

func (p palette) paint(color, s string) string {
	if !p {
		return s
	}
	return color + s + colorReset
}
