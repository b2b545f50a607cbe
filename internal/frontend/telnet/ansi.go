// Package telnet serves the treasure hunt to line-oriented Telnet clients
// with ANSI-colored output.
package telnet

// ANSI escape codes used when rendering game events.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
	Magenta = "\033[35m"

	BrightBlack  = "\033[90m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightRed    = "\033[91m"
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Precondition: color must be a valid ANSI escape sequence.
func Colorize(color, text string) string {
	return color + text + Reset
}

// StripANSI removes every CSI "m" sequence from s.
func StripANSI(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			end := i + 2
			for end < len(s) && s[end] != 'm' {
				end++
			}
			if end < len(s) {
				i = end
				continue
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}
