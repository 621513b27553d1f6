package utils

import (
	"fmt"
	"math"
	"time"
)

// MessageType is a custom type used as a placeholder for various message types.
type MessageType int

// The message types used across the CLI application.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
	NoticeMessage
)

// Colors used across the CLI application.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
	NoticeColor  = "\x1b[33m"
)

// Banner is the prefix printed in front of every CLI status line.
const Banner = "✨ AURA"

var messageColors = map[MessageType]string{
	DefaultMessage: DefaultColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
	StatusMessage:  StatusColor,
	NoticeMessage:  NoticeColor,
}

// DecorateText shows the message types in different colors.
func DecorateText(s string, msgType MessageType) string {
	col, ok := messageColors[msgType]
	if !ok {
		return s
	}
	return col + s + DefaultColor
}

// StatusLine joins the banner, a message and an optional trailing mark into a single decorated line.
func StatusLine(msg string, mark string, msgType MessageType) string {
	line := fmt.Sprintf("%s %s",
		DecorateText(Banner, StatusMessage),
		DecorateText(msg, DefaultMessage),
	)
	if mark != "" {
		line += " " + DecorateText(mark, msgType)
	}
	return line
}

// FormatTime formats time.Duration output to a human readable value.
func FormatTime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %.2fs", int64(d.Minutes()), math.Mod(d.Seconds(), 60))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm %.2fs",
			int64(d.Hours()), int64(math.Mod(d.Minutes(), 60)), math.Mod(d.Seconds(), 60))
	}
	return fmt.Sprintf("%dd %dh %dm %.2fs",
		int64(d.Hours()/24), int64(math.Mod(d.Hours(), 24)),
		int64(math.Mod(d.Minutes(), 60)), math.Mod(d.Seconds(), 60))
}

// FormatRate returns the number of frames per second rendered over the elapsed duration.
func FormatRate(frames int, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "0.0 fps"
	}
	return fmt.Sprintf("%.1f fps", float64(frames)/elapsed.Seconds())
}
