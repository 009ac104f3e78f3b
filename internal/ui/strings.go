package ui

import (
	"strconv"
	"strings"
)

// truncate shortens a string to limit runes, adding an ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	n := len([]rune(s))
	if width <= 0 || n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// chips renders list entries as "[a] [b]", or placeholder when empty.
func chips(values []string, placeholder string) string {
	if len(values) == 0 {
		return placeholder
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = "[" + v + "]"
	}
	return strings.Join(parts, " ")
}

// levelText renders an optional floor level.
func levelText(level *int) string {
	if level == nil {
		return "-"
	}
	return strconv.Itoa(*level)
}

// pluralize returns "1 room" / "2 rooms".
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}

// checkbox renders a boolean as a check mark.
func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
