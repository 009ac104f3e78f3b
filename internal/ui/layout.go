package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the rooms step stacks
	// its panes vertically.
	LayoutCompactWidth = 100

	// DialogWidth is the width of floor and room dialogs.
	DialogWidth = 64
)

// Review step limits.
const (
	// ActivityLimit is the number of log entries shown on the Review step.
	ActivityLimit = 8

	// ActivityWindow is the number of trailing log lines scanned for them.
	ActivityWindow = 400
)
