package ui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// Modal is a dialog drawn over the current step. Update receives every
// message while the modal is open, including the results of the commands it
// issued, and reports whether the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// dialogSeq numbers dialogs. Result messages carry the number of the dialog
// that issued the call, so a dialog closed while busy cannot hand its result
// to the one opened after it.
var dialogSeq atomic.Uint64

func nextDialogID() uint64 {
	return dialogSeq.Add(1)
}
