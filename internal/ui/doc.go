// Package ui implements the setup wizard as a Bubble Tea program.
//
// The root Model walks six steps: Profile, Rooms, Map, Helpers, Dashboards
// and Review. Only the Rooms step talks to Home Assistant. Its floors and
// rooms come from two Registry synchronizers and are re-read into
// snapshots after every message, so the view never holds a list that the
// synchronizer did not confirm.
//
// # Remote calls
//
// Every create, update, delete and refresh runs as a tea.Cmd and reports
// back with a message. Dialogs are modals that receive all messages while
// open, including their own results: a failure keeps the dialog open with
// the error inline, a success closes it. Calls started from the Rooms step
// carry a view context that is cancelled when the user leaves the step;
// results arriving afterwards are discarded by the synchronizer.
//
// # Keys
//
// Printable keys go to a focused text input before any shortcut, so typing
// "q" into a name does not quit. Tab and shift+tab always switch steps
// outside dialogs.
//
// # Preferences
//
// The theme and the last visited step persist through prefs.Store.
package ui
