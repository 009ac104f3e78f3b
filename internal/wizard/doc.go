// Package wizard holds the local state of the setup wizard: the home profile,
// the floor plan checklist, the helper catalogue and the dashboard choices.
//
// None of this state is sent to Home Assistant. Rooms and floors live in the
// state package, which mirrors the remote registries; wizard only reads them
// to derive progress and the per-floor room overview.
//
// State is owned by the UI goroutine and is not safe for concurrent use.
package wizard
