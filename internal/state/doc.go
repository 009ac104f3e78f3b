// Package state holds the resource synchronizers: the local mirrors of the
// floor and area registries of Home Assistant.
//
// # Overview
//
// A Synchronizer owns the in-memory list of one resource kind and is the only
// writer of that list. Views read copies through Snapshot and ask the
// synchronizer to list, create, update or delete; every operation is one
// request/response call through hass.Conn.
//
//	View ──Create/Update/Delete──> Synchronizer ──SendMessage──> Home Assistant
//	  ^                                 │
//	  └────────── Snapshot() ───────────┘  (items patched on success only)
//
// # Update Semantics
//
//	Refresh  no connection  → no-op, Loading=false, LastError untouched
//	         success        → Items replaced wholesale, LastError cleared
//	         failure        → LastError set, Items kept (stale beats empty)
//	Create   success        → server copy appended (server assigns the id)
//	Update   success        → entry with the same id replaced by the server copy
//	Delete   success        → entry with the id removed
//	any      failure        → Items untouched, LastError set, *Error returned
//
// Nothing is applied before the remote side confirms it, so there is never
// anything to roll back. The price is a visible race: two overlapping updates
// of one id apply in the order their responses arrive.
//
// # Cancellation
//
// Each operation captures the caller's context. When that context is done by
// the time the response arrives, the result is dropped and ErrDiscarded is
// returned. A refresh is also dropped when a newer refresh was started after
// it, so a slow list response cannot overwrite a fresher one.
//
// # Concurrency Model
//
// State is guarded by a sync.RWMutex that is never held across network I/O.
// Items slices are replaced, not mutated in place, and Snapshot hands out
// copies, so callers can keep a snapshot while operations continue.
//
// # Errors
//
// Failures are normalized by ErrorMessage, which walks a closed set of error
// shapes (structured result with message, structured result with code, plain
// error text) and falls back to an operation-specific message such as
// "Failed to create room".
package state
