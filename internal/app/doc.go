// Package app is the composition root of composer.
//
// It loads the configuration, sets up logging and opens a Session: a
// hass.Provider resolved in the background with exponential backoff, plus
// the floor and area synchronizers sharing it. The wizard and the CLI
// subcommands both work on a Session.
//
// Startup never blocks on Home Assistant. The wizard opens immediately and
// shows a waiting banner until the provider settles; CLI commands call
// Session.Wait instead.
//
// Fatal errors returned from Run:
//   - an unreadable or invalid config file
//   - a missing access token
//   - a log file that cannot be opened
//
// Connection failures are not fatal. They settle the provider as
// unavailable and surface in the UI.
package app
