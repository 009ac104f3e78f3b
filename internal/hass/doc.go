// Package hass is the remote resource connection: a minimal client for the
// Home Assistant WebSocket API.
//
// # Protocol
//
// The client opens <base>/api/websocket and performs the handshake:
//
//	server: {"type":"auth_required","ha_version":"2024.4.0"}
//	client: {"type":"auth","access_token":"..."}
//	server: {"type":"auth_ok"} | {"type":"auth_invalid","message":"..."}
//
// Commands are flat JSON objects carrying a connection-unique integer id and
// a type, for example
//
//	{"id":7,"type":"nidia_magic_composer/floors/update","floor_id":"attic","name":"Attic"}
//
// and each one is answered by a single result frame:
//
//	{"id":7,"type":"result","success":true,"result":{"floor":{...}}}
//	{"id":7,"type":"result","success":false,"error":{"code":"not_found","message":"..."}}
//
// Failed results surface as *ResultError. Subscriptions and server push are
// not used.
//
// # Availability
//
// Provider models acquisition as a one-way state machine:
//
//	unresolved ──Resolve ok──> ready
//	     │
//	     └──backoff exhausted / auth_invalid──> unavailable
//
// Callers treat "unresolved" as "wait" and "unavailable" as a session-long
// outage. Individual calls are never retried; only acquisition uses backoff.
//
// # Rate limiting
//
// Options.RateLimit enables a token bucket in front of every call so a burst
// of wizard actions cannot flood the instance.
package hass
