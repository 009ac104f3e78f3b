package state

import "github.com/nidia/composer/internal/registry"

// Kind describes how one resource kind maps onto the message contract.
type Kind[T any] struct {
	Plural     string // list response key and request path segment
	Singular   string // mutation response key
	IDField    string // id field of update/delete requests
	Noun       string // user-facing singular, used in fallback messages
	NounPlural string
	ID         func(T) string
}

// Floors is the floor registry kind.
var Floors = Kind[registry.Floor]{
	Plural:     "floors",
	Singular:   "floor",
	IDField:    "floor_id",
	Noun:       "floor",
	NounPlural: "floors",
	ID:         func(f registry.Floor) string { return f.FloorID },
}

// Areas is the area registry kind, presented as rooms.
var Areas = Kind[registry.Area]{
	Plural:     "areas",
	Singular:   "area",
	IDField:    "area_id",
	Noun:       "room",
	NounPlural: "rooms",
	ID:         func(a registry.Area) string { return a.ID },
}
