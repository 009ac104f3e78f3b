package registry

// Field is an optional update field. Unset fields are left out of the
// request; cleared fields are sent as JSON null.
type Field[T any] struct {
	value T
	set   bool
	null  bool
}

// Set returns a field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Clear returns a field that nulls the remote value.
func Clear[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// IsSet reports whether the field takes part in the update.
func (f Field[T]) IsSet() bool {
	return f.set
}

// Value returns the carried value and whether it is non-null.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.set && !f.null
}

func (f Field[T]) put(payload map[string]any, key string) {
	if !f.set {
		return
	}
	if f.null {
		payload[key] = nil
		return
	}
	payload[key] = f.value
}

// FloorCreate is the floors/create payload.
type FloorCreate struct {
	Name    string
	Icon    *string
	Level   *int
	Aliases []string
}

// Payload implements state.Payloader.
func (c FloorCreate) Payload() map[string]any {
	p := map[string]any{
		"name":    c.Name,
		"aliases": nonNil(c.Aliases),
	}
	if c.Icon != nil {
		p["icon"] = *c.Icon
	}
	if c.Level != nil {
		p["level"] = *c.Level
	}
	return p
}

// FloorPatch is the changed-fields part of a floors/update payload.
type FloorPatch struct {
	Name    Field[string]
	Icon    Field[string]
	Level   Field[int]
	Aliases Field[[]string]
}

// Payload implements state.Payloader.
func (p FloorPatch) Payload() map[string]any {
	out := map[string]any{}
	p.Name.put(out, "name")
	p.Icon.put(out, "icon")
	p.Level.put(out, "level")
	p.Aliases.put(out, "aliases")
	return out
}

// Empty reports whether nothing changed.
func (p FloorPatch) Empty() bool {
	return !p.Name.IsSet() && !p.Icon.IsSet() && !p.Level.IsSet() && !p.Aliases.IsSet()
}

// AreaCreate is the areas/create payload.
type AreaCreate struct {
	Name    string
	Icon    *string
	FloorID *string
	Labels  []string
	Aliases []string
}

// Payload implements state.Payloader.
func (c AreaCreate) Payload() map[string]any {
	p := map[string]any{
		"name":    c.Name,
		"labels":  nonNil(c.Labels),
		"aliases": nonNil(c.Aliases),
	}
	if c.Icon != nil {
		p["icon"] = *c.Icon
	}
	if c.FloorID != nil {
		p["floor_id"] = *c.FloorID
	}
	return p
}

// AreaPatch is the changed-fields part of an areas/update payload.
type AreaPatch struct {
	Name    Field[string]
	Icon    Field[string]
	FloorID Field[string]
	Labels  Field[[]string]
	Aliases Field[[]string]
}

// Payload implements state.Payloader.
func (p AreaPatch) Payload() map[string]any {
	out := map[string]any{}
	p.Name.put(out, "name")
	p.Icon.put(out, "icon")
	p.FloorID.put(out, "floor_id")
	p.Labels.put(out, "labels")
	p.Aliases.put(out, "aliases")
	return out
}

// Empty reports whether nothing changed.
func (p AreaPatch) Empty() bool {
	return !p.Name.IsSet() && !p.Icon.IsSet() && !p.FloorID.IsSet() && !p.Labels.IsSet() && !p.Aliases.IsSet()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
