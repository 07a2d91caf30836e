package resource

// Acquire normalizes a raw payload for validation. Unknown and read-only
// keys are dropped. Defaults are filled in for create and full replace,
// never for partial updates.
func Acquire(schema *Schema, payload map[string]any, mode Mode) map[string]any {
	out := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		if !f.writable() {
			continue
		}
		if v, ok := payload[f.Name]; ok {
			out[f.Name] = v
			continue
		}
		if mode != ModePartial && f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	return out
}
