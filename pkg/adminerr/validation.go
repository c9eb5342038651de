package adminerr

import "strings"

// NewValidation maps a raw payload keyed by parameter paths onto the known
// field names. Keys such as "author[name]", "/data/name" or "name" resolve to
// "name"; keys that match no field become form-level messages so nothing is
// lost.
func NewValidation(fields []string, payload map[string][]string) ValidationError {
	out := ValidationError{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		out.Fields = nil
		return out
	}

	known := make(map[string]struct{}, len(fields))
	for _, name := range fields {
		known[name] = struct{}{}
	}

	for raw, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}
		name, ok := matchField(raw, known)
		if !ok {
			out.Form = append(out.Form, normalized...)
			continue
		}
		out.Fields[name] = normalizeMessages(append(out.Fields[name], normalized...))
	}

	if len(out.Fields) == 0 {
		out.Fields = nil
	}
	out.Form = normalizeMessages(out.Form)
	return out
}

// Add appends a message for field, keeping messages unique.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = normalizeMessages(append(e.Fields[field], message))
	if len(e.Fields[field]) == 0 {
		delete(e.Fields, field)
	}
}

func matchField(raw string, known map[string]struct{}) (string, bool) {
	segments := pathSegments(raw)
	// The innermost segment wins: author[books][] -> books.
	for i := len(segments) - 1; i >= 0; i-- {
		if _, ok := known[segments[i]]; ok {
			return segments[i], true
		}
	}
	return "", false
}

func pathSegments(raw string) []string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "#")
	replacer := strings.NewReplacer("[", ".", "]", "", "/", ".")
	clean = strings.Trim(replacer.Replace(clean), ".")
	if clean == "" {
		return nil
	}
	parts := strings.Split(clean, ".")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
