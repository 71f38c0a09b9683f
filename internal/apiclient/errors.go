package apiclient

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/Mavton23/rentix/internal/domain"
)

// errorBody covers the shapes the backend uses for failures:
// {message}, {error}, {errors:[{field|param|path, message|msg}]}, {errors:{field: msg}}.
type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

type fieldEntry struct {
	Field   string `json:"field"`
	Param   string `json:"param"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (f fieldEntry) toDomain() domain.FieldError {
	name := f.Field
	if name == "" {
		name = f.Param
	}
	if name == "" {
		name = f.Path
	}
	msg := f.Message
	if msg == "" {
		msg = f.Msg
	}
	return domain.FieldError{Field: name, Message: msg}
}

// parseErrorBody extracts the message and field errors. ok is false when the body carries neither.
func parseErrorBody(data []byte) (message string, fields []domain.FieldError, ok bool) {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return "", nil, false
	}

	message = body.Message
	if message == "" && len(body.Error) > 0 {
		var s string
		if json.Unmarshal(body.Error, &s) == nil {
			message = s
		}
	}
	fields = parseFields(body.Errors)

	return message, fields, message != "" || len(fields) > 0
}

func parseFields(raw json.RawMessage) []domain.FieldError {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var entries []fieldEntry
	if json.Unmarshal(raw, &entries) == nil {
		out := make([]domain.FieldError, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.toDomain())
		}
		return out
	}

	var messages []string
	if json.Unmarshal(raw, &messages) == nil {
		out := make([]domain.FieldError, 0, len(messages))
		for _, m := range messages {
			out = append(out, domain.FieldError{Message: m})
		}
		return out
	}

	var single map[string]string
	if json.Unmarshal(raw, &single) == nil {
		return sortedFields(single, func(v string) []string { return []string{v} })
	}

	var multi map[string][]string
	if json.Unmarshal(raw, &multi) == nil {
		return sortedFields(multi, func(v []string) []string { return v })
	}
	return nil
}

func sortedFields[V any](m map[string]V, values func(V) []string) []domain.FieldError {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []domain.FieldError
	for _, k := range keys {
		for _, msg := range values(m[k]) {
			out = append(out, domain.FieldError{Field: k, Message: msg})
		}
	}
	return out
}

// normalize maps a non-2xx response onto the client error taxonomy.
func normalize(status int, data []byte) error {
	message, fields, structured := parseErrorBody(data)

	switch {
	case status == http.StatusUnauthorized:
		return &domain.AuthError{StatusCode: status, Message: message, Fields: fields}
	case status >= 400 && status < 500 && structured:
		return &domain.ValidationError{StatusCode: status, Message: message, Fields: fields}
	default:
		if message == "" {
			message = strings.TrimSpace(http.StatusText(status))
		}
		return &domain.ServerError{StatusCode: status, Message: message}
	}
}
