package medilabo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ValidationError is a 400 answer carrying one message per rejected field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.FieldNames() {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// APIError is any non-2xx answer that has no more specific meaning.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gateway answered with status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway answered with status %d: %s", e.StatusCode, e.Body)
}

type bindingError struct {
	Field          string `json:"field"`
	ObjectName     string `json:"objectName"`
	DefaultMessage string `json:"defaultMessage"`
}

// DecodeValidationError reads the two shapes the backend uses for 400
// bodies: a flat {"field": "message"} object, or the list of binding
// errors produced by the patient service.
func DecodeValidationError(body []byte) (*ValidationError, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, false
	}

	switch body[0] {
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, false
		}
		fields := make(map[string]string, len(raw))
		for field, value := range raw {
			var message string
			if err := json.Unmarshal(value, &message); err != nil {
				return nil, false
			}
			fields[field] = message
		}
		if len(fields) == 0 {
			return nil, false
		}
		return &ValidationError{Fields: fields}, true
	case '[':
		var list []bindingError
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, false
		}
		fields := make(map[string]string, len(list))
		for _, item := range list {
			field := item.Field
			if field == "" {
				field = item.ObjectName
			}
			if field == "" || item.DefaultMessage == "" {
				continue
			}
			if previous, ok := fields[field]; ok && previous != item.DefaultMessage {
				fields[field] = previous + "; " + item.DefaultMessage
				continue
			}
			fields[field] = item.DefaultMessage
		}
		if len(fields) == 0 {
			return nil, false
		}
		return &ValidationError{Fields: fields}, true
	}
	return nil, false
}
