package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

type contextKey string

const bodyContextKey contextKey = "parsed_body"

const maxMultipartMemory = 10 << 20 // 10 MiB

// DecodeBody parses a JSON, urlencoded or multipart request body into a
// generic map. An absent body yields an empty map.
func DecodeBody(r *http.Request) (map[string]interface{}, error) {
	body := make(map[string]interface{})

	contentType := r.Header.Get("Content-Type")
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch {
	case strings.Contains(mediaType, "application/json"):
		if r.Body == nil {
			return body, nil
		}
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&body); err != nil {
			if errors.Is(err, io.EOF) {
				return body, nil
			}
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}

	case strings.Contains(mediaType, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				body[key] = values[0]
			}
		}

	default:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				body[key] = values[0]
			}
		}
	}

	return body, nil
}

// Bind maps a generic body map onto a typed DTO
func Bind(body map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode body: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to bind body: %w", err)
	}
	return nil
}

// NewContext stores a parsed body map in the context
func NewContext(ctx context.Context, body map[string]interface{}) context.Context {
	return context.WithValue(ctx, bodyContextKey, body)
}

// FromContext retrieves the parsed body map, or nil when absent
func FromContext(ctx context.Context) map[string]interface{} {
	body, _ := ctx.Value(bodyContextKey).(map[string]interface{})
	return body
}
