package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Nzyazin/invest/internal/core/repository"
)

const duplicateReferenceMessage = "This transaction ID already exists or is invalid."

var messageKeys = []string{"error", "detail", "message", "non_field_errors"}

// decodeAPIError turns a non-2xx reply into an error. Replies that carry no
// readable message are treated as transport failures on 5xx.
func decodeAPIError(status int, body []byte) error {
	fields := map[string][]string{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err == nil {
		for key, value := range raw {
			if msgs := flattenMessages(value); len(msgs) > 0 {
				fields[key] = msgs
			}
		}
	}

	if msg := pickMessage(fields); msg != "" {
		return &repository.APIError{StatusCode: status, Message: msg, Fields: fields}
	}

	if status >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", repository.ErrTransport, status)
	}
	return &repository.APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("request failed: %s", strings.ToLower(http.StatusText(status))),
		Fields:     fields,
	}
}

func pickMessage(fields map[string][]string) string {
	for _, key := range messageKeys {
		if msgs := fields[key]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	if _, ok := fields["transaction_id"]; ok {
		return duplicateReferenceMessage
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0] + ": " + fields[keys[0]][0]
}

// flattenMessages reads a string, a list of strings or a nested object.
func flattenMessages(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}
		}
		return nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, item := range list {
			out = append(out, flattenMessages(item)...)
		}
		return out
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, flattenMessages(obj[k])...)
		}
		return out
	}
	return nil
}
