package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

const defaultDisplayMessage = "An unexpected error occurred"

// GetDisplayMessage returns the first non-empty hint attached to err
func GetDisplayMessage(err error) string {
	// GetAllHints is a post-order traversal, the innermost hint wins
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return defaultDisplayMessage
}

// GetDetails merges every reportable detail map attached to err
func GetDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			jsonStr, ok := strings.CutPrefix(payload, "__json__:")
			if !ok {
				continue
			}
			var jsonDetails map[string]any
			if err := json.Unmarshal([]byte(jsonStr), &jsonDetails); err != nil {
				continue
			}
			for k, v := range jsonDetails {
				details[k] = v
			}
		}
	}

	return details
}
