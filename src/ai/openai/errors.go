package openai

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/stake-plus/newsfilter/src/ai/core"
	"github.com/tidwall/gjson"
)

// APIError is a non-success answer from the API.
type APIError struct {
	Status  int
	Code    string
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("openai: status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("openai: status %d: %s", e.Status, e.Message)
}

var unsupportedCodes = map[string]bool{
	"model_not_found":       true,
	"unsupported_model":     true,
	"unsupported_parameter": true,
	"unsupported_value":     true,
}

// classify turns an error body into an error. Model and tool incompatibility map to
// core.ErrModelUnsupported so callers can downgrade.
func classify(status int, body []byte) error {
	apiErr := &APIError{
		Status:  status,
		Code:    gjson.GetBytes(body, "error.code").String(),
		Type:    gjson.GetBytes(body, "error.type").String(),
		Message: gjson.GetBytes(body, "error.message").String(),
	}
	if apiErr.Message == "" {
		apiErr.Message = truncatePayload(body, 512)
	}
	if (status == http.StatusBadRequest || status == http.StatusNotFound) && modelUnsupported(apiErr) {
		return fmt.Errorf("%w: %s", core.ErrModelUnsupported, apiErr.Error())
	}
	return apiErr
}

func modelUnsupported(e *APIError) bool {
	if unsupportedCodes[e.Code] {
		return true
	}
	msg := strings.ToLower(e.Message)
	if !strings.Contains(msg, "model") && !strings.Contains(msg, "tool") {
		return false
	}
	return strings.Contains(msg, "not supported") ||
		strings.Contains(msg, "unsupported") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "does not have access")
}
