package client

import (
	"encoding/json"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/tidwall/gjson"
)

const statusSuccess = "success"

const defaultFailureMessage = "the server could not complete the request"

// checkEnvelope validates the {status, message, ...} wrapper every endpoint
// returns. It reports an ApplicationError for a non-success status and a
// malformed-payload TransportError when the body is not usable.
func checkEnvelope(op string, body []byte, required ...string) error {
	if !gjson.ValidBytes(body) {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("%w: invalid json", domain.ErrMalformedPayload)}
	}

	status := gjson.GetBytes(body, "status")
	if status.String() != statusSuccess {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = defaultFailureMessage
		}
		return &domain.ApplicationError{Op: op, Message: msg}
	}

	for _, field := range required {
		if !gjson.GetBytes(body, field).Exists() {
			return &domain.TransportError{Op: op, Err: fmt.Errorf("%w: missing %q", domain.ErrMalformedPayload, field)}
		}
	}
	return nil
}

func decodeField(op string, body []byte, field string, v any) error {
	raw := gjson.GetBytes(body, field)
	if !raw.Exists() || raw.Type == gjson.Null {
		return nil
	}
	if err := json.Unmarshal([]byte(raw.Raw), v); err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("%w: %s: %v", domain.ErrMalformedPayload, field, err)}
	}
	return nil
}
