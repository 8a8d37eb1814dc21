package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// APIError captures a normalized provider response. GoTrue and PostgREST
// disagree on their error envelope, so both shapes decode into this one.
type APIError struct {
	Operation string
	Status    int
	Code      string
	Message   string
	Err       error
}

func (e *APIError) Error() string {
	if e == nil {
		return "supabase error"
	}

	scope := "supabase"
	if e.Operation != "" {
		scope = fmt.Sprintf("supabase %s", e.Operation)
	}

	if e.Message != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", scope, e.Err)
	}

	return fmt.Sprintf("%s failed", scope)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type apiErrorBody struct {
	Code             json.RawMessage `json:"code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	ErrorField       string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func (b apiErrorBody) code() string {
	if len(b.Code) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(b.Code, &text); err == nil {
		return text
	}

	var numeric int
	if err := json.Unmarshal(b.Code, &numeric); err == nil {
		return strconv.Itoa(numeric)
	}

	return ""
}

func (b apiErrorBody) message() string {
	for _, candidate := range []string{b.Msg, b.Message, b.ErrorDescription, b.ErrorField} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func apiErrorFrom(operation string, status int, body []byte) *APIError {
	parsed := apiErrorBody{}
	_ = json.Unmarshal(body, &parsed)

	message := parsed.message()
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}

	return &APIError{
		Operation: operation,
		Status:    status,
		Code:      parsed.code(),
		Message:   message,
	}
}
