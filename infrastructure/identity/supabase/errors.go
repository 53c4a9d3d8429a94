package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ProviderError is a non-2xx answer from the auth server. Error returns the
// provider's own message so it can be shown to the user unchanged.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

type providerBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorCode        string `json:"error_code"`
	Code             any    `json:"code"`
}

const statusPrefix = "response status code "

// providerError turns the formatted errors of the GoTrue client into
// ProviderError values. Transport and context errors pass through.
func providerError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	text := err.Error()
	if !strings.HasPrefix(text, statusPrefix) {
		return err
	}
	rest := strings.TrimPrefix(text, statusPrefix)

	statusText, body, _ := strings.Cut(rest, ": ")
	status, convErr := strconv.Atoi(strings.TrimSpace(statusText))
	if convErr != nil {
		return err
	}

	pe := &ProviderError{Status: status, Message: strings.TrimSpace(body)}
	var parsed providerBody
	if json.Unmarshal([]byte(body), &parsed) == nil {
		for _, msg := range []string{parsed.ErrorDescription, parsed.Msg, parsed.Message, parsed.Error} {
			if msg != "" {
				pe.Message = msg
				break
			}
		}
		pe.Code = parsed.ErrorCode
		if pe.Code == "" {
			pe.Code = parsed.Error
		}
	}
	if pe.Message == "" {
		pe.Message = text
	}
	return pe
}
