package auth

import (
	"net/url"
	"strings"
)

// ResultKind tags the variants of AuthResult
type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultError
	ResultTokens
	ResultCode
	// ResultIncomplete is a fragment carrying only one of the two tokens.
	ResultIncomplete
)

func (k ResultKind) String() string {
	switch k {
	case ResultError:
		return "error"
	case ResultTokens:
		return "tokens"
	case ResultCode:
		return "code"
	case ResultIncomplete:
		return "incomplete"
	default:
		return "none"
	}
}

// AuthResult is the parsed form of one inbound redirect. It lives for a
// single resolution pass and is never persisted.
type AuthResult struct {
	Kind ResultKind

	AccessToken  string
	RefreshToken string

	Code string
	Next string

	ErrorCode        string
	ErrorDescription string
}

// ParseAuthResult classifies an inbound redirect URL. The rules are ordered
// and the first match wins: fragment error, fragment token pair, query code,
// then nothing.
func ParseAuthResult(u *url.URL) AuthResult {
	fragment := parseFragment(u.Fragment)
	query := u.Query()

	if code := firstNonEmpty(fragment.Get("error_code"), fragment.Get("error")); code != "" {
		return AuthResult{
			Kind:             ResultError,
			ErrorCode:        code,
			ErrorDescription: fragment.Get("error_description"),
		}
	}

	access, refresh := fragment.Get("access_token"), fragment.Get("refresh_token")
	if access != "" && refresh != "" {
		return AuthResult{Kind: ResultTokens, AccessToken: access, RefreshToken: refresh}
	}

	if code := query.Get("code"); code != "" {
		return AuthResult{Kind: ResultCode, Code: code, Next: query.Get("next")}
	}

	if access != "" || refresh != "" {
		return AuthResult{Kind: ResultIncomplete}
	}
	return AuthResult{Kind: ResultNone}
}

// parseFragment decodes a fragment of the form "#a=1&b=2". Some providers
// prefix the pairs with a path or "?", which is skipped.
func parseFragment(fragment string) url.Values {
	fragment = strings.TrimPrefix(fragment, "#")
	if i := strings.IndexByte(fragment, '?'); i >= 0 {
		fragment = fragment[i+1:]
	}
	// ParseQuery keeps every pair it could decode, so the error is not fatal.
	values, _ := url.ParseQuery(fragment)
	return values
}

// SafeNext returns next when it is a same-site relative path, otherwise
// fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsRune(next, '\\') {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
