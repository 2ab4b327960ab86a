package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
)

// maxErrorBody bounds how much of a failed response is kept in error messages.
const maxErrorBody = 4096

// doJSON posts payload to url and returns the response body. Transport
// failures become *NetworkError; non-2xx answers become typed backend errors.
func doJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: provider + ": http request failed", Cause: err}}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg, code := errorDetails(body)
		err := ErrorFromStatusCode(resp.StatusCode, msg, provider, code)
		if wait, ok := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
			if h, ok := err.(interface{ setRetryAfter(time.Duration) }); ok {
				h.setRetryAfter(wait)
			}
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: provider + ": read response", Cause: err}}
	}
	return body, nil
}

// errorDetails pulls the message and code out of the {"error": {...}} envelope
// both OpenAI and Anthropic use, falling back to the raw body.
func errorDetails(body []byte) (message, code string) {
	message, err := jsonparser.GetString(body, "error", "message")
	if err != nil || message == "" {
		message = strings.TrimSpace(string(body))
	}
	code, err = jsonparser.GetString(body, "error", "code")
	if err != nil {
		code, _ = jsonparser.GetString(body, "error", "type")
	}
	return message, code
}

// parseRetryAfter reads a Retry-After header given either as delay seconds or
// as an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	at, err := http.ParseTime(v)
	if err != nil || !at.After(now) {
		return 0, false
	}
	return at.Sub(now), true
}
