package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// maxErrorBody bounds how much of an error body is read for its message.
const maxErrorBody = 64 << 10

// Classify turns a completed response into the decoded payload or a *Failure.
// The status code is inspected before the body; the body is read only to
// decode a 2xx payload or to find a message for a non-401 failure.
// fallback is the message used when a generic failure body carries none.
// If out is nil the body of a successful response is discarded.
func Classify(resp *http.Response, out any, fallback string) error {
	status := resp.StatusCode

	switch {
	case status == http.StatusUnauthorized:
		return NewFailure(KindUnauthenticated, status, MsgAuthRequired)
	case status == http.StatusForbidden:
		return forbidden(requestMethod(resp), readErrorBody(resp))
	case status == http.StatusNotFound:
		return NewFailure(KindNotFound, status, ErrorMessage(readErrorBody(resp), MsgNotFound))
	case status < 200 || status > 299:
		return NewFailure(KindGeneric, status, ErrorMessage(readErrorBody(resp), fallback))
	}

	if out == nil {
		//nolint:errcheck // draining lets the connection be reused
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	err := dec.Decode(out)
	if err == nil {
		if _, next := dec.Token(); !errors.Is(next, io.EOF) {
			err = errTrailingData
		}
	}
	if err != nil {
		f := NewFailure(KindGeneric, status, fmt.Sprintf("malformed response: %v", err))
		f.cause = err
		return f
	}
	return nil
}

var errTrailingData = errors.New("trailing data after JSON value")

// requestMethod returns the method of the request behind resp, or GET when
// the response carries none.
func requestMethod(resp *http.Response) string {
	if resp.Request == nil {
		return http.MethodGet
	}
	return resp.Request.Method
}

func readErrorBody(resp *http.Response) []byte {
	if resp.Body == nil {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil
	}
	return body
}

// ErrorMessage extracts a message from an error body. It prefers a "detail"
// string, then the first field error of a validation body such as
// {"name": ["This field may not be blank."]}. Anything else, including an
// empty or invalid body, yields fallback. It never fails.
func ErrorMessage(body []byte, fallback string) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return fallback
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return fallback
	}

	if detail := root.Get("detail"); detail.Type == gjson.String && detail.String() != "" {
		return detail.String()
	}

	message := ""
	root.ForEach(func(key, value gjson.Result) bool {
		text := firstString(value)
		if text == "" {
			return true
		}
		if key.String() == "non_field_errors" {
			message = text
		} else {
			message = key.String() + ": " + text
		}
		return false
	})

	if message == "" {
		return fallback
	}
	return message
}

func firstString(value gjson.Result) string {
	switch {
	case value.Type == gjson.String:
		return value.String()
	case value.IsArray():
		for _, v := range value.Array() {
			if v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	return ""
}
