package apiclient

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestClassify_StatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct { //nolint:govet // test table struct alignment
		name        string
		status      int
		body        string
		wantKind    Kind
		wantMessage string
	}{
		{"401 with detail", 401, `{"detail":"Not authenticated"}`, KindUnauthenticated, MsgAuthRequired},
		{"401 empty body", 401, ``, KindUnauthenticated, MsgAuthRequired},
		{"401 malformed body", 401, `<html>nope`, KindUnauthenticated, MsgAuthRequired},
		{"403 csrf detail", 403, `{"detail":"CSRF Failed"}`, KindForbidden, "CSRF Failed"},
		{"403 no body on a read", 403, ``, KindForbidden, MsgForbidden},
		{"404 detail", 404, `{"detail":"Not found."}`, KindNotFound, "Not found."},
		{"404 html", 404, `<h1>Not Found</h1>`, KindNotFound, MsgNotFound},
		{"500 detail", 500, `{"detail":"boom"}`, KindGeneric, "boom"},
		{"500 undecodable", 500, `oops`, KindGeneric, "Failed to update item"},
		{"502 empty", 502, ``, KindGeneric, "Failed to update item"},
		{"400 field errors", 400, `{"name":["This field may not be blank."]}`, KindGeneric,
			"name: This field may not be blank."},
		{"400 non field errors", 400, `{"non_field_errors":["Bad pair."]}`, KindGeneric, "Bad pair."},
		{"400 array body", 400, `["x"]`, KindGeneric, "Failed to update item"},
		{"400 empty detail", 400, `{"detail":""}`, KindGeneric, "Failed to update item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Classify(newResponse(tt.status, tt.body), nil, "Failed to update item")
			require.Error(t, err)

			f, ok := AsFailure(err)
			require.True(t, ok, "expected *Failure, got %T", err)
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantMessage, f.Message)
			assert.Equal(t, tt.status, f.Status)
		})
	}
}

func TestClassify_SuccessDecodes(t *testing.T) {
	t.Parallel()

	var item Item
	err := Classify(newResponse(200, `{"id":1,"name":"Pencil","description":""}`), &item, "unused")
	require.NoError(t, err)
	assert.Equal(t, Item{ID: 1, Name: "Pencil", Description: ""}, item)
}

func TestClassify_SuccessWithUndecodableBodyIsGeneric(t *testing.T) {
	t.Parallel()

	var item Item
	err := Classify(newResponse(200, `not json`), &item, "unused")
	require.Error(t, err)

	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, KindGeneric, f.Kind)
	assert.Contains(t, f.Message, "malformed response")
	assert.Error(t, f.Unwrap())
}

func TestClassify_SuccessWithoutTarget(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Classify(newResponse(204, ``), nil, "unused"))
	assert.NoError(t, Classify(newResponse(200, `garbage`), nil, "unused"))
}

func TestClassify_ForbiddenByMethod(t *testing.T) {
	t.Parallel()

	tests := []struct { //nolint:govet // test table struct alignment
		name        string
		method      string
		body        string
		wantCSRF    bool
		wantMessage string
	}{
		{"read without body", http.MethodGet, ``, false, MsgForbidden},
		{"read naming csrf", http.MethodGet, `{"detail":"CSRF Failed"}`, false, "CSRF Failed"},
		{"read permission", http.MethodGet, `{"detail":"No access."}`, false, "No access."},
		{"write without body", http.MethodPut, ``, true, MsgCSRFFailed},
		{"write naming csrf", http.MethodPost, `{"detail":"CSRF Failed: CSRF token missing."}`, true,
			"CSRF Failed: CSRF token missing."},
		{"write permission", http.MethodDelete, `{"detail":"You do not have permission."}`, false,
			"You do not have permission."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := newResponse(http.StatusForbidden, tt.body)
			resp.Request = httptest.NewRequest(tt.method, "http://backend.test/api/items/", http.NoBody)

			f, ok := AsFailure(Classify(resp, nil, "unused"))
			require.True(t, ok)
			assert.Equal(t, KindForbidden, f.Kind)
			assert.Equal(t, tt.wantCSRF, f.CSRFRejected())
			assert.Equal(t, tt.wantMessage, f.Message)
		})
	}
}

func TestClassify_SuccessWithTrailingDataIsGeneric(t *testing.T) {
	t.Parallel()

	var page []Item
	err := Classify(newResponse(200, `[] <html>garbage`), &page, "unused")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindGeneric))

	require.NoError(t, Classify(newResponse(200, "[]\n"), &page, "unused"))
}

func TestFailure_CSRFRejected(t *testing.T) {
	t.Parallel()

	assert.True(t, NewCSRFFailure(MsgCSRFFailed).CSRFRejected())
	assert.False(t, NewFailure(KindForbidden, 403, MsgCSRFFailed).CSRFRejected())
	assert.False(t, NewFailure(KindGeneric, 400, "csrf in a generic message").CSRFRejected())
}

func TestErrorMessage_NeverFails(t *testing.T) {
	t.Parallel()

	for _, body := range []string{"", "{", "null", "42", `{"detail":42}`, `{"a":{}}`, `{"a":[1,2]}`} {
		assert.Equal(t, "fallback", ErrorMessage([]byte(body), "fallback"), "body %q", body)
	}
}

// Property-based tests for status classification.

func TestClassify_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("401 is unauthenticated for any body", prop.ForAll(
		func(body string) bool {
			err := Classify(newResponse(http.StatusUnauthorized, body), nil, "fallback")
			return IsKind(err, KindUnauthenticated)
		},
		gen.AnyString(),
	))

	properties.Property("403 is forbidden, never unauthenticated", prop.ForAll(
		func(body string) bool {
			err := Classify(newResponse(http.StatusForbidden, body), nil, "fallback")
			return IsKind(err, KindForbidden)
		},
		gen.AnyString(),
	))

	properties.Property("other non-2xx statuses are generic with a message", prop.ForAll(
		func(status int, body string) bool {
			if status == 401 || status == 403 || status == 404 {
				return true
			}
			err := Classify(newResponse(status, body), nil, "fallback")
			f, ok := AsFailure(err)
			return ok && f.Kind == KindGeneric && f.Message != ""
		},
		gen.IntRange(300, 599),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
