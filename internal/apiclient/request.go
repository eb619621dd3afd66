package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/omarluq/itemdesk/internal/credentials"
	"github.com/omarluq/itemdesk/internal/version"
)

// mutatingMethods are the methods that must carry the anti-forgery header.
var mutatingMethods = []string{
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// IsMutating reports whether method changes server state.
func IsMutating(method string) bool {
	return lo.Contains(mutatingMethods, strings.ToUpper(method))
}

// Builder composes authenticated backend requests.
type Builder struct {
	source  credentials.Source
	baseURL string
	header  string
}

// NewBuilder creates a Builder for the backend at baseURL. The token header
// name comes from names; cookies and token come from source.
func NewBuilder(baseURL string, source credentials.Source, names credentials.Names) *Builder {
	header := names.Header
	if header == "" {
		header = credentials.DefaultCSRFHeader
	}
	return &Builder{
		source:  source,
		baseURL: strings.TrimRight(baseURL, "/"),
		header:  header,
	}
}

// Build returns a request for path with cookies attached through the source.
// Mutating methods get the anti-forgery header; when no token is available
// the header is sent empty and the backend decides. A body that is []byte or
// json.RawMessage is sent as-is, anything else is JSON-encoded.
//
// Build does not classify anything; errors are local construction errors.
func (b *Builder) Build(ctx context.Context, method, path string, body any) (*http.Request, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	var reader io.Reader = http.NoBody
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient: new request %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	b.source.Attach(req)

	if IsMutating(method) {
		req.Header.Set(b.header, b.source.CSRFToken().OrElse(""))
	}

	return req, nil
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		return data, nil
	}
}
