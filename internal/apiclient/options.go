package apiclient

import (
	"net/http"
	"net/url"
)

type requestOptions struct {
	query       url.Values
	headers     http.Header
	contentType string
	authFlow    bool
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// AuthFlow marks login/registration/password flows: a 401 there is a form error and
// never invalidates the session.
func AuthFlow() RequestOption {
	return func(o *requestOptions) { o.authFlow = true }
}

// WithQuery sets the query string.
func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) { o.query = q }
}

// WithHeader overrides a header for this request only.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		o.headers.Set(key, value)
	}
}

// WithContentType overrides Content-Type, e.g. for multipart uploads.
func WithContentType(ct string) RequestOption {
	return func(o *requestOptions) { o.contentType = ct }
}

func collectOptions(opts []RequestOption) requestOptions {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
