package tribunal

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

type RequestKind string

const (
	KindJSON     RequestKind = "json"
	KindDownload RequestKind = "download"
)

// Request describes one remote call. It is immutable across attempts: the
// executor rebuilds the wire request from it on every retry.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte

	// Kind selects the budget, deadline and body cap. Zero value means JSON.
	Kind RequestKind

	// Decode, when non-nil, receives the JSON body of a 2xx response.
	Decode any

	// NoBudget bypasses permit acquisition for calls that must not queue
	// behind regular traffic.
	NoBudget bool
}

func (r Request) kind() RequestKind {
	if r.Kind == "" {
		return KindJSON
	}
	return r.Kind
}

func (r Request) op() string {
	return r.Method + " " + r.Path
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func buildRequestURL(baseURL, path string, query url.Values) (string, error) {
	if baseURL == "" {
		return "", errors.New("base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse request path: %w", err)
	}
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	return endpoint.String(), nil
}
