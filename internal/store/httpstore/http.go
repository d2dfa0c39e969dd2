// Package httpstore implements a read-only storage backend over HTTP(S).
package httpstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/discochess/unpack/internal/codec"
	"github.com/discochess/unpack/internal/codec/noopcodec"
	"github.com/discochess/unpack/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// DefaultResponseHeaderTimeout is the default timeout for receiving response headers.
const DefaultResponseHeaderTimeout = 30 * time.Second

// Store fetches objects with GET requests relative to a base URL.
type Store struct {
	client *http.Client
	base   *url.URL
	codec  codec.Codec
	header http.Header
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		s.client = client
	}
}

// WithTimeout sets an overall timeout for each request.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.client = &http.Client{
			Timeout: timeout,
		}
	}
}

// WithCodec sets the codec that decodes response bodies.
// Default is no decoding.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(s *Store) {
		s.header.Add(key, value)
	}
}

// New creates a store rooted at baseURL.
func New(baseURL string, opts ...Option) (*Store, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", base.Scheme)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	s := &Store{
		client: &http.Client{
			Timeout: 0, // Bodies are streamed; rely on ctx for cancellation.
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		base:   base,
		codec:  noopcodec.New(),
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open issues a GET for key and streams the decoded response body.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range s.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", key, store.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	decompressor, err := s.codec.Reader(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	return codec.CloseWith(decompressor, resp.Body), nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// objectURL returns the absolute URL of key.
func (s *Store) objectURL(key string) string {
	ref := &url.URL{Path: store.ObjectName(key, s.codec.Extension())}
	return s.base.ResolveReference(ref).String()
}
