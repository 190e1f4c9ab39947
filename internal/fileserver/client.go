// Package fileserver talks to the RoboProp file server, a DreamFactory file
// service holding one folder per published model.
package fileserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/art-e-fact/RoboProp/internal/bundle"
)

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "X-DreamFactory-API-Key"

// DefaultTimeout bounds a single request when Config.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// ErrStatus is matched by every *StatusError.
var ErrStatus = errors.New("file server request failed")

// StatusError is a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("file server %s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// IsNotFound reports whether err is a 404 from the file server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Config holds the connection settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client is a file server client. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a client for the file service rooted at cfg.URL.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("fileserver: url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With(zap.String("component", "fileserver")),
		now:     time.Now,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteByte('/')
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	b.WriteString(strings.Join(segments, "/"))
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String()
}

// do sends a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file server %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("took", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err != nil {
		return nil, fmt.Errorf("file server %s %s: reading body: %w", method, path, err)
	}
	return raw, nil
}

// List returns every path on the file server, folders with a trailing slash.
func (c *Client) List(ctx context.Context) ([]string, error) {
	query := url.Values{"full_tree": {"true"}, "as_list": {"true"}}
	raw, err := c.do(ctx, http.MethodGet, "", query, nil, "")
	if err != nil {
		return nil, err
	}
	var out struct {
		Resource []string `json:"resource"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding file list: %w", err)
	}
	return out.Resource, nil
}

// Models returns the top-level folders, one per published model.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	paths, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var models []string
	for _, p := range paths {
		folder, _, ok := strings.Cut(p, "/")
		if !ok || folder == "" || seen[folder] {
			continue
		}
		seen[folder] = true
		models = append(models, folder)
	}
	sort.Strings(models)
	return models, nil
}

// Get downloads a file.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil, "")
}

// Put replaces a file.
func (c *Client) Put(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := c.do(ctx, http.MethodPut, path, nil, data, contentType)
	return err
}

// Post creates a file or folder. query carries service options such as
// extract.
func (c *Client) Post(ctx context.Context, path string, query url.Values, data []byte, contentType string) error {
	_, err := c.do(ctx, http.MethodPost, path, query, data, contentType)
	return err
}

// UploadBundle zips dir and extracts it into the folder key, replacing what
// was there. It returns the uploaded file names.
func (c *Client) UploadBundle(ctx context.Context, key, dir string) ([]string, error) {
	data, files, err := bundle.Bytes(dir)
	if err != nil {
		return nil, err
	}
	query := url.Values{"extract": {"true"}, "clean": {"true"}}
	if err := c.Post(ctx, strings.Trim(key, "/")+"/", query, data, "application/zip"); err != nil {
		return nil, fmt.Errorf("uploading %s: %w", key, err)
	}
	c.logger.Info("bundle uploaded",
		zap.String("key", key),
		zap.Int("files", len(files)),
		zap.Int("bytes", len(data)))
	return files, nil
}
