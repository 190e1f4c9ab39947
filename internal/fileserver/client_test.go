package fileserver

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey = "secret-key"
	apiRoot = "/api/v2/files/"
)

// fakeServer emulates the subset of the DreamFactory file service the client
// uses, backed by a map of path to content.
type fakeServer struct {
	mu           sync.Mutex
	files        map[string][]byte
	requests     []string
	strictCreate bool // PUT of a missing file is 404
}

func newFakeServer(t *testing.T) (*fakeServer, *Client) {
	t.Helper()
	fs := &fakeServer{files: make(map[string][]byte)}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	c, err := New(Config{URL: srv.URL + apiRoot, APIKey: testKey, Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	return fs, c
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())

	if r.Header.Get(APIKeyHeader) != testKey {
		http.Error(w, `{"error":{"message":"No session token (JWT) or API Key detected in request."}}`, http.StatusUnauthorized)
		return
	}
	if !strings.HasPrefix(r.URL.Path, apiRoot) {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, apiRoot)
	q := r.URL.Query()
	body, _ := io.ReadAll(r.Body)

	switch {
	case r.Method == http.MethodGet && path == "" && q.Get("as_list") == "true":
		var list []string
		folders := map[string]bool{}
		for name := range f.files {
			list = append(list, name)
			if dir, _, ok := strings.Cut(name, "/"); ok && !folders[dir] {
				folders[dir] = true
				list = append(list, dir+"/")
			}
		}
		sort.Strings(list)
		_ = json.NewEncoder(w).Encode(map[string]any{"resource": list})
	case r.Method == http.MethodGet:
		data, ok := f.files[path]
		if !ok {
			http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	case r.Method == http.MethodPut:
		if _, ok := f.files[path]; !ok && f.strictCreate {
			http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
			return
		}
		f.files[path] = body
		_, _ = w.Write([]byte(`{"name":"` + path + `"}`))
	case r.Method == http.MethodPost && q.Get("extract") == "true":
		if q.Get("clean") == "true" {
			for name := range f.files {
				if strings.HasPrefix(name, path) {
					delete(f.files, name)
				}
			}
		}
		zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, zf := range zr.File {
			rc, _ := zf.Open()
			data, _ := io.ReadAll(rc)
			rc.Close()
			f.files[path+zf.Name] = data
		}
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodPost:
		f.files[path] = body
		w.WriteHeader(http.StatusCreated)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(Config{APIKey: "k"}, nil)
	assert.Error(t, err)
}

func TestGetPutSendsAPIKey(t *testing.T) {
	fs, c := newFakeServer(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "Box/notes.txt", []byte("hello"), "text/plain"))
	got, err := c.Get(ctx, "Box/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.Equal(t, "GET "+apiRoot+"Box/notes.txt", fs.requests[1])

	bad, err := New(Config{URL: c.baseURL, APIKey: "wrong"}, nil)
	require.NoError(t, err)
	_, err = bad.Get(ctx, "Box/notes.txt")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "API Key")
}

func TestGetNotFound(t *testing.T) {
	_, c := newFakeServer(t)
	_, err := c.Get(context.Background(), "missing/file.txt")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("other")))
}

func TestEndpointEscapesSegments(t *testing.T) {
	_, c := newFakeServer(t)
	got := c.endpoint("Strange Chair/model.sdf", nil)
	assert.True(t, strings.HasSuffix(got, apiRoot+"Strange%20Chair/model.sdf"), got)
}

func TestListAndModels(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.files["Box/model.sdf"] = nil
	fs.files["Box/assets/visual.obj"] = nil
	fs.files["Chair/model.sdf"] = nil
	fs.files["index.json"] = []byte(`{"models":[]}`)

	ctx := context.Background()
	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, list, "Box/")
	assert.Contains(t, list, "Box/assets/visual.obj")
	assert.Contains(t, fs.requests[0], "as_list=true")
	assert.Contains(t, fs.requests[0], "full_tree=true")

	models, err := c.Models(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Box", "Chair"}, models)
}

func TestUploadBundle(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.files["Box/stale.txt"] = []byte("old")
	fs.files["Other/model.sdf"] = []byte("keep")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.sdf"), []byte("<sdf/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "visual.obj"), []byte("v 0 0 0\n"), 0o644))

	files, err := c.UploadBundle(context.Background(), "Box", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/visual.obj", "model.sdf"}, files)

	assert.Equal(t, "<sdf/>", string(fs.files["Box/model.sdf"]))
	assert.Equal(t, "v 0 0 0\n", string(fs.files["Box/assets/visual.obj"]))
	assert.NotContains(t, fs.files, "Box/stale.txt")
	assert.Equal(t, "keep", string(fs.files["Other/model.sdf"]))
	assert.Equal(t, "POST "+apiRoot+"Box/?clean=true&extract=true", fs.requests[0])
}

func TestUploadBundleEmptyDir(t *testing.T) {
	fs, c := newFakeServer(t)
	_, err := c.UploadBundle(context.Background(), "Box", t.TempDir())
	assert.Error(t, err)
	assert.Empty(t, fs.requests)
}

func TestContextCancel(t *testing.T) {
	_, c := newFakeServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, "index.json")
	assert.ErrorIs(t, err, context.Canceled)
}
