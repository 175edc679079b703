package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godsvagn/godsvagn/internal/config"
	"github.com/godsvagn/godsvagn/internal/deb/debtest"
	"github.com/godsvagn/godsvagn/internal/generator"
	"github.com/godsvagn/godsvagn/internal/ingest"
	"github.com/godsvagn/godsvagn/internal/models"
	"github.com/godsvagn/godsvagn/internal/storage"
)

// memCatalog backs both the ingestion and generation surfaces in
// memory
type memCatalog struct {
	rows map[string]models.Package
}

func newMemCatalog() *memCatalog {
	return &memCatalog{rows: make(map[string]models.Package)}
}

func (m *memCatalog) Insert(_ context.Context, pkg *models.Package) error {
	key := fmt.Sprintf("%s:%s:%s", pkg.Name, pkg.Version, pkg.Architecture)
	if _, exists := m.rows[key]; exists {
		return models.WrapError(models.ErrDuplicate, key, fmt.Errorf("package already cataloged"))
	}
	m.rows[key] = *pkg
	return nil
}

func (m *memCatalog) Architectures(context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var arches []string
	for _, pkg := range m.rows {
		if !seen[pkg.Architecture] {
			seen[pkg.Architecture] = true
			arches = append(arches, pkg.Architecture)
		}
	}
	return arches, nil
}

func (m *memCatalog) List(_ context.Context, arch string) ([]models.Package, error) {
	var pkgs []models.Package
	for _, pkg := range m.rows {
		if pkg.Architecture == arch {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	cat := newMemCatalog()
	store := storage.NewStore(root)
	rel := config.Release{Origin: "Test", Label: "Test", Suite: "stable", Codename: "stable", Components: []string{"main"}}
	srv := New(":0", ingest.NewService(cat, store), generator.NewGenerator(cat, nil, rel, root), root)
	return srv, root
}

func postUpload(srv *Server, body []byte, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload"+query, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestUploadAndRegenerate(t *testing.T) {
	srv, root := testServer(t)

	data, err := debtest.BuildDeb(debtest.ControlFor("mytool", "1.0.0", "amd64", "A tool"), debtest.Gzip)
	require.NoError(t, err)

	rec := postUpload(srv, data, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"package":"mytool"`)

	req := httptest.NewRequest(http.MethodPost, "/regenerate", nil)
	regen := httptest.NewRecorder()
	srv.echo.ServeHTTP(regen, req)
	assert.Equal(t, http.StatusOK, regen.Code)

	packages, err := os.ReadFile(filepath.Join(root, "dists", "stable", "main", "binary-amd64", "Packages"))
	require.NoError(t, err)
	assert.Contains(t, string(packages), "Package: mytool\n")
}

func TestUploadDuplicate(t *testing.T) {
	srv, _ := testServer(t)

	data, err := debtest.BuildDeb(debtest.ControlFor("mytool", "1.0.0", "amd64", "A tool"), debtest.Gzip)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, postUpload(srv, data, "").Code)
	assert.Equal(t, http.StatusConflict, postUpload(srv, data, "").Code)

	// Retried identical uploads can opt into success.
	assert.Equal(t, http.StatusOK, postUpload(srv, data, "?ignore_exists=true").Code)
}

func TestUploadMalformed(t *testing.T) {
	srv, _ := testServer(t)

	rec := postUpload(srv, []byte("not a deb"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
