package main

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/energy-dashboard-api/internal/geo"
)

const table = "US\t33620\tTampa\tFlorida\tFL\tHillsborough\t057\t\t\t28.0587\t-82.4139\t4\n" +
	"US\t10001\tNew York\tNew York\tNY\tNew York\t061\t\t\t40.7484\t-73.9967\t4\n"

func archive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFetchWritesLoadableTable(t *testing.T) {
	body := archive(t, map[string]string{"readme.txt": "GeoNames", "US.txt": table})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/US.zip", r.URL.Path)
		w.Write(body)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "US.txt.gz")
	rows, err := fetch(context.Background(), &http.Client{Timeout: 2 * time.Second}, srv.URL, "US", out)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	g, err := geo.LoadFile(out, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	coords, ok := g.Resolve("10001")
	require.True(t, ok)
	assert.Equal(t, geo.Coordinates{Latitude: 40.7484, Longitude: -73.9967}, coords)
}

func TestFetchMissingTableKeepsExistingFile(t *testing.T) {
	body := archive(t, map[string]string{"readme.txt": "GeoNames"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "US.txt.gz")
	require.NoError(t, os.WriteFile(out, []byte("previous"), 0o600))

	_, err := fetch(context.Background(), &http.Client{Timeout: 2 * time.Second}, srv.URL, "US", out)
	assert.ErrorContains(t, err, "archive has no US.txt")

	kept, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(kept))
}

func TestFetchUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := fetch(ctx, &http.Client{Timeout: 2 * time.Second}, srv.URL, "XX", filepath.Join(t.TempDir(), "XX.txt.gz"))
	assert.ErrorContains(t, err, "404")
}
