// Command fetch-postal-codes downloads a GeoNames postal-code table and
// writes it gzipped for embedding in the geo package.
package main

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/energy-dashboard-api/internal/common"
)

const defaultBaseURL = "https://download.geonames.org/export/zip"

func main() {
	country := flag.String("country", "US", "GeoNames country code")
	out := flag.String("out", "US.txt.gz", "output file")
	baseURL := flag.String("base-url", defaultBaseURL, "GeoNames postal export location")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 2 * time.Minute}
	rows, err := fetch(ctx, client, *baseURL, *country, *out)
	if err != nil {
		log.Fatal().Err(err).Str("country", *country).Msg("cannot fetch postal codes")
	}
	log.Info().Int("rows", rows).Str("out", *out).Msg("postal code table written")
}

// fetch downloads {baseURL}/{country}.zip, extracts {country}.txt and writes
// it gzipped to out. It returns the number of rows written.
func fetch(ctx context.Context, client *http.Client, baseURL, country, out string) (int, error) {
	archiveURL := fmt.Sprintf("%s/%s.zip", baseURL, country)

	resp, err := common.DoRequestWithResilience(ctx, common.HTTPClientConfig{
		Client: client,
		Retry:  common.RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second},
	}, nil, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, archiveURL, nil)
	})
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", archiveURL, err)
	}
	defer resp.Body.Close()

	archive, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	table, err := extract(archive, country+".txt")
	if err != nil {
		return 0, err
	}

	if err := writeGzip(out, country+".txt", table); err != nil {
		return 0, err
	}
	return bytes.Count(table, []byte("\n")), nil
}

func extract(archive []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("archive has no %s", name)
}

// writeGzip replaces path atomically so a failed run keeps the old table.
func writeGzip(path, name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".postal-*.gz")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	zw, err := gzip.NewWriterLevel(tmp, gzip.BestCompression)
	if err != nil {
		tmp.Close()
		return err
	}
	zw.Name = name

	if _, err := zw.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
