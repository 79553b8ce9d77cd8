package geo

import (
	"bytes"
	"compress/gzip"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

//go:generate go run ../../cmd/fetch-postal-codes -country US -out US.txt.gz

// US.txt.gz is the gzipped GeoNames US postal-code table (tab separated, no header).
//
//go:embed US.txt.gz
var defaultDataset []byte

// FullDatasetSize is a lower bound on the row count of the complete GeoNames
// US table. A smaller default table means US.txt.gz needs regenerating.
const FullDatasetSize = 40000

// GeoNames column positions.
const (
	colPostalCode = 1
	colPlaceName  = 2
	colStateName  = 3
	colStateCode  = 4
	colLatitude   = 9
	colLongitude  = 10
	minColumns    = 11
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is one row of the postal dataset.
type Place struct {
	PostalCode  string
	PlaceName   string
	StateName   string
	StateCode   string
	Coordinates Coordinates
}

func (p Place) hasCoordinates() bool {
	return !math.IsNaN(p.Coordinates.Latitude) && !math.IsNaN(p.Coordinates.Longitude)
}

// Geocoder resolves US ZIP codes to coordinates from an in-memory dataset.
// It never touches the network and is safe for concurrent use once built.
type Geocoder struct {
	places map[string]Place
	logger zerolog.Logger
}

// LoadDefault builds a Geocoder from the embedded dataset.
func LoadDefault(logger zerolog.Logger) (*Geocoder, error) {
	return newGzipGeocoder(bytes.NewReader(defaultDataset), logger)
}

// LoadFile builds a Geocoder from a GeoNames postal-code file such as US.txt.
// Files ending in .gz are decompressed.
func LoadFile(path string, logger zerolog.Logger) (*Geocoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geo: failed to open dataset: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".gz") {
		return newGzipGeocoder(f, logger)
	}
	return NewGeocoder(f, logger)
}

func newGzipGeocoder(r io.Reader, logger zerolog.Logger) (*Geocoder, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("geo: failed to decompress dataset: %w", err)
	}
	defer zr.Close()

	return NewGeocoder(zr, logger)
}

// NewGeocoder parses a GeoNames-format dataset from r.
func NewGeocoder(r io.Reader, logger zerolog.Logger) (*Geocoder, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	places := make(map[string]Place)
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("geo: failed to read line %d: %w", line, err)
		}
		if len(record) < minColumns {
			return nil, fmt.Errorf("geo: line %d has %d columns, expected at least %d", line, len(record), minColumns)
		}

		code := NormalizePostalCode(record[colPostalCode])
		if code == "" {
			continue
		}

		places[code] = Place{
			PostalCode: code,
			PlaceName:  record[colPlaceName],
			StateName:  record[colStateName],
			StateCode:  record[colStateCode],
			Coordinates: Coordinates{
				Latitude:  parseCoordinate(record[colLatitude]),
				Longitude: parseCoordinate(record[colLongitude]),
			},
		}
	}

	logger = logger.With().Str("component", "geocoder").Logger()
	logger.Debug().Int("postal_codes", len(places)).Msg("postal dataset loaded")

	return &Geocoder{places: places, logger: logger}, nil
}

// parseCoordinate returns NaN for blank or malformed values.
func parseCoordinate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// NormalizePostalCode trims whitespace and drops a ZIP+4 suffix.
func NormalizePostalCode(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '-'); i > 0 {
		s = s[:i]
	}
	return s
}

// Resolve returns the coordinates for zipcode. The boolean is false when the
// ZIP is unknown or either coordinate is missing.
func (g *Geocoder) Resolve(zipcode string) (Coordinates, bool) {
	place, ok := g.Lookup(zipcode)
	if !ok {
		g.logger.Debug().Str("zipcode", zipcode).Msg("postal code not found")
		return Coordinates{}, false
	}
	if !place.hasCoordinates() {
		g.logger.Debug().Str("zipcode", zipcode).Msg("postal code has no coordinates")
		return Coordinates{}, false
	}

	g.logger.Debug().
		Str("zipcode", zipcode).
		Float64("lat", place.Coordinates.Latitude).
		Float64("lon", place.Coordinates.Longitude).
		Msg("resolved coordinates")
	return place.Coordinates, true
}

// Lookup returns the dataset row for zipcode.
func (g *Geocoder) Lookup(zipcode string) (Place, bool) {
	place, ok := g.places[NormalizePostalCode(zipcode)]
	return place, ok
}

// Len reports how many postal codes are indexed.
func (g *Geocoder) Len() int {
	return len(g.places)
}
