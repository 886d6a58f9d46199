// Package pubs holds the loaded open pubs table and the read-only queries
// served from it.
package pubs

import (
	"errors"
	"fmt"
	"math"
	"open-pubs/internal/calculator"
	"open-pubs/internal/models"
	"sort"
)

const (
	DefaultNearestCount   = 5
	DefaultTopAuthorities = 10
	DefaultTopPostcodes   = 30
)

var (
	ErrInvalidAreaKind   = models.ErrInvalidAreaKind
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidRadius     = errors.New("invalid radius")
)

// Dataset is an immutable snapshot of the table. It is safe for concurrent
// readers once constructed.
type Dataset struct {
	pubs    []models.Pub
	columns []string
}

// NewDataset takes ownership of pubs and renumbers IDs by position.
// columns is the header of the source the rows were read from.
func NewDataset(pubs []models.Pub, columns []string) *Dataset {
	for i := range pubs {
		pubs[i].ID = i
	}
	if pubs == nil {
		pubs = []models.Pub{}
	}
	return &Dataset{pubs: pubs, columns: append([]string(nil), columns...)}
}

func (d *Dataset) Len() int { return len(d.pubs) }

// Pubs returns a copy of every row in dataset order.
func (d *Dataset) Pubs() []models.Pub {
	return append([]models.Pub{}, d.pubs...)
}

// Columns returns the source header.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// Shape reports the table dimensions. The generated row identifier counts as
// a column on top of the source header.
func (d *Dataset) Shape() (rows, columns int) {
	return len(d.pubs), len(d.columns) + 1
}

func validCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, lat, lon)
	}
	return nil
}

// Nearest returns up to n pubs ordered by distance from (lat, lon), ties in
// dataset order. Non-finite coordinates are rejected with ErrInvalidCoordinate.
func (d *Dataset) Nearest(lat, lon float64, n int) ([]models.Neighbor, error) {
	if err := validCoordinate(lat, lon); err != nil {
		return nil, err
	}
	return calculator.ComputeNearest(d.pubs, models.Coordinate{Lat: lat, Lon: lon}, n), nil
}

// WithinRadius returns every pub no further than radiusKm from (lat, lon).
func (d *Dataset) WithinRadius(lat, lon, radiusKm float64) ([]models.Neighbor, error) {
	if err := validCoordinate(lat, lon); err != nil {
		return nil, err
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, radiusKm)
	}
	return calculator.ComputeRadius(d.pubs, models.Coordinate{Lat: lat, Lon: lon}, radiusKm), nil
}

// FilterByArea returns the pubs whose field selected by kind equals value
// exactly. An empty value only matches rows where that field is empty.
func (d *Dataset) FilterByArea(kind models.AreaKind, value string) (models.AreaResult, error) {
	if !kind.Valid() {
		return models.AreaResult{}, fmt.Errorf("%w: %s", ErrInvalidAreaKind, kind)
	}

	matches := []models.Pub{}
	for _, p := range d.pubs {
		field, _ := kind.Field(p)
		if field == value {
			matches = append(matches, p)
		}
	}
	return models.AreaResult{Kind: kind, Value: value, Count: len(matches), Pubs: matches}, nil
}

// TopValues counts the distinct values of the field selected by kind and
// returns the k most frequent. Equal counts keep first-seen order. Rows with
// an empty field are not counted.
func (d *Dataset) TopValues(kind models.AreaKind, k int) ([]models.CountEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAreaKind, kind)
	}
	if k <= 0 {
		return []models.CountEntry{}, nil
	}

	buckets := []models.CountEntry{}
	index := make(map[string]int)
	for _, p := range d.pubs {
		field, _ := kind.Field(p)
		if field == "" {
			continue
		}
		i, ok := index[field]
		if !ok {
			i = len(buckets)
			index[field] = i
			buckets = append(buckets, models.CountEntry{Value: field})
		}
		buckets[i].Count++
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})
	if k < len(buckets) {
		buckets = buckets[:k]
	}
	return buckets, nil
}

// Summarize builds the overview page: table shape plus the top local
// authorities and postcodes by pub count.
func (d *Dataset) Summarize(topAuthorities, topPostcodes int) models.Summary {
	rows, cols := d.Shape()
	// both kinds are valid, errors cannot occur here
	authorities, _ := d.TopValues(models.LocalAuthority, topAuthorities)
	postcodes, _ := d.TopValues(models.PostalCode, topPostcodes)
	return models.Summary{
		Rows:           rows,
		Columns:        cols,
		TopAuthorities: authorities,
		TopPostcodes:   postcodes,
	}
}
