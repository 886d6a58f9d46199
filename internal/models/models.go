package models

import (
	"errors"
	"fmt"
	"strings"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Pub is one row of the open pubs table. ID is the row position assigned at load.
type Pub struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	Postcode       string     `json:"postcode"`
	LocalAuthority string     `json:"local_authority"`
	Loc            Coordinate `json:"location"`
}

// Neighbor carries the distance computed for a single query. It is never
// stored back on the dataset.
type Neighbor struct {
	Pub
	DistanceKm float64 `json:"distance_km"`
}

// AreaKind selects the categorical field used by area lookups and counts.
type AreaKind int

const (
	PostalCode AreaKind = iota + 1
	LocalAuthority
)

var ErrInvalidAreaKind = errors.New("invalid area kind")

func (k AreaKind) String() string {
	switch k {
	case PostalCode:
		return "postcode"
	case LocalAuthority:
		return "local_authority"
	default:
		return fmt.Sprintf("AreaKind(%d)", int(k))
	}
}

func (k AreaKind) Valid() bool {
	return k == PostalCode || k == LocalAuthority
}

// Field returns the value of the field selected by k.
func (k AreaKind) Field(p Pub) (string, error) {
	switch k {
	case PostalCode:
		return p.Postcode, nil
	case LocalAuthority:
		return p.LocalAuthority, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidAreaKind, k)
	}
}

// ParseAreaKind accepts both the API labels and the labels shown in the UI.
func ParseAreaKind(s string) (AreaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postcode", "postal_code":
		return PostalCode, nil
	case "local_authority", "local authority":
		return LocalAuthority, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAreaKind, s)
	}
}

func (k AreaKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAreaKind, k)
	}
	return []byte(k.String()), nil
}

func (k *AreaKind) UnmarshalText(b []byte) error {
	v, err := ParseAreaKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

type CountEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type AreaResult struct {
	Kind  AreaKind `json:"kind"`
	Value string   `json:"value"`
	Count int      `json:"count"`
	Pubs  []Pub    `json:"pubs"`
}

type Summary struct {
	Rows           int          `json:"rows"`
	Columns        int          `json:"columns"`
	TopAuthorities []CountEntry `json:"top_authorities"`
	TopPostcodes   []CountEntry `json:"top_postcodes"`
}
