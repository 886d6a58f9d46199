package loader

import (
	"fmt"
	"math"
	"open-pubs/internal/models"
	"strconv"
	"strings"
)

const (
	colName           = "name"
	colAddress        = "address"
	colPostcode       = "postcode"
	colLocalAuthority = "local_authority"
	colLatitude       = "latitude"
	colLongitude      = "longitude"
)

var requiredColumns = []string{colPostcode, colLocalAuthority, colLatitude, colLongitude}

// columnMap resolves column names to positions in the source header.
type columnMap map[string]int

func newColumnMap(header []string) (columnMap, error) {
	cols := make(columnMap, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func (m columnMap) get(row []string, name string) (string, bool) {
	i, ok := m[name]
	if !ok || i >= len(row) {
		return "", false
	}
	return row[i], true
}

func parseCoord(val string) (float64, error) {
	// Accept decimal commas from spreadsheet exports
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseFloat(val, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// decode turns a data row into a Pub. ok is false when the row is too short
// or its coordinates do not parse. Text fields pass through unchanged.
func (m columnMap) decode(row []string) (models.Pub, bool) {
	latStr, ok1 := m.get(row, colLatitude)
	lonStr, ok2 := m.get(row, colLongitude)
	if !ok1 || !ok2 {
		return models.Pub{}, false
	}

	lat, err1 := parseCoord(latStr)
	lon, err2 := parseCoord(lonStr)
	if err1 != nil || err2 != nil || !finite(lat) || !finite(lon) {
		return models.Pub{}, false
	}

	name, _ := m.get(row, colName)
	address, _ := m.get(row, colAddress)
	postcode, _ := m.get(row, colPostcode)
	authority, _ := m.get(row, colLocalAuthority)

	return models.Pub{
		Name:           name,
		Address:        address,
		Postcode:       postcode,
		LocalAuthority: authority,
		Loc:            models.Coordinate{Lat: lat, Lon: lon},
	}, true
}
