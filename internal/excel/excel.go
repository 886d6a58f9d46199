package excel

import (
	"fmt"
	"io"
	"open-pubs/internal/models"

	"github.com/xuri/excelize/v2"
)

func OpenFile(filename string) (*excelize.File, error) {
	return excelize.OpenFile(filename)
}

// ReadRows returns every row of sheetName, header included. An empty
// sheetName selects the first sheet in the workbook.
func ReadRows(f *excelize.File, sheetName string) ([][]string, error) {
	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheetName = sheets[0]
	}
	return f.GetRows(sheetName)
}

var pubHeaders = []interface{}{
	"id", "name", "address", "postcode", "local_authority", "latitude", "longitude",
}

func pubCells(p models.Pub) []interface{} {
	return []interface{}{
		p.ID, p.Name, p.Address, p.Postcode, p.LocalAuthority, p.Loc.Lat, p.Loc.Lon,
	}
}

// WritePubs streams pubs as a single-sheet workbook to w.
func WritePubs(w io.Writer, pubs []models.Pub, sheetName string) error {
	return writeSheet(w, sheetName, pubHeaders, len(pubs), func(i int) []interface{} {
		return pubCells(pubs[i])
	})
}

// WriteNeighbors is WritePubs with a trailing distance column.
func WriteNeighbors(w io.Writer, rows []models.Neighbor, sheetName string) error {
	headers := append(append([]interface{}{}, pubHeaders...), "distance_km")
	return writeSheet(w, sheetName, headers, len(rows), func(i int) []interface{} {
		return append(pubCells(rows[i].Pub), rows[i].DistanceKm)
	})
}

func writeSheet(w io.Writer, sheetName string, headers []interface{}, n int, row func(i int) []interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	// Use Stream Writer for performance
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row(i)); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	// Delete default sheet if exists
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	return f.Write(w)
}
