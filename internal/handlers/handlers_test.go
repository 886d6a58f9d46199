package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"open-pubs/internal/models"
	"open-pubs/internal/pubs"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ds := pubs.NewDataset([]models.Pub{
		{Name: "Red Lion", Postcode: "NW1 7AA", LocalAuthority: "Camden", Loc: models.Coordinate{Lat: 51.5, Lon: -0.1}},
		{Name: "Crown", Postcode: "NW1 7AA", LocalAuthority: "Camden", Loc: models.Coordinate{Lat: 51.5, Lon: -0.1}},
		{Name: "Swan", Postcode: "M1 1AA", LocalAuthority: "Manchester", Loc: models.Coordinate{Lat: 53.48, Lon: -2.24}},
	}, []string{"name", "address", "postcode", "latitude", "longitude", "local_authority"})

	r := gin.New()
	New(ds, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func get(t *testing.T, r http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	r := newTestRouter(t)
	w := get(t, r, "/api/summary?top_authorities=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	var body struct {
		OK      bool           `json:"ok"`
		Summary models.Summary `json:"summary"`
	}
	decode(t, w, &body)
	if body.Summary.Rows != 3 || body.Summary.Columns != 7 {
		t.Errorf("shape = %d x %d", body.Summary.Rows, body.Summary.Columns)
	}
	if len(body.Summary.TopAuthorities) != 1 || body.Summary.TopAuthorities[0].Value != "Camden" {
		t.Errorf("top authorities = %+v", body.Summary.TopAuthorities)
	}
	if len(body.Summary.TopPostcodes) != 2 {
		t.Errorf("top postcodes = %+v", body.Summary.TopPostcodes)
	}

	if w := get(t, r, "/api/summary?top_postcodes=lots"); w.Code != http.StatusBadRequest {
		t.Errorf("bad top_postcodes status = %d", w.Code)
	}
}

func TestAreaEndpoint(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name      string
		url       string
		wantCode  int
		wantCount int
	}{
		{"authority", "/api/area?kind=local_authority&value=Camden", http.StatusOK, 2},
		{"ui label and padding", "/api/area?kind=Local+Authority&value=+Camden+", http.StatusOK, 2},
		{"postcode", "/api/area?kind=postcode&value=M1+1AA", http.StatusOK, 1},
		{"no match", "/api/area?kind=postcode&value=ZZ9", http.StatusOK, 0},
		{"unknown kind", "/api/area?kind=Zipcode&value=M1+1AA", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, r, tt.url)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantCode, w.Body)
			}
			var body struct {
				OK     bool              `json:"ok"`
				Result models.AreaResult `json:"result"`
			}
			if tt.wantCode != http.StatusOK {
				decode(t, w, &body)
				if body.OK {
					t.Error("ok = true on error")
				}
				return
			}
			var raw struct {
				Result struct {
					Count int          `json:"count"`
					Pubs  []models.Pub `json:"pubs"`
				} `json:"result"`
			}
			decode(t, w, &raw)
			if raw.Result.Count != tt.wantCount || len(raw.Result.Pubs) != tt.wantCount {
				t.Errorf("count = %d, pubs = %d, want %d", raw.Result.Count, len(raw.Result.Pubs), tt.wantCount)
			}
		})
	}
}

func TestNearestEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := get(t, r, "/api/nearest?lat=51.5&lon=-0.1&n=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var body struct {
		Count int               `json:"count"`
		Pubs  []models.Neighbor `json:"pubs"`
	}
	decode(t, w, &body)
	if body.Count != 2 || body.Pubs[0].Name != "Red Lion" || body.Pubs[1].Name != "Crown" {
		t.Errorf("nearest = %+v", body.Pubs)
	}

	w = get(t, r, "/api/nearest?lat=53.0&lon=-1.0")
	decode(t, w, &body)
	if body.Count != 3 {
		t.Errorf("default n over small dataset returned %d rows", body.Count)
	}

	for _, url := range []string{
		"/api/nearest?lat=NaN&lon=-0.1",
		"/api/nearest?lat=51.5&lon=Inf",
		"/api/nearest?lat=51.5",
		"/api/nearest?lat=abc&lon=-0.1",
		"/api/nearest?lat=51.5&lon=-0.1&n=x",
	} {
		if w := get(t, r, url); w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", url, w.Code)
		}
	}
}

func TestRadiusEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := get(t, r, "/api/radius?lat=53.48&lon=-2.24&km=5")
	var body struct {
		Count int `json:"count"`
	}
	decode(t, w, &body)
	if w.Code != http.StatusOK || body.Count != 1 {
		t.Errorf("status = %d count = %d", w.Code, body.Count)
	}

	if w := get(t, r, "/api/radius?lat=53.48&lon=-2.24&km=-1"); w.Code != http.StatusBadRequest {
		t.Errorf("negative radius status = %d", w.Code)
	}
}

func TestNearestXLSXExport(t *testing.T) {
	r := newTestRouter(t)

	w := get(t, r, "/api/nearest?lat=51.5&lon=-0.1&n=2&format=xlsx")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "nearest_") {
		t.Errorf("content disposition = %q", cd)
	}

	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Pubs")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d rows, want header + 2", len(rows))
	}
}

func TestHealth(t *testing.T) {
	w := get(t, newTestRouter(t), "/healthz")
	var body struct {
		OK   bool `json:"ok"`
		Rows int  `json:"rows"`
	}
	decode(t, w, &body)
	if !body.OK || body.Rows != 3 {
		t.Errorf("health = %+v", body)
	}
}
