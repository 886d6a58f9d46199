// Package handlers exposes the dataset queries over HTTP as JSON, with an
// optional .xlsx download for the row-returning views.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"open-pubs/internal/excel"
	"open-pubs/internal/metrics"
	"open-pubs/internal/models"
	"open-pubs/internal/pubs"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Store is the read-only query surface the handlers need.
type Store interface {
	Len() int
	Summarize(topAuthorities, topPostcodes int) models.Summary
	FilterByArea(kind models.AreaKind, value string) (models.AreaResult, error)
	Nearest(lat, lon float64, n int) ([]models.Neighbor, error)
	WithinRadius(lat, lon, radiusKm float64) ([]models.Neighbor, error)
}

type Handler struct {
	store Store
	log   *slog.Logger
}

func New(store Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.GET("/summary", h.Summary)
	api.GET("/area", h.Area)
	api.GET("/nearest", h.Nearest)
	api.GET("/radius", h.Radius)
}

// paramError marks a malformed request parameter.
type paramError struct {
	name string
	err  error
}

func (e *paramError) Error() string {
	if e.err == nil {
		return e.name + " is required"
	}
	return fmt.Sprintf("invalid %s: %v", e.name, e.err)
}

func queryFloat(c *gin.Context, name string) (float64, error) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		return 0, &paramError{name: name}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &paramError{name: name, err: err}
	}
	return v, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &paramError{name: name, err: err}
	}
	return v, nil
}

func (h *Handler) fail(c *gin.Context, query string, err error) {
	status := http.StatusInternalServerError
	var pe *paramError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, pubs.ErrInvalidAreaKind),
		errors.Is(err, pubs.ErrInvalidCoordinate),
		errors.Is(err, pubs.ErrInvalidRadius):
		status = http.StatusBadRequest
	}
	h.log.Debug("query_rejected", "query", query, "status", status, "err", err)
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}

func wantsXLSX(c *gin.Context) bool {
	return strings.EqualFold(c.Query("format"), "xlsx")
}

func attachmentName(view string) string {
	return fmt.Sprintf("%s_%s.xlsx", view, uuid.New().String())
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": h.store.Len()})
}

func (h *Handler) Summary(c *gin.Context) {
	start := time.Now()
	topAuthorities, err := queryInt(c, "top_authorities", pubs.DefaultTopAuthorities)
	if err != nil {
		metrics.Observe("summary", start, 0, err)
		h.fail(c, "summary", err)
		return
	}
	topPostcodes, err := queryInt(c, "top_postcodes", pubs.DefaultTopPostcodes)
	if err != nil {
		metrics.Observe("summary", start, 0, err)
		h.fail(c, "summary", err)
		return
	}

	sum := h.store.Summarize(topAuthorities, topPostcodes)
	metrics.Observe("summary", start, sum.Rows, nil)
	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": sum})
}

// Area looks pubs up by postcode or local authority. The value is trimmed
// like the search box it comes from, then matched exactly.
func (h *Handler) Area(c *gin.Context) {
	start := time.Now()
	kind, err := models.ParseAreaKind(c.Query("kind"))
	if err != nil {
		metrics.Observe("area", start, 0, err)
		h.fail(c, "area", err)
		return
	}
	value := strings.TrimSpace(c.Query("value"))

	res, err := h.store.FilterByArea(kind, value)
	metrics.Observe("area", start, res.Count, err)
	if err != nil {
		h.fail(c, "area", err)
		return
	}

	if wantsXLSX(c) {
		h.writeXLSX(c, "area", func(c *gin.Context) error {
			return excel.WritePubs(c.Writer, res.Pubs, "Pubs")
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": fmt.Sprintf("%d open pubs found in the %s - %s", res.Count, kind, value),
		"result":  res,
	})
}

func (h *Handler) Nearest(c *gin.Context) {
	start := time.Now()
	rows, err := h.neighbors(c, func(lat, lon float64) ([]models.Neighbor, error) {
		n, err := queryInt(c, "n", pubs.DefaultNearestCount)
		if err != nil {
			return nil, err
		}
		return h.store.Nearest(lat, lon, n)
	})
	metrics.Observe("nearest", start, len(rows), err)
	if err != nil {
		h.fail(c, "nearest", err)
		return
	}
	h.respondNeighbors(c, "nearest", rows)
}

func (h *Handler) Radius(c *gin.Context) {
	start := time.Now()
	rows, err := h.neighbors(c, func(lat, lon float64) ([]models.Neighbor, error) {
		km, err := queryFloat(c, "km")
		if err != nil {
			return nil, err
		}
		return h.store.WithinRadius(lat, lon, km)
	})
	metrics.Observe("radius", start, len(rows), err)
	if err != nil {
		h.fail(c, "radius", err)
		return
	}
	h.respondNeighbors(c, "radius", rows)
}

func (h *Handler) neighbors(c *gin.Context, query func(lat, lon float64) ([]models.Neighbor, error)) ([]models.Neighbor, error) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		return nil, err
	}
	lon, err := queryFloat(c, "lon")
	if err != nil {
		return nil, err
	}
	return query(lat, lon)
}

func (h *Handler) respondNeighbors(c *gin.Context, view string, rows []models.Neighbor) {
	if wantsXLSX(c) {
		h.writeXLSX(c, view, func(c *gin.Context) error {
			return excel.WriteNeighbors(c.Writer, rows, "Pubs")
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(rows), "pubs": rows})
}

func (h *Handler) writeXLSX(c *gin.Context, view string, write func(c *gin.Context) error) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachmentName(view)))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := write(c); err != nil {
		// headers are already sent, nothing useful can go to the client
		h.log.Error("xlsx_write_error", "view", view, "err", err)
	}
}
