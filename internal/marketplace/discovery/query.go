package discovery

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/thewillhuang/middleman/internal/models"
)

// Paging limits applied when the caller does not provide its own.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

var categoryPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,63}$`)

// Params are the raw listTasks arguments.
type Params struct {
	Longitude    float64
	Latitude     float64
	Categories   []string
	Statuses     []string
	First        *int
	After        string
	RadiusMeters float64
}

// Limits bounds the page size.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Query is a validated search ready for the task store.
type Query struct {
	Point        GeoPoint
	Categories   []string
	Statuses     []models.TaskStatus
	RadiusMeters float64
	First        int
	After        *Cursor
}

// NormalizeCategory upper-cases and validates a task category.
func NormalizeCategory(raw string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if !categoryPattern.MatchString(c) {
		return "", fmt.Errorf("%w: invalid category %q", models.ErrValidation, raw)
	}
	return c, nil
}

// ValidCoordinate rejects NaN and infinite coordinates.
func ValidCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NewQuery validates params. An empty category or status list matches everything.
func NewQuery(p Params, limits Limits) (Query, error) {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = DefaultPageSize
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = MaxPageSize
	}
	if !ValidCoordinate(p.Longitude) || !ValidCoordinate(p.Latitude) {
		return Query{}, fmt.Errorf("%w: longitude and latitude must be finite", models.ErrValidation)
	}
	if !ValidCoordinate(p.RadiusMeters) || p.RadiusMeters < 0 {
		return Query{}, fmt.Errorf("%w: radius must be a non-negative number", models.ErrValidation)
	}

	q := Query{
		Point:        GeoPoint{Lon: p.Longitude, Lat: p.Latitude},
		RadiusMeters: p.RadiusMeters,
		First:        limits.DefaultPageSize,
	}

	seen := make(map[string]struct{}, len(p.Categories))
	for _, raw := range p.Categories {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		c, err := NormalizeCategory(raw)
		if err != nil {
			return Query{}, err
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		q.Categories = append(q.Categories, c)
	}
	sort.Strings(q.Categories)

	for _, raw := range p.Statuses {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		s, err := models.ParseTaskStatus(raw)
		if err != nil {
			return Query{}, err
		}
		q.Statuses = append(q.Statuses, s)
	}

	if p.First != nil {
		if *p.First < 0 {
			return Query{}, fmt.Errorf("%w: first must not be negative", models.ErrValidation)
		}
		q.First = *p.First
		if q.First > limits.MaxPageSize {
			q.First = limits.MaxPageSize
		}
	}

	if p.After != "" {
		c, err := DecodeCursor(p.After)
		if err != nil {
			return Query{}, err
		}
		if !c.matches(q.Point) {
			return Query{}, fmt.Errorf("%w: cursor belongs to a different search point", models.ErrValidation)
		}
		q.After = &c
	}
	return q, nil
}
