package discovery

import (
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/thewillhuang/middleman/internal/models"
)

func intPtr(v int) *int { return &v }

func TestHaversine(t *testing.T) {
	// Almaty to Astana is roughly 970 km.
	d := HaversineMeters(76.9286, 43.2567, 71.4491, 51.1694)
	if math.Abs(d-970000) > 15000 {
		t.Fatalf("unexpected distance %.0f", d)
	}
	if HaversineMeters(10, 10, 10, 10) != 0 {
		t.Fatalf("distance to self must be zero")
	}
	p := GeoPoint{Lon: 0, Lat: 0}
	if got := p.DistanceTo(GeoPoint{Lon: 180, Lat: 0}); math.Abs(got-math.Pi*EarthRadiusMeters) > 1 {
		t.Fatalf("antipodal distance %.0f", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{QueryLon: 1.5, QueryLat: -2.25, Distance: 1234.5678901234, CreatedAt: 1700000000123456, ID: "abc"}
	decoded, err := DecodeCursor(c.Encode())
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	c.Version = cursorVersion
	if decoded != c {
		t.Fatalf("expected %+v, got %+v", c, decoded)
	}
	for _, bad := range []string{"!!", "bm90LWpzb24", Cursor{}.Encode()} {
		if _, err := DecodeCursor(bad); !errors.Is(err, models.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
}

func TestNewQueryDefaults(t *testing.T) {
	q, err := NewQuery(Params{Longitude: 1, Latitude: 2, Categories: []string{"car_wash", " CAR_WASH ", "", "delivery"}}, Limits{})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	if q.First != DefaultPageSize {
		t.Fatalf("expected default page size, got %d", q.First)
	}
	if len(q.Categories) != 2 || q.Categories[0] != "CAR_WASH" || q.Categories[1] != "DELIVERY" {
		t.Fatalf("unexpected categories %v", q.Categories)
	}

	q, err = NewQuery(Params{First: intPtr(10000)}, Limits{DefaultPageSize: 5, MaxPageSize: 20})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	if q.First != 20 {
		t.Fatalf("expected clamp to 20, got %d", q.First)
	}
}

func TestNewQueryValidation(t *testing.T) {
	other := Cursor{QueryLon: 9, QueryLat: 9, ID: "x"}.Encode()
	cases := map[string]Params{
		"negative first":  {First: intPtr(-1)},
		"nan longitude":   {Longitude: math.NaN()},
		"inf latitude":    {Latitude: math.Inf(1)},
		"bad category":    {Categories: []string{"car wash"}},
		"bad status":      {Statuses: []string{"DONE"}},
		"negative radius": {RadiusMeters: -5},
		"foreign cursor":  {After: other},
		"garbage cursor":  {After: "%%%"},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewQuery(p, Limits{}); !errors.Is(err, models.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func rankedFixture() []RankedTask {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []RankedTask{
		{Task: models.Task{ID: "c", CreatedAt: base}, Distance: 10},
		{Task: models.Task{ID: "a", CreatedAt: base}, Distance: 10},
		{Task: models.Task{ID: "b", CreatedAt: base.Add(-time.Second)}, Distance: 10},
		{Task: models.Task{ID: "d", CreatedAt: base}, Distance: 5},
	}
}

func TestOrderingIsTotal(t *testing.T) {
	rows := rankedFixture()
	sort.Slice(rows, func(i, j int) bool { return Less(rows[i], rows[j]) })
	want := []string{"d", "b", "a", "c"}
	for i, id := range want {
		if rows[i].Task.ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, rows[i].Task.ID)
		}
	}
}

func TestBuildPagesChainByCursor(t *testing.T) {
	rows := rankedFixture()
	sort.Slice(rows, func(i, j int) bool { return Less(rows[i], rows[j]) })

	full, err := NewQuery(Params{}, Limits{})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	all := Build(full, rows, len(rows))
	if all.PageInfo.HasNextPage || len(all.Edges) != 4 || all.TotalCount != 4 {
		t.Fatalf("unexpected full page %+v", all.PageInfo)
	}

	first, err := NewQuery(Params{First: intPtr(1), After: all.Edges[0].Cursor}, Limits{})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	var rest []RankedTask
	for _, rt := range rows {
		if first.After.After(rt) {
			rest = append(rest, rt)
		}
	}
	page := Build(first, rest, len(rows))
	if len(page.Edges) != 1 || !page.PageInfo.HasNextPage {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Edges[0].Cursor != all.Edges[1].Cursor {
		t.Fatalf("cursor chain broken: %s != %s", page.Edges[0].Cursor, all.Edges[1].Cursor)
	}
	if page.PageInfo.EndCursor == nil || *page.PageInfo.EndCursor != page.Edges[0].Cursor {
		t.Fatalf("end cursor mismatch")
	}

	zero, _ := NewQuery(Params{First: intPtr(0)}, Limits{})
	empty := Build(zero, rows[:1], len(rows))
	if len(empty.Edges) != 0 || empty.TotalCount != 4 || empty.PageInfo.EndCursor != nil {
		t.Fatalf("first=0 must return only the count, got %+v", empty)
	}
}

func TestBuildOrdersAndSkipsSeenRows(t *testing.T) {
	rows := rankedFixture()
	sorted := append([]RankedTask(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool { return Less(sorted[i], sorted[j]) })

	full, err := NewQuery(Params{}, Limits{})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	all := Build(full, rows, len(rows))
	for i, e := range all.Edges {
		if e.Node.ID != sorted[i].Task.ID {
			t.Fatalf("position %d: expected %s, got %s", i, sorted[i].Task.ID, e.Node.ID)
		}
	}

	next, err := NewQuery(Params{After: all.Edges[1].Cursor}, Limits{})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	page := Build(next, rows, len(rows))
	if len(page.Edges) != 2 || page.PageInfo.HasNextPage {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Edges[0].Node.ID != sorted[2].Task.ID || page.Edges[1].Node.ID != sorted[3].Task.ID {
		t.Fatalf("expected %s then %s, got %s then %s", sorted[2].Task.ID, sorted[3].Task.ID, page.Edges[0].Node.ID, page.Edges[1].Node.ID)
	}
	if rows[0].Task.ID != rankedFixture()[0].Task.ID {
		t.Fatalf("Build must not reorder the caller's rows")
	}
}
