package discovery

import (
	"sort"

	"github.com/thewillhuang/middleman/internal/marketplace/timeutil"
	"github.com/thewillhuang/middleman/internal/models"
)

// RankedTask is a task together with its distance from the query point.
type RankedTask struct {
	Task     models.Task
	Distance float64
}

// Edge wraps a node and its cursor.
type Edge struct {
	Cursor   string      `json:"cursor"`
	Node     models.Task `json:"node"`
	Distance float64     `json:"distanceMeters"`
}

type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

// Connection is a page of tasks in (distance, createdAt, id) order.
type Connection struct {
	Edges      []Edge   `json:"edges"`
	TotalCount int      `json:"totalCount"`
	PageInfo   PageInfo `json:"pageInfo"`
}

// CursorFor builds the cursor of a ranked task for query q.
func CursorFor(q Query, rt RankedTask) Cursor {
	return Cursor{
		QueryLon:  q.Point.Lon,
		QueryLat:  q.Point.Lat,
		Distance:  rt.Distance,
		CreatedAt: timeutil.ToMicros(rt.Task.CreatedAt),
		ID:        rt.Task.ID,
	}
}

// Build assembles a connection. rows are put in discovery order and anything at
// or before q.After is dropped. One element beyond q.First only signals that
// another page exists.
func Build(q Query, rows []RankedTask, total int) Connection {
	rows = ordered(q, rows)
	conn := Connection{Edges: make([]Edge, 0, len(rows)), TotalCount: total}
	if len(rows) > q.First {
		rows = rows[:q.First]
		conn.PageInfo.HasNextPage = true
	}
	for _, rt := range rows {
		conn.Edges = append(conn.Edges, Edge{
			Cursor:   CursorFor(q, rt).Encode(),
			Node:     rt.Task,
			Distance: rt.Distance,
		})
	}
	if n := len(conn.Edges); n > 0 {
		end := conn.Edges[n-1].Cursor
		conn.PageInfo.EndCursor = &end
	}
	return conn
}

func ordered(q Query, rows []RankedTask) []RankedTask {
	out := make([]RankedTask, 0, len(rows))
	for _, rt := range rows {
		if q.After == nil || q.After.After(rt) {
			out = append(out, rt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Less reports whether a sorts before b in discovery order.
func Less(a, b RankedTask) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if !a.Task.CreatedAt.Equal(b.Task.CreatedAt) {
		return a.Task.CreatedAt.Before(b.Task.CreatedAt)
	}
	return a.Task.ID < b.Task.ID
}

// After reports whether rt sorts strictly after the cursor position.
func (c Cursor) After(rt RankedTask) bool {
	if rt.Distance != c.Distance {
		return rt.Distance > c.Distance
	}
	created := timeutil.ToMicros(rt.Task.CreatedAt)
	if created != c.CreatedAt {
		return created > c.CreatedAt
	}
	return rt.Task.ID > c.ID
}
