package discovery

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/thewillhuang/middleman/internal/models"
)

const cursorVersion = 1

// Cursor is the decoded form of an edge cursor. It carries the sort key of the
// node it points at plus the query point the key was computed for.
type Cursor struct {
	Version   int     `json:"v"`
	QueryLon  float64 `json:"lon"`
	QueryLat  float64 `json:"lat"`
	Distance  float64 `json:"d"`
	CreatedAt int64   `json:"t"`
	ID        string  `json:"id"`
}

// Encode returns the opaque string form of c.
func (c Cursor) Encode() string {
	c.Version = cursorVersion
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque cursor.
func DecodeCursor(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", models.ErrValidation)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", models.ErrValidation)
	}
	if c.Version != cursorVersion || c.ID == "" {
		return Cursor{}, fmt.Errorf("%w: unsupported cursor", models.ErrValidation)
	}
	return c, nil
}

// matches reports whether the cursor was issued for the given query point.
func (c Cursor) matches(p GeoPoint) bool {
	return c.QueryLon == p.Lon && c.QueryLat == p.Lat
}
