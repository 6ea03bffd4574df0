package entity

import "errors"

// Dimension is a demographic axis along which the platform aggregates
// engaged-audience interactions.
type Dimension string

const (
	DimensionCountry Dimension = "country"
	DimensionCity    Dimension = "city"
	DimensionAge     Dimension = "age"
)

// Valid reports whether d names a supported breakdown dimension.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionCountry, DimensionCity, DimensionAge:
		return true
	}
	return false
}

// Bucket is one row of a demographic breakdown: a dimension label (country
// name, city name or age range) and its interaction count. The stored set
// for a dimension is fully replaced on each successful fetch that returns
// non-empty results; an empty fetch leaves prior rows untouched.
type Bucket struct {
	AccountID        string    `json:"account_id"`
	Dimension        Dimension `json:"dimension"`
	Label            string    `json:"label"`
	InteractionCount int       `json:"interaction_count"`
}

// ErrUnknownDimension marks a breakdown request for a dimension the
// platform does not report.
var ErrUnknownDimension = errors.New("unknown breakdown dimension")
