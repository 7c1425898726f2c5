// README: Shared identifiers and coordinates.
package types

type ID string

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
