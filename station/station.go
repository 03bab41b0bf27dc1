// Package station holds the bike-share docking stations referenced by trips.
package station

// PlaceholderName is stored when a source row carries a station id without a name.
const PlaceholderName = "Unknown Station"

// Station is a docking station as first seen in the trip extracts.
type Station struct {
	// ID is the operator's station identifier (e.g. "SF-G27"). It is the natural key.
	ID string `db:"station_id"`
	// Name is the display name. Never empty; see PlaceholderName.
	Name string `db:"name"`

	Latitude  *float64 `db:"latitude"`
	Longitude *float64 `db:"longitude"`
}

// New builds a Station, falling back to PlaceholderName when name is empty.
func New(id, name string, lat, lng *float64) Station {
	if name == "" {
		name = PlaceholderName
	}
	return Station{
		ID:        id,
		Name:      name,
		Latitude:  lat,
		Longitude: lng,
	}
}
