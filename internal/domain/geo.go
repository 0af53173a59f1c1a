package domain

// GeoPoint is a GeoJSON point; coordinates are [lon, lat].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewPoint builds a GeoJSON point.
func NewPoint(lon, lat float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

// Valid reports whether p holds a usable lon/lat pair.
func (p *GeoPoint) Valid() bool {
	if p == nil || len(p.Coordinates) != 2 {
		return false
	}
	lon, lat := p.Coordinates[0], p.Coordinates[1]
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

func (p *GeoPoint) Lon() float64 { return p.Coordinates[0] }
func (p *GeoPoint) Lat() float64 { return p.Coordinates[1] }
