package domain

// Geographic position of a collection point, in degrees.
type Coordinates struct {
	Lon float64
	Lat float64
}
