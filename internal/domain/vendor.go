package domain

import "math"

const MaxRating = 5

type Vendor struct {
	ID          ID     `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Address     string `json:"direccion"`
	Phone       string `json:"telefono,omitempty"`
	Email       string `json:"email,omitempty"`
	Website     string `json:"sitio_web,omitempty"`
	Logo        string `json:"logo"`
	Banner      string `json:"banner"`
	Rating      Number `json:"calificacion"`
}

// Stars splits the rating into full, half and empty stars out of MaxRating.
// A fractional part of .5 or more counts as a half star.
func (v Vendor) Stars() (full, half, empty int) {
	r := math.Max(0, math.Min(MaxRating, v.Rating.Float64()))
	full = int(math.Floor(r))
	if full < MaxRating && r-float64(full) >= 0.5 {
		half = 1
	}
	empty = MaxRating - full - half
	return full, half, empty
}

// MapVendor is a vendor listing with its pin position.
type MapVendor struct {
	Vendor
	Latitude  Number `json:"latitude"`
	Longitude Number `json:"longitude"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Region is the visible map window.
type Region struct {
	Coordinates
	LatitudeDelta  float64 `json:"latitude_delta"`
	LongitudeDelta float64 `json:"longitude_delta"`
}

const (
	DefaultLatitudeDelta  = 0.0922
	DefaultLongitudeDelta = 0.0421
)

// DefaultRegion is shown before any vendor or user position is known.
var DefaultRegion = RegionAround(Coordinates{Latitude: 19.7028, Longitude: -101.1924})

func RegionAround(c Coordinates) Region {
	return Region{
		Coordinates:    c,
		LatitudeDelta:  DefaultLatitudeDelta,
		LongitudeDelta: DefaultLongitudeDelta,
	}
}

func (m MapVendor) Position() Coordinates {
	return Coordinates{Latitude: m.Latitude.Float64(), Longitude: m.Longitude.Float64()}
}
