package geocode

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
)

var ErrNoLocation = errors.New("geocode: no location found")

// Location is a resolved pair of coordinates.
type Location struct {
	Latitude  float64
	Longitude float64
}

// lookup is swapped out in tests.
var lookup = geocoder.Geocoding

// geocoder keeps its API key in a package variable.
var mu sync.Mutex

// Resolve turns a city and country into coordinates using the Google
// geocoding API.
func Resolve(apiKey, city, country string) (Location, error) {
	if city == "" {
		return Location{}, fmt.Errorf("geocode: city is required")
	}

	mu.Lock()
	geocoder.ApiKey = apiKey
	loc, err := lookup(geocoder.Address{City: city, Country: country})
	mu.Unlock()

	if err != nil {
		return Location{}, fmt.Errorf("geocode %s, %s: %w", city, country, err)
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return Location{}, fmt.Errorf("%w for %s, %s", ErrNoLocation, city, country)
	}
	return Location{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
}
