// Package model defines the value types shared across the sync pipeline.
package model

import (
	"github.com/rotisserie/eris"
)

// ErrInvalidInput indicates a malformed region code. It is returned before
// any network activity takes place.
var ErrInvalidInput = eris.New("invalid region code")

// ErrUnresolvableRegion indicates that no configuration entry, geocoding
// result, or fallback table entry exists for the region code.
var ErrUnresolvableRegion = eris.New("unresolvable region")

// ValidateZip checks that zip is a well-formed 5-digit ZIP code.
func ValidateZip(zip string) error {
	if len(zip) != 5 {
		return eris.Wrapf(ErrInvalidInput, "%q is not a 5-digit zip code", zip)
	}
	for _, ch := range zip {
		if ch < '0' || ch > '9' {
			return eris.Wrapf(ErrInvalidInput, "%q is not a 5-digit zip code", zip)
		}
	}
	return nil
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
