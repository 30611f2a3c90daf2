package parking

import "errors"

var (
	ErrYardNotFound    = errors.New("yard not found")
	ErrSpotNotFound    = errors.New("spot not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrInvalidPlate    = errors.New("invalid plate")
	ErrAlreadyParked   = errors.New("vehicle already parked")
	ErrNotParked       = errors.New("vehicle not parked")
	ErrSpotUnavailable = errors.New("spot unavailable")
	ErrNoSpotAvailable = errors.New("no free spot available")
	ErrDuplicateID     = errors.New("id already registered")
	ErrDuplicatePlate  = errors.New("plate already registered")
)
