package models

const (
	StatusOK           = "OK"
	StatusUnknownError = "UNKNOWN_ERROR"

	// FailedAltitude is the legacy marker for a lookup that produced no value.
	FailedAltitude = -1
)

// AltitudeReading is the outcome of one elevation provider lookup.
// Altitude is nil when the provider returned no usable elevation.
type AltitudeReading struct {
	Altitude *float64
	Status   string
}

// Usable reports whether the reading carries an altitude worth keeping.
func (r AltitudeReading) Usable() bool {
	return r.Altitude != nil && *r.Altitude != FailedAltitude
}

// FailedReading is returned whenever the provider could not be queried or understood.
func FailedReading() AltitudeReading {
	return AltitudeReading{Status: StatusUnknownError}
}
