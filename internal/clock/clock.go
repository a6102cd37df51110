package clock

import "time"

// Zone is the single civil timezone every temporal comparison uses.
// All dates and hours in the system are interpreted in it.
var Zone = mustLoad("America/Bogota")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("load timezone " + name + ": " + err.Error())
	}
	return loc
}

// Clock supplies "now" so temporal guards are testable.
type Clock interface {
	Now() time.Time
}

// System is the real clock, pinned to Zone.
type System struct{}

func (System) Now() time.Time { return time.Now().In(Zone) }

// Fixed always returns the same instant. For tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T.In(Zone) }

// At builds a Fixed clock from civil date/time components in Zone.
func At(year int, month time.Month, day, hour, min int) Fixed {
	return Fixed{T: time.Date(year, month, day, hour, min, 0, 0, Zone)}
}
