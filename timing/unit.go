package timing

import (
	"math"

	"github.com/pkg/errors"
)

// TimeUnit is a unit of simulated time, expressed in femtoseconds.
type TimeUnit uint64

// Supported time units.
const (
	FS TimeUnit = 1
	PS TimeUnit = 1000 * FS
	NS TimeUnit = 1000 * PS
	US TimeUnit = 1000 * NS
	MS TimeUnit = 1000 * US
	S  TimeUnit = 1000 * MS
)

// ErrTickPrecisionLoss is returned when a duration cannot be represented
// with the resolution of the kernel.
var ErrTickPrecisionLoss = errors.New("timing: duration finer than resolution")

// ErrTickOverflow is returned when a duration does not fit in VTimeInCycle.
var ErrTickOverflow = errors.New("timing: duration overflows the timeline")

// ParseTimeUnit converts a unit name such as "ns" to a TimeUnit.
func ParseTimeUnit(name string) (TimeUnit, error) {
	switch name {
	case "fs":
		return FS, nil
	case "ps":
		return PS, nil
	case "ns":
		return NS, nil
	case "us":
		return US, nil
	case "ms":
		return MS, nil
	case "s", "sec":
		return S, nil
	}

	return 0, errors.Errorf("timing: unknown time unit %q", name)
}

// String returns the short name of the unit.
func (u TimeUnit) String() string {
	switch u {
	case FS:
		return "fs"
	case PS:
		return "ps"
	case NS:
		return "ns"
	case US:
		return "us"
	case MS:
		return "ms"
	case S:
		return "s"
	}

	return "?"
}

// Steps converts value*unit into a number of steps of the given resolution.
func Steps(value float64, unit, resolution TimeUnit) (VTimeInCycle, error) {
	if value < 0 {
		return 0, errors.Errorf(
			"timing: negative durations are not supported: %g%s", value, unit)
	}

	scaled := value * float64(unit) / float64(resolution)
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > alignmentTolerance(scaled) {
		return 0, errors.Wrapf(ErrTickPrecisionLoss,
			"%g%s with resolution %s", value, unit, resolution)
	}

	if rounded > float64(math.MaxUint64) {
		return 0, ErrTickOverflow
	}

	return VTimeInCycle(rounded), nil
}

// ToUnit converts a number of steps back to a value in the given unit.
func ToUnit(t VTimeInCycle, unit, resolution TimeUnit) float64 {
	return float64(t) * float64(resolution) / float64(unit)
}

func alignmentTolerance(v float64) float64 {
	return math.Max(1e-9, math.Abs(v)*1e-12)
}
