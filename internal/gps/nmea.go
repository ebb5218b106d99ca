package gps

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/compass_nav/internal/upstream"
)

const (
	knotsToMPS = 0.514444

	// Rough user-equivalent range error used to turn HDOP into meters.
	hdopToMeters = 5.0
)

// Assembler accumulates NMEA sentences into fixes. GGA contributes the
// accuracy estimate; every RMC completes one Fix.
type Assembler struct {
	hdop     float64
	haveHDOP bool
}

// Feed parses one NMEA line. It returns ok=true when the line completed a
// fix. Lines that are not NMEA, or sentence types we do not use, return
// ok=false and no error. A void RMC is reported as position-unavailable.
func (a *Assembler) Feed(line string) (Fix, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return Fix{}, false, nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return Fix{}, false, fmt.Errorf("nmea parse: %w", err)
	}

	switch sentence.DataType() {
	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		if m.FixQuality == nmea.Invalid {
			a.haveHDOP = false
			return Fix{}, false, nil
		}
		a.hdop = m.HDOP
		a.haveHDOP = true
		return Fix{}, false, nil

	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		if m.Validity != nmea.ValidRMC {
			return Fix{}, false, upstream.New(upstream.SourcePosition, upstream.PositionUnavailable,
				"receiver reports void fix at %s", m.Time)
		}
		f := Fix{
			Time:      m.Time.String(),
			Date:      m.Date.String(),
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
			CourseDeg: Float(m.Course),
			SpeedMPS:  Float(m.Speed * knotsToMPS),
			Validity:  m.Validity,
		}
		if a.haveHDOP {
			f.AccuracyM = a.hdop * hdopToMeters
		}
		return f, true, nil

	default:
		// GSA, GSV, VTG and friends carry nothing the tracker needs
		return Fix{}, false, nil
	}
}
