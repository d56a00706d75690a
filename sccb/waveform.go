package sccb

// Pins is the level of SIO_C and SIO_D during one quarter bit period.
type Pins struct {
	C, D uint64
}

// Idle is the level of both lines between transactions.
var Idle = Pins{C: 1, D: 1}

// BitsPerPhase is the number of clocks of one phase. The last one is the
// don't-care acknowledge slot.
const BitsPerPhase = 9

// Waveform returns the pin sequence that transmits t, one entry per quarter
// bit period. It starts and ends idle. The read flag sets the R/W bit of the
// ID phase.
//
// START pulls SIO_D low while SIO_C is high, then pulls SIO_C low. Every bit
// is put on SIO_D while SIO_C is low and is sampled on the rising SIO_C.
// STOP raises SIO_C and then SIO_D.
func Waveform(t Transaction, read bool) []Pins {
	rw := uint64(0)
	if read {
		rw = 1
	}

	phases := []uint64{
		uint64(t.IDAddress)<<1 | rw,
		uint64(t.SubAddress),
		uint64(t.Data),
	}

	w := []Pins{Idle, {C: 1, D: 0}, {C: 0, D: 0}}

	for _, phase := range phases {
		for i := 0; i < BitsPerPhase; i++ {
			bit := uint64(0)
			if i < 8 {
				bit = (phase >> (7 - i)) & 1
			}

			w = append(w,
				Pins{C: 0, D: bit},
				Pins{C: 1, D: bit},
				Pins{C: 0, D: bit})
		}
	}

	w = append(w, Pins{C: 0, D: 0}, Pins{C: 1, D: 0}, Idle)

	return w
}
