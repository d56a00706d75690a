// Package sccb models the two-wire Serial Camera Control Bus used to
// configure the image sensor: the transaction format, the bit-exact pin
// waveform, a decoder that rebuilds transactions from pin activity and a
// driver for the parallel input of an SCCB master.
package sccb

import (
	"fmt"
	"math/rand"
)

// Field widths of a 3-phase write transaction.
const (
	IDAddressWidth  = 7
	SubAddressWidth = 8
	DataWidth       = 8
)

// Transaction is a 3-phase write.
type Transaction struct {
	IDAddress  uint8
	SubAddress uint8
	Data       uint8
}

// Randomise draws every field uniformly over its width.
func (t *Transaction) Randomise(rng *rand.Rand) {
	t.IDAddress = uint8(rng.Intn(1 << IDAddressWidth))
	t.SubAddress = uint8(rng.Intn(1 << SubAddressWidth))
	t.Data = uint8(rng.Intn(1 << DataWidth))
}

// Value returns a field by name. The names match the parallel input ports
// of the master.
func (t Transaction) Value(name string) (uint64, bool) {
	switch name {
	case "id_address":
		return uint64(t.IDAddress), true
	case "sub_address":
		return uint64(t.SubAddress), true
	case "data":
		return uint64(t.Data), true
	default:
		return 0, false
	}
}

func (t Transaction) String() string {
	return fmt.Sprintf("{id_address: 0x%02x, sub_address: 0x%02x, data: 0x%02x}",
		t.IDAddress, t.SubAddress, t.Data)
}
