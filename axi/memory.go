// Package axi models the memory behind an AXI master: a byte-addressed
// storage with word access and per-channel backpressure.
package axi

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Channel identifies an AXI channel.
type Channel int

// AXI channels.
const (
	AW Channel = iota
	W
	B
	AR
	R
	numChannels
)

func (c Channel) String() string {
	switch c {
	case AW:
		return "aw"
	case W:
		return "w"
	case B:
		return "b"
	case AR:
		return "ar"
	case R:
		return "r"
	default:
		return "unknown"
	}
}

// A Memory is the slave side of an AXI bus.
type Memory struct {
	storage *Storage
	pauses  [numChannels]PauseGenerator
}

// NewMemory creates a memory of size bytes.
func NewMemory(size uint64) *Memory {
	return &Memory{storage: NewStorage(size)}
}

// Size returns the size of the memory in bytes.
func (m *Memory) Size() uint64 {
	return m.storage.Capacity()
}

// SetPauseGenerator sets the backpressure of a channel. A nil generator
// never pauses.
func (m *Memory) SetPauseGenerator(c Channel, g PauseGenerator) {
	m.pauses[c] = g
}

// Accept reports whether the channel accepts a beat in this cycle. It
// advances the pause generator of the channel.
func (m *Memory) Accept(c Channel) bool {
	g := m.pauses[c]
	if g == nil {
		return true
	}

	return !g.Pause()
}

// WriteWords stores values as consecutive words of wordSize bytes.
func (m *Memory) WriteWords(
	base uint64,
	values []uint64,
	order binary.ByteOrder,
	wordSize int,
) error {
	if err := checkWordSize(wordSize); err != nil {
		return err
	}

	buf := make([]byte, len(values)*wordSize)
	for i, v := range values {
		encodeWord(buf[i*wordSize:(i+1)*wordSize], v, order)
	}

	return m.storage.Write(base, buf)
}

// ReadWords loads count consecutive words of wordSize bytes.
func (m *Memory) ReadWords(
	base uint64,
	count int,
	order binary.ByteOrder,
	wordSize int,
) ([]uint64, error) {
	if err := checkWordSize(wordSize); err != nil {
		return nil, err
	}

	buf, err := m.storage.Read(base, uint64(count*wordSize))
	if err != nil {
		return nil, err
	}

	values := make([]uint64, count)
	for i := range values {
		values[i] = decodeWord(buf[i*wordSize:(i+1)*wordSize], order)
	}

	return values, nil
}

func checkWordSize(wordSize int) error {
	if wordSize < 1 || wordSize > 8 {
		return errors.Errorf("invalid word size %d", wordSize)
	}

	return nil
}

func encodeWord(dst []byte, v uint64, order binary.ByteOrder) {
	var full [8]byte
	order.PutUint64(full[:], v)

	if order == binary.BigEndian {
		copy(dst, full[8-len(dst):])
		return
	}

	copy(dst, full[:len(dst)])
}

func decodeWord(src []byte, order binary.ByteOrder) uint64 {
	var full [8]byte

	if order == binary.BigEndian {
		copy(full[8-len(src):], src)
	} else {
		copy(full[:], src)
	}

	return order.Uint64(full[:])
}
