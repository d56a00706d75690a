package axi

import "github.com/pkg/errors"

// ErrOutOfRange is returned when accessing beyond the storage capacity.
var ErrOutOfRange = errors.New("accessing address beyond the storage capacity")

// A Storage holds the bytes of a memory.
//
// The storage is managed in units, similar to pages. Units that are never
// accessed are never allocated.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage of the given capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	return &Storage{
		unitSize: 4096,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the size of the storage in bytes.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) unit(addr uint64) []byte {
	base := addr - addr%s.unitSize

	u, ok := s.data[base]
	if !ok {
		u = make([]byte, s.unitSize)
		s.data[base] = u
	}

	return u
}

func (s *Storage) mustBeInRange(addr, length uint64) error {
	if addr+length > s.capacity || addr+length < addr {
		return errors.Wrapf(ErrOutOfRange,
			"[0x%x, 0x%x) of 0x%x", addr, addr+length, s.capacity)
	}

	return nil
}

// Read returns length bytes starting at addr.
func (s *Storage) Read(addr, length uint64) ([]byte, error) {
	if err := s.mustBeInRange(addr, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)
	for done := uint64(0); done < length; {
		curr := addr + done
		offset := curr % s.unitSize
		n := copy(res[done:], s.unit(curr)[offset:])
		done += uint64(n)
	}

	return res, nil
}

// Write stores data starting at addr.
func (s *Storage) Write(addr uint64, data []byte) error {
	if err := s.mustBeInRange(addr, uint64(len(data))); err != nil {
		return err
	}

	for done := 0; done < len(data); {
		curr := addr + uint64(done)
		offset := curr % s.unitSize
		done += copy(s.unit(curr)[offset:], data[done:])
	}

	return nil
}
