package lower

import (
	"encoding/binary"
	"math"
)

func u16b(v int) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return b
}

func u8b(v int) []byte { return []byte{byte(v)} }

func i32b(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func f64b(v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}

func instrBytes(op Op, operands ...[]byte) []byte {
	out := []byte{byte(op)}
	for _, o := range operands {
		out = append(out, o...)
	}
	return out
}

func concat(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// testResolver is a minimal in-memory Resolver for tests; it ignores
// IdentKind since no fixture here reuses the same numeric id across
// different kinds.
type testResolver map[int]string

func (r testResolver) Resolve(kind IdentKind, id int) (string, bool) {
	s, ok := r[id]
	return s, ok
}
