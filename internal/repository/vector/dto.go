package vector

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

// encodeRecord serializes a record as a little-endian uint32 dimension header
// followed by the float32 values (4 bytes each).
func encodeRecord(rec domain.VectorRecord) string {
	buf := make([]byte, 4+len(rec.Embedding)*4)
	binary.LittleEndian.PutUint32(buf, uint32(rec.Dimension)) //nolint:gosec // dimension validated positive
	for i, f := range rec.Embedding {
		binary.LittleEndian.PutUint32(buf[4+i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// decodeRecord is the inverse of encodeRecord. The header must agree with the payload length.
func decodeRecord(id, s string) (domain.VectorRecord, error) {
	b := []byte(s)
	if len(b) < 4 {
		return domain.VectorRecord{}, fmt.Errorf("record too short: %d bytes", len(b))
	}
	dim := int(binary.LittleEndian.Uint32(b))
	if dim == 0 || len(b)-4 != dim*4 {
		return domain.VectorRecord{}, fmt.Errorf("header dim %d does not match payload of %d bytes", dim, len(b)-4)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4+i*4:]))
	}
	return domain.VectorRecord{EntityID: id, Embedding: vec, Dimension: dim}, nil
}
