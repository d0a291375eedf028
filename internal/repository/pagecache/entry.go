package pagecache

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

const headerSize = 8

// Entry is one cached page payload with its absolute expiry.
type Entry struct {
	Key       domain.PageKey
	Payload   []byte
	ExpiresAt time.Time
}

// encodeEntry lays out the expiry as little-endian unix nanoseconds followed by the raw payload.
func encodeEntry(e Entry) []byte {
	buf := make([]byte, headerSize+len(e.Payload))
	binary.LittleEndian.PutUint64(buf, uint64(e.ExpiresAt.UnixNano())) //nolint:gosec // post-1970 timestamps
	copy(buf[headerSize:], e.Payload)
	return buf
}

func decodeEntry(key domain.PageKey, data []byte) (Entry, error) {
	if len(data) < headerSize {
		return Entry{}, fmt.Errorf("entry too short: %d bytes", len(data))
	}
	nanos := int64(binary.LittleEndian.Uint64(data)) //nolint:gosec // round-trips encodeEntry
	payload := make([]byte, len(data)-headerSize)
	copy(payload, data[headerSize:])
	return Entry{Key: key, Payload: payload, ExpiresAt: time.Unix(0, nanos)}, nil
}
