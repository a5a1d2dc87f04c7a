package byteutil

import (
	"encoding/binary"
)

// EncodeInt64ToBytes returns a big-endian key so that bolt cursors iterate ids in numeric order.
func EncodeInt64ToBytes(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func DecodeBytesToInt64(b []byte) int64 {
	if len(b) < 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}
