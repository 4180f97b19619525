package table

import "encoding/binary"

func encodeRef(v uint32) []byte {
	b := make([]byte, sliceKeySize)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func decodeRef(key []byte) uint32 { return binary.LittleEndian.Uint32(key) }
