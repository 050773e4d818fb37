// Package codec encodes ecs.Entity handles into sortable byte keys for
// use as BadgerDB keys. An Entity is a fixed 8-byte (index, generation)
// pair, so a plain big-endian encoding is lexicographically sortable by
// index-then-generation.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/wbrown/ecsquery/ecs"
)

// EntityKeyLen is the fixed width of an encoded entity key.
const EntityKeyLen = 8

// EncodeEntity renders e as an 8-byte big-endian (index, generation) key.
func EncodeEntity(e ecs.Entity) [EntityKeyLen]byte {
	var buf [EntityKeyLen]byte
	binary.BigEndian.PutUint32(buf[0:4], e.Index)
	binary.BigEndian.PutUint32(buf[4:8], e.Generation)
	return buf
}

// DecodeEntity parses an entity key produced by EncodeEntity.
func DecodeEntity(buf []byte) (ecs.Entity, error) {
	if len(buf) != EntityKeyLen {
		return ecs.Entity{}, fmt.Errorf("codec: entity key must be %d bytes, got %d", EntityKeyLen, len(buf))
	}
	return ecs.NewEntity(binary.BigEndian.Uint32(buf[0:4]), binary.BigEndian.Uint32(buf[4:8])), nil
}
