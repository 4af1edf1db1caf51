// Package cluster implements the cluster router: hash-slot key routing,
// topology discovery and its copy-on-write slot map, a per-endpoint
// connection cache, and MOVED/ASK redirection handling.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cluster

import "github.com/aistorehq/vkclient/cmn/cos"

// NumSlots is the fixed size of the cluster hash-slot space (§4.4 Slot
// computation).
const NumSlots = 16384

// crc16Table is the CRC-16/XMODEM table: polynomial x^16+x^12+x^5+1
// (0x1021), initial value 0, no final XOR, no reflection — the variant
// Redis/Valkey cluster routing uses (not CRC-16/CCITT-FALSE, which
// shares the polynomial but starts from init 0xFFFF and so produces a
// different slot assignment). The exact polynomial and parameters are
// load-bearing: any other CRC-16 variant routes keys to the wrong slot
// against a real cluster.
var crc16Table = buildCRC16Table(0x1021)

func buildCRC16Table(poly uint16) [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = (crc << 8) ^ crc16Table[byte(crc>>8)^b]
	}
	return crc
}

// KeySlot computes the hash slot (0..NumSlots-1) a key routes to, applying
// the hash-tag rule: if key contains a "{...}" substring with a non-empty
// interior, only the bytes between the first '{' and the next '}' are
// hashed, so multiple keys sharing a tag always land on the same slot
// (§4.4 Slot computation, §8 Slot determinism).
func KeySlot(key string) uint16 {
	tagged := hashTag(key)
	return uint16(crc16(cos.UnsafeB(tagged))) % NumSlots
}

// hashTag extracts the brace-tagged substring used for slot computation,
// or returns key unchanged if no valid tag is present.
func hashTag(key string) string {
	start := indexByte(key, '{')
	if start < 0 {
		return key
	}
	end := indexByte(key[start+1:], '}')
	if end < 0 {
		return key
	}
	if end == 0 {
		// "{}" - empty tag, not a hash tag per the rule
		return key
	}
	return key[start+1 : start+1+end]
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// Slots computes the distinct set of slots a batch of keys hashes to,
// used to detect cross-slot multi-key operations (§4.4 CrossSlot,
// §7 CrossSlotError).
func Slots(keys []string) []uint16 {
	seen := make(map[uint16]struct{}, len(keys))
	var out []uint16
	for _, k := range keys {
		s := KeySlot(k)
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
