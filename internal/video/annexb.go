// Package video splits accumulated coded byte streams into access units and
// turns them into decoded pictures.
package video

import "bytes"

var naluStartCode = []byte{0x00, 0x00, 0x01}

// SplitNALUnits cuts an Annex-B byte stream into NAL units. Each returned
// unit aliases stream and keeps its leading start code (3- or 4-byte form).
// Bytes before the first start code are dropped.
func SplitNALUnits(stream []byte) [][]byte {
	var units [][]byte
	prev := -1

	for i := 0; i+len(naluStartCode) <= len(stream); {
		j := bytes.Index(stream[i:], naluStartCode)
		if j < 0 {
			break
		}
		pos := i + j

		// extend to the 4-byte start code form when present
		begin := pos
		if begin > 0 && stream[begin-1] == 0x00 {
			begin--
		}
		if prev >= 0 && begin > prev {
			units = append(units, stream[prev:begin])
		}
		prev = begin
		i = pos + len(naluStartCode)
	}

	if prev >= 0 && prev < len(stream) {
		units = append(units, stream[prev:])
	}
	return units
}

// NALType returns the nal_unit_type of an Annex-B unit, or 0 when the unit
// is too short to carry one.
func NALType(unit []byte) uint8 {
	i := bytes.Index(unit, naluStartCode)
	if i < 0 || i+len(naluStartCode) >= len(unit) {
		return 0
	}
	return unit[i+len(naluStartCode)] & 0x1f
}
