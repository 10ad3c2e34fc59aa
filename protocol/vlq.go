package protocol

import "errors"

var ErrInvalidVLQ = errors.New("truncated VLQ value")

// AppendVLQUint appends v as a variable-length quantity: big-endian
// 7-bit groups, the high bit marking continuation. Values with the top
// bits all set or all clear encode short, so small magnitudes of either
// sign stay compact.
func AppendVLQUint(buf []byte, v uint32) []byte {
	sv := int32(v)
	if !(-(1<<26) <= sv && sv < (3<<26)) {
		buf = append(buf, byte((v>>28)&0x7F)|0x80)
	}
	if !(-(1<<19) <= sv && sv < (3<<19)) {
		buf = append(buf, byte((v>>21)&0x7F)|0x80)
	}
	if !(-(1<<12) <= sv && sv < (3<<12)) {
		buf = append(buf, byte((v>>14)&0x7F)|0x80)
	}
	if !(-(1<<5) <= sv && sv < (3<<5)) {
		buf = append(buf, byte((v>>7)&0x7F)|0x80)
	}
	return append(buf, byte(v&0x7F))
}

// DecodeVLQUint decodes one VLQ value from data, returning the value and
// the remaining bytes.
func DecodeVLQUint(data []byte) (uint32, []byte, error) {
	if len(data) == 0 {
		return 0, nil, ErrInvalidVLQ
	}
	c := uint32(data[0])
	data = data[1:]

	v := c & 0x7F
	if c&0x60 == 0x60 {
		// Negative first group: sign-extend.
		v |= ^uint32(0x1F)
	}
	for c&0x80 != 0 {
		if len(data) == 0 {
			return 0, nil, ErrInvalidVLQ
		}
		c = uint32(data[0])
		data = data[1:]
		v = v<<7 | c&0x7F
	}
	return v, data, nil
}
