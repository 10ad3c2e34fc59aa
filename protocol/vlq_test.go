package protocol

import "testing"

func TestVLQRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		value uint32
	}{
		{"zero", 0},
		{"one byte", 31},
		{"two bytes", 300},
		{"tick small", 48_000},
		{"tick large", 120_000_000},
		{"max", 0xFFFFFFFF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := AppendVLQUint(nil, tc.value)
			got, rest, err := DecodeVLQUint(buf)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tc.value {
				t.Errorf("round trip %d -> %d", tc.value, got)
			}
			if len(rest) != 0 {
				t.Errorf("decode left %d bytes", len(rest))
			}
		})
	}
}

func TestVLQDecodeConsumesExactly(t *testing.T) {
	buf := AppendVLQUint(nil, 1234)
	buf = AppendVLQUint(buf, 5)
	v1, rest, err := DecodeVLQUint(buf)
	if err != nil {
		t.Fatalf("decode first: %v", err)
	}
	v2, rest, err := DecodeVLQUint(rest)
	if err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if v1 != 1234 || v2 != 5 || len(rest) != 0 {
		t.Errorf("got %d, %d with %d left, want 1234, 5 with 0 left", v1, v2, len(rest))
	}
}

func TestVLQDecodeTruncated(t *testing.T) {
	if _, _, err := DecodeVLQUint(nil); err != ErrInvalidVLQ {
		t.Errorf("empty input: err = %v, want %v", err, ErrInvalidVLQ)
	}
	buf := AppendVLQUint(nil, 1<<20)
	if _, _, err := DecodeVLQUint(buf[:1]); err != ErrInvalidVLQ {
		t.Errorf("truncated input: err = %v, want %v", err, ErrInvalidVLQ)
	}
}
