// Package protocol implements the framed edge-event stream between the
// sensor MCU and the host estimator.
//
// The MCU is the only talker: it emits edge reports (one per quadrature
// transition, timestamped with the raw timer sample taken in the interrupt
// handler) and periodic clock beacons that let the host track the MCU's
// wrapping counter between edges. Frames carry a length byte, a sequence
// byte, the payload, a CRC16 and a trailing sync byte.
package protocol

import "errors"

const (
	// FrameHeader is the length and sequence bytes.
	FrameHeader = 2
	// FrameTrailer is the CRC16 plus the sync byte.
	FrameTrailer = 3
	// FrameMin is the smallest legal frame (empty payload).
	FrameMin = FrameHeader + FrameTrailer
	// FrameMax bounds a frame so the scanner can reject corrupt lengths.
	FrameMax = 64

	// SyncByte terminates every frame and is the resynchronization marker.
	SyncByte = 0x7E

	// SeqMask and SeqBase: the low nibble counts frames, the high nibble
	// is fixed so a corrupted sequence byte is detectable.
	SeqMask = 0x0F
	SeqBase = 0x10
)

// Message identifiers, the first payload byte.
const (
	MsgEdgeReport  = 0x01
	MsgClockBeacon = 0x02
)

var (
	ErrShortPayload   = errors.New("payload truncated")
	ErrUnknownMessage = errors.New("unknown message id")
	ErrFrameTooLarge  = errors.New("frame exceeds maximum size")
)

// Message is an MCU-to-host payload.
type Message interface {
	isMessage()
}

// EdgeReport is one quadrature transition: the raw down-counter sample
// taken at the edge and the combined 2-bit channel state.
type EdgeReport struct {
	Tick  uint32
	State uint8
}

func (EdgeReport) isMessage() {}

// ClockBeacon carries a bare counter sample so the host's remote clock
// keeps moving while the shaft is still.
type ClockBeacon struct {
	Tick uint32
}

func (ClockBeacon) isMessage() {}

// AppendMessage encodes a message onto buf and returns the extended slice.
func AppendMessage(buf []byte, m Message) []byte {
	switch v := m.(type) {
	case EdgeReport:
		buf = append(buf, MsgEdgeReport)
		buf = AppendVLQUint(buf, v.Tick)
		buf = append(buf, v.State&0x03)
	case ClockBeacon:
		buf = append(buf, MsgClockBeacon)
		buf = AppendVLQUint(buf, v.Tick)
	}
	return buf
}

// ParseMessage decodes one message from a frame payload.
func ParseMessage(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return nil, ErrShortPayload
	}
	id := payload[0]
	payload = payload[1:]
	switch id {
	case MsgEdgeReport:
		tick, rest, err := DecodeVLQUint(payload)
		if err != nil {
			return nil, err
		}
		if len(rest) < 1 {
			return nil, ErrShortPayload
		}
		return EdgeReport{Tick: tick, State: rest[0] & 0x03}, nil
	case MsgClockBeacon:
		tick, _, err := DecodeVLQUint(payload)
		if err != nil {
			return nil, err
		}
		return ClockBeacon{Tick: tick}, nil
	default:
		return nil, ErrUnknownMessage
	}
}
