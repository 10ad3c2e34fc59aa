package protocol

import "io"

// FrameWriter frames payloads onto an io.Writer. The MCU target and the
// host-side tests share it.
type FrameWriter struct {
	w   io.Writer
	seq uint8
}

// NewFrameWriter returns a writer whose first frame carries sequence 0.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w, seq: SeqBase}
}

// WriteMessage encodes m into a single frame and writes it out.
func (fw *FrameWriter) WriteMessage(m Message) error {
	var scratch [FrameMax]byte
	frame := scratch[:FrameHeader]
	frame = AppendMessage(frame, m)
	if len(frame)+FrameTrailer > FrameMax {
		return ErrFrameTooLarge
	}
	frame[0] = byte(len(frame) + FrameTrailer)
	frame[1] = fw.seq
	fw.seq = (fw.seq+1)&SeqMask | SeqBase

	crc := CRC16(frame)
	frame = append(frame, byte(crc>>8), byte(crc), SyncByte)

	_, err := fw.w.Write(frame)
	return err
}

// ScannerStats counts what the scanner has seen. Counters only grow.
type ScannerStats struct {
	Frames    uint32 // frames delivered
	CRCErrors uint32 // frames dropped on checksum mismatch
	Resyncs   uint32 // times the scanner lost framing and hunted for sync
	SeqGaps   uint32 // sequence discontinuities (dropped frames upstream)
}

// FrameScanner incrementally parses the byte stream from the MCU and hands
// each valid payload to the handler. Garbage between frames is skipped by
// hunting for the sync byte.
type FrameScanner struct {
	handler func(payload []byte)
	buf     []byte
	synced  bool
	haveSeq bool
	nextSeq uint8
	stats   ScannerStats
}

// NewFrameScanner returns a scanner that calls handler once per frame. The
// payload slice is only valid for the duration of the call.
func NewFrameScanner(handler func(payload []byte)) *FrameScanner {
	return &FrameScanner{handler: handler, synced: true}
}

// Stats returns a copy of the scanner counters.
func (fs *FrameScanner) Stats() ScannerStats {
	return fs.stats
}

// Feed consumes a chunk of the incoming byte stream. Partial frames are
// buffered until completed by a later chunk.
func (fs *FrameScanner) Feed(data []byte) {
	fs.buf = append(fs.buf, data...)

	for len(fs.buf) > 0 {
		if !fs.synced {
			if !fs.hunt() {
				return
			}
		}

		// Skip inter-frame sync bytes.
		if fs.buf[0] == SyncByte {
			fs.buf = fs.buf[1:]
			continue
		}
		if len(fs.buf) < FrameMin {
			return
		}

		frameLen := int(fs.buf[0])
		if frameLen < FrameMin || frameLen > FrameMax {
			fs.desync()
			continue
		}
		if fs.buf[1]&^SeqMask != SeqBase {
			fs.desync()
			continue
		}
		if len(fs.buf) < frameLen {
			return
		}
		if fs.buf[frameLen-1] != SyncByte {
			fs.desync()
			continue
		}

		body := fs.buf[:frameLen-FrameTrailer]
		wantCRC := uint16(fs.buf[frameLen-3])<<8 | uint16(fs.buf[frameLen-2])
		if CRC16(body) != wantCRC {
			fs.stats.CRCErrors++
			fs.desync()
			continue
		}

		fs.trackSequence(fs.buf[1])
		fs.stats.Frames++
		fs.handler(body[FrameHeader:])
		fs.buf = fs.buf[frameLen:]
	}
}

// hunt discards bytes up to and including the next sync byte. Reports
// whether framing was recovered.
func (fs *FrameScanner) hunt() bool {
	for i, b := range fs.buf {
		if b == SyncByte {
			fs.buf = fs.buf[i+1:]
			fs.synced = true
			return true
		}
	}
	fs.buf = fs.buf[:0]
	return false
}

func (fs *FrameScanner) desync() {
	fs.synced = false
	fs.haveSeq = false
	fs.stats.Resyncs++
}

func (fs *FrameScanner) trackSequence(seq uint8) {
	if fs.haveSeq && seq != fs.nextSeq {
		fs.stats.SeqGaps++
	}
	fs.haveSeq = true
	fs.nextSeq = (seq+1)&SeqMask | SeqBase
}
