//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// timerFrequencyHz is the RP2040 timer tick rate (1 MHz microsecond timer).
const timerFrequencyHz = 1_000_000

// readTimer returns the capture timebase: the RP2040 timer counts up, so
// the complement of its low word is a free-running down-counter with the
// same wraparound period.
func readTimer() uint32 {
	return ^timerRAWL.Get()
}
