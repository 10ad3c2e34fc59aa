// Package serial abstracts the byte stream from the sensor MCU so the
// link layer can run against real hardware, a replay file or a mock.
package serial

import "io"

// Port is a bidirectional serial connection.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3").
	Device string

	// Baud rate. USB CDC devices ignore it.
	Baud int

	// ReadTimeout in milliseconds; 0 blocks forever.
	ReadTimeout int
}

// DefaultConfig returns the standard settings for the sensor MCU.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100,
	}
}
