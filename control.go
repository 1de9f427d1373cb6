package ralink

import (
	"net"
)

// A controller is the synchronous control channel to the driver.
type controller interface {
	// SetOID writes b to a Ralink private OID.
	SetOID(oid uint16, b []byte) error

	// QueryOID reads a Ralink private OID into b.
	QueryOID(oid uint16, b []byte) error

	BSSID() (net.HardwareAddr, error)

	// SSID reads the current SSID into b and returns its length.
	SSID(b []byte) (int, error)

	TriggerScan() error

	// ScanResults reads raw scan results into b and returns the number of
	// bytes written. It returns errBufferTooSmall if b cannot hold them.
	ScanResults(b []byte) (int, error)

	SetGenIE(ie []byte) error

	// SetUp sets or clears the interface's administrative up flag.
	SetUp(up bool) error

	Close() error
}
