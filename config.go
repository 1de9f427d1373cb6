package ralink

import (
	"time"

	"github.com/mdlayher/ralink/internal/ndis"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/utils/clock"
)

const (
	defaultScanTimeout   = 4 * time.Second
	defaultPMKIDCapacity = 4

	// settleDelay is how long Close waits after disabling supplicant support
	// so the driver can tear down its own state.
	settleDelay = time.Second
)

// Config contains options for a Client.
type Config struct {
	// APScan is the supplicant's ap_scan policy. A value of 1 lets the
	// supplicant select access points; any other value leaves selection to
	// the driver.
	APScan int

	// Handler receives normalized driver events. If nil, events are
	// discarded.
	Handler Handler

	// ScanTimeout is how long to wait for a scan completion event before
	// reporting scan results anyway. If zero, 4 seconds is used.
	ScanTimeout time.Duration

	// PMKIDCapacity bounds the PMKID cache. If zero, the driver maximum of 4
	// is used. A negative value disables the cache.
	PMKIDCapacity int

	// Clock drives the scan timeout and teardown delay. If nil, the real
	// clock is used.
	Clock clock.WithDelayedExecution

	// Registerer, if set, is used to register the Client's metrics.
	Registerer prometheus.Registerer

	// WirelessVersion overrides the wireless extensions version otherwise
	// queried from the driver. Zero means query the driver.
	WirelessVersion int
}

// withDefaults returns a copy of cfg with every unset field filled in.
func (cfg *Config) withDefaults() Config {
	var c Config
	if cfg != nil {
		c = *cfg
	}

	if c.ScanTimeout == 0 {
		c.ScanTimeout = defaultScanTimeout
	}
	switch {
	case c.PMKIDCapacity == 0:
		c.PMKIDCapacity = defaultPMKIDCapacity
	case c.PMKIDCapacity < 0:
		c.PMKIDCapacity = 0
	}
	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}
	if c.Handler == nil {
		c.Handler = HandlerFunc(func(Event) {})
	}

	return c
}

// supportMode is the value written to the supplicant support OID for cfg.
func (cfg *Config) supportMode() byte {
	if cfg.APScan == 1 {
		return ndis.SupplicantSupportAPScan
	}

	return ndis.SupplicantSupportDriver
}
