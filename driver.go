package ralink

import (
	"net"
	"sync"

	"github.com/mdlayher/netlink/nlenc"
	"github.com/mdlayher/ralink/internal/ndis"
	"github.com/mdlayher/ralink/internal/wext"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"
)

// A driver holds the state of a single attached interface. It is safe for
// concurrent use: control operations, the event monitor and the scan timer
// all serialize on mu.
type driver struct {
	cfg     Config
	ifname  string
	ifindex int
	ctl     controller
	layout  wext.Layout
	metrics *metrics

	mu      sync.Mutex
	down    bool
	closed  bool
	version int

	// Association IEs staged until the driver reports association info.
	reqIEs  []byte
	respIEs []byte

	pmkids pmkidCache

	scanTimer clock.Timer
	scanGen   uint64

	// Events produced while mu is held, delivered by unlock.
	pending []Event
}

// newDriver creates a driver for ifname. It performs no control operations;
// see init.
func newDriver(ifname string, ifindex int, ctl controller, cfg *Config) *driver {
	c := cfg.withDefaults()

	return &driver{
		cfg:     c,
		ifname:  ifname,
		ifindex: ifindex,
		ctl:     ctl,
		layout:  wext.NativeLayout(),
		metrics: newMetrics(c.Registerer),
		pmkids:  pmkidCache{capacity: c.PMKIDCapacity},
	}
}

// init brings the interface up, negotiates the wireless extensions version,
// flushes the driver's PMKID list and enables supplicant support.
func (d *driver) init() error {
	d.mu.Lock()
	defer d.unlock()

	if err := d.ctl.SetUp(true); err != nil {
		// Best effort; the driver may already be up.
		klog.Warningf("ralink: %s: failed to set interface up: %v", d.ifname, err)
	}

	d.version = d.cfg.WirelessVersion
	if d.version == 0 {
		b := make([]byte, 4)
		if err := d.ctl.QueryOID(ndis.OIDWEVersionCompiled, b); err != nil {
			klog.V(2).Infof("ralink: %s: failed to query wireless extensions version: %v", d.ifname, err)
		} else {
			d.version = int(nlenc.Uint32(b))
		}
	}
	klog.V(2).Infof("ralink: %s: wireless extensions version %d", d.ifname, d.version)

	if err := d.flushPMKIDsLocked(); err != nil {
		klog.Warningf("ralink: %s: failed to flush PMKID list: %v", d.ifname, err)
	}

	if err := d.ensureSupplicantSupport(d.cfg.supportMode()); err != nil {
		klog.Errorf("ralink: %s: driver does not support wpa_supplicant: %v", d.ifname, err)
		return ErrNotSupported
	}

	return nil
}

// shutdown disables supplicant support and cancels the scan timer. The
// caller closes the event and control channels afterwards.
func (d *driver) shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	wasUp := !d.down
	if wasUp {
		if err := d.ensureSupplicantSupport(ndis.SupplicantSupportDisabled); err != nil {
			klog.V(2).Infof("ralink: %s: failed to disable supplicant support: %v", d.ifname, err)
		}
		if err := d.flushPMKIDsLocked(); err != nil {
			klog.V(2).Infof("ralink: %s: failed to flush PMKID list: %v", d.ifname, err)
		}
	}
	d.mu.Unlock()

	if wasUp {
		d.cfg.Clock.Sleep(settleDelay)
	}

	d.mu.Lock()
	d.closed = true
	// Operations fail fast from here on; the control channel is about to
	// be closed.
	d.down = true
	d.cancelScanTimeoutLocked()
	d.pending = nil
	d.mu.Unlock()
}

// abort marks the driver closed without any teardown handshake, after a
// failed init.
func (d *driver) abort() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.down = true
	d.cancelScanTimeoutLocked()
	d.pending = nil
}

// unlock releases mu and then delivers any events queued while it was held.
func (d *driver) unlock() {
	evs := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, e := range evs {
		d.cfg.Handler.HandleEvent(e)
	}
}

// emit queues e for delivery when mu is released.
func (d *driver) emit(e Event) {
	klog.V(4).Infof("ralink: %s: event %s", d.ifname, e.Kind)
	d.metrics.event(e.Kind)
	d.pending = append(d.pending, e)
}

// ensureSupplicantSupport writes mode to the supplicant support OID. It is
// used on init, on interface up, on association and on teardown.
func (d *driver) ensureSupplicantSupport(mode byte) error {
	return d.setOID("supplicant_support", ndis.OIDWPASupplicantSupport, []byte{mode})
}

// setOID writes b to oid, counting and wrapping any failure under op.
func (d *driver) setOID(op string, oid uint16, b []byte) error {
	if err := d.ctl.SetOID(oid, b); err != nil {
		d.metrics.controlFailure(op)
		klog.V(2).Infof("ralink: %s: set OID 0x%04x (%d bytes) failed: %v", d.ifname, oid, len(b), err)
		return errors.Wrapf(err, "set OID 0x%04x", oid)
	}

	return nil
}

// trySetOID is setOID for the best effort steps of a sequence.
func (d *driver) trySetOID(op string, oid uint16, b []byte) {
	_ = d.setOID(op, oid, b)
}

func (d *driver) bssid() (net.HardwareAddr, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return nil, ErrDriverDown
	}

	return d.bssidLocked()
}

func (d *driver) bssidLocked() (net.HardwareAddr, error) {
	addr, err := d.ctl.BSSID()
	if err != nil {
		d.metrics.controlFailure("get_bssid")
		return nil, errors.Wrap(err, "get BSSID")
	}

	return addr, nil
}

func (d *driver) ssid() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return nil, ErrDriverDown
	}

	b := make([]byte, wext.ESSIDMaxSize)
	n, err := d.ctl.SSID(b)
	if err != nil {
		d.metrics.controlFailure("get_ssid")
		return nil, errors.Wrap(err, "get SSID")
	}
	if n > len(b) {
		n = len(b)
	}

	return b[:n], nil
}

func (d *driver) setCountermeasures(enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return ErrDriverDown
	}

	var v uint32
	if enabled {
		v = 1
	}

	klog.V(4).Infof("ralink: %s: countermeasures enabled=%t", d.ifname, enabled)
	return d.setOID("set_countermeasures", ndis.OIDSetCountermeasures, nlenc.Uint32Bytes(v))
}

func (d *driver) deauthenticate(addr net.HardwareAddr, reason uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return ErrDriverDown
	}

	flag := make([]byte, 1)
	if err := d.ctl.QueryOID(ndis.OIDNewDriver, flag); err != nil {
		klog.V(2).Infof("ralink: %s: failed to query new driver flag: %v", d.ifname, err)
		flag[0] = 0
	}

	if flag[0] != 1 {
		return d.disassociateLocked()
	}

	return d.setOID("deauthenticate", ndis.OIDDeauthentication, ndis.Deauth(addr, reason))
}

func (d *driver) disassociate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return ErrDriverDown
	}

	return d.disassociateLocked()
}

// disassociateLocked always succeeds; the driver may reject the request
// when it is not associated.
func (d *driver) disassociateLocked() error {
	d.trySetOID("disassociate", ndis.OIDDisassociate, []byte("    "))
	return nil
}

func (d *driver) setProbeRequestIE(ies []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return ErrDriverDown
	}

	return d.setOID("set_probe_request_ie", ndis.OIDWPSProbeReqIE, ies)
}

// isDown reports whether the driver has reported its interface down.
func (d *driver) isDown() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.down
}
