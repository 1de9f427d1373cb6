package ralink

import (
	"github.com/google/gopacket/layers"
	"github.com/mdlayher/ralink/internal/wext"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func (d *driver) scan(ssid []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return ErrDriverDown
	}
	if len(ssid) > wext.ESSIDMaxSize {
		return ErrSSIDTooLong
	}

	var err error
	if err = d.ctl.TriggerScan(); err != nil {
		d.metrics.controlFailure("scan")
		klog.V(2).Infof("ralink: %s: failed to trigger scan: %v", d.ifname, err)
		err = errors.Wrap(err, "trigger scan")
	}

	// Not every driver reports scan completion, so results are always
	// announced after the timeout.
	d.armScanTimeoutLocked()
	return err
}

// armScanTimeoutLocked (re)starts the scan timeout.
func (d *driver) armScanTimeoutLocked() {
	d.cancelScanTimeoutLocked()

	d.scanGen++
	gen := d.scanGen
	d.scanTimer = d.cfg.Clock.AfterFunc(d.cfg.ScanTimeout, func() {
		d.scanTimeout(gen)
	})
}

// cancelScanTimeoutLocked stops a pending scan timeout and reports whether
// one was pending.
func (d *driver) cancelScanTimeoutLocked() bool {
	if d.scanTimer == nil {
		return false
	}

	d.scanTimer.Stop()
	d.scanTimer = nil
	d.scanGen++
	return true
}

func (d *driver) scanTimeout(gen uint64) {
	d.mu.Lock()
	defer d.unlock()

	// A timer which fired while being replaced or cancelled is stale.
	if d.closed || gen != d.scanGen {
		return
	}

	d.scanTimer = nil
	klog.V(2).Infof("ralink: %s: scan timeout, trying to get results", d.ifname)
	d.emit(Event{Kind: EventScanResults})
}

func (d *driver) scanResults() ([]ScanResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return nil, ErrDriverDown
	}

	b, err := d.readScanBufferLocked()
	if err != nil {
		return nil, err
	}

	var a scanAssembler
	dec := wext.NewDecoder(b, d.layout, d.version)
	for dec.Next() {
		if a.add(dec.Event()) {
			d.metrics.malformedInput(sourceScan)
		}
	}
	if err := dec.Err(); err != nil {
		klog.V(2).Infof("ralink: %s: scan results: %v", d.ifname, err)
		d.metrics.malformedInput(sourceScan)
	}

	return a.finish(), nil
}

// readScanBufferLocked reads raw scan results, growing the buffer while the
// driver reports it too small.
func (d *driver) readScanBufferLocked() ([]byte, error) {
	size := wext.ScanMaxData
	for {
		b := make([]byte, size)
		n, err := d.ctl.ScanResults(b)
		switch {
		case err == nil:
			if n > len(b) {
				return nil, ErrScanBufferLimit
			}
			return b[:n], nil
		case errors.Is(err, errBufferTooSmall) && size < wext.ScanMaxBuffer:
			size *= 2
			if size > wext.ScanMaxBuffer {
				size = wext.ScanMaxBuffer
			}
			klog.V(2).Infof("ralink: %s: scan results did not fit, trying %d bytes", d.ifname, size)
		case errors.Is(err, errBufferTooSmall):
			return nil, ErrScanBufferLimit
		default:
			d.metrics.controlFailure("get_scan_results")
			return nil, errors.Wrap(err, "get scan results")
		}
	}
}

// A scanCandidate accumulates the records of one access point.
type scanCandidate struct {
	res     ScanResult
	ssid    []byte
	ies     []byte
	maxRate int
}

// A scanAssembler groups scan records into ScanResults. A SIOCGIWAP record
// starts a new access point.
type scanAssembler struct {
	results []ScanResult
	cur     *scanCandidate
}

// add applies a single record and reports whether it was malformed.
func (a *scanAssembler) add(ev *wext.Event) bool {
	if ev.Cmd == wext.SIOCGIWAP {
		a.flush()
		a.cur = &scanCandidate{res: ScanResult{BSSID: ev.Addr()}}
		return false
	}

	c := a.cur
	if c == nil {
		return false
	}

	switch ev.Cmd {
	case wext.SIOCGIWMODE:
		switch ev.Mode() {
		case wext.ModeAdHoc:
			c.res.Capabilities |= CapabilityIBSS
		case wext.ModeMaster, wext.ModeInfra:
			c.res.Capabilities |= CapabilityESS
		}
	case wext.SIOCGIWESSID:
		if ev.Overrun {
			return true
		}
		if ev.Flags != 0 && ev.Length > 0 && int(ev.Length) <= wext.ESSIDMaxSize {
			c.ssid = append([]byte(nil), ev.Payload...)
		}
	case wext.SIOCGIWFREQ:
		c.setFrequency(ev.Freq())
	case wext.IWEVQUAL:
		c.res.Quality, c.res.Level, c.res.Noise = ev.Quality()
	case wext.SIOCGIWENCODE:
		if ev.Flags&wext.EncodeDisabled == 0 {
			c.res.Capabilities |= CapabilityPrivacy
		}
	case wext.IWEVGENIE:
		if ev.Length == 0 {
			return false
		}
		if ev.Overrun {
			klog.V(2).Infof("ralink: IWEVGENIE overflow for %s", c.res.BSSID)
			return true
		}
		c.ies = append(c.ies, ev.Payload...)
	case wext.SIOCGIWRATE:
		for _, r := range ev.Rates() {
			if rate := int(r / 500000); rate > c.maxRate {
				c.maxRate = rate
			}
		}
	}

	return false
}

// setFrequency applies a SIOCGIWFREQ value. An exponent of zero may carry a
// 2.4GHz channel number, which never replaces a known frequency.
func (c *scanCandidate) setFrequency(m int32, e int16) {
	if e == 0 {
		if c.res.Frequency != 0 {
			return
		}
		if f := channelToFrequency(int(m)); f != 0 {
			c.res.Frequency = f
			return
		}
	}

	if e > 6 {
		klog.V(2).Infof("ralink: invalid frequency in scan results (BSSID=%s m=%d e=%d)",
			c.res.BSSID, m, e)
		return
	}

	divi := int32(1000000)
	for i := int16(0); i < e; i++ {
		divi /= 10
	}
	c.res.Frequency = int(m / divi)
}

// finalize builds the ScanResult, synthesizing SSID and supported rates
// elements when the driver did not report them.
func (c *scanCandidate) finalize() ScanResult {
	var hasSSID, hasRates bool
	for _, e := range walkIEs(c.ies) {
		switch layers.Dot11InformationElementID(e.ID) {
		case layers.Dot11InformationElementIDSSID:
			hasSSID = true
		case layers.Dot11InformationElementIDRates, layers.Dot11InformationElementIDESRates:
			hasRates = true
		}
	}

	r := c.res
	r.IEs = make([]byte, 0, 2+len(c.ssid)+3+len(c.ies))
	if !hasSSID {
		r.IEs = append(r.IEs, uint8(layers.Dot11InformationElementIDSSID), uint8(len(c.ssid)))
		r.IEs = append(r.IEs, c.ssid...)
	}
	if !hasRates && c.maxRate != 0 {
		// The high bit marks a basic rate; faster rates saturate.
		rate := c.maxRate
		if rate > 0x7f {
			rate = 0x7f
		}
		r.IEs = append(r.IEs, uint8(layers.Dot11InformationElementIDRates), 1, uint8(rate))
	}
	r.IEs = append(r.IEs, c.ies...)

	return r
}

func (a *scanAssembler) flush() {
	if a.cur != nil {
		a.results = append(a.results, a.cur.finalize())
		a.cur = nil
	}
}

// finish finalizes the access point under construction and returns every
// result.
func (a *scanAssembler) finish() []ScanResult {
	a.flush()
	return a.results
}
