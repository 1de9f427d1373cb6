package ralink

import (
	"errors"
	"net"
	"sync"
)

// A Client is attached to a single Ralink wireless interface. It issues
// control operations to the driver and delivers the driver's events to the
// configured Handler.
type Client struct {
	d *driver
	c *client

	closeOnce sync.Once
	closeErr  error
}

// New attaches to the interface named ifname. A nil Config uses defaults.
//
// New fails with ErrNotSupported if the driver rejects supplicant support.
func New(ifname string, cfg *Config) (*Client, error) {
	d, c, err := newClient(ifname, cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		d: d,
		c: c,
	}, nil
}

// Close disables supplicant support, cancels any pending scan timeout and
// releases the Client's event and control channels, in that order.
// Close may be called from a Handler. Calls after the first return the
// first call's result.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.d.shutdown()
		c.closeErr = c.c.Close()
	})
	return c.closeErr
}

// BSSID returns the BSSID of the current association.
func (c *Client) BSSID() (net.HardwareAddr, error) {
	return c.d.bssid()
}

// SSID returns the SSID of the current association. It is empty when not
// associated.
func (c *Client) SSID() ([]byte, error) {
	return c.d.ssid()
}

// SetKey installs or removes a key. s is shared with the following call to
// Associate of the same connection attempt and may be nil.
func (c *Client) SetKey(s *Session, k Key) error {
	return c.d.setKey(s, k)
}

// SetCountermeasures enables or disables TKIP countermeasures.
func (c *Client) SetCountermeasures(enabled bool) error {
	return c.d.setCountermeasures(enabled)
}

// Scan requests a scan. EventScanResults follows when the driver reports
// completion, or after Config.ScanTimeout otherwise.
func (c *Client) Scan(ssid []byte) error {
	return c.d.scan(ssid)
}

// ScanResults retrieves the results of the most recent scan.
func (c *Client) ScanResults() ([]ScanResult, error) {
	return c.d.scanResults()
}

// Deauthenticate deauthenticates from addr. Drivers which do not support
// deauthentication disassociate instead.
func (c *Client) Deauthenticate(addr net.HardwareAddr, reason uint16) error {
	return c.d.deauthenticate(addr, reason)
}

// Disassociate disassociates from the current access point.
func (c *Client) Disassociate() error {
	return c.d.disassociate()
}

// Associate configures the driver for p and starts associating.
func (c *Client) Associate(s *Session, p AssociationParams) error {
	return c.d.associate(s, p)
}

// AddPMKID adds or refreshes a PMKSA cache entry.
func (c *Client) AddPMKID(bssid net.HardwareAddr, pmkid [16]byte) error {
	return c.d.addPMKID(bssid, pmkid)
}

// RemovePMKID removes a PMKSA cache entry.
func (c *Client) RemovePMKID(bssid net.HardwareAddr, pmkid [16]byte) error {
	return c.d.removePMKID(bssid, pmkid)
}

// FlushPMKID removes every PMKSA cache entry.
func (c *Client) FlushPMKID() error {
	return c.d.flushPMKIDs()
}

// SetProbeRequestIE sets the IEs added to probe requests.
func (c *Client) SetProbeRequestIE(ies []byte) error {
	return c.d.setProbeRequestIE(ies)
}

// Interfaces returns a list of the system's wireless network interfaces.
func Interfaces() ([]*Interface, error) {
	c, err := newNL80211()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	return c.Interfaces()
}

// closeAll closes every closer in order and joins their errors.
func closeAll(closers ...func() error) error {
	var errs []error
	for _, fn := range closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
