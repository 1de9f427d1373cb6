package ralink

import (
	"bytes"
	"net"

	"github.com/mdlayher/ralink/internal/ndis"
)

// A pmkidCache is a bounded most-recently-used list of PMKSA entries. The
// driver accepts only a full replacement of its list.
type pmkidCache struct {
	capacity int
	entries  []ndis.BSSIDInfo
}

// add inserts or replaces the entry for bssid and moves it to the front,
// evicting the least recently used entry when full.
func (c *pmkidCache) add(bssid net.HardwareAddr, pmkid [16]byte) {
	if c.capacity == 0 {
		return
	}

	e := ndis.BSSIDInfo{
		BSSID: append(net.HardwareAddr(nil), bssid...),
		PMKID: pmkid,
	}

	for i := range c.entries {
		if bytes.Equal(c.entries[i].BSSID, bssid) {
			copy(c.entries[1:i+1], c.entries[:i])
			c.entries[0] = e
			return
		}
	}

	if len(c.entries) < c.capacity {
		c.entries = append(c.entries, ndis.BSSIDInfo{})
	}
	copy(c.entries[1:], c.entries)
	c.entries[0] = e
}

// remove deletes the entry matching both bssid and pmkid, if any.
func (c *pmkidCache) remove(bssid net.HardwareAddr, pmkid [16]byte) {
	for i := range c.entries {
		if bytes.Equal(c.entries[i].BSSID, bssid) && c.entries[i].PMKID == pmkid {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

func (c *pmkidCache) flush() {
	c.entries = nil
}

// record encodes the whole cache as an OID_802_11_PMKID record.
func (c *pmkidCache) record() []byte {
	return ndis.PMKIDList(c.entries)
}

func (d *driver) addPMKID(bssid net.HardwareAddr, pmkid [16]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return ErrDriverDown
	}
	if d.pmkids.capacity == 0 {
		return nil
	}

	d.pmkids.add(bssid, pmkid)
	return d.setOID("set_pmkid", ndis.OIDPMKID, d.pmkids.record())
}

func (d *driver) removePMKID(bssid net.HardwareAddr, pmkid [16]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return ErrDriverDown
	}
	if d.pmkids.capacity == 0 {
		return nil
	}

	d.pmkids.remove(bssid, pmkid)
	return d.setOID("set_pmkid", ndis.OIDPMKID, d.pmkids.record())
}

func (d *driver) flushPMKIDs() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return ErrDriverDown
	}

	return d.flushPMKIDsLocked()
}

func (d *driver) flushPMKIDsLocked() error {
	if d.pmkids.capacity == 0 {
		return nil
	}

	d.pmkids.flush()
	return d.setOID("set_pmkid", ndis.OIDPMKID, d.pmkids.record())
}
