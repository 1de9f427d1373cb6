package ralink

import (
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/ralink/internal/ndis"
)

func TestPMKIDCache(t *testing.T) {
	addr := func(b byte) net.HardwareAddr { return net.HardwareAddr{0x00, 0x0c, 0x43, 0x00, 0x00, b} }
	pmkid := func(b byte) [16]byte { return [16]byte{b} }

	tests := []struct {
		name string
		fn   func(c *pmkidCache)
		want []ndis.BSSIDInfo
	}{
		{
			name: "most recent first",
			fn: func(c *pmkidCache) {
				c.add(addr(1), pmkid(1))
				c.add(addr(2), pmkid(2))
			},
			want: []ndis.BSSIDInfo{
				{BSSID: addr(2), PMKID: pmkid(2)},
				{BSSID: addr(1), PMKID: pmkid(1)},
			},
		},
		{
			name: "replace moves to front",
			fn: func(c *pmkidCache) {
				c.add(addr(1), pmkid(1))
				c.add(addr(2), pmkid(2))
				c.add(addr(3), pmkid(3))
				c.add(addr(1), pmkid(9))
			},
			want: []ndis.BSSIDInfo{
				{BSSID: addr(1), PMKID: pmkid(9)},
				{BSSID: addr(3), PMKID: pmkid(3)},
				{BSSID: addr(2), PMKID: pmkid(2)},
			},
		},
		{
			name: "evict least recently used",
			fn: func(c *pmkidCache) {
				for i := byte(1); i <= 5; i++ {
					c.add(addr(i), pmkid(i))
				}
			},
			want: []ndis.BSSIDInfo{
				{BSSID: addr(5), PMKID: pmkid(5)},
				{BSSID: addr(4), PMKID: pmkid(4)},
				{BSSID: addr(3), PMKID: pmkid(3)},
				{BSSID: addr(2), PMKID: pmkid(2)},
			},
		},
		{
			name: "remove requires matching PMKID",
			fn: func(c *pmkidCache) {
				c.add(addr(1), pmkid(1))
				c.add(addr(2), pmkid(2))
				c.remove(addr(1), pmkid(7))
				c.remove(addr(2), pmkid(2))
			},
			want: []ndis.BSSIDInfo{
				{BSSID: addr(1), PMKID: pmkid(1)},
			},
		},
		{
			name: "flush",
			fn: func(c *pmkidCache) {
				c.add(addr(1), pmkid(1))
				c.flush()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &pmkidCache{capacity: defaultPMKIDCapacity}
			tt.fn(c)

			if diff := cmp.Diff(tt.want, c.entries); diff != "" {
				t.Fatalf("unexpected entries (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDriverPMKID(t *testing.T) {
	d, ctl, _ := testDriver(t, nil)

	a := net.HardwareAddr{0x00, 0x0c, 0x43, 0x30, 0x52, 0x77}
	b := net.HardwareAddr{0x00, 0x0c, 0x43, 0x30, 0x52, 0x78}

	if err := d.addPMKID(a, [16]byte{0xaa}); err != nil {
		t.Fatalf("failed to add PMKID: %v", err)
	}
	if err := d.addPMKID(b, [16]byte{0xbb}); err != nil {
		t.Fatalf("failed to add PMKID: %v", err)
	}
	if err := d.removePMKID(a, [16]byte{0xaa}); err != nil {
		t.Fatalf("failed to remove PMKID: %v", err)
	}
	if err := d.flushPMKIDs(); err != nil {
		t.Fatalf("failed to flush PMKIDs: %v", err)
	}

	// Every change rewrites the driver's whole list.
	want := []oidWrite{
		{OID: ndis.OIDPMKID, Data: ndis.PMKIDList([]ndis.BSSIDInfo{
			{BSSID: a, PMKID: [16]byte{0xaa}},
		})},
		{OID: ndis.OIDPMKID, Data: ndis.PMKIDList([]ndis.BSSIDInfo{
			{BSSID: b, PMKID: [16]byte{0xbb}},
			{BSSID: a, PMKID: [16]byte{0xaa}},
		})},
		{OID: ndis.OIDPMKID, Data: ndis.PMKIDList([]ndis.BSSIDInfo{
			{BSSID: b, PMKID: [16]byte{0xbb}},
		})},
		{OID: ndis.OIDPMKID, Data: ndis.PMKIDList(nil)},
	}
	if diff := cmp.Diff(want, ctl.writes()); diff != "" {
		t.Fatalf("unexpected OID writes (-want +got):\n%s", diff)
	}
}

func TestDriverPMKIDDisabled(t *testing.T) {
	d, ctl, _ := testDriver(t, &Config{PMKIDCapacity: -1})

	a := net.HardwareAddr{0x00, 0x0c, 0x43, 0x30, 0x52, 0x77}
	if err := d.addPMKID(a, [16]byte{0xaa}); err != nil {
		t.Fatalf("failed to add PMKID: %v", err)
	}
	if err := d.removePMKID(a, [16]byte{0xaa}); err != nil {
		t.Fatalf("failed to remove PMKID: %v", err)
	}
	if err := d.flushPMKIDs(); err != nil {
		t.Fatalf("failed to flush PMKIDs: %v", err)
	}

	if diff := cmp.Diff([]oidWrite(nil), ctl.writes()); diff != "" {
		t.Fatalf("unexpected OID writes (-want +got):\n%s", diff)
	}
}

func TestDriverPMKIDError(t *testing.T) {
	d, ctl, _ := testDriver(t, nil)
	errDriver := errors.New("no buffer space available")
	ctl.setErrs[ndis.OIDPMKID] = errDriver

	err := d.addPMKID(net.HardwareAddr{0x00, 0x0c, 0x43, 0x30, 0x52, 0x77}, [16]byte{})
	if !errors.Is(err, errDriver) {
		t.Fatalf("unexpected error:\n- want: %v\n-  got: %v", errDriver, err)
	}
}
