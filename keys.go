package ralink

import (
	"bytes"
	"net"

	"github.com/mdlayher/ralink/internal/ndis"
	"k8s.io/klog/v2"
)

func (d *driver) setKey(s *Session, k Key) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.down {
		return ErrDriverDown
	}

	if s != nil {
		s.wepKeyInstalled = false
	}

	pairwise := k.Addr != nil && !bytes.Equal(k.Addr, broadcast)

	bssid := k.Addr
	if !pairwise {
		addr, err := d.bssidLocked()
		if err != nil {
			klog.V(2).Infof("ralink: %s: no BSSID for group key: %v", d.ifname, err)
			addr = make(net.HardwareAddr, 6)
		}
		bssid = addr
	}

	klog.V(4).Infof("ralink: %s: set key alg=%d index=%d tx=%t pairwise=%t seq_len=%d key_len=%d",
		d.ifname, k.Alg, k.Index, k.Transmit, pairwise, len(k.Seq), len(k.Material))

	switch {
	case k.Alg == AlgNone || len(k.Material) == 0:
		return d.setOID("remove_key", ndis.OIDRemoveKey,
			ndis.RemoveKey(uint32(k.Index), pairwise, bssid))
	case k.Alg == AlgWEP:
		if s != nil {
			s.wepKeyInstalled = true
		}

		return d.setOID("add_wep", ndis.OIDAddWEP,
			ndis.WEP(uint32(k.Index), k.Transmit, k.Material))
	}

	material := k.Material
	if k.Alg == AlgTKIP && len(material) == 32 {
		material = swapMICKeys(material)
	}

	b, err := ndis.Key{
		Index:    uint32(k.Index),
		Transmit: k.Transmit,
		Pairwise: pairwise,
		BSSID:    bssid,
		RSC:      k.Seq,
		Material: material,
	}.MarshalBinary()
	if err != nil {
		return err
	}

	return d.setOID("add_key", ndis.OIDAddKey, b)
}

// swapMICKeys exchanges the two 8-byte Michael MIC keys of 32 bytes of TKIP
// key material. The driver expects the receive MIC key first. The transform
// is its own inverse.
func swapMICKeys(k []byte) []byte {
	out := make([]byte, 32)
	copy(out[0:16], k[0:16])
	copy(out[16:24], k[24:32])
	copy(out[24:32], k[16:24])
	return out
}
