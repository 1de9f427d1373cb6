package ndis

import (
	"errors"
	"net"

	"github.com/mdlayher/netlink/nlenc"
)

var (
	// ErrCandidateVersion is returned when a PMKID candidate list carries a
	// version other than 1.
	ErrCandidateVersion = errors.New("unsupported PMKID candidate list version")

	// ErrCandidateShort is returned when a PMKID candidate list is shorter
	// than its header or than its declared number of candidates.
	ErrCandidateShort = errors.New("PMKID candidate list too short")
)

const (
	// SSIDLen is sizeof(NDIS_802_11_SSID).
	SSIDLen = 4 + 32

	// keyHeaderLen is the offset of KeyMaterial within NDIS_802_11_KEY.
	keyHeaderLen = 32

	// wepHeaderLen is the offset of KeyMaterial within NDIS_802_11_WEP.
	wepHeaderLen = 12

	// RemoveKeyLen is sizeof(NDIS_802_11_REMOVE_KEY).
	RemoveKeyLen = 16

	// pmkidHeaderLen is the {Length, BSSIDInfoCount} header of
	// NDIS_802_11_PMKID.
	pmkidHeaderLen = 8

	// bssidInfoLen is sizeof(BSSID_INFO).
	bssidInfoLen = 6 + 16

	candidateHeaderLen = 8
	candidateLen       = 12

	// DeauthLen is sizeof(MLME_DEAUTH_REQ_STRUCT).
	DeauthLen = 8
)

// SSID encodes an NDIS_802_11_SSID. ssid must not exceed 32 bytes.
func SSID(ssid []byte) []byte {
	b := make([]byte, SSIDLen)
	nlenc.PutUint32(b[0:4], uint32(len(ssid)))
	copy(b[4:], ssid)
	return b
}

// A Key is the content of an NDIS_802_11_KEY record.
type Key struct {
	Index    uint32
	Transmit bool
	Pairwise bool
	BSSID    net.HardwareAddr

	// RSC holds the receive sequence counter. Only the first four bytes
	// are representable and any further bytes are ignored.
	RSC []byte

	// Material is copied verbatim; callers apply any vendor reordering.
	Material []byte
}

// MarshalBinary encodes k as an NDIS_802_11_KEY record.
func (k Key) MarshalBinary() ([]byte, error) {
	b := make([]byte, keyHeaderLen+len(k.Material))

	idx := k.Index
	if k.Transmit {
		idx |= KeyIndexTransmit
	}
	if k.Pairwise {
		idx |= KeyIndexPairwise
	}
	if len(k.RSC) > 0 {
		idx |= KeyIndexRSC
	}

	nlenc.PutUint32(b[0:4], uint32(len(b)))
	nlenc.PutUint32(b[4:8], idx)
	nlenc.PutUint32(b[8:12], uint32(len(k.Material)))
	copy(b[12:18], k.BSSID)
	nlenc.PutUint64(b[24:32], rsc(k.RSC))
	copy(b[keyHeaderLen:], k.Material)

	return b, nil
}

// rsc packs up to four sequence bytes little-endian.
func rsc(seq []byte) uint64 {
	if len(seq) > 4 {
		seq = seq[:4]
	}

	var v uint64
	for i, s := range seq {
		v |= uint64(s) << (8 * i)
	}

	return v
}

// WEP encodes an NDIS_802_11_WEP record.
func WEP(index uint32, transmit bool, material []byte) []byte {
	b := make([]byte, wepHeaderLen+len(material))

	if transmit {
		index |= KeyIndexTransmit
	}

	nlenc.PutUint32(b[0:4], uint32(len(b)))
	nlenc.PutUint32(b[4:8], index)
	nlenc.PutUint32(b[8:12], uint32(len(material)))
	copy(b[wepHeaderLen:], material)
	return b
}

// RemoveKey encodes an NDIS_802_11_REMOVE_KEY record.
func RemoveKey(index uint32, pairwise bool, bssid net.HardwareAddr) []byte {
	b := make([]byte, RemoveKeyLen)

	if pairwise {
		index |= KeyIndexPairwise
	}

	nlenc.PutUint32(b[0:4], RemoveKeyLen)
	nlenc.PutUint32(b[4:8], index)
	copy(b[8:14], bssid)
	return b
}

// A BSSIDInfo is a single entry of an NDIS_802_11_PMKID record.
type BSSIDInfo struct {
	BSSID net.HardwareAddr
	PMKID [16]byte
}

// PMKIDList encodes a full NDIS_802_11_PMKID record. An empty list produces
// the 8-byte flush record.
func PMKIDList(infos []BSSIDInfo) []byte {
	b := make([]byte, pmkidHeaderLen+len(infos)*bssidInfoLen)
	nlenc.PutUint32(b[0:4], uint32(len(b)))
	nlenc.PutUint32(b[4:8], uint32(len(infos)))

	for i, info := range infos {
		off := pmkidHeaderLen + i*bssidInfoLen
		copy(b[off:off+6], info.BSSID)
		copy(b[off+6:off+bssidInfoLen], info.PMKID[:])
	}

	return b
}

// Deauth encodes an MLME_DEAUTH_REQ_STRUCT.
func Deauth(addr net.HardwareAddr, reason uint16) []byte {
	b := make([]byte, DeauthLen)
	copy(b[0:6], addr)
	nlenc.PutUint16(b[6:8], reason)
	return b
}

// A Candidate is a single PMKID_CANDIDATE.
type Candidate struct {
	BSSID    net.HardwareAddr
	Flags    uint32
	Preauth  bool
	Position int
}

// ParseCandidateList decodes an NDIS_802_11_PMKID_CANDIDATE_LIST. No
// candidates are returned unless the whole declared list fits in b.
func ParseCandidateList(b []byte) ([]Candidate, error) {
	if len(b) < candidateHeaderLen {
		return nil, ErrCandidateShort
	}

	if v := nlenc.Uint32(b[0:4]); v != 1 {
		return nil, ErrCandidateVersion
	}

	n := uint64(nlenc.Uint32(b[4:8]))
	if uint64(len(b)-candidateHeaderLen) < n*candidateLen {
		return nil, ErrCandidateShort
	}

	cs := make([]Candidate, 0, n)
	for i := 0; i < int(n); i++ {
		off := candidateHeaderLen + i*candidateLen

		bssid := make(net.HardwareAddr, 6)
		copy(bssid, b[off:off+6])
		flags := nlenc.Uint32(b[off+8 : off+12])

		cs = append(cs, Candidate{
			BSSID:    bssid,
			Flags:    flags,
			Preauth:  flags&CandidatePreauth != 0,
			Position: i,
		})
	}

	return cs, nil
}

// MarshalCandidateList encodes cs as an NDIS_802_11_PMKID_CANDIDATE_LIST of
// version 1. Position is ignored.
func MarshalCandidateList(cs []Candidate) []byte {
	b := make([]byte, candidateHeaderLen+len(cs)*candidateLen)
	nlenc.PutUint32(b[0:4], 1)
	nlenc.PutUint32(b[4:8], uint32(len(cs)))

	for i, c := range cs {
		off := candidateHeaderLen + i*candidateLen
		copy(b[off:off+6], c.BSSID)

		flags := c.Flags
		if c.Preauth {
			flags |= CandidatePreauth
		}
		nlenc.PutUint32(b[off+8:off+12], flags)
	}

	return b
}
