// Package ralink implements the driver layer of a WPA supplicant for Ralink
// wireless adapters. It decodes the driver's wireless event stream into
// normalized Events and drives the adapter through association, key
// installation and scanning using the Ralink private ioctl interface.
package ralink

import (
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket/layers"
)

var (
	// ErrDriverDown is returned by every control operation while the driver
	// has reported that its interface is down.
	ErrDriverDown = errors.New("driver unavailable")

	// ErrSSIDTooLong is returned when a scan is requested for an SSID longer
	// than 32 bytes.
	ErrSSIDTooLong = errors.New("SSID exceeds 32 bytes")

	// ErrScanBufferLimit is returned when scan results do not fit in the
	// largest buffer the driver accepts.
	ErrScanBufferLimit = errors.New("scan results exceed maximum buffer size")

	// ErrNotSupported is returned by New when the driver rejects the
	// supplicant support handshake.
	ErrNotSupported = errors.New("driver does not support wpa_supplicant")
)

// errBufferTooSmall is returned by a controller when a scan result buffer
// cannot hold the driver's results.
var errBufferTooSmall = errors.New("buffer too small")

// broadcast is the all-ones hardware address.
var broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// An InterfaceType is the operating mode of an Interface.
type InterfaceType int

const (
	// InterfaceTypeUnspecified indicates that an interface's type is unspecified
	// and the driver determines its function.
	InterfaceTypeUnspecified InterfaceType = iota

	// InterfaceTypeAdHoc indicates that an interface is part of an independent
	// basic service set (BSS) of client devices without a controlling access
	// point.
	InterfaceTypeAdHoc

	// InterfaceTypeStation indicates that an interface is part of a managed
	// basic service set (BSS) of client devices with a controlling access point.
	InterfaceTypeStation

	// InterfaceTypeAP indicates that an interface is an access point.
	InterfaceTypeAP

	// InterfaceTypeAPVLAN indicates that an interface is a VLAN interface
	// bound to an access point.
	InterfaceTypeAPVLAN

	// InterfaceTypeWDS indicates that an interface is a wireless distribution
	// system link between access points.
	InterfaceTypeWDS

	// InterfaceTypeMonitor indicates that an interface is a monitor interface,
	// receiving all frames from all clients in a given network.
	InterfaceTypeMonitor

	// InterfaceTypeMeshPoint indicates that an interface is part of a wireless
	// mesh network.
	InterfaceTypeMeshPoint

	// InterfaceTypeP2PClient indicates that an interface is a client within
	// a peer-to-peer network.
	InterfaceTypeP2PClient

	// InterfaceTypeP2PGroupOwner indicates that an interface is the group
	// owner within a peer-to-peer network.
	InterfaceTypeP2PGroupOwner

	// InterfaceTypeP2PDevice indicates that an interface is a peer-to-peer
	// device without a group.
	InterfaceTypeP2PDevice
)

// String returns the string representation of an InterfaceType.
func (t InterfaceType) String() string {
	switch t {
	case InterfaceTypeUnspecified:
		return "unspecified"
	case InterfaceTypeAdHoc:
		return "ad-hoc"
	case InterfaceTypeStation:
		return "station"
	case InterfaceTypeAP:
		return "access point"
	case InterfaceTypeAPVLAN:
		return "access point/VLAN"
	case InterfaceTypeWDS:
		return "wireless distribution"
	case InterfaceTypeMonitor:
		return "monitor"
	case InterfaceTypeMeshPoint:
		return "mesh point"
	case InterfaceTypeP2PClient:
		return "P2P client"
	case InterfaceTypeP2PGroupOwner:
		return "P2P group owner"
	case InterfaceTypeP2PDevice:
		return "P2P device"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// An Interface is a wireless network interface as reported by nl80211.
type Interface struct {
	// The index of the interface.
	Index int

	// The name of the interface.
	Name string

	// The hardware address of the interface.
	HardwareAddr net.HardwareAddr

	// The physical device that this interface belongs to.
	PHY int

	// The operating mode of the interface.
	Type InterfaceType
}

// A Mode is the network type requested by an association.
type Mode int

// Possible Mode values.
const (
	ModeInfrastructure Mode = iota
	ModeIBSS
)

// A KeyMgmt is a key management suite.
type KeyMgmt int

// Possible KeyMgmt values.
const (
	KeyMgmtNone KeyMgmt = iota
	KeyMgmt8021X
	KeyMgmtPSK
	KeyMgmt8021XNoWPA
	KeyMgmtWPANone
	KeyMgmtWPS
)

// String returns the string representation of a KeyMgmt.
func (k KeyMgmt) String() string {
	switch k {
	case KeyMgmtNone:
		return "none"
	case KeyMgmt8021X:
		return "802.1X"
	case KeyMgmtPSK:
		return "PSK"
	case KeyMgmt8021XNoWPA:
		return "802.1X-no-WPA"
	case KeyMgmtWPANone:
		return "WPA-None"
	case KeyMgmtWPS:
		return "WPS"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// A Cipher is a pairwise or group cipher suite.
type Cipher int

// Possible Cipher values.
const (
	CipherNone Cipher = iota
	CipherWEP40
	CipherWEP104
	CipherTKIP
	CipherCCMP
)

// An AuthAlg is a bitmask of permitted 802.11 authentication algorithms.
type AuthAlg int

// Possible AuthAlg flags.
const (
	AuthAlgOpen AuthAlg = 1 << iota
	AuthAlgShared
	AuthAlgLEAP
)

// An Alg is a key algorithm.
type Alg int

// Possible Alg values.
const (
	AlgNone Alg = iota
	AlgWEP
	AlgTKIP
	AlgCCMP
)

// AssociationParams are the parameters of a single association attempt.
type AssociationParams struct {
	Mode     Mode
	SSID     []byte
	KeyMgmt  KeyMgmt
	Pairwise Cipher
	Group    Cipher
	AuthAlg  AuthAlg

	// IE is the raw WPA or RSN information element to advertise, or the
	// WPS IE when KeyMgmt is KeyMgmtWPS. It may be empty.
	IE []byte
}

// A Key describes a key to install or, when Alg is AlgNone or Material is
// empty, remove.
type Key struct {
	Alg Alg

	// Addr is the peer address of a pairwise key. A nil or broadcast Addr
	// selects a group key.
	Addr net.HardwareAddr

	Index    int
	Transmit bool

	// Seq is the receive sequence counter, least significant byte first.
	Seq      []byte
	Material []byte
}

// A Session carries state between the key installation and association
// calls of a single connection attempt. The zero value is ready to use.
type Session struct {
	wepKeyInstalled bool
}

// Capability bits of a ScanResult.
const (
	CapabilityESS     = 0x0001
	CapabilityIBSS    = 0x0002
	CapabilityPrivacy = 0x0010
)

// A ScanResult describes a single access point found by a scan.
type ScanResult struct {
	BSSID        net.HardwareAddr
	Capabilities uint16

	// Frequency in MHz.
	Frequency int

	Quality uint8
	Noise   uint8
	Level   uint8

	// IEs is a concatenation of information elements which always includes
	// an SSID element.
	IEs []byte
}

// SSID returns the SSID carried in r's information elements.
func (r *ScanResult) SSID() string {
	for _, e := range walkIEs(r.IEs) {
		if e.ID == uint8(layers.Dot11InformationElementIDSSID) {
			return string(e.Data)
		}
	}

	return ""
}

// FrequencyToChannel returns the channel number given the frequency in MHz, as
// defined by IEEE802.11-2007, 17.3.8.3.2 and Annex J.
func FrequencyToChannel(freq int) int {
	if freq == 2484 {
		return 14
	} else if freq < 2484 {
		return (freq - 2407) / 5
	} else if freq >= 4910 && freq <= 4980 {
		return (freq - 4000) / 5
	} else if freq <= 45000 {
		return (freq - 5000) / 5
	} else {
		return 0
	}
}

// channelToFrequency maps a 2.4GHz channel number to its frequency in MHz.
// Channels outside 1-14 map to 0.
func channelToFrequency(channel int) int {
	switch {
	case channel == 14:
		return 2484
	case channel >= 1 && channel <= 13:
		return 2407 + channel*5
	default:
		return 0
	}
}

// An ie is an 802.11 information element.
type ie struct {
	ID uint8
	// Length field implied by length of data
	Data []byte
}

// walkIEs returns the well-formed information elements at the start of b.
// Iteration stops at the first element which would run past the end of b.
func walkIEs(b []byte) []ie {
	var ies []ie
	for len(b) >= 2 {
		l := int(b[1])
		if len(b[2:]) < l {
			break
		}

		ies = append(ies, ie{
			ID:   b[0],
			Data: b[2 : 2+l],
		})

		b = b[2+l:]
	}

	return ies
}
