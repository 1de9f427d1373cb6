// Package wext decodes the Linux wireless extensions event stream carried in
// IFLA_WIRELESS netlink attributes and SIOCGIWSCAN result buffers.
package wext

import (
	"math/bits"
)

// Wireless extensions ioctl and event numbers from linux/wireless.h.
const (
	SIOCGIWFREQ   = 0x8b05
	SIOCGIWMODE   = 0x8b07
	SIOCGIWAP     = 0x8b15
	SIOCSIWSCAN   = 0x8b18
	SIOCGIWSCAN   = 0x8b19
	SIOCGIWESSID  = 0x8b1b
	SIOCGIWRATE   = 0x8b21
	SIOCGIWENCODE = 0x8b2b
	SIOCSIWGENIE  = 0x8b30

	SIOCIWFIRSTPRIV = 0x8be0

	IWEVQUAL   = 0x8c01
	IWEVCUSTOM = 0x8c02
	IWEVGENIE  = 0x8c05
)

// Operating modes reported by SIOCGIWMODE.
const (
	ModeAuto   = 0
	ModeAdHoc  = 1
	ModeInfra  = 2
	ModeMaster = 3
)

const (
	// EncodeDisabled is set in SIOCGIWENCODE flags when encryption is off.
	EncodeDisabled = 0x8000

	// ESSIDMaxSize is the largest SSID the kernel will report.
	ESSIDMaxSize = 32

	// ScanMaxData is the initial SIOCGIWSCAN buffer size.
	ScanMaxData = 4096

	// ScanMaxBuffer is the largest SIOCGIWSCAN buffer representable in the
	// 16-bit iw_point length field.
	ScanMaxBuffer = 65535

	// NewPointVersion is the last wireless extensions version that carried
	// the user pointer of struct iw_point inside events. Later versions
	// elide it.
	NewPointVersion = 18
)

// unionLen is sizeof(union iwreq_data) on every supported architecture.
const unionLen = 16

// paramLen is sizeof(struct iw_param).
const paramLen = 8

// A Layout describes the architecture-dependent offsets of struct iw_event
// and struct iw_point.
type Layout struct {
	// LCPLen is the size of the {len, cmd} event prefix, including the
	// padding inserted before the union.
	LCPLen int

	// PointOff is the offset of the length field within struct iw_point.
	PointOff int

	// PointLen is the size of an event carrying a struct iw_point, without
	// its user pointer.
	PointLen int
}

// Layouts for 32-bit and 64-bit user space.
var (
	Layout32 = Layout{LCPLen: 4, PointOff: 4, PointLen: 8}
	Layout64 = Layout{LCPLen: 8, PointOff: 8, PointLen: 16}
)

// NativeLayout returns the Layout matching the running process.
func NativeLayout() Layout {
	if bits.UintSize == 64 {
		return Layout64
	}

	return Layout32
}

// isPoint reports whether cmd carries a struct iw_point payload.
func isPoint(cmd uint16) bool {
	switch cmd {
	case SIOCGIWESSID, SIOCGIWENCODE, IWEVGENIE, IWEVCUSTOM:
		return true
	}

	return false
}
