package wext

import (
	"errors"
	"net"

	"github.com/mdlayher/netlink/nlenc"
)

// ErrMalformed is reported by Decoder.Err when a record declares a length no
// larger than its own header. Decoding stops at that record.
var ErrMalformed = errors.New("malformed wireless event record")

// An Event is a single decoded wireless event record.
type Event struct {
	// Cmd is the ioctl or event number.
	Cmd uint16

	// Len is the total record length declared by the driver.
	Len uint16

	// Length and Flags are the struct iw_point fields for commands which
	// carry a variable payload.
	Length uint16
	Flags  uint16

	// Payload holds the iw_point payload. It is nil when the declared
	// Length would run past the end of the source buffer; Overrun is set in
	// that case.
	Payload []byte
	Overrun bool

	// Raw holds the record bytes following the {len, cmd} prefix, clipped
	// to the end of the source buffer.
	Raw []byte

	u [unionLen]byte
}

// Addr returns the hardware address of a SIOCGIWAP record.
func (e *Event) Addr() net.HardwareAddr {
	// struct sockaddr: 16-bit family followed by the address bytes.
	addr := make(net.HardwareAddr, 6)
	copy(addr, e.u[2:8])
	return addr
}

// Mode returns the operating mode of a SIOCGIWMODE record.
func (e *Event) Mode() uint32 {
	return nlenc.Uint32(e.u[0:4])
}

// Freq returns the mantissa and exponent of a SIOCGIWFREQ record.
func (e *Event) Freq() (m int32, exp int16) {
	return nlenc.Int32(e.u[0:4]), int16(nlenc.Uint16(e.u[4:6]))
}

// Quality returns the link quality, signal level and noise level of an
// IWEVQUAL record.
func (e *Event) Quality() (qual, level, noise uint8) {
	return e.u[0], e.u[1], e.u[2]
}

// Rates returns every bit rate value of a SIOCGIWRATE record, in bits per
// second. Each value is a struct iw_param.
func (e *Event) Rates() []int32 {
	var rates []int32
	for b := e.Raw; len(b) >= paramLen; b = b[paramLen:] {
		rates = append(rates, nlenc.Int32(b[0:4]))
	}

	return rates
}

// A Decoder iterates over the records of a wireless event buffer. The zero
// value is not usable; use NewDecoder.
type Decoder struct {
	b       []byte
	pos     int
	layout  Layout
	version int

	ev  Event
	err error
}

// NewDecoder creates a Decoder over b. version is the negotiated wireless
// extensions version, which selects the iw_point layout of point events.
func NewDecoder(b []byte, layout Layout, version int) *Decoder {
	return &Decoder{
		b:       b,
		layout:  layout,
		version: version,
	}
}

// Next advances to the next record. It returns false when the buffer is
// exhausted or a malformed record is found; see Err.
func (d *Decoder) Next() bool {
	if d.err != nil {
		return false
	}

	lcp := d.layout.LCPLen
	end := len(d.b)
	if d.pos+lcp > end {
		return false
	}

	// The source buffer may be unaligned and short; build the record in a
	// zeroed local copy.
	ev := Event{
		Len: nlenc.Uint16(d.b[d.pos : d.pos+2]),
		Cmd: nlenc.Uint16(d.b[d.pos+2 : d.pos+4]),
	}
	if int(ev.Len) <= lcp {
		d.err = ErrMalformed
		return false
	}

	recEnd := d.pos + int(ev.Len)
	if recEnd > end {
		recEnd = end
	}
	ev.Raw = d.b[d.pos+lcp : recEnd]

	payloadOff := d.layout.PointLen + d.layout.PointOff
	if isPoint(ev.Cmd) && d.version > NewPointVersion {
		// The user pointer is elided: length and flags directly follow the
		// prefix and the payload follows them.
		copy(ev.u[d.layout.PointOff:], ev.Raw)
		payloadOff = d.layout.PointLen
	} else {
		copy(ev.u[:], ev.Raw)
	}

	if isPoint(ev.Cmd) {
		ev.Length = nlenc.Uint16(ev.u[d.layout.PointOff : d.layout.PointOff+2])
		ev.Flags = nlenc.Uint16(ev.u[d.layout.PointOff+2 : d.layout.PointOff+4])

		start := d.pos + payloadOff
		if start+int(ev.Length) > end {
			ev.Overrun = true
		} else {
			ev.Payload = d.b[start : start+int(ev.Length)]
		}
	}

	d.ev = ev
	d.pos += int(ev.Len)
	return true
}

// Event returns the current record. It is valid until the next call to Next
// and its slices alias the source buffer.
func (d *Decoder) Event() *Event {
	return &d.ev
}

// Err returns ErrMalformed if decoding stopped early on a malformed record.
func (d *Decoder) Err() error {
	return d.err
}
