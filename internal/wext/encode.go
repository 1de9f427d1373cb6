package wext

import (
	"net"

	"github.com/mdlayher/netlink/nlenc"
)

// An Encoder builds wireless event buffers in the same format a driver
// produces them. It is the inverse of Decoder.
type Encoder struct {
	Layout  Layout
	Version int

	b []byte
}

// Bytes returns the encoded buffer.
func (e *Encoder) Bytes() []byte {
	return e.b
}

// Event appends a record with a fixed union payload.
func (e *Encoder) Event(cmd uint16, union []byte) {
	u := make([]byte, unionLen)
	copy(u, union)
	e.record(cmd, u)
}

// Raw appends a record whose body is exactly body, with no union padding.
func (e *Encoder) Raw(cmd uint16, body []byte) {
	e.record(cmd, body)
}

// Point appends a record carrying a struct iw_point payload.
func (e *Encoder) Point(cmd uint16, flags uint16, payload []byte) {
	e.point(cmd, uint16(len(payload)), flags, payload)
}

// PointLength appends a point record whose declared length differs from
// the payload actually present, as a misbehaving driver might.
func (e *Encoder) PointLength(cmd uint16, length, flags uint16, payload []byte) {
	e.point(cmd, length, flags, payload)
}

// Addr appends a SIOCGIWAP record.
func (e *Encoder) Addr(addr net.HardwareAddr) {
	u := make([]byte, unionLen)
	copy(u[2:8], addr)
	e.record(SIOCGIWAP, u)
}

// Mode appends a SIOCGIWMODE record.
func (e *Encoder) Mode(mode uint32) {
	e.Event(SIOCGIWMODE, nlenc.Uint32Bytes(mode))
}

// Freq appends a SIOCGIWFREQ record.
func (e *Encoder) Freq(m int32, exp int16) {
	u := make([]byte, 8)
	nlenc.PutInt32(u[0:4], m)
	nlenc.PutUint16(u[4:6], uint16(exp))
	e.Event(SIOCGIWFREQ, u)
}

// Quality appends an IWEVQUAL record.
func (e *Encoder) Quality(qual, level, noise uint8) {
	e.Event(IWEVQUAL, []byte{qual, level, noise, 0})
}

// Rates appends a SIOCGIWRATE record listing rates in bits per second.
func (e *Encoder) Rates(rates ...int32) {
	body := make([]byte, paramLen*len(rates))
	for i, r := range rates {
		nlenc.PutInt32(body[i*paramLen:i*paramLen+4], r)
	}
	if len(body) < unionLen {
		body = append(body, make([]byte, unionLen-len(body))...)
	}

	e.record(SIOCGIWRATE, body)
}

func (e *Encoder) point(cmd, length, flags uint16, payload []byte) {
	var body []byte
	if e.Version > NewPointVersion {
		body = make([]byte, e.Layout.PointLen-e.Layout.LCPLen)
		nlenc.PutUint16(body[0:2], length)
		nlenc.PutUint16(body[2:4], flags)
	} else {
		// The user pointer is present but meaningless; leave it zeroed.
		body = make([]byte, e.Layout.PointLen+e.Layout.PointOff-e.Layout.LCPLen)
		nlenc.PutUint16(body[e.Layout.PointOff:e.Layout.PointOff+2], length)
		nlenc.PutUint16(body[e.Layout.PointOff+2:e.Layout.PointOff+4], flags)
	}

	e.record(cmd, append(body, payload...))
}

func (e *Encoder) record(cmd uint16, body []byte) {
	hdr := make([]byte, e.Layout.LCPLen)
	nlenc.PutUint16(hdr[0:2], uint16(len(hdr)+len(body)))
	nlenc.PutUint16(hdr[2:4], cmd)

	e.b = append(e.b, hdr...)
	e.b = append(e.b, body...)
}
