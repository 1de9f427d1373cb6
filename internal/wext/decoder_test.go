package wext

import (
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/netlink/nlenc"
)

func TestDecoderPointLayouts(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		version int
	}{
		{name: "32-bit legacy", layout: Layout32, version: 18},
		{name: "32-bit WE-19", layout: Layout32, version: 19},
		{name: "64-bit legacy", layout: Layout64, version: 18},
		{name: "64-bit WE-22", layout: Layout64, version: 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Encoder{Layout: tt.layout, Version: tt.version}
			e.Point(IWEVCUSTOM, 0x0101, []byte("hello"))
			e.Point(IWEVGENIE, 0, []byte{0xdd, 0x01, 0xff})

			type point struct {
				Cmd     uint16
				Flags   uint16
				Payload []byte
			}

			var got []point
			d := NewDecoder(e.Bytes(), tt.layout, tt.version)
			for d.Next() {
				ev := d.Event()
				got = append(got, point{Cmd: ev.Cmd, Flags: ev.Flags, Payload: ev.Payload})
			}
			if err := d.Err(); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}

			want := []point{
				{Cmd: IWEVCUSTOM, Flags: 0x0101, Payload: []byte("hello")},
				{Cmd: IWEVGENIE, Payload: []byte{0xdd, 0x01, 0xff}},
			}

			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("unexpected events (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecoderFixedEvents(t *testing.T) {
	e := &Encoder{Layout: Layout64, Version: 22}
	addr := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	e.Addr(addr)
	e.Mode(ModeAdHoc)
	e.Freq(241200000, 1)
	e.Quality(70, 200, 161)
	e.Rates(1000000, 54000000, 11000000)

	d := NewDecoder(e.Bytes(), Layout64, 22)

	if !d.Next() || d.Event().Cmd != SIOCGIWAP {
		t.Fatal("expected SIOCGIWAP record")
	}
	if diff := cmp.Diff(addr, d.Event().Addr()); diff != "" {
		t.Fatalf("unexpected address (-want +got):\n%s", diff)
	}

	if !d.Next() || d.Event().Cmd != SIOCGIWMODE {
		t.Fatal("expected SIOCGIWMODE record")
	}
	if want, got := uint32(ModeAdHoc), d.Event().Mode(); want != got {
		t.Fatalf("unexpected mode:\n- want: %d\n-  got: %d", want, got)
	}

	if !d.Next() || d.Event().Cmd != SIOCGIWFREQ {
		t.Fatal("expected SIOCGIWFREQ record")
	}
	if m, exp := d.Event().Freq(); m != 241200000 || exp != 1 {
		t.Fatalf("unexpected frequency: m=%d e=%d", m, exp)
	}

	if !d.Next() || d.Event().Cmd != IWEVQUAL {
		t.Fatal("expected IWEVQUAL record")
	}
	qual, level, noise := d.Event().Quality()
	if diff := cmp.Diff([]uint8{70, 200, 161}, []uint8{qual, level, noise}); diff != "" {
		t.Fatalf("unexpected quality (-want +got):\n%s", diff)
	}

	if !d.Next() || d.Event().Cmd != SIOCGIWRATE {
		t.Fatal("expected SIOCGIWRATE record")
	}
	if diff := cmp.Diff([]int32{1000000, 54000000, 11000000}, d.Event().Rates()); diff != "" {
		t.Fatalf("unexpected rates (-want +got):\n%s", diff)
	}

	if d.Next() {
		t.Fatal("expected end of buffer")
	}
}

func TestDecoderStopsOnShortLength(t *testing.T) {
	e := &Encoder{Layout: Layout32, Version: 22}
	e.Mode(ModeInfra)

	// A record which declares only its own header is malformed.
	b := append(e.Bytes(), make([]byte, 8)...)
	nlenc.PutUint16(b[len(b)-8:len(b)-6], 4)
	nlenc.PutUint16(b[len(b)-6:len(b)-4], SIOCGIWMODE)

	var n int
	d := NewDecoder(b, Layout32, 22)
	for d.Next() {
		n++
	}

	if want, got := 1, n; want != got {
		t.Fatalf("unexpected number of records:\n- want: %d\n-  got: %d", want, got)
	}
	if want, got := ErrMalformed, d.Err(); want != got {
		t.Fatalf("unexpected error:\n- want: %v\n-  got: %v", want, got)
	}
}

func TestDecoderTrailingBytesAreNotAnError(t *testing.T) {
	e := &Encoder{Layout: Layout32, Version: 22}
	e.Mode(ModeInfra)

	d := NewDecoder(append(e.Bytes(), 0xff, 0xff), Layout32, 22)
	for d.Next() {
	}

	if err := d.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecoderPointOverrun(t *testing.T) {
	e := &Encoder{Layout: Layout32, Version: 22}
	// Claim 200 bytes of payload but only supply 3.
	e.PointLength(IWEVCUSTOM, 200, 0x0101, []byte{1, 2, 3})

	d := NewDecoder(e.Bytes(), Layout32, 22)
	if !d.Next() {
		t.Fatal("expected a record")
	}

	ev := d.Event()
	if !ev.Overrun || ev.Payload != nil {
		t.Fatalf("expected overrun with no payload, got overrun=%v payload=%v",
			ev.Overrun, ev.Payload)
	}
}

func TestDecoderRecordLongerThanBuffer(t *testing.T) {
	e := &Encoder{Layout: Layout64, Version: 22}
	e.Mode(ModeInfra)

	// Inflate the declared length well past the end of the buffer.
	b := e.Bytes()
	nlenc.PutUint16(b[0:2], 0xfff0)

	d := NewDecoder(b, Layout64, 22)
	if !d.Next() {
		t.Fatal("expected a record")
	}
	if want, got := uint32(ModeInfra), d.Event().Mode(); want != got {
		t.Fatalf("unexpected mode:\n- want: %d\n-  got: %d", want, got)
	}
	if d.Next() {
		t.Fatal("expected decoding to stop at the end of the buffer")
	}
}

func FuzzDecoder(f *testing.F) {
	for _, layout := range []Layout{Layout32, Layout64} {
		for _, version := range []int{18, 22} {
			e := &Encoder{Layout: layout, Version: version}
			e.Addr(net.HardwareAddr{0x00, 0x0c, 0x43, 0x30, 0x52, 0x77})
			e.Point(SIOCGIWESSID, 1, []byte("ralink"))
			e.Freq(2412, 6)
			e.Quality(70, 200, 161)
			e.Rates(1000000, 54000000)
			e.Point(IWEVCUSTOM, 0x0101, []byte("hello"))
			e.Point(IWEVGENIE, 0, []byte{0xdd, 0x01, 0xff})

			b := e.Bytes()
			f.Add(b, layout == Layout64, uint8(version))

			// Truncated and oversized declared lengths.
			f.Add(b[:len(b)-3], layout == Layout64, uint8(version))
			big := append([]byte(nil), b...)
			nlenc.PutUint16(big[0:2], 0xffff)
			f.Add(big, layout == Layout64, uint8(version))

			e = &Encoder{Layout: layout, Version: version}
			e.PointLength(IWEVGENIE, 0xfff0, 0, []byte{0xdd})
			f.Add(e.Bytes(), layout == Layout64, uint8(version))
		}
	}

	f.Fuzz(func(t *testing.T, b []byte, wide bool, version uint8) {
		layout := Layout32
		if wide {
			layout = Layout64
		}

		d := NewDecoder(b, layout, int(version))
		for n := 0; d.Next(); n++ {
			// Every record consumes more than its header.
			if n > len(b) {
				t.Fatalf("decoder did not advance over %d bytes", len(b))
			}

			ev := d.Event()
			if len(ev.Raw) > len(b) || len(ev.Payload) > len(b) {
				t.Fatalf("record exceeds buffer: raw %d, payload %d, buffer %d",
					len(ev.Raw), len(ev.Payload), len(b))
			}
			if ev.Overrun && ev.Payload != nil {
				t.Fatal("overrun record carries a payload")
			}
			if len(ev.Payload) != 0 && int(ev.Length) != len(ev.Payload) {
				t.Fatalf("payload length %d does not match declared %d",
					len(ev.Payload), ev.Length)
			}

			// Accessors must stay within the fixed union.
			_ = ev.Addr()
			_ = ev.Mode()
			_, _ = ev.Freq()
			_, _, _ = ev.Quality()
			_ = ev.Rates()
		}
	})
}
