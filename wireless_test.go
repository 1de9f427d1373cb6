package ralink

import (
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/ralink/internal/ndis"
	"github.com/mdlayher/ralink/internal/wext"
	"github.com/prometheus/client_golang/prometheus/testutil"
	clocktesting "k8s.io/utils/clock/testing"
)

func Test_parseCustomText(t *testing.T) {
	tests := []struct {
		name   string
		b      []byte
		reqLen int
		want   Event
		ok     bool
	}{
		{
			name: "MIC failure unicast",
			b:    []byte("MLME-MICHAELMICFAILURE.indication(keyid=0 unicast addr=00:0c:43:30:52:77)\x00"),
			want: Event{Kind: EventMICFailure, Unicast: true},
			ok:   true,
		},
		{
			name: "MIC failure broadcast",
			b:    []byte("MLME-MICHAELMICFAILURE.indication(keyid=1 broadcast)\x00"),
			want: Event{Kind: EventMICFailure},
			ok:   true,
		},
		{
			name: "unicast after terminator",
			b:    []byte("MLME-MICHAELMICFAILURE.indication\x00 unicast"),
			want: Event{Kind: EventMICFailure},
			ok:   true,
		},
		{
			name:   "request IEs with embedded NUL",
			b:      []byte("ASSOCINFO_ReqIEs=\x00\x04ra\x00k\x00 RespIEs=\x01\x01\x82\x00"),
			reqLen: 6,
			want: Event{
				Kind:    EventAssociationInfo,
				ReqIEs:  []byte{0x00, 0x04, 'r', 'a', 0x00, 'k'},
				RespIEs: []byte{0x01, 0x01, 0x82},
			},
			ok: true,
		},
		{
			name:   "request IEs without terminator",
			b:      []byte("ASSOCINFO_ReqIEs=\x30\x02\x01\x00 RespIEs=\x01\x01\x82\x00"),
			reqLen: 4,
			want: Event{
				Kind:    EventAssociationInfo,
				ReqIEs:  []byte{0x30, 0x02, 0x01, 0x00},
				RespIEs: []byte{0x01, 0x01, 0x82},
			},
			ok: true,
		},
		{
			name:   "empty response IEs",
			b:      []byte("ASSOCINFO_ReqIEs=\x30\x00\x00 RespIEs=\x00"),
			reqLen: 2,
			want: Event{
				Kind:   EventAssociationInfo,
				ReqIEs: []byte{0x30, 0x00},
			},
			ok: true,
		},
		{
			name:   "request length exceeds buffer",
			b:      []byte("ASSOCINFO_ReqIEs=\x30\x01"),
			reqLen: 64,
			want: Event{
				Kind:   EventAssociationInfo,
				ReqIEs: []byte{0x30, 0x01},
			},
			ok: true,
		},
		{
			name: "unknown",
			b:    []byte("RSSI=-40\x00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCustomText(tt.b, tt.reqLen)
			if tt.ok != ok {
				t.Fatalf("unexpected ok:\n- want: %v\n-  got: %v", tt.ok, ok)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected event (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_parseCustomKind(t *testing.T) {
	tests := []struct {
		flags uint16
		want  customKind
	}{
		{flags: ndis.FlagAssoc, want: customAssoc},
		{flags: ndis.FlagDisassoc, want: customDisassoc},
		{flags: ndis.FlagReqIE, want: customReqIE},
		{flags: ndis.FlagRespIE, want: customRespIE},
		{flags: ndis.FlagAssocInfo, want: customAssocInfo},
		{flags: ndis.FlagPMKIDCand, want: customPMKIDCandidate},
		{flags: ndis.FlagInterfaceDn, want: customInterfaceDown},
		{flags: ndis.FlagInterfaceUp, want: customInterfaceUp},
		{flags: 0, want: customText},
		{flags: 0x0200, want: customText},
	}

	for _, tt := range tests {
		if got := parseCustomKind(tt.flags); tt.want != got {
			t.Fatalf("unexpected kind for 0x%04x:\n- want: %v\n-  got: %v", tt.flags, tt.want, got)
		}
	}
}

func TestDriverHandleWirelessAssociation(t *testing.T) {
	d, _, events := testDriver(t, nil)

	req := []byte{0x00, 0x04, 'r', 'a', 0x00, 'k'}
	resp := []byte{0x01, 0x02, 0x82, 0x84}

	e := encoder(d)
	e.Point(wext.IWEVCUSTOM, ndis.FlagAssoc, nil)
	e.Point(wext.IWEVCUSTOM, ndis.FlagReqIE, append([]byte("ASSOCINFO_ReqIEs="), req...))
	e.Point(wext.IWEVCUSTOM, ndis.FlagRespIE, append([]byte(" RespIEs="), resp...))
	e.Point(wext.IWEVCUSTOM, ndis.FlagAssocInfo, nil)
	e.Point(wext.IWEVCUSTOM, ndis.FlagDisassoc, nil)
	d.handleWireless(e.Bytes())

	want := []Event{
		{Kind: EventAssociated},
		{Kind: EventAssociationInfo, ReqIEs: req, RespIEs: resp},
		{Kind: EventDisassociated},
	}
	if diff := cmp.Diff(want, events.all()); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}

	if d.reqIEs != nil || d.respIEs != nil {
		t.Fatal("pending association info was not cleared")
	}
}

func TestDriverHandleWirelessResponseWithoutRequest(t *testing.T) {
	d, _, events := testDriver(t, nil)

	e := encoder(d)
	e.Point(wext.IWEVCUSTOM, ndis.FlagRespIE, []byte(" RespIEs=\x01\x01\x82"))
	e.Point(wext.IWEVCUSTOM, ndis.FlagAssocInfo, nil)
	d.handleWireless(e.Bytes())

	// Without a request blob the combined text carries no known prefix.
	if diff := cmp.Diff([]Event(nil), events.all()); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}
	if d.respIEs != nil {
		t.Fatal("pending response IEs were not cleared")
	}
}

func TestDriverHandleWirelessText(t *testing.T) {
	d, _, events := testDriver(t, nil)

	d.handleWireless(customEvent(d, 0, []byte("MLME-MICHAELMICFAILURE.indication unicast")))
	d.handleWireless(customEvent(d, 0, []byte("unrelated driver chatter")))

	want := []Event{{Kind: EventMICFailure, Unicast: true}}
	if diff := cmp.Diff(want, events.all()); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}
}

func TestDriverHandleWirelessPMKIDCandidates(t *testing.T) {
	d, _, events := testDriver(t, nil)

	a := net.HardwareAddr{0x00, 0x0c, 0x43, 0x30, 0x52, 0x77}
	b := net.HardwareAddr{0x00, 0x0c, 0x43, 0x30, 0x52, 0x78}

	list := ndis.MarshalCandidateList([]ndis.Candidate{
		{BSSID: a, Flags: ndis.CandidatePreauth},
		{BSSID: b},
	})
	d.handleWireless(customEvent(d, ndis.FlagPMKIDCand, list))

	// Wrong version; dropped.
	bad := append([]byte(nil), list...)
	bad[0] = 2
	d.handleWireless(customEvent(d, ndis.FlagPMKIDCand, bad))

	want := []Event{
		{Kind: EventPMKIDCandidate, Candidate: PMKIDCandidate{BSSID: a, Index: 0, Preauth: true}},
		{Kind: EventPMKIDCandidate, Candidate: PMKIDCandidate{BSSID: b, Index: 1}},
	}
	if diff := cmp.Diff(want, events.all()); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}

	if want, got := 1.0, testutil.ToFloat64(d.metrics.malformed.WithLabelValues(sourcePMKID)); want != got {
		t.Fatalf("unexpected malformed count:\n- want: %v\n-  got: %v", want, got)
	}
}

func TestDriverHandleWirelessInterfaceStatus(t *testing.T) {
	d, ctl, events := testDriver(t, &Config{APScan: 1})

	d.handleWireless(customEvent(d, ndis.FlagInterfaceDn, nil))
	if !d.isDown() {
		t.Fatal("driver should be down")
	}

	d.handleWireless(customEvent(d, ndis.FlagInterfaceUp, nil))
	if d.isDown() {
		t.Fatal("driver should be up")
	}

	want := []Event{{Kind: EventInterfaceStatus, Interface: "ra0"}}
	if diff := cmp.Diff(want, events.all()); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}

	wantWrites := []oidWrite{
		{OID: ndis.OIDWPASupplicantSupport, Data: []byte{ndis.SupplicantSupportAPScan}},
	}
	if diff := cmp.Diff(wantWrites, ctl.writes()); diff != "" {
		t.Fatalf("unexpected OID writes (-want +got):\n%s", diff)
	}
}

func TestDriverHandleWirelessMalformed(t *testing.T) {
	d, _, events := testDriver(t, nil)

	e := encoder(d)
	e.Point(wext.IWEVCUSTOM, ndis.FlagAssoc, nil)
	// The declared length runs past the record.
	e.PointLength(wext.IWEVCUSTOM, 200, ndis.FlagDisassoc, []byte("short"))
	e.Point(wext.IWEVCUSTOM, ndis.FlagAssoc, nil)
	d.handleWireless(e.Bytes())

	want := []Event{{Kind: EventAssociated}}
	if diff := cmp.Diff(want, events.all()); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}

	if want, got := 1.0, testutil.ToFloat64(d.metrics.malformed.WithLabelValues(sourceCustom)); want != got {
		t.Fatalf("unexpected malformed count:\n- want: %v\n-  got: %v", want, got)
	}

	// A record no longer than its own header is reported by the decoder.
	e = encoder(d)
	e.Raw(wext.IWEVCUSTOM, nil)
	d.handleWireless(e.Bytes())
	if want, got := 1.0, testutil.ToFloat64(d.metrics.malformed.WithLabelValues(sourceWireless)); want != got {
		t.Fatalf("unexpected malformed count:\n- want: %v\n-  got: %v", want, got)
	}
}

func TestDriverHandleWirelessScanComplete(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Unix(0, 0))
	d, _, events := testDriver(t, &Config{Clock: clk})

	if err := d.scan(nil); err != nil {
		t.Fatalf("failed to scan: %v", err)
	}

	e := encoder(d)
	e.Point(wext.SIOCGIWSCAN, 0, nil)
	d.handleWireless(e.Bytes())

	// The timeout was cancelled by the completion event.
	clk.Step(defaultScanTimeout)

	want := []Event{{Kind: EventScanResults}}
	if diff := cmp.Diff(want, events.all()); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}
}

func TestDriverHandleWirelessClosed(t *testing.T) {
	d, _, events := testDriver(t, nil)
	d.abort()

	d.handleWireless(customEvent(d, ndis.FlagAssoc, nil))

	if diff := cmp.Diff([]Event(nil), events.all()); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}
}

func TestDriverHandlerMayCallBack(t *testing.T) {
	var ssid []byte
	d, ctl, _ := testDriver(t, &Config{})
	ctl.ssid = []byte("ralink")

	// Swap in a handler which re-enters the driver.
	d.cfg.Handler = HandlerFunc(func(e Event) {
		if e.Kind != EventAssociated {
			return
		}

		var err error
		if ssid, err = d.ssid(); err != nil {
			t.Errorf("failed to get SSID from handler: %v", err)
		}
	})

	d.handleWireless(customEvent(d, ndis.FlagAssoc, nil))

	if diff := cmp.Diff([]byte("ralink"), ssid); diff != "" {
		t.Fatalf("unexpected SSID (-want +got):\n%s", diff)
	}
}
