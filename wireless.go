package ralink

import (
	"bytes"

	"github.com/mdlayher/ralink/internal/ndis"
	"github.com/mdlayher/ralink/internal/wext"
	"k8s.io/klog/v2"
)

// A customKind is the decoded flag of a Ralink custom wireless event.
type customKind int

const (
	customText customKind = iota
	customAssoc
	customDisassoc
	customReqIE
	customRespIE
	customAssocInfo
	customPMKIDCandidate
	customInterfaceDown
	customInterfaceUp
)

func (k customKind) String() string {
	switch k {
	case customText:
		return "text"
	case customAssoc:
		return "assoc"
	case customDisassoc:
		return "disassoc"
	case customReqIE:
		return "req_ie"
	case customRespIE:
		return "resp_ie"
	case customAssocInfo:
		return "assoc_info"
	case customPMKIDCandidate:
		return "pmkid_candidate"
	case customInterfaceDown:
		return "interface_down"
	case customInterfaceUp:
		return "interface_up"
	default:
		return "unknown"
	}
}

// parseCustomKind decodes the iw_point flags of an IWEVCUSTOM record. Any
// unrecognized flag carries a textual event.
func parseCustomKind(flags uint16) customKind {
	switch flags {
	case ndis.FlagAssoc:
		return customAssoc
	case ndis.FlagDisassoc:
		return customDisassoc
	case ndis.FlagReqIE:
		return customReqIE
	case ndis.FlagRespIE:
		return customRespIE
	case ndis.FlagAssocInfo:
		return customAssocInfo
	case ndis.FlagPMKIDCand:
		return customPMKIDCandidate
	case ndis.FlagInterfaceDn:
		return customInterfaceDown
	case ndis.FlagInterfaceUp:
		return customInterfaceUp
	default:
		return customText
	}
}

// handleWireless processes the payload of an IFLA_WIRELESS attribute.
func (d *driver) handleWireless(b []byte) {
	d.mu.Lock()
	defer d.unlock()

	if d.closed {
		return
	}

	dec := wext.NewDecoder(b, d.layout, d.version)
	for dec.Next() {
		ev := dec.Event()
		klog.V(4).Infof("ralink: %s: wireless event cmd=0x%04x len=%d", d.ifname, ev.Cmd, ev.Len)

		switch ev.Cmd {
		case wext.IWEVCUSTOM:
			if ev.Overrun {
				klog.V(2).Infof("ralink: %s: custom event length %d overruns buffer", d.ifname, ev.Length)
				d.metrics.malformedInput(sourceCustom)
				return
			}

			d.handleCustomLocked(parseCustomKind(ev.Flags), ev.Payload)
		case wext.SIOCGIWSCAN:
			// Scan complete; the timeout is no longer needed.
			d.cancelScanTimeoutLocked()
			d.emit(Event{Kind: EventScanResults})
		}
	}

	if err := dec.Err(); err != nil {
		klog.V(2).Infof("ralink: %s: %v", d.ifname, err)
		d.metrics.malformedInput(sourceWireless)
	}
}

// handleCustomLocked dispatches a single custom event.
func (d *driver) handleCustomLocked(kind customKind, payload []byte) {
	klog.V(4).Infof("ralink: %s: custom event %s (%d bytes)", d.ifname, kind, len(payload))

	switch kind {
	case customAssoc:
		d.emit(Event{Kind: EventAssociated})
	case customDisassoc:
		d.emit(Event{Kind: EventDisassociated})
	case customReqIE:
		d.reqIEs = append([]byte(nil), payload...)
	case customRespIE:
		d.respIEs = append([]byte(nil), payload...)
	case customAssocInfo:
		buf := make([]byte, 0, len(d.reqIEs)+len(d.respIEs)+1)
		buf = append(buf, d.reqIEs...)
		buf = append(buf, d.respIEs...)
		buf = append(buf, 0)

		d.handleTextLocked(buf)
		d.reqIEs, d.respIEs = nil, nil
	case customPMKIDCandidate:
		d.handleCandidatesLocked(payload)
	case customInterfaceDown:
		d.down = true
	case customInterfaceUp:
		d.down = false
		d.emit(Event{
			Kind:      EventInterfaceStatus,
			Interface: d.ifname,
		})

		if err := d.ensureSupplicantSupport(d.cfg.supportMode()); err != nil {
			klog.Warningf("ralink: %s: failed to re-enable supplicant support: %v", d.ifname, err)
		}
	case customText:
		buf := make([]byte, 0, len(payload)+1)
		buf = append(buf, payload...)
		buf = append(buf, 0)

		d.handleTextLocked(buf)
	}
}

func (d *driver) handleTextLocked(b []byte) {
	e, ok := parseCustomText(b, requestIELength(d.reqIEs))
	if !ok {
		klog.V(4).Infof("ralink: %s: ignoring custom text %q", d.ifname, cstring(b))
		return
	}

	d.emit(e)
}

func (d *driver) handleCandidatesLocked(b []byte) {
	cs, err := ndis.ParseCandidateList(b)
	if err != nil {
		klog.V(2).Infof("ralink: %s: dropping PMKID candidate list (%d bytes): %v", d.ifname, len(b), err)
		d.metrics.malformedInput(sourcePMKID)
		return
	}

	for _, c := range cs {
		klog.V(4).Infof("ralink: %s: PMKID candidate %d: %s flags=0x%x", d.ifname, c.Position, c.BSSID, c.Flags)
		d.emit(Event{
			Kind: EventPMKIDCandidate,
			Candidate: PMKIDCandidate{
				BSSID:   c.BSSID,
				Index:   c.Position,
				Preauth: c.Preauth,
			},
		})
	}
}

var (
	prefixMICFailure = []byte("MLME-MICHAELMICFAILURE.indication")
	prefixReqIEs     = []byte("ASSOCINFO_ReqIEs=")
	prefixRespIEs    = []byte(" RespIEs=")
)

// parseCustomText parses a NUL terminated textual custom event. The request
// IEs of an association info event may contain NUL bytes, so their length is
// given by reqLen rather than by the text.
func parseCustomText(b []byte, reqLen int) (Event, bool) {
	switch {
	case bytes.HasPrefix(b, prefixMICFailure):
		return Event{
			Kind:    EventMICFailure,
			Unicast: bytes.Contains(cstring(b), []byte(" unicast")),
		}, true
	case bytes.HasPrefix(b, prefixReqIEs):
		pos := b[len(prefixReqIEs):]

		n := reqLen
		if n > len(pos) {
			n = len(pos)
		}

		e := Event{
			Kind:   EventAssociationInfo,
			ReqIEs: append([]byte(nil), pos[:n]...),
		}

		// Skip the request IEs and their terminator, if any.
		pos = pos[n:]
		if len(pos) > 0 && pos[0] == 0 {
			pos = pos[1:]
		}

		if bytes.HasPrefix(pos, prefixRespIEs) {
			if resp := cstring(pos[len(prefixRespIEs):]); len(resp) > 0 {
				e.RespIEs = append([]byte(nil), resp...)
			}
		}

		return e, true
	default:
		return Event{}, false
	}
}

// requestIELength is the number of IE bytes in a stashed request IE blob.
// The driver sends the blob with its text prefix already attached.
func requestIELength(req []byte) int {
	if bytes.HasPrefix(req, prefixReqIEs) {
		return len(req) - len(prefixReqIEs)
	}

	return len(req)
}

// cstring returns b up to its first NUL byte.
func cstring(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}

	return b
}
