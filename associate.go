package ralink

import (
	"github.com/google/gopacket/layers"
	"github.com/mdlayher/netlink/nlenc"
	"github.com/mdlayher/ralink/internal/ndis"
	"github.com/mdlayher/ralink/internal/wext"
	"k8s.io/klog/v2"
)

// An assocState is the progress of a single association attempt.
type assocState int

const (
	assocIdle assocState = iota
	assocModeSet
	assocAuthConfigured
	assocKeyPolicySet
	assocCipherConfigured
	assocSSIDSet
)

func (s assocState) String() string {
	switch s {
	case assocIdle:
		return "idle"
	case assocModeSet:
		return "mode_set"
	case assocAuthConfigured:
		return "auth_configured"
	case assocKeyPolicySet:
		return "key_policy_set"
	case assocCipherConfigured:
		return "cipher_configured"
	case assocSSIDSet:
		return "ssid_set"
	default:
		return "unknown"
	}
}

// An association walks the driver through the OID sequence of one
// associate call. Every step but the last is best effort.
type association struct {
	d     *driver
	state assocState
}

func (a *association) advance(next assocState) {
	klog.V(4).Infof("ralink: %s: association %s -> %s", a.d.ifname, a.state, next)
	a.state = next
}

func (d *driver) associate(s *Session, p AssociationParams) error {
	if len(p.SSID) > wext.ESSIDMaxSize {
		return ErrSSIDTooLong
	}
	if s == nil {
		s = &Session{}
	}

	d.mu.Lock()
	defer d.unlock()

	if d.down {
		return ErrDriverDown
	}

	a := &association{d: d}

	mode := ndis.Infrastructure
	if p.Mode == ModeIBSS {
		mode = ndis.IBSS
	}
	d.trySetOID("set_infrastructure_mode", ndis.OIDInfrastructureMode, nlenc.Uint32Bytes(mode))
	a.advance(assocModeSet)

	if p.KeyMgmt == KeyMgmtWPS {
		// WPS negotiates its own security; only its IE is advertised.
		if err := d.ensureSupplicantSupport(ndis.SupplicantSupportWPS); err != nil {
			klog.V(2).Infof("ralink: %s: failed to enable WPS support: %v", d.ifname, err)
		}
		d.setGenIE(p.IE)

		d.setAuthMode(ndis.AuthModeOpen)
		a.advance(assocAuthConfigured)
		a.advance(assocKeyPolicySet)
		d.setEncryption(ndis.EncryptionDisabled)
		a.advance(assocCipherConfigured)
	} else {
		if err := d.ensureSupplicantSupport(d.cfg.supportMode()); err != nil {
			klog.V(2).Infof("ralink: %s: failed to enable supplicant support: %v", d.ifname, err)
		}
		d.setGenIE(nil)

		d.setAuthMode(authMode(p))
		a.advance(assocAuthConfigured)

		ieee8021x := p.KeyMgmt == KeyMgmt8021XNoWPA
		requireKey := !(ieee8021x && s.wepKeyInstalled)
		klog.V(4).Infof("ralink: %s: 802.1X=%t require key=%t", d.ifname, ieee8021x, requireKey)

		d.trySetOID("set_ieee8021x_require_key", ndis.OIDSetIEEE8021XRequireKey, boolean(requireKey))
		d.trySetOID("set_ieee8021x", ndis.OIDSetIEEE8021X, boolean(ieee8021x))
		a.advance(assocKeyPolicySet)

		encr := encryptionStatus(p.Pairwise, p.Group)
		d.setEncryption(encr)
		if !ieee8021x && encr == ndis.Encryption1Enabled {
			// Static WEP.
			d.trySetOID("set_drop_unencrypted", ndis.OIDDropUnencrypted, nlenc.Uint32Bytes(0))
		}
		a.advance(assocCipherConfigured)
	}

	if err := d.setOID("set_ssid", ndis.OIDSSID, ndis.SSID(p.SSID)); err != nil {
		return err
	}
	a.advance(assocSSIDSet)

	return nil
}

func (d *driver) setAuthMode(m ndis.AuthMode) {
	klog.V(4).Infof("ralink: %s: authentication mode %s", d.ifname, m)
	d.trySetOID("set_auth_mode", ndis.OIDAuthenticationMode, nlenc.Uint32Bytes(uint32(m)))
}

func (d *driver) setEncryption(s ndis.EncryptionStatus) {
	d.trySetOID("set_encryption", ndis.OIDWEPStatus, nlenc.Uint32Bytes(uint32(s)))
}

func (d *driver) setGenIE(ie []byte) {
	if err := d.ctl.SetGenIE(ie); err != nil {
		d.metrics.controlFailure("set_gen_ie")
		klog.V(2).Infof("ralink: %s: failed to set generic IE (%d bytes): %v", d.ifname, len(ie), err)
	}
}

// authMode selects the authentication mode from the advertised IE, falling
// back to the permitted algorithms when there is none.
func authMode(p AssociationParams) ndis.AuthMode {
	switch {
	case len(p.IE) == 0:
		if p.AuthAlg&AuthAlgShared == 0 {
			return ndis.AuthModeOpen
		}
		if p.AuthAlg&AuthAlgOpen != 0 {
			return ndis.AuthModeAutoSwitch
		}
		return ndis.AuthModeShared
	case p.IE[0] == uint8(layers.Dot11InformationElementIDRSNInfo):
		if p.KeyMgmt == KeyMgmtPSK {
			return ndis.AuthModeWPA2PSK
		}
		return ndis.AuthModeWPA2
	default:
		switch p.KeyMgmt {
		case KeyMgmtWPANone:
			return ndis.AuthModeWPANone
		case KeyMgmtPSK:
			return ndis.AuthModeWPAPSK
		default:
			return ndis.AuthModeWPA
		}
	}
}

// encryptionStatus maps the pairwise cipher, or the group cipher when no
// pairwise cipher is used, to an encryption level.
func encryptionStatus(pairwise, group Cipher) ndis.EncryptionStatus {
	c := pairwise
	if c == CipherNone {
		c = group
	}

	switch c {
	case CipherCCMP:
		return ndis.Encryption3Enabled
	case CipherTKIP:
		return ndis.Encryption2Enabled
	case CipherWEP40, CipherWEP104:
		return ndis.Encryption1Enabled
	default:
		return ndis.EncryptionDisabled
	}
}

// boolean encodes an NDIS BOOLEAN.
func boolean(b bool) []byte {
	if b {
		return []byte{1}
	}

	return []byte{0}
}
