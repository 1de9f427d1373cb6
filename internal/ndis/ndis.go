// Package ndis contains the Ralink private ioctl OIDs, NDIS enumerations and
// encoders for the NDIS structures exchanged with the driver.
//
// WARNING: THESE VALUES ARE MANUALLY TRANSCRIBED FROM THE RALINK DRIVER
// HEADERS. THE DRIVER DOES NOT EXPORT THEM THROUGH ANY UAPI HEADER.
package ndis

// RTPrivIoctl is the Ralink private ioctl carrying every OID request:
// SIOCIWFIRSTPRIV + 0x01.
const RTPrivIoctl = 0x8be1

// GetSetToggle is OR'd into an OID to turn a query into a set request.
const GetSetToggle = 0x8000

// Object identifiers understood by RTPrivIoctl.
const (
	OIDSSID                   = 0x0102
	OIDInfrastructureMode     = 0x0103
	OIDAddWEP                 = 0x0104
	OIDRemoveWEP              = 0x0105
	OIDDisassociate           = 0x0106
	OIDAuthenticationMode     = 0x0107
	OIDWEPStatus              = 0x010a
	OIDAddKey                 = 0x0115
	OIDRemoveKey              = 0x0116
	OIDDeauthentication       = 0x0526
	OIDDropUnencrypted        = 0x0527
	OIDSetCountermeasures     = 0x0616
	OIDSetIEEE8021X           = 0x0617
	OIDSetIEEE8021XRequireKey = 0x0618
	OIDPMKID                  = 0x0620
	OIDWPASupplicantSupport   = 0x0621
	OIDWEVersionCompiled      = 0x0622
	OIDNewDriver              = 0x0623
	OIDWPSProbeReqIE          = 0x0625
)

// Values written to OIDWPASupplicantSupport.
const (
	SupplicantSupportDisabled = 0x00
	SupplicantSupportAPScan   = 0x01
	SupplicantSupportDriver   = 0x02
	SupplicantSupportWPS      = 0x80
)

// NDIS_802_11_NETWORK_INFRASTRUCTURE.
const (
	IBSS           uint32 = 0
	Infrastructure uint32 = 1
)

// An AuthMode is an NDIS_802_11_AUTHENTICATION_MODE value.
type AuthMode uint32

// Possible AuthMode values.
const (
	AuthModeOpen AuthMode = iota
	AuthModeShared
	AuthModeAutoSwitch
	AuthModeWPA
	AuthModeWPAPSK
	AuthModeWPANone
	AuthModeWPA2
	AuthModeWPA2PSK
)

// String returns the string representation of an AuthMode.
func (m AuthMode) String() string {
	switch m {
	case AuthModeOpen:
		return "open"
	case AuthModeShared:
		return "shared"
	case AuthModeAutoSwitch:
		return "auto-switch"
	case AuthModeWPA:
		return "WPA"
	case AuthModeWPAPSK:
		return "WPA-PSK"
	case AuthModeWPANone:
		return "WPA-None"
	case AuthModeWPA2:
		return "WPA2"
	case AuthModeWPA2PSK:
		return "WPA2-PSK"
	default:
		return "unknown"
	}
}

// An EncryptionStatus is an NDIS_802_11_WEP_STATUS value.
type EncryptionStatus uint32

// Possible EncryptionStatus values. Encryption1 is WEP, Encryption2 is TKIP
// and Encryption3 is CCMP.
const (
	Encryption1Enabled EncryptionStatus = iota
	EncryptionDisabled
	Encryption1KeyAbsent
	EncryptionNotSupported
	Encryption2Enabled
	Encryption2KeyAbsent
	Encryption3Enabled
	Encryption3KeyAbsent
)

// Custom wireless event flags carried in the iw_point flags of IWEVCUSTOM.
const (
	FlagAssoc       = 0x0101
	FlagDisassoc    = 0x0102
	FlagReqIE       = 0x0103
	FlagRespIE      = 0x0104
	FlagAssocInfo   = 0x0105
	FlagPMKIDCand   = 0x0106
	FlagInterfaceDn = 0x0107
	FlagInterfaceUp = 0x0108
)

// Key index flag bits of NDIS_802_11_KEY and NDIS_802_11_WEP.
const (
	KeyIndexTransmit uint32 = 1 << 31
	KeyIndexPairwise uint32 = 1 << 30
	KeyIndexRSC      uint32 = 1 << 29
)

// CandidatePreauth is set in a PMKID candidate's flags when the AP supports
// pre-authentication.
const CandidatePreauth = 0x01
