package ralink

import (
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"k8s.io/klog/v2"
)

// rtnetlink values from linux/rtnetlink.h and linux/if_link.h. They are
// declared here so message handling builds and is tested on every platform.
const (
	rtmNewLink   = 16
	iflaWireless = 11

	// ifInfoMsgLen is sizeof(struct ifinfomsg).
	ifInfoMsgLen = 16
)

// handleMessages processes a batch of rtnetlink link notifications.
func (d *driver) handleMessages(msgs []netlink.Message) {
	for _, m := range msgs {
		if m.Header.Type != rtmNewLink {
			continue
		}

		d.handleNewLink(m)
	}
}

// handleNewLink extracts every IFLA_WIRELESS attribute of an RTM_NEWLINK
// message for this driver's interface.
func (d *driver) handleNewLink(m netlink.Message) {
	if len(m.Data) < ifInfoMsgLen {
		klog.V(2).Infof("ralink: %s: short RTM_NEWLINK message (%d bytes)", d.ifname, len(m.Data))
		d.metrics.malformedInput(sourceNetlink)
		return
	}

	// struct ifinfomsg: family, pad, type, index, flags, change.
	if idx := int(nlenc.Int32(m.Data[4:8])); d.ifindex != 0 && idx != d.ifindex {
		return
	}

	ad, err := netlink.NewAttributeDecoder(m.Data[ifInfoMsgLen:])
	if err != nil {
		klog.V(2).Infof("ralink: %s: malformed RTM_NEWLINK attributes: %v", d.ifname, err)
		d.metrics.malformedInput(sourceNetlink)
		return
	}

	for ad.Next() {
		if ad.Type() == iflaWireless {
			d.handleWireless(ad.Bytes())
		}
	}

	if err := ad.Err(); err != nil {
		klog.V(2).Infof("ralink: %s: malformed RTM_NEWLINK attributes: %v", d.ifname, err)
		d.metrics.malformedInput(sourceNetlink)
	}
}
