//go:build linux
// +build linux

package ralink

import (
	"errors"
	"net"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"
)

var (
	errInvalidCommand       = errors.New("invalid nl80211 response command")
	errInvalidFamilyVersion = errors.New("invalid nl80211 response family version")
)

// A client owns the Linux event and control channels of a Client.
type client struct {
	ctl controller
	mon *monitor
}

// newClient opens the control channel, starts the event monitor and
// initializes the driver. Both channels are closed if any step fails.
func newClient(ifname string, cfg *Config) (*driver, *client, error) {
	ctl, ifindex, err := newIoctlController(ifname)
	if err != nil {
		return nil, nil, err
	}

	d := newDriver(ifname, ifindex, ctl, cfg)

	mon, err := dialMonitor(d)
	if err != nil {
		_ = ctl.Close()
		return nil, nil, err
	}
	go mon.run()

	if err := d.init(); err != nil {
		d.abort()
		_ = mon.close()
		_ = ctl.Close()
		return nil, nil, err
	}

	klog.V(2).Infof("ralink: attached to %s (index %d)", ifname, ifindex)
	return d, &client{ctl: ctl, mon: mon}, nil
}

// Close stops the event monitor and then closes the control channel.
func (c *client) Close() error {
	return closeAll(c.mon.close, c.ctl.Close)
}

// An nl80211 lists wireless interfaces using generic netlink.
type nl80211 struct {
	c             *genetlink.Conn
	familyID      uint16
	familyVersion uint8
}

// newNL80211 dials a generic netlink connection and verifies that nl80211
// is available for use by this package.
func newNL80211() (*nl80211, error) {
	c, err := genetlink.Dial(nil)
	if err != nil {
		return nil, err
	}

	return initNL80211(c)
}

func initNL80211(c *genetlink.Conn) (*nl80211, error) {
	family, err := c.GetFamily(unix.NL80211_GENL_NAME)
	if err != nil {
		// Ensure the genl socket is closed on error to avoid leaking file
		// descriptors.
		_ = c.Close()
		return nil, err
	}

	return &nl80211{
		c:             c,
		familyID:      family.ID,
		familyVersion: family.Version,
	}, nil
}

// Close closes the generic netlink connection.
func (c *nl80211) Close() error { return c.c.Close() }

// Interfaces requests that nl80211 return a list of all WiFi interfaces present
// on this system.
func (c *nl80211) Interfaces() ([]*Interface, error) {
	msgs, err := c.c.Execute(
		genetlink.Message{
			Header: genetlink.Header{
				Command: unix.NL80211_CMD_GET_INTERFACE,
				Version: c.familyVersion,
			},
		},
		c.familyID,
		netlink.Request|netlink.Dump,
	)
	if err != nil {
		return nil, err
	}

	if err := c.checkMessages(msgs, unix.NL80211_CMD_NEW_INTERFACE); err != nil {
		return nil, err
	}

	return parseInterfaces(msgs)
}

// checkMessages verifies that response messages from generic netlink contain
// the command and family version we expect.
func (c *nl80211) checkMessages(msgs []genetlink.Message, command uint8) error {
	for _, m := range msgs {
		if m.Header.Command != command {
			return errInvalidCommand
		}

		if m.Header.Version != c.familyVersion {
			return errInvalidFamilyVersion
		}
	}

	return nil
}

// parseInterfaces parses zero or more Interfaces from nl80211 interface
// messages.
func parseInterfaces(msgs []genetlink.Message) ([]*Interface, error) {
	ifis := make([]*Interface, 0, len(msgs))
	for _, m := range msgs {
		ad, err := netlink.NewAttributeDecoder(m.Data)
		if err != nil {
			return nil, err
		}

		var ifi Interface
		for ad.Next() {
			switch ad.Type() {
			case unix.NL80211_ATTR_IFINDEX:
				ifi.Index = int(ad.Uint32())
			case unix.NL80211_ATTR_IFNAME:
				ifi.Name = ad.String()
			case unix.NL80211_ATTR_MAC:
				ifi.HardwareAddr = net.HardwareAddr(ad.Bytes())
			case unix.NL80211_ATTR_WIPHY:
				ifi.PHY = int(ad.Uint32())
			case unix.NL80211_ATTR_IFTYPE:
				// NOTE: InterfaceType copies the ordering of nl80211's interface type
				// constants.
				ifi.Type = InterfaceType(ad.Uint32())
			}
		}
		if err := ad.Err(); err != nil {
			return nil, err
		}

		ifis = append(ifis, &ifi)
	}

	return ifis, nil
}
