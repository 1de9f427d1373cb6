//go:build linux
// +build linux

package ralink

import (
	"errors"
	"net"
	"sync/atomic"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"
)

// A monitor receives link notifications from rtnetlink and feeds them to a
// driver.
type monitor struct {
	c    *netlink.Conn
	d    *driver
	done chan struct{}

	closing     atomic.Bool
	dispatching atomic.Bool
}

// dialMonitor subscribes to the RTMGRP_LINK multicast group.
func dialMonitor(d *driver) (*monitor, error) {
	c, err := netlink.Dial(unix.NETLINK_ROUTE, &netlink.Config{
		Groups: unix.RTMGRP_LINK,
	})
	if err != nil {
		return nil, err
	}

	return &monitor{
		c:    c,
		d:    d,
		done: make(chan struct{}),
	}, nil
}

// run receives messages until the monitor is closed.
func (m *monitor) run() {
	defer close(m.done)

	for {
		msgs, err := m.c.Receive()
		if err != nil {
			if m.closing.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ENOBUFS) {
				continue
			}

			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}

			klog.Warningf("ralink: %s: netlink receive failed: %v", m.d.ifname, err)
			m.d.metrics.malformedInput(sourceNetlink)
			continue
		}

		m.dispatching.Store(true)
		m.d.handleMessages(msgs)
		m.dispatching.Store(false)
	}
}

// close stops run and waits for it to return. A Handler called from run
// may close the monitor; run then returns once the Handler does.
func (m *monitor) close() error {
	m.closing.Store(true)
	err := m.c.Close()
	if !m.dispatching.Load() {
		<-m.done
	}
	return err
}
