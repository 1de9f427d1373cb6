//go:build linux
// +build linux

package ralink

import (
	"errors"
	"net"
	"os"
	"runtime"
	"unsafe"

	"github.com/mdlayher/ralink/internal/ndis"
	"github.com/mdlayher/ralink/internal/wext"
	"golang.org/x/sys/unix"
)

var _ controller = &ioctlController{}

// iwPoint is struct iw_point.
type iwPoint struct {
	pointer unsafe.Pointer
	length  uint16
	flags   uint16
}

// iwreqAddr is struct iwreq with its union viewed as a struct sockaddr.
type iwreqAddr struct {
	name   [unix.IFNAMSIZ]byte
	family uint16
	data   [14]byte
}

// An ioctlController issues wireless extensions and Ralink private ioctls
// on a datagram socket.
type ioctlController struct {
	fd     int
	ifname string
}

// newIoctlController opens the ioctl socket and resolves ifname's index.
func newIoctlController(ifname string) (*ioctlController, int, error) {
	if len(ifname) >= unix.IFNAMSIZ {
		return nil, 0, unix.EINVAL
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, 0, os.NewSyscallError("socket", err)
	}

	ifr, err := unix.NewIfreq(ifname)
	if err != nil {
		_ = unix.Close(fd)
		return nil, 0, err
	}
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFINDEX, ifr); err != nil {
		_ = unix.Close(fd)
		return nil, 0, &net.OpError{Op: "ioctl", Net: ifname, Err: os.NewSyscallError("SIOCGIFINDEX", err)}
	}

	return &ioctlController{
		fd:     fd,
		ifname: ifname,
	}, int(ifr.Uint32()), nil
}

func (c *ioctlController) Close() error { return unix.Close(c.fd) }

func (c *ioctlController) request() iwreq {
	var req iwreq
	copy(req.name[:], c.ifname)
	return req
}

// point issues req with an iw_point referencing b and returns the length
// reported back by the driver.
func (c *ioctlController) point(name string, req uint, flags uint16, b []byte) (int, error) {
	iwr := c.request()
	iwr.data.length = uint16(len(b))
	iwr.data.flags = flags
	if len(b) > 0 {
		iwr.data.pointer = unsafe.Pointer(&b[0])
	}

	err := c.ioctl(req, unsafe.Pointer(&iwr))
	runtime.KeepAlive(b)
	if err != nil {
		return 0, os.NewSyscallError(name, err)
	}

	return int(iwr.data.length), nil
}

func (c *ioctlController) ioctl(req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}

	return nil
}

func (c *ioctlController) SetOID(oid uint16, b []byte) error {
	// The driver may write to the buffer; never hand it the caller's.
	buf := append([]byte(nil), b...)
	_, err := c.point("RT_PRIV_IOCTL", ndis.RTPrivIoctl, oid|ndis.GetSetToggle, buf)
	return err
}

func (c *ioctlController) QueryOID(oid uint16, b []byte) error {
	_, err := c.point("RT_PRIV_IOCTL", ndis.RTPrivIoctl, oid, b)
	return err
}

func (c *ioctlController) BSSID() (net.HardwareAddr, error) {
	var req iwreqAddr
	copy(req.name[:], c.ifname)

	if err := c.ioctl(wext.SIOCGIWAP, unsafe.Pointer(&req)); err != nil {
		return nil, os.NewSyscallError("SIOCGIWAP", err)
	}

	addr := make(net.HardwareAddr, 6)
	copy(addr, req.data[:6])
	return addr, nil
}

func (c *ioctlController) SSID(b []byte) (int, error) {
	return c.point("SIOCGIWESSID", wext.SIOCGIWESSID, 0, b)
}

func (c *ioctlController) TriggerScan() error {
	iwr := c.request()
	if err := c.ioctl(wext.SIOCSIWSCAN, unsafe.Pointer(&iwr)); err != nil {
		return os.NewSyscallError("SIOCSIWSCAN", err)
	}

	return nil
}

func (c *ioctlController) ScanResults(b []byte) (int, error) {
	n, err := c.point("SIOCGIWSCAN", wext.SIOCGIWSCAN, 0, b)
	if errors.Is(err, unix.E2BIG) {
		return 0, errBufferTooSmall
	}

	return n, err
}

func (c *ioctlController) SetGenIE(ie []byte) error {
	_, err := c.point("SIOCSIWGENIE", wext.SIOCSIWGENIE, 0, ie)
	return err
}

func (c *ioctlController) SetUp(up bool) error {
	ifr, err := unix.NewIfreq(c.ifname)
	if err != nil {
		return err
	}
	if err := unix.IoctlIfreq(c.fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return os.NewSyscallError("SIOCGIFFLAGS", err)
	}

	flags := ifr.Uint16()
	if up {
		flags |= unix.IFF_UP
	} else {
		flags &^= unix.IFF_UP
	}
	ifr.SetUint16(flags)

	if err := unix.IoctlIfreq(c.fd, unix.SIOCSIFFLAGS, ifr); err != nil {
		return os.NewSyscallError("SIOCSIFFLAGS", err)
	}

	return nil
}
