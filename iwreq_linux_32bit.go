//go:build linux && (386 || arm || mips || mipsle)
// +build linux
// +build 386 arm mips mipsle

package ralink

import "golang.org/x/sys/unix"

// iwreq is struct iwreq with its union viewed as an iw_point.
type iwreq struct {
	name [unix.IFNAMSIZ]byte
	data iwPoint
	_    [8]byte
}
