//go:build linux && (amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x)
// +build linux
// +build amd64 arm64 loong64 mips64 mips64le ppc64 ppc64le riscv64 s390x

package ralink

import "golang.org/x/sys/unix"

// iwreq is struct iwreq with its union viewed as an iw_point, which fills
// the whole 16 byte union.
type iwreq struct {
	name [unix.IFNAMSIZ]byte
	data iwPoint
}
