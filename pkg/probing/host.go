package probing

import (
	"os"

	"golang.org/x/sys/unix"
)

// HostInfo identifies the board a session ran on.
type HostInfo struct {
	Hostname      string `json:"hostname"`
	KernelName    string `json:"kernelName"`
	KernelRelease string `json:"kernelRelease"`
	Machine       string `json:"machine"`
}

// ReadHostInfo collects the hostname and uname fields. Missing values are
// left empty.
func ReadHostInfo() HostInfo {
	var h HostInfo
	h.Hostname, _ = os.Hostname()

	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		h.KernelName = unix.ByteSliceToString(uts.Sysname[:])
		h.KernelRelease = unix.ByteSliceToString(uts.Release[:])
		h.Machine = unix.ByteSliceToString(uts.Machine[:])
	}
	return h
}
