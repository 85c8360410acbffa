package cowfs

import (
	"bytes"

	"golang.org/x/sys/unix"
)

// KernelVersion returns the running kernel's release string (uname -r
// equivalent), recorded on every Snapshot at capture time.
func KernelVersion() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", err
	}
	return cString(uts.Release[:]), nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
