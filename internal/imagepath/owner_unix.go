//go:build unix

package imagepath

import (
	"os"

	"golang.org/x/sys/unix"
)

// preserveOwner carries src's uid/gid over to dst where permitted.
// Failure is not fatal: unprivileged processes routinely cannot chown.
func preserveOwner(src, dst string) {
	var st unix.Stat_t
	if err := unix.Stat(src, &st); err != nil {
		return
	}
	_ = os.Chown(dst, int(st.Uid), int(st.Gid))
}
