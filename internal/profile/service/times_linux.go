//go:build linux

package service

import (
	"os"
	"syscall"
	"time"
)

// fileTimes reads change and modification times from the inode. The change
// time stands in for creation, matching what the artifact's metadata exposes.
func fileTimes(fi os.FileInfo) (created, updated time.Time) {
	updated = fi.ModTime()
	created = updated
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		created = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return created, updated
}
