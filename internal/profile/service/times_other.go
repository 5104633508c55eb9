//go:build !linux

package service

import (
	"os"
	"time"
)

func fileTimes(fi os.FileInfo) (created, updated time.Time) {
	updated = fi.ModTime()
	return updated, updated
}
