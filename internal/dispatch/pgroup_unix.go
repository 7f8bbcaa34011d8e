//go:build unix

package dispatch

import "golang.org/x/sys/unix"

func sameProcessGroup(pid int) bool {
	pgid, err := unix.Getpgid(pid)
	return err == nil && pgid == unix.Getpgrp()
}
