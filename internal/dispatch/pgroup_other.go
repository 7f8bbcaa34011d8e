//go:build !unix

package dispatch

func sameProcessGroup(int) bool { return false }
