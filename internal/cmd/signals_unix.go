//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

var daemonSignals = map[os.Signal]daemonAction{
	syscall.SIGINT:  actionStop,
	syscall.SIGTERM: actionStop,
	syscall.SIGHUP:  actionReload,
	syscall.SIGUSR1: actionToggle,
}
