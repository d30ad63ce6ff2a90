//go:build windows

package cmd

import "os"

var daemonSignals = map[os.Signal]daemonAction{
	os.Interrupt: actionStop,
}
