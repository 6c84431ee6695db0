//go:build windows
// +build windows

package integration

import (
	"errors"
	"os"
	"syscall"
)

const signalsSupported = false

var errNoSignal = errors.New("signal not supported on windows")

func getShutdownSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
	}
}

func getLifecycleSignals() []os.Signal {
	return nil
}

func isSIGTSTP(sig os.Signal) bool {
	return false
}

func sendSIGTSTP(proc *os.Process) error {
	return errNoSignal
}

func sendSIGCONT(proc *os.Process) error {
	return errNoSignal
}

func sendSIGTERM(proc *os.Process) error {
	return errNoSignal
}
