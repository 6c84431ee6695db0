//go:build !windows
// +build !windows

package integration

import (
	"os"
	"syscall"
)

const signalsSupported = true

func getShutdownSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

func getLifecycleSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGTSTP,
		syscall.SIGCONT,
	}
}

func isSIGTSTP(sig os.Signal) bool {
	return sig == syscall.SIGTSTP
}

func sendSIGTSTP(proc *os.Process) error {
	return proc.Signal(syscall.SIGTSTP)
}

func sendSIGCONT(proc *os.Process) error {
	return proc.Signal(syscall.SIGCONT)
}

func sendSIGTERM(proc *os.Process) error {
	return proc.Signal(syscall.SIGTERM)
}
