//go:build !linux

package interrupt

import (
	"os"

	"github.com/kardianos/osext"
)

// Restart launches a fresh copy of the same binary and exits. Exec semantics
// are only available on linux.
func Restart() {
	log.D.Ln("restarting")
	file, e := osext.Executable()
	if e != nil {
		log.E.Ln(e)
		return
	}
	proc, e := os.StartProcess(file, os.Args, &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	if e != nil {
		log.F.Ln(e)
		return
	}
	_ = proc.Release()
	os.Exit(0)
}
