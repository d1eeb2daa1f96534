package action

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/deviceforge/devicesim/monitor"
)

// process models a single external process invocation backing a SCRIPT
// or COMMAND action. It wraps os/exec, captures stdout/stderr, and
// reports a non-zero exit status as an error.
type process struct {
	bin string
	cmd *exec.Cmd

	stdout bytes.Buffer
	stderr bytes.Buffer
}

// newScriptProcess builds the process for a SCRIPT action: it launches
// path directly, passing the access context as positional arguments in
// <addr> <size> <value> <access_type> order.
func newScriptProcess(path string, ctx monitor.Context) *process {
	return newProcess(path, []string{
		strconv.FormatUint(ctx.Addr, 10),
		strconv.Itoa(ctx.Size),
		strconv.FormatUint(ctx.Value, 10),
		strconv.Itoa(int(ctx.AccessType)),
	}...)
}

// newCommandProcess builds the process for a COMMAND action: it hands
// shellCmd to the host shell verbatim.
func newCommandProcess(shellCmd string) *process {
	return newProcess("/bin/sh", "-c", shellCmd)
}

func newProcess(bin string, args ...string) *process {
	/* #nosec */
	p := &process{bin: bin, cmd: exec.Command(bin, args...)} // nolint: gosec
	p.cmd.Stdout = &p.stdout
	p.cmd.Stderr = &p.stderr
	return p
}

// binExists checks whether the process's binary can be found, either as
// a path on disk or as something resolvable on $PATH.
func (p *process) binExists() bool {
	if _, err := os.Stat(p.bin); err == nil {
		return true
	}
	_, err := exec.LookPath(p.bin)
	return err == nil
}

// Stderr returns the captured stderr of the process, once run has completed.
func (p *process) Stderr() string {
	return p.stderr.String()
}

// run executes the process, blocking until it exits. A non-zero exit
// status (or a failure to even locate the binary) is returned as an error.
func (p *process) run() error {
	if !p.binExists() {
		return fmt.Errorf("unable to find binary or command: %s", p.bin)
	}
	return p.cmd.Run()
}
