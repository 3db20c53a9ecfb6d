package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// qemuMonitorPort and qemuGDBPort are the well-known ports the harness
// exposes so a developer can attach `telnet localhost 45454` for the
// monitor or `gdb -ex "target remote :1234"` while the kernel is running.
const (
	qemuMonitorPort = 45454
	qemuGDBPort     = 1234
)

// qemuExitPassCode is the process exit status QEMU's isa-debug-exit device
// produces for a 0x10 write to port 0xF4: (value << 1) | 1.
const qemuExitPassCode = 33

// runQEMU boots diskImage under QEMU with the given extra arguments,
// stdio wired to the kernel's serial console, and returns whether the
// guest reported success through the isa-debug-exit device.
func runQEMU(diskImage string, extraArgs []string, verbose bool) (bool, error) {
	args := []string{
		"qemu-system-x86_64",
		"-drive", fmt.Sprintf("file=%s,format=raw", diskImage),
		"-serial", "stdio",
		"-monitor", fmt.Sprintf("telnet:127.0.0.1:%d,server,nowait", qemuMonitorPort),
		"-gdb", fmt.Sprintf("tcp::%d", qemuGDBPort),
		"-device", "isa-debug-exit,iobase=0xf4,iosize=0x04",
		"-no-reboot",
		"-display", "none",
	}
	args = append(args, extraArgs...)

	if verbose {
		fmt.Fprintf(os.Stderr, "runner: exec %v\n", args)
	}

	binPath, err := findInPath(args[0])
	if err != nil {
		return false, err
	}

	pid, err := unix.ForkExec(binPath, args, &unix.ProcAttr{
		Env:   os.Environ(),
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd()},
	})
	if err != nil {
		return false, fmt.Errorf("starting qemu: %w", err)
	}

	var ws unix.WaitStatus
	for {
		if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
			if err == unix.EINTR {
				continue
			}
			return false, fmt.Errorf("waiting for qemu: %w", err)
		}
		break
	}

	if !ws.Exited() {
		return false, fmt.Errorf("qemu did not exit cleanly: %v", ws)
	}

	return ws.ExitStatus() == qemuExitPassCode, nil
}

// findInPath resolves name against $PATH the way exec(3) would, since
// unix.ForkExec (unlike os/exec.Command) requires an already-resolved
// executable path.
func findInPath(name string) (string, error) {
	for _, dir := range splitPath(os.Getenv("PATH")) {
		candidate := dir + "/" + name
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: not found in PATH", name)
}

func splitPath(path string) []string {
	var dirs []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == ':' {
			dirs = append(dirs, path[start:i])
			start = i + 1
		}
	}
	dirs = append(dirs, path[start:])
	return dirs
}
