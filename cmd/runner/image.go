package main

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// buildDiskImage assembles a bootable GRUB ISO around kernelBinary using
// grub-mkrescue, the conventional way to turn a multiboot2-compliant ELF
// into something QEMU can boot with -drive. It returns the path to the
// generated image.
func buildDiskImage(kernelBinary string) (string, error) {
	isoRoot, err := os.MkdirTemp("", "ferrite-iso-*")
	if err != nil {
		return "", err
	}

	bootDir := filepath.Join(isoRoot, "boot", "grub")
	if err := os.MkdirAll(bootDir, 0o755); err != nil {
		return "", err
	}

	kernelDest := filepath.Join(isoRoot, "boot", "kernel.elf")
	if err := copyFile(kernelBinary, kernelDest); err != nil {
		return "", fmt.Errorf("copying kernel binary: %w", err)
	}

	if err := os.WriteFile(filepath.Join(bootDir, "grub.cfg"), []byte(grubConfig), 0o644); err != nil {
		return "", err
	}

	imagePath := filepath.Join(os.TempDir(), "ferrite.iso")
	binPath, err := findInPath("grub-mkrescue")
	if err != nil {
		return "", err
	}

	args := []string{"grub-mkrescue", "-o", imagePath, isoRoot}
	pid, err := unix.ForkExec(binPath, args, &unix.ProcAttr{
		Env:   os.Environ(),
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd()},
	})
	if err != nil {
		return "", fmt.Errorf("starting grub-mkrescue: %w", err)
	}

	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		return "", fmt.Errorf("waiting for grub-mkrescue: %w", err)
	}
	if !ws.Exited() || ws.ExitStatus() != 0 {
		return "", fmt.Errorf("grub-mkrescue failed: %v", ws)
	}

	return imagePath, nil
}

const grubConfig = `set timeout=0
set default=0

menuentry "ferrite" {
	multiboot2 /boot/kernel.elf
	boot
}
`

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755)
}
