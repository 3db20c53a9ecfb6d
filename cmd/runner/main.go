// Command runner builds the kernel disk image and boots it under QEMU,
// or (for CI) drives the test matrix described by tests/qemu_config.yaml
// and reports pass/fail per the guest's isa-debug-exit code.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	noRun   bool
	testCfg string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "runner <kernel_binary>",
	Short: "Build the ferrite disk image and boot it under QEMU",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kernelBinary := args[0]

		diskImage, err := buildDiskImage(kernelBinary)
		if err != nil {
			return fmt.Errorf("building disk image: %w", err)
		}

		if noRun {
			fmt.Println(diskImage)
			return nil
		}

		cfg, err := loadTestConfig(testCfg)
		if err != nil {
			return fmt.Errorf("loading %s: %w", testCfg, err)
		}

		passed, err := runQEMU(diskImage, cfg.argsFor("boot"), verbose)
		if err != nil {
			return err
		}
		if !passed {
			return fmt.Errorf("kernel reported failure")
		}

		fmt.Println("boot: ok")
		return nil
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&noRun, "no-run", false, "build the disk image only and print its path")
	rootCmd.Flags().StringVar(&testCfg, "test-config", "tests/qemu_config.yaml", "path to the QEMU test matrix")
}
