package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and kernel information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("process_trace %s (commit: %s, built: %s)\n", version, commit, date)

		var uts unix.Utsname
		if err := unix.Uname(&uts); err == nil {
			fmt.Printf("kernel: %s %s %s\n",
				unix.ByteSliceToString(uts.Sysname[:]),
				unix.ByteSliceToString(uts.Release[:]),
				unix.ByteSliceToString(uts.Machine[:]))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
