package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slatecast/slatecast/internal/util"
	"github.com/slatecast/slatecast/internal/version"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "slatecast",
	Short: "Slatecast recording control CLI",
	Long: `Slatecast drives take recording on capture devices (OBS, Rokoko Studio,
REST capture boxes) from a single controller. Devices are declared in a rig
file and triggered together with shared slate/take metadata.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		util.InitLogger(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flag("version").Changed {
			info := version.ClientInfo()
			fmt.Printf("slatecast version %s, build %s\n", info["Version"], info["GitCommit"])
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information and exit")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewDevicesCommand())
	rootCmd.AddCommand(NewRecordCommand())
	rootCmd.AddCommand(NewPingCommand())
}
