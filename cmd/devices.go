package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slatecast/slatecast/internal/rig"
	"github.com/slatecast/slatecast/internal/util"
)

// NewDevicesCommand creates the devices command with subcommands
func NewDevicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage the device rig",
		Long:  `Manage the rig file: the set of capture devices a recording session drives.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevicesList()
		},
	}

	cmd.AddCommand(newDevicesAddCommand())
	cmd.AddCommand(newDevicesRemoveCommand())

	return cmd
}

func runDevicesList() error {
	mgr := rig.NewManager()
	if err := mgr.Load(); err != nil {
		return err
	}

	names := mgr.Names()
	if len(names) == 0 {
		fmt.Println("No devices in rig. Add one with 'slatecast devices add'.")
		return nil
	}

	table := util.NewTable("NAME", "KIND", "ADDRESS", "STATE")
	for _, name := range names {
		dev, _ := mgr.Get(name)
		state := color.GreenString("enabled")
		if dev.Disabled {
			state = color.YellowString("disabled")
		}
		table.AddRow(name, dev.Kind, dev.Address, state)
	}
	table.Render(os.Stdout)
	return nil
}

func newDevicesAddCommand() *cobra.Command {
	var (
		kind         string
		address      string
		port         int
		secret       string
		disabled     bool
		triggerStart bool
		triggerStop  bool
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add or replace a rig device",
		Args:  cobra.ExactArgs(1),
		Example: `  slatecast devices add obs-main --kind obs --address 10.0.0.5
  slatecast devices add mocap --kind rokoko --address 10.0.0.9
  slatecast devices add capturebox --kind rest --address 10.0.0.12 --trigger-stop=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch kind {
			case rig.KindOBS, rig.KindRokoko, rig.KindREST:
			default:
				return fmt.Errorf("unknown device kind %q (want obs, rokoko or rest)", kind)
			}

			mgr := rig.NewManager()
			if err := mgr.Load(); err != nil {
				return err
			}
			mgr.Set(args[0], rig.Device{
				Kind:         kind,
				Address:      address,
				Port:         port,
				Secret:       secret,
				Disabled:     disabled,
				TriggerStart: &triggerStart,
				TriggerStop:  &triggerStop,
			})
			if err := mgr.Save(); err != nil {
				return err
			}
			fmt.Printf("Device %s added\n", color.CyanString(args[0]))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&kind, "kind", "k", "", "Device kind (obs, rokoko or rest)")
	flags.StringVarP(&address, "address", "a", "localhost", "Device network address")
	flags.IntVarP(&port, "port", "p", 0, "Device port (default: the kind's configured port)")
	flags.StringVar(&secret, "secret", "", "OBS password or REST API key (default: settings store)")
	flags.BoolVar(&disabled, "disabled", false, "Add the device but keep it out of sessions")
	flags.BoolVar(&triggerStart, "trigger-start", true, "Send start-recording commands to this device")
	flags.BoolVar(&triggerStop, "trigger-stop", true, "Send stop-recording commands to this device")
	cmd.MarkFlagRequired("kind")

	return cmd
}

func newDevicesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [name]",
		Short: "Remove a rig device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := rig.NewManager()
			if err := mgr.Load(); err != nil {
				return err
			}
			if !mgr.Remove(args[0]) {
				return fmt.Errorf("device %q not found in rig", args[0])
			}
			if err := mgr.Save(); err != nil {
				return err
			}
			fmt.Printf("Device %s removed\n", args[0])
			return nil
		},
	}
}
