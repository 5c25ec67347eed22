package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slatecast/slatecast/internal/device"
	"github.com/slatecast/slatecast/internal/rig"
)

// NewPingCommand creates the ping command
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping [name]",
		Short: "Hold a connection to one rig device and report its liveness",
		Long: `Connect to a single rig device and keep the connection open, printing
connect and disconnect transitions as the heartbeat protocol observes them.
Useful for checking a device before a session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(args[0])
		},
	}
}

func runPing(name string) error {
	mgr := rig.NewManager()
	if err := mgr.Load(); err != nil {
		return err
	}
	entry, ok := mgr.Get(name)
	if !ok {
		return fmt.Errorf("device %q not found in rig", name)
	}

	down := make(chan struct{}, 1)
	events := device.Events{
		OnConnected: func() {
			color.Green("%s: connected", name)
		},
		OnDisconnected: func() {
			color.Red("%s: disconnected", name)
			down <- struct{}{}
		},
	}

	conn, err := rig.Build(name, entry, events)
	if err != nil {
		return err
	}

	conn.Connect()
	defer conn.Disconnect()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	fmt.Printf("Holding connection to %s (%s %s)... press Ctrl-C to stop\n",
		name, entry.Kind, entry.Address)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			return nil
		case <-down:
			return fmt.Errorf("device %s went down", name)
		case <-ticker.C:
			// keep the loop responsive
		}
	}
}
