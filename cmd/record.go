package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/slatecast/slatecast/config"
	"github.com/slatecast/slatecast/internal/controller"
	"github.com/slatecast/slatecast/internal/rig"
	"github.com/slatecast/slatecast/internal/util"
)

type RecordOptions struct {
	Slate       string
	Take        int
	Description string
	Duration    time.Duration
}

// NewRecordCommand creates the record command
func NewRecordCommand() *cobra.Command {
	opts := &RecordOptions{}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a take on every enabled rig device",
		Long: `Connect to every enabled rig device, trigger start recording with the
given slate and take, then stop on Ctrl-C (or after --duration) and
disconnect.`,
		Example: `  slatecast record --slate INT_KITCHEN --take 3
  slatecast record --slate STUNT_04 --take 1 --duration 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Slate, "slate", "s", "", "Slate (scene) name for the take")
	flags.IntVarP(&opts.Take, "take", "t", 1, "Take number")
	flags.StringVarP(&opts.Description, "description", "d", "", "Free-form take description")
	flags.DurationVar(&opts.Duration, "duration", 0, "Stop automatically after this duration (default: wait for Ctrl-C)")
	cmd.MarkFlagRequired("slate")

	return cmd
}

func runRecord(opts *RecordOptions) error {
	util.InitFileLogger(config.GetLogPath(), verbose)

	sess, err := buildSession()
	if err != nil {
		return err
	}

	sess.ConnectAll()
	defer sess.DisconnectAll()

	if !sess.WaitConnected(10 * time.Second) {
		color.Yellow("Not all devices connected; recording on %d device(s)", sess.ConnectedCount())
	}
	if sess.ConnectedCount() == 0 {
		return fmt.Errorf("no devices connected")
	}

	sess.StartTake(opts.Slate, opts.Take, opts.Description)
	color.Green("Recording %s take %d on %d device(s)", opts.Slate, opts.Take, sess.ConnectedCount())

	waitForStop(opts.Duration)

	sess.StopTake()
	color.Green("Take stopped")

	// Give the workers a moment to drain the stop commands before the
	// deferred disconnect flips them off.
	time.Sleep(250 * time.Millisecond)
	return nil
}

// waitForStop blocks until the duration elapses or the user interrupts.
func waitForStop(duration time.Duration) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	if duration > 0 {
		select {
		case <-time.After(duration):
		case <-sig:
		}
		return
	}

	fmt.Println("Recording... press Ctrl-C to stop")
	<-sig
}

// buildSession loads the rig and wires every enabled device into a session.
func buildSession() (*controller.Session, error) {
	mgr := rig.NewManager()
	if err := mgr.Load(); err != nil {
		return nil, err
	}

	log := logrus.StandardLogger()
	sess := controller.NewSession(log)

	enabled := 0
	for _, name := range mgr.Names() {
		dev, _ := mgr.Get(name)
		if dev.Disabled {
			continue
		}
		conn, err := rig.Build(name, dev, sess.EventsFor(name))
		if err != nil {
			return nil, err
		}
		sess.Add(conn)
		enabled++
	}
	if enabled == 0 {
		return nil, fmt.Errorf("rig has no enabled devices")
	}
	return sess, nil
}
