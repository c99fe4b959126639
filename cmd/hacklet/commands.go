package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/hacklet/internal/config"
	"github.com/muurk/hacklet/internal/dongle"
	"github.com/muurk/hacklet/internal/serial"
	"github.com/muurk/hacklet/internal/ui"
)

// Command flags
var (
	devicePath     string
	debugOutput    bool
	networkArg     string
	socketArg      uint16
	listenSeconds  int
	dongleNotFound = []string{
		"Plug in the Modlet USB dongle and try again",
		"Check that the FTDI serial driver is loaded",
		"Use --device to point at the serial port directly (e.g. /dev/ttyUSB0)",
	}
)

func init() {
	// Common flags for dongle commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&devicePath, "device", "", "Serial port of the dongle (skips USB discovery)")
	rootCmd.PersistentFlags().BoolVarP(&debugOutput, "debug", "d", false, "Enable debug logging (raw frame dumps)")

	for _, cmd := range []*cobra.Command{onCmd, offCmd, readCmd} {
		cmd.Flags().StringVarP(&networkArg, "network", "n", "", "Network id in hex (e.g. 0xa1b2)")
		cmd.Flags().Uint16VarP(&socketArg, "socket", "s", 0, "Socket number on the outlet (0 or 1)")
		_ = cmd.MarkFlagRequired("network")
	}
	commissionCmd.Flags().IntVar(&listenSeconds, "timeout", int(dongle.DefaultCommissionTimeout/time.Second),
		"Seconds to listen for a new outlet")

	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(commissionCmd)
	rootCmd.AddCommand(networksCmd)
}

// onCmd switches one socket on
var onCmd = &cobra.Command{
	Use:   "on",
	Short: "Switch a socket on",
	Long: `Switch one socket of a commissioned outlet on.

The socket stays on until it is switched off again.`,
	Example: `  # Switch socket 0 of network 0xa1b2 on
  hacklet on -n 0xa1b2 -s 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch(true)
	},
}

// offCmd switches one socket off
var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Switch a socket off",
	Long: `Switch one socket of a commissioned outlet off.

The socket stays off until it is switched on again.`,
	Example: `  # Switch socket 1 of network 0xa1b2 off
  hacklet off -n 0xa1b2 -s 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch(false)
	},
}

// readCmd reads the power samples one socket has recorded
var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read power samples from a socket",
	Long: `Read the power samples one socket has recorded since the last read.

Outlets buffer a sample roughly every ten seconds; each read drains
the returned samples from the outlet's buffer.`,
	Example: `  # Read samples from socket 0 of network 0xa1b2
  hacklet read -n 0xa1b2 -s 0`,
	RunE: runRead,
}

// commissionCmd pairs a new outlet
var commissionCmd = &cobra.Command{
	Use:   "commission",
	Short: "Pair a new outlet",
	Long: `Unlock the radio network and listen for a new outlet to announce itself.

Press the button on the outlet while this command is listening. A
discovered outlet gets its clock synced and is recorded in the local
registry. Hearing nothing before the timeout is not an error.`,
	Example: `  # Listen for 30 seconds (default)
  hacklet commission

  # Listen longer
  hacklet commission --timeout 60`,
	RunE: runCommission,
}

// networksCmd lists the registry of commissioned outlets
var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List commissioned outlets",
	Long:  `List the outlets previously commissioned from this machine.`,
	RunE:  runNetworks,
}

func runSwitch(on bool) error {
	networkID, err := parseNetworkID(networkArg)
	if err != nil {
		return err
	}

	session, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	if err := session.LockNetwork(); err != nil {
		return err
	}
	if err := session.SelectNetwork(networkID); err != nil {
		return err
	}
	if err := session.SwitchSocket(networkID, socketArg, on); err != nil {
		return err
	}

	state := "off"
	if on {
		state = "on"
	}
	fmt.Printf("Socket %d on network 0x%04x is now %s\n", socketArg, networkID, state)
	return nil
}

func runRead(cmd *cobra.Command, args []string) error {
	networkID, err := parseNetworkID(networkArg)
	if err != nil {
		return err
	}

	session, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	if err := session.LockNetwork(); err != nil {
		return err
	}
	if err := session.SelectNetwork(networkID); err != nil {
		return err
	}
	resp, err := session.ReadSamples(networkID, socketArg)
	if err != nil {
		return err
	}

	fmt.Println(ui.RenderSamples(networkID, socketArg, resp))
	return nil
}

func runCommission(cmd *cobra.Command, args []string) error {
	session, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	fmt.Printf("Listening for new outlets for %ds. Press the button on the outlet now...\n", listenSeconds)

	result, err := session.Commission(time.Duration(listenSeconds) * time.Second)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println("No outlet announced itself before the timeout.")
		fmt.Println("Hold the outlet's button until its light blinks, then try again.")
		return nil
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}
	registry.RecordNetwork(result.NetworkID, result.DeviceID)
	if err := registry.Save(); err != nil {
		return err
	}

	fmt.Println(ui.RenderSuccess("Outlet commissioned",
		ui.Detail{Key: "Network", Value: fmt.Sprintf("0x%04x", result.NetworkID)},
		ui.Detail{Key: "Device", Value: fmt.Sprintf("0x%x", result.DeviceID)},
	))
	return nil
}

func runNetworks(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}
	fmt.Println(ui.RenderNetworks(registry))
	return nil
}

// openSession claims the dongle and runs the boot handshake.
func openSession() (*dongle.Session, error) {
	port, err := serial.Open(serial.Options{Device: devicePath})
	if err != nil {
		fmt.Println(ui.RenderFailure("Could not open the dongle", err, dongleNotFound))
		return nil, err
	}
	session, err := dongle.Open(port)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// parseNetworkID parses a hex network id like "0xa1b2" or "a1b2".
func parseNetworkID(arg string) (uint16, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(arg), "0x")
	value, err := strconv.ParseUint(trimmed, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid network id %q (want hex like 0xa1b2): %w", arg, err)
	}
	return uint16(value), nil
}
