package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lcalzada-xor/wraith/internal/app"
	"github.com/lcalzada-xor/wraith/internal/config"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/lcalzada-xor/wraith/internal/mock"
	"github.com/lcalzada-xor/wraith/internal/telemetry"
	"github.com/spf13/cobra"
)

// cli carries state shared by every subcommand.
type cli struct {
	cfg       *config.Config
	traceFile string
	duration  time.Duration
	out       io.Writer

	shutdownTracer func(context.Context) error
}

func newRootCmd(version string) *cobra.Command {
	c := &cli{cfg: config.Load(), out: os.Stdout}

	root := &cobra.Command{
		Use:               "wraith",
		Short:             "WiFi and BLE frame injection toolkit",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
	}

	pf := root.PersistentFlags()
	c.cfg.BindFlags(pf)
	pf.StringVar(&c.traceFile, "trace-file", "", "Write OpenTelemetry spans to this file")

	root.AddCommand(
		c.serveCmd(),
		c.deauthCmd(),
		c.handshakeCmd(),
		c.ssidCmd("beacon", domain.AttackBeaconSpam, "Broadcast fake access points"),
		c.ssidCmd("probe", domain.AttackProbeFlood, "Flood probe requests from random stations"),
		c.bleCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	c.out = cmd.OutOrStdout()
	level := slog.LevelInfo
	if c.cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.traceFile != "" {
		f, err := os.Create(c.traceFile)
		if err != nil {
			return fmt.Errorf("trace file: %w", err)
		}
		shutdown, err := telemetry.InitTracer(f)
		if err != nil {
			f.Close()
			return fmt.Errorf("init tracer: %w", err)
		}
		c.shutdownTracer = func(ctx context.Context) error {
			defer f.Close()
			return shutdown(ctx)
		}
	}
	return nil
}

func (c *cli) teardown() error {
	if c.shutdownTracer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.shutdownTracer(ctx)
}

// withApp bootstraps the application for the lifetime of fn, cancelling its
// context on SIGINT or SIGTERM.
func (c *cli) withApp(fn func(ctx context.Context, a *app.Application) error) error {
	a, err := app.New(c.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return fn(ctx, a)
}

func (c *cli) addDuration(cmd *cobra.Command) {
	cmd.Flags().DurationVarP(&c.duration, "duration", "d", 0, "Stop after this long (0 runs until interrupted)")
}

// run executes req headless and prints the final session.
func (c *cli) run(req domain.AttackRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return c.withApp(func(ctx context.Context, a *app.Application) error {
		session, err := a.RunAttack(ctx, req, c.duration)
		if err != nil {
			return err
		}
		c.printSummary(session)
		if req.Type == domain.AttackHandshakeCapture {
			captures, err := a.Store.ListHandshakes(context.Background())
			if err == nil {
				for _, hs := range captures {
					if req.BSSID != nil && hs.BSSID == *req.BSSID {
						fmt.Fprintf(c.out, "  Handshake:   %s (%d EAPOL frames) saved to %s\n",
							hs.Stage(), hs.EAPOLPackets, c.cfg.CaptureDir)
					}
				}
			}
		}
		return nil
	})
}

func (c *cli) printSummary(s domain.AttackSession) {
	end := time.Now()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	fmt.Fprintf(c.out, "\n  Attack:      %s\n", s.Type)
	fmt.Fprintf(c.out, "  Session:     %s\n", s.ID)
	fmt.Fprintf(c.out, "  Duration:    %s\n", end.Sub(s.StartTime).Round(time.Millisecond))
	fmt.Fprintf(c.out, "  Frames sent: %d\n", s.PacketsSent)
	if s.TransmitFailures > 0 {
		fmt.Fprintf(c.out, "  Failures:    %d\n", s.TransmitFailures)
	}
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(ctx context.Context, a *app.Application) error {
				return a.Run(ctx)
			})
		},
	}
}

func (c *cli) deauthCmd() *cobra.Command {
	var bssid string
	var channel uint8
	cmd := &cobra.Command{
		Use:   "deauth",
		Short: "Broadcast deauthentication frames for one access point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := targetRequest(domain.AttackDeauth, bssid, channel)
			if err != nil {
				return err
			}
			return c.run(req)
		},
	}
	cmd.Flags().StringVarP(&bssid, "bssid", "b", "", "Target access point")
	cmd.Flags().Uint8VarP(&channel, "channel", "c", 0, "Channel of the access point")
	_ = cmd.MarkFlagRequired("bssid")
	_ = cmd.MarkFlagRequired("channel")
	c.addDuration(cmd)
	return cmd
}

func (c *cli) handshakeCmd() *cobra.Command {
	var bssid string
	var channel uint8
	cmd := &cobra.Command{
		Use:   "handshake",
		Short: "Capture a WPA 4-way handshake, deauthenticating clients to force one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := targetRequest(domain.AttackHandshakeCapture, bssid, channel)
			if err != nil {
				return err
			}
			return c.run(req)
		},
	}
	cmd.Flags().StringVarP(&bssid, "bssid", "b", "", "Target access point")
	cmd.Flags().Uint8VarP(&channel, "channel", "c", 0, "Channel of the access point")
	_ = cmd.MarkFlagRequired("bssid")
	_ = cmd.MarkFlagRequired("channel")
	c.addDuration(cmd)
	return cmd
}

func targetRequest(t domain.AttackType, bssid string, channel uint8) (domain.AttackRequest, error) {
	mac, err := domain.ParseMAC(bssid)
	if err != nil {
		return domain.AttackRequest{}, err
	}
	return domain.AttackRequest{Type: t, BSSID: &mac, Channel: domain.Channel(channel)}, nil
}

func (c *cli) ssidCmd(use string, t domain.AttackType, short string) *cobra.Command {
	var channels []uint
	cmd := &cobra.Command{
		Use:   use + " [ssid...]",
		Short: short,
		Long:  short + ". Without arguments a list of common network names is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := ssidRequest(t, args, channels)
			if err != nil {
				return err
			}
			return c.run(req)
		},
	}
	cmd.Flags().UintSliceVarP(&channels, "channels", "c", nil, "Channels to rotate over (default all 2.4GHz)")
	c.addDuration(cmd)
	return cmd
}

func ssidRequest(t domain.AttackType, ssids []string, channels []uint) (domain.AttackRequest, error) {
	if len(ssids) == 0 {
		ssids = mock.CommonSSIDs
	}
	req := domain.AttackRequest{Type: t, SSIDs: ssids}
	for _, n := range channels {
		ch, err := domain.ParseChannel(int(n))
		if err != nil {
			return domain.AttackRequest{}, err
		}
		req.Channels = append(req.Channels, ch)
	}
	return req, nil
}

func (c *cli) bleCmd() *cobra.Command {
	var vendor string
	cmd := &cobra.Command{
		Use:   "ble",
		Short: "Spam BLE pairing advertisements from rotating random identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.AttackRequest{Type: domain.AttackBLESpamAll}
			if vendor != "" {
				v, err := domain.ParseVendor(vendor)
				if err != nil {
					return err
				}
				req = domain.AttackRequest{Type: domain.AttackBLESpam, Vendor: v}
			}
			return c.run(req)
		},
	}
	cmd.Flags().StringVar(&vendor, "vendor", "", "apple, samsung, google or microsoft (default rotates all)")
	c.addDuration(cmd)
	return cmd
}
