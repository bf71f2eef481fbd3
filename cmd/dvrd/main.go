// Command dvrd runs one distance-vector routing daemon instance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kpeters/dvrd/config"
	"github.com/kpeters/dvrd/dump"
	"github.com/kpeters/dvrd/engine"
	"github.com/kpeters/dvrd/metrics"
	"github.com/kpeters/dvrd/packet"
	"github.com/kpeters/dvrd/timer"
	"github.com/kpeters/dvrd/transport"
)

// exit codes for the two distinct startup failure kinds.
const (
	exitOK             = 0
	exitConfigInvalid  = 1
	exitPortBindFailed = 2
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	root := &cobra.Command{
		Use:   "dvrd [config file]",
		Short: "A distance-vector routing daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], log)
		},
		SilenceUsage: true,
	}

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("dvrd exiting")
		os.Exit(exitCodeFor(err))
	}
}

// configError and portBindError let main distinguish the two fatal
// startup failure kinds and map each to its own non-zero exit code,
// without engine/config/transport importing a shared os package.
type configError struct{ error }
type portBindError struct{ error }

func exitCodeFor(err error) int {
	switch err.(type) {
	case *configError:
		return exitConfigInvalid
	case *portBindError:
		return exitPortBindFailed
	default:
		return exitConfigInvalid
	}
}

func run(ctx context.Context, configPath string, log zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return &configError{fmt.Errorf("config: %w", err)}
	}

	ports := make([]int, 0, len(cfg.InputPorts))
	ports = append(ports, cfg.InputPorts...)

	tr, err := transport.Bind(ports, log)
	if err != nil {
		return &portBindError{fmt.Errorf("transport: %w", err)}
	}
	defer tr.Close()

	var codec packet.Codec = packet.JSONCodec{}
	if cfg.Codec == "binary" {
		codec = packet.BinaryCodec{}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	eng := engine.New(cfg, codec, tr, timer.RealClock{}, m, log)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go periodicDump(runCtx, eng)

	log.Info().Int("router_id", cfg.RouterID).Msg("dvrd starting")
	eng.Run(runCtx)
	log.Info().Msg("dvrd shut down gracefully")
	return nil
}

// periodicDump writes the routing table to stdout every
// PERIODIC_UPDATE_BASE as a debug surface.
func periodicDump(ctx context.Context, eng *engine.Engine) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dump.Write(os.Stdout, eng.Routes(), now)
		}
	}
}
