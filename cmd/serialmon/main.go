package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Station-Manager/serialmon"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("serialmon", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "optional config file (yaml, json or toml)")
	device := fs.String("port", serialmon.DefaultPortName, "serial device path")
	baud := fs.Int("baud", serialmon.DefaultBaudRate.Int(), "baud rate")
	readTimeout := fs.Duration("timeout", serialmon.DefaultReadTimeout, "read timeout per record")
	poll := fs.Duration("poll", serialmon.DefaultPollInterval, "wait between availability checks when idle")
	logLevel := fs.String("log-level", "", "diagnostic log level (trace, debug, info, warn, error, disabled)")
	logFile := fs.String("log-file", "", "also write JSON logs to this file, rotated by size")
	list := fs.Bool("list", false, "list available serial ports and exit")
	asJSON := fs.Bool("json", false, "with -list, print ports as JSON")
	statsPath := fs.String("stats", "", "write a JSON metrics snapshot to this file on exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *list {
		return listPorts(stdout, stderr, *asJSON)
	}

	cfg, err := serialmon.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	// explicitly set flags win over the config file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.PortName = *device
		case "baud":
			cfg.BaudRate = *baud
		case "timeout":
			cfg.ReadTimeout = *readTimeout
		case "poll":
			cfg.PollInterval = *poll
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-file":
			cfg.Logging.File = *logFile
		}
	})

	logger, closer, err := serialmon.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "logging: %v\n", err)
		return 1
	}
	defer closer.Close()

	mon, err := serialmon.NewMonitor(cfg, stdout, logger)
	if err != nil {
		serialmon.PrintError(stdout, err)
		logger.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := mon.Run(ctx)
	mon.LogSummary(logger)

	if *statsPath != "" {
		if err := writeStats(*statsPath, mon.MetricsSnapshot()); err != nil {
			logger.Error().Err(err).Str("path", *statsPath).Msg("writing metrics snapshot")
		}
	}

	if runErr != nil {
		var de *serialmon.DeviceError
		if !errors.As(runErr, &de) {
			logger.Error().Err(runErr).Msg("monitor failed")
		}
		return 1
	}
	return 0
}

func listPorts(stdout, stderr io.Writer, asJSON bool) int {
	ports, err := serialmon.ListPorts()
	if err != nil {
		fmt.Fprintf(stderr, "listing ports: %v\n", err)
		return 1
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ports); err != nil {
			fmt.Fprintf(stderr, "encoding ports: %v\n", err)
			return 1
		}
		return 0
	}

	if len(ports) == 0 {
		fmt.Fprintln(stderr, "no serial ports found")
		return 0
	}
	for _, p := range ports {
		if p.IsUSB {
			fmt.Fprintf(stdout, "%s\tUSB %s:%s %s\n", p.Name, p.VID, p.PID, p.SerialNumber)
			continue
		}
		fmt.Fprintln(stdout, p.Name)
	}
	return 0
}

func writeStats(path string, snapshot serialmon.MetricsSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// make zerolog's global time format match the console writer
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
