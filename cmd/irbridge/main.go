// irbridge daemon
//
// Bridges an IR transceiver and a climate sensor to a home-automation
// server: captures and replays remote-control codes, keeps a short history
// of events, and exposes an HTTP control surface.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hausnet/irbridge/pkg/api/rest"
	"github.com/hausnet/irbridge/pkg/api/ws"
	"github.com/hausnet/irbridge/pkg/config"
	"github.com/hausnet/irbridge/pkg/engine"
	"github.com/hausnet/irbridge/pkg/forward"
	"github.com/hausnet/irbridge/pkg/forward/mqtt"
	"github.com/hausnet/irbridge/pkg/logger"
	"github.com/hausnet/irbridge/pkg/persistence/sqlite"
	"github.com/hausnet/irbridge/pkg/rules"
	"github.com/hausnet/irbridge/pkg/sensor"
	"github.com/hausnet/irbridge/pkg/transceiver/serialir"
)

var (
	version   = "1.0.0"
	buildTime = "dev"
	gitCommit = "unknown"
)

var (
	cfgFile    string
	verbose    bool
	jsonOutput bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "irbridge",
		Short:   "irbridge - IR remote and climate sensor bridge",
		Long:    "irbridge bridges an IR transceiver and a temperature/humidity\nsensor to a home-automation server over the local network.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "log in JSON format")

	rootCmd.AddCommand(
		newStartCmd(),
		newSendCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the irbridge daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart()
		},
	}
}

// multiSink fans engine events out to several sinks.
type multiSink []engine.EventSink

func (m multiSink) Publish(ev engine.Event) {
	for _, s := range m {
		s.Publish(ev)
	}
}

// mqttSink adapts the MQTT publisher to the engine's sink contract.
type mqttSink struct {
	pub *mqtt.Publisher
	log *logger.Logger
}

func (s mqttSink) Publish(ev engine.Event) {
	if err := s.pub.Publish(ev.Direction, ev.Record); err != nil {
		s.log.Warn("mqtt publish failed", "error", err)
	}
}

func runStart() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if jsonOutput {
		cfg.Logging.Format = "json"
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	})
	logger.SetGlobal(log)

	if cfg.Device.Port == "" {
		return fmt.Errorf("no transceiver port configured (device.port)")
	}

	device, err := serialir.Open(serialir.Config{
		Port:     cfg.Device.Port,
		BaudRate: cfg.Device.BaudRate,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to open transceiver: %w", err)
	}
	defer device.Close()

	runtime := config.NewRuntime(cfg)

	gateway := forward.NewGateway(runtime.Forwarding, log)

	var sinks multiSink
	hub := ws.NewHub(log)
	sinks = append(sinks, hub)

	var mqttPub *mqtt.Publisher
	if cfg.MQTT.Enabled {
		mqttPub = mqtt.NewPublisher(cfg.MQTT)
		if err := mqttPub.Connect(); err != nil {
			log.Warn("mqtt connect failed, mirror disabled", "error", err)
		} else {
			sinks = append(sinks, mqttSink{pub: mqttPub, log: log})
			log.Info("mqtt mirror enabled", "broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)
		}
	}

	var ruleEngine rules.Engine
	if cfg.Rules.Script != "" {
		re, err := rules.NewLuaEngine(cfg.Rules.Script)
		if err != nil {
			return fmt.Errorf("failed to load rule script: %w", err)
		}
		ruleEngine = re
		defer re.Close()
		log.Info("rule hook loaded", "script", cfg.Rules.Script)
	}

	var archive *sqlite.SQLiteStore
	if cfg.Persistence.Enabled {
		path := cfg.Persistence.Path
		if path == "" {
			path = "./irbridge.db"
		}
		archive, err = sqlite.NewStore(path)
		if err != nil {
			return fmt.Errorf("failed to open event archive: %w", err)
		}
		defer archive.Close()
		log.Info("event archive enabled", "path", path)
	}

	opts := engine.Options{
		Config:          runtime,
		Log:             log,
		Emitter:         device,
		Receiver:        device,
		Forward:         gateway,
		Rules:           ruleEngine,
		Sink:            sinks,
		HistoryCapacity: cfg.History.Capacity,
	}
	if archive != nil {
		opts.Archive = archive
	}
	eng := engine.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go eng.Run(ctx)
	log.Info("engine running", "history_capacity", cfg.History.Capacity)

	var monitor *sensor.Monitor
	if cfg.Sensor.Enabled {
		monitor = sensor.NewMonitor(device, gateway, log)
		monitor.ReportCounters(eng.Counters, gateway)
		if err := monitor.Start(cfg.Sensor.Interval); err != nil {
			return fmt.Errorf("failed to start sensor monitor: %w", err)
		}
		defer monitor.Stop()
		log.Info("sensor monitor running", "interval", cfg.Sensor.Interval)
	}

	var apiServer *rest.Server
	if cfg.API.Enabled {
		apiServer = rest.NewServer(eng, runtime, hub, log, rest.ServerConfig{
			Port: cfg.API.Port,
			Auth: cfg.API.Auth,
		})
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")

	if apiServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Warn("API server shutdown failed", "error", err)
		}
	}
	if mqttPub != nil {
		mqttPub.Close()
	}
	cancel()

	return nil
}

func newSendCmd() *cobra.Command {
	var (
		addr   string
		length int
		repeat int
		pulse  int
	)

	cmd := &cobra.Command{
		Use:   "send <type> <data>",
		Short: "Send an IR code through a running daemon",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]interface{}{
				"type":   args[0],
				"data":   args[1],
				"length": length,
				"repeat": repeat,
				"pulse":  pulse,
			})
			if err != nil {
				return err
			}

			resp, err := http.Post(addr+"/api/v1/send", "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			out, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("send rejected (%s): %s", resp.Status, string(out))
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "daemon API address")
	cmd.Flags().IntVar(&length, "length", 0, "bit length")
	cmd.Flags().IntVar(&repeat, "repeat", 0, "repeat count")
	cmd.Flags().IntVar(&pulse, "pulse", 0, "pulse count")

	return cmd
}

func newStatusCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(addr + "/api/v1/status")
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			var status struct {
				Received        uint64 `json:"received"`
				Transferred     uint64 `json:"transferred"`
				HistoryCapacity int    `json:"history_capacity"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
				return err
			}

			fmt.Println("Daemon Status:")
			fmt.Println("  Received:    " + strconv.FormatUint(status.Received, 10))
			fmt.Println("  Transferred: " + strconv.FormatUint(status.Transferred, 10))
			fmt.Println("  History:     " + strconv.Itoa(status.HistoryCapacity) + " slots")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "daemon API address")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("irbridge %s\n", version)
			fmt.Printf("  Commit:  %s\n", gitCommit)
			fmt.Printf("  Built:   %s\n", buildTime)
		},
	}
}
