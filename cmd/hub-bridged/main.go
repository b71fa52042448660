// Command hub-bridged connects to a hub controller over its MQTT-backed
// message broker, logs in, indexes the device tree, subscribes to status
// pushes, and keeps a live accessory-state snapshot. It implements the hub
// protocol client and its supporting simulators; translating that state
// into HomeKit characteristics is a separate, out-of-scope HAP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/markus-barta/viperhap/internal/bridge"
	"github.com/markus-barta/viperhap/internal/config"
	"github.com/markus-barta/viperhap/internal/hubclient"
	"github.com/markus-barta/viperhap/internal/transport"
)

// Version is the build identifier reported by -version.
const Version = "0.1.0-dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	showHelp := flag.Bool("help", false, "show usage")
	runCheck := flag.Bool("check", false, "validate config and exit")
	flag.BoolVar(showVersion, "v", false, "print version and exit")
	flag.BoolVar(showHelp, "h", false, "show usage")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("hub-bridged %s\n", Version)
		os.Exit(0)
	}
	if *showHelp {
		printUsage()
		os.Exit(0)
	}
	if *runCheck {
		os.Exit(runConfigCheck())
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	switch cfg.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Str("version", Version).Str("hub_mac", cfg.HubMAC).Msg("hub-bridged starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("hub-bridged exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	broker, err := transport.Dial(ctx, transport.Config{
		BrokerURL: cfg.BrokerURL,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
		HubMAC:    cfg.HubMAC,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer broker.Close()

	mgr := bridge.NewManager(log)
	client := hubclient.New(broker, mgr, hubclient.Options{
		Username: cfg.Username,
		Password: cfg.Password,
	}, log)
	defer client.Disconnect()

	if _, _, err := client.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	log.Info().Msg("logged in to hub")

	index, err := client.FetchIndex(ctx)
	if err != nil {
		return fmt.Errorf("fetch index: %w", err)
	}
	log.Info().Int("devices", len(index)).Msg("fetched device index")

	for id := range index {
		if err := client.Subscribe(ctx, id); err != nil {
			log.Warn().Err(err).Str("device_id", id).Msg("subscribe failed")
		}
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return nil
		case <-ticker.C:
			snap := mgr.Snapshot()
			log.Debug().
				Int("lights", len(snap.Lights)).
				Int("window_coverings", len(snap.WindowCoverings)).
				Int("doors", len(snap.Doors)).
				Msg("accessory snapshot")
		}
	}
}

func printUsage() {
	fmt.Printf(`Usage: hub-bridged [options]

hub-bridged %s - bridges a hub controller's device tree over its message
broker protocol into a live, locally simulated accessory state.

Options:
  -v, --version   Print version and exit
  -h, --help      Print this help and exit
  --check         Validate config and exit

Environment variables:
  HUB_MAC                    Hub MAC address, used in broker topic names (required)
  HUB_USER                   Hub account username (required)
  HUB_PASSWORD               Hub account password (required)
  HUB_BROKER_HOST            MQTT broker host (required)
  HUB_BROKER_PORT            MQTT broker port (default: 1883)
  HUB_MQTT_USER              MQTT broker username, if the broker requires auth
  HUB_MQTT_PASSWORD          MQTT broker password, if the broker requires auth
  HUB_LOG_LEVEL              Log level: debug, info, warn, error
  HUB_WC_OPEN_TIME_SECONDS   Default window covering open duration (seconds)
  HUB_WC_CLOSE_TIME_SECONDS  Default window covering close duration (seconds)
  HUB_DOOR_CYCLE_SECONDS     Door opening/closing phase duration (seconds)
  HUB_DOOR_OPENED_SECONDS    Door fully-open hold duration (seconds)
`, Version)
}

func runConfigCheck() int {
	fmt.Println("Checking configuration...")
	fmt.Println()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Printf("config error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("config invalid: %v\n", err)
		return 1
	}

	fmt.Println("config OK")
	fmt.Printf("  Hub MAC:     %s\n", cfg.HubMAC)
	fmt.Printf("  Broker URL:  %s\n", cfg.BrokerURL)
	fmt.Printf("  Username:    %s\n", cfg.Username)
	return 0
}
