// Command dht-sensor reads a DHT22 temperature and humidity sensor over the
// GPIO character device and publishes readings to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sweeney/dht-sensor/internal/capture"
	"github.com/sweeney/dht-sensor/internal/config"
	"github.com/sweeney/dht-sensor/internal/decode"
	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/gpio"
	"github.com/sweeney/dht-sensor/internal/logging"
	"github.com/sweeney/dht-sensor/internal/logic"
	"github.com/sweeney/dht-sensor/internal/mqtt"
	"github.com/sweeney/dht-sensor/internal/status"
	"github.com/sweeney/dht-sensor/internal/web"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		once       bool
	)

	cmd := &cobra.Command{
		Use:          "dht-sensor",
		Short:        "Read a DHT22 sensor over GPIO and publish readings to MQTT",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags(), configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := run(cfg, once, log); err != nil {
				log.Errorf("fatal: %v", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().BoolVar(&once, "once", false, "Take one reading, print it and exit")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// sensor is the part of dht.Session the run loop needs.
type sensor interface {
	Read() ([]capture.Edge, error)
}

func run(cfg *config.Config, once bool, log *zap.SugaredLogger) error {
	chip, err := gpio.NewRealChip(cfg.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	session, err := dht.Open(chip, cfg.Line,
		dht.WithWakeDelay(cfg.WakeDelay),
		dht.WithPollTimeout(cfg.PollTimeout),
		dht.WithLogger(log.Named("dht")),
	)
	if err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	defer session.Close()

	if once {
		smp := takeSample(session, time.Now())
		if smp.Err != nil {
			return fmt.Errorf("read sensor: %w", smp.Err)
		}
		fmt.Println(smp.Reading)
		return nil
	}

	publisher, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID, log.Named("mqtt"))
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Chip:        cfg.Chip,
		Line:        cfg.Line,
		IntervalMs:  cfg.Interval.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPPort:    cfg.HTTP,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Warnf("failed to publish startup event: %v", err)
	} else {
		log.Infof("published startup event")
	}

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.HTTP)
	}

	log.Infof("started: chip=%s line=%d interval=%v broker=%s heartbeat=%v",
		cfg.Chip, cfg.Line, cfg.Interval, cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(session, publisher, publisher, tracker, cfg.Heartbeat, time.Now, ticker.C, sigCh, log)
}

// takeSample reads the sensor once and decodes the capture. A failed read
// is not retried; the next tick is the retry.
func takeSample(s sensor, t time.Time) logic.Sample {
	edges, err := s.Read()
	smp := logic.Sample{Time: t, Edges: len(edges)}
	if err != nil {
		smp.Err = err
		return smp
	}
	reading, err := decode.Decode(edges)
	if err != nil {
		smp.Err = fmt.Errorf("decode %d edges: %w", len(edges), err)
		return smp
	}
	smp.Reading = reading
	return smp
}

func runLoop(s sensor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	startTime := now()
	monitor := logic.NewMonitor(startTime)

	for {
		select {
		case sg := <-sig:
			log.Infof("received %v, shutting down", sg)
			signalName := "UNKNOWN"
			if sg == syscall.SIGINT {
				signalName = "SIGINT"
			} else if sg == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warnf("failed to publish shutdown event: %v", err)
			} else {
				log.Infof("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			smp := takeSample(s, t)

			if event := monitor.Process(smp); event != nil {
				log.Infof("reading: %s (%d edges)", event.Reading, event.Edges)
				if err := publisher.Publish(*event); err != nil {
					log.Warnf("publish error: %v", err)
					// Don't crash on publish failure
				}
			} else {
				outcome, _ := monitor.LastOutcome()
				log.Warnf("sample failed (%s): %v", outcome, smp.Err)
			}

			if tracker != nil {
				tracker.Update(monitor)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if hbData := monitor.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Infof("heartbeat: uptime=%v ok=%d failed=%d",
					hbData.Uptime, hbData.Counts.OK, hbData.Counts.Total()-hbData.Counts.OK)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Warnf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
