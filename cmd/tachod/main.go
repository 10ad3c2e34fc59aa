// Command tachod runs the wheel-speed estimator on the host: it consumes
// the MCU's edge-event stream (or a built-in simulator), polls the
// estimator at a fixed rate and publishes telemetry over a websocket.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"tacho/config"
	"tacho/core"
	"tacho/host"
	hostserial "tacho/host/serial"
	"tacho/sim"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML configuration")
		device     = flag.String("device", "", "serial device override")
		simMode    = flag.Bool("sim", false, "run against a simulated wheel instead of hardware")
		simSpeed   = flag.Float64("sim-speed", 18, "simulated wheel speed in km/h")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			errLog := zerolog.New(os.Stderr)
			errLog.Fatal().Err(err).Msg("configuration")
		}
		cfg = loaded
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *simMode, *simSpeed, log); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("tachod failed")
	}
	log.Info().Msg("tachod stopped")
}

func run(ctx context.Context, cfg *config.Config, simMode bool, simSpeed float64, log zerolog.Logger) error {
	params := cfg.SensorParams()

	var sensor *core.Sensor
	source := make(chan error, 1)

	if simMode {
		clock := sim.NewClock(params.TimerFrequency, core.MaxTicks)
		s, err := core.New(params, clock, true, true)
		if err != nil {
			return err
		}
		sensor = s
		wheel := sim.NewWheel(sensor, clock, params, log)
		wheel.SetSpeed(simSpeed)
		log.Info().Float64("speed_kmh", simSpeed).Msg("running simulated wheel")
		go func() { source <- wheel.Run(ctx) }()
	} else {
		port, err := hostserial.Open(hostserial.DefaultConfig(cfg.Serial.Device))
		if err != nil {
			return err
		}
		defer port.Close()

		clock := &host.RemoteClock{}
		s, err := core.New(params, clock, true, true)
		if err != nil {
			return err
		}
		sensor = s
		link := host.NewLink(port, sensor, clock, log)
		log.Info().Str("device", cfg.Serial.Device).Msg("serial link up")
		go func() { source <- link.Run(ctx) }()
	}

	telemetry := host.NewTelemetry(sensor, log)
	if cfg.Telemetry.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", telemetry)
		srv := &http.Server{Addr: cfg.Telemetry.Listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("telemetry server")
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("listen", cfg.Telemetry.Listen).Msg("telemetry listening")
	}

	ticker := time.NewTicker(time.Duration(cfg.PollInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-source:
			return err
		case <-ticker.C:
			sensor.PollEstimate()
			st := telemetry.SampleStatus()
			telemetry.Broadcast(st)
			log.Debug().
				Float64("speed_kmh", st.SpeedKMH).
				Float64("rpm", st.RPM).
				Str("direction", st.Direction).
				Float64("distance_m", st.DistanceM).
				Msg("estimate")
		}
	}
}
