package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/s00500/env_logger"
	"github.com/spf13/cobra"

	anime "github.com/rogtools/go-anime"
	"github.com/rogtools/go-anime/actionhandlers"
	"github.com/rogtools/go-anime/devices"
	"github.com/rogtools/go-anime/internal/config"
	"github.com/rogtools/go-anime/internal/dbusapi"
)

var errReplugged = errors.New("device replugged")

type options struct {
	configPath  string
	simulator   string
	metricsAddr string
	model       string
	noDBus      bool
}

func main() {
	opts := &options{}
	root := &cobra.Command{
		Use:   "animed",
		Short: "AniMe matrix daemon",
		Long:  `animed owns the AniMe LED matrix: it plays the configured sequences, reacts to sleep, shutdown, lid and power events and exports a control object on the system bus.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
		SilenceUsage: true,
	}
	f := root.Flags()
	f.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Configuration file (.yaml or .toml)")
	f.StringVar(&opts.simulator, "simulator", "", "Write to a simulator at this address instead of the USB device")
	f.StringVar(&opts.metricsAddr, "metrics", "", "Serve Prometheus metrics on this address, e.g. :9101")
	f.StringVarP(&opts.model, "model", "m", "", "Force the matrix model (GA401, GA402, GU604)")
	f.BoolVar(&opts.noDBus, "no-dbus", false, "Do not connect to the system bus")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: opts.metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Metrics server: %v", err)
			}
		}()
		defer srv.Close()
	}

	for {
		err := serve(ctx, opts)
		if !errors.Is(err, errReplugged) {
			return err
		}
		log.Infof("AniMe device came back, reopening")
	}
}

func variant(opts *options, conf *config.Config) (anime.Variant, error) {
	if opts.model != "" {
		return anime.ParseVariant(opts.model)
	}
	if v := conf.Variant(); v != anime.Unsupported {
		return v, nil
	}
	return anime.DetectVariant()
}

func open(opts *options, v anime.Variant) (*anime.Session, error) {
	if opts.simulator != "" {
		return anime.OpenTCP(opts.simulator, v)
	}
	return anime.Open(v)
}

// serve runs one device session until ctx is done or the device is
// unplugged and plugged back in.
func serve(ctx context.Context, opts *options) error {
	conf, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	v, err := variant(opts, conf)
	if err != nil {
		return err
	}
	log.Infof("AniMe variant %s", v)

	session, err := open(opts, v)
	if err != nil {
		return err
	}
	defer session.Close()
	if err := session.Initialise(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	bus := anime.NewBus()
	ctrl := anime.NewController(session, bus)
	defer ctrl.Sequencer().Stop()

	for _, h := range conf.Hooks {
		action, err := actionhandlers.NewExecAction(h.On, h.Command)
		if err != nil {
			log.Warnf("Skipping hook: %v", err)
			continue
		}
		defer action.Subscribe(bus)()
	}

	dir := filepath.Dir(opts.configPath)
	if err := ctrl.Reload(conf.Settings(dir)); err != nil {
		log.Errorf("AniMe reload: %v", err)
	}

	api := dbusapi.New(ctrl, conf, opts.configPath)
	err = config.Watch(ctx, opts.configPath, config.DefaultDebounce, func(next *config.Config) {
		if !api.Replace(next) {
			return
		}
		log.Infof("Configuration changed, reloading")
		if err := ctrl.Reload(next.Settings(dir)); err != nil {
			log.Errorf("AniMe reload: %v", err)
		}
	})
	if err != nil {
		log.Warnf("Configuration changes will need a restart: %v", err)
	}

	if opts.simulator == "" {
		if err := devices.DisableWakeup(); err != nil {
			log.Warnf("Could not disable AniMe wakeup: %v", err)
		}
		err := devices.Watch(ctx, bus, func(present bool) {
			if present && !session.Present() {
				cancel(errReplugged)
			}
		})
		if err != nil {
			log.Warnf("Hot-plug watch unavailable: %v", err)
		}
	}

	if !opts.noDBus {
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return fmt.Errorf("connect system bus: %w", err)
		}
		defer conn.Close()
		if err := api.Export(conn); err != nil {
			return err
		}

		go func() {
			if err := actionhandlers.NewLogind(ctrl).Run(ctx); err != nil {
				log.Warnf("Logind events unavailable: %v", err)
			}
		}()
	}

	<-ctx.Done()
	if cause := context.Cause(ctx); errors.Is(cause, errReplugged) {
		return cause
	}
	return nil
}
