package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	planapi "github.com/kilianp07/metroplan/api/plan"
	"github.com/kilianp07/metroplan/config"
	"github.com/kilianp07/metroplan/core/dispatch"
	coremetrics "github.com/kilianp07/metroplan/core/metrics"
	"github.com/kilianp07/metroplan/core/model"
	coremon "github.com/kilianp07/metroplan/core/monitoring"
	coremqtt "github.com/kilianp07/metroplan/core/mqtt"
	"github.com/kilianp07/metroplan/core/prediction"
	"github.com/kilianp07/metroplan/infra/logger"
	"github.com/kilianp07/metroplan/infra/metrics"
	"github.com/kilianp07/metroplan/infra/monitoring"
	"github.com/kilianp07/metroplan/infra/mqtt"
	"github.com/kilianp07/metroplan/infra/network"
	"github.com/kilianp07/metroplan/internal/eventbus"
	"github.com/kilianp07/metroplan/jobs/planrun"
)

// Service wires the planner to its network catalog, metrics sinks, MQTT
// publisher, HTTP API and scheduled job.
type Service struct {
	Planner *dispatch.Planner
	Network network.Source

	cfg          *config.Config
	sink         coremetrics.MetricsSink
	publisher    coremqtt.Client
	bus          *eventbus.Bus
	log          logger.Logger
	closeNetwork func() error
	closeLog     func() error
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (svc *Service, err error) {
	closeLog, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	// Resources opened so far are released when a later step fails.
	var closers []func() error
	defer func() {
		if err == nil {
			return
		}
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()
	closers = append(closers, closeLog)
	logg := logger.New("service")

	mon, monErr := monitoring.NewSentryMonitor(cfg.Sentry)
	if monErr != nil {
		logg.Errorf("sentry disabled: %v", monErr)
	} else {
		coremon.Init(mon)
	}

	src, closeNetwork, err := network.Open(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}
	closers = append(closers, closeNetwork)
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if c, ok := sink.(io.Closer); ok {
		closers = append(closers, c.Close)
	}

	bus := eventbus.New()
	forecaster := prediction.NewRuleForecaster(cfg.Planner.Prediction, nil)
	allocator := dispatch.NewGreedyAllocator(cfg.Planner.Dispatch.Workers, logger.New("allocator"))
	planner, err := dispatch.NewPlanner(cfg.Planner.Dispatch, forecaster, allocator, sink, bus, logger.New("planner"))
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	pub, err := mqtt.NewPublisher(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt publisher: %w", err)
	}
	if pub != nil {
		planner.SetPublisher(pub)
	}

	return &Service{
		Planner:      planner,
		Network:      src,
		cfg:          cfg,
		sink:         sink,
		publisher:    pub,
		bus:          bus,
		log:          logg,
		closeNetwork: closeNetwork,
		closeLog:     closeLog,
	}, nil
}

// Plan runs the catalog network for the given hours and conditions.
func (s *Service) Plan(ctx context.Context, hours []int, c model.Conditions) (model.PlanInput, model.PlanOutput, error) {
	n, err := s.Network.Network(ctx)
	if err != nil {
		return model.PlanInput{}, model.PlanOutput{}, fmt.Errorf("load network: %w", err)
	}
	in := n.Input(hours, c)
	out, err := s.Planner.Plan(ctx, in)
	return in, out, err
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	return planapi.NewHandler(s.Planner, s.Network, planapi.Options{
		Token:        s.cfg.Server.Token,
		MaxBodyBytes: s.cfg.Server.MaxBodyBytes,
		Logger:       logger.New("api"),
	})
}

// Run serves the API, the metrics endpoint and the scheduled job until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink)

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	var jobDone <-chan struct{}
	if s.cfg.Job.Enabled {
		runner, err := planrun.New(s.cfg.Job, s.Planner, s.Network, logger.New("planrun"))
		if err != nil {
			return err
		}
		if jobDone, err = runner.Start(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout(),
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("api listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("api server: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("api shutdown: %v", err)
	}
	if runErr == nil {
		<-collected
		if jobDone != nil {
			<-jobDone
		}
	}
	return runErr
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	var errs []error
	if d, ok := s.publisher.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	if c, ok := s.sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if s.closeNetwork != nil {
		errs = append(errs, s.closeNetwork())
	}
	coremon.Flush(2 * time.Second)
	if s.closeLog != nil {
		errs = append(errs, s.closeLog())
	}
	return errors.Join(errs...)
}
