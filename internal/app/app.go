// Package app wires configuration, logging, telemetry and audio around a
// simulation session and runs it until interrupted or the stage clears.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"arena-shooter/core/internal/audio"
	"arena-shooter/core/internal/config"
	"arena-shooter/core/internal/sim"
	"arena-shooter/core/internal/telemetry"
	"arena-shooter/core/logging"
	loggingSinks "arena-shooter/core/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	ConfigDir string
	Logger    telemetry.Logger
	// Stdout receives console events. Nil uses os.Stdout with colour.
	Stdout io.Writer
	// MaxTicks stops the session after that many ticks. Zero runs until the
	// context ends, the stage clears or the player dies.
	MaxTicks uint64
}

// Summary is what a finished session reports.
type Summary struct {
	Session uuid.UUID
	Ticks   uint64
	Kills   int
	Cleared bool
	Died    bool
}

func Run(ctx context.Context, opts Options) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}

	cfg, err := config.Load(opts.ConfigDir)
	if err != nil {
		return Summary{}, err
	}
	catalog, err := loadCatalog(cfg.Catalog.Path, logger)
	if err != nil {
		return Summary{}, err
	}
	grid, err := defaultGrid()
	if err != nil {
		return Summary{}, err
	}

	session := uuid.New()
	router, feed, err := newRouter(cfg, session, opts.Stdout)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	counters := telemetry.NewCounters()
	var metrics telemetry.Metrics = counters
	if cfg.Telemetry.OTel {
		metrics = telemetry.Fanout{counters, telemetry.NewOTelMetrics(nil, session.String(), logger)}
	}

	var sound audio.Sink = audio.Nop{}
	if cfg.Audio.Enabled {
		beep := audio.NewBeepSink(nil)
		if err := beep.Initialize(); err != nil {
			logger.Printf("audio disabled: %v", err)
		} else {
			defer beep.Close()
			sound = beep
		}
	}

	s, err := sim.New(cfg, catalog, grid, sim.Deps{
		Session:   session,
		Publisher: router,
		Metrics:   metrics,
		Logger:    logger,
		Audio:     sound,
	})
	if err != nil {
		return Summary{}, err
	}
	player, err := populate(s)
	if err != nil {
		return Summary{}, err
	}
	logger.Printf("session %s started: seed=%q tick=%dHz", session, cfg.Sim.Seed, cfg.Sim.TickRateHz)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	summary := Summary{Session: session}
	p := newPilot(s, player)
	loop := &sim.Loop{
		Sim:    s,
		Inputs: p.inputs,
		AfterStep: func(report sim.Report) {
			summary.Ticks = report.Tick
			summary.Kills += report.Kills
			if report.Deaths > 0 {
				summary.Died = true
			}
			if report.Transition {
				summary.Cleared = true
			}
			if summary.Died || summary.Cleared || (opts.MaxTicks > 0 && report.Tick >= opts.MaxTicks) {
				cancel()
			}
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	if feed != nil && cfg.Logging.FeedAddr != "" {
		mux := http.NewServeMux()
		mux.Handle(logging.DefaultConfig().Feed.Path, feed)
		srv := &http.Server{Addr: cfg.Logging.FeedAddr, Handler: mux}
		g.Go(func() error {
			logger.Printf("event feed listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("event feed failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	logger.Printf("session %s ended: ticks=%d kills=%d cleared=%t died=%t shots=%d hits=%d",
		session, summary.Ticks, summary.Kills, summary.Cleared, summary.Died,
		counters.Get(telemetry.MetricShotsFired), counters.Get(telemetry.MetricProjectileHits))
	return summary, nil
}

// newRouter builds the enabled sinks. The feed sink is returned separately
// so its HTTP endpoint can be served.
func newRouter(cfg config.Config, session uuid.UUID, stdout io.Writer) (*logging.Router, *loggingSinks.Feed, error) {
	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.Logging.Sinks
	logCfg.MinimumSeverity = logging.ParseSeverity(cfg.Logging.MinSeverity)
	logCfg.JSON.FilePath = cfg.Logging.JSONPath
	logCfg.Feed.Addr = cfg.Logging.FeedAddr
	logCfg.Fields = map[string]any{"session": session.String()}

	var named []logging.NamedSink
	var feed *loggingSinks.Feed
	if logCfg.HasSink(logging.SinkConsole) {
		useColor := stdout == nil
		if stdout == nil {
			stdout = os.Stdout
		}
		named = append(named, logging.NamedSink{Name: logging.SinkConsole, Sink: loggingSinks.NewConsole(stdout, useColor)})
	}
	if logCfg.HasSink(logging.SinkJSON) && logCfg.JSON.FilePath != "" {
		file, err := os.Create(logCfg.JSON.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open json log: %w", err)
		}
		named = append(named, logging.NamedSink{Name: logging.SinkJSON, Sink: &fileSink{JSON: loggingSinks.NewJSON(file, logCfg.JSON.FlushInterval), file: file}})
	}
	if logCfg.HasSink(logging.SinkFeed) {
		feed = loggingSinks.NewFeed(log.Default())
		named = append(named, logging.NamedSink{Name: logging.SinkFeed, Sink: feed})
	}
	router, err := logging.NewRouter(logging.SystemClock{}, logCfg, named)
	if err != nil {
		return nil, nil, err
	}
	return router, feed, nil
}

// fileSink closes the file under a JSON sink once it has flushed.
type fileSink struct {
	*loggingSinks.JSON
	file *os.File
}

func (s *fileSink) Close(ctx context.Context) error {
	return errors.Join(s.JSON.Close(ctx), s.file.Close())
}
