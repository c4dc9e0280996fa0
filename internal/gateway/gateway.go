// Package gateway wires the MAVLink source to the subscriber hub: it
// owns the ingestion loop, the state cache and the broadcast path.
package gateway

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/juju/errors"

	"github.com/mavgate/mavgate/helpers"
	"github.com/mavgate/mavgate/internal/mavlink"
	"github.com/mavgate/mavgate/internal/mirror"
	"github.com/mavgate/mavgate/internal/state"
	"github.com/mavgate/mavgate/internal/telemetry"
	"github.com/mavgate/mavgate/internal/ws"
	"github.com/mavgate/mavgate/log2"
)

const DefaultPollTimeout = 10 * time.Millisecond

// Gateway lifecycle is STOPPED -> Start() -> RUNNING -> Stop() -> STOPPED.
// The ingestion loop is the only writer of telemetry-derived state;
// subscriber sessions read the cache and own their connections.
type Gateway struct {
	g      *state.Global
	log    *log2.Log
	cache  *telemetry.StateCache
	trans  *telemetry.Translator
	filter *telemetry.Filter
	rate   *telemetry.RateWindow
	hub    *ws.Hub
	server *ws.Server
	mirror *mirror.Mirror

	source      mavlink.Source
	connect     func() (mavlink.Source, error)
	pollTimeout time.Duration
	rateLimit   int
	backoff     helpers.Backoff
	closeOnce   sync.Once
}

func New(g *state.Global) *Gateway {
	cfg := g.Config
	gw := &Gateway{
		g:           g,
		log:         g.Log,
		cache:       telemetry.NewStateCache(),
		filter:      telemetry.NewFilter(cfg.Mavlink.Allow, cfg.Mavlink.Deny),
		rate:        telemetry.NewRateWindow(cfg.Mavlink.RateLimit),
		mirror:      &mirror.Mirror{},
		pollTimeout: helpers.IntMillisecondDefault(cfg.Mavlink.PollMs, DefaultPollTimeout),
		rateLimit:   cfg.Mavlink.RateLimit,
		backoff:     helpers.Backoff{Min: 100 * time.Millisecond, Max: 2 * time.Second, K: 2},
	}
	gw.trans = telemetry.NewTranslator(gw.cache)
	gw.hub = ws.NewHub(g.Log)
	gw.server = ws.NewServer(ws.ServerOptions{
		Log:          g.Log,
		Addr:         cfg.ListenAddr(),
		Hub:          gw.hub,
		Cache:        gw.cache,
		Alive:        g.Alive,
		WriteTimeout: helpers.IntMillisecondDefault(cfg.WS.WriteTimeoutMs, ws.DefaultWriteTimeout),
	})
	gw.connect = func() (mavlink.Source, error) {
		return mavlink.Connect(mavlink.NodeConfig{
			Connect:     cfg.Mavlink.Connect,
			SystemID:    byte(cfg.Mavlink.SystemId),
			ComponentID: byte(cfg.Mavlink.ComponentId),
			Log:         g.Log,
		})
	}
	return gw
}

// Start establishes the telemetry connection and begins serving
// subscribers. A connect failure is fatal: no retry here, process
// supervision owns restarts.
func (gw *Gateway) Start(ctx context.Context) error {
	src, err := gw.connect()
	if err != nil {
		return errors.Annotate(err, "gateway start")
	}
	gw.source = src

	if err = gw.mirror.Init(gw.log, gw.g.Config.Mirror); err != nil {
		_ = src.Close()
		return errors.Annotate(err, "gateway mirror")
	}
	if err = gw.server.Listen(); err != nil {
		gw.mirror.Close()
		_ = src.Close()
		return errors.Annotate(err, "gateway server")
	}
	if !gw.g.Alive.Add(1) {
		gw.mirror.Close()
		_ = gw.server.Close()
		_ = src.Close()
		return errors.New("gateway start after stop")
	}
	go gw.ingestLoop()
	return nil
}

// Addr is the bound subscriber address, nil before Start.
func (gw *Gateway) Addr() net.Addr { return gw.server.Addr() }

// Stop halts ingestion, closes the telemetry connection and all
// subscriber connections. Safe to call more than once.
func (gw *Gateway) Stop() {
	gw.g.Alive.Stop()
	gw.closeOnce.Do(func() {
		wg := sync.WaitGroup{}
		errch := make(chan error, 2)
		if gw.source != nil {
			wg.Add(1)
			go helpers.WrapErrChan(&wg, errch, gw.source.Close)
		}
		wg.Add(1)
		go helpers.WrapErrChan(&wg, errch, gw.server.Close)
		wg.Wait()
		close(errch)
		if err := helpers.FoldErrChan(errch); err != nil {
			gw.log.Errorf("gateway stop err=%v", err)
		}
		gw.mirror.Close()
	})
}

func (gw *Gateway) ingestLoop() {
	defer gw.g.Alive.Done()
	gw.log.Infof("ingest loop running")

	for gw.g.Alive.IsRunning() {
		d, err := gw.source.Recv(gw.pollTimeout)
		switch {
		case err == nil:
			gw.backoff.Reset()
			if gw.filter.Pass(d.Type) {
				gw.process(d)
			}

		case errors.IsTimeout(err):
			// no message within poll timeout, fall through to rate roll

		case errors.Cause(err) == mavlink.ErrSourceClosed:
			gw.log.Infof("ingest source closed")
			return

		default:
			// a single bad frame or transient read error never stops ingestion
			gw.log.Errorf("ingest recv err=%v", err)
			time.Sleep(gw.backoff.DelayAfter(false))
		}
		gw.rollRate()
	}
	gw.log.Infof("ingest loop stopped")
}

func (gw *Gateway) process(d *mavlink.Decoded) {
	env, err := gw.trans.Translate(d)
	if err != nil {
		gw.log.Errorf("ingest drop %v", err)
		return
	}
	gw.rate.Add(1)

	if gw.hub.Len() == 0 && !gw.mirror.Enabled() {
		return
	}
	payload, err := env.Marshal()
	if err != nil {
		gw.log.Errorf("ingest marshal type=%s err=%v", env.Type, err)
		return
	}
	gw.hub.Broadcast(env.Type, payload)
	gw.mirror.Publish(env.Type, payload)
}

func (gw *Gateway) rollRate() {
	if rate, over, rolled := gw.rate.Roll(); rolled && over {
		gw.log.Errorf("message rate %.1f/s exceeds limit %d/s", rate, gw.rateLimit)
	}
}
