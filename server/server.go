// Package server is the http boundary of the photo service. It gates requests on authorization, dispatches
// them to the photo operations and flattens their typed errors into the wire contract.
package server

import (
	"context"
	"net/http"
	"time"

	hr "github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
	"wuyrush.io/photo/auth"
	"wuyrush.io/photo/common/logging"
	rt "wuyrush.io/photo/common/retry"
	"wuyrush.io/photo/config"
	cst "wuyrush.io/photo/constants"
	pe "wuyrush.io/photo/errors"
	"wuyrush.io/photo/events"
	"wuyrush.io/photo/imaging"
	"wuyrush.io/photo/metrics"
	"wuyrush.io/photo/photos"
	"wuyrush.io/photo/stores"
)

// photoServer serves the photo api plus the metrics endpoint
type photoServer struct {
	Cfg     *config.Config
	Photos  *photos.Service
	Auth    auth.Authorizer // nil when the auth gate is disabled
	Metrics *metrics.Metrics
	Router  *hr.Router
}

// New returns the http.Handler serving the photo api with the given collaborators. A nil Authorizer
// disables the auth gate.
func New(cfg *config.Config, svc *photos.Service, a auth.Authorizer, m *metrics.Metrics) http.Handler {
	s := &photoServer{Cfg: cfg, Photos: svc, Auth: a, Metrics: m}
	s.SetupMux()
	return s
}

func (s *photoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// Serve wires up the photo service from cfg and serves requests until ctx is done, then shuts down
// gracefully within cfg.ShutdownTimeout
func Serve(ctx context.Context, cfg *config.Config) error {
	clog := logging.WithFuncName()
	store, err := setupBlobStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			clog.WithError(err).Error("error closing blob store")
		}
	}()
	a, err := auth.New(cfg)
	if err != nil {
		return err
	}
	if a == nil {
		clog.WithField(cst.EnvAuthDisabled, true).
			Warn("authorization gate disabled; photos are neither owned nor access checked")
	} else {
		clog.WithField("authMode", cfg.AuthMode).Info("authorization gate enabled")
	}
	pub := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() {
		if err := pub.Close(); err != nil {
			clog.WithError(err).Error("error closing event publisher")
		}
	}()
	normalizer := imaging.NewJPEGNormalizer()
	normalizer.MaxPixels = cfg.ImagePixelsMax
	svc := photos.NewService(store, normalizer, pub, a != nil)

	httpSvr := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        New(cfg, svc, a, metrics.New()),
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
	}
	svrErr := make(chan error, 1)
	go func() {
		clog.WithFields(log.Fields{
			"host": cfg.Host,
			"port": cfg.Port,
		}).Info("photo server is starting up")
		svrErr <- httpSvr.ListenAndServe()
	}()
	select {
	case err := <-svrErr:
		return pe.NewServiceFailure("photo server stopped unexpectedly").WithCause(err)
	case <-ctx.Done():
	}
	clog.Info("photo server is shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSvr.Shutdown(sctx); err != nil {
		return pe.NewServiceFailure("error shutting down photo server").WithCause(err)
	}
	clog.Info("photo server has shut down")
	return nil
}

// setupBlobStore opens the configured store and waits for it to come online. Only startup retries;
// request-path storage calls are made once.
func setupBlobStore(cfg *config.Config) (stores.BlobStore, error) {
	store, err := stores.Open(cfg.StorageConnection)
	if err != nil {
		return nil, err
	}
	retryOpts := []rt.RetryOption{
		rt.WithTimeout(cfg.StartupTimeout),
		rt.WithBaseDelay(100 * time.Millisecond),
		rt.WithExp(2.0),
		rt.WithMaxBackoff(5 * time.Second),
		rt.WithRetryOn(rt.IsDepOffline),
	}
	pingFn := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logging.WithFuncName().WithError(err).Warn("blob store not ready")
			return err
		}
		return nil
	}
	if err := rt.Retry(pingFn, retryOpts...); err != nil {
		store.Close()
		return nil, pe.NewDependencyFailure("blob store not reachable").WithCause(err)
	}
	return store, nil
}
