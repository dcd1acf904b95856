package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ripplechat/ripple/metrics"
	"github.com/ripplechat/ripple/minio"
	"github.com/ripplechat/ripple/pubsub"
	"github.com/ripplechat/ripple/types"
)

const (
	defaultQueueTimeout      = 5 * time.Minute
	defaultMatchDebounce     = 200 * time.Millisecond
	defaultBackgroundTimeout = 15 * time.Second
)

type Config struct {
	Store             Store
	Blob              *minio.Minio
	PubSub            pubsub.PubSub
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
	MediaURLPrefix    string
	QueueTimeout      time.Duration
	MatchDebounce     time.Duration
	BaseCtx           context.Context
	BackgroundTimeout time.Duration
}

type Service struct {
	Store  Store
	Blob   *minio.Minio
	PubSub pubsub.PubSub

	logger         *slog.Logger
	metrics        *metrics.Metrics
	mediaURLPrefix string
	queueTimeout   time.Duration
	matchDebounce  time.Duration

	baseCtx           context.Context
	backgroundTimeout time.Duration
	wg                sync.WaitGroup
	errs              chan error

	sessionsMu sync.Mutex
	sessions   map[string]*matchSession
	lastJoin   map[string]types.UpsertQueueEntry
}

func New(cfg *Config) *Service {
	queueTimeout := cfg.QueueTimeout
	if queueTimeout == 0 {
		queueTimeout = defaultQueueTimeout
	}

	matchDebounce := cfg.MatchDebounce
	if matchDebounce == 0 {
		matchDebounce = defaultMatchDebounce
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	baseCtx := cfg.BaseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	backgroundTimeout := cfg.BackgroundTimeout
	if backgroundTimeout == 0 {
		backgroundTimeout = defaultBackgroundTimeout
	}

	return &Service{
		Store:  cfg.Store,
		Blob:   cfg.Blob,
		PubSub: cfg.PubSub,

		logger:         logger,
		metrics:        m,
		mediaURLPrefix: cfg.MediaURLPrefix,
		queueTimeout:   queueTimeout,
		matchDebounce:  matchDebounce,

		baseCtx:           baseCtx,
		backgroundTimeout: backgroundTimeout,
		errs:              make(chan error, 1),
		sessions:          make(map[string]*matchSession),
		lastJoin:          make(map[string]types.UpsertQueueEntry),
	}
}

func (svc *Service) Errs() <-chan error {
	return svc.errs
}

func (svc *Service) Close() error {
	svc.sessionsMu.Lock()
	for _, sess := range svc.sessions {
		sess.cancel()
	}
	svc.sessionsMu.Unlock()

	svc.wg.Wait()
	close(svc.errs)
	return nil
}

func (svc *Service) background(fn func(ctx context.Context) error) {
	svc.wg.Go(func() {
		defer func() {
			if rcv := recover(); rcv != nil {
				select {
				case svc.errs <- fmt.Errorf("service background panic: %v", rcv):
				default:
				}
			}
		}()

		ctx, cancel := context.WithTimeout(svc.baseCtx, svc.backgroundTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			select {
			case svc.errs <- fmt.Errorf("service background error: %w", err):
			default:
			}
		}
	})
}
