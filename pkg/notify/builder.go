package notify

import (
	"context"
	"database/sql"
	"time"

	"github.com/juju/pubsub/v2"
)

type RouterBuilder struct {
	config   RouterConfig
	db       *sql.DB
	connStr  string
	store    Store
	opener   FeedOpener
	notifier Notifier
	endpoint string
	hub      *pubsub.SimpleHub
	toasts   ToastSink
	logger   Logger
	metrics  *Metrics
}

func NewRouterBuilder() *RouterBuilder {
	return &RouterBuilder{
		config: RouterConfig{
			CacheEnabled:  false,
			MaxCacheSize:  256,
			LookupTimeout: 5 * time.Second,
			NotifyTimeout: 10 * time.Second,
		},
	}
}

func (b *RouterBuilder) WithDB(db *sql.DB) *RouterBuilder {
	b.db = db
	return b
}

// WithConnString sets the connection string used by the LISTEN/NOTIFY
// feeds; each feed opens its own connection.
func (b *RouterBuilder) WithConnString(connStr string) *RouterBuilder {
	b.connStr = connStr
	return b
}

// WithStore overrides the database-backed store. Mostly for tests.
func (b *RouterBuilder) WithStore(store Store) *RouterBuilder {
	b.store = store
	return b
}

// WithFeedOpener overrides the lib/pq feed opener. Mostly for tests.
func (b *RouterBuilder) WithFeedOpener(opener FeedOpener) *RouterBuilder {
	b.opener = opener
	return b
}

func (b *RouterBuilder) WithNotifier(n Notifier) *RouterBuilder {
	b.notifier = n
	return b
}

func (b *RouterBuilder) WithNotifierEndpoint(endpoint string) *RouterBuilder {
	b.endpoint = endpoint
	return b
}

func (b *RouterBuilder) WithHub(hub *pubsub.SimpleHub) *RouterBuilder {
	b.hub = hub
	return b
}

func (b *RouterBuilder) WithToasts(sink ToastSink) *RouterBuilder {
	b.toasts = sink
	return b
}

func (b *RouterBuilder) WithLogger(logger Logger) *RouterBuilder {
	b.logger = logger
	return b
}

func (b *RouterBuilder) WithMetrics(m *Metrics) *RouterBuilder {
	b.metrics = m
	return b
}

func (b *RouterBuilder) WithProductionMode(production bool) *RouterBuilder {
	b.config.Production = production
	return b
}

func (b *RouterBuilder) WithCaching(enabled bool, maxSize int) *RouterBuilder {
	b.config.CacheEnabled = enabled
	if maxSize > 0 {
		b.config.MaxCacheSize = maxSize
	}
	return b
}

func (b *RouterBuilder) WithLookupTimeout(d time.Duration) *RouterBuilder {
	b.config.LookupTimeout = d
	return b
}

func (b *RouterBuilder) WithNotifyTimeout(d time.Duration) *RouterBuilder {
	b.config.NotifyTimeout = d
	return b
}

func (b *RouterBuilder) Build() (*Router, error) {
	logger := b.logger
	if logger == nil {
		logger = noopLogger{}
	}

	store := b.store
	if store == nil {
		if b.db == nil {
			return nil, &ConfigError{msg: "database connection is required"}
		}
		pg := newPGStore(b.db)
		if !b.config.Production {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := pg.ApplySchema(ctx); err != nil {
				return nil, err
			}
		}
		store = pg
	}

	opener := b.opener
	if opener == nil {
		if b.connStr == "" {
			return nil, &ConfigError{msg: "connection string is required for the change feed"}
		}
		opener = NewPQFeedOpener(b.connStr, logger)
	}

	hub := b.hub
	if hub == nil {
		hub = pubsub.NewSimpleHub(nil)
	}

	notifier := b.notifier
	if notifier == nil {
		if b.endpoint != "" {
			notifier = NewHTTPNotifier(b.endpoint, b.config.NotifyTimeout)
		} else {
			notifier = noopNotifier{}
		}
	}

	toasts := b.toasts
	if toasts == nil {
		toasts = NewHubToasts(hub)
	}

	dispatcher := NewDispatcher(store, notifier, hub, toasts, logger)
	dispatcher.cache = newRecipientCache(b.config.CacheEnabled, b.config.MaxCacheSize)
	dispatcher.metrics = b.metrics
	dispatcher.lookupTimeout = b.config.LookupTimeout
	dispatcher.notifyTimeout = b.config.NotifyTimeout

	dispatchCtx, cancel := context.WithCancel(context.Background())
	tracker := NewTracker(opener, dispatcher, dispatchCtx, logger, b.metrics)

	return &Router{
		store:      store,
		hub:        hub,
		dispatcher: dispatcher,
		tracker:    tracker,
		logger:     logger,
		cancel:     cancel,
	}, nil
}

type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return e.msg
}
