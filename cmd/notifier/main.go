package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"charge-dispatch/pkg/config"
	"charge-dispatch/pkg/notify"

	"github.com/go-chi/chi/v5"
	"github.com/juju/pubsub/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

func main() {
	configPath := flag.String("config", "notify.config.yaml", "path to the YAML config file")
	flag.Parse()

	zl, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zl.Sync()
	sugar := zl.Sugar()
	logger := notify.NewZapLogger(sugar)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		sugar.Fatalf("failed to load configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetConnString())
	if err != nil {
		sugar.Fatalf("failed to connect to DB: %v", err)
	}
	defer db.Close()

	hub := pubsub.NewSimpleHub(nil)
	metrics := notify.NewMetrics()
	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	notifyTimeout := time.Duration(cfg.Notifier.TimeoutSeconds) * time.Second
	router, err := notify.NewRouterBuilder().
		WithDB(db).
		WithConnString(cfg.GetConnString()).
		WithNotifierEndpoint(cfg.Notifier.Endpoint).
		WithNotifyTimeout(notifyTimeout).
		WithHub(hub).
		WithLogger(logger).
		WithMetrics(metrics).
		WithCaching(cfg.Cache.Enabled, cfg.Cache.MaxSize).
		WithProductionMode(cfg.Production).
		Build()
	if err != nil {
		sugar.Fatalf("failed to build router: %v", err)
	}
	defer router.Close()

	r := chi.NewRouter()

	r.Post("/orders/{orderID}/watch", func(w http.ResponseWriter, req *http.Request) {
		orderID := chi.URLParam(req, "orderID")
		if err := router.Watch(orderID); err != nil {
			if notify.IsAlreadyWatching(err) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"watching": orderID})
	})

	r.Delete("/orders/{orderID}/watch", func(w http.ResponseWriter, req *http.Request) {
		orderID := chi.URLParam(req, "orderID")
		router.Release(orderID)
		writeJSON(w, map[string]any{"released": orderID})
	})

	r.Get("/orders/watching", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"orders": router.Watching()})
	})

	r.Get("/events", eventsHandler(hub, sugar))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]any{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infof("notifier listening on :%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorf("shutdown error: %v", err)
	}
}

type sseEvent struct {
	name string
	data []byte
}

// eventsHandler bridges the in-process hub to Server-Sent Events so
// browser consumers can react to refresh signals and toasts.
func eventsHandler(hub *pubsub.SimpleHub, sugar *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		events := make(chan sseEvent, 16)

		unsubRefresh := hub.Subscribe(notify.TopicScheduleRefresh, func(topic string, data interface{}) {
			select {
			case events <- sseEvent{name: notify.TopicScheduleRefresh, data: []byte("{}")}:
			default:
				// Slow consumer; drop. Delivery is best-effort.
			}
		})
		defer unsubRefresh()

		unsubToast := hub.Subscribe(notify.TopicToast, func(topic string, data interface{}) {
			toast, ok := data.(notify.Toast)
			if !ok {
				return
			}
			body, err := json.Marshal(toast)
			if err != nil {
				sugar.Errorf("failed to marshal toast: %v", err)
				return
			}
			select {
			case events <- sseEvent{name: notify.TopicToast, data: body}:
			default:
			}
		})
		defer unsubToast()

		flusher.Flush()
		for {
			select {
			case <-req.Context().Done():
				return
			case ev := <-events:
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data)
				flusher.Flush()
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
