package main

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanksha/garage-booking-backend/api"
	bk "github.com/hanksha/garage-booking-backend/booking"
	"github.com/hanksha/garage-booking-backend/config"
	"github.com/hanksha/garage-booking-backend/discord"
	"github.com/hanksha/garage-booking-backend/notify"
	"github.com/hanksha/garage-booking-backend/remote"
	"github.com/hanksha/garage-booking-backend/store"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

//go:embed database/setup.sql
var setupSQL string

func main() {
	logger := slog.Default().With("component", "main")

	cfg, err := config.LoadWithFile(".env")

	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()

	if err != nil {
		logger.Error("invalid TIMEZONE", "err", err)
		os.Exit(1)
	}

	theme, err := config.LoadTheme(cfg.ThemeFile)

	if err != nil {
		logger.Error("failed to load theme", "err", err)
		os.Exit(1)
	}

	normalizer := bk.Normalizer{Theme: theme.Colors(), Location: loc}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slot, closeSlot, err := openSlot(ctx, cfg, logger)

	if err != nil {
		logger.Error("failed to open booking slot", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}

	defer closeSlot()

	bookingStore := store.New(slot,
		store.WithDebounce(cfg.SaveDebounce),
		store.WithNormalizer(normalizer),
		store.WithMetrics(store.NewMetrics(prometheus.DefaultRegisterer)),
	)

	opts := []bk.Option{bk.WithNormalizer(normalizer)}

	if cfg.RemoteEndpoint != "" {
		logger.Info("using remote booking backend", "endpoint", cfg.RemoteEndpoint)
		opts = append(opts, bk.WithRemote(remote.NewClient(cfg.RemoteEndpoint, cfg.RemoteToken, &http.Client{Timeout: 15 * time.Second})))
	}

	bookingService := bk.NewService(bookingStore, buildNotifier(cfg, loc), opts...)

	scheduler := cron.New(cron.WithLocation(loc))

	if cfg.SyncCron != "" {
		_, err := scheduler.AddFunc(cfg.SyncCron, func() {
			count, err := bookingService.Sync(ctx)
			if err != nil {
				logger.Warn("scheduled sync failed", "err", err)
				return
			}
			logger.Info("synced bookings", "count", count)
		})

		if err != nil {
			logger.Error("invalid SYNC_CRON", "err", err)
			os.Exit(1)
		}

		scheduler.Start()
	}

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// BOOKING API

	bookingRouter := r.Group("/api/v1/bookings")
	bookingHandler := api.NewBookingHandler(bookingService, cfg.AdminToken)

	bookingHandler.Register(bookingRouter)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down server", "err", err)
	}

	<-scheduler.Stop().Done()

	if err := bookingStore.Close(shutdownCtx); err != nil {
		logger.Error("failed to persist bookings on shutdown", "err", err)
	}
}

func openSlot(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Slot, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		logger.Info("connecting to PostgreSQL database")
		conn, err := pgx.Connect(ctx, cfg.DatabaseURL)

		if err != nil {
			return nil, nil, err
		}

		if _, err := conn.Exec(ctx, setupSQL); err != nil {
			conn.Close(context.Background())
			return nil, nil, err
		}

		logger.Info("initialized database tables")

		return store.NewPostgresSlot(conn, cfg.StoreSlot), func() { conn.Close(context.Background()) }, nil

	case config.BackendRedis:
		logger.Info("connecting to Redis", "addr", cfg.RedisAddr)
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}

		return store.NewRedisSlot(client, cfg.StoreSlot), func() { client.Close() }, nil

	default:
		logger.Warn("using in-memory booking store, bookings are lost on restart")
		return store.NewMemorySlot(nil), func() {}, nil
	}
}

func buildNotifier(cfg *config.Config, loc *time.Location) bk.Notifier {
	notifiers := notify.Multi{notify.NewLogNotifier(slog.Default().With("component", "notify"), loc)}

	if cfg.DiscordBotToken != "" {
		notifiers = append(notifiers, notify.NewDiscordNotifier(discord.NewClient(cfg.DiscordBotToken), cfg.DiscordChannelID, loc))
	}

	if sender := notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.NotifyFromEmail); sender != nil {
		notifiers = append(notifiers, notify.NewEmailNotifier(sender, cfg.NotifyToEmail, "", loc))
	}

	return notifiers
}
