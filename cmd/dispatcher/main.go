// Command dispatcher wires together every component of the
// notification dispatch pipeline: the Postgres-backed stores, the Redis
// profile cache, the in-process template cache, the Redis work queue, the
// Channel Resolver, the
// per-channel worker pools, the Dispatcher, the Kafka event ingestor,
// and the gRPC/REST request surfaces. Wiring order and the
// signal-driven graceful shutdown follow pxyz's notification-service
// cmd/main.go.
package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/5-VED/nest-notification-svc/internal/api/handlers/notification"
	"github.com/5-VED/nest-notification-svc/internal/api/router"
	"github.com/5-VED/nest-notification-svc/internal/cache"
	"github.com/5-VED/nest-notification-svc/internal/config"
	"github.com/5-VED/nest-notification-svc/internal/dispatcher"
	"github.com/5-VED/nest-notification-svc/internal/ingestor"
	"github.com/5-VED/nest-notification-svc/internal/metrics"
	"github.com/5-VED/nest-notification-svc/internal/model"
	"github.com/5-VED/nest-notification-svc/internal/queue"
	"github.com/5-VED/nest-notification-svc/internal/resolver"
	"github.com/5-VED/nest-notification-svc/internal/rpc"
	"github.com/5-VED/nest-notification-svc/internal/rpc/pb"
	"github.com/5-VED/nest-notification-svc/internal/store"
	"github.com/5-VED/nest-notification-svc/internal/worker"
	"github.com/5-VED/nest-notification-svc/pkg/email"
	"github.com/5-VED/nest-notification-svc/pkg/push"
	"github.com/5-VED/nest-notification-svc/pkg/sms"
	"github.com/5-VED/nest-notification-svc/pkg/userservice"
)

const (
	grpcKeepaliveTime    = 30 * time.Second
	grpcKeepaliveTimeout = 5 * time.Second
	grpcMaxMessageBytes  = 4 * 1024 * 1024
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxPoolSize, cfg.Database.MinPoolSize)
	if err != nil {
		log.Fatalf("notification-dispatcher: connect to postgres: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer rdb.Close()

	notificationStore := store.NewNotificationStore(db)
	deliveryStore := store.NewDeliveryStore(db)
	preferenceStore := store.NewPreferenceStore(db)
	deviceTokenStore := store.NewDeviceTokenStore(db)
	templateStore := store.NewTemplateStore(db)

	profileCache := cache.NewProfileCache(rdb)
	templateCache := cache.NewTemplateCache(cfg.TemplateCacheSize, cfg.TemplateCacheTTL)
	userClient := userservice.NewClient(cfg.UserServiceURL)

	res := resolver.New(userClient, profileCache, deviceTokenStore, preferenceStore, templateStore, templateCache, cfg.Retry, logger)

	workQueue := queue.New(rdb, cfg.StalledInterval, cfg.MaxStalledCount)

	disp := dispatcher.New(notificationStore, deliveryStore, res, workQueue, logger)

	metricsCollector := metrics.New(workQueue, []model.Channel{model.ChannelEmail, model.ChannelSMS, model.ChannelPush}, cfg.MetricsInterval)
	go metricsCollector.Run(ctx)
	go runStalledSweep(ctx, workQueue, []model.Channel{model.ChannelEmail, model.ChannelSMS, model.ChannelPush}, cfg.StalledSweepInterval, logger)
	go runRetentionSweep(ctx, notificationStore, cfg.RetentionAge, cfg.RetentionSweepInterval, logger)

	validate := validator.New()

	pools := startWorkerPools(ctx, cfg, workQueue, deliveryStore, notificationStore, res, metricsCollector, logger)

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, ingestor.NewConsumerConfig())
	if err != nil {
		log.Fatalf("notification-dispatcher: create kafka consumer group: %v", err)
	}
	ing := ingestor.New(consumerGroup, disp, logger)
	go func() {
		if err := ing.Run(ctx); err != nil {
			logger.Error("event ingestor stopped with error", "error", err)
		}
	}()

	grpcServer := newGRPCServer(disp, notificationStore, res, metricsCollector, validate, logger)
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("notification-dispatcher: listen on %s: %v", cfg.GRPCAddr, err)
	}
	go func() {
		logger.Info("grpc server starting", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(grpcLis); err != nil {
			logger.Error("grpc server stopped with error", "error", err)
		}
	}()

	restHandler := notification.NewHandler(disp, notificationStore, res, res, validate, logger)
	restEngine := router.New(restHandler)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: restEngine}
	go func() {
		logger.Info("rest server starting", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("rest server stopped with error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	_ = ing.Close()
	// Worker pools drain via ctx cancellation inside Pool.Run's select
	// loop; nothing further to join here since each pool was started in
	// its own detached goroutine above.
	_ = pools
}

func startWorkerPools(
	ctx context.Context,
	cfg config.Config,
	q *queue.Queue,
	deliveryStore *store.DeliveryStore,
	rollupStore *store.NotificationStore,
	res *resolver.Resolver,
	collector *metrics.Collector,
	logger *slog.Logger,
) []*worker.Pool {
	emailClient := email.NewClient(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.From)
	smsClient := sms.NewClient(cfg.SMS.BrokerURL, cfg.SMS.APIKey)
	pushClient := push.NewClient(cfg.Push.GatewayURL)

	emailPool := worker.New(model.ChannelEmail, q, deliveryStore, rollupStore, worker.NewEmailDeliverer(res, emailClient), collector, logger)
	smsPool := worker.New(model.ChannelSMS, q, deliveryStore, rollupStore, worker.NewSMSDeliverer(res, smsClient), collector, logger)
	pushPool := worker.New(model.ChannelPush, q, deliveryStore, rollupStore, worker.NewPushDeliverer(res, pushClient, res, logger), collector, logger)

	pools := []*worker.Pool{emailPool, smsPool, pushPool}
	for _, p := range pools {
		go p.Run(ctx, cfg.WorkersPerChannel)
	}
	return pools
}

func newGRPCServer(
	disp *dispatcher.Dispatcher,
	statusStore *store.NotificationStore,
	res *resolver.Resolver,
	health *metrics.Collector,
	validate *validator.Validate,
	logger *slog.Logger,
) *grpc.Server {
	s := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    grpcKeepaliveTime,
			Timeout: grpcKeepaliveTimeout,
		}),
		grpc.MaxRecvMsgSize(grpcMaxMessageBytes),
		grpc.MaxSendMsgSize(grpcMaxMessageBytes),
	)
	pb.RegisterNotificationServiceServer(s, rpc.New(disp, statusStore, res, health, validate, logger))
	return s
}

// runStalledSweep periodically reassigns or dead-letters jobs whose
// consumer has not reported within the channel's stalled interval, per
// §4.4's C4 reclaim contract. It runs until ctx is cancelled.
func runStalledSweep(ctx context.Context, q *queue.Queue, channels []model.Channel, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ch := range channels {
				n, err := q.ReclaimStalled(ctx, ch)
				if err != nil {
					logger.Warn("stalled sweep failed", "channel", ch, "error", err)
					continue
				}
				if n > 0 {
					logger.Info("reclaimed stalled jobs", "channel", ch, "count", n)
				}
			}
		}
	}
}

// runRetentionSweep periodically purges terminal Notification rows older
// than maxAge, per §4.3's commitment that retention is a scheduled sweep
// run from cmd/dispatcher rather than a public operation.
func runRetentionSweep(ctx context.Context, notificationStore *store.NotificationStore, maxAge, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := notificationStore.DeleteOlderThan(ctx, maxAge)
			if err != nil {
				logger.Warn("retention sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired notifications", "count", n)
			}
		}
	}
}
