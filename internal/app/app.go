package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/easey-git/easey-app-sub001/internal/dal/postgres"
	"github.com/easey-git/easey-app-sub001/internal/dal/rabbitmq"
	checkoutrepo "github.com/easey-git/easey-app-sub001/internal/dal/repositories/checkout/postgres"
	messagerepo "github.com/easey-git/easey-app-sub001/internal/dal/repositories/message/postgres"
	outboxrepo "github.com/easey-git/easey-app-sub001/internal/dal/repositories/outbox/postgres"
	pushtokenrepo "github.com/easey-git/easey-app-sub001/internal/dal/repositories/pushtoken/postgres"
	"github.com/easey-git/easey-app-sub001/internal/dal/uow"
	"github.com/easey-git/easey-app-sub001/internal/gateway/whatsapp"
	"github.com/easey-git/easey-app-sub001/internal/otel"
	"github.com/easey-git/easey-app-sub001/internal/service/services/checkoutsvc"
	"github.com/easey-git/easey-app-sub001/internal/service/services/lifecyclesvc"
	"github.com/easey-git/easey-app-sub001/internal/service/services/messengersvc"
	"github.com/easey-git/easey-app-sub001/internal/service/services/pushsvc"
	"github.com/easey-git/easey-app-sub001/internal/service/services/webhooksvc"
	httptransport "github.com/easey-git/easey-app-sub001/internal/transport/http"
	"github.com/easey-git/easey-app-sub001/internal/worker/dispatch"
)

// App represents the application.
type App struct {
	transport      *httptransport.HTTPTransport
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	dispatchWorker *dispatch.Worker
	otelController *otel.OtelController
	workerCancel   context.CancelFunc
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()
	gateway := whatsapp.MustNewGateway()

	messenger := messengersvc.MustNewMessengerService(
		messengersvc.WithGateway(gateway),
		messengersvc.WithMessageRepository(messagerepo.NewMessageRepository(postgresClient.Pool())),
	)

	pushSvc := pushsvc.MustNewPushService(
		pushsvc.WithPushTokenRepository(pushtokenrepo.NewPushTokenRepository(postgresClient.Pool())),
		pushsvc.WithOutboxRepository(outboxrepo.NewOutboxRepository(postgresClient.Pool())),
	)

	checkoutSvc := checkoutsvc.MustNewCheckoutService(
		checkoutsvc.WithCheckoutRepository(checkoutrepo.NewCheckoutRepository(postgresClient.Pool())),
		checkoutsvc.WithMessenger(messenger),
	)

	lifecycleSvc := lifecyclesvc.MustNewLifecycleService(
		lifecyclesvc.WithUnitOfWorkFactory(func() lifecyclesvc.UnitOfWork {
			return uow.NewUnitOfWork(postgresClient)
		}),
		lifecyclesvc.WithMessenger(messenger),
		lifecyclesvc.WithBroadcaster(pushSvc),
		lifecyclesvc.WithCleaner(checkoutSvc),
	)

	webhookSvc := webhooksvc.MustNewWebhookService(
		webhooksvc.WithLifecycle(lifecycleSvc),
		webhooksvc.WithRecorder(checkoutSvc),
	)

	dispatchWorker := dispatch.NewWorker(
		outboxrepo.NewOutboxRepository(postgresClient.Pool()),
		rabbitClient,
	)

	transport := httptransport.NewHTTPTransport(webhookSvc, lifecycleSvc, lifecycleSvc)
	transport.RegisterRoutes()

	return &App{
		transport:      transport,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		dispatchWorker: dispatchWorker,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.workerCancel = workerCancel
	go a.dispatchWorker.Start(workerCtx)

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	a.workerCancel()

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Trace provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
