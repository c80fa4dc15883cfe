package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/easey-git/easey-app-sub001/internal/service/models/order"
	"github.com/easey-git/easey-app-sub001/internal/transport/http/orders"
	"github.com/easey-git/easey-app-sub001/internal/transport/http/payu"
	"github.com/easey-git/easey-app-sub001/internal/transport/http/webhook"
	"github.com/easey-git/easey-app-sub001/pkg/http/middleware/trace"
	"github.com/easey-git/easey-app-sub001/pkg/logger"
)

type webhookService interface {
	Process(ctx context.Context, body []byte, query url.Values) error
}

type paymentService interface {
	HandlePaymentConfirmed(ctx context.Context, orderID string) error
}

type orderService interface {
	QueryOrders(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	webhooks webhookService
	payments paymentService
	orders   orderService
}

func NewHTTPTransport(webhooks webhookService, payments paymentService, orders orderService) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:   server,
		router:   router,
		webhooks: webhooks,
		payments: payments,
		orders:   orders,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/webhook", h.verifyWebhook)
		r.Post("/webhook", h.handleWebhook)
		r.Post("/payu/callback", h.handlePayuCallback)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
	})
}

func (h *HTTPTransport) verifyWebhook(w http.ResponseWriter, r *http.Request) {
	webhook.Verify(w, r)
}

func (h *HTTPTransport) handleWebhook(w http.ResponseWriter, r *http.Request) {
	webhook.Handle(w, r, h.webhooks)
}

func (h *HTTPTransport) handlePayuCallback(w http.ResponseWriter, r *http.Request) {
	payu.Callback(w, r, h.payments)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	orders.ListOrders(w, r, h.orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	orders.GetOrder(w, r, h.orders)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
