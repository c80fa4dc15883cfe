package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"

	"github.com/easey-git/easey-app-sub001/internal/service/models/order"
)

// service is an interface for the service layer.
type service interface {
	QueryOrders(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
}

type queryOrdersRequest struct {
	Ids    []string `schema:"ids,omitempty"`
	Phone  string   `schema:"phone,omitempty"`
	Status string   `schema:"status,omitempty"`
	Limit  int      `schema:"limit,omitempty"`
	Offset int      `schema:"offset,omitempty"`
}

func (q *queryOrdersRequest) ToModel() *order.QueryOrdersModel {
	return &order.QueryOrdersModel{
		Ids:             q.Ids,
		PhoneNormalized: q.Phone,
		Status:          order.Status(q.Status),
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
}

// ListOrders serves the operations read surface: orders filtered by id,
// normalized phone, or status.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding list orders request", "error", err)

		return
	}

	orders, err := service.QueryOrders(r.Context(), query.ToModel())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error querying orders", "error", err)

		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		slog.Error("Error sending response", "error", err)
	}
}

// GetOrder serves one order by its external id.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	id := chi.URLParam(r, "id")

	o, err := service.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)

			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error getting order", "order_id", id, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(o); err != nil {
		slog.Error("Error sending response", "error", err)
	}
}
