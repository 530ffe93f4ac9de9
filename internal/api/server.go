// Package api exposes the trip engine over JSON HTTP. Handlers stay
// thin: decode, delegate to a service, map the error taxonomy onto
// status codes.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"triptally/internal/metrics"
	"triptally/internal/service"
)

// actorHeader carries the acting member's ID. Identity verification is
// the upstream auth collaborator's job; this system trusts the header.
const actorHeader = "X-Person-ID"

// Server holds the service dependencies behind the HTTP surface.
type Server struct {
	trips       *service.TripService
	expenses    *service.ExpenseService
	settlements *service.SettlementService
}

// NewServer creates a Server over the given services.
func NewServer(trips *service.TripService, expenses *service.ExpenseService, settlements *service.SettlementService) *Server {
	return &Server{trips: trips, expenses: expenses, settlements: settlements}
}

// Router builds the full route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(logRequests)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	handle := func(route, path string, h http.HandlerFunc, methods ...string) {
		api.Handle(path, metrics.InstrumentHTTP(route, h)).Methods(methods...)
	}

	handle("create_trip", "/trips", s.handleCreateTrip, "POST")
	handle("join_trip", "/trips/join", s.handleJoinTrip, "POST")
	handle("get_trip", "/trips/{tripId}", s.handleGetTrip, "GET")
	handle("start_trip", "/trips/{tripId}/start", s.handleStartTrip, "POST")
	handle("archive_trip", "/trips/{tripId}/archive", s.handleArchiveTrip, "POST")

	handle("add_member", "/trips/{tripId}/members", s.handleAddMember, "POST")
	handle("remove_member", "/trips/{tripId}/members/{memberId}", s.handleRemoveMember, "DELETE")
	handle("toggle_confirmation", "/trips/{tripId}/confirm", s.handleToggleConfirmation, "POST")

	handle("list_expenses", "/trips/{tripId}/expenses", s.handleListExpenses, "GET")
	handle("add_expense", "/trips/{tripId}/expenses", s.handleAddExpense, "POST")
	handle("update_expense", "/trips/{tripId}/expenses/{expenseId}", s.handleUpdateExpense, "PUT")
	handle("delete_expense", "/trips/{tripId}/expenses/{expenseId}", s.handleDeleteExpense, "DELETE")

	handle("balances", "/trips/{tripId}/balances", s.handleBalances, "GET")
	handle("summary", "/trips/{tripId}/summary", s.handleSummary, "GET")
	handle("settlements", "/trips/{tripId}/settlements", s.handleSettlements, "GET")
	handle("toggle_settlement", "/trips/{tripId}/settlements/{fromId}/{toId}/toggle", s.handleToggleSettlement, "POST")
	handle("initiate_payment", "/trips/{tripId}/settlements/{fromId}/{toId}/pay", s.handleInitiatePayment, "POST")
	handle("payment_result", "/trips/{tripId}/payments/result", s.handlePaymentResult, "POST")

	return router
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
