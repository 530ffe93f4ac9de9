package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"triptally/internal/errs"
	"triptally/internal/payments"
	"triptally/internal/service"
)

func actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(actorHeader)
	if id == "" {
		writeError(w, errs.Validationf("missing %s header", actorHeader))
		return "", false
	}
	return id, true
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		BaseCurrency string `json:"baseCurrency"`
		CreatorName  string `json:"creatorName"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	trip, err := s.trips.CreateTrip(r.Context(), req.Name, req.BaseCurrency, req.CreatorName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

func (s *Server) handleJoinTrip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code       string `json:"code"`
		Name       string `json:"name"`
		ExternalID string `json:"externalId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	trip, memberID, err := s.trips.JoinTrip(r.Context(), req.Code, req.Name, req.ExternalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trip": trip, "memberId": memberID})
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.GetTrip(r.Context(), mux.Vars(r)["tripId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleStartTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.StartTrip(r.Context(), mux.Vars(r)["tripId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleArchiveTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.ArchiveTrip(r.Context(), mux.Vars(r)["tripId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	trip, err := s.trips.AddMember(r.Context(), mux.Vars(r)["tripId"], req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	trip, err := s.trips.RemoveMember(r.Context(), vars["tripId"], vars["memberId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleToggleConfirmation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.ToggleConfirmation(r.Context(), mux.Vars(r)["tripId"], actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.GetTrip(r.Context(), mux.Vars(r)["tripId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": trip.Expenses})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	var in service.ExpenseInput
	if !decodeBody(w, r, &in) {
		return
	}
	trip, err := s.expenses.AddExpense(r.Context(), mux.Vars(r)["tripId"], actor, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in service.ExpenseInput
	if !decodeBody(w, r, &in) {
		return
	}
	vars := mux.Vars(r)
	trip, err := s.expenses.UpdateExpense(r.Context(), vars["tripId"], vars["expenseId"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	trip, err := s.expenses.DeleteExpense(r.Context(), vars["tripId"], vars["expenseId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.settlements.Balances(r.Context(), mux.Vars(r)["tripId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": balances})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.settlements.Summary(r.Context(), mux.Vars(r)["tripId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.settlements.Settlements(r.Context(), mux.Vars(r)["tripId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": transfers})
}

func (s *Server) handleToggleSettlement(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	trip, err := s.settlements.ToggleReceived(r.Context(), vars["tripId"], actor, vars["fromId"], vars["toId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	link, err := s.settlements.InitiatePayment(r.Context(), vars["tripId"], actor, vars["fromId"], vars["toId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"paymentUrl": link})
}

func (s *Server) handlePaymentResult(w http.ResponseWriter, r *http.Request) {
	var res payments.Result
	if !decodeBody(w, r, &res) {
		return
	}
	trip, err := s.settlements.RecordProviderResult(r.Context(), mux.Vars(r)["tripId"], res)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}
