package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/services"
)

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	recent, err := parseRecent(r.URL.Query(), s.recent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.ledger.Summary(r.Context(), recent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	ev, err := s.ledger.EvaluateAlert(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.Expenses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.ledger.Goals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// respond writes the committed ledger and its alert evaluation
func respond(w http.ResponseWriter, r *http.Request, status int, res services.Result, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, res)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	name, amount, date, err := req.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.AddIncome(r.Context(), name, amount, date)
	respond(w, r, http.StatusCreated, res, err)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.AddExpense(r.Context(), in)
	respond(w, r, http.StatusCreated, res, err)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.DeleteExpense(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, res, err)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := core.ParseAmount("target", string(req.Target))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.AddGoal(r.Context(), sanitizeInput(req.Name), target)
	respond(w, r, http.StatusCreated, res, err)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := core.ParseAmount("amount", string(req.Amount))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.ContributeToGoal(r.Context(), r.PathValue("id"), amount)
	respond(w, r, http.StatusOK, res, err)
}

func (s *Server) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	value, err := core.ParseThreshold(string(req.Value))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.SetAlertThreshold(r.Context(), value)
	respond(w, r, http.StatusOK, res, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.ResetAll(r.Context())
	respond(w, r, http.StatusOK, res, err)
}
