package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vani-bank-backend/internal/bank"
	"vani-bank-backend/internal/types"
)

// REST mirrors of the domain operations. The loan and card endpoints route
// through the dispatcher so commits share its per-user locking.

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	user, err := s.store.GetUser(r.Context(), userID)
	if errors.Is(err, bank.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	s.writeJSON(w, http.StatusOK, user.Profile)
}

func (s *Server) handleUserAccounts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	user, err := s.store.GetUser(r.Context(), userID)
	if errors.Is(err, bank.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	s.writeJSON(w, http.StatusOK, user.Profile.Accounts)
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	acc, err := s.store.Account(r.Context(), accountID)
	if errors.Is(err, bank.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bank.Paise{"balance": acc.Balance})
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	entries, err := s.store.Transactions(r.Context(), accountID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	if entries == nil {
		entries = []bank.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAccountCharges(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	entries, err := s.store.Charges(r.Context(), accountID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load charges")
		return
	}
	if entries == nil {
		entries = []bank.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleApplyLoan is the one-shot REST path: quote and commit in a single
// request, expressed as the dispatcher's two phases back to back.
func (s *Server) handleApplyLoan(w http.ResponseWriter, r *http.Request) {
	var req types.LoanApplication
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.LoanType == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and loan_type are required")
		return
	}

	quote, err := s.dispatcher.Dispatch(r.Context(), req.UserID, bank.Envelope{
		Intent:   bank.IntentApplyLoan,
		LoanType: req.LoanType,
		Amount:   req.Amount,
	}, "")
	if errors.Is(err, bank.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loan application failed")
		return
	}
	if quote.Directive == nil || quote.Directive.Action != bank.ActionConfirmLoan {
		s.writeJSON(w, http.StatusOK, types.LoanDecision{
			Status: "rejected",
			Reason: "Credit score or loan amount out of range.",
		})
		return
	}

	commit, err := s.dispatcher.Dispatch(r.Context(), req.UserID, bank.Envelope{
		Intent:       bank.IntentConfirmLoan,
		LoanType:     quote.Directive.LoanType,
		Amount:       quote.Directive.Amount,
		InterestRate: quote.Directive.InterestRate,
	}, "")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loan application failed")
		return
	}
	s.writeJSON(w, http.StatusOK, types.LoanDecision{
		ApplicationID: commit.Result.LoanID,
		Status:        bank.LoanApproved,
		InterestRate:  commit.Result.InterestRate,
	})
}

func (s *Server) handleBlockCard(w http.ResponseWriter, r *http.Request) {
	var req types.CardBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.CardID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and card_id are required")
		return
	}

	reply, err := s.dispatcher.Dispatch(r.Context(), req.UserID, bank.Envelope{
		Intent: bank.IntentConfirmBlock,
		CardID: req.CardID,
	}, "")
	if errors.Is(err, bank.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "card block failed")
		return
	}
	if reply.Result == nil || reply.Result.Kind != bank.ResultCardBlocked {
		s.writeError(w, http.StatusNotFound, "Card not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Card " + req.CardID + " has been blocked.",
	})
}
