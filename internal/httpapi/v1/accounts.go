package v1

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oysterfarm/books/internal/ledger"
)

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	var req postAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	created, err := s.accountSvc.CreateAccount(r.Context(), ledger.Account{
		Code:          req.Code,
		Name:          req.Name,
		Type:          req.Type,
		NormalBalance: req.NormalBalance,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accountSvc.ListAccounts(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	a, err := s.accountSvc.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(a))
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	if err := s.accountSvc.DeleteAccount(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	bal, err := s.journalSvc.AccountBalance(r.Context(), id, includeAdjustments(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, balanceResponse{
		AccountID: id,
		Balance:   bal.String(),
		Display:   displayAmount(s.currency, bal),
	})
}

func (s *Server) getOpeningBalances(w http.ResponseWriter, r *http.Request) {
	rows, err := s.accountSvc.OpeningBalances(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]openingBalanceResponse, 0, len(rows))
	for _, ob := range rows {
		out = append(out, openingBalanceResponse{
			AccountID: ob.AccountID,
			Debit:     ob.Debit.String(),
			Credit:    ob.Credit.String(),
		})
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) putOpeningBalances(w http.ResponseWriter, r *http.Request) {
	var req putOpeningBalancesRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	rows := make([]ledger.OpeningBalance, 0, len(req.Rows))
	for _, row := range req.Rows {
		debit, err := parseAmount(row.Debit)
		if err != nil {
			badRequest(w, "bad debit amount "+row.Debit)
			return
		}
		credit, err := parseAmount(row.Credit)
		if err != nil {
			badRequest(w, "bad credit amount "+row.Credit)
			return
		}
		rows = append(rows, ledger.OpeningBalance{AccountID: row.AccountID, Debit: debit, Credit: credit})
	}
	if err := s.accountSvc.ReplaceOpeningBalances(r.Context(), rows); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// repairOpeningBalances reseeds the canonical opening balances. Explicit user
// action; never run automatically.
func (s *Server) repairOpeningBalances(w http.ResponseWriter, r *http.Request) {
	if err := s.accountSvc.RepairOpeningBalances(r.Context()); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
