package v1

import (
	"net/http"
	"strconv"

	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/service/report"
)

// includeAdjustments reads the include_adjustments query parameter; statements
// default to the adjusted view.
func includeAdjustments(r *http.Request) bool {
	raw := r.URL.Query().Get("include_adjustments")
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	tb, err := s.reportSvc.TrialBalance(r.Context(), includeAdjustments(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTrialBalanceResponse(tb))
}

func (s *Server) postClosingTrialBalance(w http.ResponseWriter, r *http.Request) {
	tb, err := s.reportSvc.PostClosingTrialBalance(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTrialBalanceResponse(tb))
}

func (s *Server) incomeStatement(w http.ResponseWriter, r *http.Request) {
	is, err := s.reportSvc.IncomeStatement(r.Context(), includeAdjustments(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, incomeStatementResponse{
		Revenue:          toAmountRows(is.Revenue),
		Expenses:         toAmountRows(is.Expenses),
		TotalRevenue:     is.TotalRevenue.String(),
		TotalExpense:     is.TotalExpense.String(),
		NetIncome:        is.NetIncome.String(),
		NetIncomeDisplay: displayAmount(s.currency, is.NetIncome),
	})
}

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	bs, err := s.reportSvc.BalanceSheet(r.Context(), includeAdjustments(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, balanceSheetResponse{
		Assets:           toAmountRows(bs.Assets),
		Liabilities:      toAmountRows(bs.Liabilities),
		Equity:           toAmountRows(bs.Equity),
		NetIncome:        bs.NetIncome.String(),
		TotalAssets:      bs.TotalAssets.String(),
		TotalLiabilities: bs.TotalLiabilities.String(),
		TotalEquity:      bs.TotalEquity.String(),
		Balanced:         bs.Balanced,
	})
}

func (s *Server) cashFlow(w http.ResponseWriter, r *http.Request) {
	cf, err := s.reportSvc.CashFlow(r.Context(), includeAdjustments(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, cashFlowResponse{
		Operating:   cf.Operating.String(),
		Investing:   cf.Investing.String(),
		Financing:   cf.Financing.String(),
		NetCashFlow: cf.NetCashFlow.String(),
	})
}

func (s *Server) equityStatement(w http.ResponseWriter, r *http.Request) {
	es, err := s.reportSvc.EquityStatement(r.Context(), includeAdjustments(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, equityStatementResponse{
		BeginningCapital: es.BeginningCapital.String(),
		Contributions:    es.Contributions.String(),
		NetIncome:        es.NetIncome.String(),
		Drawings:         es.Drawings.String(),
		EndingCapital:    es.EndingCapital.String(),
	})
}

// closingPreview shows the entries a closing run would post, without posting.
func (s *Server) closingPreview(w http.ResponseWriter, r *http.Request) {
	lines, netIncome, err := s.reportSvc.ClosingEntries(r.Context(), includeAdjustments(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]closingLineResponse, 0, len(lines))
	for _, ln := range lines {
		out = append(out, closingLineResponse{
			AccountID:   ln.AccountID,
			Side:        ln.Side,
			Debit:       ln.Debit.String(),
			Credit:      ln.Credit.String(),
			Description: ln.Description,
		})
	}
	toJSON(w, http.StatusOK, closingPreviewResponse{Lines: out, NetIncome: netIncome.String()})
}

func (s *Server) postClosing(w http.ResponseWriter, r *http.Request) {
	var req postClosingRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	in := report.ClosingInput{Date: req.Date, IncludeAdjustments: true}
	if req.IncludeAdjustments != nil {
		in.IncludeAdjustments = *req.IncludeAdjustments
	}
	entry, err := s.reportSvc.PostClosing(r.Context(), in)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	closingRunsTotal.Inc()
	entriesPostedTotal.WithLabelValues(ledger.TxClosing).Inc()
	toJSON(w, http.StatusCreated, toEntryResponse(entry))
}
