package v1

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/service/journal"
	"github.com/oysterfarm/books/internal/service/report"
)

// Amounts travel as decimal strings on the wire ("2500.00"); Display fields
// add the currency-formatted rendering.

// --- Requests ---

type postAccountRequest struct {
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	Type          ledger.AccountType `json:"type"`
	NormalBalance ledger.Side        `json:"normal_balance,omitempty"`
}

type openingBalanceRow struct {
	AccountID uuid.UUID `json:"account_id"`
	Debit     string    `json:"debit,omitempty"`
	Credit    string    `json:"credit,omitempty"`
}

type putOpeningBalancesRequest struct {
	Rows []openingBalanceRow `json:"rows"`
}

type entryLineRequest struct {
	AccountID   uuid.UUID   `json:"account_id"`
	Debit       string      `json:"debit,omitempty"`
	Credit      string      `json:"credit,omitempty"`
	Side        ledger.Side `json:"side,omitempty"`
	Description string      `json:"description,omitempty"`
}

type postEntryRequest struct {
	Kind            ledger.EntryKind   `json:"kind,omitempty"`
	Date            time.Time          `json:"date,omitempty"`
	Description     string             `json:"description,omitempty"`
	Reference       string             `json:"reference,omitempty"`
	TransactionType string             `json:"transaction_type,omitempty"`
	TemplateKey     string             `json:"template_key,omitempty"`
	Lines           []entryLineRequest `json:"lines"`
}

type postClosingRequest struct {
	Date               time.Time `json:"date,omitempty"`
	IncludeAdjustments *bool     `json:"include_adjustments,omitempty"`
}

// parseAmount converts a wire amount to a decimal; empty means zero.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.Parse(s)
}

// toEntryInput converts a request body into the service input, reporting the
// first malformed amount.
func toEntryInput(req postEntryRequest) (journal.EntryInput, error) {
	lines := make([]ledger.LineInput, 0, len(req.Lines))
	for i, ln := range req.Lines {
		debit, err := parseAmount(ln.Debit)
		if err != nil {
			return journal.EntryInput{}, fmt.Errorf("line[%d]: bad debit amount %q", i, ln.Debit)
		}
		credit, err := parseAmount(ln.Credit)
		if err != nil {
			return journal.EntryInput{}, fmt.Errorf("line[%d]: bad credit amount %q", i, ln.Credit)
		}
		lines = append(lines, ledger.LineInput{
			AccountID:   ln.AccountID,
			Debit:       debit,
			Credit:      credit,
			Side:        ln.Side,
			Description: ln.Description,
		})
	}
	return journal.EntryInput{
		Kind:            req.Kind,
		Date:            req.Date,
		Description:     req.Description,
		Reference:       req.Reference,
		TransactionType: req.TransactionType,
		TemplateKey:     req.TemplateKey,
		Lines:           lines,
	}, nil
}

// --- Responses ---

type accountResponse struct {
	ID            uuid.UUID          `json:"id"`
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	Type          ledger.AccountType `json:"type"`
	NormalBalance ledger.Side        `json:"normal_balance"`
	Active        bool               `json:"active"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Code:          a.Code,
		Name:          a.Name,
		Type:          a.Type,
		NormalBalance: a.NormalBalance,
		Active:        a.Active,
	}
}

type balanceResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Balance   string    `json:"balance"`
	Display   string    `json:"display"`
}

type openingBalanceResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Debit     string    `json:"debit"`
	Credit    string    `json:"credit"`
}

type lineResponse struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	Debit       string    `json:"debit"`
	Credit      string    `json:"credit"`
	Description string    `json:"description,omitempty"`
}

type entryResponse struct {
	ID              uuid.UUID        `json:"id"`
	Kind            ledger.EntryKind `json:"kind"`
	Date            time.Time        `json:"date"`
	Description     string           `json:"description,omitempty"`
	Reference       string           `json:"reference,omitempty"`
	TransactionType string           `json:"transaction_type"`
	Posted          bool             `json:"posted"`
	TotalDebit      string           `json:"total_debit"`
	TotalCredit     string           `json:"total_credit"`
	Lines           []lineResponse   `json:"lines"`
}

func toEntryResponse(e ledger.Entry) entryResponse {
	lines := make([]lineResponse, 0, len(e.Lines))
	for _, ln := range e.Lines {
		lines = append(lines, lineResponse{
			ID:          ln.ID,
			AccountID:   ln.AccountID,
			Debit:       ln.Debit.String(),
			Credit:      ln.Credit.String(),
			Description: ln.Description,
		})
	}
	return entryResponse{
		ID:              e.ID,
		Kind:            e.Kind,
		Date:            e.Date,
		Description:     e.Description,
		Reference:       e.Reference,
		TransactionType: e.TransactionType,
		Posted:          e.Posted,
		TotalDebit:      e.TotalDebit().String(),
		TotalCredit:     e.TotalCredit().String(),
		Lines:           lines,
	}
}

type validationResultResponse struct {
	Valid      bool                      `json:"valid"`
	Violations []journal.ValidationError `json:"violations"`
}

type templateLineResponse struct {
	AccountCode string      `json:"account_code"`
	Side        ledger.Side `json:"side"`
	Editable    bool        `json:"editable"`
	Description string      `json:"description,omitempty"`
}

type templateResponse struct {
	Key   string                 `json:"key"`
	Label string                 `json:"label"`
	Lines []templateLineResponse `json:"lines"`
}

func toTemplateResponse(t ledger.Template) templateResponse {
	lines := make([]templateLineResponse, 0, len(t.Lines))
	for _, ln := range t.Lines {
		lines = append(lines, templateLineResponse{
			AccountCode: ln.AccountCode,
			Side:        ln.Side,
			Editable:    ln.Editable,
			Description: ln.Description,
		})
	}
	return templateResponse{Key: t.Key, Label: t.Label, Lines: lines}
}

type trialBalanceRowResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Debit     string    `json:"debit"`
	Credit    string    `json:"credit"`
}

type trialBalanceResponse struct {
	Rows        []trialBalanceRowResponse `json:"rows"`
	TotalDebit  string                    `json:"total_debit"`
	TotalCredit string                    `json:"total_credit"`
	Balanced    bool                      `json:"balanced"`
}

func toTrialBalanceResponse(tb report.TrialBalance) trialBalanceResponse {
	rows := make([]trialBalanceRowResponse, 0, len(tb.Rows))
	for _, r := range tb.Rows {
		rows = append(rows, trialBalanceRowResponse{
			AccountID: r.Account.ID,
			Code:      r.Account.Code,
			Name:      r.Account.Name,
			Debit:     r.Debit.String(),
			Credit:    r.Credit.String(),
		})
	}
	return trialBalanceResponse{
		Rows:        rows,
		TotalDebit:  tb.TotalDebit.String(),
		TotalCredit: tb.TotalCredit.String(),
		Balanced:    tb.Balanced,
	}
}

type amountRowResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Amount    string    `json:"amount"`
}

func toAmountRows(rows []report.AccountAmount) []amountRowResponse {
	out := make([]amountRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, amountRowResponse{
			AccountID: r.Account.ID,
			Code:      r.Account.Code,
			Name:      r.Account.Name,
			Amount:    r.Amount.String(),
		})
	}
	return out
}

type incomeStatementResponse struct {
	Revenue          []amountRowResponse `json:"revenue"`
	Expenses         []amountRowResponse `json:"expenses"`
	TotalRevenue     string              `json:"total_revenue"`
	TotalExpense     string              `json:"total_expense"`
	NetIncome        string              `json:"net_income"`
	NetIncomeDisplay string              `json:"net_income_display"`
}

type balanceSheetResponse struct {
	Assets           []amountRowResponse `json:"assets"`
	Liabilities      []amountRowResponse `json:"liabilities"`
	Equity           []amountRowResponse `json:"equity"`
	NetIncome        string              `json:"net_income"`
	TotalAssets      string              `json:"total_assets"`
	TotalLiabilities string              `json:"total_liabilities"`
	TotalEquity      string              `json:"total_equity"`
	Balanced         bool                `json:"balanced"`
}

type cashFlowResponse struct {
	Operating   string `json:"operating"`
	Investing   string `json:"investing"`
	Financing   string `json:"financing"`
	NetCashFlow string `json:"net_cash_flow"`
}

type equityStatementResponse struct {
	BeginningCapital string `json:"beginning_capital"`
	Contributions    string `json:"contributions"`
	NetIncome        string `json:"net_income"`
	Drawings         string `json:"drawings"`
	EndingCapital    string `json:"ending_capital"`
}

type closingLineResponse struct {
	AccountID   uuid.UUID   `json:"account_id"`
	Side        ledger.Side `json:"side"`
	Debit       string      `json:"debit"`
	Credit      string      `json:"credit"`
	Description string      `json:"description,omitempty"`
}

type closingPreviewResponse struct {
	Lines     []closingLineResponse `json:"lines"`
	NetIncome string                `json:"net_income"`
}

type movementResponse struct {
	ID          uuid.UUID `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
	AccountCode string    `json:"account_code"`
	QuantityIn  string    `json:"quantity_in"`
	QuantityOut string    `json:"quantity_out"`
	UnitCost    string    `json:"unit_cost"`
	Value       string    `json:"value"`
}

type stockResponse struct {
	Stock map[string]string `json:"stock"`
}

// displayAmount renders a decimal in the service currency. Falls back to the
// plain decimal string when the value does not fit minor units.
func displayAmount(currency string, d decimal.Decimal) string {
	whole, frac, ok := d.Int64(2)
	if !ok {
		return d.String()
	}
	amt, err := money.NewAmountFromMinorUnits(currency, whole*100+frac)
	if err != nil {
		return d.String()
	}
	return amt.String()
}
