package report

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/oysterfarm/books/internal/dictionary"
	"github.com/oysterfarm/books/internal/errs"
	"github.com/oysterfarm/books/internal/ledger"
)

// Repo defines the read operations needed by the statement generator.
type Repo interface {
	Accounts(ctx context.Context) ([]ledger.Account, error)
	AccountByCode(ctx context.Context, code string) (ledger.Account, error)
	LinesByAccount(ctx context.Context, accountID uuid.UUID, kind ledger.EntryKind) ([]ledger.Line, error)
	EntriesByKind(ctx context.Context, kind ledger.EntryKind) ([]ledger.Entry, error)
	OpeningBalanceByAccount(ctx context.Context, accountID uuid.UUID) (ledger.OpeningBalance, bool, error)
}

// BalanceCalculator computes point-in-time account balances (journal service).
type BalanceCalculator interface {
	AccountBalance(ctx context.Context, accountID uuid.UUID, includeAdjustments bool) (decimal.Decimal, error)
}

// TrialBalanceRow places one account's balance on its debit or credit column.
type TrialBalanceRow struct {
	Account ledger.Account
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// TrialBalance lists every non-zero account balance split into columns.
// Balanced is a reported result, not an invariant: an unbalanced trial
// balance is exactly what this tool exists to surface.
type TrialBalance struct {
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balanced    bool
}

// AccountAmount pairs an account with a computed amount for a statement section.
type AccountAmount struct {
	Account ledger.Account
	Amount  decimal.Decimal
}

// IncomeStatement reports revenue and expense nets and the resulting net income.
type IncomeStatement struct {
	Revenue      []AccountAmount
	Expenses     []AccountAmount
	TotalRevenue decimal.Decimal
	TotalExpense decimal.Decimal
	NetIncome    decimal.Decimal
}

// BalanceSheet reports assets against liabilities and equity. Current-period
// net income is folded into equity since closing may not have happened yet.
// Balanced reports whether the accounting equation holds; it is never
// asserted here (bad data is a displayable condition).
type BalanceSheet struct {
	Assets           []AccountAmount
	Liabilities      []AccountAmount
	Equity           []AccountAmount
	NetIncome        decimal.Decimal
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal
	Balanced         bool
}

// CashFlow is the cash-basis three-section statement.
type CashFlow struct {
	Operating   decimal.Decimal
	Investing   decimal.Decimal
	Financing   decimal.Decimal
	NetCashFlow decimal.Decimal
}

// EquityStatement reconciles owner capital across the period.
type EquityStatement struct {
	BeginningCapital decimal.Decimal
	Contributions    decimal.Decimal
	NetIncome        decimal.Decimal
	Drawings         decimal.Decimal
	EndingCapital    decimal.Decimal
}

// Service generates the financial statements and the closing entries.
// All read operations work off the same ledger snapshot semantics: account
// balances per the balance calculator, classified by Account.Type.
type Service interface {
	TrialBalance(ctx context.Context, includeAdjustments bool) (TrialBalance, error)
	IncomeStatement(ctx context.Context, includeAdjustments bool) (IncomeStatement, error)
	BalanceSheet(ctx context.Context, includeAdjustments bool) (BalanceSheet, error)
	CashFlow(ctx context.Context, includeAdjustments bool) (CashFlow, error)
	EquityStatement(ctx context.Context, includeAdjustments bool) (EquityStatement, error)
	ClosingEntries(ctx context.Context, includeAdjustments bool) ([]ledger.LineInput, decimal.Decimal, error)
	PostClosing(ctx context.Context, in ClosingInput) (ledger.Entry, error)
	PostClosingTrialBalance(ctx context.Context) (TrialBalance, error)
}

type service struct {
	repo   Repo
	calc   BalanceCalculator
	poster Poster
}

// New constructs the statement generator. poster is the journal service's
// posting engine, used only by PostClosing.
func New(repo Repo, calc BalanceCalculator, poster Poster) Service {
	return &service{repo: repo, calc: calc, poster: poster}
}

// TrialBalance places every non-zero balance on the account's normal side,
// or on the opposite side as an absolute value when the balance is negative.
func (s *service) TrialBalance(ctx context.Context, includeAdjustments bool) (TrialBalance, error) {
	return s.trialBalance(ctx, includeAdjustments, nil)
}

func (s *service) trialBalance(ctx context.Context, includeAdjustments bool, include func(ledger.AccountType) bool) (TrialBalance, error) {
	accounts, err := s.repo.Accounts(ctx)
	if err != nil {
		return TrialBalance{}, err
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	var tb TrialBalance
	for _, acc := range accounts {
		if include != nil && !include(acc.Type) {
			continue
		}
		bal, err := s.calc.AccountBalance(ctx, acc.ID, includeAdjustments)
		if err != nil {
			return TrialBalance{}, err
		}
		if bal.IsZero() {
			continue
		}
		row := TrialBalanceRow{Account: acc}
		side := acc.NormalBalance
		if bal.Sign() < 0 {
			side = side.Opposite()
			bal = bal.Abs()
		}
		if side == ledger.SideDebit {
			row.Debit = bal
		} else {
			row.Credit = bal
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit = ledger.Add(tb.TotalDebit, row.Debit)
		tb.TotalCredit = ledger.Add(tb.TotalCredit, row.Credit)
	}
	tb.Balanced = ledger.WithinTolerance(tb.TotalDebit, tb.TotalCredit)
	return tb, nil
}

func (s *service) IncomeStatement(ctx context.Context, includeAdjustments bool) (IncomeStatement, error) {
	accounts, err := s.repo.Accounts(ctx)
	if err != nil {
		return IncomeStatement{}, err
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	var is IncomeStatement
	for _, acc := range accounts {
		if !acc.Type.Nominal() {
			continue
		}
		bal, err := s.calc.AccountBalance(ctx, acc.ID, includeAdjustments)
		if err != nil {
			return IncomeStatement{}, err
		}
		if bal.IsZero() {
			continue
		}
		switch acc.Type {
		case ledger.AccountTypeRevenue:
			is.Revenue = append(is.Revenue, AccountAmount{Account: acc, Amount: bal})
			is.TotalRevenue = ledger.Add(is.TotalRevenue, bal)
		case ledger.AccountTypeExpense:
			is.Expenses = append(is.Expenses, AccountAmount{Account: acc, Amount: bal})
			is.TotalExpense = ledger.Add(is.TotalExpense, bal)
		}
	}
	is.NetIncome = ledger.Sub(is.TotalRevenue, is.TotalExpense)
	return is, nil
}

func (s *service) BalanceSheet(ctx context.Context, includeAdjustments bool) (BalanceSheet, error) {
	accounts, err := s.repo.Accounts(ctx)
	if err != nil {
		return BalanceSheet{}, err
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	var bs BalanceSheet
	for _, acc := range accounts {
		if acc.Type.Nominal() {
			continue
		}
		bal, err := s.calc.AccountBalance(ctx, acc.ID, includeAdjustments)
		if err != nil {
			return BalanceSheet{}, err
		}
		if bal.IsZero() {
			continue
		}
		switch acc.Type {
		case ledger.AccountTypeAsset:
			bs.Assets = append(bs.Assets, AccountAmount{Account: acc, Amount: bal})
			bs.TotalAssets = ledger.Add(bs.TotalAssets, bal)
		case ledger.AccountTypeContraAsset:
			// Contra assets sit in the asset section as reductions.
			bs.Assets = append(bs.Assets, AccountAmount{Account: acc, Amount: bal.Neg()})
			bs.TotalAssets = ledger.Sub(bs.TotalAssets, bal)
		case ledger.AccountTypeLiability:
			bs.Liabilities = append(bs.Liabilities, AccountAmount{Account: acc, Amount: bal})
			bs.TotalLiabilities = ledger.Add(bs.TotalLiabilities, bal)
		case ledger.AccountTypeEquity:
			contribution := bal
			if acc.NormalBalance == ledger.SideDebit {
				contribution = bal.Neg()
			}
			bs.Equity = append(bs.Equity, AccountAmount{Account: acc, Amount: contribution})
			bs.TotalEquity = ledger.Add(bs.TotalEquity, contribution)
		}
	}

	is, err := s.IncomeStatement(ctx, includeAdjustments)
	if err != nil {
		return BalanceSheet{}, err
	}
	bs.NetIncome = is.NetIncome
	bs.TotalEquity = ledger.Add(bs.TotalEquity, is.NetIncome)
	bs.Balanced = ledger.WithinTolerance(bs.TotalAssets, ledger.Add(bs.TotalLiabilities, bs.TotalEquity))
	return bs, nil
}

// CashFlow reports on a cash basis: operating is net income, investing is
// the period movement on the designated equipment account, financing the
// movement on the capital, drawings and bank loan accounts.
func (s *service) CashFlow(ctx context.Context, includeAdjustments bool) (CashFlow, error) {
	is, err := s.IncomeStatement(ctx, includeAdjustments)
	if err != nil {
		return CashFlow{}, err
	}
	cf := CashFlow{Operating: is.NetIncome}

	investing, err := s.flowNet(ctx, dictionary.CodeEquipment, includeAdjustments)
	if err != nil {
		return CashFlow{}, err
	}
	cf.Investing = investing

	for _, code := range []string{dictionary.CodeCapital, dictionary.CodeDrawings, dictionary.CodeBankLoan} {
		net, err := s.flowNet(ctx, code, includeAdjustments)
		if err != nil {
			return CashFlow{}, err
		}
		cf.Financing = ledger.Add(cf.Financing, net)
	}
	cf.NetCashFlow = ledger.Add(ledger.Add(cf.Operating, cf.Investing), cf.Financing)
	return cf, nil
}

// flowNet sums credit-debit over the period's lines of a designated account.
// A designated code absent from a customized chart contributes zero.
func (s *service) flowNet(ctx context.Context, code string, includeAdjustments bool) (decimal.Decimal, error) {
	var net decimal.Decimal
	acc, err := s.repo.AccountByCode(ctx, code)
	if errors.Is(err, errs.ErrNotFound) {
		return net, nil
	}
	if err != nil {
		return net, err
	}
	kinds := []ledger.EntryKind{ledger.KindJournal}
	if includeAdjustments {
		kinds = append(kinds, ledger.KindAdjusting)
	}
	for _, kind := range kinds {
		lines, err := s.repo.LinesByAccount(ctx, acc.ID, kind)
		if err != nil {
			return decimal.Decimal{}, err
		}
		for _, ln := range lines {
			net = ledger.Add(net, ledger.Sub(ln.Credit, ln.Debit))
		}
	}
	return net, nil
}

// EquityStatement: beginning capital + contributions + net income - drawings
// = ending capital.
func (s *service) EquityStatement(ctx context.Context, includeAdjustments bool) (EquityStatement, error) {
	var es EquityStatement

	capital, err := s.repo.AccountByCode(ctx, dictionary.CodeCapital)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return EquityStatement{}, err
	}
	if err == nil {
		if ob, ok, err := s.repo.OpeningBalanceByAccount(ctx, capital.ID); err != nil {
			return EquityStatement{}, err
		} else if ok {
			es.BeginningCapital = capital.SignedNet(ob.Debit, ob.Credit)
		}
		contributions, err := s.flowNet(ctx, dictionary.CodeCapital, includeAdjustments)
		if err != nil {
			return EquityStatement{}, err
		}
		es.Contributions = contributions
	}

	if drawings, err := s.repo.AccountByCode(ctx, dictionary.CodeDrawings); err == nil {
		bal, err := s.calc.AccountBalance(ctx, drawings.ID, includeAdjustments)
		if err != nil {
			return EquityStatement{}, err
		}
		es.Drawings = bal
	} else if !errors.Is(err, errs.ErrNotFound) {
		return EquityStatement{}, err
	}

	is, err := s.IncomeStatement(ctx, includeAdjustments)
	if err != nil {
		return EquityStatement{}, err
	}
	es.NetIncome = is.NetIncome
	es.EndingCapital = ledger.Sub(
		ledger.Add(ledger.Add(es.BeginningCapital, es.Contributions), es.NetIncome),
		es.Drawings,
	)
	return es, nil
}
