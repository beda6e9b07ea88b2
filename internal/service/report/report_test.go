package report

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/oysterfarm/books/internal/dictionary"
	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/service/journal"
	"github.com/oysterfarm/books/internal/storage/memory"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

// fixture seeds the canonical chart and opening balances and returns the
// wired report service plus the journal service used for posting.
func fixture(t *testing.T) (Service, journal.Service, map[string]ledger.Account) {
	t.Helper()
	store := memory.New()
	chart := make(map[string]ledger.Account)
	for _, def := range dictionary.Chart() {
		a := ledger.Account{
			ID:            uuid.New(),
			Code:          def.Code,
			Name:          def.Name,
			Type:          def.Type,
			NormalBalance: dictionary.NormalSideFor(def),
			Active:        true,
		}
		store.SeedAccount(a)
		chart[def.Code] = a
	}
	for code, amounts := range dictionary.CanonicalOpeningBalances() {
		store.SeedOpeningBalance(ledger.OpeningBalance{
			AccountID: chart[code].ID,
			Debit:     amounts.Debit,
			Credit:    amounts.Credit,
		})
	}
	accounts := make([]ledger.Account, 0, len(chart))
	for _, a := range chart {
		accounts = append(accounts, a)
	}
	templates, err := dictionary.CompileTemplates(accounts)
	if err != nil {
		t.Fatalf("compile templates: %v", err)
	}
	jsvc := journal.New(store, store, templates)
	return New(store, jsvc, jsvc), jsvc, chart
}

func post(t *testing.T, jsvc journal.Service, in journal.EntryInput) ledger.Entry {
	t.Helper()
	e, err := jsvc.PostEntry(context.Background(), in)
	if err != nil {
		t.Fatalf("post entry: %v", err)
	}
	return e
}

func saleAndExpense(t *testing.T, jsvc journal.Service, chart map[string]ledger.Account) {
	t.Helper()
	post(t, jsvc, journal.EntryInput{
		Description: "penjualan tunai",
		Lines: []ledger.LineInput{
			{AccountID: chart["101"].ID, Debit: dec(t, "600000.00")},
			{AccountID: chart["401"].ID, Credit: dec(t, "600000.00")},
		},
	})
	post(t, jsvc, journal.EntryInput{
		Description: "gaji",
		Lines: []ledger.LineInput{
			{AccountID: chart["501"].ID, Debit: dec(t, "200000.00")},
			{AccountID: chart["101"].ID, Credit: dec(t, "200000.00")},
		},
	})
}

func TestTrialBalance_OpeningOnly(t *testing.T) {
	svc, _, _ := fixture(t)
	tb, err := svc.TrialBalance(context.Background(), true)
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	if !tb.Balanced {
		t.Fatalf("opening-only trial balance must balance: %+v", tb)
	}
	if tb.TotalDebit.Cmp(dec(t, "23500000.00")) != 0 {
		t.Errorf("total debit = %s, want 23500000.00", tb.TotalDebit)
	}
	if tb.TotalCredit.Cmp(tb.TotalDebit) != 0 {
		t.Errorf("total credit = %s, want %s", tb.TotalCredit, tb.TotalDebit)
	}
	// Rows come back in chart-code order and zero balances are skipped.
	if len(tb.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(tb.Rows))
	}
	if tb.Rows[0].Account.Code != "101" || tb.Rows[2].Account.Code != "301" {
		t.Errorf("unexpected row order: %s..%s", tb.Rows[0].Account.Code, tb.Rows[2].Account.Code)
	}
}

func TestTrialBalance_StaysBalancedAfterPostings(t *testing.T) {
	svc, jsvc, chart := fixture(t)
	saleAndExpense(t, jsvc, chart)
	tb, err := svc.TrialBalance(context.Background(), true)
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	if !tb.Balanced {
		t.Fatalf("trial balance must stay balanced: debit %s credit %s", tb.TotalDebit, tb.TotalCredit)
	}
}

func TestIncomeStatement_AdjustmentToggle(t *testing.T) {
	svc, jsvc, chart := fixture(t)
	saleAndExpense(t, jsvc, chart)
	post(t, jsvc, journal.EntryInput{
		Kind:        ledger.KindAdjusting,
		Description: "penyusutan",
		Lines: []ledger.LineInput{
			{AccountID: chart["503"].ID, Debit: dec(t, "50000.00")},
			{AccountID: chart["122"].ID, Credit: dec(t, "50000.00")},
		},
	})

	before, err := svc.IncomeStatement(context.Background(), false)
	if err != nil {
		t.Fatalf("income statement: %v", err)
	}
	if before.NetIncome.Cmp(dec(t, "400000.00")) != 0 {
		t.Errorf("net income before adjustments = %s, want 400000.00", before.NetIncome)
	}
	after, err := svc.IncomeStatement(context.Background(), true)
	if err != nil {
		t.Fatalf("income statement: %v", err)
	}
	if after.NetIncome.Cmp(dec(t, "350000.00")) != 0 {
		t.Errorf("net income with adjustments = %s, want 350000.00", after.NetIncome)
	}
}

func TestBalanceSheet_EquationHolds(t *testing.T) {
	svc, jsvc, chart := fixture(t)
	saleAndExpense(t, jsvc, chart)
	// Depreciation adjustment brings a contra asset into the picture.
	post(t, jsvc, journal.EntryInput{
		Kind: ledger.KindAdjusting,
		Lines: []ledger.LineInput{
			{AccountID: chart["503"].ID, Debit: dec(t, "125000.00")},
			{AccountID: chart["122"].ID, Credit: dec(t, "125000.00")},
		},
	})

	bs, err := svc.BalanceSheet(context.Background(), true)
	if err != nil {
		t.Fatalf("balance sheet: %v", err)
	}
	if !bs.Balanced {
		t.Fatalf("assets %s != liabilities %s + equity %s",
			bs.TotalAssets, bs.TotalLiabilities, bs.TotalEquity)
	}
	// The contra asset appears in the asset section as a negative amount.
	foundContra := false
	for _, row := range bs.Assets {
		if row.Account.Code == "122" {
			foundContra = true
			if row.Amount.Sign() >= 0 {
				t.Errorf("contra asset amount = %s, want negative", row.Amount)
			}
		}
	}
	if !foundContra {
		t.Error("accumulated depreciation missing from asset section")
	}
}

func TestBalanceSheet_DrawingsReduceEquity(t *testing.T) {
	svc, jsvc, chart := fixture(t)
	post(t, jsvc, journal.EntryInput{
		Description: "prive",
		Lines: []ledger.LineInput{
			{AccountID: chart["302"].ID, Debit: dec(t, "100000.00")},
			{AccountID: chart["101"].ID, Credit: dec(t, "100000.00")},
		},
	})
	bs, err := svc.BalanceSheet(context.Background(), true)
	if err != nil {
		t.Fatalf("balance sheet: %v", err)
	}
	if !bs.Balanced {
		t.Fatalf("balance sheet must balance")
	}
	if bs.TotalEquity.Cmp(dec(t, "23400000.00")) != 0 {
		t.Errorf("total equity = %s, want 23400000.00", bs.TotalEquity)
	}
}

func TestCashFlow_Sections(t *testing.T) {
	svc, jsvc, chart := fixture(t)
	saleAndExpense(t, jsvc, chart)
	// Loan drawdown: financing inflow.
	post(t, jsvc, journal.EntryInput{
		Lines: []ledger.LineInput{
			{AccountID: chart["101"].ID, Debit: dec(t, "1000000.00")},
			{AccountID: chart["202"].ID, Credit: dec(t, "1000000.00")},
		},
	})
	// Equipment purchase: investing outflow (debit on 121 counts negative).
	post(t, jsvc, journal.EntryInput{
		Lines: []ledger.LineInput{
			{AccountID: chart["121"].ID, Debit: dec(t, "400000.00")},
			{AccountID: chart["101"].ID, Credit: dec(t, "400000.00")},
		},
	})

	cf, err := svc.CashFlow(context.Background(), true)
	if err != nil {
		t.Fatalf("cash flow: %v", err)
	}
	if cf.Operating.Cmp(dec(t, "400000.00")) != 0 {
		t.Errorf("operating = %s, want 400000.00", cf.Operating)
	}
	if cf.Investing.Cmp(dec(t, "-400000.00")) != 0 {
		t.Errorf("investing = %s, want -400000.00", cf.Investing)
	}
	if cf.Financing.Cmp(dec(t, "1000000.00")) != 0 {
		t.Errorf("financing = %s, want 1000000.00", cf.Financing)
	}
	if cf.NetCashFlow.Cmp(dec(t, "1000000.00")) != 0 {
		t.Errorf("net cash flow = %s, want 1000000.00", cf.NetCashFlow)
	}
}

func TestEquityStatement(t *testing.T) {
	svc, jsvc, chart := fixture(t)
	saleAndExpense(t, jsvc, chart)
	post(t, jsvc, journal.EntryInput{
		Description: "setoran modal",
		Lines: []ledger.LineInput{
			{AccountID: chart["101"].ID, Debit: dec(t, "500000.00")},
			{AccountID: chart["301"].ID, Credit: dec(t, "500000.00")},
		},
	})
	post(t, jsvc, journal.EntryInput{
		Description: "prive",
		Lines: []ledger.LineInput{
			{AccountID: chart["302"].ID, Debit: dec(t, "150000.00")},
			{AccountID: chart["101"].ID, Credit: dec(t, "150000.00")},
		},
	})

	es, err := svc.EquityStatement(context.Background(), true)
	if err != nil {
		t.Fatalf("equity statement: %v", err)
	}
	if es.BeginningCapital.Cmp(dec(t, "23500000.00")) != 0 {
		t.Errorf("beginning capital = %s", es.BeginningCapital)
	}
	if es.Contributions.Cmp(dec(t, "500000.00")) != 0 {
		t.Errorf("contributions = %s", es.Contributions)
	}
	if es.NetIncome.Cmp(dec(t, "400000.00")) != 0 {
		t.Errorf("net income = %s", es.NetIncome)
	}
	if es.Drawings.Cmp(dec(t, "150000.00")) != 0 {
		t.Errorf("drawings = %s", es.Drawings)
	}
	if es.EndingCapital.Cmp(dec(t, "24250000.00")) != 0 {
		t.Errorf("ending capital = %s", es.EndingCapital)
	}
}
