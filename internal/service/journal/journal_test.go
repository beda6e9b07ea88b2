package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/oysterfarm/books/internal/dictionary"
	"github.com/oysterfarm/books/internal/errs"
	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/settings"
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

// seedChart loads the canonical chart into the store and returns it by code.
func seedChart(t *testing.T, store *memory.Store) map[string]ledger.Account {
	t.Helper()
	out := make(map[string]ledger.Account)
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
		out[def.Code] = a
	}
	return out
}

func newService(t *testing.T) (*memory.Store, Service, map[string]ledger.Account) {
	t.Helper()
	store := memory.New()
	chart := seedChart(t, store)
	accounts := make([]ledger.Account, 0, len(chart))
	for _, a := range chart {
		accounts = append(accounts, a)
	}
	templates, err := dictionary.CompileTemplates(accounts)
	if err != nil {
		t.Fatalf("compile templates: %v", err)
	}
	return store, New(store, store, templates), chart
}

func debitLine(acc ledger.Account, amount decimal.Decimal) ledger.LineInput {
	return ledger.LineInput{AccountID: acc.ID, Debit: amount}
}

func creditLine(acc ledger.Account, amount decimal.Decimal) ledger.LineInput {
	return ledger.LineInput{AccountID: acc.ID, Credit: amount}
}

func TestValidate_TooFewLines(t *testing.T) {
	_, svc, chart := newService(t)
	verrs, err := svc.Validate(context.Background(), []ledger.LineInput{
		debitLine(chart["101"], dec(t, "100.00")),
	}, "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(verrs) != 1 || verrs[0].Code != "too_few_lines" {
		t.Fatalf("expected single too_few_lines, got %+v", verrs)
	}
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	_, svc, chart := newService(t)
	lines := []ledger.LineInput{
		debitLine(chart["101"], dec(t, "100.00")),
		creditLine(chart["401"], dec(t, "50.00")),
		{AccountID: uuid.New(), Debit: dec(t, "-10.00")},
		creditLine(chart["401"], dec(t, "20.00")),
	}
	verrs, err := svc.Validate(context.Background(), lines, "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := map[string]bool{
		"unbalanced_entry":  false,
		"unknown_account":   false,
		"negative_amount":   false,
		"duplicate_account": false,
	}
	for _, v := range verrs {
		if _, ok := want[v.Code]; ok {
			want[v.Code] = true
		}
	}
	for code, seen := range want {
		if !seen {
			t.Errorf("expected violation %s, got %+v", code, verrs)
		}
	}
}

func TestValidate_BalanceTolerance(t *testing.T) {
	_, svc, chart := newService(t)
	cases := []struct {
		credit string
		ok     bool
	}{
		{"100.00", true},
		{"100.01", true}, // within the 0.01 rounding tolerance
		{"100.02", false},
	}
	for _, tc := range cases {
		verrs, err := svc.Validate(context.Background(), []ledger.LineInput{
			debitLine(chart["101"], dec(t, "100.00")),
			creditLine(chart["401"], dec(t, tc.credit)),
		}, "")
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		unbalanced := false
		for _, v := range verrs {
			if v.Code == "unbalanced_entry" {
				unbalanced = true
			}
		}
		if unbalanced == tc.ok {
			t.Errorf("credit %s: unbalanced=%v, want ok=%v", tc.credit, unbalanced, tc.ok)
		}
	}
}

func TestValidate_LineRules(t *testing.T) {
	_, svc, chart := newService(t)
	both := ledger.LineInput{AccountID: chart["102"].ID, Debit: dec(t, "50.00"), Credit: dec(t, "50.00")}
	empty := ledger.LineInput{AccountID: chart["105"].ID}
	sideMismatch := ledger.LineInput{AccountID: chart["401"].ID, Credit: dec(t, "50.00"), Side: ledger.SideDebit}
	verrs, err := svc.Validate(context.Background(), []ledger.LineInput{
		debitLine(chart["101"], dec(t, "50.00")), both, empty, sideMismatch,
	}, "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := map[string]bool{"both_sides": false, "empty_line": false, "side_mismatch": false}
	for _, v := range verrs {
		if _, ok := want[v.Code]; ok {
			want[v.Code] = true
		}
	}
	for code, seen := range want {
		if !seen {
			t.Errorf("expected violation %s, got %+v", code, verrs)
		}
	}
}

func TestValidate_Template(t *testing.T) {
	_, svc, chart := newService(t)
	amount := dec(t, "250000.00")

	// Compliant sale_cash submission.
	verrs, err := svc.Validate(context.Background(), []ledger.LineInput{
		debitLine(chart["101"], amount),
		creditLine(chart["401"], amount),
	}, "sale_cash")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(verrs) != 0 {
		t.Fatalf("expected compliant submission, got %+v", verrs)
	}

	// Crediting accounts receivable instead of sales violates the template.
	verrs, err = svc.Validate(context.Background(), []ledger.LineInput{
		debitLine(chart["101"], amount),
		creditLine(chart["102"], amount),
	}, "sale_cash")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	found := false
	for _, v := range verrs {
		if v.Code == "template_violation" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected template_violation, got %+v", verrs)
	}

	verrs, err = svc.Validate(context.Background(), []ledger.LineInput{
		debitLine(chart["101"], amount),
		creditLine(chart["401"], amount),
	}, "no_such_template")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(verrs) != 1 || verrs[0].Code != "unknown_template" {
		t.Fatalf("expected unknown_template, got %+v", verrs)
	}
}

func TestPostEntry_RejectsInvalidWithoutPersisting(t *testing.T) {
	store, svc, chart := newService(t)
	_, err := svc.PostEntry(context.Background(), EntryInput{
		Description: "unbalanced",
		Lines: []ledger.LineInput{
			debitLine(chart["101"], dec(t, "100.00")),
			creditLine(chart["401"], dec(t, "90.00")),
		},
	})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	entries, err := store.EntriesByKind(context.Background(), ledger.KindJournal)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("nothing should be persisted, got %d entries", len(entries))
	}
}

func TestPostEntry_HarvestClassificationAndInventory(t *testing.T) {
	store, svc, chart := newService(t)
	// 150,000.00 of finished goods out of seed stock: 30 baskets in, 100 bags out.
	amount := dec(t, "150000.00")
	entry, err := svc.PostEntry(context.Background(), EntryInput{
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "panen maret",
		Lines: []ledger.LineInput{
			debitLine(chart["103"], amount),
			creditLine(chart["104"], amount),
		},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if entry.TransactionType != ledger.TxHarvest {
		t.Fatalf("transaction type = %s, want %s", entry.TransactionType, ledger.TxHarvest)
	}

	movements, err := svc.Movements(context.Background())
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}

	stock, err := svc.CurrentStock(context.Background())
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	if got := stock[dictionary.CodeFinishedGoods]; got.Cmp(dec(t, "30")) != 0 {
		t.Errorf("finished goods stock = %s, want 30", got)
	}
	if got := stock[dictionary.CodeSeedStock]; got.Cmp(dec(t, "-100")) != 0 {
		t.Errorf("seed stock = %s, want -100", got)
	}

	recomputed, err := svc.RecomputedStock(context.Background())
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	for code, want := range stock {
		if got := recomputed[code]; got.Cmp(want) != 0 {
			t.Errorf("recomputed[%s] = %s, want %s", code, got, want)
		}
	}

	// Counter survives in settings under the stock key.
	if got := store.StockCounter(settings.StockKey(dictionary.CodeFinishedGoods)); got.Cmp(dec(t, "30")) != 0 {
		t.Errorf("cached counter = %s, want 30", got)
	}
}

func TestPostEntry_SaleClassification(t *testing.T) {
	_, svc, chart := newService(t)
	amount := dec(t, "25000.00")
	entry2, err := svc.PostEntry(context.Background(), EntryInput{
		Description: "jual tunai",
		Lines: []ledger.LineInput{
			debitLine(chart["101"], amount),
			{AccountID: chart["103"].ID, Credit: dec(t, "20000.00")},
			{AccountID: chart["401"].ID, Credit: dec(t, "5000.00")},
		},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if entry2.TransactionType != ledger.TxSale {
		t.Fatalf("transaction type = %s, want %s", entry2.TransactionType, ledger.TxSale)
	}
}

func TestPostEntry_ExplicitTypeWins(t *testing.T) {
	_, svc, chart := newService(t)
	amount := dec(t, "10000.00")
	entry, err := svc.PostEntry(context.Background(), EntryInput{
		TransactionType: "Koreksi Manual",
		Lines: []ledger.LineInput{
			debitLine(chart["103"], amount),
			creditLine(chart["101"], amount),
		},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if entry.TransactionType != "koreksi_manual" {
		t.Fatalf("transaction type = %s, want koreksi_manual", entry.TransactionType)
	}
}

func TestPostEntry_AdjustingSkipsInventory(t *testing.T) {
	_, svc, chart := newService(t)
	amount := dec(t, "5000.00")
	_, err := svc.PostEntry(context.Background(), EntryInput{
		Kind: ledger.KindAdjusting,
		Lines: []ledger.LineInput{
			debitLine(chart["503"], amount),
			creditLine(chart["122"], amount),
		},
	})
	if err != nil {
		t.Fatalf("post adjusting: %v", err)
	}
	movements, err := svc.Movements(context.Background())
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(movements) != 0 {
		t.Fatalf("adjusting entries must not produce movements, got %d", len(movements))
	}
}

func TestAccountBalance(t *testing.T) {
	store, svc, chart := newService(t)
	ctx := context.Background()

	store.SeedOpeningBalance(ledger.OpeningBalance{AccountID: chart["101"].ID, Debit: dec(t, "8500000.00")})

	if _, err := svc.PostEntry(ctx, EntryInput{
		Lines: []ledger.LineInput{
			debitLine(chart["101"], dec(t, "250000.00")),
			creditLine(chart["401"], dec(t, "250000.00")),
		},
	}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := svc.PostEntry(ctx, EntryInput{
		Kind: ledger.KindAdjusting,
		Lines: []ledger.LineInput{
			debitLine(chart["504"], dec(t, "40000.00")),
			creditLine(chart["101"], dec(t, "40000.00")),
		},
	}); err != nil {
		t.Fatalf("post adjusting: %v", err)
	}

	before, err := svc.AccountBalance(ctx, chart["101"].ID, false)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if before.Cmp(dec(t, "8750000.00")) != 0 {
		t.Errorf("balance before adjustments = %s, want 8750000.00", before)
	}
	after, err := svc.AccountBalance(ctx, chart["101"].ID, true)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if after.Cmp(dec(t, "8710000.00")) != 0 {
		t.Errorf("balance with adjustments = %s, want 8710000.00", after)
	}

	// Credit-normal account signs the other way.
	sales, err := svc.AccountBalance(ctx, chart["401"].ID, true)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if sales.Cmp(dec(t, "250000.00")) != 0 {
		t.Errorf("sales balance = %s, want 250000.00", sales)
	}

	if _, err := svc.AccountBalance(ctx, uuid.New(), true); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing account must be ErrNotFound, got %v", err)
	}
}

func TestRecomputedStock_SurvivesEntryDeletion(t *testing.T) {
	_, svc, chart := newService(t)
	ctx := context.Background()
	amount := dec(t, "15000.00")
	entry, err := svc.PostEntry(ctx, EntryInput{
		Lines: []ledger.LineInput{
			debitLine(chart["104"], amount),
			creditLine(chart["101"], amount),
		},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := svc.DeleteEntry(ctx, entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// The movement log is append-only: recomputed stock still shows the
	// purchase even though the entry is gone.
	recomputed, err := svc.RecomputedStock(ctx)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if got := recomputed[dictionary.CodeSeedStock]; got.Cmp(dec(t, "10")) != 0 {
		t.Errorf("recomputed seed stock = %s, want 10", got)
	}
}
