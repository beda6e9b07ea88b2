package dictionary

import (
	"testing"

	"github.com/google/uuid"

	"github.com/oysterfarm/books/internal/ledger"
)

func TestChartDefinitions(t *testing.T) {
	defs := Chart()
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if seen[def.Code] {
			t.Errorf("duplicate code %s", def.Code)
		}
		seen[def.Code] = true
		if !def.Type.Valid() {
			t.Errorf("account %s has invalid type %s", def.Code, def.Type)
		}
	}
	for _, code := range []string{CodeCash, CodeFinishedGoods, CodeSeedStock, CodeEquipment, CodeBankLoan, CodeCapital, CodeDrawings, CodeRetainedEarnings, CodeSales} {
		if !seen[code] {
			t.Errorf("designated code %s missing from chart", code)
		}
	}
}

func TestNormalSideFor_DrawingsOverride(t *testing.T) {
	for _, def := range Chart() {
		got := NormalSideFor(def)
		if def.Code == CodeDrawings {
			if got != ledger.SideDebit {
				t.Errorf("drawings normal side = %s, want debit", got)
			}
			continue
		}
		if got != def.Type.DefaultNormalSide() {
			t.Errorf("account %s normal side = %s", def.Code, got)
		}
	}
}

func TestUnitPrices(t *testing.T) {
	price, ok := UnitPrice(CodeFinishedGoods)
	if !ok || price.String() != "5000.00" {
		t.Errorf("finished goods price = %s ok=%v", price, ok)
	}
	price, ok = UnitPrice(CodeSeedStock)
	if !ok || price.String() != "1500.00" {
		t.Errorf("seed stock price = %s ok=%v", price, ok)
	}
	if _, ok := UnitPrice(CodeCash); ok {
		t.Error("cash must not be inventory tracked")
	}
}

func TestCanonicalOpeningBalancesBalance(t *testing.T) {
	rows := CanonicalOpeningBalances()
	totalDebit := ledger.Add(rows[CodeCash].Debit, rows[CodeEquipment].Debit)
	totalCredit := rows[CodeCapital].Credit
	if totalDebit.Cmp(totalCredit) != 0 {
		t.Fatalf("canonical openings unbalanced: %s vs %s", totalDebit, totalCredit)
	}
}

func TestCompileTemplates(t *testing.T) {
	accounts := make([]ledger.Account, 0)
	for _, def := range Chart() {
		accounts = append(accounts, ledger.Account{
			ID:            uuid.New(),
			Code:          def.Code,
			Name:          def.Name,
			Type:          def.Type,
			NormalBalance: NormalSideFor(def),
			Active:        true,
		})
	}
	compiled, err := CompileTemplates(accounts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(compiled) != len(Templates()) {
		t.Fatalf("compiled %d templates, want %d", len(compiled), len(Templates()))
	}
	sale := compiled["sale_cash"]
	if len(sale.Required) != 2 {
		t.Fatalf("sale_cash required lines = %d, want 2", len(sale.Required))
	}
	for _, req := range sale.Required {
		if req.AccountID == uuid.Nil {
			t.Errorf("required line %s not bound to an account", req.AccountCode)
		}
	}
	// expense_cash keeps its expense line editable: only the cash leg is required.
	expense := compiled["expense_cash"]
	if len(expense.Required) != 1 || expense.Required[0].AccountCode != CodeCash {
		t.Fatalf("expense_cash required lines: %+v", expense.Required)
	}

	// Missing chart account fails compilation.
	if _, err := CompileTemplates(accounts[:1]); err == nil {
		t.Fatal("compiling against a partial chart must fail")
	}
}
