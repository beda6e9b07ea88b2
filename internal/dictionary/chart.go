package dictionary

// Package dictionary holds the curated reference data of the bookkeeping
// core: the canonical oyster-farm chart of accounts, transaction templates,
// the inventory unit-price table and the designated statement codes.

import (
	"fmt"

	"github.com/govalues/decimal"

	"github.com/oysterfarm/books/internal/ledger"
)

// AccountDef is one row of the canonical chart.
type AccountDef struct {
	Code string             `json:"code"`
	Name string             `json:"name"`
	Type ledger.AccountType `json:"type"`
}

var chart = []AccountDef{
	{Code: "101", Name: "Kas", Type: ledger.AccountTypeAsset},
	{Code: "102", Name: "Piutang Usaha", Type: ledger.AccountTypeAsset},
	{Code: "103", Name: "Persediaan Tiram", Type: ledger.AccountTypeAsset},
	{Code: "104", Name: "Persediaan Bibit", Type: ledger.AccountTypeAsset},
	{Code: "105", Name: "Perlengkapan", Type: ledger.AccountTypeAsset},
	{Code: "121", Name: "Peralatan", Type: ledger.AccountTypeAsset},
	{Code: "122", Name: "Akumulasi Penyusutan Peralatan", Type: ledger.AccountTypeContraAsset},
	{Code: "201", Name: "Utang Usaha", Type: ledger.AccountTypeLiability},
	{Code: "202", Name: "Utang Bank", Type: ledger.AccountTypeLiability},
	{Code: "301", Name: "Modal Pemilik", Type: ledger.AccountTypeEquity},
	{Code: "302", Name: "Prive", Type: ledger.AccountTypeEquity},
	{Code: "303", Name: "Laba Ditahan", Type: ledger.AccountTypeEquity},
	{Code: "401", Name: "Penjualan Tiram", Type: ledger.AccountTypeRevenue},
	{Code: "402", Name: "Pendapatan Lain-lain", Type: ledger.AccountTypeRevenue},
	{Code: "501", Name: "Beban Gaji", Type: ledger.AccountTypeExpense},
	{Code: "502", Name: "Beban Listrik dan Air", Type: ledger.AccountTypeExpense},
	{Code: "503", Name: "Beban Penyusutan", Type: ledger.AccountTypeExpense},
	{Code: "504", Name: "Beban Perlengkapan", Type: ledger.AccountTypeExpense},
	{Code: "505", Name: "Beban Lain-lain", Type: ledger.AccountTypeExpense},
}

// Designated account codes used by the statement generator and closing engine.
const (
	CodeCash             = "101"
	CodeFinishedGoods    = "103"
	CodeSeedStock        = "104"
	CodeEquipment        = "121"
	CodeBankLoan         = "202"
	CodeCapital          = "301"
	CodeDrawings         = "302"
	CodeRetainedEarnings = "303"
	CodeSales            = "401"
)

// Chart returns the canonical chart of accounts as definitions (no IDs).
func Chart() []AccountDef {
	out := make([]AccountDef, len(chart))
	copy(out, chart)
	return out
}

// Drawings (302) reduces equity, so it carries a debit normal balance even
// though its type is equity.
var debitNormalOverrides = map[string]struct{}{CodeDrawings: {}}

// NormalSideFor returns the normal balance side for a chart definition.
func NormalSideFor(def AccountDef) ledger.Side {
	if _, ok := debitNormalOverrides[def.Code]; ok {
		return ledger.SideDebit
	}
	return def.Type.DefaultNormalSide()
}

// unitPrices keys inventory-tracked account codes to the fixed price per
// unit used to convert a monetary posting into a stock quantity.
var unitPrices = map[string]decimal.Decimal{
	CodeFinishedGoods: decimal.MustNew(500000, 2), // 5000.00 per oyster basket
	CodeSeedStock:     decimal.MustNew(150000, 2), // 1500.00 per seed bag
}

// UnitPrice returns the price-per-unit for an inventory-tracked account code.
// ok is false for codes not under stock tracking.
func UnitPrice(code string) (decimal.Decimal, bool) {
	p, ok := unitPrices[code]
	return p, ok
}

// TrackedCodes lists the inventory-tracked account codes in chart order.
func TrackedCodes() []string {
	return []string{CodeFinishedGoods, CodeSeedStock}
}

// CanonicalOpeningBalances returns the seed opening balances the repair
// action restores: cash and equipment funded by owner capital.
func CanonicalOpeningBalances() map[string]struct{ Debit, Credit decimal.Decimal } {
	return map[string]struct{ Debit, Credit decimal.Decimal }{
		CodeCash:      {Debit: decimal.MustNew(850000000, 2)},   // 8,500,000.00
		CodeEquipment: {Debit: decimal.MustNew(1500000000, 2)},  // 15,000,000.00
		CodeCapital:   {Credit: decimal.MustNew(2350000000, 2)}, // 23,500,000.00
	}
}

var templates = []ledger.Template{
	{
		Key:   "sale_cash",
		Label: "Penjualan Tunai",
		Lines: []ledger.TemplateLine{
			{AccountCode: CodeCash, Side: ledger.SideDebit, Editable: false, Description: "Kas diterima"},
			{AccountCode: CodeSales, Side: ledger.SideCredit, Editable: false, Description: "Penjualan tiram"},
		},
	},
	{
		Key:   "sale_credit",
		Label: "Penjualan Kredit",
		Lines: []ledger.TemplateLine{
			{AccountCode: "102", Side: ledger.SideDebit, Editable: false, Description: "Piutang atas penjualan"},
			{AccountCode: CodeSales, Side: ledger.SideCredit, Editable: false, Description: "Penjualan tiram"},
		},
	},
	{
		Key:   "harvest",
		Label: "Panen Tiram",
		Lines: []ledger.TemplateLine{
			{AccountCode: CodeFinishedGoods, Side: ledger.SideDebit, Editable: false, Description: "Hasil panen masuk gudang"},
			{AccountCode: CodeSeedStock, Side: ledger.SideCredit, Editable: false, Description: "Bibit terpakai"},
		},
	},
	{
		Key:   "purchase_seed",
		Label: "Pembelian Bibit",
		Lines: []ledger.TemplateLine{
			{AccountCode: CodeSeedStock, Side: ledger.SideDebit, Editable: false, Description: "Bibit dibeli"},
			{AccountCode: CodeCash, Side: ledger.SideCredit, Editable: false, Description: "Kas dibayarkan"},
		},
	},
	{
		Key:   "expense_cash",
		Label: "Beban Tunai",
		Lines: []ledger.TemplateLine{
			{AccountCode: "505", Side: ledger.SideDebit, Editable: true, Description: "Beban"},
			{AccountCode: CodeCash, Side: ledger.SideCredit, Editable: false, Description: "Kas dibayarkan"},
		},
	},
	{
		Key:   "capital_injection",
		Label: "Setoran Modal",
		Lines: []ledger.TemplateLine{
			{AccountCode: CodeCash, Side: ledger.SideDebit, Editable: false, Description: "Kas diterima"},
			{AccountCode: CodeCapital, Side: ledger.SideCredit, Editable: false, Description: "Tambahan modal pemilik"},
		},
	},
	{
		Key:   "drawing",
		Label: "Pengambilan Prive",
		Lines: []ledger.TemplateLine{
			{AccountCode: CodeDrawings, Side: ledger.SideDebit, Editable: false, Description: "Prive pemilik"},
			{AccountCode: CodeCash, Side: ledger.SideCredit, Editable: false, Description: "Kas diambil"},
		},
	},
	{
		Key:   "loan_draw",
		Label: "Pencairan Pinjaman",
		Lines: []ledger.TemplateLine{
			{AccountCode: CodeCash, Side: ledger.SideDebit, Editable: false, Description: "Kas diterima"},
			{AccountCode: CodeBankLoan, Side: ledger.SideCredit, Editable: false, Description: "Utang bank"},
		},
	},
}

// Templates returns the declared transaction templates.
func Templates() []ledger.Template {
	out := make([]ledger.Template, len(templates))
	copy(out, templates)
	return out
}

// TemplateByKey looks up a declared template.
func TemplateByKey(key string) (ledger.Template, bool) {
	for _, t := range templates {
		if t.Key == key {
			return t, true
		}
	}
	return ledger.Template{}, false
}

// CompileTemplates resolves every template's non-editable lines against the
// given chart, binding account codes to IDs once so submission checks never
// match code strings at runtime.
func CompileTemplates(accounts []ledger.Account) (map[string]ledger.CompiledTemplate, error) {
	byCode := make(map[string]ledger.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	out := make(map[string]ledger.CompiledTemplate, len(templates))
	for _, t := range templates {
		ct := ledger.CompiledTemplate{Key: t.Key, Label: t.Label}
		for _, tl := range t.Lines {
			if tl.Editable {
				continue
			}
			acc, ok := byCode[tl.AccountCode]
			if !ok {
				return nil, fmt.Errorf("template %s: account code %s not in chart", t.Key, tl.AccountCode)
			}
			ct.Required = append(ct.Required, ledger.RequiredLine{
				AccountID:   acc.ID,
				AccountCode: acc.Code,
				Side:        tl.Side,
			})
		}
		out[t.Key] = ct
	}
	return out, nil
}
