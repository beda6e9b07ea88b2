package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// Side represents the accounting position of a journal line.
type Side string

const (
	// SideDebit records a value on the debit side of an account.
	SideDebit Side = "debit"
	// SideCredit records a value on the credit side of an account.
	SideCredit Side = "credit"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// AccountType enumerates the broad classification of an account in the ledger.
// Statement and closing logic branch on this tag, never on code prefixes.
type AccountType string

const (
	// AccountTypeAsset increases on the debit side and holds company resources.
	AccountTypeAsset AccountType = "asset"
	// AccountTypeContraAsset offsets a related asset and increases on the credit side.
	AccountTypeContraAsset AccountType = "contra_asset"
	// AccountTypeLiability increases on the credit side and tracks obligations.
	AccountTypeLiability AccountType = "liability"
	// AccountTypeEquity captures the owner's residual interest in the business.
	AccountTypeEquity AccountType = "equity"
	// AccountTypeRevenue represents inflows that increase equity.
	AccountTypeRevenue AccountType = "revenue"
	// AccountTypeExpense represents outflows that decrease equity.
	AccountTypeExpense AccountType = "expense"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeContraAsset, AccountTypeLiability,
		AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// Nominal reports whether balances of this type are zeroed out at period end.
func (t AccountType) Nominal() bool {
	return t == AccountTypeRevenue || t == AccountTypeExpense
}

// DefaultNormalSide returns the side on which accounts of this type
// conventionally carry a positive balance.
func (t AccountType) DefaultNormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// EntryKind distinguishes the two parallel entry stores.
type EntryKind string

const (
	// KindJournal is an ordinary transaction entry.
	KindJournal EntryKind = "journal"
	// KindAdjusting is a period-end correction, optionally excluded from
	// "before adjustment" views.
	KindAdjusting EntryKind = "adjusting"
)

// Transaction types recognized by the posting engine. Callers may supply any
// label; these are the ones the engine assigns when classifying on its own.
const (
	TxGeneral  = "general"
	TxSale     = "sale"
	TxPurchase = "purchase"
	TxHarvest  = "harvest"
	TxClosing  = "closing"
)

// Account is a row in the chart of accounts. Reference data: the code, type
// and normal balance are immutable after seeding.
type Account struct {
	ID   uuid.UUID
	Code string
	Name string
	Type AccountType
	// NormalBalance fixes the sign convention: for debit-normal accounts
	// balance = debit - credit, for credit-normal the reverse.
	NormalBalance Side
	// Active indicates whether the account may be used on new lines.
	Active bool
}

// SignedNet applies the account's sign convention to a debit/credit pair.
func (a Account) SignedNet(debit, credit decimal.Decimal) decimal.Decimal {
	if a.NormalBalance == SideDebit {
		return Sub(debit, credit)
	}
	return Sub(credit, debit)
}

// OpeningBalance is the starting point of an account for the current period.
// One row per account; replaced wholesale when edited.
type OpeningBalance struct {
	AccountID uuid.UUID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Entry captures metadata for an ordered collection of lines. Journal and
// adjusting entries share this shape; Kind selects the backing table pair.
type Entry struct {
	ID              uuid.UUID
	Kind            EntryKind
	Date            time.Time
	Description     string
	Reference       string
	TransactionType string
	Posted          bool
	Lines           []Line
}

// TotalDebit sums the debit column across the entry's lines.
func (e Entry) TotalDebit() decimal.Decimal {
	var sum decimal.Decimal
	for _, ln := range e.Lines {
		sum = Add(sum, ln.Debit)
	}
	return sum
}

// TotalCredit sums the credit column across the entry's lines.
func (e Entry) TotalCredit() decimal.Decimal {
	var sum decimal.Decimal
	for _, ln := range e.Lines {
		sum = Add(sum, ln.Credit)
	}
	return sum
}

// Line links an entry to an account with an amount on one side.
type Line struct {
	ID          uuid.UUID
	EntryID     uuid.UUID
	AccountID   uuid.UUID
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// LineInput is a raw line submission from the presentation layer.
// Side is an optional hint; when set it must match the populated column.
type LineInput struct {
	AccountID   uuid.UUID
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
	Side        Side
}

// InventoryMovement is one row of the append-only stock log.
type InventoryMovement struct {
	ID          uuid.UUID
	Date        time.Time
	Description string
	AccountCode string
	QuantityIn  decimal.Decimal
	QuantityOut decimal.Decimal
	UnitCost    decimal.Decimal
	Value       decimal.Decimal
}

// Template declares which lines of a transaction type are fixed vs free.
type Template struct {
	Key   string
	Label string
	Lines []TemplateLine
}

// TemplateLine is one declared line of a transaction template.
type TemplateLine struct {
	AccountCode string
	Side        Side
	Editable    bool
	Description string
}

// CompiledTemplate is a Template resolved once against the chart of accounts,
// so compliance checks compare account IDs instead of matching code strings
// at every submission.
type CompiledTemplate struct {
	Key      string
	Label    string
	Required []RequiredLine
}

// RequiredLine is a non-editable template line bound to a concrete account.
type RequiredLine struct {
	AccountID   uuid.UUID
	AccountCode string
	Side        Side
}

// Posting is the unit handed to the store: the entry plus its derived
// inventory side effects, persisted in a single transaction or not at all.
type Posting struct {
	Entry     Entry
	Movements []InventoryMovement
	// StockDeltas maps settings keys to signed quantity adjustments applied
	// inside the same transaction as the entry insert.
	StockDeltas map[string]decimal.Decimal
}
