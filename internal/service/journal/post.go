package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/oysterfarm/books/internal/dictionary"
	"github.com/oysterfarm/books/internal/errs"
	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/settings"
	"github.com/oysterfarm/books/internal/slug"
)

// EntryInput is a proposed entry as submitted by the presentation layer.
type EntryInput struct {
	Kind            ledger.EntryKind
	Date            time.Time
	Description     string
	Reference       string
	TransactionType string
	TemplateKey     string
	Lines           []ledger.LineInput
}

// PostEntry validates and commits an entry as one atomic posting. Validation
// runs here regardless of any caller-side checks; on violations the returned
// error is a ValidationErrors carrying every problem found and nothing is
// persisted. Journal postings that touch inventory-tracked accounts also
// produce movement rows and stock counter deltas inside the same transaction.
func (s *service) PostEntry(ctx context.Context, in EntryInput) (ledger.Entry, error) {
	kind := in.Kind
	if kind == "" {
		kind = ledger.KindJournal
	}
	if kind != ledger.KindJournal && kind != ledger.KindAdjusting {
		return ledger.Entry{}, errs.ErrInvalid
	}

	verrs, accounts, err := s.validate(ctx, in.Lines, in.TemplateKey)
	if err != nil {
		return ledger.Entry{}, err
	}
	if len(verrs) > 0 {
		return ledger.Entry{}, ValidationErrors(verrs)
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	entryID := uuid.New()
	entry := ledger.Entry{
		ID:              entryID,
		Kind:            kind,
		Date:            date,
		Description:     in.Description,
		Reference:       in.Reference,
		TransactionType: slug.Normalize(in.TransactionType),
		Posted:          true,
	}
	entry.Lines = make([]ledger.Line, 0, len(in.Lines))
	for _, ln := range in.Lines {
		entry.Lines = append(entry.Lines, ledger.Line{
			ID:          uuid.New(),
			EntryID:     entryID,
			AccountID:   ln.AccountID,
			Debit:       ln.Debit,
			Credit:      ln.Credit,
			Description: ln.Description,
		})
	}

	posting := ledger.Posting{Entry: entry}
	if kind == ledger.KindJournal {
		posting.Movements, posting.StockDeltas = deriveInventory(entry, accounts)
		if entry.TransactionType == "" {
			posting.Entry.TransactionType = classify(entry, accounts)
		}
	}
	if posting.Entry.TransactionType == "" {
		posting.Entry.TransactionType = ledger.TxGeneral
	}
	return s.writer.PostEntry(ctx, posting)
}

// deriveInventory converts lines on inventory-tracked accounts into movement
// rows and signed stock deltas: a debit books quantity in, a credit quantity
// out, at the fixed unit price for the account code.
func deriveInventory(entry ledger.Entry, accounts map[uuid.UUID]ledger.Account) ([]ledger.InventoryMovement, map[string]decimal.Decimal) {
	var movements []ledger.InventoryMovement
	deltas := make(map[string]decimal.Decimal)
	for _, ln := range entry.Lines {
		acc, ok := accounts[ln.AccountID]
		if !ok {
			continue
		}
		price, tracked := dictionary.UnitPrice(acc.Code)
		if !tracked {
			continue
		}
		m := ledger.InventoryMovement{
			ID:          uuid.New(),
			Date:        entry.Date,
			Description: entry.Description,
			AccountCode: acc.Code,
			UnitCost:    price,
		}
		key := settings.StockKey(acc.Code)
		if ln.Debit.Sign() > 0 {
			qty, err := ln.Debit.Quo(price)
			if err != nil {
				continue
			}
			m.QuantityIn = qty
			m.Value = ln.Debit
			deltas[key] = ledger.Add(deltas[key], qty)
		} else {
			qty, err := ln.Credit.Quo(price)
			if err != nil {
				continue
			}
			m.QuantityOut = qty
			m.Value = ln.Credit
			deltas[key] = ledger.Sub(deltas[key], qty)
		}
		movements = append(movements, m)
	}
	if len(movements) == 0 {
		return nil, nil
	}
	return movements, deltas
}

// classify labels an untyped journal entry from the account mix it touches:
// finished goods funded by seed stock is a harvest; inventory moving against
// revenue is a sale; inventory bought in is a purchase.
func classify(entry ledger.Entry, accounts map[uuid.UUID]ledger.Account) string {
	var fgDebit, seedCredit, trackedDebit, trackedCredit, revenue bool
	for _, ln := range entry.Lines {
		acc, ok := accounts[ln.AccountID]
		if !ok {
			continue
		}
		if acc.Type == ledger.AccountTypeRevenue {
			revenue = true
		}
		if _, tracked := dictionary.UnitPrice(acc.Code); !tracked {
			continue
		}
		if ln.Debit.Sign() > 0 {
			trackedDebit = true
			if acc.Code == dictionary.CodeFinishedGoods {
				fgDebit = true
			}
		}
		if ln.Credit.Sign() > 0 {
			trackedCredit = true
			if acc.Code == dictionary.CodeSeedStock {
				seedCredit = true
			}
		}
	}
	switch {
	case fgDebit && seedCredit:
		return ledger.TxHarvest
	case trackedCredit && revenue:
		return ledger.TxSale
	case trackedDebit:
		return ledger.TxPurchase
	default:
		return ledger.TxGeneral
	}
}
