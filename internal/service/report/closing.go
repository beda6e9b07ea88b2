package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/govalues/decimal"

	"github.com/oysterfarm/books/internal/dictionary"
	"github.com/oysterfarm/books/internal/errs"
	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/service/journal"
)

// Poster is the posting engine used to commit closing entries through the
// same atomic path as ordinary postings.
type Poster interface {
	PostEntry(ctx context.Context, in journal.EntryInput) (ledger.Entry, error)
}

// ClosingInput parameterizes PostClosing.
type ClosingInput struct {
	Date time.Time
	// IncludeAdjustments selects whether adjusting entries count toward the
	// balances being closed, mirroring the statement parameter.
	IncludeAdjustments bool
}

// ClosingEntries computes, without mutating anything, the lines that zero
// every nominal account into retained earnings, plus the net income moved.
func (s *service) ClosingEntries(ctx context.Context, includeAdjustments bool) ([]ledger.LineInput, decimal.Decimal, error) {
	accounts, err := s.repo.Accounts(ctx)
	if err != nil {
		return nil, decimal.Decimal{}, err
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	retained, err := s.repo.AccountByCode(ctx, dictionary.CodeRetainedEarnings)
	if err != nil {
		return nil, decimal.Decimal{}, fmt.Errorf("retained earnings account: %w", err)
	}

	var lines []ledger.LineInput
	var netIncome decimal.Decimal
	for _, acc := range accounts {
		if !acc.Type.Nominal() {
			continue
		}
		bal, err := s.calc.AccountBalance(ctx, acc.ID, includeAdjustments)
		if err != nil {
			return nil, decimal.Decimal{}, err
		}
		if bal.IsZero() {
			continue
		}
		// Zeroing a balance means posting its amount on the side opposite
		// the account's normal balance; a negative balance flips again.
		side := acc.NormalBalance.Opposite()
		amount := bal
		if amount.Sign() < 0 {
			side = side.Opposite()
			amount = amount.Abs()
		}
		ln := ledger.LineInput{
			AccountID:   acc.ID,
			Side:        side,
			Description: "Close " + acc.Name,
		}
		if side == ledger.SideDebit {
			ln.Debit = amount
		} else {
			ln.Credit = amount
		}
		lines = append(lines, ln)
		if acc.Type == ledger.AccountTypeRevenue {
			netIncome = ledger.Add(netIncome, bal)
		} else {
			netIncome = ledger.Sub(netIncome, bal)
		}
	}
	if len(lines) == 0 {
		return nil, decimal.Decimal{}, nil
	}

	// Income summary line: retained earnings absorbs the net.
	reLine := ledger.LineInput{AccountID: retained.ID, Description: "Net income to retained earnings"}
	switch {
	case netIncome.Sign() > 0:
		reLine.Side = ledger.SideCredit
		reLine.Credit = netIncome
		lines = append(lines, reLine)
	case netIncome.Sign() < 0:
		reLine.Side = ledger.SideDebit
		reLine.Debit = netIncome.Abs()
		lines = append(lines, reLine)
	}
	return lines, netIncome, nil
}

// PostClosing commits the closing entries as one journal entry. Posting a
// second closing for the period is refused; delete the existing closing
// entry first if it was a mistake.
func (s *service) PostClosing(ctx context.Context, in ClosingInput) (ledger.Entry, error) {
	closed, err := s.periodClosed(ctx)
	if err != nil {
		return ledger.Entry{}, err
	}
	if closed {
		return ledger.Entry{}, fmt.Errorf("%w: closing entries already posted", errs.ErrPeriodClosed)
	}

	lines, _, err := s.ClosingEntries(ctx, in.IncludeAdjustments)
	if err != nil {
		return ledger.Entry{}, err
	}
	if len(lines) == 0 {
		return ledger.Entry{}, fmt.Errorf("%w: no nominal balances to close", errs.ErrUnprocessable)
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return s.poster.PostEntry(ctx, journal.EntryInput{
		Kind:            ledger.KindJournal,
		Date:            date,
		Description:     "Closing Entry",
		TransactionType: ledger.TxClosing,
		Lines:           lines,
	})
}

// PostClosingTrialBalance restricts the trial balance to real accounts,
// with adjustments always included.
func (s *service) PostClosingTrialBalance(ctx context.Context) (TrialBalance, error) {
	return s.trialBalance(ctx, true, func(t ledger.AccountType) bool { return !t.Nominal() })
}

// periodClosed reports whether a posted closing entry already exists.
func (s *service) periodClosed(ctx context.Context) (bool, error) {
	entries, err := s.repo.EntriesByKind(ctx, ledger.KindJournal)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Posted && e.TransactionType == ledger.TxClosing {
			return true, nil
		}
	}
	return false, nil
}
