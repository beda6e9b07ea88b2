package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/oysterfarm/books/internal/dictionary"
	"github.com/oysterfarm/books/internal/errs"
	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/settings"
)

// Repo defines the read operations needed by the service.
type Repo interface {
	AccountByID(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	AccountsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error)
	OpeningBalanceByAccount(ctx context.Context, accountID uuid.UUID) (ledger.OpeningBalance, bool, error)
	LinesByAccount(ctx context.Context, accountID uuid.UUID, kind ledger.EntryKind) ([]ledger.Line, error)
	EntriesByKind(ctx context.Context, kind ledger.EntryKind) ([]ledger.Entry, error)
	EntryByID(ctx context.Context, id uuid.UUID) (ledger.Entry, error)
	Movements(ctx context.Context) ([]ledger.InventoryMovement, error)
	Settings(ctx context.Context) (settings.Settings, error)
}

// Writer defines the write operations needed by the service.
type Writer interface {
	// PostEntry persists the posting atomically: entry header, lines,
	// inventory movements and stock counter deltas all commit or none do.
	PostEntry(ctx context.Context, p ledger.Posting) (ledger.Entry, error)
	// DeleteEntry removes an entry and its lines as a unit.
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

// Service exposes validation, posting, balance computation and the
// inventory views derived from postings.
type Service interface {
	Validate(ctx context.Context, lines []ledger.LineInput, templateKey string) ([]ValidationError, error)
	PostEntry(ctx context.Context, in EntryInput) (ledger.Entry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	GetEntry(ctx context.Context, id uuid.UUID) (ledger.Entry, error)
	ListEntries(ctx context.Context, kind ledger.EntryKind) ([]ledger.Entry, error)
	AccountBalance(ctx context.Context, accountID uuid.UUID, includeAdjustments bool) (decimal.Decimal, error)
	Movements(ctx context.Context) ([]ledger.InventoryMovement, error)
	CurrentStock(ctx context.Context) (map[string]decimal.Decimal, error)
	RecomputedStock(ctx context.Context) (map[string]decimal.Decimal, error)
}

type service struct {
	repo      Repo
	writer    Writer
	templates map[string]ledger.CompiledTemplate
}

// New constructs the journal service. templates is the compiled template
// set; a nil map disables template compliance checks.
func New(repo Repo, writer Writer, templates map[string]ledger.CompiledTemplate) Service {
	if templates == nil {
		templates = map[string]ledger.CompiledTemplate{}
	}
	return &service{repo: repo, writer: writer, templates: templates}
}

func (s *service) GetEntry(ctx context.Context, id uuid.UUID) (ledger.Entry, error) {
	if id == uuid.Nil {
		return ledger.Entry{}, errs.ErrInvalid
	}
	return s.repo.EntryByID(ctx, id)
}

func (s *service) ListEntries(ctx context.Context, kind ledger.EntryKind) ([]ledger.Entry, error) {
	if kind != ledger.KindJournal && kind != ledger.KindAdjusting {
		return nil, errs.ErrInvalid
	}
	return s.repo.EntriesByKind(ctx, kind)
}

func (s *service) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errs.ErrInvalid
	}
	return s.writer.DeleteEntry(ctx, id)
}

// AccountBalance derives the point-in-time balance for an account:
// opening net + journal net, plus the adjusting net when requested, each
// signed by the account's normal balance. A missing account is an error,
// never zero, so broken references cannot hide inside report totals.
func (s *service) AccountBalance(ctx context.Context, accountID uuid.UUID, includeAdjustments bool) (decimal.Decimal, error) {
	var zero decimal.Decimal
	if accountID == uuid.Nil {
		return zero, errs.ErrInvalid
	}
	acc, err := s.repo.AccountByID(ctx, accountID)
	if err != nil {
		return zero, fmt.Errorf("account %s: %w", accountID, err)
	}

	balance := zero
	if ob, ok, err := s.repo.OpeningBalanceByAccount(ctx, accountID); err != nil {
		return zero, err
	} else if ok {
		balance = ledger.Add(balance, acc.SignedNet(ob.Debit, ob.Credit))
	}

	kinds := []ledger.EntryKind{ledger.KindJournal}
	if includeAdjustments {
		kinds = append(kinds, ledger.KindAdjusting)
	}
	for _, kind := range kinds {
		lines, err := s.repo.LinesByAccount(ctx, accountID, kind)
		if err != nil {
			return zero, err
		}
		for _, ln := range lines {
			balance = ledger.Add(balance, acc.SignedNet(ln.Debit, ln.Credit))
		}
	}
	return balance, nil
}

func (s *service) Movements(ctx context.Context) ([]ledger.InventoryMovement, error) {
	return s.repo.Movements(ctx)
}

// CurrentStock reads the cached per-code stock counters from settings.
func (s *service) CurrentStock(ctx context.Context) (map[string]decimal.Decimal, error) {
	st, err := s.repo.Settings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal)
	for _, code := range dictionary.TrackedCodes() {
		out[code] = st.Decimal(settings.StockKey(code))
	}
	return out, nil
}

// RecomputedStock rebuilds the stock levels from the movement log. It is the
// authoritative figure when the cached counters are suspected of drift.
func (s *service) RecomputedStock(ctx context.Context) (map[string]decimal.Decimal, error) {
	movements, err := s.repo.Movements(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal)
	for _, code := range dictionary.TrackedCodes() {
		out[code] = decimal.Decimal{}
	}
	for _, m := range movements {
		out[m.AccountCode] = ledger.Add(out[m.AccountCode], ledger.Sub(m.QuantityIn, m.QuantityOut))
	}
	return out, nil
}
