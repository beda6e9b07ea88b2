package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/oysterfarm/books/internal/dictionary"
	"github.com/oysterfarm/books/internal/errs"
	"github.com/oysterfarm/books/internal/ledger"
)

// Repo defines the read operations needed by the service.
type Repo interface {
	Accounts(ctx context.Context) ([]ledger.Account, error)
	AccountByID(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	AccountByCode(ctx context.Context, code string) (ledger.Account, error)
	// AccountReferenced reports whether any journal/adjusting line or
	// opening balance points at the account.
	AccountReferenced(ctx context.Context, id uuid.UUID) (bool, error)
	OpeningBalances(ctx context.Context) ([]ledger.OpeningBalance, error)
}

// Writer defines the write operations needed by the service.
type Writer interface {
	CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	// ReplaceOpeningBalances deletes all opening balance rows and inserts
	// the given set in one transaction.
	ReplaceOpeningBalances(ctx context.Context, rows []ledger.OpeningBalance) error
}

// Service manages the chart of accounts and the period opening balances.
type Service interface {
	CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	GetAccountByCode(ctx context.Context, code string) (ledger.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	OpeningBalances(ctx context.Context) ([]ledger.OpeningBalance, error)
	ReplaceOpeningBalances(ctx context.Context, rows []ledger.OpeningBalance) error
	RepairOpeningBalances(ctx context.Context) error
	SeedChart(ctx context.Context) ([]ledger.Account, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if a.Code == "" || a.Name == "" {
		return ledger.Account{}, fmt.Errorf("%w: code and name are required", errs.ErrInvalid)
	}
	if !a.Type.Valid() {
		return ledger.Account{}, fmt.Errorf("%w: unknown account type %q", errs.ErrInvalid, a.Type)
	}
	if a.NormalBalance == "" {
		a.NormalBalance = a.Type.DefaultNormalSide()
	}
	if a.NormalBalance != ledger.SideDebit && a.NormalBalance != ledger.SideCredit {
		return ledger.Account{}, fmt.Errorf("%w: normal balance must be debit or credit", errs.ErrInvalid)
	}
	if _, err := s.repo.AccountByCode(ctx, a.Code); err == nil {
		return ledger.Account{}, fmt.Errorf("%w: account code %s already exists", errs.ErrConflict, a.Code)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return ledger.Account{}, err
	}
	a.ID = uuid.New()
	a.Active = true
	return s.writer.CreateAccount(ctx, a)
}

func (s *service) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	return s.repo.Accounts(ctx)
}

func (s *service) GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	if id == uuid.Nil {
		return ledger.Account{}, errs.ErrInvalid
	}
	return s.repo.AccountByID(ctx, id)
}

func (s *service) GetAccountByCode(ctx context.Context, code string) (ledger.Account, error) {
	if code == "" {
		return ledger.Account{}, errs.ErrInvalid
	}
	return s.repo.AccountByCode(ctx, code)
}

// DeleteAccount removes an account from the chart. Accounts still carrying
// lines or an opening balance are refused with ErrReferenced.
func (s *service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errs.ErrInvalid
	}
	if _, err := s.repo.AccountByID(ctx, id); err != nil {
		return err
	}
	referenced, err := s.repo.AccountReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: account has posted activity", errs.ErrReferenced)
	}
	return s.writer.DeleteAccount(ctx, id)
}

func (s *service) OpeningBalances(ctx context.Context) ([]ledger.OpeningBalance, error) {
	return s.repo.OpeningBalances(ctx)
}

// ReplaceOpeningBalances swaps the full opening balance set: delete and
// reinsert, one row per account, amounts never negative.
func (s *service) ReplaceOpeningBalances(ctx context.Context, rows []ledger.OpeningBalance) error {
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, r := range rows {
		if r.AccountID == uuid.Nil {
			return fmt.Errorf("%w: account_id required", errs.ErrInvalid)
		}
		if _, dup := seen[r.AccountID]; dup {
			return fmt.Errorf("%w: duplicate opening balance for account %s", errs.ErrInvalid, r.AccountID)
		}
		seen[r.AccountID] = struct{}{}
		if r.Debit.Sign() < 0 || r.Credit.Sign() < 0 {
			return fmt.Errorf("%w: opening amounts must not be negative", errs.ErrInvalid)
		}
		if _, err := s.repo.AccountByID(ctx, r.AccountID); err != nil {
			return fmt.Errorf("opening balance account %s: %w", r.AccountID, err)
		}
	}
	return s.writer.ReplaceOpeningBalances(ctx, rows)
}

// RepairOpeningBalances is the explicit user-triggered fix: it discards all
// opening balance rows and reseeds the canonical set from the dictionary.
func (s *service) RepairOpeningBalances(ctx context.Context) error {
	canonical := dictionary.CanonicalOpeningBalances()
	rows := make([]ledger.OpeningBalance, 0, len(canonical))
	for code, amounts := range canonical {
		acc, err := s.repo.AccountByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("canonical account %s: %w", code, err)
		}
		rows = append(rows, ledger.OpeningBalance{
			AccountID: acc.ID,
			Debit:     amounts.Debit,
			Credit:    amounts.Credit,
		})
	}
	return s.writer.ReplaceOpeningBalances(ctx, rows)
}

// SeedChart inserts any canonical chart accounts that are missing and
// returns the full chart. Safe to run repeatedly.
func (s *service) SeedChart(ctx context.Context) ([]ledger.Account, error) {
	for _, def := range dictionary.Chart() {
		_, err := s.repo.AccountByCode(ctx, def.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		a := ledger.Account{
			ID:            uuid.New(),
			Code:          def.Code,
			Name:          def.Name,
			Type:          def.Type,
			NormalBalance: dictionary.NormalSideFor(def),
			Active:        true,
		}
		if _, err := s.writer.CreateAccount(ctx, a); err != nil {
			return nil, err
		}
	}
	return s.repo.Accounts(ctx)
}
