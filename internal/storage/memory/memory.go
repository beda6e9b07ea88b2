package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing
// us to plug in a real DB later.
import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/oysterfarm/books/internal/errs"
	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/settings"
)

// entryKey tracks ordering for entries per kind: sorted asc by (Date, ID)
type entryKey struct {
	Date time.Time
	ID   uuid.UUID
}

// Store is an in-memory implementation of the repository+writer interfaces
// used by the services. It is guarded by an RWMutex for concurrent use, and
// PostEntry applies the whole posting under one write lock so partial
// postings are never observable.
type Store struct {
	mu              sync.RWMutex
	accounts        map[uuid.UUID]ledger.Account
	codeIndex       map[string]uuid.UUID
	opening         map[uuid.UUID]ledger.OpeningBalance
	entries         map[uuid.UUID]ledger.Entry
	entryKeysByKind map[ledger.EntryKind][]entryKey
	movements       []ledger.InventoryMovement
	settings        settings.Settings
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:        make(map[uuid.UUID]ledger.Account),
		codeIndex:       make(map[string]uuid.UUID),
		opening:         make(map[uuid.UUID]ledger.OpeningBalance),
		entries:         make(map[uuid.UUID]ledger.Entry),
		entryKeysByKind: make(map[ledger.EntryKind][]entryKey),
		settings:        settings.Settings{},
	}
}

// Ready always succeeds; the in-memory store has no external dependency.
func (s *Store) Ready(_ context.Context) error { return nil }

// Seed helpers for local dev/tests.
func (s *Store) SeedAccount(a ledger.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.codeIndex[a.Code] = a.ID
	s.mu.Unlock()
}

func (s *Store) SeedOpeningBalance(ob ledger.OpeningBalance) {
	s.mu.Lock()
	s.opening[ob.AccountID] = ob
	s.mu.Unlock()
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.accounts = map[uuid.UUID]ledger.Account{}
	s.codeIndex = map[string]uuid.UUID{}
	s.opening = map[uuid.UUID]ledger.OpeningBalance{}
	s.entries = map[uuid.UUID]ledger.Entry{}
	s.entryKeysByKind = map[ledger.EntryKind][]entryKey{}
	s.movements = nil
	s.settings = settings.Settings{}
	s.mu.Unlock()
}

// --- Accounts ---

func (s *Store) Accounts(_ context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) AccountByID(_ context.Context, id uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

func (s *Store) AccountsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]ledger.Account, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (s *Store) AccountByCode(_ context.Context, code string) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	return s.accounts[id], nil
}

func (s *Store) AccountReferenced(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.opening[id]; ok {
		return true, nil
	}
	for _, e := range s.entries {
		for _, ln := range e.Lines {
			if ln.AccountID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) CreateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.codeIndex[a.Code]; exists {
		return ledger.Account{}, errs.ErrConflict
	}
	s.accounts[a.ID] = a
	s.codeIndex[a.Code] = a.ID
	return a, nil
}

func (s *Store) DeleteAccount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return errs.ErrNotFound
	}
	delete(s.accounts, id)
	delete(s.codeIndex, a.Code)
	return nil
}

// --- Opening balances ---

func (s *Store) OpeningBalances(_ context.Context) ([]ledger.OpeningBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.OpeningBalance, 0, len(s.opening))
	for _, ob := range s.opening {
		out = append(out, ob)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.accounts[out[i].AccountID].Code < s.accounts[out[j].AccountID].Code
	})
	return out, nil
}

func (s *Store) OpeningBalanceByAccount(_ context.Context, accountID uuid.UUID) (ledger.OpeningBalance, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ob, ok := s.opening[accountID]
	return ob, ok, nil
}

func (s *Store) ReplaceOpeningBalances(_ context.Context, rows []ledger.OpeningBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		if _, ok := s.accounts[r.AccountID]; !ok {
			return errs.ErrNotFound
		}
	}
	s.opening = make(map[uuid.UUID]ledger.OpeningBalance, len(rows))
	for _, r := range rows {
		s.opening[r.AccountID] = r
	}
	return nil
}

// --- Entries ---

func (s *Store) EntriesByKind(_ context.Context, kind ledger.EntryKind) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.entryKeysByKind[kind]
	out := make([]ledger.Entry, 0, len(keys))
	for _, k := range keys {
		if e, ok := s.entries[k.ID]; ok {
			out = append(out, copyEntry(e))
		}
	}
	return out, nil
}

func (s *Store) EntryByID(_ context.Context, id uuid.UUID) (ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return ledger.Entry{}, errs.ErrNotFound
	}
	return copyEntry(e), nil
}

func (s *Store) LinesByAccount(_ context.Context, accountID uuid.UUID, kind ledger.EntryKind) ([]ledger.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Line, 0)
	for _, k := range s.entryKeysByKind[kind] {
		e, ok := s.entries[k.ID]
		if !ok {
			continue
		}
		for _, ln := range e.Lines {
			if ln.AccountID == accountID {
				out = append(out, ln)
			}
		}
	}
	return out, nil
}

// PostEntry applies the whole posting under one lock: entry, lines,
// movements and stock counters commit together or not at all.
func (s *Store) PostEntry(_ context.Context, p ledger.Posting) (ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ln := range p.Entry.Lines {
		if _, ok := s.accounts[ln.AccountID]; !ok {
			return ledger.Entry{}, errs.ErrNotFound
		}
	}
	if _, exists := s.entries[p.Entry.ID]; exists {
		return ledger.Entry{}, errs.ErrConflict
	}
	e := copyEntry(p.Entry)
	s.entries[e.ID] = e
	s.insertEntryIndexLocked(e.Kind, entryKey{Date: e.Date, ID: e.ID})
	s.movements = append(s.movements, p.Movements...)
	for key, delta := range p.StockDeltas {
		current := s.settings.Decimal(key)
		s.settings.Set(key, ledger.Add(current, delta).String())
	}
	return copyEntry(e), nil
}

func (s *Store) DeleteEntry(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return errs.ErrNotFound
	}
	delete(s.entries, id)
	keys := s.entryKeysByKind[e.Kind]
	for i, k := range keys {
		if k.ID == id {
			s.entryKeysByKind[e.Kind] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	return nil
}

// --- Inventory and settings ---

func (s *Store) Movements(_ context.Context) ([]ledger.InventoryMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.InventoryMovement, len(s.movements))
	copy(out, s.movements)
	return out, nil
}

func (s *Store) Settings(_ context.Context) (settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone(), nil
}

func (s *Store) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Set(key, value)
	return nil
}

// StockCounter reads one cached counter directly; test convenience.
func (s *Store) StockCounter(key string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Decimal(key)
}

// copyEntry returns a deep copy so callers cannot mutate stored lines.
func copyEntry(e ledger.Entry) ledger.Entry {
	out := e
	out.Lines = make([]ledger.Line, len(e.Lines))
	copy(out.Lines, e.Lines)
	return out
}

// insertEntryIndexLocked inserts k into the per-kind sorted index, keeping
// order asc by (Date, ID). Caller must hold s.mu (write lock).
func (s *Store) insertEntryIndexLocked(kind ledger.EntryKind, k entryKey) {
	keys := s.entryKeysByKind[kind]
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].Date.After(k.Date) {
			return true
		}
		if keys[i].Date.Equal(k.Date) {
			return keys[i].ID.String() > k.ID.String()
		}
		return false
	})
	if i == len(keys) {
		s.entryKeysByKind[kind] = append(keys, k)
		return
	}
	keys = append(keys, entryKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.entryKeysByKind[kind] = keys
}
