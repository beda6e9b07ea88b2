package postgres

// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the HTTP API and services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between the
// domain entities and SQL rows and running the necessary transactions.

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oysterfarm/books/internal/errs"
	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/settings"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// entryTables maps an entry kind to its backing table pair.
func entryTables(kind ledger.EntryKind) (entries, lines string, err error) {
	switch kind {
	case ledger.KindJournal:
		return "journal_entries", "journal_lines", nil
	case ledger.KindAdjusting:
		return "adjusting_entries", "adjusting_lines", nil
	default:
		return "", "", fmt.Errorf("%w: unknown entry kind %q", errs.ErrInvalid, kind)
	}
}

func parseDec(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.Parse(s)
}

// --- Accounts ---

func (s *Store) Accounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `
		select id, code, name, type, normal_balance, active
		from accounts
		order by code asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.Active); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AccountByID(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	var a ledger.Account
	err := s.pool.QueryRow(ctx, `
		select id, code, name, type, normal_balance, active
		from accounts
		where id = $1
	`, id).Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

func (s *Store) AccountsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]ledger.Account{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		select id, code, name, type, normal_balance, active
		from accounts
		where id = any($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]ledger.Account)
	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.Active); err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (s *Store) AccountByCode(ctx context.Context, code string) (ledger.Account, error) {
	var a ledger.Account
	err := s.pool.QueryRow(ctx, `
		select id, code, name, type, normal_balance, active
		from accounts
		where code = $1
	`, code).Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// AccountReferenced reports whether any line or opening balance row points at
// the account.
func (s *Store) AccountReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	var referenced bool
	err := s.pool.QueryRow(ctx, `
		select exists (select 1 from opening_balances where account_id = $1)
			or exists (select 1 from journal_lines where account_id = $1)
			or exists (select 1 from adjusting_lines where account_id = $1)
	`, id).Scan(&referenced)
	return referenced, err
}

func (s *Store) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	_, err := s.pool.Exec(ctx, `
		insert into accounts (id, code, name, type, normal_balance, active)
		values ($1,$2,$3,$4,$5,$6)
	`, a.ID, a.Code, a.Name, a.Type, a.NormalBalance, a.Active)
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from accounts where id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Opening balances ---

func (s *Store) OpeningBalances(ctx context.Context) ([]ledger.OpeningBalance, error) {
	rows, err := s.pool.Query(ctx, `
		select ob.account_id, ob.debit::text, ob.credit::text
		from opening_balances ob
		join accounts a on a.id = ob.account_id
		order by a.code asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.OpeningBalance, 0)
	for rows.Next() {
		var ob ledger.OpeningBalance
		var debit, credit string
		if err := rows.Scan(&ob.AccountID, &debit, &credit); err != nil {
			return nil, err
		}
		if ob.Debit, err = parseDec(debit); err != nil {
			return nil, err
		}
		if ob.Credit, err = parseDec(credit); err != nil {
			return nil, err
		}
		out = append(out, ob)
	}
	return out, rows.Err()
}

func (s *Store) OpeningBalanceByAccount(ctx context.Context, accountID uuid.UUID) (ledger.OpeningBalance, bool, error) {
	var ob ledger.OpeningBalance
	var debit, credit string
	err := s.pool.QueryRow(ctx, `
		select account_id, debit::text, credit::text
		from opening_balances
		where account_id = $1
	`, accountID).Scan(&ob.AccountID, &debit, &credit)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.OpeningBalance{}, false, nil
	}
	if err != nil {
		return ledger.OpeningBalance{}, false, err
	}
	if ob.Debit, err = parseDec(debit); err != nil {
		return ledger.OpeningBalance{}, false, err
	}
	if ob.Credit, err = parseDec(credit); err != nil {
		return ledger.OpeningBalance{}, false, err
	}
	return ob, true, nil
}

// ReplaceOpeningBalances deletes all rows and inserts the given set in one
// transaction.
func (s *Store) ReplaceOpeningBalances(ctx context.Context, rowsIn []ledger.OpeningBalance) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `delete from opening_balances`); err != nil {
		return err
	}
	for _, r := range rowsIn {
		if _, err := tx.Exec(ctx, `
			insert into opening_balances (account_id, debit, credit)
			values ($1, $2::numeric, $3::numeric)
		`, r.AccountID, r.Debit.String(), r.Credit.String()); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// --- Entry reads ---

// EntriesByKind returns entries of one kind with lines populated, ordered by
// (date, id) ascending.
func (s *Store) EntriesByKind(ctx context.Context, kind ledger.EntryKind) ([]ledger.Entry, error) {
	entryTable, lineTable, err := entryTables(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		select id, date, description, reference, transaction_type, posted
		from `+entryTable+`
		order by date asc, id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]ledger.Entry, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		e := ledger.Entry{Kind: kind}
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.Reference, &e.TransactionType, &e.Posted); err != nil {
			return nil, err
		}
		entries = append(entries, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}
	lineRows, err := s.pool.Query(ctx, `
		select id, entry_id, account_id, debit::text, credit::text, description
		from `+lineTable+`
		where entry_id = any($1)
		order by entry_id asc, position asc
	`, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	idx := make(map[uuid.UUID]*ledger.Entry, len(entries))
	for i := range entries {
		idx[entries[i].ID] = &entries[i]
	}
	for lineRows.Next() {
		ln, entryID, err := scanLine(lineRows)
		if err != nil {
			return nil, err
		}
		if e := idx[entryID]; e != nil {
			e.Lines = append(e.Lines, ln)
		}
	}
	return entries, lineRows.Err()
}

// EntryByID looks the id up in both table pairs; ids are unique across kinds.
func (s *Store) EntryByID(ctx context.Context, id uuid.UUID) (ledger.Entry, error) {
	for _, kind := range []ledger.EntryKind{ledger.KindJournal, ledger.KindAdjusting} {
		e, err := s.entryByID(ctx, kind, id)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return ledger.Entry{}, err
		}
	}
	return ledger.Entry{}, errs.ErrNotFound
}

func (s *Store) entryByID(ctx context.Context, kind ledger.EntryKind, id uuid.UUID) (ledger.Entry, error) {
	entryTable, lineTable, err := entryTables(kind)
	if err != nil {
		return ledger.Entry{}, err
	}
	e := ledger.Entry{Kind: kind}
	err = s.pool.QueryRow(ctx, `
		select id, date, description, reference, transaction_type, posted
		from `+entryTable+`
		where id = $1
	`, id).Scan(&e.ID, &e.Date, &e.Description, &e.Reference, &e.TransactionType, &e.Posted)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Entry{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Entry{}, err
	}
	rows, err := s.pool.Query(ctx, `
		select id, entry_id, account_id, debit::text, credit::text, description
		from `+lineTable+`
		where entry_id = $1
		order by position asc
	`, id)
	if err != nil {
		return ledger.Entry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		ln, _, err := scanLine(rows)
		if err != nil {
			return ledger.Entry{}, err
		}
		e.Lines = append(e.Lines, ln)
	}
	return e, rows.Err()
}

func (s *Store) LinesByAccount(ctx context.Context, accountID uuid.UUID, kind ledger.EntryKind) ([]ledger.Line, error) {
	entryTable, lineTable, err := entryTables(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		select l.id, l.entry_id, l.account_id, l.debit::text, l.credit::text, l.description
		from `+lineTable+` l
		join `+entryTable+` e on e.id = l.entry_id
		where l.account_id = $1
		order by e.date asc, e.id asc, l.position asc
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Line, 0)
	for rows.Next() {
		ln, _, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ln)
	}
	return out, rows.Err()
}

func scanLine(rows pgx.Rows) (ledger.Line, uuid.UUID, error) {
	var ln ledger.Line
	var debit, credit string
	if err := rows.Scan(&ln.ID, &ln.EntryID, &ln.AccountID, &debit, &credit, &ln.Description); err != nil {
		return ledger.Line{}, uuid.Nil, err
	}
	var err error
	if ln.Debit, err = parseDec(debit); err != nil {
		return ledger.Line{}, uuid.Nil, err
	}
	if ln.Credit, err = parseDec(credit); err != nil {
		return ledger.Line{}, uuid.Nil, err
	}
	return ln, ln.EntryID, nil
}

// --- Entry writes ---

// PostEntry inserts the entry header, its lines, the inventory movements and
// the stock counter updates in a single transaction.
func (s *Store) PostEntry(ctx context.Context, p ledger.Posting) (ledger.Entry, error) {
	entryTable, lineTable, err := entryTables(p.Entry.Kind)
	if err != nil {
		return ledger.Entry{}, err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.Entry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	e := p.Entry
	if _, err := tx.Exec(ctx, `
		insert into `+entryTable+` (id, date, description, reference, transaction_type, posted)
		values ($1,$2,$3,$4,$5,$6)
	`, e.ID, e.Date, e.Description, e.Reference, e.TransactionType, e.Posted); err != nil {
		return ledger.Entry{}, err
	}
	for i, ln := range e.Lines {
		if _, err := tx.Exec(ctx, `
			insert into `+lineTable+` (id, entry_id, account_id, position, debit, credit, description)
			values ($1,$2,$3,$4,$5::numeric,$6::numeric,$7)
		`, ln.ID, e.ID, ln.AccountID, i, ln.Debit.String(), ln.Credit.String(), ln.Description); err != nil {
			return ledger.Entry{}, fmt.Errorf("insert line: %w", err)
		}
	}
	for _, m := range p.Movements {
		if _, err := tx.Exec(ctx, `
			insert into inventory_movements (id, date, description, account_code, quantity_in, quantity_out, unit_cost, value)
			values ($1,$2,$3,$4,$5::numeric,$6::numeric,$7::numeric,$8::numeric)
		`, m.ID, m.Date, m.Description, m.AccountCode,
			m.QuantityIn.String(), m.QuantityOut.String(), m.UnitCost.String(), m.Value.String()); err != nil {
			return ledger.Entry{}, fmt.Errorf("insert movement: %w", err)
		}
	}
	for key, delta := range p.StockDeltas {
		if err := bumpSetting(ctx, tx, key, delta); err != nil {
			return ledger.Entry{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.Entry{}, err
	}
	return e, nil
}

// bumpSetting adds delta to a numeric settings value under the transaction's
// row lock, creating the row at zero when absent.
func bumpSetting(ctx context.Context, tx pgx.Tx, key string, delta decimal.Decimal) error {
	var current string
	err := tx.QueryRow(ctx, `select value from settings where key = $1 for update`, key).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		current = "0"
	} else if err != nil {
		return err
	}
	cur, err := parseDec(current)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	next := ledger.Add(cur, delta)
	_, err = tx.Exec(ctx, `
		insert into settings (key, value) values ($1, $2)
		on conflict (key) do update set value = excluded.value
	`, key, next.String())
	return err
}

// DeleteEntry removes an entry and its lines; the line tables cascade on the
// entry delete. Inventory movements are an append-only log and stay.
func (s *Store) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	for _, table := range []string{"journal_entries", "adjusting_entries"} {
		ct, err := s.pool.Exec(ctx, `delete from `+table+` where id = $1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() > 0 {
			return nil
		}
	}
	return errs.ErrNotFound
}

// --- Inventory and settings ---

func (s *Store) Movements(ctx context.Context) ([]ledger.InventoryMovement, error) {
	rows, err := s.pool.Query(ctx, `
		select id, date, description, account_code, quantity_in::text, quantity_out::text, unit_cost::text, value::text
		from inventory_movements
		order by date asc, id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.InventoryMovement, 0)
	for rows.Next() {
		var m ledger.InventoryMovement
		var qin, qout, cost, value string
		if err := rows.Scan(&m.ID, &m.Date, &m.Description, &m.AccountCode, &qin, &qout, &cost, &value); err != nil {
			return nil, err
		}
		if m.QuantityIn, err = parseDec(qin); err != nil {
			return nil, err
		}
		if m.QuantityOut, err = parseDec(qout); err != nil {
			return nil, err
		}
		if m.UnitCost, err = parseDec(cost); err != nil {
			return nil, err
		}
		if m.Value, err = parseDec(value); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) Settings(ctx context.Context) (settings.Settings, error) {
	rows, err := s.pool.Query(ctx, `select key, value from settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := settings.Settings{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out.Set(k, v)
	}
	return out, rows.Err()
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		insert into settings (key, value) values ($1, $2)
		on conflict (key) do update set value = excluded.value
	`, key, value)
	return err
}
