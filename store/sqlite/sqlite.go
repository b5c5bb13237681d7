/*
Package sqlite provides a SQLite-backed implementation of budget.Store.

PURPOSE:
  Persists accounts, outgoings, fund sources, the latest allocation run
  and settings. The engine never sees this package; the API handler loads
  a budget.State from it and writes results back.

KEY TABLES:
  accounts:      spending accounts, seq column keeps insertion order
  outgoings:     payment obligations, flat recurrence + plan columns
  fund_sources:  the fund ledger, replaced as a whole
  allocations:   the latest allocation run, replaced as a whole
  settings:      key/value (pay_cycle as JSON, currency code)

INTEGRITY:
  - outgoings.account_id references accounts(id) with foreign keys on
  - DeleteAccount reports budget.ErrAccountInUse before touching rows
  - ReplaceFundSources / ReplaceAllocations run in one SQL transaction

FORMATS:
  Money is stored as decimal TEXT, dates as YYYY-MM-DD TEXT.

CONCURRENCY:
  Uses sync.RWMutex plus a single open connection, which also keeps
  ":memory:" databases alive across calls.

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/budget-engine/budget"
)

// Store implements budget.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ budget.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		color TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outgoings (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		due_date TEXT NOT NULL,
		recurrence TEXT NOT NULL DEFAULT 'none',
		custom_interval INTEGER,
		custom_unit TEXT,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		plan_enabled INTEGER NOT NULL DEFAULT 0,
		plan_start_date TEXT,
		plan_frequency TEXT,
		plan_installment_amount TEXT,
		is_paused INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_outgoings_account
		ON outgoings(account_id);

	CREATE TABLE IF NOT EXISTS fund_sources (
		position INTEGER NOT NULL,
		id TEXT PRIMARY KEY,
		name TEXT,
		amount TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS allocations (
		position INTEGER NOT NULL,
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

// SaveAccount inserts or replaces an account, keeping its position.
func (s *Store) SaveAccount(ctx context.Context, a budget.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO accounts (id, name, description, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			color = excluded.color,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Name, nullString(a.Description), nullString(a.Color), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by ID.
func (s *Store) GetAccount(ctx context.Context, id budget.AccountID) (budget.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		a           budget.Account
		description sql.NullString
		color       sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, color FROM accounts WHERE id = ?", id,
	).Scan(&a.ID, &a.Name, &description, &color)
	if errors.Is(err, sql.ErrNoRows) {
		return budget.Account{}, fmt.Errorf("%w: %s", budget.ErrAccountNotFound, id)
	}
	if err != nil {
		return budget.Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	a.Description = description.String
	a.Color = color.String
	return a, nil
}

// ListAccounts returns all accounts in insertion order.
func (s *Store) ListAccounts(ctx context.Context) ([]budget.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, color FROM accounts ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []budget.Account{}
	for rows.Next() {
		var (
			a           budget.Account
			description sql.NullString
			color       sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &description, &color); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Description = description.String
		a.Color = color.String
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes an account no outgoing references.
func (s *Store) DeleteAccount(ctx context.Context, id budget.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inUse int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM outgoings WHERE account_id = ?", id,
	).Scan(&inUse); err != nil {
		return fmt.Errorf("failed to check account references: %w", err)
	}
	if inUse > 0 {
		return fmt.Errorf("%w: %s (%d outgoings)", budget.ErrAccountInUse, id, inUse)
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", budget.ErrAccountNotFound, id)
	}
	return nil
}

// =============================================================================
// OUTGOING STORE
// =============================================================================

const outgoingColumns = `id, name, amount, due_date, recurrence, custom_interval, custom_unit, account_id,
	plan_enabled, plan_start_date, plan_frequency, plan_installment_amount, is_paused`

// SaveOutgoing inserts or replaces an outgoing. The account must exist.
func (s *Store) SaveOutgoing(ctx context.Context, o budget.Outgoing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE id = ?", o.AccountID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check account: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", budget.ErrAccountNotFound, o.AccountID)
	}

	var (
		customInterval sql.NullInt64
		customUnit     sql.NullString
		planEnabled    bool
		planStart      sql.NullString
		planFrequency  sql.NullString
		planAmount     sql.NullString
	)
	if interval, unit, ok := o.Recurrence.Custom(); ok {
		customInterval = sql.NullInt64{Int64: int64(interval), Valid: true}
		customUnit = nullString(string(unit))
	}
	if p := o.PaymentPlan; p != nil {
		planEnabled = p.Enabled
		planStart = nullString(p.StartDate.String())
		planFrequency = nullString(string(p.Frequency))
		if p.InstallmentAmount != nil {
			planAmount = nullString(p.InstallmentAmount.Decimal().String())
		}
	}

	query := `
		INSERT INTO outgoings (` + outgoingColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount = excluded.amount,
			due_date = excluded.due_date,
			recurrence = excluded.recurrence,
			custom_interval = excluded.custom_interval,
			custom_unit = excluded.custom_unit,
			account_id = excluded.account_id,
			plan_enabled = excluded.plan_enabled,
			plan_start_date = excluded.plan_start_date,
			plan_frequency = excluded.plan_frequency,
			plan_installment_amount = excluded.plan_installment_amount,
			is_paused = excluded.is_paused,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		o.ID,
		o.Name,
		o.Amount.Decimal().String(),
		o.DueDate.String(),
		string(o.Recurrence.Cadence()),
		customInterval,
		customUnit,
		o.AccountID,
		planEnabled,
		planStart,
		planFrequency,
		planAmount,
		o.IsPaused,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save outgoing: %w", err)
	}
	return nil
}

// GetOutgoing retrieves an outgoing by ID.
func (s *Store) GetOutgoing(ctx context.Context, id budget.OutgoingID) (budget.Outgoing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+outgoingColumns+" FROM outgoings WHERE id = ?", id,
	)
	if err != nil {
		return budget.Outgoing{}, fmt.Errorf("failed to get outgoing: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return budget.Outgoing{}, err
		}
		return budget.Outgoing{}, fmt.Errorf("%w: %s", budget.ErrOutgoingNotFound, id)
	}
	return scanOutgoing(rows)
}

// ListOutgoings returns all outgoings in insertion order.
func (s *Store) ListOutgoings(ctx context.Context) ([]budget.Outgoing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+outgoingColumns+" FROM outgoings ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoings: %w", err)
	}
	defer rows.Close()

	outgoings := []budget.Outgoing{}
	for rows.Next() {
		o, err := scanOutgoing(rows)
		if err != nil {
			return nil, err
		}
		outgoings = append(outgoings, o)
	}
	return outgoings, rows.Err()
}

// DeleteOutgoing removes an outgoing.
func (s *Store) DeleteOutgoing(ctx context.Context, id budget.OutgoingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM outgoings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete outgoing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", budget.ErrOutgoingNotFound, id)
	}
	return nil
}

func scanOutgoing(rows *sql.Rows) (budget.Outgoing, error) {
	var (
		o              budget.Outgoing
		amount         string
		dueDate        string
		recurrence     string
		customInterval sql.NullInt64
		customUnit     sql.NullString
		planEnabled    bool
		planStart      sql.NullString
		planFrequency  sql.NullString
		planAmount     sql.NullString
	)

	err := rows.Scan(
		&o.ID, &o.Name, &amount, &dueDate, &recurrence, &customInterval, &customUnit,
		&o.AccountID, &planEnabled, &planStart, &planFrequency, &planAmount, &o.IsPaused,
	)
	if err != nil {
		return o, fmt.Errorf("failed to scan outgoing: %w", err)
	}

	o.Amount = parseMoney(amount)
	// Unparseable dates stay zero; the expander treats them as invisible.
	o.DueDate, _ = budget.ParseDate(dueDate)

	var interval *int
	var unit *string
	if customInterval.Valid {
		n := int(customInterval.Int64)
		interval = &n
	}
	if customUnit.Valid {
		unit = &customUnit.String
	}
	r, err := budget.ParseRecurrence(recurrence, interval, unit)
	if err != nil {
		return o, fmt.Errorf("outgoing %s: %w", o.ID, err)
	}
	o.Recurrence = r

	if planStart.Valid || planFrequency.Valid {
		plan := &budget.PaymentPlan{
			Enabled:   planEnabled,
			Frequency: budget.PlanFrequency(planFrequency.String),
		}
		plan.StartDate, _ = budget.ParseDate(planStart.String)
		if planAmount.Valid {
			m := parseMoney(planAmount.String)
			plan.InstallmentAmount = &m
		}
		o.PaymentPlan = plan
	}
	return o, nil
}

// =============================================================================
// FUND SOURCE STORE
// =============================================================================

// ListFundSources returns the ledger's sources in order.
func (s *Store) ListFundSources(ctx context.Context) ([]budget.FundSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, amount FROM fund_sources ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list fund sources: %w", err)
	}
	defer rows.Close()

	sources := []budget.FundSource{}
	for rows.Next() {
		var (
			fs     budget.FundSource
			name   sql.NullString
			amount string
		)
		if err := rows.Scan(&fs.ID, &name, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan fund source: %w", err)
		}
		fs.Name = name.String
		fs.Amount = parseMoney(amount).NonNegative()
		sources = append(sources, fs)
	}
	return sources, rows.Err()
}

// ReplaceFundSources swaps the whole ledger atomically.
func (s *Store) ReplaceFundSources(ctx context.Context, sources []budget.FundSource) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM fund_sources"); err != nil {
			return err
		}
		for i, fs := range sources {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO fund_sources (position, id, name, amount) VALUES (?, ?, ?, ?)",
				i, fs.ID, nullString(fs.Name), fs.Amount.NonNegative().Decimal().String(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert fund source: %w", err)
			}
		}
		return nil
	})
}

// =============================================================================
// ALLOCATION STORE
// =============================================================================

// ListAllocations returns the latest allocation run in order.
func (s *Store) ListAllocations(ctx context.Context) ([]budget.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account_id, amount FROM allocations ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	allocations := []budget.Allocation{}
	for rows.Next() {
		var (
			a      budget.Allocation
			amount string
		)
		if err := rows.Scan(&a.ID, &a.AccountID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		a.Amount = parseMoney(amount)
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// ReplaceAllocations swaps the whole allocation set atomically.
func (s *Store) ReplaceAllocations(ctx context.Context, allocations []budget.Allocation) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM allocations"); err != nil {
			return err
		}
		for i, a := range allocations {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO allocations (position, id, account_id, amount, created_at) VALUES (?, ?, ?, ?, ?)",
				i, a.ID, a.AccountID, a.Amount.Decimal().String(), now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert allocation: %w", err)
			}
		}
		return nil
	})
}

// =============================================================================
// SETTINGS STORE
// =============================================================================

const (
	settingPayCycle = "pay_cycle"
	settingCurrency = "currency"
)

// GetPayCycle returns the saved pay cycle or the default.
func (s *Store) GetPayCycle(ctx context.Context) (budget.PayCycle, error) {
	value, ok, err := s.getSetting(ctx, settingPayCycle)
	if err != nil || !ok {
		return budget.DefaultPayCycle(), err
	}
	var c budget.PayCycle
	if err := json.Unmarshal([]byte(value), &c); err != nil {
		return budget.DefaultPayCycle(), fmt.Errorf("failed to decode pay cycle: %w", err)
	}
	return c.Normalize(), nil
}

// SavePayCycle stores the pay cycle.
func (s *Store) SavePayCycle(ctx context.Context, c budget.PayCycle) error {
	data, err := json.Marshal(c.Normalize())
	if err != nil {
		return err
	}
	return s.setSetting(ctx, settingPayCycle, string(data))
}

// GetCurrency returns the saved currency code or the default.
func (s *Store) GetCurrency(ctx context.Context) (string, error) {
	value, ok, err := s.getSetting(ctx, settingCurrency)
	if err != nil || !ok || value == "" {
		return budget.DefaultCurrency, err
	}
	return value, nil
}

// SaveCurrency stores the currency code.
func (s *Store) SaveCurrency(ctx context.Context, code string) error {
	return s.setSetting(ctx, settingCurrency, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *Store) getSetting(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (for demo purposes).
func (s *Store) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"allocations", "fund_sources", "outgoings", "accounts", "settings"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// withTx executes fn within a database transaction.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseMoney(value string) budget.Money {
	m, err := budget.ParseMoney(value)
	if err != nil {
		return budget.Zero
	}
	return m
}
