/*
store.go - Persistence interface for budget records

PURPOSE:
  Defines what the application state layer needs from storage. The engine
  itself never touches a Store; LoadState gathers its inputs once and the
  pure functions take it from there.

WHOLE-RECORD WRITES:
  Records are saved by replacing them. Fund sources and allocations are
  replaced as complete sets so the stored total always equals the sum of
  the stored sources, and an allocation run is never half-applied.

REFERENTIAL INTEGRITY:
  DeleteAccount fails with ErrAccountInUse while outgoings reference the
  account, and SaveOutgoing fails with ErrAccountNotFound for unknown
  accounts. The engine relies on this and never sees a dangling account.

IMPLEMENTATIONS:
  - budget/store/memory.go: in-memory, for tests and demos
  - store/sqlite/sqlite.go: SQLite
*/
package budget

import "context"

// AccountStore persists accounts. ListAccounts returns insertion order,
// which is also allocation order.
type AccountStore interface {
	SaveAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id AccountID) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	DeleteAccount(ctx context.Context, id AccountID) error
}

// OutgoingStore persists outgoings.
type OutgoingStore interface {
	SaveOutgoing(ctx context.Context, o Outgoing) error
	GetOutgoing(ctx context.Context, id OutgoingID) (Outgoing, error)
	ListOutgoings(ctx context.Context) ([]Outgoing, error)
	DeleteOutgoing(ctx context.Context, id OutgoingID) error
}

// FundSourceStore persists the fund ledger as a whole.
type FundSourceStore interface {
	ListFundSources(ctx context.Context) ([]FundSource, error)
	ReplaceFundSources(ctx context.Context, sources []FundSource) error
}

// AllocationStore persists the latest allocation run.
type AllocationStore interface {
	ListAllocations(ctx context.Context) ([]Allocation, error)
	ReplaceAllocations(ctx context.Context, allocations []Allocation) error
}

// SettingsStore persists the pay cycle and currency code. Both return
// defaults when nothing has been saved.
type SettingsStore interface {
	GetPayCycle(ctx context.Context) (PayCycle, error)
	SavePayCycle(ctx context.Context, c PayCycle) error
	GetCurrency(ctx context.Context) (string, error)
	SaveCurrency(ctx context.Context, code string) error
}

// Store is everything the application state layer persists.
type Store interface {
	AccountStore
	OutgoingStore
	FundSourceStore
	AllocationStore
	SettingsStore

	// Reset deletes every record.
	Reset(ctx context.Context) error
}

// DefaultCurrency is returned when no currency has been saved.
const DefaultCurrency = "USD"
