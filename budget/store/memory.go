// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	accountOrder []budget.AccountID
	accounts     map[budget.AccountID]budget.Account

	outgoingOrder []budget.OutgoingID
	outgoings     map[budget.OutgoingID]budget.Outgoing

	fundSources []budget.FundSource
	allocations []budget.Allocation

	payCycle *budget.PayCycle
	currency string
}

var _ budget.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[budget.AccountID]budget.Account),
		outgoings: make(map[budget.OutgoingID]budget.Outgoing),
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) SaveAccount(_ context.Context, a budget.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[a.ID]; !exists {
		m.accountOrder = append(m.accountOrder, a.ID)
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id budget.AccountID) (budget.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return budget.Account{}, fmt.Errorf("%w: %s", budget.ErrAccountNotFound, id)
	}
	return a, nil
}

// ListAccounts returns accounts in insertion order.
func (m *Memory) ListAccounts(_ context.Context) ([]budget.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]budget.Account, 0, len(m.accountOrder))
	for _, id := range m.accountOrder {
		result = append(result, m.accounts[id])
	}
	return result, nil
}

// DeleteAccount refuses while any outgoing references the account.
func (m *Memory) DeleteAccount(_ context.Context, id budget.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return fmt.Errorf("%w: %s", budget.ErrAccountNotFound, id)
	}
	for _, o := range m.outgoings {
		if o.AccountID == id {
			return fmt.Errorf("%w: %s", budget.ErrAccountInUse, id)
		}
	}
	delete(m.accounts, id)
	m.accountOrder = removeID(m.accountOrder, id)
	return nil
}

// =============================================================================
// OUTGOINGS
// =============================================================================

func (m *Memory) SaveOutgoing(_ context.Context, o budget.Outgoing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[o.AccountID]; !ok {
		return fmt.Errorf("%w: %s", budget.ErrAccountNotFound, o.AccountID)
	}
	if _, exists := m.outgoings[o.ID]; !exists {
		m.outgoingOrder = append(m.outgoingOrder, o.ID)
	}
	m.outgoings[o.ID] = cloneOutgoing(o)
	return nil
}

func (m *Memory) GetOutgoing(_ context.Context, id budget.OutgoingID) (budget.Outgoing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.outgoings[id]
	if !ok {
		return budget.Outgoing{}, fmt.Errorf("%w: %s", budget.ErrOutgoingNotFound, id)
	}
	return cloneOutgoing(o), nil
}

func (m *Memory) ListOutgoings(_ context.Context) ([]budget.Outgoing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]budget.Outgoing, 0, len(m.outgoingOrder))
	for _, id := range m.outgoingOrder {
		result = append(result, cloneOutgoing(m.outgoings[id]))
	}
	return result, nil
}

func (m *Memory) DeleteOutgoing(_ context.Context, id budget.OutgoingID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.outgoings[id]; !ok {
		return fmt.Errorf("%w: %s", budget.ErrOutgoingNotFound, id)
	}
	delete(m.outgoings, id)
	m.outgoingOrder = removeID(m.outgoingOrder, id)
	return nil
}

// =============================================================================
// FUND SOURCES AND ALLOCATIONS - replaced as whole sets
// =============================================================================

func (m *Memory) ListFundSources(_ context.Context) ([]budget.FundSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]budget.FundSource, len(m.fundSources))
	copy(result, m.fundSources)
	return result, nil
}

func (m *Memory) ReplaceFundSources(_ context.Context, sources []budget.FundSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fundSources = append([]budget.FundSource{}, sources...)
	return nil
}

func (m *Memory) ListAllocations(_ context.Context) ([]budget.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]budget.Allocation, len(m.allocations))
	copy(result, m.allocations)
	return result, nil
}

func (m *Memory) ReplaceAllocations(_ context.Context, allocations []budget.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocations = append([]budget.Allocation{}, allocations...)
	return nil
}

// cloneOutgoing detaches the payment plan so callers never share it with
// the store.
func cloneOutgoing(o budget.Outgoing) budget.Outgoing {
	if o.PaymentPlan == nil {
		return o
	}
	plan := *o.PaymentPlan
	if plan.InstallmentAmount != nil {
		amount := *plan.InstallmentAmount
		plan.InstallmentAmount = &amount
	}
	o.PaymentPlan = &plan
	return o
}

// =============================================================================
// SETTINGS
// =============================================================================

func clonePayCycle(c budget.PayCycle) budget.PayCycle {
	if c.LastPayDate != nil {
		last := *c.LastPayDate
		c.LastPayDate = &last
	}
	return c
}

func (m *Memory) GetPayCycle(_ context.Context) (budget.PayCycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.payCycle == nil {
		return budget.DefaultPayCycle(), nil
	}
	return clonePayCycle(*m.payCycle), nil
}

func (m *Memory) SavePayCycle(_ context.Context, c budget.PayCycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c = clonePayCycle(c.Normalize())
	m.payCycle = &c
	return nil
}

func (m *Memory) GetCurrency(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.currency == "" {
		return budget.DefaultCurrency, nil
	}
	return m.currency, nil
}

func (m *Memory) SaveCurrency(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currency = strings.ToUpper(strings.TrimSpace(code))
	return nil
}

// Reset drops every record.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accountOrder = nil
	m.accounts = make(map[budget.AccountID]budget.Account)
	m.outgoingOrder = nil
	m.outgoings = make(map[budget.OutgoingID]budget.Outgoing)
	m.fundSources = nil
	m.allocations = nil
	m.payCycle = nil
	m.currency = ""
	return nil
}

func removeID[T comparable](ids []T, id T) []T {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
