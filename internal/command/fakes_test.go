package command

import (
	"context"
	"sync"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/money"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
)

// fakeLedger is an in-memory PostingStore. Each account has its own lock and
// writes staged by fn are applied only when fn returns nil.
type fakeLedger struct {
	mu           sync.Mutex
	locks        map[string]*sync.Mutex
	accounts     map[string]*models.Account
	transactions map[string][]models.Transaction

	insertErr error
	updateErr error
}

func newFakeLedger(accounts ...*models.Account) *fakeLedger {
	l := &fakeLedger{
		locks:        make(map[string]*sync.Mutex),
		accounts:     make(map[string]*models.Account),
		transactions: make(map[string][]models.Transaction),
	}
	for _, a := range accounts {
		l.locks[a.AccountNumber] = &sync.Mutex{}
		l.accounts[a.AccountNumber] = a
	}
	return l
}

func (l *fakeLedger) WithLockedAccount(ctx context.Context, accountNumber string, fn func(*models.Account, repository.PostingTx) error) error {
	l.mu.Lock()
	lock, ok := l.locks[accountNumber]
	l.mu.Unlock()
	if !ok {
		return repository.ErrAccountNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	l.mu.Lock()
	snapshot := *l.accounts[accountNumber]
	l.mu.Unlock()

	staged := &fakePostingTx{ledger: l}
	if err := fn(&snapshot, staged); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range staged.inserted {
		l.transactions[accountNumber] = append(l.transactions[accountNumber], *t)
	}
	if staged.balance != nil {
		l.accounts[accountNumber].Balance = *staged.balance
		l.accounts[accountNumber].UpdatedAt = staged.updatedAt
	}
	return nil
}

func (l *fakeLedger) balance(accountNumber string) money.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[accountNumber].Balance
}

func (l *fakeLedger) ledger(accountNumber string) []models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Transaction(nil), l.transactions[accountNumber]...)
}

type fakePostingTx struct {
	ledger    *fakeLedger
	inserted  []*models.Transaction
	balance   *money.Amount
	updatedAt time.Time
}

func (t *fakePostingTx) InsertTransaction(_ context.Context, transaction *models.Transaction) error {
	if t.ledger.insertErr != nil {
		return t.ledger.insertErr
	}
	t.inserted = append(t.inserted, transaction)
	return nil
}

func (t *fakePostingTx) UpdateBalance(_ context.Context, _ string, balance money.Amount, updatedAt time.Time) error {
	if t.ledger.updateErr != nil {
		return t.ledger.updateErr
	}
	t.balance = &balance
	t.updatedAt = updatedAt
	return nil
}

type publishedEvent struct {
	Stream string
	Type   string
	Data   any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, stream, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{Stream: stream, Type: eventType, Data: data})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeViewCache struct {
	mu           sync.Mutex
	transactions map[string]*models.TransactionView
	accounts     map[string]*models.AccountView
	invalidated  []string
}

func newFakeViewCache() *fakeViewCache {
	return &fakeViewCache{
		transactions: make(map[string]*models.TransactionView),
		accounts:     make(map[string]*models.AccountView),
	}
}

func (c *fakeViewCache) CacheTransactionView(_ context.Context, view *models.TransactionView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions[view.ID] = view
}

func (c *fakeViewCache) CacheAccountView(_ context.Context, view *models.AccountView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[view.AccountNumber] = view
}

func (c *fakeViewCache) InvalidateAccountView(_ context.Context, accountNumber string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.accounts, accountNumber)
	c.invalidated = append(c.invalidated, accountNumber)
}

func testAccount(accountNumber, userID string, balance string) *models.Account {
	return &models.Account{
		AccountNumber: accountNumber,
		UserID:        userID,
		SortCode:      models.SortCode,
		Name:          "Main",
		AccountType:   models.AccountTypePersonal,
		Balance:       money.MustParse(balance),
		Currency:      models.CurrencyGBP,
	}
}
