package service

import (
	"context"
	"sync"

	"bizledger/internal/finance"
	"bizledger/internal/model"
	"bizledger/internal/moneybird"
	"bizledger/internal/repository"

	"github.com/google/uuid"
)

type fakeTx struct {
	calls int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeConnections struct {
	mu        sync.Mutex
	byUser    map[uuid.UUID]*model.MoneybirdConnection
	getErr    error
	upsertErr error
}

func newFakeConnections(conns ...*model.MoneybirdConnection) *fakeConnections {
	f := &fakeConnections{byUser: map[uuid.UUID]*model.MoneybirdConnection{}}
	for _, c := range conns {
		f.byUser[c.UserID] = c
	}
	return f
}

func (f *fakeConnections) GetByUserID(_ context.Context, userID uuid.UUID) (*model.MoneybirdConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConnections) Upsert(_ context.Context, conn *model.MoneybirdConnection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp := *conn
	f.byUser[conn.UserID] = &cp
	return nil
}

func (f *fakeConnections) DeleteByUserID(_ context.Context, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byUser[userID]; !ok {
		return false, nil
	}
	delete(f.byUser, userID)
	return true, nil
}

type fakeAudit struct {
	entries []model.AuditLog
	err     error
}

func (f *fakeAudit) Log(_ context.Context, entry *model.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) ListByUser(_ context.Context, userID uuid.UUID, offset, limit int) ([]model.AuditLog, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var mine []model.AuditLog
	for _, e := range f.entries {
		if e.UserID != nil && *e.UserID == userID {
			mine = append(mine, e)
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return []model.AuditLog{}, total, nil
	}
	end := min(offset+limit, len(mine))
	return mine[offset:end], total, nil
}

type fakeUsers struct {
	byEmail map[string]*model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	f.byEmail[user.Email] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// fakeSource returns canned collector results; safe for concurrent use
type fakeSource struct {
	mu        sync.Mutex
	sales     moneybird.CollectResult
	purchases moneybird.CollectResult
	receipts  moneybird.CollectResult
	admins    []moneybird.Administration
	adminsErr error
	creds     []moneybird.Credential
	tokens    []string
}

func (f *fakeSource) record(cred moneybird.Credential) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, cred)
}

func (f *fakeSource) CollectSalesInvoices(_ context.Context, cred moneybird.Credential, _ finance.DateRange) moneybird.CollectResult {
	f.record(cred)
	return f.sales
}

func (f *fakeSource) CollectPurchaseInvoices(_ context.Context, cred moneybird.Credential, _ finance.DateRange) moneybird.CollectResult {
	f.record(cred)
	return f.purchases
}

func (f *fakeSource) CollectReceipts(_ context.Context, cred moneybird.Credential, _ finance.DateRange) moneybird.CollectResult {
	f.record(cred)
	return f.receipts
}

func (f *fakeSource) ListAdministrations(_ context.Context, accessToken string) ([]moneybird.Administration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, accessToken)
	return f.admins, f.adminsErr
}

func (f *fakeSource) collectorCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creds)
}

type publishedEvent struct {
	UserID  string
	Type    string
	Payload any
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) Publish(userID string, eventType string, payload any) {
	f.events = append(f.events, publishedEvent{UserID: userID, Type: eventType, Payload: payload})
}
