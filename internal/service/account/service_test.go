package account

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeafter619/mail-gateway/internal/domain"
)

// mockRepo is an in-memory repository for testing.
type mockRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.SenderAccount
}

func newMockRepo() *mockRepo {
	return &mockRepo{accounts: make(map[string]*domain.SenderAccount)}
}

func (m *mockRepo) Create(_ context.Context, a *domain.SenderAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[a.Address]; exists {
		return ErrAlreadyEnrolled
	}
	cp := *a
	m.accounts[a.Address] = &cp
	return nil
}

func (m *mockRepo) Get(_ context.Context, address string) (*domain.SenderAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[address]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) DecrementBalance(_ context.Context, address string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[address]
	if !ok || a.Balance <= 0 {
		return false, nil
	}
	a.Balance--
	return true, nil
}

func TestEnroll(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, 5)
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "a@x.com"))

	got, err := svc.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Balance)
	assert.True(t, got.Enabled)
}

func TestEnrollZeroBalanceDisabled(t *testing.T) {
	svc := NewService(newMockRepo(), 0)
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "a@x.com"))

	got, err := svc.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Balance)
	assert.False(t, got.Enabled)
	assert.False(t, got.CanSend())
}

func TestEnrollDuplicate(t *testing.T) {
	svc := NewService(newMockRepo(), 5)
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "a@x.com"))

	err := svc.Enroll(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	// Balance is not overwritten by the failed enrollment.
	got, err := svc.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Balance)
}

func TestEnrollEmptyAddress(t *testing.T) {
	svc := NewService(newMockRepo(), 5)

	assert.ErrorIs(t, svc.Enroll(context.Background(), ""), ErrNoAddress)
	assert.ErrorIs(t, svc.Enroll(context.Background(), "   "), ErrNoAddress)
}

func TestGetUnknownAddress(t *testing.T) {
	svc := NewService(newMockRepo(), 5)

	_, err := svc.Get(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
