package send

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeafter619/mail-gateway/internal/config"
	"github.com/lifeafter619/mail-gateway/internal/domain"
	"github.com/lifeafter619/mail-gateway/internal/mailchannels"
	"github.com/lifeafter619/mail-gateway/internal/service/account"
)

type mockAccounts struct {
	mu       sync.Mutex
	accounts map[string]*domain.SenderAccount
	debitErr error
	getErr   error
	debits   int
}

func newMockAccounts() *mockAccounts {
	return &mockAccounts{accounts: make(map[string]*domain.SenderAccount)}
}

func (m *mockAccounts) add(address string, balance int, enabled bool) {
	m.accounts[address] = &domain.SenderAccount{Address: address, Balance: balance, Enabled: enabled}
}

func (m *mockAccounts) Get(_ context.Context, address string) (*domain.SenderAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.accounts[address]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccounts) DecrementBalance(_ context.Context, address string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debits++
	if m.debitErr != nil {
		return false, m.debitErr
	}
	a, ok := m.accounts[address]
	if !ok || a.Balance <= 0 {
		return false, nil
	}
	a.Balance--
	return true, nil
}

type mockBlocklist struct {
	list []string
	err  error
}

func (m *mockBlocklist) Substrings(context.Context) ([]string, error) {
	return m.list, m.err
}

type mockProvider struct {
	sent []*mailchannels.Message
	err  error
}

func (m *mockProvider) Send(_ context.Context, msg *mailchannels.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockAuditor struct {
	records map[string][]json.RawMessage
	err     error
}

func newMockAuditor() *mockAuditor {
	return &mockAuditor{records: make(map[string][]json.RawMessage)}
}

func (m *mockAuditor) Append(_ context.Context, address string, raw json.RawMessage) error {
	if m.err != nil {
		return m.err
	}
	m.records[address] = append(m.records[address], raw)
	return nil
}

type fixture struct {
	accounts  *mockAccounts
	blocklist *mockBlocklist
	provider  *mockProvider
	audit     *mockAuditor
	svc       *Service
}

func newFixture(dkim config.DKIMConfig) *fixture {
	f := &fixture{
		accounts:  newMockAccounts(),
		blocklist: &mockBlocklist{},
		provider:  &mockProvider{},
		audit:     newMockAuditor(),
	}
	f.svc = NewService(f.accounts, f.blocklist, f.provider, f.audit, dkim)
	return f
}

func validRequest() *Request {
	return &Request{ToMail: "b@y.com", Subject: "hi", Content: "hello"}
}

func TestSendSuccess(t *testing.T) {
	f := newFixture(config.DKIMConfig{})
	f.accounts.add("a@x.com", 1, true)

	err := f.svc.Send(context.Background(), "a@x.com", validRequest(), "203.0.113.9")
	require.NoError(t, err)

	require.Len(t, f.provider.sent, 1)
	msg := f.provider.sent[0]
	assert.Equal(t, "a@x.com", msg.From.Email)
	assert.Equal(t, "a@x.com", msg.From.Name, "from_name defaults to the address")
	assert.Equal(t, "b@y.com", msg.Personalizations[0].To[0].Email)
	assert.Equal(t, "b@y.com", msg.Personalizations[0].To[0].Name, "to_name defaults to to_mail")
	assert.Equal(t, "text/plain", msg.Content[0].Type)

	got, err := f.accounts.Get(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Balance)

	require.Len(t, f.audit.records["a@x.com"], 1)
	var payload struct {
		ID       string                `json:"id"`
		Message  *mailchannels.Message `json:"message"`
		SourceIP string                `json:"source_ip"`
	}
	require.NoError(t, json.Unmarshal(f.audit.records["a@x.com"][0], &payload))
	assert.NotEmpty(t, payload.ID)
	assert.Equal(t, "203.0.113.9", payload.SourceIP)
	assert.Equal(t, "hi", payload.Message.Subject)
}

func TestSendSecondExhaustsBalance(t *testing.T) {
	f := newFixture(config.DKIMConfig{})
	f.accounts.add("a@x.com", 1, true)
	ctx := context.Background()

	require.NoError(t, f.svc.Send(ctx, "a@x.com", validRequest(), ""))

	err := f.svc.Send(ctx, "a@x.com", validRequest(), "")
	assert.ErrorIs(t, err, ErrNoBalance)
	assert.Len(t, f.provider.sent, 1, "second send must not reach dispatch")
}

func TestSendPermissionFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mockAccounts)
	}{
		{"no account", func(m *mockAccounts) {}},
		{"disabled", func(m *mockAccounts) { m.add("a@x.com", 5, false) }},
		{"zero balance", func(m *mockAccounts) { m.add("a@x.com", 0, true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(config.DKIMConfig{})
			tt.setup(f.accounts)

			err := f.svc.Send(context.Background(), "a@x.com", validRequest(), "")
			assert.ErrorIs(t, err, ErrNoBalance)
			assert.Empty(t, f.provider.sent)
			assert.Empty(t, f.audit.records)
		})
	}
}

func TestSendAccountStoreFailure(t *testing.T) {
	f := newFixture(config.DKIMConfig{})
	f.accounts.getErr = errors.New("store down")

	err := f.svc.Send(context.Background(), "a@x.com", validRequest(), "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoBalance, "store failure is not a balance rejection")
	assert.Empty(t, f.provider.sent)
}

func TestSendFieldValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{"missing to_mail", func(r *Request) { r.ToMail = "" }, ErrInvalidToMail},
		{"missing subject", func(r *Request) { r.Subject = "" }, ErrInvalidSubject},
		{"missing content", func(r *Request) { r.Content = "" }, ErrInvalidContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(config.DKIMConfig{})
			f.accounts.add("a@x.com", 5, true)

			req := validRequest()
			tt.mutate(req)

			err := f.svc.Send(context.Background(), "a@x.com", req, "")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.provider.sent)
		})
	}
}

func TestSendExplicitNames(t *testing.T) {
	f := newFixture(config.DKIMConfig{})
	f.accounts.add("a@x.com", 5, true)

	req := validRequest()
	req.FromName = "Alice"
	req.ToName = "Bob"
	req.IsHTML = true
	req.Content = "<p>hello</p>"

	require.NoError(t, f.svc.Send(context.Background(), "a@x.com", req, ""))

	msg := f.provider.sent[0]
	assert.Equal(t, "Alice", msg.From.Name)
	assert.Equal(t, "Bob", msg.Personalizations[0].To[0].Name)
	assert.Equal(t, "text/html", msg.Content[0].Type)
}

func TestSendBlockedRecipient(t *testing.T) {
	f := newFixture(config.DKIMConfig{})
	f.accounts.add("a@x.com", 5, true)
	f.blocklist.list = []string{"spam.example", "Bad"}

	for _, to := range []string{"user@spam.example", "bad@y.com", "BAD@Y.COM"} {
		req := validRequest()
		req.ToMail = to

		err := f.svc.Send(context.Background(), "a@x.com", req, "")
		assert.ErrorIs(t, err, ErrBlocked, "to=%s", to)
	}

	assert.Empty(t, f.provider.sent)
	assert.Empty(t, f.audit.records)
	got, _ := f.accounts.Get(context.Background(), "a@x.com")
	assert.Equal(t, 5, got.Balance, "blocked sends leave the balance untouched")
}

func TestSendBlocklistFailureIsNotFatal(t *testing.T) {
	f := newFixture(config.DKIMConfig{})
	f.accounts.add("a@x.com", 5, true)
	f.blocklist.err = errors.New("settings store down")

	err := f.svc.Send(context.Background(), "a@x.com", validRequest(), "")
	require.NoError(t, err)
	assert.Len(t, f.provider.sent, 1)
}

func TestSendProviderFailure(t *testing.T) {
	f := newFixture(config.DKIMConfig{})
	f.accounts.add("a@x.com", 5, true)
	f.provider.err = errors.New("provider error (status 500): boom")

	err := f.svc.Send(context.Background(), "a@x.com", validRequest(), "")
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	got, _ := f.accounts.Get(context.Background(), "a@x.com")
	assert.Equal(t, 5, got.Balance, "failed dispatch must not debit")
	assert.Empty(t, f.audit.records, "failed dispatch must not audit")
}

func TestSendDebitFailureStillSucceeds(t *testing.T) {
	f := newFixture(config.DKIMConfig{})
	f.accounts.add("a@x.com", 5, true)
	f.accounts.debitErr = errors.New("store down")

	err := f.svc.Send(context.Background(), "a@x.com", validRequest(), "")
	require.NoError(t, err, "the mail went out; a billing miss is not the caller's problem")
	assert.Equal(t, 1, f.accounts.debits, "exactly one debit attempt")
	assert.Len(t, f.audit.records["a@x.com"], 1)
}

func TestSendAuditFailureStillSucceeds(t *testing.T) {
	f := newFixture(config.DKIMConfig{})
	f.accounts.add("a@x.com", 5, true)
	f.audit.err = errors.New("store down")

	err := f.svc.Send(context.Background(), "a@x.com", validRequest(), "")
	require.NoError(t, err)
	assert.Len(t, f.provider.sent, 1)
}

func TestSendDKIMAttached(t *testing.T) {
	f := newFixture(config.DKIMConfig{PrivateKey: "secret-key", Selector: "mc"})
	f.accounts.add("a@x.com", 5, true)

	require.NoError(t, f.svc.Send(context.Background(), "a@x.com", validRequest(), ""))

	p := f.provider.sent[0].Personalizations[0]
	assert.Equal(t, "x.com", p.DKIMDomain)
	assert.Equal(t, "mc", p.DKIMSelector)
	assert.Equal(t, "secret-key", p.DKIMPrivateKey)
}

func TestSendDKIMRedactedInAudit(t *testing.T) {
	f := newFixture(config.DKIMConfig{PrivateKey: "secret-key", Selector: "mc"})
	f.accounts.add("a@x.com", 5, true)

	require.NoError(t, f.svc.Send(context.Background(), "a@x.com", validRequest(), ""))

	raw := string(f.audit.records["a@x.com"][0])
	assert.NotContains(t, raw, "secret-key")
	assert.Contains(t, raw, `"dkim_domain":"x.com"`)
}

func TestSendDKIMOmittedWhenPartial(t *testing.T) {
	tests := []struct {
		name    string
		dkim    config.DKIMConfig
		address string
	}{
		{"no key", config.DKIMConfig{Selector: "mc"}, "a@x.com"},
		{"no selector", config.DKIMConfig{PrivateKey: "secret-key"}, "a@x.com"},
		{"no domain in address", config.DKIMConfig{PrivateKey: "secret-key", Selector: "mc"}, "not-an-email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.dkim)
			f.accounts.add(tt.address, 5, true)

			require.NoError(t, f.svc.Send(context.Background(), tt.address, validRequest(), ""))

			p := f.provider.sent[0].Personalizations[0]
			assert.Empty(t, p.DKIMDomain)
			assert.Empty(t, p.DKIMSelector)
			assert.Empty(t, p.DKIMPrivateKey)
		})
	}
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "x.com", senderDomain("a@x.com"))
	assert.Equal(t, "", senderDomain("no-at-sign"))
	assert.Equal(t, "", senderDomain("trailing@"))
	assert.Equal(t, "x.com", senderDomain("odd@name@x.com"))
}
