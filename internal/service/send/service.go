package send

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/lifeafter619/mail-gateway/internal/config"
	"github.com/lifeafter619/mail-gateway/internal/domain"
	"github.com/lifeafter619/mail-gateway/internal/mailchannels"
	"github.com/lifeafter619/mail-gateway/internal/service/account"
)

// AccountStore is the slice of the account repository the pipeline
// needs: the permission lookup and the post-dispatch debit.
type AccountStore interface {
	Get(ctx context.Context, address string) (*domain.SenderAccount, error)
	DecrementBalance(ctx context.Context, address string) (bool, error)
}

// Blocklist supplies the current recipient block list. Implementations
// may cache with a short TTL; the pipeline fetches on every send.
type Blocklist interface {
	Substrings(ctx context.Context) ([]string, error)
}

// Provider dispatches an assembled message to the delivery service.
type Provider interface {
	Send(ctx context.Context, msg *mailchannels.Message) error
}

// Auditor appends one redacted send record for an address.
type Auditor interface {
	Append(ctx context.Context, address string, raw json.RawMessage) error
}

// Request is one send request body.
type Request struct {
	FromName string `json:"from_name"`
	ToMail   string `json:"to_mail"`
	ToName   string `json:"to_name"`
	Subject  string `json:"subject"`
	Content  string `json:"content"`
	IsHTML   bool   `json:"is_html"`
}

// Service orchestrates the send pipeline for one request at a time. It
// holds no mutable state; all shared state lives in the stores.
type Service struct {
	accounts  AccountStore
	blocklist Blocklist
	provider  Provider
	audit     Auditor
	dkim      config.DKIMConfig
}

// NewService wires the pipeline's collaborators.
func NewService(accounts AccountStore, blocklist Blocklist, provider Provider, audit Auditor, dkim config.DKIMConfig) *Service {
	return &Service{
		accounts:  accounts,
		blocklist: blocklist,
		provider:  provider,
		audit:     audit,
		dkim:      dkim,
	}
}

// auditPayload is what gets persisted per send attempt: the redacted
// message plus delivery metadata and the requester's network origin.
type auditPayload struct {
	ID       string                `json:"id"`
	Message  *mailchannels.Message `json:"message"`
	SourceIP string                `json:"source_ip,omitempty"`
}

// Send runs the full pipeline for one request. sourceIP is best-effort
// requester origin recorded in the audit log only.
func (s *Service) Send(ctx context.Context, address string, req *Request, sourceIP string) error {
	// Permission gate. Any failure shape (no account, disabled,
	// exhausted) collapses to ErrNoBalance.
	acct, err := s.accounts.Get(ctx, address)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrNoBalance
		}
		return err
	}
	if !acct.CanSend() {
		return ErrNoBalance
	}

	if address == "" {
		return ErrNoAddress
	}
	if req.ToMail == "" {
		return ErrInvalidToMail
	}
	if req.Subject == "" {
		return ErrInvalidSubject
	}
	if req.Content == "" {
		return ErrInvalidContent
	}

	if err := s.checkBlocklist(ctx, req.ToMail); err != nil {
		return err
	}

	msg := s.assemble(address, req)

	if err := s.provider.Send(ctx, msg); err != nil {
		log.Printf("send: dispatch for %s failed: %v", address, err)
		return ErrDeliveryFailed
	}

	// Past the point of no return: the provider has the message, so the
	// debit and the audit write are best-effort.
	debited, err := s.accounts.DecrementBalance(ctx, address)
	if err != nil {
		log.Printf("send: balance debit for %s failed: %v", address, err)
	} else if !debited {
		log.Printf("send: balance for %s already exhausted at debit time", address)
	}

	s.writeAudit(ctx, address, msg, sourceIP)
	return nil
}

func (s *Service) checkBlocklist(ctx context.Context, toMail string) error {
	list, err := s.blocklist.Substrings(ctx)
	if err != nil {
		// A broken block-list source must not take sending down.
		log.Printf("send: block list fetch failed: %v", err)
		return nil
	}
	lowered := strings.ToLower(toMail)
	for _, blocked := range list {
		if blocked != "" && strings.Contains(lowered, strings.ToLower(blocked)) {
			return ErrBlocked
		}
	}
	return nil
}

// assemble builds the provider envelope. DKIM signing instructions are
// attached only when the key, the selector and a sender domain are all
// available; partial signing material is omitted entirely.
func (s *Service) assemble(address string, req *Request) *mailchannels.Message {
	fromName := req.FromName
	if fromName == "" {
		fromName = address
	}
	toName := req.ToName
	if toName == "" {
		toName = req.ToMail
	}
	contentType := "text/plain"
	if req.IsHTML {
		contentType = "text/html"
	}

	p := mailchannels.Personalization{
		To: []mailchannels.Address{{Email: req.ToMail, Name: toName}},
	}
	domainPart := senderDomain(address)
	if s.dkim.PrivateKey != "" && s.dkim.Selector != "" && domainPart != "" {
		p.DKIMDomain = domainPart
		p.DKIMSelector = s.dkim.Selector
		p.DKIMPrivateKey = s.dkim.PrivateKey
	}

	return &mailchannels.Message{
		Personalizations: []mailchannels.Personalization{p},
		From:             mailchannels.Address{Email: address, Name: fromName},
		Subject:          req.Subject,
		Content:          []mailchannels.Content{{Type: contentType, Value: req.Content}},
	}
}

func (s *Service) writeAudit(ctx context.Context, address string, msg *mailchannels.Message, sourceIP string) {
	raw, err := json.Marshal(auditPayload{
		ID:       uuid.New().String(),
		Message:  msg.Redacted(),
		SourceIP: sourceIP,
	})
	if err != nil {
		log.Printf("send: encoding audit record for %s failed: %v", address, err)
		return
	}
	if err := s.audit.Append(ctx, address, raw); err != nil {
		log.Printf("send: audit write for %s failed: %v", address, err)
	}
}

func senderDomain(address string) string {
	if at := strings.LastIndexByte(address, '@'); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}
	return ""
}
