// Package smtpproxy exposes the gateway's bearer-send endpoint as an
// SMTP submission service. Clients authenticate with their signed
// gateway token as the password; the proxy performs no verification of
// its own and simply forwards the token with the parsed message.
package smtpproxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/emersion/go-smtp"

	"github.com/lifeafter619/mail-gateway/internal/config"
)

// Backend creates one proxy session per SMTP connection.
type Backend struct {
	gatewayURL string
	client     *http.Client
}

// NewBackend creates a backend forwarding to the given gateway base URL.
func NewBackend(gatewayURL string) *Backend {
	return &Backend{
		gatewayURL: gatewayURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// NewSession implements smtp.Backend.
func (b *Backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{backend: b}, nil
}

// sendRequest is the JSON body posted to the gateway's external send
// endpoint.
type sendRequest struct {
	Token    string `json:"token"`
	FromName string `json:"from_name"`
	ToMail   string `json:"to_mail"`
	ToName   string `json:"to_name"`
	Subject  string `json:"subject"`
	Content  string `json:"content"`
	IsHTML   bool   `json:"is_html"`
}

type session struct {
	backend *Backend

	token string
	from  string
	rcpt  string
}

// AuthPlain accepts any non-empty credential pair. The password is the
// caller's gateway token; whether it is genuine is decided by the
// gateway when the message is forwarded.
func (s *session) AuthPlain(username, password string) error {
	if password == "" {
		return &smtp.SMTPError{
			Code:         535,
			EnhancedCode: smtp.EnhancedCode{5, 7, 8},
			Message:      "Empty token",
		}
	}
	s.token = password
	_ = username
	return nil
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	if s.token == "" {
		return smtp.ErrAuthRequired
	}
	s.from = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	if s.rcpt != "" {
		return &smtp.SMTPError{
			Code:         452,
			EnhancedCode: smtp.EnhancedCode{4, 5, 3},
			Message:      "Only one recipient allowed",
		}
	}
	s.rcpt = to
	return nil
}

// Data parses the submitted message and forwards it through the
// gateway's send pipeline. The gateway's rejection text is surfaced as
// the SMTP error message so clients see why a send was refused.
func (s *session) Data(r io.Reader) error {
	if s.rcpt == "" {
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No recipient",
		}
	}

	msg, err := parseMessage(r)
	if err != nil {
		log.Printf("smtpproxy: parsing message from %s failed: %v", s.from, err)
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Invalid content",
		}
	}

	return s.forward(&sendRequest{
		Token:    s.token,
		FromName: msg.FromName,
		ToMail:   s.rcpt,
		ToName:   msg.ToName(s.rcpt),
		Subject:  msg.Subject,
		Content:  msg.Content,
		IsHTML:   msg.IsHTML,
	})
}

func (s *session) forward(req *sendRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return &smtp.SMTPError{Code: 451, Message: "Internal server error"}
	}

	url := s.backend.gatewayURL + "/external/api/send_mail"
	resp, err := s.backend.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("smtpproxy: forwarding to gateway failed: %v", err)
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 4, 1},
			Message:      "Gateway unreachable",
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("smtpproxy: gateway rejected send code=%d text=%q", resp.StatusCode, text)
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Gateway rejected message: %s", text),
		}
	}
	return nil
}

func (s *session) Reset() {
	s.from = ""
	s.rcpt = ""
}

func (s *session) Logout() error {
	return nil
}

// NewServer builds the SMTP server around the proxy backend.
func NewServer(cfg config.SMTPProxyConfig) *smtp.Server {
	srv := smtp.NewServer(NewBackend(cfg.GatewayURL))
	srv.Addr = cfg.Addr
	srv.Domain = cfg.Domain
	srv.AllowInsecureAuth = true
	srv.MaxRecipients = 1
	srv.MaxMessageBytes = 10 * 1024 * 1024
	srv.ReadTimeout = 60 * time.Second
	srv.WriteTimeout = 60 * time.Second
	return srv
}
