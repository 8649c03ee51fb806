package api

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/lifeafter619/mail-gateway/internal/auth"
	"github.com/lifeafter619/mail-gateway/internal/domain"
	"github.com/lifeafter619/mail-gateway/internal/service/account"
	"github.com/lifeafter619/mail-gateway/internal/service/send"
	"github.com/lifeafter619/mail-gateway/internal/service/sendbox"
	"github.com/lifeafter619/mail-gateway/internal/token"
)

// Handlers provides the HTTP handlers for the gateway API.
type Handlers struct {
	accounts *account.Service
	send     *send.Service
	sendbox  *sendbox.Service
	tokens   *token.Service
}

// NewHandlers creates the gateway handlers.
func NewHandlers(accounts *account.Service, sendSvc *send.Service, sendboxSvc *sendbox.Service, tokens *token.Service) *Handlers {
	return &Handlers{
		accounts: accounts,
		send:     sendSvc,
		sendbox:  sendboxSvc,
		tokens:   tokens,
	}
}

// Response helpers. Rejections are plain-text bodies with fixed
// messages (the wire contract SMTP and UI clients match on); successes
// are JSON.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(message))
}

// clientIP is the best-effort requester origin for audit records. With
// the RealIP middleware in front, RemoteAddr already holds the
// proxy-reported address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRequestAccess enrolls the session address for sending.
func (h *Handlers) HandleRequestAccess(w http.ResponseWriter, r *http.Request) {
	err := h.accounts.Enroll(r.Context(), auth.AddressFromContext(r.Context()))
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, account.ErrNoAddress):
		respondText(w, http.StatusBadRequest, "No address")
	case errors.Is(err, account.ErrAlreadyEnrolled):
		respondText(w, http.StatusBadRequest, "Already requested")
	default:
		log.Printf("api: enroll failed: %v", err)
		respondText(w, http.StatusInternalServerError, "Failed to request send access")
	}
}

// HandleSendMail runs the send pipeline for the session address.
func (h *Handlers) HandleSendMail(w http.ResponseWriter, r *http.Request) {
	var req send.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondText(w, http.StatusBadRequest, "Invalid request")
		return
	}

	address := auth.AddressFromContext(r.Context())
	if err := h.send.Send(r.Context(), address, &req, clientIP(r)); err != nil {
		h.respondSendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// externalSendRequest is the bearer-send body: a signed token plus the
// regular send fields.
type externalSendRequest struct {
	Token string `json:"token"`
	send.Request
}

// HandleExternalSendMail authenticates through the token in the body
// and runs the same pipeline as the session send.
func (h *Handlers) HandleExternalSendMail(w http.ResponseWriter, r *http.Request) {
	var req externalSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondText(w, http.StatusBadRequest, "Invalid request")
		return
	}

	address, err := h.tokens.Verify(req.Token)
	if err != nil {
		respondText(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.send.Send(r.Context(), address, &req.Request, clientIP(r)); err != nil {
		h.respondSendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondSendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, send.ErrNoBalance):
		respondText(w, http.StatusBadRequest, "No balance")
	case errors.Is(err, send.ErrNoAddress):
		respondText(w, http.StatusBadRequest, "No address")
	case errors.Is(err, send.ErrInvalidToMail):
		respondText(w, http.StatusBadRequest, "Invalid to mail")
	case errors.Is(err, send.ErrBlocked):
		respondText(w, http.StatusBadRequest, "to_mail address is blocked")
	case errors.Is(err, send.ErrInvalidSubject):
		respondText(w, http.StatusBadRequest, "Invalid subject")
	case errors.Is(err, send.ErrInvalidContent):
		respondText(w, http.StatusBadRequest, "Invalid content")
	default:
		log.Printf("api: send failed: %v", err)
		respondText(w, http.StatusInternalServerError, "Failed to send mail")
	}
}

// HandleSendbox pages through the session address's send history.
func (h *Handlers) HandleSendbox(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		respondText(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		respondText(w, http.StatusBadRequest, "Invalid offset")
		return
	}

	address := auth.AddressFromContext(r.Context())
	results, count, err := h.sendbox.List(r.Context(), address, limit, offset)
	switch {
	case err == nil:
	case errors.Is(err, sendbox.ErrNoAddress):
		respondText(w, http.StatusBadRequest, "No address")
		return
	case errors.Is(err, sendbox.ErrInvalidLimit):
		respondText(w, http.StatusBadRequest, "Invalid limit")
		return
	case errors.Is(err, sendbox.ErrInvalidOffset):
		respondText(w, http.StatusBadRequest, "Invalid offset")
		return
	default:
		log.Printf("api: sendbox list failed: %v", err)
		respondText(w, http.StatusInternalServerError, "Failed to list sendbox")
		return
	}

	if results == nil {
		results = []domain.SendboxEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   count,
	})
}
