// Package api exposes the wallet over HTTP. The caller Identity always comes
// from a verified bearer token, never from the request body.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/transfer"
)

// Engine is the part of *wallet.Wallet the handlers call.
type Engine interface {
	Register(ctx context.Context, caller account.Identity, username string) (account.Account, bool, error)
	GetSelf(ctx context.Context, caller account.Identity) account.Account
	GetBalance(ctx context.Context, caller account.Identity) uint64
	LookupUsername(ctx context.Context, username string) (account.Identity, account.Account, bool)
	Transfer(ctx context.Context, caller, to account.Identity, amount uint64) (*transfer.Receipt, error)
	TotalSupply(ctx context.Context) uint64
	Stats(ctx context.Context) wallet.Stats
}

var _ Engine = (*wallet.Wallet)(nil)

// Handler serves the wallet endpoints.
type Handler struct {
	engine   Engine
	resolver IdentityResolver
	logger   *slog.Logger
	timeout  time.Duration
}

// New creates a Handler.
func New(engine Engine, resolver IdentityResolver, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:   engine,
		resolver: resolver,
		logger:   logger,
		timeout:  30 * time.Second,
	}
}

// Register mounts the wallet routes on r.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(h.timeout))

	router.Get("/supply", h.handleSupply)
	router.Get("/stats", h.handleStats)

	router.Group(func(authed chi.Router) {
		authed.Use(RequireAuth(h.resolver, h.logger))
		authed.Post("/accounts", h.handleRegister)
		authed.Get("/me", h.handleGetSelf)
		authed.Get("/balance", h.handleGetBalance)
		authed.Post("/transfers", h.handleTransfer)
	})

	r.Mount("/", router)
}

type registerRequest struct {
	Username string `json:"username"`
}

type transferRequest struct {
	To         account.Identity `json:"to,omitempty"`
	ToUsername string           `json:"to_username,omitempty"`
	Amount     uint64           `json:"amount"`
}

type balanceResponse struct {
	Balance uint64 `json:"balance"`
}

type supplyResponse struct {
	TotalSupply uint64 `json:"total_supply"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := IdentityFrom(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid register request",
			"request_id", RequestIDFrom(ctx),
			"error", err,
		)
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	acct, created, err := h.engine.Register(ctx, caller, req.Username)
	if err != nil {
		h.logFailure(ctx, "register account", err)
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, acct)
}

func (h *Handler) handleGetSelf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, h.engine.GetSelf(ctx, IdentityFrom(ctx)))
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, balanceResponse{Balance: h.engine.GetBalance(ctx, IdentityFrom(ctx))})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := IdentityFrom(ctx)

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid transfer request",
			"request_id", RequestIDFrom(ctx),
			"error", err,
		)
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	to := req.To
	switch {
	case to.IsZero() && req.ToUsername == "":
		writeProblem(w, http.StatusBadRequest, "bad_request", "one of to or to_username is required")
		return
	case !to.IsZero() && req.ToUsername != "":
		writeProblem(w, http.StatusBadRequest, "bad_request", "to and to_username are mutually exclusive")
		return
	case req.ToUsername != "":
		owner, _, ok := h.engine.LookupUsername(ctx, req.ToUsername)
		if !ok {
			writeProblem(w, http.StatusNotFound, "unknown_username", "no account named "+req.ToUsername)
			return
		}
		to = owner
	}

	receipt, err := h.engine.Transfer(ctx, caller, to, req.Amount)
	if err != nil {
		h.logFailure(ctx, "transfer", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) handleSupply(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, supplyResponse{TotalSupply: h.engine.TotalSupply(r.Context())})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats(r.Context()))
}

func (h *Handler) logFailure(ctx context.Context, op string, err error) {
	if wallet.IsClientError(err) || wallet.IsRetryable(err) {
		h.logger.InfoContext(ctx, op+" refused",
			"request_id", RequestIDFrom(ctx),
			"error", err,
		)
		return
	}
	h.logger.ErrorContext(ctx, op+" failed",
		"request_id", RequestIDFrom(ctx),
		"error", err,
	)
}
