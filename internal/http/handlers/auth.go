package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/http/middlewares"
	"github.com/geocoder89/eventsapp/internal/service"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (service.RegisterResult, error)
	Login(ctx context.Context, in service.LoginInput) (service.LoginResult, error)
	Profile(id auth.Identity) auth.Identity
}

type AuthHandler struct {
	svc Authenticator
}

func NewAuthHandler(svc Authenticator) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req service.RegisterInput

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	res, err := h.svc.Register(cctx, req)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, res)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req service.LoginInput

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := requestCtx(ctx)
	defer cancel()

	res, err := h.svc.Login(cctx, req)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, res)
}

func (h *AuthHandler) Profile(ctx *gin.Context) {
	id, ok := middlewares.IdentityFrom(ctx)
	if !ok {
		Fail(ctx, apperr.Unauthenticated("Authentication required"))
		return
	}

	RespondOK(ctx, http.StatusOK, h.svc.Profile(id))
}
