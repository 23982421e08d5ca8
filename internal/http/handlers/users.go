package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/eventsapp/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UsersManager interface {
	Create(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Get(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	svc UsersManager
}

func NewUsersHandler(svc UsersManager) *UsersHandler {
	return &UsersHandler{svc: svc}
}

func (h *UsersHandler) Create(ctx *gin.Context) {
	var req user.CreateUserRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	u, err := h.svc.Create(cctx, req)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, u)
}

func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := requestCtx(ctx)
	defer cancel()

	users, err := h.svc.List(cctx)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondList(ctx, users, len(users))
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	u, err := h.svc.Get(cctx, id)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, u)
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req user.UpdateUserRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if req.Empty() {
		RespondBadRequest(ctx, "must supply at least one field", nil)
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	u, err := h.svc.Update(cctx, id, req)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, u)
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	if err := h.svc.Delete(cctx, id); err != nil {
		Fail(ctx, err)
		return
	}

	RespondDeleted(ctx, id)
}
