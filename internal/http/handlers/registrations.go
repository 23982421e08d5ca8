package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/domain/registration"
	"github.com/geocoder89/eventsapp/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RegistrationsManager interface {
	Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.Registration, error)
	List(ctx context.Context, caller auth.Identity, f registration.ListFilter) ([]registration.Registration, error)
	Get(ctx context.Context, id string) (registration.Registration, error)
	Update(ctx context.Context, id string, req registration.UpdateRegistrationRequest) (registration.Registration, error)
	Delete(ctx context.Context, id string) error
}

type RegistrationHandler struct {
	svc RegistrationsManager
}

func NewRegistrationHandler(svc RegistrationsManager) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

func (h *RegistrationHandler) Create(ctx *gin.Context) {
	var req registration.CreateRegistrationRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	reg, err := h.svc.Create(cctx, req)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, reg)
}

// List accepts optional userId and eventId filters. Attendees only ever see their own rows.
func (h *RegistrationHandler) List(ctx *gin.Context) {
	caller, ok := middlewares.IdentityFrom(ctx)
	if !ok {
		Fail(ctx, apperr.Unauthenticated("Authentication required"))
		return
	}

	var f registration.ListFilter
	for key, dst := range map[string]*string{"userId": &f.UserID, "eventId": &f.EventID} {
		v := ctx.Query(key)
		if v == "" {
			continue
		}
		if uuid.Validate(v) != nil {
			RespondBadRequest(ctx, key+" must be a valid UUID", gin.H{"field": key, "value": v})
			return
		}
		*dst = v
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	regs, err := h.svc.List(cctx, caller, f)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondList(ctx, regs, len(regs))
}

func (h *RegistrationHandler) Get(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	reg, err := h.svc.Get(cctx, id)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, reg)
}

func (h *RegistrationHandler) Update(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req registration.UpdateRegistrationRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if req.Empty() {
		RespondBadRequest(ctx, "must supply at least one field", nil)
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	reg, err := h.svc.Update(cctx, id, req)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, reg)
}

func (h *RegistrationHandler) Delete(ctx *gin.Context) {
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
