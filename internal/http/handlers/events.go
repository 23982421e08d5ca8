package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/geocoder89/eventsapp/internal/cache"
	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/gin-gonic/gin"
)

type EventsManager interface {
	Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error)
	List(ctx context.Context, f event.ListEventsFilter) (cache.EventPage, error)
	Get(ctx context.Context, id string) (event.Event, error)
	Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error)
	Delete(ctx context.Context, id string) error
}

type EventsHandler struct {
	svc EventsManager
}

func NewEventsHandler(svc EventsManager) *EventsHandler {
	return &EventsHandler{svc: svc}
}

type EventsPage struct {
	Items  []event.Event `json:"items"`
	Count  int           `json:"count"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	e, err := h.svc.Create(cctx, req)
	if err != nil {
		Fail(ctx, err)
		return
	}

	ctx.Header("Location", "/eventsapp/"+e.ID)
	RespondOK(ctx, http.StatusCreated, e)
}

// ListEvents accepts location, from, to, q, limit and offset.
func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	limit, ok := queryInt(ctx, "limit", 50)
	if !ok {
		return
	}
	if limit < 1 || limit > 100 {
		RespondBadRequest(ctx, "limit must be between 1 and 100", gin.H{"field": "limit"})
		return
	}

	offset, ok := queryInt(ctx, "offset", 0)
	if !ok {
		return
	}
	if offset < 0 {
		RespondBadRequest(ctx, "offset must be >= 0", gin.H{"field": "offset"})
		return
	}

	from, ok := queryTime(ctx, "from")
	if !ok {
		return
	}
	to, ok := queryTime(ctx, "to")
	if !ok {
		return
	}

	filter := event.ListEventsFilter{
		Location: queryString(ctx, "location"),
		Query:    queryString(ctx, "q"),
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	page, err := h.svc.List(cctx, filter)
	if err != nil {
		Fail(ctx, err)
		return
	}

	ctx.Header("X-Total-Count", strconv.Itoa(page.Total))
	RespondJSONWithETag(ctx, http.StatusOK, EventsPage{
		Items:  page.Items,
		Count:  len(page.Items),
		Total:  page.Total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	e, err := h.svc.Get(cctx, id)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, e)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req event.UpdateEventRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if req.Empty() {
		RespondBadRequest(ctx, "must supply at least one field", nil)
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	e, err := h.svc.Update(cctx, id, req)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, e)
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
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
