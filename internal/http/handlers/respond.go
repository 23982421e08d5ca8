package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/config"
	"github.com/geocoder89/eventsapp/internal/sanitize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// storeTimeout bounds every service call made from a handler.
const storeTimeout = 3 * time.Second

type SuccessBody struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type ListBody struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}

type DeletedBody struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func envelope(data interface{}) SuccessBody {
	return SuccessBody{Success: true, Data: sanitize.Value(data)}
}

// RespondOK writes the success envelope with credential keys stripped.
func RespondOK(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, envelope(data))
}

func RespondList(ctx *gin.Context, items interface{}, count int) {
	RespondOK(ctx, http.StatusOK, ListBody{Items: items, Count: count})
}

func RespondDeleted(ctx *gin.Context, id string) {
	RespondOK(ctx, http.StatusOK, DeletedBody{ID: id, Deleted: true})
}

// Fail hands err to the ErrorHandler middleware and stops the chain.
func Fail(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.Abort()
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	Fail(ctx, apperr.Validation("%s", message).WithDetails(details))
}

// pathID reads :id and rejects anything that is not a UUID.
func pathID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if err := uuid.Validate(id); err != nil {
		RespondBadRequest(ctx, "id must be a valid UUID", gin.H{"field": "id", "value": id})
		return "", false
	}
	return id, true
}

func queryInt(ctx *gin.Context, key string, fallback int) (int, bool) {
	raw := ctx.Query(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		RespondBadRequest(ctx, key+" must be an integer", gin.H{"field": key, "value": raw})
		return 0, false
	}
	return n, true
}

func queryTime(ctx *gin.Context, key string) (*time.Time, bool) {
	raw := ctx.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		RespondBadRequest(ctx, key+" must be an RFC 3339 timestamp", gin.H{"field": key, "value": raw})
		return nil, false
	}
	t = t.UTC()
	return &t, true
}

func queryString(ctx *gin.Context, key string) *string {
	raw, ok := ctx.GetQuery(key)
	if !ok || raw == "" {
		return nil
	}
	return &raw
}

func requestCtx(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
}
