package cache

import (
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/eventsapp/internal/domain/event"
)

const eventsGenKey = "events:gen"

func eventKey(gen int64, id string) string {
	return "events:v" + strconv.FormatInt(gen, 10) + ":id:" + id
}

// eventsListKey is deterministic for equal filters: strings are lowercased and
// trimmed, times normalized to UTC.
func eventsListKey(gen int64, f event.ListEventsFilter) string {
	loc := ""
	if f.Location != nil {
		loc = strings.ToLower(strings.TrimSpace(*f.Location))
	}
	q := ""
	if f.Query != nil {
		q = strings.ToLower(strings.TrimSpace(*f.Query))
	}
	from := ""
	if f.From != nil {
		from = f.From.UTC().Format(time.RFC3339Nano)
	}
	to := ""
	if f.To != nil {
		to = f.To.UTC().Format(time.RFC3339Nano)
	}

	return "events:v" + strconv.FormatInt(gen, 10) + ":list" +
		":limit=" + strconv.Itoa(f.Limit) +
		":offset=" + strconv.Itoa(f.Offset) +
		":location=" + loc +
		":q=" + q +
		":from=" + from +
		":to=" + to
}
