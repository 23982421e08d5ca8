package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/eventsapp/internal/notifications"
	"github.com/geocoder89/eventsapp/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type settlement struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue []bool
}

func (s *settlement) delivery(msgType string, body []byte) notifications.Delivery {
	return notifications.Delivery{
		Type: msgType,
		Body: body,
		Ack: func() error {
			s.mu.Lock()
			s.acked++
			s.mu.Unlock()
			return nil
		},
		Nack: func(requeue bool) error {
			s.mu.Lock()
			s.nacked++
			s.requeue = append(s.requeue, requeue)
			s.mu.Unlock()
			return nil
		},
	}
}

type flakyHandler struct {
	mu       sync.Mutex
	failures int
	calls    int
	seen     []string
}

func (h *flakyHandler) Handle(_ context.Context, msg notifications.RegistrationCreated) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failures {
		return errors.New("smtp unavailable")
	}
	h.seen = append(h.seen, msg.RegistrationID)
	return nil
}

type countingObserver struct {
	mu      sync.Mutex
	results map[string]int
}

func (o *countingObserver) ObserveWorker(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = map[string]int{}
	}
	o.results[result]++
}

type chanSource struct {
	ch chan notifications.Delivery
}

func (s *chanSource) Deliveries(context.Context) (<-chan notifications.Delivery, error) {
	return s.ch, nil
}

func validBody(t *testing.T, id string) []byte {
	t.Helper()
	b, err := notifications.EncodeRegistrationCreated(notifications.RegistrationCreated{
		RegistrationID: id, UserID: "u-1", EventID: "e-1", UserEmail: "a@b.test",
	})
	require.NoError(t, err)
	return b
}

func newTestWorker(h Handler, obs Observer, maxAttempts int) (*Worker, *[]time.Duration) {
	w := New(Config{MaxAttempts: maxAttempts, BaseBackoff: time.Second, MaxBackoff: 4 * time.Second}, nil, h, observability.Discard(), obs)
	var slept []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return w, &slept
}

func TestProcessOne_RetriesThenAcks(t *testing.T) {
	h := &flakyHandler{failures: 2}
	obs := &countingObserver{}
	w, slept := newTestWorker(h, obs, 5)
	s := &settlement{}

	w.ProcessOne(context.Background(), s.delivery(notifications.TypeRegistrationCreated, validBody(t, "r-1")))

	require.Equal(t, 3, h.calls)
	require.Equal(t, 1, s.acked)
	require.Zero(t, s.nacked)
	require.Len(t, *slept, 2)
	require.GreaterOrEqual(t, (*slept)[1], 2*time.Second)
	require.Equal(t, 1, obs.results["done"])
}

func TestProcessOne_DropsAfterMaxAttempts(t *testing.T) {
	h := &flakyHandler{failures: 10}
	obs := &countingObserver{}
	w, slept := newTestWorker(h, obs, 3)
	s := &settlement{}

	w.ProcessOne(context.Background(), s.delivery("", validBody(t, "r-1")))

	require.Equal(t, 3, h.calls)
	require.Len(t, *slept, 2)
	require.Equal(t, []bool{false}, s.requeue)
	require.Equal(t, 1, obs.results["failed"])
}

func TestProcessOne_InvalidPayloadIsDropped(t *testing.T) {
	h := &flakyHandler{}
	obs := &countingObserver{}
	w, _ := newTestWorker(h, obs, 3)
	s := &settlement{}

	w.ProcessOne(context.Background(), s.delivery(notifications.TypeRegistrationCreated, []byte(`{"registrationId":""}`)))
	w.ProcessOne(context.Background(), s.delivery("event.published", validBody(t, "r-1")))

	require.Zero(t, h.calls)
	require.Equal(t, []bool{false, false}, s.requeue)
	require.Equal(t, 2, obs.results["invalid"])
}

func TestProcessOne_RequeuesOnShutdown(t *testing.T) {
	h := &flakyHandler{failures: 10}
	obs := &countingObserver{}
	w, _ := newTestWorker(h, obs, 5)
	w.sleep = func(ctx context.Context, _ time.Duration) error { return context.Canceled }
	s := &settlement{}

	w.ProcessOne(context.Background(), s.delivery("", validBody(t, "r-1")))

	require.Equal(t, 1, h.calls)
	require.Equal(t, []bool{true}, s.requeue)
	require.Equal(t, 1, obs.results["requeued"])
}

func TestRun_DrainsUntilSourceCloses(t *testing.T) {
	h := &flakyHandler{}
	src := &chanSource{ch: make(chan notifications.Delivery)}
	w := New(Config{Concurrency: 3}, src, h, observability.Discard(), nil)
	s := &settlement{}

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	for _, id := range []string{"r-1", "r-2", "r-3", "r-4"} {
		src.ch <- s.delivery(notifications.TypeRegistrationCreated, validBody(t, id))
	}
	require.Eventually(t, w.Ready, time.Second, 10*time.Millisecond)
	close(src.ch)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after source closed")
	}

	require.Equal(t, 4, s.acked)
	require.ElementsMatch(t, []string{"r-1", "r-2", "r-3", "r-4"}, h.seen)
	require.False(t, w.Ready())
}

func TestExponentialBackoff(t *testing.T) {
	base, ceiling := time.Second, 5*time.Second

	d0 := ExponentialBackoff(0, base, ceiling)
	require.GreaterOrEqual(t, d0, base)
	require.Less(t, d0, base+250*time.Millisecond)

	d2 := ExponentialBackoff(2, base, ceiling)
	require.GreaterOrEqual(t, d2, 4*time.Second)

	d10 := ExponentialBackoff(10, base, ceiling)
	require.GreaterOrEqual(t, d10, ceiling)
	require.Less(t, d10, ceiling+250*time.Millisecond)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := New(Config{}, nil, &flakyHandler{}, observability.Discard(), nil)

	get := func(h http.Handler, path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	h := w.HealthHandler(fakePinger{})
	require.Equal(t, http.StatusOK, get(h, "/healthz"))
	require.Equal(t, http.StatusServiceUnavailable, get(h, "/readyz"))

	w.setReady(true)
	require.Equal(t, http.StatusOK, get(h, "/readyz"))

	down := w.HealthHandler(fakePinger{err: errors.New("closed")})
	require.Equal(t, http.StatusServiceUnavailable, get(down, "/readyz"))
}
