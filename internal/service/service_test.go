package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/eventsapp/internal/actorctx"
	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/cache"
	"github.com/geocoder89/eventsapp/internal/domain/event"
	"github.com/geocoder89/eventsapp/internal/domain/registration"
	"github.com/geocoder89/eventsapp/internal/domain/user"
	"github.com/geocoder89/eventsapp/internal/notifications"
	"github.com/geocoder89/eventsapp/internal/observability"
	"github.com/geocoder89/eventsapp/internal/repo/memory"
	"github.com/geocoder89/eventsapp/internal/security"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store  *memory.Store
	tokens *auth.Manager
	auth   *AuthService
	users  *UsersService
	events *EventsService
	regs   *RegistrationsService
	notes  *recordingNotifier
}

type recordingNotifier struct {
	sent []notifications.RegistrationCreated
	err  error
}

func (r *recordingNotifier) RegistrationCreated(_ context.Context, msg notifications.RegistrationCreated) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	tokens := auth.NewManager("test-secret", time.Hour)
	log := observability.Discard()
	notes := &recordingNotifier{}

	return &fixture{
		store:  store,
		tokens: tokens,
		auth:   NewAuthService(store.Users(), hasher, tokens, log, AuthOptions{AllowRoleOnRegister: true}),
		users:  NewUsersService(store.Users(), hasher, log),
		events: NewEventsService(store.Events(), cache.NewEventCache(cache.NewMemory(time.Minute), time.Minute, nil), log),
		regs:   NewRegistrationsService(store.Registrations(), store.Users(), store.Events(), notes, log),
		notes:  notes,
	}
}

func (f *fixture) register(t *testing.T, email string, role auth.Role) string {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{
		Email: email, Password: "password123", Name: "Someone", Role: string(role),
	})
	require.NoError(t, err)
	return res.ID
}

func (f *fixture) event(t *testing.T, title string) event.Event {
	t.Helper()
	e, err := f.events.Create(context.Background(), event.CreateEventRequest{
		Title: title, Date: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return e
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "got %v", err)
}

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, RegisterInput{Email: "Ada@Example.com", Password: "password123", Name: "Ada"})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", res.Email)

	out, err := f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, auth.RoleAttendee, out.User.Role)

	claims, err := f.tokens.Verify(out.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.ID, claims.Subject)
	require.Equal(t, "attendee", claims.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "dup@example.com", "")

	_, err := f.auth.Register(ctx, RegisterInput{Email: "DUP@example.com", Password: "password123", Name: "Again"})
	requireKind(t, err, apperr.KindConflict)
	require.Equal(t, 400, apperr.KindOf(err).Status())
	require.True(t, errors.Is(err, user.ErrEmailTaken))

	all, err := f.store.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestRegister_RoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Email: "x@example.com", Password: "password123", Name: "X", Role: "superuser"})
	requireKind(t, err, apperr.KindValidation)

	locked := NewAuthService(f.store.Users(), security.NewBcryptHasher(bcrypt.MinCost), f.tokens, nil, AuthOptions{})
	_, err = locked.Register(ctx, RegisterInput{Email: "y@example.com", Password: "password123", Name: "Y", Role: "admin"})
	requireKind(t, err, apperr.KindValidation)

	_, err = locked.Register(ctx, RegisterInput{Email: "z@example.com", Password: "password123", Name: "Z", Role: "attendee"})
	require.NoError(t, err)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "known@example.com", "")

	_, wrongPass := f.auth.Login(ctx, LoginInput{Email: "known@example.com", Password: "nope-nope"})
	_, unknown := f.auth.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "password123"})

	requireKind(t, wrongPass, apperr.KindUnauthenticated)
	requireKind(t, unknown, apperr.KindUnauthenticated)
	require.Equal(t, apperr.From(wrongPass).Message, apperr.From(unknown).Message)
	require.Equal(t, "Invalid credentials", apperr.From(unknown).Message)
}

func TestRegistrations_UnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "a@example.com", "")
	e := f.event(t, "Go Days")
	missing := "00000000-0000-0000-0000-000000000000"

	_, err := f.regs.Create(ctx, registration.CreateRegistrationRequest{UserID: missing, EventID: e.ID})
	requireKind(t, err, apperr.KindNotFound)
	require.Equal(t, "User with id "+missing+" not found", apperr.From(err).Message)

	_, err = f.regs.Create(ctx, registration.CreateRegistrationRequest{UserID: uid, EventID: missing})
	requireKind(t, err, apperr.KindNotFound)
	require.Equal(t, "Event with id "+missing+" not found", apperr.From(err).Message)

	all, err := f.regs.List(ctx, auth.Identity{UserID: "admin", Role: auth.RoleAdmin}, registration.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, all)
	require.Empty(t, f.notes.sent)
}

func TestRegistrations_AttendeeSeesOwnRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com", "")
	bob := f.register(t, "bob@example.com", "")
	e := f.event(t, "Go Days")

	for _, uid := range []string{alice, bob} {
		_, err := f.regs.Create(ctx, registration.CreateRegistrationRequest{UserID: uid, EventID: e.ID})
		require.NoError(t, err)
	}

	own, err := f.regs.List(ctx, auth.Identity{UserID: alice, Role: auth.RoleAttendee}, registration.ListFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, alice, own[0].UserID)

	// a caller-supplied userId cannot widen an attendee's view
	own, err = f.regs.List(ctx, auth.Identity{UserID: alice, Role: auth.RoleAttendee}, registration.ListFilter{UserID: bob})
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, alice, own[0].UserID)

	for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleOrganizer} {
		all, err := f.regs.List(ctx, auth.Identity{UserID: "staff", Role: role}, registration.ListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
	}

	require.Len(t, f.notes.sent, 2)
	require.Equal(t, "Go Days", f.notes.sent[0].EventTitle)
}

func TestRegistrations_NotifierFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture(t)
	f.notes.err = errors.New("broker down")
	uid := f.register(t, "a@example.com", "")
	e := f.event(t, "Go Days")

	_, err := f.regs.Create(context.Background(), registration.CreateRegistrationRequest{UserID: uid, EventID: e.ID})
	require.NoError(t, err)
}

func TestRegistrations_UpdateResolvesEachField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "a@example.com", "")
	other := f.register(t, "b@example.com", "")
	e := f.event(t, "Go Days")

	reg, err := f.regs.Create(ctx, registration.CreateRegistrationRequest{UserID: uid, EventID: e.ID})
	require.NoError(t, err)

	missing := "11111111-1111-1111-1111-111111111111"
	_, err = f.regs.Update(ctx, reg.ID, registration.UpdateRegistrationRequest{UserID: &other, EventID: &missing})
	requireKind(t, err, apperr.KindNotFound)

	unchanged, err := f.regs.Get(ctx, reg.ID)
	require.NoError(t, err)
	require.Equal(t, uid, unchanged.UserID)

	updated, err := f.regs.Update(ctx, reg.ID, registration.UpdateRegistrationRequest{UserID: &other})
	require.NoError(t, err)
	require.Equal(t, other, updated.UserID)
	require.Equal(t, e.ID, updated.EventID)
}

func TestDelete_MissingAndExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "a@example.com", "")
	e1 := f.event(t, "One")
	e2 := f.event(t, "Two")

	requireKind(t, f.regs.Delete(ctx, "nope"), apperr.KindNotFound)
	requireKind(t, f.events.Delete(ctx, "nope"), apperr.KindNotFound)
	requireKind(t, f.users.Delete(ctx, "nope"), apperr.KindNotFound)

	r1, err := f.regs.Create(ctx, registration.CreateRegistrationRequest{UserID: uid, EventID: e1.ID})
	require.NoError(t, err)
	r2, err := f.regs.Create(ctx, registration.CreateRegistrationRequest{UserID: uid, EventID: e2.ID})
	require.NoError(t, err)

	require.NoError(t, f.regs.Delete(ctx, r1.ID))

	left, err := f.regs.List(ctx, auth.Identity{UserID: "x", Role: auth.RoleAdmin}, registration.ListFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, r2.ID, left[0].ID)

	require.NoError(t, f.events.Delete(ctx, e1.ID))
	_, err = f.events.Get(ctx, e1.ID)
	requireKind(t, err, apperr.KindNotFound)
	_, err = f.events.Get(ctx, e2.ID)
	require.NoError(t, err)
}

func TestEvents_TitleUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.event(t, "Go Days")
	second := f.event(t, "Rust Days")

	_, err := f.events.Create(ctx, event.CreateEventRequest{Title: "Go Days", Date: time.Now()})
	requireKind(t, err, apperr.KindConflict)
	require.Equal(t, "An event with this title already exists", apperr.From(err).Message)

	title := "Go Days"
	_, err = f.events.Update(ctx, second.ID, event.UpdateEventRequest{Title: &title})
	requireKind(t, err, apperr.KindConflict)

	// renaming to its own title is not a conflict
	own := "Rust Days"
	capacity := 250
	updated, err := f.events.Update(ctx, second.ID, event.UpdateEventRequest{Title: &own, Capacity: &capacity})
	require.NoError(t, err)
	require.Equal(t, 250, updated.Capacity)
}

func TestEvents_DefaultCapacityAndCacheInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.event(t, "Go Days")
	require.Equal(t, event.DefaultCapacity, e.Capacity)

	page, err := f.events.List(ctx, event.ListEventsFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	f.event(t, "Rust Days")

	page, err = f.events.List(ctx, event.ListEventsFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total, "write must invalidate the cached page")

	loc := "Berlin"
	_, err = f.events.Update(ctx, e.ID, event.UpdateEventRequest{Location: &loc})
	require.NoError(t, err)

	got, err := f.events.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, "Berlin", got.Location)
}

func TestEvents_ListRejectsInvertedRange(t *testing.T) {
	f := newFixture(t)
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)

	_, err := f.events.List(context.Background(), event.ListEventsFilter{From: &from, To: &to})
	requireKind(t, err, apperr.KindValidation)
}

func TestUsers_UpdateEmailConflictAndRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "taken@example.com", "")
	id := f.register(t, "me@example.com", "")

	taken := "TAKEN@example.com"
	_, err := f.users.Update(ctx, id, user.UpdateUserRequest{Email: &taken})
	requireKind(t, err, apperr.KindConflict)

	role := "organizer"
	u, err := f.users.Update(ctx, id, user.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	require.Equal(t, auth.RoleOrganizer, u.Role)

	_, err = f.users.Get(ctx, "missing")
	requireKind(t, err, apperr.KindNotFound)
}

func TestAudit_AddsActorWhenPresent(t *testing.T) {
	require.Equal(t, []any{"event_id", "e1"}, audit(context.Background(), "event_id", "e1"))

	ctx := actorctx.WithIdentity(context.Background(), auth.Identity{UserID: "admin-1", Role: auth.RoleAdmin})
	require.Equal(t, []any{"event_id", "e1", "actor_id", "admin-1"}, audit(ctx, "event_id", "e1"))
}
