package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/lifeweeks/internal/profile"
)

type fakeStore struct {
	profiles map[int64]profile.Profile

	getErr   error
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[int64]profile.Profile)}
}

func (f *fakeStore) Get(_ context.Context, userID int64) (profile.Profile, error) {
	if f.getErr != nil {
		return profile.Profile{}, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) Upsert(_ context.Context, p profile.Profile) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.profiles[p.UserID] = p
	return nil
}

func (f *fakeStore) UpdateName(_ context.Context, userID int64, name string) error {
	return f.update(userID, func(p *profile.Profile) { p.Name = name })
}

func (f *fakeStore) UpdateBirthdate(_ context.Context, userID int64, birthdate time.Time) error {
	return f.update(userID, func(p *profile.Profile) { p.Birthdate = birthdate })
}

func (f *fakeStore) UpdateLifeExpectancy(_ context.Context, userID int64, years int) error {
	return f.update(userID, func(p *profile.Profile) { p.LifeExpectancy = years })
}

func (f *fakeStore) UpdateNotifications(_ context.Context, userID int64, enabled bool) error {
	return f.update(userID, func(p *profile.Profile) { p.NotificationsEnabled = enabled })
}

func (f *fakeStore) update(userID int64, apply func(*profile.Profile)) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return profile.ErrNotFound
	}
	apply(&p)
	f.profiles[userID] = p
	return nil
}

func (f *fakeStore) Delete(_ context.Context, userID int64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	delete(f.profiles, userID)
	return nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]profile.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]profile.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func fixedNow() time.Time {
	return time.Date(2024, time.June, 15, 12, 30, 0, 0, time.UTC)
}

func newTestMachine(store profile.Store) *Machine {
	return NewMachine(store, fixedNow)
}

const testUser int64 = 42

func seedProfile(store *fakeStore) profile.Profile {
	p := profile.Profile{
		UserID:               testUser,
		Name:                 "Алиса",
		Birthdate:            time.Date(2000, time.March, 15, 0, 0, 0, 0, time.UTC),
		LifeExpectancy:       90,
		NotificationsEnabled: true,
	}
	store.profiles[testUser] = p
	return p
}

func lastReply(t *testing.T, replies []Reply) Reply {
	t.Helper()
	if len(replies) == 0 {
		t.Fatal("expected at least one reply")
	}
	return replies[len(replies)-1]
}

func TestRegistrationFlow(t *testing.T) {
	store := newFakeStore()
	m := newTestMachine(store)
	ctx := context.Background()

	m.Handle(ctx, testUser, BtnRegister)
	if got := m.State(testUser); got != StateAwaitingName {
		t.Fatalf("after register button: state = %q, want %q", got, StateAwaitingName)
	}

	m.Handle(ctx, testUser, "Алиса")
	if got := m.State(testUser); got != StateAwaitingBirthdate {
		t.Fatalf("after name: state = %q, want %q", got, StateAwaitingBirthdate)
	}

	replies := m.Handle(ctx, testUser, "15.03.2000")
	if got := m.State(testUser); got != StateMainMenu {
		t.Fatalf("after birthdate: state = %q, want %q", got, StateMainMenu)
	}
	if lastReply(t, replies).Text != textSaved {
		t.Errorf("reply = %q, want saved confirmation", lastReply(t, replies).Text)
	}

	p, ok := store.profiles[testUser]
	if !ok {
		t.Fatal("profile not persisted")
	}
	if p.Name != "Алиса" {
		t.Errorf("name = %q, want Алиса", p.Name)
	}
	if !p.Birthdate.Equal(time.Date(2000, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("birthdate = %v", p.Birthdate)
	}
	if p.LifeExpectancy != profile.DefaultLifeExpectancy {
		t.Errorf("life expectancy = %d, want %d", p.LifeExpectancy, profile.DefaultLifeExpectancy)
	}
	if !p.NotificationsEnabled {
		t.Error("notifications should be enabled after registration")
	}
}

func TestRegistrationOverwritesExisting(t *testing.T) {
	store := newFakeStore()
	p := seedProfile(store)
	p.NotificationsEnabled = false
	p.LifeExpectancy = 70
	store.profiles[testUser] = p

	m := newTestMachine(store)
	ctx := context.Background()

	m.Handle(ctx, testUser, BtnRegister)
	m.Handle(ctx, testUser, "Боб")
	m.Handle(ctx, testUser, "01.01.1990")

	got := store.profiles[testUser]
	if got.Name != "Боб" {
		t.Errorf("name = %q, want Боб", got.Name)
	}
	if got.LifeExpectancy != profile.DefaultLifeExpectancy {
		t.Errorf("life expectancy = %d, want reset to default", got.LifeExpectancy)
	}
	if !got.NotificationsEnabled {
		t.Error("re-registration should reset notifications to enabled")
	}
}

func TestBirthdateValidation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantText string
	}{
		{"wrong format", "2000-03-15", textBadDateFormat},
		{"garbage", "не дата", textBadDateFormat},
		{"future date", "01.01.2030", textFutureDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			m := newTestMachine(store)
			ctx := context.Background()

			m.Handle(ctx, testUser, BtnRegister)
			m.Handle(ctx, testUser, "Алиса")
			replies := m.Handle(ctx, testUser, tt.input)

			if got := lastReply(t, replies).Text; got != tt.wantText {
				t.Errorf("reply = %q, want %q", got, tt.wantText)
			}
			if got := m.State(testUser); got != StateAwaitingBirthdate {
				t.Errorf("state = %q, want to stay in %q", got, StateAwaitingBirthdate)
			}
			if len(store.profiles) != 0 {
				t.Error("profile must not be persisted on invalid input")
			}
		})
	}
}

func TestCancelFromEveryState(t *testing.T) {
	states := []struct {
		name  string
		setup func(m *Machine, ctx context.Context)
	}{
		{"awaiting name", func(m *Machine, ctx context.Context) {
			m.Handle(ctx, testUser, BtnRegister)
		}},
		{"awaiting birthdate", func(m *Machine, ctx context.Context) {
			m.Handle(ctx, testUser, BtnRegister)
			m.Handle(ctx, testUser, "Алиса")
		}},
		{"profile menu", func(m *Machine, ctx context.Context) {
			m.Handle(ctx, testUser, BtnEdit)
		}},
		{"awaiting new name", func(m *Machine, ctx context.Context) {
			m.Handle(ctx, testUser, BtnEdit)
			m.Handle(ctx, testUser, BtnEditName)
		}},
		{"expectancy choice", func(m *Machine, ctx context.Context) {
			m.Handle(ctx, testUser, BtnEdit)
			m.Handle(ctx, testUser, BtnEditExpectancy)
		}},
		{"custom expectancy", func(m *Machine, ctx context.Context) {
			m.Handle(ctx, testUser, BtnEdit)
			m.Handle(ctx, testUser, BtnEditExpectancy)
			m.Handle(ctx, testUser, BtnCustomValue)
		}},
		{"delete confirmation", func(m *Machine, ctx context.Context) {
			m.Handle(ctx, testUser, BtnEdit)
			m.Handle(ctx, testUser, BtnDeleteProfile)
		}},
	}
	for _, tt := range states {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			seedProfile(store)
			m := newTestMachine(store)
			ctx := context.Background()

			tt.setup(m, ctx)
			replies := m.Handle(ctx, testUser, "/cancel")

			if got := m.State(testUser); got != StateMainMenu {
				t.Errorf("state after cancel = %q, want %q", got, StateMainMenu)
			}
			if got := lastReply(t, replies).Text; got != textCancelled {
				t.Errorf("reply = %q, want %q", got, textCancelled)
			}
		})
	}
}

func TestCancelDiscardsPendingName(t *testing.T) {
	store := newFakeStore()
	m := newTestMachine(store)
	ctx := context.Background()

	m.Handle(ctx, testUser, BtnRegister)
	m.Handle(ctx, testUser, "Черновик")
	m.Handle(ctx, testUser, BtnCancel)

	if got := m.sessions.Get(testUser).PendingName; got != "" {
		t.Errorf("pending name survived cancel: %q", got)
	}
	if len(store.profiles) != 0 {
		t.Error("cancel must not persist anything")
	}
}

func TestStatsAndCalendarRequireRegistration(t *testing.T) {
	store := newFakeStore()
	m := newTestMachine(store)
	ctx := context.Background()

	for _, btn := range []string{BtnStats, BtnCalendar, BtnEdit} {
		replies := m.Handle(ctx, testUser, btn)
		if got := lastReply(t, replies).Text; got != textNotRegistered {
			t.Errorf("%s: reply = %q, want not-registered prompt", btn, got)
		}
	}
}

func TestStatisticsText(t *testing.T) {
	store := newFakeStore()
	p := seedProfile(store)
	m := newTestMachine(store)

	replies := m.Handle(context.Background(), testUser, BtnStats)
	text := lastReply(t, replies).Text

	for _, want := range []string{
		p.Name,
		"15.03.2000",
		"Прожито лет: 24",
		"Ожидаемая продолжительность жизни: 90 лет",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("statistics text missing %q:\n%s", want, text)
		}
	}
}

func TestCalendarReturnsPhoto(t *testing.T) {
	store := newFakeStore()
	p := seedProfile(store)
	m := newTestMachine(store)

	replies := m.Handle(context.Background(), testUser, BtnCalendar)
	r := lastReply(t, replies)
	if len(r.Photo) == 0 {
		t.Fatal("calendar reply carries no image")
	}
	if !strings.Contains(r.Caption, p.Name) {
		t.Errorf("caption %q does not mention the user", r.Caption)
	}
}

func TestCustomExpectancyBounds(t *testing.T) {
	store := newFakeStore()
	seedProfile(store)
	m := newTestMachine(store)
	ctx := context.Background()

	m.Handle(ctx, testUser, BtnEdit)
	m.Handle(ctx, testUser, BtnEditExpectancy)
	m.Handle(ctx, testUser, BtnCustomValue)

	replies := m.Handle(ctx, testUser, "45")
	if got := lastReply(t, replies).Text; got != textBadCustomValue {
		t.Errorf("reply = %q, want bounds rejection", got)
	}
	if got := m.State(testUser); got != StateAwaitingCustomLifeExpectancy {
		t.Errorf("state = %q, want to stay for retry", got)
	}
	if store.profiles[testUser].LifeExpectancy != 90 {
		t.Error("rejected value must not mutate the profile")
	}

	m.Handle(ctx, testUser, "105")
	if got := store.profiles[testUser].LifeExpectancy; got != 105 {
		t.Errorf("life expectancy = %d, want 105", got)
	}
	if got := m.State(testUser); got != StateMainMenu {
		t.Errorf("state = %q, want %q", got, StateMainMenu)
	}
}

func TestCuratedAndCustomEquivalent(t *testing.T) {
	run := func(inputs ...string) int {
		store := newFakeStore()
		seedProfile(store)
		m := newTestMachine(store)
		ctx := context.Background()
		m.Handle(ctx, testUser, BtnEdit)
		m.Handle(ctx, testUser, BtnEditExpectancy)
		for _, in := range inputs {
			m.Handle(ctx, testUser, in)
		}
		return store.profiles[testUser].LifeExpectancy
	}

	curated := run(BtnExpectancy90)
	custom := run(BtnCustomValue, "90")
	if curated != custom || curated != 90 {
		t.Errorf("curated = %d, custom = %d, want both 90", curated, custom)
	}
}

func TestExpectancyChoiceRejectsFreeText(t *testing.T) {
	store := newFakeStore()
	seedProfile(store)
	m := newTestMachine(store)
	ctx := context.Background()

	m.Handle(ctx, testUser, BtnEdit)
	m.Handle(ctx, testUser, BtnEditExpectancy)
	replies := m.Handle(ctx, testUser, "85")

	if got := lastReply(t, replies).Text; got != textBadExpectancy {
		t.Errorf("reply = %q, want curated-values prompt", got)
	}
	if got := m.State(testUser); got != StateAwaitingLifeExpectancyChoice {
		t.Errorf("state = %q, want to stay in choice", got)
	}
}

func TestDeleteConfirmation(t *testing.T) {
	t.Run("exact yes deletes", func(t *testing.T) {
		store := newFakeStore()
		seedProfile(store)
		m := newTestMachine(store)
		ctx := context.Background()

		m.Handle(ctx, testUser, BtnEdit)
		m.Handle(ctx, testUser, BtnDeleteProfile)
		replies := m.Handle(ctx, testUser, BtnDeleteYes)

		if _, ok := store.profiles[testUser]; ok {
			t.Error("profile should be deleted")
		}
		if got := lastReply(t, replies).Text; got != textDeleted {
			t.Errorf("reply = %q, want %q", got, textDeleted)
		}
	})

	t.Run("no keeps profile", func(t *testing.T) {
		store := newFakeStore()
		seedProfile(store)
		m := newTestMachine(store)
		ctx := context.Background()

		m.Handle(ctx, testUser, BtnEdit)
		m.Handle(ctx, testUser, BtnDeleteProfile)
		replies := m.Handle(ctx, testUser, BtnDeleteNo)

		if _, ok := store.profiles[testUser]; !ok {
			t.Error("profile must survive")
		}
		if got := m.State(testUser); got != StateMainMenu {
			t.Errorf("state = %q, want %q", got, StateMainMenu)
		}
		if got := lastReply(t, replies).Text; got != textDeleteKept {
			t.Errorf("reply = %q, want %q", got, textDeleteKept)
		}
	})

	t.Run("free text does not delete", func(t *testing.T) {
		store := newFakeStore()
		seedProfile(store)
		m := newTestMachine(store)
		ctx := context.Background()

		m.Handle(ctx, testUser, BtnEdit)
		m.Handle(ctx, testUser, BtnDeleteProfile)
		replies := m.Handle(ctx, testUser, "да")

		if _, ok := store.profiles[testUser]; !ok {
			t.Error("ambiguous input must not delete the profile")
		}
		if got := m.State(testUser); got != StateAwaitingDeleteConfirmation {
			t.Errorf("state = %q, want to stay in confirmation", got)
		}
		if got := lastReply(t, replies).Text; got != textDeleteChooseEmoji {
			t.Errorf("reply = %q, want %q", got, textDeleteChooseEmoji)
		}
	})
}

func TestReadFailureReturnsToMainMenu(t *testing.T) {
	store := newFakeStore()
	seedProfile(store)
	store.getErr = errors.New("connection refused")
	m := newTestMachine(store)
	ctx := context.Background()

	replies := m.Handle(ctx, testUser, BtnStats)
	if got := lastReply(t, replies).Text; got != textStoreReadError {
		t.Errorf("reply = %q, want read error text", got)
	}
	if got := m.State(testUser); got != StateMainMenu {
		t.Errorf("state = %q, want %q after read failure", got, StateMainMenu)
	}
}

func TestWriteFailureStaysInState(t *testing.T) {
	store := newFakeStore()
	seedProfile(store)
	m := newTestMachine(store)
	ctx := context.Background()

	m.Handle(ctx, testUser, BtnEdit)
	m.Handle(ctx, testUser, BtnEditName)
	store.writeErr = errors.New("connection refused")

	replies := m.Handle(ctx, testUser, "Новое имя")
	if got := lastReply(t, replies).Text; got != textStoreWriteError {
		t.Errorf("reply = %q, want write error text", got)
	}
	if got := m.State(testUser); got != StateAwaitingNewName {
		t.Errorf("state = %q, want to stay for retry", got)
	}

	store.writeErr = nil
	m.Handle(ctx, testUser, "Новое имя")
	if got := store.profiles[testUser].Name; got != "Новое имя" {
		t.Errorf("name = %q after retry, want updated", got)
	}
}

func TestNotificationToggle(t *testing.T) {
	store := newFakeStore()
	seedProfile(store)
	m := newTestMachine(store)
	ctx := context.Background()

	m.Handle(ctx, testUser, BtnEdit)
	m.Handle(ctx, testUser, BtnNotifications)
	if got := m.State(testUser); got != StateAwaitingNotificationChoice {
		t.Fatalf("state = %q, want notification choice", got)
	}

	replies := m.Handle(ctx, testUser, BtnNotifyOff)
	if store.profiles[testUser].NotificationsEnabled {
		t.Error("notifications should be disabled")
	}
	if got := lastReply(t, replies).Text; got != textNotifyDisabled {
		t.Errorf("reply = %q, want %q", got, textNotifyDisabled)
	}

	m.Handle(ctx, testUser, BtnEdit)
	m.Handle(ctx, testUser, BtnNotifications)
	m.Handle(ctx, testUser, BtnNotifyOn)
	if !store.profiles[testUser].NotificationsEnabled {
		t.Error("notifications should be enabled again")
	}
}

func TestUnknownInputInMainMenu(t *testing.T) {
	store := newFakeStore()
	m := newTestMachine(store)

	replies := m.Handle(context.Background(), testUser, "привет")
	if got := lastReply(t, replies).Text; got != textUseMenuButtons {
		t.Errorf("reply = %q, want menu hint", got)
	}
	if got := m.State(testUser); got != StateMainMenu {
		t.Errorf("state = %q, want to stay in main menu", got)
	}
}
