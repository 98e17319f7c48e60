package broadcast

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/lifeweeks/internal/profile"
)

type staticStore struct {
	profiles []profile.Profile
	listErr  error
}

func (s *staticStore) Get(_ context.Context, userID int64) (profile.Profile, error) {
	for _, p := range s.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (s *staticStore) Upsert(context.Context, profile.Profile) error          { return nil }
func (s *staticStore) UpdateName(context.Context, int64, string) error        { return nil }
func (s *staticStore) UpdateBirthdate(context.Context, int64, time.Time) error { return nil }
func (s *staticStore) UpdateLifeExpectancy(context.Context, int64, int) error { return nil }
func (s *staticStore) UpdateNotifications(context.Context, int64, bool) error { return nil }
func (s *staticStore) Delete(context.Context, int64) error                    { return nil }

func (s *staticStore) ListAll(context.Context) ([]profile.Profile, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.profiles, nil
}

type recordingSender struct {
	texts  map[int64]string
	images map[int64][]byte

	failFor map[int64]error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{
		texts:   make(map[int64]string),
		images:  make(map[int64][]byte),
		failFor: make(map[int64]error),
	}
}

func (s *recordingSender) SendText(_ context.Context, chatID int64, text string) error {
	if err := s.failFor[chatID]; err != nil {
		return err
	}
	s.texts[chatID] = text
	return nil
}

func (s *recordingSender) SendImage(_ context.Context, chatID int64, image []byte, _ string) error {
	if err := s.failFor[chatID]; err != nil {
		return err
	}
	s.images[chatID] = image
	return nil
}

func testProfile(userID int64, notify bool) profile.Profile {
	return profile.Profile{
		UserID:               userID,
		Name:                 "Алиса",
		Birthdate:            time.Date(2000, time.March, 15, 0, 0, 0, 0, time.UTC),
		LifeExpectancy:       90,
		NotificationsEnabled: notify,
	}
}

func fixedNow() time.Time {
	return time.Date(2024, time.June, 16, 21, 0, 0, 0, time.UTC)
}

func TestRunSendsToOptedInUsers(t *testing.T) {
	store := &staticStore{profiles: []profile.Profile{
		testProfile(1, true),
		testProfile(2, false),
		testProfile(3, true),
	}}
	sender := newRecordingSender()
	job := NewJob(store, sender, fixedNow)

	report := job.Run(context.Background())

	if report.Err != nil {
		t.Fatalf("unexpected error: %v", report.Err)
	}
	if report.Processed != 3 || report.Sent != 2 || report.Skipped != 1 || report.Failed != 0 {
		t.Errorf("report = %+v, want processed=3 sent=2 skipped=1 failed=0", report)
	}
	if _, ok := sender.texts[2]; ok {
		t.Error("user 2 opted out and must not receive text")
	}
	for _, id := range []int64{1, 3} {
		if sender.texts[id] == "" {
			t.Errorf("user %d: missing text", id)
		}
		if len(sender.images[id]) == 0 {
			t.Errorf("user %d: missing image", id)
		}
	}
}

func TestWeeklyText(t *testing.T) {
	p := testProfile(1, true)
	got := weeklyText(p, fixedNow())

	for _, want := range []string{
		"Здравствуй, Алиса!",
		"1265 недель", // 2000-03-15 to 2024-06-16
		"90 лет",
		"осталось примерно 66 лет",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("weekly text missing %q:\n%s", want, got)
		}
	}
}

func TestWeeklyTextClampsRemaining(t *testing.T) {
	p := testProfile(1, true)
	p.LifeExpectancy = 20
	got := weeklyText(p, fixedNow())
	if !strings.Contains(got, "осталось примерно 0 лет") {
		t.Errorf("remaining years not clamped at zero:\n%s", got)
	}
}

func TestRunIsolatesPerUserFailures(t *testing.T) {
	store := &staticStore{profiles: []profile.Profile{
		testProfile(1, true),
		testProfile(2, true),
		testProfile(3, true),
	}}
	sender := newRecordingSender()
	sender.failFor[2] = errors.New("blocked by user")
	job := NewJob(store, sender, fixedNow)

	report := job.Run(context.Background())

	if report.Sent != 2 || report.Failed != 1 {
		t.Errorf("report = %+v, want sent=2 failed=1", report)
	}
	if report.Err == nil {
		t.Fatal("expected aggregate error for the failed user")
	}
	if sender.texts[3] == "" {
		t.Error("failure for user 2 must not abort delivery to user 3")
	}
}

func TestRunListFailure(t *testing.T) {
	store := &staticStore{listErr: errors.New("connection refused")}
	job := NewJob(store, newRecordingSender(), fixedNow)

	report := job.Run(context.Background())
	if report.Err == nil {
		t.Fatal("expected error when listing fails")
	}
	if report.Processed != 0 {
		t.Errorf("processed = %d, want 0", report.Processed)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	store := &staticStore{profiles: []profile.Profile{
		testProfile(1, true),
		testProfile(2, true),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := NewJob(store, newRecordingSender(), fixedNow)
	report := job.Run(ctx)

	if !errors.Is(report.Err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", report.Err)
	}
	if report.Sent != 0 {
		t.Errorf("sent = %d, want 0 after cancellation", report.Sent)
	}
}

func TestSchedulerNext(t *testing.T) {
	s := NewScheduler(nil, time.Sunday, 21, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"midweek",
			time.Date(2024, time.June, 12, 10, 0, 0, 0, time.UTC), // Wednesday
			time.Date(2024, time.June, 16, 21, 0, 0, 0, time.UTC),
		},
		{
			"sunday before fire time",
			time.Date(2024, time.June, 16, 20, 59, 0, 0, time.UTC),
			time.Date(2024, time.June, 16, 21, 0, 0, 0, time.UTC),
		},
		{
			"sunday exactly at fire time",
			time.Date(2024, time.June, 16, 21, 0, 0, 0, time.UTC),
			time.Date(2024, time.June, 23, 21, 0, 0, 0, time.UTC),
		},
		{
			"sunday after fire time",
			time.Date(2024, time.June, 16, 21, 30, 0, 0, time.UTC),
			time.Date(2024, time.June, 23, 21, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.next(tt.now)
			if !got.Equal(tt.want) {
				t.Errorf("next(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler(nil, time.Sunday, 21, 0, time.UTC)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop on a never-started scheduler must not block")
	}
}

func TestSchedulerStop(t *testing.T) {
	store := &staticStore{}
	job := NewJob(store, newRecordingSender(), nil)
	s := NewScheduler(job, time.Sunday, 21, 0, time.UTC)

	s.Start(context.Background())
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}
