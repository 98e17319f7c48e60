package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/lifeweeks/internal/lifecalc"
	"github.com/m3rciful/lifeweeks/internal/lifegrid"
	"github.com/m3rciful/lifeweeks/internal/logger"
	"github.com/m3rciful/lifeweeks/internal/profile"
)

// Reply is one outbound message produced by a transition: either text or a
// photo with caption, always with the next reply keyboard.
type Reply struct {
	Text    string
	Photo   []byte
	Caption string
	Menu    [][]string
}

// Machine drives the registration/edit conversation. It owns the session
// registry and composes the calculator, the renderer, and the profile store.
type Machine struct {
	store    profile.Store
	sessions *Sessions
	now      func() time.Time
}

// NewMachine builds a Machine over the given store. The now function may be
// nil, in which case the wall clock is used.
func NewMachine(store profile.Store, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{
		store:    store,
		sessions: NewSessions(),
		now:      now,
	}
}

// State exposes the user's current conversation state (primarily for tests
// and the transport router).
func (m *Machine) State(userID int64) State {
	return m.sessions.Get(userID).State
}

// Start resets the conversation and greets with the main menu.
func (m *Machine) Start(userID int64) []Reply {
	m.sessions.Reset(userID)
	return []Reply{{Text: textGreeting, Menu: MainMenu()}}
}

// Handle processes one inbound text message for the user and returns the
// replies to deliver. Every input has a defined next state, including the
// failure paths.
func (m *Machine) Handle(ctx context.Context, userID int64, input string) []Reply {
	sess := m.sessions.Get(userID)
	input = strings.TrimSpace(input)

	if isCancel(input) {
		m.sessions.Reset(userID)
		m.logTransition(ctx, userID, sess.State, StateMainMenu, "cancel")
		return []Reply{{Text: textCancelled, Menu: MainMenu()}}
	}

	var replies []Reply
	switch sess.State {
	case StateAwaitingName:
		replies = m.handleAwaitingName(ctx, userID, input)
	case StateAwaitingBirthdate:
		replies = m.handleAwaitingBirthdate(ctx, userID, sess, input)
	case StateProfileMenu:
		replies = m.handleProfileMenu(ctx, userID, input)
	case StateAwaitingNewName:
		replies = m.handleAwaitingNewName(ctx, userID, input)
	case StateAwaitingNewBirthdate:
		replies = m.handleAwaitingNewBirthdate(ctx, userID, input)
	case StateAwaitingLifeExpectancyChoice:
		replies = m.handleExpectancyChoice(ctx, userID, input)
	case StateAwaitingCustomLifeExpectancy:
		replies = m.handleCustomExpectancy(ctx, userID, input)
	case StateAwaitingNotificationChoice:
		replies = m.handleNotificationChoice(ctx, userID, input)
	case StateAwaitingDeleteConfirmation:
		replies = m.handleDeleteConfirmation(ctx, userID, input)
	default:
		replies = m.handleMainMenu(ctx, userID, input)
	}

	m.logTransition(ctx, userID, sess.State, m.sessions.Get(userID).State, input)
	return replies
}

func (m *Machine) handleMainMenu(ctx context.Context, userID int64, input string) []Reply {
	switch input {
	case BtnRegister:
		m.sessions.SetState(userID, StateAwaitingName)
		return []Reply{{Text: textAskName}}
	case BtnStats:
		return m.showStatistics(ctx, userID)
	case BtnCalendar:
		return m.showCalendar(ctx, userID)
	case BtnEdit:
		return m.openProfileMenu(ctx, userID)
	case BtnAbout:
		return []Reply{{Text: textAbout, Menu: MainMenu()}}
	default:
		return []Reply{{Text: textUseMenuButtons, Menu: MainMenu()}}
	}
}

func (m *Machine) handleAwaitingName(_ context.Context, userID int64, input string) []Reply {
	if input == "" {
		return []Reply{{Text: textAskName}}
	}
	m.sessions.SetPendingName(userID, input)
	m.sessions.SetState(userID, StateAwaitingBirthdate)
	return []Reply{{Text: textAskBirthdate}}
}

func (m *Machine) handleAwaitingBirthdate(ctx context.Context, userID int64, sess Session, input string) []Reply {
	birthdate, ok := parseBirthdate(input)
	if !ok {
		return []Reply{{Text: textBadDateFormat}}
	}
	if birthdate.After(m.today()) {
		return []Reply{{Text: textFutureDate}}
	}

	p := profile.Profile{
		UserID:               userID,
		Name:                 sess.PendingName,
		Birthdate:            birthdate,
		LifeExpectancy:       profile.DefaultLifeExpectancy,
		NotificationsEnabled: true,
	}
	if err := m.store.Upsert(ctx, p); err != nil {
		m.logStoreError(ctx, userID, "upsert", err)
		// Stay put so the user can retry without re-entering the name.
		return []Reply{{Text: textStoreWriteError}}
	}
	m.sessions.Reset(userID)
	return []Reply{{Text: textSaved, Menu: MainMenu()}}
}

func (m *Machine) showStatistics(ctx context.Context, userID int64) []Reply {
	p, err := m.store.Get(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		return []Reply{{Text: textNotRegistered, Menu: MainMenu()}}
	}
	if err != nil {
		m.logStoreError(ctx, userID, "get", err)
		m.sessions.SetState(userID, StateMainMenu)
		return []Reply{{Text: textStoreReadError, Menu: MainMenu()}}
	}
	return []Reply{{Text: StatisticsText(p, m.today()), Menu: MainMenu()}}
}

func (m *Machine) showCalendar(ctx context.Context, userID int64) []Reply {
	p, err := m.store.Get(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		return []Reply{{Text: textNotRegistered, Menu: MainMenu()}}
	}
	if err != nil {
		m.logStoreError(ctx, userID, "get", err)
		m.sessions.SetState(userID, StateMainMenu)
		return []Reply{{Text: textStoreReadError, Menu: MainMenu()}}
	}

	today := m.today()
	png, err := lifegrid.Render(p.Birthdate, p.LifeExpectancy, today)
	if err != nil {
		logger.Error(ctx, "dialog", "calendar.render",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return []Reply{{Text: textStoreReadError, Menu: MainMenu()}}
	}
	return []Reply{{
		Photo:   png,
		Caption: CalendarCaption(p, today),
		Menu:    MainMenu(),
	}}
}

func (m *Machine) openProfileMenu(ctx context.Context, userID int64) []Reply {
	p, err := m.store.Get(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		return []Reply{{Text: textNotRegistered, Menu: MainMenu()}}
	}
	if err != nil {
		m.logStoreError(ctx, userID, "get", err)
		m.sessions.SetState(userID, StateMainMenu)
		return []Reply{{Text: textStoreReadError, Menu: MainMenu()}}
	}

	m.sessions.SetState(userID, StateProfileMenu)
	notify := textNotifyDisabled
	if p.NotificationsEnabled {
		notify = textNotifyEnabled
	}
	text := fmt.Sprintf(
		"Текущие данные:\n👤 Имя: %s\n📅 Дата рождения: %s\n⏳ Продолжительность жизни: %d лет\n%s\n\nЧто хочешь изменить?",
		p.Name, formatBirthdate(p.Birthdate), p.LifeExpectancy, notify,
	)
	return []Reply{{Text: text, Menu: profileMenu()}}
}

func (m *Machine) handleProfileMenu(ctx context.Context, userID int64, input string) []Reply {
	switch input {
	case BtnEditName:
		m.sessions.SetState(userID, StateAwaitingNewName)
		return []Reply{{Text: textAskNewName}}
	case BtnEditBirthdate:
		m.sessions.SetState(userID, StateAwaitingNewBirthdate)
		return []Reply{{Text: textAskNewBirthdate}}
	case BtnEditExpectancy:
		m.sessions.SetState(userID, StateAwaitingLifeExpectancyChoice)
		return []Reply{{Text: textChooseExpectancy, Menu: expectancyMenu()}}
	case BtnNotifications:
		return m.openNotificationMenu(ctx, userID)
	case BtnDeleteProfile:
		m.sessions.SetState(userID, StateAwaitingDeleteConfirmation)
		return []Reply{{Text: textAskDeleteConfirm, Menu: deleteConfirmMenu()}}
	case BtnBackToMenu:
		m.sessions.SetState(userID, StateMainMenu)
		return []Reply{{Text: textBackToMenu, Menu: MainMenu()}}
	default:
		return []Reply{{Text: textUseMenuButtons, Menu: profileMenu()}}
	}
}

func (m *Machine) handleAwaitingNewName(ctx context.Context, userID int64, input string) []Reply {
	if input == "" {
		return []Reply{{Text: textAskNewName}}
	}
	if replies, failed := m.applyUpdate(ctx, userID, "update_name", func() error {
		return m.store.UpdateName(ctx, userID, input)
	}); failed {
		return replies
	}
	m.sessions.SetState(userID, StateMainMenu)
	return []Reply{{Text: fmt.Sprintf("✅ Имя успешно изменено на '%s'!", input), Menu: MainMenu()}}
}

func (m *Machine) handleAwaitingNewBirthdate(ctx context.Context, userID int64, input string) []Reply {
	birthdate, ok := parseBirthdate(input)
	if !ok {
		return []Reply{{Text: textBadDateFormat}}
	}
	if birthdate.After(m.today()) {
		return []Reply{{Text: textFutureDate}}
	}
	if replies, failed := m.applyUpdate(ctx, userID, "update_birthdate", func() error {
		return m.store.UpdateBirthdate(ctx, userID, birthdate)
	}); failed {
		return replies
	}
	m.sessions.SetState(userID, StateMainMenu)
	return []Reply{{
		Text: fmt.Sprintf("✅ Дата рождения успешно изменена на %s!", formatBirthdate(birthdate)),
		Menu: MainMenu(),
	}}
}

func (m *Machine) handleExpectancyChoice(ctx context.Context, userID int64, input string) []Reply {
	switch input {
	case BtnBack:
		return m.openProfileMenu(ctx, userID)
	case BtnCustomValue:
		m.sessions.SetState(userID, StateAwaitingCustomLifeExpectancy)
		return []Reply{{Text: textAskCustomValue}}
	}

	years, ok := parseCuratedExpectancy(input)
	if !ok {
		return []Reply{{Text: textBadExpectancy, Menu: expectancyMenu()}}
	}
	return m.saveExpectancy(ctx, userID, years)
}

func (m *Machine) handleCustomExpectancy(ctx context.Context, userID int64, input string) []Reply {
	years, ok := parseCustomExpectancy(input, profile.MinLifeExpectancy, profile.MaxLifeExpectancy)
	if !ok {
		return []Reply{{Text: textBadCustomValue}}
	}
	return m.saveExpectancy(ctx, userID, years)
}

func (m *Machine) saveExpectancy(ctx context.Context, userID int64, years int) []Reply {
	if replies, failed := m.applyUpdate(ctx, userID, "update_life_expectancy", func() error {
		return m.store.UpdateLifeExpectancy(ctx, userID, years)
	}); failed {
		return replies
	}
	m.sessions.SetState(userID, StateMainMenu)
	return []Reply{{
		Text: fmt.Sprintf("✅ Ожидаемая продолжительность жизни успешно изменена на %d лет!", years),
		Menu: MainMenu(),
	}}
}

func (m *Machine) openNotificationMenu(ctx context.Context, userID int64) []Reply {
	p, err := m.store.Get(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		return []Reply{{Text: textNotRegistered, Menu: MainMenu()}}
	}
	if err != nil {
		m.logStoreError(ctx, userID, "get", err)
		m.sessions.SetState(userID, StateMainMenu)
		return []Reply{{Text: textStoreReadError, Menu: MainMenu()}}
	}

	m.sessions.SetState(userID, StateAwaitingNotificationChoice)
	current := textNotifyDisabled
	if p.NotificationsEnabled {
		current = textNotifyEnabled
	}
	return []Reply{{
		Text: fmt.Sprintf("Сейчас: %s\nЕженедельная рассылка приходит по воскресеньям в 21:00.", current),
		Menu: notificationMenu(),
	}}
}

func (m *Machine) handleNotificationChoice(ctx context.Context, userID int64, input string) []Reply {
	var enabled bool
	switch input {
	case BtnNotifyOn:
		enabled = true
	case BtnNotifyOff:
		enabled = false
	case BtnBack:
		return m.openProfileMenu(ctx, userID)
	default:
		return []Reply{{Text: textUseMenuButtons, Menu: notificationMenu()}}
	}

	if replies, failed := m.applyUpdate(ctx, userID, "update_notifications", func() error {
		return m.store.UpdateNotifications(ctx, userID, enabled)
	}); failed {
		return replies
	}
	m.sessions.SetState(userID, StateMainMenu)
	text := textNotifyDisabled
	if enabled {
		text = textNotifyEnabled
	}
	return []Reply{{Text: text, Menu: MainMenu()}}
}

func (m *Machine) handleDeleteConfirmation(ctx context.Context, userID int64, input string) []Reply {
	switch input {
	case BtnDeleteYes:
		if err := m.store.Delete(ctx, userID); err != nil {
			m.logStoreError(ctx, userID, "delete", err)
			return []Reply{{Text: textStoreWriteError, Menu: deleteConfirmMenu()}}
		}
		m.sessions.Reset(userID)
		return []Reply{{Text: textDeleted, Menu: MainMenu()}}
	case BtnDeleteNo:
		m.sessions.SetState(userID, StateMainMenu)
		return []Reply{{Text: textDeleteKept, Menu: MainMenu()}}
	default:
		return []Reply{{Text: textDeleteChooseEmoji, Menu: deleteConfirmMenu()}}
	}
}

// applyUpdate runs a single-field store write. On failure the state stays
// unchanged so the user's input is not lost; a missing profile resolves to
// the main menu instead.
func (m *Machine) applyUpdate(ctx context.Context, userID int64, op string, write func() error) ([]Reply, bool) {
	err := write()
	if err == nil {
		return nil, false
	}
	if errors.Is(err, profile.ErrNotFound) {
		m.sessions.SetState(userID, StateMainMenu)
		return []Reply{{Text: textNotRegistered, Menu: MainMenu()}}, true
	}
	m.logStoreError(ctx, userID, op, err)
	return []Reply{{Text: textStoreWriteError}}, true
}

func (m *Machine) today() time.Time {
	now := m.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (m *Machine) logTransition(ctx context.Context, userID int64, from, to State, input string) {
	logger.Debug(ctx, "dialog", "fsm.transition",
		slog.Int64("user_id", userID),
		slog.String("state", string(from)),
		slog.String("next_state", string(to)),
		slog.String("input", logger.SanitizeLimit(input, 64)),
	)
}

func (m *Machine) logStoreError(ctx context.Context, userID int64, op string, err error) {
	logger.Error(ctx, "dialog", "store."+op,
		slog.String("status", "fail"),
		slog.Int64("user_id", userID),
		slog.String("err", err.Error()),
	)
}

// StatisticsText renders the statistics block for one profile.
func StatisticsText(p profile.Profile, today time.Time) string {
	elapsed := lifecalc.ComputeElapsed(p.Birthdate, today)
	remaining := lifecalc.ComputeRemaining(p.Birthdate, today, p.LifeExpectancy)

	return fmt.Sprintf(
		"📊 Статистика для %s:\n\n"+
			"📅 Дата рождения: %s\n"+
			"⏱ Прожито дней: %d\n"+
			"📆 Прожито недель: %d\n"+
			"🗓 Прожито месяцев: %d\n"+
			"🎂 Прожито лет: %d\n\n"+
			"⏳ Ожидаемая продолжительность жизни: %d лет\n"+
			"⌛ Осталось: %d лет и %d мес.\n"+
			"📅 Это примерно %d дней\n"+
			"📆 Или %d недель",
		p.Name,
		formatBirthdate(p.Birthdate),
		elapsed.Days,
		elapsed.Weeks,
		elapsed.Months,
		elapsed.Years,
		p.LifeExpectancy,
		remaining.Years,
		remaining.Months,
		remaining.Days,
		remaining.Weeks,
	)
}

// CalendarCaption renders the caption attached to the life calendar image.
func CalendarCaption(p profile.Profile, today time.Time) string {
	return fmt.Sprintf(
		"📅 Календарь жизни для %s\n\nКаждый красный квадрат - прожитая неделя.\nВсего прожито: %d недель.",
		p.Name, lifecalc.WeeksLived(p.Birthdate, today),
	)
}
