package dialog

// Button labels. These exact strings drive state transitions, so they are
// shared between keyboards and the transition switch.
const (
	BtnRegister = "📝 Регистрация"
	BtnStats    = "📊 Моя статистика"
	BtnCalendar = "📅 Календарь жизни"
	BtnEdit     = "✏️ Изменить данные"
	BtnAbout    = "ℹ️ О боте"

	BtnEditName       = "✏️ Изменить имя"
	BtnEditBirthdate  = "📅 Изменить дату рождения"
	BtnEditExpectancy = "⏳ Изменить продолжительность жизни"
	BtnNotifications  = "🔔 Уведомления"
	BtnDeleteProfile  = "🗑 Удалить профиль"
	BtnBackToMenu     = "🔙 Назад в меню"

	BtnExpectancy70 = "70 лет"
	BtnExpectancy80 = "80 лет"
	BtnExpectancy90 = "90 лет"
	BtnCustomValue  = "✏️ Другое значение"
	BtnBack         = "🔙 Назад"

	BtnNotifyOn  = "🔔 Включить"
	BtnNotifyOff = "🔕 Выключить"

	BtnDeleteYes = "✅ Да, удалить"
	BtnDeleteNo  = "❌ Нет, оставить"

	BtnCancel = "Отмена"
)

// Free-standing reply texts.
const (
	textGreeting = "Привет! Я бот для отслеживания прожитых недель. Выбери действие:"
	textAbout    = "Этот бот помогает отслеживать количество прожитых недель. " +
		"Каждое воскресенье в 21:00 ты будешь получать уведомление с текстовой статистикой и календарем жизни. " +
		"Отключить уведомления можно в разделе «✏️ Изменить данные»."
	textUseMenuButtons = "Пожалуйста, используй кнопки меню для навигации."
	textCancelled      = "Операция отменена."
	textNotRegistered  = "❌ Ты еще не зарегистрирован. Выбери пункт 'Регистрация' в меню."

	textAskName      = "Как тебя зовут?"
	textAskBirthdate = "Отлично! Теперь введи свою дату рождения в формате ДД.ММ.ГГГГ"
	textSaved        = "✅ Данные сохранены! Каждое воскресенье в 21:00 ты будешь получать обновление."

	textBadDateFormat = "❌ Неверный формат. Используй ДД.ММ.ГГГГ:"
	textFutureDate    = "Дата рождения не может быть в будущем. Введи снова:"

	textAskNewName       = "Введи новое имя:"
	textAskNewBirthdate  = "Введи новую дату рождения в формате ДД.ММ.ГГГГ:"
	textChooseExpectancy = "Выбери ожидаемую продолжительность жизни:"
	textAskCustomValue   = "Введи свою продолжительность жизни (от 50 до 120 лет):"
	textBadExpectancy    = "❌ Пожалуйста, выбери одно из предложенных значений."
	textBadCustomValue   = "❌ Введи целое число от 50 до 120:"

	textAskDeleteConfirm  = "Точно удалить профиль? Это действие необратимо."
	textDeleted           = "✅ Профиль удален."
	textDeleteKept        = "Профиль оставлен без изменений."
	textDeleteChooseEmoji = "Пожалуйста, выбери один из двух вариантов."

	textBackToMenu = "Возвращаемся в главное меню."

	textNotifyEnabled  = "✅ Уведомления включены."
	textNotifyDisabled = "🔕 Уведомления выключены."

	textStoreReadError  = "❌ Произошла ошибка при получении данных. Пожалуйста, попробуйте позже."
	textStoreWriteError = "❌ Произошла ошибка при сохранении данных. Пожалуйста, попробуйте позже."
)
