// Package lexicon holds the user-visible texts of the bot.
package lexicon

import "fmt"

// Menus and commands.
const (
	StartStudent = "Привет! Я бот кампуса. Здесь можно забронировать коворкинг, " +
		"отметиться на мероприятии, сообщить о проблеме и найти ответы на частые вопросы.\n\nВыбери, что нужно:"
	StartAdmin = "Панель администратора. Выбери действие:"
	Help       = "Я помогаю студентам кампуса.\n\n" +
		"/start - главное меню\n" +
		"/help - эта справка\n\n" +
		"Если у тебя есть QR-код мероприятия, просто отсканируй его: бот сам отметит посещение."
	AIMode = "Режим ИИ-ассистента скоро появится. Следи за обновлениями!"

	CommandStart  = "Главное меню"
	CommandHelp   = "Справка"
	CommandAIMode = "ИИ-ассистент"
)

// Generic replies.
const (
	Unrecognized      = "Я не понял сообщение. Воспользуйся меню: /start"
	AccessDenied      = "Доступ запрещён. Нажми /start, чтобы зарегистрироваться."
	TryLater          = "Сервис временно недоступен. Попробуй позже."
	GenericFailure    = "Что-то пошло не так. Начни заново: /start"
	UnsupportedAction = "Это действие больше не поддерживается"
	TooFast           = "Слишком много запросов. Подожди немного."
)

// Check-in.
const (
	CheckInSuccess = "Посещение отмечено! Спасибо, что пришёл."
	CheckInFailure = "Не удалось отметить посещение: QR-код недействителен или устарел."
	CheckIn        = "Чтобы отметиться, отсканируй QR-код на стойке мероприятия камерой телефона. " +
		"Ссылка откроет этого бота и посещение засчитается автоматически."
	AdminCheckIn = "Чтобы студенты могли отметиться, покажи им QR-код мероприятия. " +
		"Сгенерировать код можно в панели Verify."
)

// Coworking booking.
const (
	CoworkingChoose = "Выбери коворкинг:"
	CoworkingEmpty  = "Сейчас нет доступных коворкингов."
	DateChoose      = "Выбери дату:"
	TimeChoose      = "Выбери время:"
	NoFreeTimes     = "На эту дату свободного времени нет. Выбери другую дату."
	SlotTaken       = "Это время уже занято. Выбери другое."
)

// BookingSuccess confirms a coworking reservation.
func BookingSuccess(coworkingID, slot string) string {
	return fmt.Sprintf("Готово! Коворкинг №%s забронирован на %s.", coworkingID, slot)
}

// CoworkingButton labels a coworking in the picker.
func CoworkingButton(id string) string {
	return fmt.Sprintf("Коворкинг номер %s", id)
}

// Student screens.
const (
	NvkLinks = "Полезные ссылки НВК:\n" +
		"• Расписание занятий - в личном кабинете студента\n" +
		"• Новости кампуса - в официальном канале\n" +
		"• Поддержка - через раздел «Сообщить о проблеме»"
	Report          = "Опиши проблему и пришли одно фото с подписью. Мы передадим его администрации."
	ReportPhotoHint = "Нужна фотография. Пришли фото с подписью или вернись в меню."
	ReportSent      = "Успешно, твоя заявка отправлена!"
	ReportProcessed = "Твоя заявка обработана. Спасибо, что помогаешь сделать кампус лучше!"
)

// ReportForModeration introduces a student photo in the moderation chat.
func ReportForModeration(name string, userID int64) string {
	return fmt.Sprintf("Новая заявка от %s (id %d). Нажми кнопку, когда она будет обработана.", name, userID)
}

// ReportProcessedMark replaces the moderation message once handled.
func ReportProcessedMark(admin string) string {
	return fmt.Sprintf("✅ Заявка обработана (%s)", admin)
}

// Admin screens.
const (
	Mailing           = "Пришли сообщение для рассылки. Его получат все пользователи бота."
	BookingRoom       = "Выбери свободную комнату:"
	NoFreeRooms       = "Свободных комнат нет."
	RoomAlreadyBooked = "Эта комната уже забронирована."
	RoomReleased      = "Бронирование завершено."
)

// MailingDone reports a finished broadcast.
func MailingDone(delivered, failed int) string {
	return fmt.Sprintf("Рассылка завершена. Доставлено: %d, не доставлено: %d.", delivered, failed)
}

// RoomBooked confirms an admin room reservation.
func RoomBooked(id string) string {
	return fmt.Sprintf("Комната %s забронирована. Когда закончишь, нажми «Завершить бронь».", id)
}

// RoomButton labels a room in the picker.
func RoomButton(id string) string {
	return fmt.Sprintf("Комната %s", id)
}

// Button labels.
const (
	BtnMenu            = "🏠 Меню"
	BtnCoworking       = "Забронировать коворкинг"
	BtnNvkLinks        = "Ссылки НВК"
	BtnCheckIn         = "Отметиться на мероприятии"
	BtnReport          = "Сообщить о проблеме"
	BtnFAQ             = "Частые вопросы"
	BtnMailing         = "Рассылка"
	BtnBookingRoom     = "Забронировать комнату"
	BtnAdminCheckIn    = "Отметки на мероприятиях"
	BtnEndRoom         = "Завершить бронь"
	BtnReportProcessed = "Обработано"
)
