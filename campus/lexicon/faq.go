package lexicon

// FAQ texts.
const (
	FAQ      = "Частые вопросы. Выбери тему:"
	FAQLater = "Ответ на этот вопрос скоро добавим."
)

// FAQQuestion is one question of a section.
type FAQQuestion struct {
	Tag   string
	Title string
}

// FAQSection groups questions under a topic button.
type FAQSection struct {
	Tag       string
	Title     string
	Questions []FAQQuestion
}

// FAQSections is the first FAQ level in display order. Tags are callback
// values and must stay short and free of ':'.
var FAQSections = []FAQSection{
	{Tag: "services", Title: "Сервисы кампуса", Questions: []FAQQuestion{
		{Tag: "svc_cowo", Title: "Как забронировать коворкинг?"},
		{Tag: "svc_rooms", Title: "Можно ли забронировать переговорную?"},
		{Tag: "svc_print", Title: "Где распечатать документы?"},
	}},
	{Tag: "living", Title: "Проживание", Questions: []FAQQuestion{
		{Tag: "liv_repair", Title: "Сломалось что-то в комнате"},
		{Tag: "liv_guests", Title: "Можно ли приводить гостей?"},
	}},
	{Tag: "events", Title: "Мероприятия", Questions: []FAQQuestion{
		{Tag: "evt_checkin", Title: "Как отметиться на мероприятии?"},
		{Tag: "evt_propose", Title: "Как предложить своё мероприятие?"},
	}},
}

// FAQAnswers maps question tags to answers. Questions without an entry get FAQLater.
var FAQAnswers = map[string]string{
	"svc_cowo":    "Открой меню, нажми «Забронировать коворкинг», выбери коворкинг, дату и свободное время.",
	"svc_rooms":   "Переговорные бронирует администратор. Напиши ему или обратись на стойку ресепшен.",
	"liv_repair":  "Нажми «Сообщить о проблеме» в меню и пришли фото. Заявку увидит администрация.",
	"evt_checkin": "Отсканируй QR-код мероприятия: бот откроется и отметит посещение автоматически.",
}

// FAQSectionByTag finds a first-level section.
func FAQSectionByTag(tag string) (FAQSection, bool) {
	for _, s := range FAQSections {
		if s.Tag == tag {
			return s, true
		}
	}
	return FAQSection{}, false
}

// FAQAnswer returns the answer of a question tag or FAQLater.
func FAQAnswer(tag string) string {
	if a, ok := FAQAnswers[tag]; ok {
		return a
	}
	return FAQLater
}
