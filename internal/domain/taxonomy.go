package domain

// TopicDomain задаёт тематическую область дебатного топика.
type TopicDomain string

const (
	// DomainPolitics — политика и госуправление.
	DomainPolitics TopicDomain = "politics"
	// DomainEconomy — экономика и финансы.
	DomainEconomy TopicDomain = "economy"
	// DomainSociety — общество и социальная политика.
	DomainSociety TopicDomain = "society"
	// DomainTechnology — технологии и наука.
	DomainTechnology TopicDomain = "technology"
	// DomainCulture — культура и медиа.
	DomainCulture TopicDomain = "culture"
	// DomainEnvironment — экология и климат.
	DomainEnvironment TopicDomain = "environment"
)

// TopicSlot описывает один фиксированный дебатный топик.
// Справочник неизменяемый: слоты не создаются и не правятся в рантайме.
type TopicSlot struct {
	Code         string
	Domain       TopicDomain
	CoreQuestion string
	StanceLabels [2]string
	Core         bool
}

// topicSlots — полный реестр топиков. Код = префикс области + порядковый номер,
// первый слот области считается представительским (Core).
var topicSlots = []TopicSlot{
	{Code: "PO1", Domain: DomainPolitics, CoreQuestion: "Нужно ли ограничить количество сроков для депутатов?", StanceLabels: [2]string{"Ограничить", "Оставить как есть"}, Core: true},
	{Code: "PO2", Domain: DomainPolitics, CoreQuestion: "Должно ли голосование быть обязательным?", StanceLabels: [2]string{"Обязательное", "Добровольное"}},
	{Code: "EC1", Domain: DomainEconomy, CoreQuestion: "Нужен ли безусловный базовый доход?", StanceLabels: [2]string{"Ввести", "Не вводить"}, Core: true},
	{Code: "EC2", Domain: DomainEconomy, CoreQuestion: "Стоит ли повышать налог на сверхприбыль корпораций?", StanceLabels: [2]string{"Повысить", "Не трогать"}},
	{Code: "SO1", Domain: DomainSociety, CoreQuestion: "Должна ли четырёхдневная рабочая неделя стать нормой?", StanceLabels: [2]string{"Переходить", "Сохранить пятидневку"}, Core: true},
	{Code: "SO2", Domain: DomainSociety, CoreQuestion: "Следует ли запретить смартфоны в школах?", StanceLabels: [2]string{"Запретить", "Разрешить"}},
	{Code: "TE1", Domain: DomainTechnology, CoreQuestion: "Нужно ли лицензировать крупные ИИ-модели?", StanceLabels: [2]string{"Лицензировать", "Не регулировать"}, Core: true},
	{Code: "TE2", Domain: DomainTechnology, CoreQuestion: "Должны ли соцсети проверять возраст пользователей?", StanceLabels: [2]string{"Проверять", "Не проверять"}},
	{Code: "CU1", Domain: DomainCulture, CoreQuestion: "Следует ли возвращать музейные экспонаты странам происхождения?", StanceLabels: [2]string{"Возвращать", "Оставить в музеях"}, Core: true},
	{Code: "CU2", Domain: DomainCulture, CoreQuestion: "Убивает ли стриминг кинотеатры?", StanceLabels: [2]string{"Убивает", "Дополняет"}},
	{Code: "EN1", Domain: DomainEnvironment, CoreQuestion: "Нужно ли запретить продажу новых машин с ДВС к 2035 году?", StanceLabels: [2]string{"Запретить", "Не запрещать"}, Core: true},
	{Code: "EN2", Domain: DomainEnvironment, CoreQuestion: "Является ли атомная энергетика зелёной?", StanceLabels: [2]string{"Зелёная", "Не зелёная"}},
}

var topicIndex = buildTopicIndex()

func buildTopicIndex() map[string]TopicSlot {
	idx := make(map[string]TopicSlot, len(topicSlots))
	for _, slot := range topicSlots {
		idx[slot.Code] = slot
	}
	return idx
}

// AllTopicSlots возвращает копию реестра топиков.
func AllTopicSlots() []TopicSlot {
	out := make([]TopicSlot, len(topicSlots))
	copy(out, topicSlots)
	return out
}

// TopicByCode возвращает топик по коду.
func TopicByCode(code string) (TopicSlot, bool) {
	slot, ok := topicIndex[code]
	return slot, ok
}

// CoreTopicCodes возвращает по одному представительскому слоту на область.
func CoreTopicCodes() []string {
	out := make([]string, 0, len(topicSlots))
	for _, slot := range topicSlots {
		if slot.Core {
			out = append(out, slot.Code)
		}
	}
	return out
}
