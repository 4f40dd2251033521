// Package catalog holds the static survey content: three surveys of three
// questions each. The content is fixed at compile time and is not meant to be
// configurable.
package catalog

const (
	// SurveyCount is the number of surveys a user can take, in strict order.
	SurveyCount = 3
	// QuestionsPerSurvey is the fixed length of every survey.
	QuestionsPerSurvey = 3
)

// Question is a single survey question. Options is nil for free-text
// questions; otherwise the answer is one of the listed options.
type Question struct {
	Text    string
	Options []string
	Image   string
}

// FreeText reports whether the question expects an arbitrary text reply.
func (q Question) FreeText() bool {
	return len(q.Options) == 0
}

// Survey is an ordered set of questions identified by a 1-based number.
type Survey struct {
	Number    int
	Questions [QuestionsPerSurvey]Question
}

// Question returns the question at a 1-based position.
func (s Survey) Question(num int) (Question, bool) {
	if num < 1 || num > QuestionsPerSurvey {
		return Question{}, false
	}
	return s.Questions[num-1], true
}

// Get returns the survey with the given 1-based number.
func Get(num int) (Survey, bool) {
	if num < 1 || num > SurveyCount {
		return Survey{}, false
	}
	return surveys[num-1], true
}

// All returns the surveys in order.
func All() []Survey {
	out := make([]Survey, SurveyCount)
	copy(out, surveys[:])
	return out
}

const imageBase = "https://kmbidgmqvjqnhmvvbjcv.supabase.co/storage/v1/object/public/survey-images/"

var surveys = [SurveyCount]Survey{
	{
		Number: 1,
		Questions: [QuestionsPerSurvey]Question{
			{
				Text:    "Какая природная особенность Ямало-Ненецкого автономного округа вам наиболее интересна?",
				Options: []string{"Тундра и её ландшафты", "Северное сияние", "Болота и реки"},
				Image:   imageBase + "0000.jpg",
			},
			{
				Text:    "Какая экологическая проблема региона вызывает у вас наибольшее беспокойство?",
				Options: []string{"Загрязнение от промышленности", "Изменение климата", "Загрязнение рек и озёр"},
				Image:   imageBase + "mishki.jpg",
			},
			{
				Text:  "Какие меры, по вашему мнению, нужно принять для сохранения природы ЯНАО?",
				Image: imageBase + "priroda3.jpg",
			},
		},
	},
	{
		Number: 2,
		Questions: [QuestionsPerSurvey]Question{
			{
				Text:    "Что, на ваш взгляд, важнее для будущего региона?",
				Options: []string{"Промышленное развитие", "Сохранение традиций", "Компромисс между ними"},
				Image:   imageBase + "region4.jpg",
			},
			{
				Text:    "Как вы относитесь к строительству новых дорог и мостов в ЯНАО?",
				Options: []string{"Поддерживаю — нужно развивать", "Нужно осторожно — с учётом природы", "Не важно / без разницы"},
				Image:   imageBase + "dorogi5.jpg",
			},
			{
				Text:  "Какие проекты или инициативы вы хотели бы видеть для развития ЯНАО?",
				Image: imageBase + "vopros6.jpg",
			},
		},
	},
	{
		Number: 3,
		Questions: [QuestionsPerSurvey]Question{
			{
				Text:    "Какие традиционные занятия жителей ЯНАО вы считаете наиболее важными для сохранения?",
				Options: []string{"Оленеводство", "Рыболовство", "Народные ремёсла"},
				Image:   imageBase + "narod7.jpg",
			},
			{
				Text:    "Как вы оцениваете уровень сохранения культуры и языка коренных народов?",
				Options: []string{"Хорошо сохраняется", "Требует срочной поддержки", "Практически утерян"},
				Image:   imageBase + "culture8.jpg",
			},
			{
				Text:  "Что, по вашему мнению, можно сделать для популяризации культуры ЯНАО среди молодёжи?",
				Image: imageBase + "molodej9.jpg",
			},
		},
	},
}
