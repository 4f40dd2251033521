package bot

// User-facing texts. The bot speaks Russian; everything else in the codebase
// stays English.
const (
	msgGreeting = "Привет! 👋\nЯ бот-опросник по теме ЯНАО.\nИспользуйте кнопки ниже."
	msgMainMenu = "Главное меню:"

	msgOrderingDenied   = "Вы не можете пройти этот опрос, так как не прошли предыдущие."
	msgAlreadyCompleted = "Вы уже проходили этот опрос."
	msgFreeTextHint     = "(Пожалуйста, ответьте сообщением.)"
	msgSurveyThanksFmt  = "Спасибо за прохождение опроса №%d! 📋"
	msgAllSurveysThanks = "Спасибо за прохождение всех опросов! 🎉 Мы ценим ваше мнение ❤️"

	msgNoResults        = "Нет сохранённых ответов."
	msgResultsSurveyFmt = "Опрос №%d:"
	msgResultsAnswerFmt = "  Вопрос %d: %s"

	msgFeedbackPrompt      = "Напишите ваше сообщение для тех. поддержки:"
	msgFeedbackPromptShort = "Напишите ваше сообщение:"
	msgFeedbackThanks      = "Спасибо за сообщение."
	msgModeratorNewFmt     = "Новое обращение *#%d* от %s:\n\n%s"
	msgDigestItemFmt       = "#%d от %s:\n\n%s"
	msgReplyPromptFmt    = "Введите ответ для обращения #%d:"
	msgReplySentAck      = "Ответ отправлен."
	msgModeratorReplyFmt = "Ответ модератора:\n\n%s"

	msgNoRights      = "Нет прав."
	msgNoNewFeedback = "Новых сообщений нет."
	msgDigestSentFmt = "Отправлено %d обращений."

	btnRepeatSurvey = "Пройти заново"
	btnBackToMenu   = "Вернуться в меню"
	btnNextSurvey   = "Следующий опрос"
	btnReply        = "Ответить"
	btnSurveyFmt    = "Опрос №%d"
	btnFeedback     = "Обратная связь"
	btnMyResults    = "Мои ответы"

	quickMenu     = "📜 Меню"
	quickMenuAlt  = "Показать меню"
	quickResults  = "🏆 Мои ответы"
	quickFeedback = "🗣️ Обратная связь"
)
