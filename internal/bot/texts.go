package bot

// Chat copy. Markdown texts use Telegram's legacy Markdown (*bold*, `code`).
const (
	textWelcome = `🤖 Вітаю! Я бот для управління договорами.

Що я вмію:
📋 Показувати список договорів
💰 Генерувати рахунки
📄 Створювати акти виконаних робіт
📊 Надавати статистику
➕ Допомагати з новими договорами
🔍 Швидкий пошук та фільтрація
📤 Експорт даних

Оберіть дію з меню або використовуйте швидкі команди:
• /list - список договорів
• /stats - статистика
• /search <текст> - пошук
• /help - допомога`

	textHelp = "🆘 *Довідка по командах:*\n\n" +
		"*Основні команди:*\n" +
		"• /start - головне меню\n" +
		"• /list [фільтр] - список договорів\n" +
		"• /stats - статистика\n" +
		"• /search <текст> - пошук договорів\n" +
		"• /export [формат] - експорт даних\n" +
		"• /health - стан системи\n" +
		"• /cache [clear] - кеш відповідей\n\n" +
		"*Фільтри для /list:*\n" +
		"• `/list активні` - тільки активні договори\n" +
		"• `/list >50000` - сума більше 50,000\n" +
		"• `/list грудень` - договори за грудень\n" +
		"• `/list ТОВ` - клієнти з \"ТОВ\" в назві\n\n" +
		"*Формати експорту:*\n" +
		"• `/export excel` - Excel файл\n" +
		"• `/export pdf` - PDF звіт\n" +
		"• `/export json` - JSON дані\n\n" +
		"*Швидкі дії:*\n" +
		"• `/regen W-25-01` - перегенерувати договір\n" +
		"• `/invoice W-25-01` - створити рахунок\n" +
		"• `/act W-25-01` - створити акт"

	textErrorGeneric     = "❌ Виникла помилка. Спробуйте пізніше."
	textInvalidFormat    = "⚠️ Неправильний формат. Перевірте введені дані."
	textLoading          = "⏳ Завантажую..."
	textNoContracts      = "📋 Немає договорів за вашим запитом."
	textNoActive         = "📋 Немає активних договорів."
	textStatsNoData      = "📊 Немає даних для статистики."
	textSearchPrompt     = "🔍 Введіть запит для пошуку (номер, клієнт, сума):"
	textSearchTooShort   = "⚠️ Запит занадто короткий. Мінімум %d символи."
	textExportProcessing = "📤 Готую експорт даних..."
	textExportFailed     = "❌ Помилка при експорті даних."
	textExportChoose     = "📤 Оберіть формат експорту:"
	textExportCaption    = "📤 Експорт договорів (%d записів)"
	textExportFormats    = "⚠️ Непідтримуваний формат. Доступні: excel, pdf, json"
	textNumberUsage      = "⚠️ Вкажіть номер договору: наприклад, `/%s W-24-01`"
	textNumberFormat     = "⚠️ Неправильний формат номера договору. Очікується: W-YY-XX"
	textUnknownAction    = "⚠️ Невідома дія. Поверніться до головного меню."
	textUnknownCommand   = "❓ Невідома команда. Спробуйте /help"
	textNotUnderstood    = "Не розумію команду. Оберіть дію з меню або використовуйте /help для довідки."
	textChooseAction     = "Оберіть дію:"
	textInDevelopment    = "🚧 Ця функція в розробці."
	textHealthOK         = "✅ Система працює нормально\n⏱️ Час відповіді: %dms"
	textHealthFailed     = "❌ Проблеми з системою: %s"
	textCacheStats       = "🗄️ *Кеш відповідей*\n\nЗаписів: *%d*\nВитіснено: *%d*\nПрострочено: *%d*"
	textCacheCleared     = "🗑️ Кеш очищено."
	textContractNotFound = "❌ Договір %s не знайдено."
	textPickerHeader     = "%s\n\nОберіть договір:"

	textEditPrompt = "✏️ *Редагування договору %s*\n\n" +
		"Надішліть зміни у форматі: `поле=значення; поле2=значення2`\n\n" +
		"*Доступні поля:*\n" +
		"• `amount=120000` - сума\n" +
		"• `description=Новий опис` - опис послуг\n" +
		"• `client=Нова назва` - назва клієнта\n" +
		"• `performer=Інший виконавець` - виконавець\n\n" +
		"*Приклад:*\n" +
		"`amount=75000; description=Розробка сайту та мобільного додатку`"
	textEditSuccess   = "✅ *Договір оновлено!*\n\nОновлені документи:"
	textEditCancelled = "❌ Редагування скасовано."
	textEditUpdating  = "✏️ Оновлюю договір %s..."
	textEditFailed    = "❌ Помилка оновлення договору %s. Спробуйте пізніше."

	textInvoiceWorking = "💰 Генерую рахунок для договору %s..."
	textInvoiceDone    = "✅ Рахунок створено!\n\n📄 [Переглянути рахунок](%s)"
	textInvoiceFailed  = "❌ Помилка створення рахунку для %s. Спробуйте пізніше."
	textActWorking     = "📄 Генерую акт для договору %s..."
	textActDone        = "✅ Акт створено!\n\n📄 [Переглянути акт](%s)"
	textActFailed      = "❌ Помилка створення акту для %s. Спробуйте пізніше."
	textRegenWorking   = "🔄 Перегенеровую всі документи для договору %s..."
	textRegenDone      = "✅ Документи оновлено для %s!"
	textRegenFailed    = "❌ Помилка перегенерації %s. Спробуйте пізніше."

	textNewContractForm = "➕ *Створення нового договору*\n\n" +
		"Для створення нового договору заповніть форму в Google Forms.\n\n" +
		"📋 *Поля форми:*\n" +
		"• Клієнт (назва організації)\n" +
		"• Вид діяльності\n" +
		"• Директор/Керівник\n" +
		"• ЄДРПОУ замовника\n" +
		"• Опис робіт/послуг\n" +
		"• Вартість (в гривнях)\n" +
		"• Виконавець\n\n" +
		"Після заповнення форми договір буде автоматично створений і ви отримаєте сповіщення в цьому чаті."

	textSettingsHeader = "⚙️ *Налаштування системи*\n\n" +
		"🔧 *Поточні налаштування:*\n" +
		"• Автосповіщення: ✅ Увімкнено\n" +
		"• Формат номера: W-(YY)-XX\n" +
		"• Папка Drive: Налаштовано\n" +
		"• Мова інтерфейсу: Українська\n\n" +
		"📝 *Доступні дії:*"

	textFiltersHeader = "🎛️ *Фільтри*\n\nОберіть фільтр для списку договорів:"
)

// Reply keyboard button texts. A text message equal to one of these is a menu action.
const (
	menuList       = "📋 Список договорів"
	menuNew        = "➕ Новий договір"
	menuInvoice    = "💰 Згенерувати рахунок"
	menuAct        = "📄 Згенерувати акт"
	menuRegenerate = "🔁 Перегенерувати"
	menuEdit       = "✏️ Редагувати договір"
	menuStats      = "📊 Статистика"
	menuSettings   = "⚙️ Налаштування"
	backToMenu     = "🔙 Назад до меню"
)

func isMenuText(text string) bool {
	switch text {
	case menuList, menuNew, menuInvoice, menuAct, menuRegenerate, menuEdit, menuStats, menuSettings:
		return true
	}
	return false
}
