package bot

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"contract-bot/internal/backend"
	"contract-bot/internal/cache"
)

const maxMessageLength = 4000

var amountPrinter = message.NewPrinter(language.Ukrainian)

// formatAmount renders hryvnia amounts with Ukrainian digit grouping.
func formatAmount(a backend.Amount) string {
	if a == 0 {
		return "0 грн"
	}
	return amountPrinter.Sprint(number.Decimal(float64(a), number.MaxFractionDigits(2))) + " грн"
}

func formatDate(c backend.Contract) string {
	if c.Date == "" {
		return "Не вказано"
	}
	if t, ok := c.ParsedDate(); ok {
		return t.Format("02.01.2006")
	}
	return c.Date
}

var statusEmoji = map[string]string{
	"активний":   "✅",
	"завершений": "✔️",
	"скасований": "❌",
	"чернетка":   "📝",
	"очікує":     "⏳",
}

func statusIcon(status string) string {
	return statusEmoji[strings.ToLower(status)]
}

var markdownEscaper = strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "[", "\\[")

// escapeMarkdown neutralises legacy Markdown control characters in backend data.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageLength {
		return s
	}
	return string(r[:maxMessageLength-3]) + "..."
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatContractsList(contracts []backend.Contract, page, totalPages int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Список договорів* (сторінка %d/%d):\n\n", page, totalPages)
	for i, c := range contracts {
		fmt.Fprintf(&b, "*%d.* %s %s\n", i+1, escapeMarkdown(c.Number), statusIcon(c.Status))
		fmt.Fprintf(&b, "   👤 %s\n", escapeMarkdown(c.Client))
		fmt.Fprintf(&b, "   💰 %s\n", formatAmount(c.Amount))
		fmt.Fprintf(&b, "   📅 %s\n\n", formatDate(c))
	}
	return truncate(b.String())
}

func formatContractDetails(c backend.Contract) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Деталі договору %s* %s\n\n", escapeMarkdown(c.Number), statusIcon(c.Status))
	fmt.Fprintf(&b, "👤 *Клієнт:* %s\n", escapeMarkdown(c.Client))
	fmt.Fprintf(&b, "💰 *Сума:* %s\n", formatAmount(c.Amount))
	fmt.Fprintf(&b, "📅 *Дата:* %s\n", formatDate(c))
	fmt.Fprintf(&b, "👨‍💼 *Виконавець:* %s\n", escapeMarkdown(orDefault(c.Performer, "Не вказано")))
	fmt.Fprintf(&b, "📝 *Статус:* %s\n\n", escapeMarkdown(orDefault(c.Status, "Активний")))
	fmt.Fprintf(&b, "📄 *Опис:*\n%s\n\n", escapeMarkdown(orDefault(c.Description, "Не вказано")))
	b.WriteString("🔗 *Документи:*\n")
	b.WriteString(docLine("Договір", c.ContractURL))
	b.WriteString(docLine("Рахунок", c.InvoiceURL))
	b.WriteString(docLine("Акт", c.ActURL))
	if c.FolderURL != "" {
		fmt.Fprintf(&b, "• [Папка Drive](%s)\n", c.FolderURL)
	}
	return truncate(b.String())
}

func docLine(name, url string) string {
	if url == "" {
		return fmt.Sprintf("• %s: не створено\n", name)
	}
	return fmt.Sprintf("• [%s](%s)\n", name, url)
}

// formatDocumentLinks appends whichever document links the backend returned.
func formatDocumentLinks(header string, urls *backend.DocumentURLs) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	if urls == nil {
		return b.String()
	}
	if urls.ContractURL != "" {
		fmt.Fprintf(&b, "📋 [Договір](%s)\n", urls.ContractURL)
	}
	if urls.InvoiceURL != "" {
		fmt.Fprintf(&b, "💰 [Рахунок](%s)\n", urls.InvoiceURL)
	}
	if urls.ActURL != "" {
		fmt.Fprintf(&b, "📄 [Акт](%s)\n", urls.ActURL)
	}
	return b.String()
}

func formatStatistics(s *backend.Stats) string {
	month := backend.MonthStats{}
	if s.ThisMonth != nil {
		month = *s.ThisMonth
	}
	return fmt.Sprintf(`📊 *Статистика договорів*

📋 Всього договорів: *%v*
✅ Активних: *%v*
✔️ Виконаних: *%v*
❌ Скасованих: *%v*

💰 Загальна сума активних: *%s*
📅 Середній термін виконання: *%v днів*

🎯 *За поточний місяць:*
   ➕ Створено: *%v*
   ✅ Завершено: *%v*
   💰 Сума: *%s*

📈 *Тренди:*
   • Середня сума договору: *%s*
   • Найбільший договір: *%s*
   • Успішність виконання: *%v%%*`,
		float64(s.Total), float64(s.Active), float64(s.Completed), float64(s.Cancelled),
		formatAmount(s.TotalAmount), float64(s.AvgDuration),
		float64(month.Created), float64(month.Completed), formatAmount(month.Amount),
		formatAmount(s.AverageAmount), formatAmount(s.MaxAmount), float64(s.SuccessRate))
}

// FormatNewContract renders the announcement sent when the backend reports a new contract.
func FormatNewContract(c backend.Contract) string {
	var b strings.Builder
	b.WriteString("🎉 *Новий договір створено!*\n\n")
	fmt.Fprintf(&b, "📋 Номер: *%s*\n", escapeMarkdown(c.Number))
	fmt.Fprintf(&b, "🏢 Клієнт: *%s*\n", escapeMarkdown(c.Client))
	fmt.Fprintf(&b, "💰 Сума: *%s*\n", formatAmount(c.Amount))
	fmt.Fprintf(&b, "👤 Виконавець: *%s*\n\n", escapeMarkdown(orDefault(c.Performer, "Не вказано")))
	links := []struct{ label, url string }{
		{"📄 [Переглянути договір](%s)\n", c.ContractURL},
		{"💰 [Переглянути рахунок](%s)\n", c.InvoiceURL},
		{"📄 [Переглянути акт](%s)\n", c.ActURL},
		{"📁 [Відкрити папку](%s)\n", c.FolderURL},
	}
	for _, l := range links {
		if l.url != "" {
			fmt.Fprintf(&b, l.label, l.url)
		}
	}
	return b.String()
}

func formatSystemInfo(h backend.Health, stats cache.Stats, version string, uptime time.Duration) string {
	apiStatus := "✅ Працює"
	responseTime := "N/A"
	if !h.Healthy {
		apiStatus = "❌ Помилка"
	} else {
		responseTime = fmt.Sprintf("%dms", h.ResponseTime.Milliseconds())
	}
	return fmt.Sprintf(`🔧 *Системна інформація*

*API статус:* %s
*Час відповіді:* %s
*Кеш:* %d записів
*Версія бота:* %s
*Час роботи:* %d хвилин`,
		apiStatus, responseTime, stats.Size, escapeMarkdown(version), int(uptime.Round(time.Minute).Minutes()))
}
