package bot

import (
	"fmt"
	"strconv"

	"contract-bot/internal/backend"
)

const maxPickerButtons = 8

func mainMenu() [][]string {
	return [][]string{
		{menuList, menuNew},
		{menuInvoice, menuAct},
		{menuRegenerate, menuEdit},
		{menuStats, menuSettings},
	}
}

func backRow() []Button {
	return []Button{{Text: backToMenu, Data: cbBackToMenu}}
}

func contractButtonText(c backend.Contract) string {
	return fmt.Sprintf("%s - %s", c.Number, c.Client)
}

func contractListKeyboard(contracts []backend.Contract, page, totalPages int) [][]Button {
	rows := make([][]Button, 0, len(contracts)+4)
	for _, c := range contracts {
		rows = append(rows, []Button{{Text: contractButtonText(c), Data: prefixDetails + c.Number}})
	}
	rows = append(rows, []Button{
		{Text: "💰 Рахунок", Data: cbQuickInvoice},
		{Text: "📄 Акт", Data: cbQuickAct},
		{Text: "🔁 Перегенерувати", Data: cbQuickRegen},
	})

	if totalPages > 1 {
		var nav []Button
		if page > 1 {
			nav = append(nav, Button{Text: "⬅️ Попередня", Data: prefixPage + strconv.Itoa(page-1)})
		}
		nav = append(nav, Button{Text: fmt.Sprintf("%d/%d", page, totalPages), Data: cbPageInfo})
		if page < totalPages {
			nav = append(nav, Button{Text: "Наступна ➡️", Data: prefixPage + strconv.Itoa(page+1)})
		}
		rows = append(rows, nav)
	}

	rows = append(rows,
		[]Button{{Text: "🔍 Пошук", Data: cbSearch}, {Text: "🎛️ Фільтри", Data: cbShowFilters}},
		backRow(),
	)
	return rows
}

func contractDetailsKeyboard(number string) [][]Button {
	return [][]Button{
		{{Text: "💰 Рахунок", Data: prefixInvoice + number}, {Text: "📄 Акт", Data: prefixAct + number}},
		{{Text: "🔁 Перегенерувати", Data: prefixRegen + number}, {Text: "✏️ Редагувати", Data: prefixEdit + number}},
		{{Text: "🔙 До списку", Data: prefixPage + "1"}, {Text: "🏠 До меню", Data: cbBackToMenu}},
	}
}

// NewContractKeyboard offers the follow-up actions for a freshly created contract.
func NewContractKeyboard(number string) [][]Button {
	return [][]Button{
		{{Text: "💰 Рахунок", Data: prefixInvoice + number}, {Text: "📄 Акт", Data: prefixAct + number}},
		{{Text: "🔁 Перегенерувати", Data: prefixRegen + number}, {Text: "✏️ Редагувати", Data: prefixEdit + number}},
	}
}

// pickerKeyboard lists at most maxPickerButtons contracts, each wired to prefix+number.
func pickerKeyboard(contracts []backend.Contract, prefix string, withEdit bool) [][]Button {
	if len(contracts) > maxPickerButtons {
		contracts = contracts[:maxPickerButtons]
	}
	rows := make([][]Button, 0, len(contracts)+1)
	for _, c := range contracts {
		row := []Button{{Text: contractButtonText(c), Data: prefix + c.Number}}
		if withEdit {
			row = append(row, Button{Text: "✏️", Data: prefixEdit + c.Number})
		}
		rows = append(rows, row)
	}
	return append(rows, backRow())
}

func filtersKeyboard() [][]Button {
	return [][]Button{
		{{Text: "✅ Активні", Data: prefixFilter + string(FilterActive)}, {Text: "✔️ Завершені", Data: prefixFilter + string(FilterCompleted)}},
		{{Text: "📅 Цей місяць", Data: prefixFilter + string(FilterMonth)}, {Text: "🗑️ Очистити фільтри", Data: prefixFilter + string(FilterClear)}},
		backRow(),
	}
}

func settingsKeyboard() [][]Button {
	return [][]Button{
		{{Text: "🔔 Сповіщення", Data: prefixSettings + "notifications"}, {Text: "📁 Drive", Data: prefixSettings + "drive"}},
		{{Text: "📊 Експорт даних", Data: prefixSettings + settingsExport}, {Text: "🔧 Система", Data: prefixSettings + settingsSystem}},
		backRow(),
	}
}

func exportKeyboard() [][]Button {
	return [][]Button{
		{{Text: "📊 Excel", Data: prefixExport + formatExcel}, {Text: "📄 PDF", Data: prefixExport + formatPDF}},
		{{Text: "💾 JSON", Data: prefixExport + formatJSON}, {Text: backToMenu, Data: cbBackToMenu}},
	}
}

func newContractFormKeyboard(formURL, driveFolderID string) [][]Button {
	var rows [][]Button
	if formURL != "" {
		rows = append(rows, []Button{{Text: "📝 Заповнити форму", URL: formURL}})
	}
	if driveFolderID != "" {
		rows = append(rows, []Button{{Text: "📁 Папка з договорами", URL: "https://drive.google.com/drive/folders/" + driveFolderID}})
	}
	return append(rows, backRow())
}
