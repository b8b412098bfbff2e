package bot

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"contract-bot/internal/backend"
	apperrors "contract-bot/internal/common/errors"
)

const (
	formatExcel = "excel"
	formatPDF   = "pdf"
	formatJSON  = "json"
)

var exportHeaders = []string{"Номер", "Клієнт", "Сума", "Дата", "Статус", "Виконавець"}

// BuildExport renders contracts in one of the supported formats. "excel" produces CSV and
// "pdf" an HTML report, both of which open directly in the respective desktop tools.
func BuildExport(format string, contracts []backend.Contract, now time.Time) (Document, error) {
	day := now.Format("2006-01-02")
	switch strings.ToLower(format) {
	case formatExcel:
		data, err := contractsCSV(contracts)
		if err != nil {
			return Document{}, err
		}
		return Document{FileName: "contracts_" + day + ".csv", MIMEType: "text/csv", Data: data}, nil
	case formatPDF:
		data, err := contractsHTML(contracts, now)
		if err != nil {
			return Document{}, err
		}
		return Document{FileName: "contracts_" + day + ".html", MIMEType: "text/html", Data: data}, nil
	case formatJSON:
		data, err := json.MarshalIndent(contracts, "", "  ")
		if err != nil {
			return Document{}, fmt.Errorf("marshal contracts: %w", err)
		}
		return Document{FileName: "contracts_" + day + ".json", MIMEType: "application/json", Data: data}, nil
	default:
		return Document{}, apperrors.NewUnsupportedFormatError(format)
	}
}

func validExportFormat(format string) bool {
	switch format {
	case formatExcel, formatPDF, formatJSON:
		return true
	}
	return false
}

func contractsCSV(contracts []backend.Contract) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, err
	}
	for _, c := range contracts {
		amount := ""
		if c.Amount != 0 {
			amount = strconv.FormatFloat(float64(c.Amount), 'f', -1, 64)
		}
		if err := w.Write([]string{c.Number, c.Client, amount, c.Date, c.Status, c.Performer}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Звіт по договорах</title>
<style>
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
</style>
</head>
<body>
<h1>Звіт по договорах</h1>
<p>Дата створення: {{.Created}}</p>
<table>
<thead>
<tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{range .Rows}}<tr><td>{{.Number}}</td><td>{{.Client}}</td><td>{{.Amount}}</td><td>{{.Date}}</td><td>{{.Status}}</td><td>{{.Performer}}</td></tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type reportRow struct {
	Number, Client, Amount, Date, Status, Performer string
}

func contractsHTML(contracts []backend.Contract, now time.Time) ([]byte, error) {
	rows := make([]reportRow, 0, len(contracts))
	for _, c := range contracts {
		rows = append(rows, reportRow{
			Number:    c.Number,
			Client:    c.Client,
			Amount:    formatAmount(c.Amount),
			Date:      formatDate(c),
			Status:    c.Status,
			Performer: c.Performer,
		})
	}
	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, map[string]interface{}{
		"Created": now.Format("02.01.2006"),
		"Headers": exportHeaders,
		"Rows":    rows,
	})
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
