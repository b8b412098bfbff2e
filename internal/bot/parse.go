package bot

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"contract-bot/internal/backend"
)

var contractNumberPattern = regexp.MustCompile(`^W-\d{2}-\d{2,3}$`)

// ValidContractNumber reports whether s looks like W-YY-NN or W-YY-NNN.
func ValidContractNumber(s string) bool {
	return contractNumberPattern.MatchString(s)
}

// ParseCommand splits "/name@bot arg text" into a lower-case name and the trimmed argument.
func ParseCommand(text string) (name, arg string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text, " ")
	head = strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

// firstWord returns the first whitespace separated token of s.
func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ParseEditFields reads "k=v; k2=v2". Pairs without '=' or with an empty key
// or value are dropped. Values may themselves contain '='. A repeated key keeps the last value.
func ParseEditFields(text string) map[string]string {
	fields := make(map[string]string)
	for _, pair := range strings.Split(text, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		fields[key] = value
	}
	return fields
}

type Period string

const (
	PeriodNone  Period = ""
	PeriodMonth Period = "month"
	PeriodWeek  Period = "week"
)

const (
	statusCompleted = "завершений"
	statusCancelled = "скасований"
)

// ListFilter narrows a contract list. The zero value matches everything.
type ListFilter struct {
	Status    string
	MinAmount float64
	Period    Period
	Text      string
}

func (f ListFilter) IsZero() bool { return f == ListFilter{} }

var minAmountPattern = regexp.MustCompile(`[>=]\s*(\d+)`)

// ParseListFilters understands status words, ">N" minimum amounts and period words.
// Text that matches none of them becomes a free-text search.
func ParseListFilters(input string) ListFilter {
	input = strings.TrimSpace(input)
	if input == "" {
		return ListFilter{}
	}
	var f ListFilter
	text := strings.ToLower(input)

	switch {
	case strings.Contains(text, "активні") || strings.Contains(text, "активний"):
		f.Status = backend.StatusActive
	case strings.Contains(text, "завершені") || strings.Contains(text, "завершений"):
		f.Status = statusCompleted
	case strings.Contains(text, "скасовані") || strings.Contains(text, "скасований"):
		f.Status = statusCancelled
	}

	if m := minAmountPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.MinAmount = n
		}
	}

	switch {
	case strings.Contains(text, "місяць") || strings.Contains(text, "грудень") || strings.Contains(text, "листопад"):
		f.Period = PeriodMonth
	case strings.Contains(text, "тиждень"):
		f.Period = PeriodWeek
	}

	if f.Status == "" && f.MinAmount == 0 && f.Period == PeriodNone {
		f.Text = input
	}
	return f
}

// Apply keeps the contracts matching every set criterion, preserving order.
func (f ListFilter) Apply(contracts []backend.Contract, now time.Time) []backend.Contract {
	if f.IsZero() {
		return contracts
	}
	out := make([]backend.Contract, 0, len(contracts))
	for _, c := range contracts {
		if f.matches(c, now) {
			out = append(out, c)
		}
	}
	return out
}

func (f ListFilter) matches(c backend.Contract, now time.Time) bool {
	switch {
	case f.Status == backend.StatusActive:
		// a contract without a status counts as active, as in the pickers
		if !c.IsActive() {
			return false
		}
	case f.Status != "" && strings.ToLower(c.Status) != f.Status:
		return false
	}
	if f.MinAmount > 0 && float64(c.Amount) < f.MinAmount {
		return false
	}
	if f.Period != PeriodNone {
		date, ok := c.ParsedDate()
		if !ok {
			return false
		}
		switch f.Period {
		case PeriodMonth:
			if date.Year() != now.Year() || date.Month() != now.Month() {
				return false
			}
		case PeriodWeek:
			if date.Before(now.AddDate(0, 0, -7)) {
				return false
			}
		}
	}
	if f.Text != "" {
		haystack := strings.ToLower(strings.Join([]string{c.Number, c.Client, c.Description}, " "))
		if !strings.Contains(haystack, strings.ToLower(f.Text)) {
			return false
		}
	}
	return true
}

// ActiveContracts keeps contracts whose status is active or missing.
func ActiveContracts(contracts []backend.Contract) []backend.Contract {
	out := make([]backend.Contract, 0, len(contracts))
	for _, c := range contracts {
		if c.IsActive() {
			out = append(out, c)
		}
	}
	return out
}
