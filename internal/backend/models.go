package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "contract-bot/internal/common/errors"
)

// Params are the query fields of one backend call. The API key is never part of them.
type Params map[string]string

// Result is the outcome of a single backend exchange: exactly one of Payload or Err is set.
type Result struct {
	Payload json.RawMessage
	Err     *apperrors.StandardError
}

func Ok(payload json.RawMessage) Result { return Result{Payload: payload} }

func Fail(err *apperrors.StandardError) Result { return Result{Err: err} }

func (r Result) IsOk() bool { return r.Err == nil }

// Amount accepts both JSON numbers and numeric strings. Unparseable strings become zero.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*a = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.ReplaceAll(strings.TrimSpace(str), " ", "")
		str = strings.ReplaceAll(str, ",", ".")
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			*a = 0
			return nil
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

type Contract struct {
	Number      string `json:"number"`
	Client      string `json:"client"`
	Amount      Amount `json:"amount"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Performer   string `json:"performer"`
	Description string `json:"description"`
	ContractURL string `json:"contractUrl,omitempty"`
	InvoiceURL  string `json:"invoiceUrl,omitempty"`
	ActURL      string `json:"actUrl,omitempty"`
	FolderURL   string `json:"folderUrl,omitempty"`
}

// StatusActive is the backend's spelling of an open contract.
const StatusActive = "активний"

// IsActive treats a missing status as active.
func (c Contract) IsActive() bool {
	return c.Status == "" || strings.ToLower(c.Status) == StatusActive
}

// ParsedDate understands the ISO layouts the backend emits.
func (c Contract) ParsedDate() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02", "02.01.2006"} {
		if t, err := time.Parse(layout, c.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type MonthStats struct {
	Created   Amount `json:"created"`
	Completed Amount `json:"completed"`
	Amount    Amount `json:"amount"`
}

type Stats struct {
	Total         Amount      `json:"total"`
	Active        Amount      `json:"active"`
	Completed     Amount      `json:"completed"`
	Cancelled     Amount      `json:"cancelled"`
	TotalAmount   Amount      `json:"totalAmount"`
	AvgDuration   Amount      `json:"avgDuration"`
	ThisMonth     *MonthStats `json:"thisMonth"`
	AverageAmount Amount      `json:"averageAmount"`
	MaxAmount     Amount      `json:"maxAmount"`
	SuccessRate   Amount      `json:"successRate"`
}

// DocumentURLs is returned by regenerate and update.
type DocumentURLs struct {
	ContractURL string `json:"contractUrl"`
	InvoiceURL  string `json:"invoiceUrl"`
	ActURL      string `json:"actUrl"`
}

// Document is a single generated file.
type Document struct {
	URL string `json:"url"`
}

type Health struct {
	Healthy      bool          `json:"healthy"`
	ResponseTime time.Duration `json:"responseTime,omitempty"`
	Error        string        `json:"error,omitempty"`
}

type contractsPayload struct {
	Items []Contract `json:"items"`
}

type statsPayload struct {
	Stats *Stats `json:"stats"`
}

type envelope struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}
