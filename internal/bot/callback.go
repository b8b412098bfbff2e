package bot

import (
	"strconv"
	"strings"
)

// Callback is the parsed form of inline button data.
type Callback interface {
	callbackName() string
}

type (
	ShowMenu        struct{}
	ListPage        struct{ Page int }
	ContractDetails struct{ Number string }
	InvoiceFor      struct{ Number string }
	ActFor          struct{ Number string }
	RegenerateFor   struct{ Number string }
	EditStart       struct{ Number string }
	FilterBy        struct{ Kind FilterKind }
	ExportAs        struct{ Format string }
	Settings        struct{ Kind string }
	SearchPrompt    struct{}
	QuickPick       struct{ Kind string }
	PageInfo        struct{}
	ShowFilters     struct{}
	UnknownCallback struct{ Raw string }
)

func (ShowMenu) callbackName() string        { return "back_to_menu" }
func (ListPage) callbackName() string        { return "contracts_page" }
func (ContractDetails) callbackName() string { return "contract_details" }
func (InvoiceFor) callbackName() string      { return "invoice" }
func (ActFor) callbackName() string          { return "act" }
func (RegenerateFor) callbackName() string   { return "regen" }
func (EditStart) callbackName() string       { return "edit" }
func (FilterBy) callbackName() string        { return "filter" }
func (ExportAs) callbackName() string        { return "export" }
func (Settings) callbackName() string        { return "settings" }
func (SearchPrompt) callbackName() string    { return "search_contracts" }
func (QuickPick) callbackName() string       { return "quick" }
func (PageInfo) callbackName() string        { return "page_info" }
func (ShowFilters) callbackName() string     { return "show_filters" }
func (UnknownCallback) callbackName() string { return "unknown" }

type FilterKind string

const (
	FilterActive    FilterKind = "active"
	FilterCompleted FilterKind = "completed"
	FilterMonth     FilterKind = "month"
	FilterClear     FilterKind = "clear"
)

// Callback data written by our own keyboards.
const (
	cbBackToMenu     = "back_to_menu"
	cbSearch         = "search_contracts"
	cbPageInfo       = "page_info"
	cbShowFilters    = "show_filters"
	cbQuickInvoice   = "quick_invoice"
	cbQuickAct       = "quick_act"
	cbQuickRegen     = "quick_regen"
	prefixPage       = "contracts_page_"
	prefixDetails    = "contract_details_"
	prefixInvoice    = "invoice_"
	prefixAct        = "act_"
	prefixRegen      = "regen_"
	prefixEdit       = "edit_"
	prefixFilter     = "filter_"
	prefixExport     = "export_"
	prefixSettings   = "settings_"
	settingsSystem   = "system"
	settingsExport   = "export"
	quickKindInvoice = "invoice"
	quickKindAct     = "act"
	quickKindRegen   = "regen"
)

// ParseCallback turns raw button data into a Callback. Anything unrecognised,
// including a known prefix with an empty or malformed operand, is UnknownCallback.
func ParseCallback(raw string) Callback {
	switch raw {
	case cbBackToMenu:
		return ShowMenu{}
	case cbSearch:
		return SearchPrompt{}
	case cbPageInfo:
		return PageInfo{}
	case cbShowFilters:
		return ShowFilters{}
	case cbQuickInvoice:
		return QuickPick{Kind: quickKindInvoice}
	case cbQuickAct:
		return QuickPick{Kind: quickKindAct}
	case cbQuickRegen:
		return QuickPick{Kind: quickKindRegen}
	}

	for _, op := range operandCallbacks {
		rest, ok := strings.CutPrefix(raw, op.prefix)
		if !ok {
			continue
		}
		if rest != "" {
			if cb := op.build(rest); cb != nil {
				return cb
			}
		}
		return UnknownCallback{Raw: raw}
	}
	return UnknownCallback{Raw: raw}
}

// Order matters only for overlapping prefixes; none of these overlap.
var operandCallbacks = []struct {
	prefix string
	build  func(string) Callback
}{
	{prefixPage, func(s string) Callback {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return nil
		}
		return ListPage{Page: page}
	}},
	{prefixDetails, func(s string) Callback { return ContractDetails{Number: s} }},
	{prefixInvoice, func(s string) Callback { return InvoiceFor{Number: s} }},
	{prefixAct, func(s string) Callback { return ActFor{Number: s} }},
	{prefixRegen, func(s string) Callback { return RegenerateFor{Number: s} }},
	{prefixEdit, func(s string) Callback { return EditStart{Number: s} }},
	{prefixFilter, func(s string) Callback {
		switch kind := FilterKind(s); kind {
		case FilterActive, FilterCompleted, FilterMonth, FilterClear:
			return FilterBy{Kind: kind}
		}
		return nil
	}},
	{prefixExport, func(s string) Callback { return ExportAs{Format: s} }},
	{prefixSettings, func(s string) Callback { return Settings{Kind: s} }},
}
