package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"contract-bot/internal/audit"
	"contract-bot/internal/backend"
	"contract-bot/internal/cache"
	"contract-bot/internal/common/config"
	apperrors "contract-bot/internal/common/errors"
	"contract-bot/internal/common/logger"
	"contract-bot/internal/common/metrics"
)

// ContractAPI is the subset of the backend client the router drives.
type ContractAPI interface {
	ListContracts(ctx context.Context, limit int) ([]backend.Contract, error)
	GetStats(ctx context.Context) (*backend.Stats, error)
	RegenerateContract(ctx context.Context, number string) (*backend.DocumentURLs, error)
	GenerateInvoice(ctx context.Context, number string) (*backend.Document, error)
	GenerateAct(ctx context.Context, number string) (*backend.Document, error)
	UpdateContract(ctx context.Context, number string, fields map[string]string) (*backend.DocumentURLs, error)
	HealthCheck(ctx context.Context) backend.Health
	ClearCache()
	CacheStats() cache.Stats
}

type Config struct {
	EditTimeout      time.Duration
	ContractsPerPage int
	MaxSearchResults int
	MaxExportRecords int
	// DetailsLimit is the page size used for lookups and pickers.
	DetailsLimit    int
	MinSearchLength int
	FormURL         string
	DriveFolderID   string
	NotifyChatID    int64
	Version         string
}

func DefaultConfig() Config {
	return Config{
		EditTimeout:      5 * time.Minute,
		ContractsPerPage: 10,
		MaxSearchResults: 20,
		MaxExportRecords: 1000,
		DetailsLimit:     50,
		MinSearchLength:  2,
		Version:          "dev",
	}
}

// ConfigFromApp maps the application config onto router settings.
func ConfigFromApp(cfg *config.Config) Config {
	rc := DefaultConfig()
	rc.EditTimeout = config.GetDuration(cfg.Router.EditTimeout)
	rc.ContractsPerPage = cfg.Router.ContractsPerPage
	rc.MaxSearchResults = cfg.Router.MaxSearchResults
	rc.MaxExportRecords = cfg.Router.MaxExportRecords
	rc.FormURL = cfg.Router.FormURL
	rc.DriveFolderID = cfg.Router.DriveFolderID
	rc.NotifyChatID = cfg.Telegram.ChatID
	if cfg.App.Version != "" {
		rc.Version = cfg.App.Version
	}
	return rc
}

// Router turns chat events into backend operations and replies.
// Handle must not be called concurrently for the same chat; the Dispatcher guarantees that.
type Router struct {
	api       ContractAPI
	sender    Sender
	pending   PendingStore
	audit     audit.Recorder
	errs      *apperrors.ErrorHandler
	logger    logger.Logger
	cfg       Config
	now       func() time.Time
	startedAt time.Time
}

type RouterOption func(*Router)

func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) { r.now = now }
}

func WithAudit(rec audit.Recorder) RouterOption {
	return func(r *Router) { r.audit = rec }
}

func NewRouter(api ContractAPI, sender Sender, pending PendingStore, cfg Config, log logger.Logger, opts ...RouterOption) *Router {
	log = log.With(map[string]interface{}{"component": "router"})
	r := &Router{
		api:     api,
		sender:  sender,
		pending: pending,
		audit:   audit.NopRecorder{},
		errs:    apperrors.NewErrorHandler(log),
		logger:  log,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.startedAt = r.now()
	return r
}

// Handle processes one event. It never returns an error or panics: failures end as a
// chat notice plus a log line.
func (r *Router) Handle(ctx context.Context, ev Event) {
	if ev.Kind == KindText && strings.HasPrefix(strings.TrimSpace(ev.Text), "/") {
		ev.Kind = KindCommand
	}
	route := ev.Kind.String()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("handler panic", map[string]interface{}{
				"chatId": ev.ChatID,
				"kind":   route,
				"panic":  fmt.Sprint(p),
				"stack":  string(debug.Stack()),
			})
			metrics.RouterFailures.WithLabelValues(route, string(apperrors.ErrCodeInternal)).Inc()
			r.reply(ctx, ev.ChatID, Message{Text: textErrorGeneric})
		}
	}()

	switch ev.Kind {
	case KindExpire:
		r.expirePending(ctx, ev.ChatID)
		return
	case KindCallback:
		if ev.CallbackID != "" {
			if err := r.sender.AnswerCallback(ctx, ev.CallbackID, ""); err != nil {
				r.logger.Warn("failed to answer callback", map[string]interface{}{"chatId": ev.ChatID, "error": err})
			}
		}
	}

	// Lazy expiry: a stale edit is closed before the event is looked at, so the
	// event is handled as if no edit had been pending.
	edit, awaiting := r.loadPending(ctx, ev.ChatID)
	if awaiting && edit.Expired(r.now()) {
		r.expirePending(ctx, ev.ChatID)
		awaiting = false
	}

	switch ev.Kind {
	case KindCommand:
		r.handleCommand(ctx, ev)
	case KindCallback:
		r.handleCallback(ctx, ev.ChatID, ParseCallback(ev.Text))
	case KindText:
		if awaiting && !isMenuText(strings.TrimSpace(ev.Text)) {
			r.consumeEdit(ctx, ev.ChatID, edit, ev.Text)
			return
		}
		r.handleText(ctx, ev)
	}
}

func (r *Router) loadPending(ctx context.Context, chatID int64) (PendingEdit, bool) {
	edit, ok, err := r.pending.Get(ctx, chatID)
	if err != nil {
		r.logger.Error("failed to load pending edit", map[string]interface{}{"chatId": chatID, "error": err})
		return PendingEdit{}, false
	}
	return edit, ok
}

// expirePending closes an expired edit and tells the chat, once.
func (r *Router) expirePending(ctx context.Context, chatID int64) {
	edit, ok := r.loadPending(ctx, chatID)
	if !ok || !edit.Expired(r.now()) {
		return
	}
	removed, err := r.pending.Delete(ctx, chatID)
	if err != nil {
		r.logger.Error("failed to drop expired edit", map[string]interface{}{"chatId": chatID, "error": err})
		return
	}
	if !removed {
		return
	}
	metrics.PendingEdits.WithLabelValues("expired").Inc()
	logger.ContractAction(r.logger, "edit_expired", edit.ContractNumber, map[string]interface{}{"chatId": chatID})
	r.reply(ctx, chatID, Message{Text: textEditCancelled})
}

// SweepExpired lists chats whose edit window closed. The caller feeds them back as
// KindExpire events so the notice goes out on the chat's own worker.
func (r *Router) SweepExpired(ctx context.Context) ([]int64, error) {
	return r.pending.Expired(ctx, r.now())
}

// ==========================
// Commands
// ==========================

func (r *Router) handleCommand(ctx context.Context, ev Event) {
	name, arg, ok := ParseCommand(ev.Text)
	if !ok {
		r.handleText(ctx, ev)
		return
	}
	chatID := ev.ChatID
	logger.UserAction(r.logger, chatID, name+"_command", map[string]interface{}{"arg": arg})
	if knownCommands[name] {
		metrics.RouterEvents.WithLabelValues("command", name).Inc()
	} else {
		metrics.RouterEvents.WithLabelValues("command", "unknown").Inc()
	}

	switch name {
	case "start":
		r.reply(ctx, chatID, Message{Text: textWelcome, Menu: mainMenu()})
	case "help":
		r.reply(ctx, chatID, Message{Text: textHelp, Markdown: true})
	case "list":
		r.showContractsList(ctx, chatID, 1, ParseListFilters(arg))
	case "stats":
		r.showStats(ctx, chatID)
	case "search":
		r.search(ctx, chatID, arg)
	case "regen", "invoice", "act":
		number := firstWord(arg)
		if !r.checkNumber(ctx, chatID, name, number) {
			return
		}
		r.runDocumentAction(ctx, chatID, name, number)
	case "export":
		format := strings.ToLower(firstWord(arg))
		if format == "" {
			format = formatExcel
		}
		if !validExportFormat(format) {
			r.reply(ctx, chatID, Message{Text: textExportFormats})
			return
		}
		r.export(ctx, chatID, format)
	case "health":
		r.showHealth(ctx, chatID)
	case "cache":
		r.handleCache(ctx, chatID, arg)
	default:
		r.reply(ctx, chatID, Message{Text: textUnknownCommand})
	}
}

var knownCommands = map[string]bool{
	"start": true, "help": true, "list": true, "stats": true, "search": true, "regen": true,
	"invoice": true, "act": true, "export": true, "health": true, "cache": true,
}

// checkNumber rejects a missing or malformed contract number before any remote call.
func (r *Router) checkNumber(ctx context.Context, chatID int64, command, number string) bool {
	if number == "" {
		r.reply(ctx, chatID, Message{Text: fmt.Sprintf(textNumberUsage, command), Markdown: true})
		return false
	}
	if !ValidContractNumber(number) {
		r.errs.Handle(apperrors.NewInvalidContractNumberError(number), map[string]interface{}{"chatId": chatID, "command": command})
		metrics.RouterFailures.WithLabelValues(command, string(apperrors.ErrCodeInvalidContractNumber)).Inc()
		r.reply(ctx, chatID, Message{Text: textNumberFormat})
		return false
	}
	return true
}

func (r *Router) search(ctx context.Context, chatID int64, query string) {
	if query == "" {
		r.reply(ctx, chatID, Message{Text: textSearchPrompt})
		return
	}
	if len([]rune(query)) < r.cfg.MinSearchLength {
		r.reply(ctx, chatID, Message{Text: fmt.Sprintf(textSearchTooShort, r.cfg.MinSearchLength)})
		return
	}
	r.showContractsList(ctx, chatID, 1, ListFilter{Text: query})
}

func (r *Router) handleCache(ctx context.Context, chatID int64, arg string) {
	if strings.EqualFold(firstWord(arg), "clear") {
		r.api.ClearCache()
		r.reply(ctx, chatID, Message{Text: textCacheCleared})
		return
	}
	stats := r.api.CacheStats()
	r.reply(ctx, chatID, Message{
		Text:     fmt.Sprintf(textCacheStats, stats.Size, stats.Evictions, stats.Expired),
		Markdown: true,
	})
}

// ==========================
// Plain text and menu buttons
// ==========================

func (r *Router) handleText(ctx context.Context, ev Event) {
	chatID := ev.ChatID
	text := strings.TrimSpace(ev.Text)
	metrics.RouterEvents.WithLabelValues("text", menuRoute(text)).Inc()
	logger.UserAction(r.logger, chatID, "text_message", map[string]interface{}{"text": text})

	switch text {
	case menuList:
		r.showContractsList(ctx, chatID, 1, ListFilter{})
	case menuNew:
		r.reply(ctx, chatID, Message{
			Text:     textNewContractForm,
			Markdown: true,
			Inline:   newContractFormKeyboard(r.cfg.FormURL, r.cfg.DriveFolderID),
		})
	case menuInvoice:
		r.showPicker(ctx, chatID, "💰 *Генерація рахунку*", prefixInvoice, false)
	case menuAct:
		r.showPicker(ctx, chatID, "📄 *Генерація акту*", prefixAct, false)
	case menuRegenerate:
		r.showPicker(ctx, chatID, "🔁 *Перегенерація документів*", prefixRegen, true)
	case menuEdit:
		r.showPicker(ctx, chatID, "✏️ *Редагування договору*", prefixEdit, false)
	case menuStats:
		r.showStats(ctx, chatID)
	case menuSettings:
		r.reply(ctx, chatID, Message{Text: textSettingsHeader, Markdown: true, Inline: settingsKeyboard()})
	default:
		r.reply(ctx, chatID, Message{Text: textNotUnderstood, Menu: mainMenu()})
	}
}

func menuRoute(text string) string {
	if isMenuText(text) {
		return "menu"
	}
	return "free_text"
}

// ==========================
// Callbacks
// ==========================

func (r *Router) handleCallback(ctx context.Context, chatID int64, cb Callback) {
	metrics.RouterEvents.WithLabelValues("callback", cb.callbackName()).Inc()
	logger.UserAction(r.logger, chatID, "callback_query", map[string]interface{}{"callback": cb.callbackName()})

	switch c := cb.(type) {
	case ShowMenu:
		r.reply(ctx, chatID, Message{Text: textChooseAction, Menu: mainMenu()})
	case ListPage:
		r.showContractsList(ctx, chatID, c.Page, ListFilter{})
	case ContractDetails:
		r.showContractDetails(ctx, chatID, c.Number)
	case InvoiceFor:
		r.runDocumentAction(ctx, chatID, "invoice", c.Number)
	case ActFor:
		r.runDocumentAction(ctx, chatID, "act", c.Number)
	case RegenerateFor:
		r.runDocumentAction(ctx, chatID, "regen", c.Number)
	case EditStart:
		r.startEdit(ctx, chatID, c.Number)
	case FilterBy:
		r.showContractsList(ctx, chatID, 1, filterFor(c.Kind))
	case ExportAs:
		if !validExportFormat(c.Format) {
			r.errs.Handle(apperrors.NewUnsupportedFormatError(c.Format), map[string]interface{}{"chatId": chatID})
			r.reply(ctx, chatID, Message{Text: textExportFormats})
			return
		}
		r.export(ctx, chatID, c.Format)
	case Settings:
		r.handleSettings(ctx, chatID, c.Kind)
	case SearchPrompt:
		r.reply(ctx, chatID, Message{Text: textSearchPrompt})
	case QuickPick:
		r.quickPick(ctx, chatID, c.Kind)
	case ShowFilters:
		r.reply(ctx, chatID, Message{Text: textFiltersHeader, Markdown: true, Inline: filtersKeyboard()})
	case PageInfo:
		// The page counter button carries no action.
	case UnknownCallback:
		r.errs.Handle(apperrors.NewUnknownCallbackError(c.Raw), map[string]interface{}{"chatId": chatID, "callback": c.Raw})
		metrics.RouterFailures.WithLabelValues("callback", string(apperrors.ErrCodeUnknownCallback)).Inc()
		r.reply(ctx, chatID, Message{Text: textUnknownAction})
	}
}

func filterFor(kind FilterKind) ListFilter {
	switch kind {
	case FilterActive:
		return ListFilter{Status: backend.StatusActive}
	case FilterCompleted:
		return ListFilter{Status: statusCompleted}
	case FilterMonth:
		return ListFilter{Period: PeriodMonth}
	default:
		return ListFilter{}
	}
}

func (r *Router) quickPick(ctx context.Context, chatID int64, kind string) {
	switch kind {
	case quickKindInvoice:
		r.showPicker(ctx, chatID, "💰 *Генерація рахунку*", prefixInvoice, false)
	case quickKindAct:
		r.showPicker(ctx, chatID, "📄 *Генерація акту*", prefixAct, false)
	case quickKindRegen:
		r.showPicker(ctx, chatID, "🔁 *Перегенерація документів*", prefixRegen, true)
	}
}

func (r *Router) handleSettings(ctx context.Context, chatID int64, kind string) {
	switch kind {
	case settingsSystem:
		health := r.api.HealthCheck(ctx)
		info := formatSystemInfo(health, r.api.CacheStats(), r.cfg.Version, r.now().Sub(r.startedAt))
		r.reply(ctx, chatID, Message{Text: info, Markdown: true})
	case settingsExport:
		r.reply(ctx, chatID, Message{Text: textExportChoose, Inline: exportKeyboard()})
	default:
		r.reply(ctx, chatID, Message{Text: textInDevelopment})
	}
}

// ==========================
// Edit flow
// ==========================

func (r *Router) startEdit(ctx context.Context, chatID int64, number string) {
	edit := PendingEdit{ChatID: chatID, ContractNumber: number, ExpiresAt: r.now().Add(r.cfg.EditTimeout)}
	replaced, err := r.pending.Put(ctx, edit)
	if err != nil {
		r.fail(ctx, chatID, "edit_start", number, err, 0)
		return
	}
	transition := "started"
	if replaced {
		transition = "superseded"
	}
	metrics.PendingEdits.WithLabelValues(transition).Inc()
	logger.ContractAction(r.logger, "edit_started", number, map[string]interface{}{"chatId": chatID, "replaced": replaced})
	r.reply(ctx, chatID, Message{Text: fmt.Sprintf(textEditPrompt, escapeMarkdown(number)), Markdown: true})
}

// consumeEdit applies the chat's reply to its pending edit. The edit is consumed
// whatever the outcome.
func (r *Router) consumeEdit(ctx context.Context, chatID int64, edit PendingEdit, input string) {
	if _, err := r.pending.Delete(ctx, chatID); err != nil {
		r.logger.Error("failed to clear pending edit", map[string]interface{}{"chatId": chatID, "error": err})
	}
	metrics.PendingEdits.WithLabelValues("consumed").Inc()
	number := edit.ContractNumber

	fields := ParseEditFields(input)
	if len(fields) == 0 {
		r.errs.Handle(apperrors.NewNoEditFieldsError(input), map[string]interface{}{"chatId": chatID, "contractNumber": number})
		metrics.RouterFailures.WithLabelValues("edit", string(apperrors.ErrCodeNoEditFields)).Inc()
		r.record(ctx, chatID, "edit", number, audit.OutcomeRejected, nil)
		r.reply(ctx, chatID, Message{Text: textInvalidFormat})
		return
	}

	logger.ContractAction(r.logger, "edit", number, map[string]interface{}{"chatId": chatID, "fields": len(fields)})
	msgID := r.reply(ctx, chatID, Message{Text: fmt.Sprintf(textEditUpdating, number)})

	urls, err := r.api.UpdateContract(ctx, number, fields)
	if err != nil {
		r.fail(ctx, chatID, "edit", number, err, msgID, fmt.Sprintf(textEditFailed, number))
		return
	}
	r.record(ctx, chatID, "edit", number, audit.OutcomeOK, fieldNames(fields))
	r.show(ctx, chatID, msgID, Message{Text: formatDocumentLinks(textEditSuccess, urls), Markdown: true})
}

func fieldNames(fields map[string]string) map[string]interface{} {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	return map[string]interface{}{"fields": names}
}

// ==========================
// Remote-backed views
// ==========================

func (r *Router) showContractsList(ctx context.Context, chatID int64, page int, filter ListFilter) {
	logger.UserAction(r.logger, chatID, "view_contracts_list", map[string]interface{}{"page": page, "filter": filter})
	msgID := r.reply(ctx, chatID, Message{Text: textLoading})

	contracts, err := r.api.ListContracts(ctx, r.cfg.MaxSearchResults)
	if err != nil {
		r.fail(ctx, chatID, "list", "", err, msgID)
		return
	}
	contracts = filter.Apply(contracts, r.now())
	if len(contracts) == 0 {
		r.show(ctx, chatID, msgID, Message{Text: textNoContracts})
		return
	}

	perPage := r.cfg.ContractsPerPage
	if perPage < 1 {
		perPage = 10
	}
	totalPages := (len(contracts) + perPage - 1) / perPage
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(contracts) {
		end = len(contracts)
	}
	pageContracts := contracts[start:end]

	r.show(ctx, chatID, msgID, Message{
		Text:     formatContractsList(pageContracts, page, totalPages),
		Markdown: true,
		Inline:   contractListKeyboard(pageContracts, page, totalPages),
	})
}

func (r *Router) showContractDetails(ctx context.Context, chatID int64, number string) {
	logger.UserAction(r.logger, chatID, "view_contract_details", map[string]interface{}{"contractNumber": number})
	msgID := r.reply(ctx, chatID, Message{Text: textLoading})

	contracts, err := r.api.ListContracts(ctx, r.cfg.DetailsLimit)
	if err != nil {
		r.fail(ctx, chatID, "details", number, err, msgID)
		return
	}
	for _, c := range contracts {
		if c.Number == number {
			r.show(ctx, chatID, msgID, Message{
				Text:     formatContractDetails(c),
				Markdown: true,
				Inline:   contractDetailsKeyboard(number),
			})
			return
		}
	}
	r.errs.Handle(apperrors.NewContractNotFoundError(number), map[string]interface{}{"chatId": chatID})
	r.show(ctx, chatID, msgID, Message{Text: fmt.Sprintf(textContractNotFound, number)})
}

func (r *Router) showPicker(ctx context.Context, chatID int64, header, prefix string, withEdit bool) {
	contracts, err := r.api.ListContracts(ctx, r.cfg.DetailsLimit)
	if err != nil {
		r.fail(ctx, chatID, "picker", "", err, 0)
		return
	}
	active := ActiveContracts(contracts)
	if len(active) == 0 {
		r.reply(ctx, chatID, Message{Text: textNoActive})
		return
	}
	r.reply(ctx, chatID, Message{
		Text:     fmt.Sprintf(textPickerHeader, header),
		Markdown: true,
		Inline:   pickerKeyboard(active, prefix, withEdit),
	})
}

func (r *Router) showStats(ctx context.Context, chatID int64) {
	msgID := r.reply(ctx, chatID, Message{Text: textLoading})
	stats, err := r.api.GetStats(ctx)
	if err != nil {
		r.fail(ctx, chatID, "stats", "", err, msgID)
		return
	}
	if stats == nil {
		r.show(ctx, chatID, msgID, Message{Text: textStatsNoData})
		return
	}
	r.show(ctx, chatID, msgID, Message{Text: formatStatistics(stats), Markdown: true})
}

func (r *Router) showHealth(ctx context.Context, chatID int64) {
	h := r.api.HealthCheck(ctx)
	if h.Healthy {
		r.reply(ctx, chatID, Message{Text: fmt.Sprintf(textHealthOK, h.ResponseTime.Milliseconds())})
		return
	}
	r.reply(ctx, chatID, Message{Text: fmt.Sprintf(textHealthFailed, h.Error)})
}

// runDocumentAction covers invoice, act and regenerate. The number has already been
// validated when it came from a command; callback operands come from our own keyboards.
func (r *Router) runDocumentAction(ctx context.Context, chatID int64, kind, number string) {
	var working, failed string
	switch kind {
	case "invoice":
		working, failed = textInvoiceWorking, textInvoiceFailed
	case "act":
		working, failed = textActWorking, textActFailed
	default:
		working, failed = textRegenWorking, textRegenFailed
	}
	action := documentAuditAction(kind)
	logger.ContractAction(r.logger, action, number, map[string]interface{}{"chatId": chatID})
	msgID := r.reply(ctx, chatID, Message{Text: fmt.Sprintf(working, number)})

	var (
		text string
		err  error
	)
	switch kind {
	case "invoice":
		var doc *backend.Document
		if doc, err = r.api.GenerateInvoice(ctx, number); err == nil {
			text = fmt.Sprintf(textInvoiceDone, doc.URL)
		}
	case "act":
		var doc *backend.Document
		if doc, err = r.api.GenerateAct(ctx, number); err == nil {
			text = fmt.Sprintf(textActDone, doc.URL)
		}
	default:
		var urls *backend.DocumentURLs
		if urls, err = r.api.RegenerateContract(ctx, number); err == nil {
			text = formatDocumentLinks(fmt.Sprintf(textRegenDone, escapeMarkdown(number)), urls)
		}
	}
	if err != nil {
		r.fail(ctx, chatID, action, number, err, msgID, fmt.Sprintf(failed, number))
		return
	}
	r.record(ctx, chatID, action, number, audit.OutcomeOK, nil)
	r.show(ctx, chatID, msgID, Message{Text: text, Markdown: true})
}

func documentAuditAction(kind string) string {
	switch kind {
	case "invoice":
		return "generate_invoice"
	case "act":
		return "generate_act"
	default:
		return "regenerate"
	}
}

func (r *Router) export(ctx context.Context, chatID int64, format string) {
	logger.UserAction(r.logger, chatID, "export", map[string]interface{}{"format": format})
	msgID := r.reply(ctx, chatID, Message{Text: textExportProcessing})

	contracts, err := r.api.ListContracts(ctx, r.cfg.MaxExportRecords)
	if err != nil {
		r.fail(ctx, chatID, "export", "", err, msgID, textExportFailed)
		return
	}
	doc, err := BuildExport(format, contracts, r.now())
	if err != nil {
		r.fail(ctx, chatID, "export", "", err, msgID, textExportFailed)
		return
	}
	doc.Caption = fmt.Sprintf(textExportCaption, len(contracts))
	if err := r.sender.SendDocument(ctx, chatID, doc); err != nil {
		r.fail(ctx, chatID, "export", "", err, msgID, textExportFailed)
		return
	}
	r.record(ctx, chatID, "export", "", audit.OutcomeOK, map[string]interface{}{"format": format, "records": len(contracts)})
	if msgID != 0 {
		if err := r.sender.Delete(ctx, chatID, msgID); err != nil {
			r.logger.Warn("failed to delete progress message", map[string]interface{}{"chatId": chatID, "error": err})
		}
	}
}

// NotifyNewContract announces a contract created outside the chat, e.g. by the form backend.
func (r *Router) NotifyNewContract(ctx context.Context, c backend.Contract) error {
	if r.cfg.NotifyChatID == 0 {
		return apperrors.NewValidationError("notification chat is not configured")
	}
	if c.Number == "" {
		return apperrors.NewValidationError("contract number is required")
	}
	_, err := r.sender.Send(ctx, r.cfg.NotifyChatID, Message{
		Text:     FormatNewContract(c),
		Markdown: true,
		Inline:   NewContractKeyboard(c.Number),
	})
	if err != nil {
		return fmt.Errorf("send new contract notification: %w", err)
	}
	logger.ContractAction(r.logger, "new_contract_notified", c.Number, nil)
	return nil
}

// ==========================
// Output helpers
// ==========================

// reply sends a message and returns its id, or 0 when sending failed.
func (r *Router) reply(ctx context.Context, chatID int64, msg Message) int {
	id, err := r.sender.Send(ctx, chatID, msg)
	if err != nil {
		r.logger.Error("failed to send message", map[string]interface{}{"chatId": chatID, "error": err})
		return 0
	}
	return id
}

// show replaces the progress message when there is one, otherwise sends a new message.
func (r *Router) show(ctx context.Context, chatID int64, msgID int, msg Message) {
	if msgID != 0 {
		err := r.sender.Edit(ctx, chatID, msgID, msg)
		if err == nil {
			return
		}
		r.logger.Warn("failed to edit message, sending instead", map[string]interface{}{"chatId": chatID, "error": err})
	}
	r.reply(ctx, chatID, msg)
}

// fail logs a failed operation with its context and shows a non-technical notice.
// The optional notice overrides the generic text.
func (r *Router) fail(ctx context.Context, chatID int64, route, number string, err error, msgID int, notice ...string) {
	fields := map[string]interface{}{"chatId": chatID, "route": route}
	if number != "" {
		fields["contractNumber"] = number
	}
	r.errs.Handle(err, fields)
	metrics.RouterFailures.WithLabelValues(route, string(apperrors.Normalize(err).Code)).Inc()
	r.record(ctx, chatID, route, number, audit.OutcomeFailed, map[string]interface{}{"errorCode": string(apperrors.Normalize(err).Code)})

	text := textErrorGeneric
	if len(notice) > 0 {
		text = notice[0]
	}
	r.show(ctx, chatID, msgID, Message{Text: text})
}

func (r *Router) record(ctx context.Context, chatID int64, action, number, outcome string, details map[string]interface{}) {
	err := r.audit.Record(ctx, audit.Entry{
		ChatID:         chatID,
		Action:         action,
		ContractNumber: number,
		Outcome:        outcome,
		Details:        details,
		CreatedAt:      r.now(),
	})
	if err != nil {
		r.logger.Warn("audit record failed", map[string]interface{}{"chatId": chatID, "action": action, "error": err})
	}
}
