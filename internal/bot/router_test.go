package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"contract-bot/internal/audit"
	"contract-bot/internal/backend"
	"contract-bot/internal/cache"
	apperrors "contract-bot/internal/common/errors"
	"contract-bot/internal/common/logger"
)

// ==========================
// Mock Contract API
// ==========================

type MockContractAPI struct {
	mock.Mock
}

func (m *MockContractAPI) ListContracts(ctx context.Context, limit int) ([]backend.Contract, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]backend.Contract), args.Error(1)
}

func (m *MockContractAPI) GetStats(ctx context.Context) (*backend.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Stats), args.Error(1)
}

func (m *MockContractAPI) RegenerateContract(ctx context.Context, number string) (*backend.DocumentURLs, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.DocumentURLs), args.Error(1)
}

func (m *MockContractAPI) GenerateInvoice(ctx context.Context, number string) (*backend.Document, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Document), args.Error(1)
}

func (m *MockContractAPI) GenerateAct(ctx context.Context, number string) (*backend.Document, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Document), args.Error(1)
}

func (m *MockContractAPI) UpdateContract(ctx context.Context, number string, fields map[string]string) (*backend.DocumentURLs, error) {
	args := m.Called(ctx, number, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.DocumentURLs), args.Error(1)
}

func (m *MockContractAPI) HealthCheck(ctx context.Context) backend.Health {
	return m.Called(ctx).Get(0).(backend.Health)
}

func (m *MockContractAPI) ClearCache() {
	m.Called()
}

func (m *MockContractAPI) CacheStats() cache.Stats {
	return m.Called().Get(0).(cache.Stats)
}

// ==========================
// Test Helpers
// ==========================

type outbound struct {
	ChatID    int64
	MessageID int
	Edited    bool
	Msg       Message
}

type recordingSender struct {
	mu       sync.Mutex
	nextID   int
	out      []outbound
	docs     []Document
	deleted  []int
	answered []string
}

func (s *recordingSender) Send(_ context.Context, chatID int64, msg Message) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.out = append(s.out, outbound{ChatID: chatID, MessageID: s.nextID, Msg: msg})
	return s.nextID, nil
}

func (s *recordingSender) Edit(_ context.Context, chatID int64, messageID int, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, outbound{ChatID: chatID, MessageID: messageID, Edited: true, Msg: msg})
	return nil
}

func (s *recordingSender) Delete(_ context.Context, _ int64, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, messageID)
	return nil
}

func (s *recordingSender) SendDocument(_ context.Context, _ int64, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return nil
}

func (s *recordingSender) AnswerCallback(_ context.Context, callbackID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answered = append(s.answered, callbackID)
	return nil
}

func (s *recordingSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := make([]string, len(s.out))
	for i, o := range s.out {
		texts[i] = o.Msg.Text
	}
	return texts
}

func (s *recordingSender) last() outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out[len(s.out)-1]
}

func (s *recordingSender) count(text string) int {
	n := 0
	for _, t := range s.texts() {
		if t == text {
			n++
		}
	}
	return n
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *recordingAudit) Record(_ context.Context, e audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

const testChat int64 = 4242

type routerFixture struct {
	router  *Router
	api     *MockContractAPI
	sender  *recordingSender
	pending *MemoryPendingStore
	clock   *fakeClock
	audit   *recordingAudit
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		api:     &MockContractAPI{},
		sender:  &recordingSender{},
		pending: NewMemoryPendingStore(),
		clock:   newFakeClock(),
		audit:   &recordingAudit{},
	}
	cfg := DefaultConfig()
	cfg.NotifyChatID = 777
	cfg.Version = "test"
	f.router = NewRouter(f.api, f.sender, f.pending, cfg, logger.NewTestLogger(t),
		WithClock(f.clock.Now), WithAudit(f.audit))
	return f
}

func (f *routerFixture) command(text string) {
	f.router.Handle(context.Background(), Event{ChatID: testChat, Kind: KindCommand, Text: text})
}

func (f *routerFixture) text(text string) {
	f.router.Handle(context.Background(), Event{ChatID: testChat, Kind: KindText, Text: text})
}

func (f *routerFixture) callback(data string) {
	f.router.Handle(context.Background(), Event{ChatID: testChat, Kind: KindCallback, Text: data, CallbackID: "cb-" + data})
}

func sampleContracts(n int) []backend.Contract {
	contracts := make([]backend.Contract, n)
	for i := range contracts {
		contracts[i] = backend.Contract{
			Number: fmt.Sprintf("W-25-%03d", i+1),
			Client: fmt.Sprintf("ТОВ Клієнт %d", i+1),
			Amount: backend.Amount(1000 * (i + 1)),
			Date:   "2025-03-01",
			Status: backend.StatusActive,
		}
	}
	return contracts
}

func remoteFailure(action string) error {
	return &apperrors.RemoteError{Action: action, Attempts: 3, Last: apperrors.NewApplicationError(action, "Sheet locked")}
}

// ==========================
// Contract number validation
// ==========================

func TestRouter_DocumentCommands_NumberValidation(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		forwarded string
		reply     string
	}{
		{"one digit suffix rejected", "/regen W-25-1", "", textNumberFormat},
		{"two digit suffix accepted", "/regen W-25-01", "W-25-01", ""},
		{"three digit suffix accepted", "/regen W-25-001", "W-25-001", ""},
		{"lowercase rejected", "/regen w-25-01", "", textNumberFormat},
		{"missing number", "/regen", "", fmt.Sprintf(textNumberUsage, "regen")},
		{"bot suffix stripped", "/regen@contract_bot W-25-02", "W-25-02", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			if tt.forwarded != "" {
				f.api.On("RegenerateContract", mock.Anything, tt.forwarded).
					Return(&backend.DocumentURLs{ContractURL: "https://docs/c"}, nil).Once()
			}

			f.command(tt.input)

			if tt.forwarded == "" {
				f.api.AssertNotCalled(t, "RegenerateContract", mock.Anything, mock.Anything)
				assert.Equal(t, tt.reply, f.sender.last().Msg.Text)
				return
			}
			f.api.AssertExpectations(t)
			last := f.sender.last()
			assert.True(t, last.Edited)
			assert.Contains(t, last.Msg.Text, "📋 [Договір](https://docs/c)")
		})
	}
}

func TestRouter_InvoiceAndAct(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("GenerateInvoice", mock.Anything, "W-25-01").Return(&backend.Document{URL: "https://docs/inv"}, nil).Once()
	f.api.On("GenerateAct", mock.Anything, "W-25-01").Return(&backend.Document{URL: "https://docs/act"}, nil).Once()

	f.command("/invoice W-25-01")
	assert.Equal(t, fmt.Sprintf(textInvoiceDone, "https://docs/inv"), f.sender.last().Msg.Text)

	f.callback("act_W-25-01")
	assert.Equal(t, fmt.Sprintf(textActDone, "https://docs/act"), f.sender.last().Msg.Text)

	f.api.AssertExpectations(t)
	assert.Equal(t, []string{"cb-act_W-25-01"}, f.sender.answered)
}

// ==========================
// Edit flow
// ==========================

func TestRouter_EditFlow_UpdatesOnce(t *testing.T) {
	f := newRouterFixture(t)
	fields := map[string]string{"amount": "50000", "description": "Test"}
	f.api.On("UpdateContract", mock.Anything, "W-25-01", fields).
		Return(&backend.DocumentURLs{InvoiceURL: "https://docs/inv"}, nil).Once()

	f.callback("edit_W-25-01")
	assert.Contains(t, f.sender.last().Msg.Text, "Редагування договору W-25-01")

	f.clock.Advance(2 * time.Minute)
	f.text("amount=50000; description=Test")

	f.api.AssertNumberOfCalls(t, "UpdateContract", 1)
	assert.Contains(t, f.sender.last().Msg.Text, "Договір оновлено")
	assert.Contains(t, f.sender.last().Msg.Text, "💰 [Рахунок](https://docs/inv)")

	_, pending, err := f.pending.Get(context.Background(), testChat)
	require.NoError(t, err)
	assert.False(t, pending, "edit must be consumed")

	// back to idle: the next text is an ordinary message
	f.text("amount=1")
	f.api.AssertNumberOfCalls(t, "UpdateContract", 1)
	assert.Equal(t, textNotUnderstood, f.sender.last().Msg.Text)
}

func TestRouter_EditFlow_NoFields(t *testing.T) {
	f := newRouterFixture(t)

	f.callback("edit_W-25-01")
	f.text("badtext")

	f.api.AssertNotCalled(t, "UpdateContract", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, textInvalidFormat, f.sender.last().Msg.Text)

	_, pending, _ := f.pending.Get(context.Background(), testChat)
	assert.False(t, pending)
	require.NotEmpty(t, f.audit.entries)
	assert.Equal(t, audit.OutcomeRejected, f.audit.entries[len(f.audit.entries)-1].Outcome)
}

func TestRouter_EditFlow_Supersede(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("UpdateContract", mock.Anything, "W-25-02", map[string]string{"client": "Нова назва"}).
		Return(&backend.DocumentURLs{}, nil).Once()

	f.callback("edit_W-25-01")
	f.callback("edit_W-25-02")
	f.text("client=Нова назва")

	f.api.AssertExpectations(t)
	f.api.AssertNotCalled(t, "UpdateContract", mock.Anything, "W-25-01", mock.Anything)
}

func TestRouter_EditFlow_CommandsDoNotConsume(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("GetStats", mock.Anything).Return(&backend.Stats{Total: 3}, nil).Once()
	f.api.On("UpdateContract", mock.Anything, "W-25-01", map[string]string{"amount": "10"}).
		Return(&backend.DocumentURLs{}, nil).Once()

	f.callback("edit_W-25-01")
	f.command("/stats")
	f.text("amount=10")

	f.api.AssertExpectations(t)
}

func TestRouter_EditTimeout_LazyExpiry(t *testing.T) {
	f := newRouterFixture(t)

	f.callback("edit_W-25-01")
	f.clock.Advance(5*time.Minute + time.Second)
	f.text("amount=50000")

	f.api.AssertNotCalled(t, "UpdateContract", mock.Anything, mock.Anything, mock.Anything)
	texts := f.sender.texts()
	require.GreaterOrEqual(t, len(texts), 2)
	assert.Equal(t, textEditCancelled, texts[len(texts)-2])
	assert.Equal(t, textNotUnderstood, texts[len(texts)-1])
}

func TestRouter_EditTimeout_ExactBoundary(t *testing.T) {
	f := newRouterFixture(t)

	f.callback("edit_W-25-01")
	f.clock.Advance(5 * time.Minute)
	f.text("amount=50000")

	f.api.AssertNotCalled(t, "UpdateContract", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.sender.count(textEditCancelled))
}

func TestRouter_EditTimeout_NoticeSentOnce(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	f.callback("edit_W-25-01")
	f.clock.Advance(6 * time.Minute)

	chats, err := f.router.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{testChat}, chats)

	f.router.Handle(ctx, Event{ChatID: testChat, Kind: KindExpire})
	f.router.Handle(ctx, Event{ChatID: testChat, Kind: KindExpire})
	f.text("hello")

	assert.Equal(t, 1, f.sender.count(textEditCancelled))
	assert.Equal(t, textNotUnderstood, f.sender.last().Msg.Text)
}

func TestRouter_ExpireEvent_IgnoresLiveEdit(t *testing.T) {
	f := newRouterFixture(t)

	f.callback("edit_W-25-01")
	f.router.Handle(context.Background(), Event{ChatID: testChat, Kind: KindExpire})

	assert.Zero(t, f.sender.count(textEditCancelled))
	_, pending, _ := f.pending.Get(context.Background(), testChat)
	assert.True(t, pending)
}

// ==========================
// Callbacks and failures
// ==========================

func TestRouter_UnknownCallback(t *testing.T) {
	f := newRouterFixture(t)

	for _, data := range []string{"delete_everything", "invoice_", "contracts_page_zero"} {
		f.callback(data)
		assert.Equal(t, textUnknownAction, f.sender.last().Msg.Text, data)
	}
	assert.Empty(t, f.api.Calls)
}

func TestRouter_RemoteFailure_ShowsNotice(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("GenerateInvoice", mock.Anything, "W-25-07").Return(nil, remoteFailure("generateInvoice")).Once()

	f.callback("invoice_W-25-07")

	last := f.sender.last()
	assert.True(t, last.Edited)
	assert.Equal(t, fmt.Sprintf(textInvoiceFailed, "W-25-07"), last.Msg.Text)
	assert.NotContains(t, last.Msg.Text, "Sheet locked")

	entry := f.audit.entries[len(f.audit.entries)-1]
	assert.Equal(t, audit.OutcomeFailed, entry.Outcome)
	assert.Equal(t, string(apperrors.ErrCodeRemoteApplication), entry.Details["errorCode"])
}

func TestRouter_PanicRecovered(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("GetStats", mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	assert.NotPanics(t, func() { f.command("/stats") })
	assert.Equal(t, textErrorGeneric, f.sender.last().Msg.Text)
}

func TestRouter_StatsWithoutData(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("GetStats", mock.Anything).Return(nil, nil).Once()

	f.command("/stats")

	assert.Equal(t, textStatsNoData, f.sender.last().Msg.Text)
}

// ==========================
// Lists, search and pickers
// ==========================

func TestRouter_ListPagination(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("ListContracts", mock.Anything, 20).Return(sampleContracts(12), nil)

	f.callback("contracts_page_2")

	last := f.sender.last()
	assert.True(t, last.Edited)
	assert.Contains(t, last.Msg.Text, "сторінка 2/2")
	assert.Contains(t, last.Msg.Text, "W-25-011")
	assert.NotContains(t, last.Msg.Text, "W-25-001 ")

	var nav []Button
	for _, row := range last.Msg.Inline {
		for _, b := range row {
			if b.Data == cbPageInfo {
				nav = row
			}
		}
	}
	require.NotNil(t, nav)
	assert.Equal(t, prefixPage+"1", nav[0].Data)
	assert.Equal(t, "2/2", nav[1].Text)
}

func TestRouter_ListFilterCommand(t *testing.T) {
	f := newRouterFixture(t)
	contracts := sampleContracts(3)
	contracts[1].Status = "завершений"
	f.api.On("ListContracts", mock.Anything, 20).Return(contracts, nil)

	f.command("/list завершені")

	text := f.sender.last().Msg.Text
	assert.Contains(t, text, "W-25-002")
	assert.NotContains(t, text, "W-25-001")
}

func TestRouter_FilterActiveCallback(t *testing.T) {
	f := newRouterFixture(t)
	contracts := sampleContracts(3)
	contracts[1].Status = "завершений"
	contracts[2].Status = ""
	f.api.On("ListContracts", mock.Anything, 20).Return(contracts, nil)

	f.callback("filter_active")

	text := f.sender.last().Msg.Text
	assert.Contains(t, text, "W-25-001")
	assert.Contains(t, text, "W-25-003", "no status counts as active")
	assert.NotContains(t, text, "W-25-002")
}

func TestRouter_Search(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("ListContracts", mock.Anything, 20).Return(sampleContracts(3), nil)

	f.command("/search")
	assert.Equal(t, textSearchPrompt, f.sender.last().Msg.Text)

	f.command("/search Т")
	assert.Equal(t, fmt.Sprintf(textSearchTooShort, 2), f.sender.last().Msg.Text)

	f.command("/search клієнт 3")
	assert.Contains(t, f.sender.last().Msg.Text, "W-25-003")

	f.command("/search nobody")
	assert.Equal(t, textNoContracts, f.sender.last().Msg.Text)
}

func TestRouter_ContractDetails(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("ListContracts", mock.Anything, 50).Return(sampleContracts(2), nil)

	f.callback("contract_details_W-25-002")
	assert.Contains(t, f.sender.last().Msg.Text, "Деталі договору W-25-002")
	assert.Equal(t, contractDetailsKeyboard("W-25-002"), f.sender.last().Msg.Inline)

	f.callback("contract_details_W-25-404")
	assert.Equal(t, fmt.Sprintf(textContractNotFound, "W-25-404"), f.sender.last().Msg.Text)
}

func TestRouter_MenuPickers(t *testing.T) {
	f := newRouterFixture(t)
	contracts := sampleContracts(10)
	contracts[0].Status = "завершений"
	contracts[1].Status = ""
	f.api.On("ListContracts", mock.Anything, 50).Return(contracts, nil)

	f.text(menuInvoice)

	inline := f.sender.last().Msg.Inline
	require.Len(t, inline, maxPickerButtons+1)
	assert.Equal(t, prefixInvoice+"W-25-002", inline[0][0].Data)
	assert.Equal(t, cbBackToMenu, inline[len(inline)-1][0].Data)
}

func TestRouter_MenuPickers_NoActive(t *testing.T) {
	f := newRouterFixture(t)
	contracts := sampleContracts(1)
	contracts[0].Status = "скасований"
	f.api.On("ListContracts", mock.Anything, 50).Return(contracts, nil)

	f.callback("quick_regen")

	assert.Equal(t, textNoActive, f.sender.last().Msg.Text)
}

func TestRouter_MenuTextDoesNotConsumeEdit(t *testing.T) {
	f := newRouterFixture(t)

	f.callback("edit_W-25-01")
	f.text(menuSettings)

	assert.Equal(t, textSettingsHeader, f.sender.last().Msg.Text)
	_, pending, _ := f.pending.Get(context.Background(), testChat)
	assert.True(t, pending)
}

// ==========================
// Export, settings, health, cache
// ==========================

func TestRouter_ExportJSON(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("ListContracts", mock.Anything, 1000).Return(sampleContracts(3), nil).Once()

	f.callback("export_json")

	require.Len(t, f.sender.docs, 1)
	doc := f.sender.docs[0]
	assert.Equal(t, "contracts_2025-03-14.json", doc.FileName)
	assert.Equal(t, fmt.Sprintf(textExportCaption, 3), doc.Caption)
	var decoded []backend.Contract
	require.NoError(t, json.Unmarshal(doc.Data, &decoded))
	assert.Len(t, decoded, 3)
	assert.Len(t, f.sender.deleted, 1, "progress message removed")
}

func TestRouter_ExportCommand(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("ListContracts", mock.Anything, 1000).Return(sampleContracts(1), nil).Once()

	f.command("/export word")
	assert.Equal(t, textExportFormats, f.sender.last().Msg.Text)

	f.command("/export")
	require.Len(t, f.sender.docs, 1)
	assert.True(t, strings.HasSuffix(f.sender.docs[0].FileName, ".csv"))
}

func TestRouter_ExportFailure(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("ListContracts", mock.Anything, 1000).Return(nil, remoteFailure("contracts")).Once()

	f.callback("export_pdf")

	assert.Empty(t, f.sender.docs)
	assert.Equal(t, textExportFailed, f.sender.last().Msg.Text)
}

func TestRouter_SettingsSystem(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("HealthCheck", mock.Anything).Return(backend.Health{Healthy: true, ResponseTime: 120 * time.Millisecond})
	f.api.On("CacheStats").Return(cache.Stats{Size: 4})

	f.clock.Advance(30 * time.Minute)
	f.callback("settings_system")

	text := f.sender.last().Msg.Text
	assert.Contains(t, text, "✅ Працює")
	assert.Contains(t, text, "120ms")
	assert.Contains(t, text, "4 записів")
	assert.Contains(t, text, "30 хвилин")

	f.callback("settings_drive")
	assert.Equal(t, textInDevelopment, f.sender.last().Msg.Text)
}

func TestRouter_HealthCommand(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("HealthCheck", mock.Anything).Return(backend.Health{Healthy: false, Error: "HTTP 503"}).Once()

	f.command("/health")

	assert.Equal(t, fmt.Sprintf(textHealthFailed, "HTTP 503"), f.sender.last().Msg.Text)
}

func TestRouter_CacheCommand(t *testing.T) {
	f := newRouterFixture(t)
	f.api.On("CacheStats").Return(cache.Stats{Size: 2, Evictions: 1}).Once()
	f.api.On("ClearCache").Once()

	f.command("/cache")
	assert.Contains(t, f.sender.last().Msg.Text, "Записів: *2*")

	f.command("/cache clear")
	assert.Equal(t, textCacheCleared, f.sender.last().Msg.Text)
	f.api.AssertExpectations(t)
}

func TestRouter_UnknownCommand(t *testing.T) {
	f := newRouterFixture(t)

	f.command("/frobnicate")

	assert.Equal(t, textUnknownCommand, f.sender.last().Msg.Text)
}

// ==========================
// Notifications
// ==========================

func TestRouter_NotifyNewContract(t *testing.T) {
	f := newRouterFixture(t)

	err := f.router.NotifyNewContract(context.Background(), backend.Contract{
		Number: "W-25-010", Client: "ТОВ Ромашка", Amount: 12000, ContractURL: "https://docs/c",
	})
	require.NoError(t, err)

	last := f.sender.last()
	assert.Equal(t, int64(777), last.ChatID)
	assert.Contains(t, last.Msg.Text, "W-25-010")
	assert.Contains(t, last.Msg.Text, "[Переглянути договір](https://docs/c)")
	assert.NotContains(t, last.Msg.Text, "Переглянути акт")
	assert.Equal(t, NewContractKeyboard("W-25-010"), last.Msg.Inline)

	err = f.router.NotifyNewContract(context.Background(), backend.Contract{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
}
