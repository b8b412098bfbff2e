package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	errors []string
	warns  []string
	last   map[string]interface{}
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.errors = append(l.errors, msg)
	l.last = fields
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.warns = append(l.warns, msg)
	l.last = fields
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeRemoteTransportFailed, "TRANSPORT"},
		{ErrCodeRemoteTimeout, "TRANSPORT"},
		{ErrCodeRemoteHTTPStatus, "TRANSPORT"},
		{ErrCodeRemoteApplication, "APPLICATION"},
		{ErrCodeRemoteBadPayload, "APPLICATION"},
		{ErrCodeInvalidContractNumber, "VALIDATION"},
		{ErrCodeNoEditFields, "VALIDATION"},
		{ErrCodeUnsupportedFormat, "VALIDATION"},
		{ErrCodeUnknownCallback, "ROUTING"},
		{ErrCodeContractNotFound, "NOT_FOUND"},
		{ErrCodeInternal, "OTHER"},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.code))
		})
	}
}

func TestNewApplicationError_DefaultMessage(t *testing.T) {
	assert.Equal(t, "API returned error", NewApplicationError("stats", "").Message)
	assert.Equal(t, "Contract not found", NewApplicationError("stats", "Contract not found").Message)
}

func TestRemoteError_Unwraps(t *testing.T) {
	last := NewTimeoutError("contracts", context.DeadlineExceeded)
	err := fmt.Errorf("list: %w", &RemoteError{Action: "contracts", Attempts: 3, Last: last})

	assert.True(t, HasCode(err, ErrCodeRemoteTimeout))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var remote *RemoteError
	require.True(t, AsRemote(err, &remote))
	assert.Equal(t, 3, remote.Attempts)
	assert.Contains(t, err.Error(), `"contracts" failed after 3 attempt(s)`)
}

func TestNormalize_ForeignError(t *testing.T) {
	stdErr := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "boom", stdErr.Details)
}

func TestErrorHandler_Handle(t *testing.T) {
	t.Run("remote failure logs as error", func(t *testing.T) {
		log := &recordingLogger{}
		h := NewErrorHandler(log)

		err := &RemoteError{Action: "regenerate", Attempts: 3, Last: NewApplicationError("regenerate", "quota")}
		h.Handle(err, map[string]interface{}{"chatId": int64(42)})

		require.Len(t, log.errors, 1)
		assert.Empty(t, log.warns)
		assert.Equal(t, 3, log.last["attempts"])
		assert.Equal(t, int64(42), log.last["chatId"])
		assert.Equal(t, "APPLICATION", log.last["errorCategory"])
	})

	t.Run("validation logs as warning", func(t *testing.T) {
		log := &recordingLogger{}
		h := NewErrorHandler(log)

		h.Handle(NewInvalidContractNumberError("W-25-1"), nil)
		assert.Len(t, log.warns, 1)
		assert.Equal(t, "VALIDATION", log.last["errorCategory"])
		assert.Equal(t, string(ErrCodeInvalidContractNumber), log.last["errorCode"])
		assert.Empty(t, log.errors)
	})
}
