// internal/common/errors/handler.go
package errors

import stderrors "errors"

// ErrorHandler logs failures caught at the chat boundary with their code and
// category. The notice shown in chat is chosen by the caller.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err with the given context.
func (h *ErrorHandler) Handle(err error, fields map[string]interface{}) {
	stdErr := Normalize(err)

	logFields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"errorMessage":  stdErr.Message,
		"errorDetails":  stdErr.Details,
	}
	var remote *RemoteError
	if AsRemote(err, &remote) {
		logFields["attempts"] = remote.Attempts
		logFields["remoteAction"] = remote.Action
	}
	for k, v := range fields {
		logFields[k] = v
	}

	switch GetErrorCategory(stdErr.Code) {
	case "VALIDATION", "ROUTING", "NOT_FOUND":
		h.logger.Warn("request rejected", logFields)
	default:
		h.logger.Error("request failed", logFields)
	}
}

// AsRemote is errors.As specialised for RemoteError.
func AsRemote(err error, target **RemoteError) bool {
	return stderrors.As(err, target)
}
