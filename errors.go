package sipcore

import "fmt"

// DialogError reports a dialog-layer precondition failure (as opposed to
// a sip.ValidationError, which reports a wire-syntax failure).
type DialogError struct {
	Op      string
	Call    string
	Message string
}

func (e *DialogError) Error() string {
	return fmt.Sprintf("sipcore: %s (call-id=%s): %s", e.Op, e.Call, e.Message)
}

func newDialogError(op, callID, format string, args ...any) *DialogError {
	return &DialogError{Op: op, Call: callID, Message: fmt.Sprintf(format, args...)}
}
