// Package sipcore binds the sip package's message codec into dialog
// identity and call state (RFC 3261 §12): constructing a Dialog from an
// INVITE/2xx or SUBSCRIBE exchange, building further in-dialog requests
// off it, and tearing it down with BYE. Everything below the wire
// (transport, transaction retransmission/timers, the user-agent layer
// that decides what to send) is an external collaborator, reached only
// through the narrow Transport interface.
package sipcore

import (
	"context"

	"github.com/sipwire/sipcore/sip"
)

// Transport is the one collaborator this package depends on: something
// that can hand a request to the network. Retransmission, timers, and
// response correlation are the transaction layer's job, not this
// package's — Send is fire-and-forget from the dialog's point of view.
type Transport interface {
	Send(ctx context.Context, req *sip.Request, destination sip.Endpoint) error
}
