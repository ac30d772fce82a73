package sipcore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"github.com/sipwire/sipcore/sip"
)

// Direction records which side of the signaling exchange created this
// Dialog: the UAC that sent the dialog-establishing request, or the UAS
// that answered it.
type Direction int

const (
	DirectionOut Direction = iota // this process was the UAC
	DirectionIn                   // this process was the UAS
)

func (d Direction) String() string {
	if d == DirectionIn {
		return "in"
	}
	return "out"
}

// DialogState is the dialog lifecycle (RFC 3261 §12).
type DialogState int

const (
	DialogStateUnknown DialogState = iota
	DialogStateEarly
	DialogStateConfirmed
	DialogStateTerminated
)

func (s DialogState) String() string {
	switch s {
	case DialogStateEarly:
		return "early"
	case DialogStateConfirmed:
		return "confirmed"
	case DialogStateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

const (
	eventProvisional = "provisional"
	eventConfirm     = "confirm"
	eventTerminate   = "terminate"
)

// Dialog is the one mutable aggregate in this package: everything that
// identifies a SIP dialog and lets further in-dialog requests be built
// against it. All other types in this module (Uri, UserField, messages)
// are immutable and copied on modification; Dialog is not — local_cseq
// and remote_cseq are shared mutable state by design (RFC 3261 §12.2).
type Dialog struct {
	mu sync.Mutex

	callID     string
	localUser  sip.UserField
	localTag   string
	remoteUser sip.UserField
	remoteTag  string

	localCSeq  atomic.Uint32
	remoteCSeq uint32 // guarded by mu

	routeSet      []sip.Uri
	remoteTarget  sip.Uri
	direction     Direction
	proxySendFrom *sip.Endpoint

	fsm    *fsm.FSM
	log    zerolog.Logger
	m      *Metrics
	config sip.Config
}

// DialogOption configures a Dialog at construction time.
type DialogOption func(d *Dialog)

// WithDialogLogger sets the logger a Dialog reports state transitions
// and Hangup failures to. The zero Dialog uses a disabled logger.
func WithDialogLogger(logger zerolog.Logger) DialogOption {
	return func(d *Dialog) { d.log = logger }
}

// WithDialogMetrics wires a Metrics instance so state transitions and
// BYE outcomes are counted.
func WithDialogMetrics(m *Metrics) DialogOption {
	return func(d *Dialog) { d.m = m }
}

// WithDialogConfig wires the wire-format defaults (default transport in
// particular) a Dialog falls back to when it synthesizes a fresh Via for
// an in-dialog request with no other transport signal available.
func WithDialogConfig(cfg sip.Config) DialogOption {
	return func(d *Dialog) { d.config = cfg }
}

func newDialog(opts ...DialogOption) *Dialog {
	d := &Dialog{log: zerolog.Nop(), config: sip.DefaultConfig()}
	for _, o := range opts {
		o(d)
	}
	d.fsm = fsm.NewFSM(
		DialogStateUnknown.String(),
		fsm.Events{
			{Name: eventProvisional, Src: []string{DialogStateUnknown.String()}, Dst: DialogStateEarly.String()},
			{Name: eventConfirm, Src: []string{DialogStateUnknown.String(), DialogStateEarly.String()}, Dst: DialogStateConfirmed.String()},
			{Name: eventTerminate, Src: []string{
				DialogStateUnknown.String(), DialogStateEarly.String(), DialogStateConfirmed.String(),
			}, Dst: DialogStateTerminated.String()},
		},
		fsm.Callbacks{},
	)
	return d
}

// CallID returns the dialog's Call-ID.
func (d *Dialog) CallID() string { return d.callID }

// State returns the current lifecycle state.
func (d *Dialog) State() DialogState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return parseDialogState(d.fsm.Current())
}

func parseDialogState(s string) DialogState {
	switch s {
	case DialogStateEarly.String():
		return DialogStateEarly
	case DialogStateConfirmed.String():
		return DialogStateConfirmed
	case DialogStateTerminated.String():
		return DialogStateTerminated
	default:
		return DialogStateUnknown
	}
}

// RemoteTarget returns the current Remote-Target URI.
func (d *Dialog) RemoteTarget() sip.Uri {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.remoteTarget
}

// RouteSet returns a copy of the dialog's Route set, in the order it
// will be placed into an outbound in-dialog request.
func (d *Dialog) RouteSet() []sip.Uri {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]sip.Uri, len(d.routeSet))
	copy(out, d.routeSet)
	return out
}

// LocalTag and RemoteTag return the dialog-identifying tags.
func (d *Dialog) LocalTag() string  { return d.localTag }
func (d *Dialog) RemoteTag() string { return d.remoteTag }

// Direction reports whether this process was the UAC or UAS for the
// dialog-establishing exchange.
func (d *Dialog) Direction() Direction { return d.direction }

// fire drives the state machine and records the transition. fsm.Event
// returns fsm.NoTransitionError when src==dst and fsm.InvalidEventError
// when the event is not valid from the current state; every error is
// treated as a no-op here, since e.g. a retransmitted 2xx should not fail
// the caller.
func (d *Dialog) fire(event string) {
	d.mu.Lock()
	before := d.fsm.Current()
	_ = d.fsm.Event(context.Background(), event)
	after := d.fsm.Current()
	d.mu.Unlock()

	if before != after {
		d.log.Debug().Str("call_id", d.callID).Str("from", before).Str("to", after).Msg("dialog state transition")
		if d.m != nil {
			d.m.DialogTransitions.WithLabelValues(before, after).Inc()
		}
	}
}

// DeliverInbound applies RFC 3261 §12.2.2 in-dialog request validation:
// the new request's CSeq must be strictly greater than the last one seen
// from the remote party, guarding against replay and out-of-order
// delivery. On success it stores the new CSeq and returns nil.
func (d *Dialog) DeliverInbound(req *sip.Request) error {
	cseq, ok := req.CSeq()
	if !ok {
		return newDialogError("DeliverInbound", d.callID, "request has no CSeq")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.remoteCSeq != 0 && cseq.SeqNo <= d.remoteCSeq {
		return newDialogError("DeliverInbound", d.callID, "out-of-order CSeq %d, last seen %d", cseq.SeqNo, d.remoteCSeq)
	}
	d.remoteCSeq = cseq.SeqNo
	return nil
}
