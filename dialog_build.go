package sipcore

import (
	"github.com/sipwire/sipcore/sip"
)

// DialogCreatingMethods are the request methods that can establish a
// dialog. SUBSCRIBE is included per RFC 3265; the transport/transaction
// layers decide whether a given SUBSCRIBE actually created one.
var DialogCreatingMethods = map[sip.RequestMethod]bool{
	sip.INVITE:    true,
	sip.SUBSCRIBE: true,
}

func firstContact(msg sip.Message) (sip.Uri, bool) {
	c, ok := msg.Contact()
	if !ok || c.Address.Wildcard {
		return sip.Uri{}, false
	}
	return c.Address, true
}

func recordRouteForward(msg sip.Message) []sip.Uri {
	rr, _ := msg.RecordRoute()
	return rr.Entries()
}

// proxySendFromOf extracts the proxy_send_from endpoint from a
// dialog-establishing request's Proxy-Received-On ancillary header, if
// an upstream proxy supplied one (spec §6.5).
func proxySendFromOf(request *sip.Request) *sip.Endpoint {
	h, ok := request.GetHeader("Proxy-Received-On").(*sip.ProxyReceivedOnHeader)
	if !ok {
		return nil
	}
	ep := h.Endpoint
	return &ep
}

func reverseURIs(in []sip.Uri) []sip.Uri {
	out := make([]sip.Uri, len(in))
	for i, u := range in {
		out[len(in)-1-i] = u
	}
	return out
}

// remoteTargetFallback applies spec §4.7's NAT-mangle rule for the
// dialog's remote_target: only when the route set is empty, a private
// IPv4 remote_target is rewritten to the address the establishing
// message actually arrived from.
func remoteTargetFallback(target sip.Uri, routeSet []sip.Uri, receivedFrom sip.Endpoint) sip.Uri {
	if len(routeSet) > 0 {
		return target
	}
	if mangled, ok := target.MangleNAT(receivedFrom); ok {
		return mangled
	}
	return target
}

// NewUASDialog builds a Dialog for the side that received request and is
// answering with response (a provisional-with-tag or 2xx response to a
// dialog-establishing INVITE). receivedFrom is the address request
// actually arrived from, used for remote_target NAT mangling.
func NewUASDialog(request *sip.Request, response *sip.Response, receivedFrom sip.Endpoint, opts ...DialogOption) (*Dialog, error) {
	callID, ok := request.CallID()
	if !ok {
		return nil, newDialogError("NewUASDialog", "", "request has no Call-ID")
	}
	localTo, ok := response.To()
	if !ok {
		return nil, newDialogError("NewUASDialog", string(*callID), "response has no To")
	}
	localTag, ok := localTo.Tag()
	if !ok {
		return nil, newDialogError("NewUASDialog", string(*callID), "response To has no tag")
	}
	remoteFrom, ok := response.From()
	if !ok {
		return nil, newDialogError("NewUASDialog", string(*callID), "response has no From")
	}
	remoteTag, _ := remoteFrom.Tag()
	reqCSeq, ok := request.CSeq()
	if !ok {
		return nil, newDialogError("NewUASDialog", string(*callID), "request has no CSeq")
	}

	target, ok := firstContact(request)
	if !ok {
		target = request.Recipient.Clone()
	}
	routeSet := recordRouteForward(response)
	target = remoteTargetFallback(target, routeSet, receivedFrom)

	d := newDialog(opts...)
	d.callID = string(*callID)
	d.localUser = localTo.UserField.Clone()
	d.localTag = localTag
	d.remoteUser = remoteFrom.UserField.Clone()
	d.remoteTag = remoteTag
	d.direction = DirectionIn
	d.remoteTarget = target
	d.routeSet = routeSet
	d.remoteCSeq = reqCSeq.SeqNo
	d.proxySendFrom = proxySendFromOf(request)

	d.advanceOnResponse(response)
	return d, nil
}

// NewUACDialog builds a Dialog for the side that sent request and
// received response (a provisional-with-tag or 2xx response to a
// dialog-establishing INVITE it sent).
func NewUACDialog(request *sip.Request, response *sip.Response, opts ...DialogOption) (*Dialog, error) {
	callID, ok := response.CallID()
	if !ok {
		return nil, newDialogError("NewUACDialog", "", "response has no Call-ID")
	}
	localFrom, ok := request.From()
	if !ok {
		return nil, newDialogError("NewUACDialog", string(*callID), "request has no From")
	}
	localTag, ok := localFrom.Tag()
	if !ok {
		return nil, newDialogError("NewUACDialog", string(*callID), "request From has no tag")
	}
	remoteTo, ok := response.To()
	if !ok {
		return nil, newDialogError("NewUACDialog", string(*callID), "response has no To")
	}
	remoteTag, ok := remoteTo.Tag()
	if !ok {
		return nil, newDialogError("NewUACDialog", string(*callID), "response To has no tag")
	}
	reqCSeq, ok := request.CSeq()
	if !ok {
		return nil, newDialogError("NewUACDialog", string(*callID), "request has no CSeq")
	}

	target, ok := firstContact(response)
	if !ok {
		target = request.Recipient.Clone()
	}

	d := newDialog(opts...)
	d.callID = string(*callID)
	d.localUser = localFrom.UserField.Clone()
	d.localTag = localTag
	d.remoteUser = remoteTo.UserField.Clone()
	d.remoteTag = remoteTag
	d.direction = DirectionOut
	d.remoteTarget = target
	d.routeSet = reverseURIs(recordRouteForward(response))
	d.localCSeq.Store(reqCSeq.SeqNo)

	d.advanceOnResponse(response)
	return d, nil
}

// advanceOnResponse drives the state machine for the response that
// established (or is establishing) the dialog: a provisional carrying a
// To-tag moves to Early, a 2xx moves to Confirmed, a final non-2xx
// terminates the dialog before it ever reaches Confirmed.
func (d *Dialog) advanceOnResponse(response *sip.Response) {
	switch {
	case response.IsSuccess():
		d.fire(eventConfirm)
	case response.IsProvisional():
		if to, ok := response.To(); ok {
			if _, hasTag := to.Tag(); hasTag {
				d.fire(eventProvisional)
			}
		}
	default:
		d.fire(eventTerminate)
	}
}

// NewSubscribeDialog builds a Dialog for the UAS side of a non-INVITE
// dialog-creating request (RFC 3265 SUBSCRIBE). Unlike NewUASDialog the
// route set is taken from the request's own Record-Route, reversed, and
// the local tag is supplied by the caller since no response has been
// constructed yet.
func NewSubscribeDialog(request *sip.Request, localTag string, opts ...DialogOption) (*Dialog, error) {
	callID, ok := request.CallID()
	if !ok {
		return nil, newDialogError("NewSubscribeDialog", "", "request has no Call-ID")
	}
	localTo, ok := request.To()
	if !ok {
		return nil, newDialogError("NewSubscribeDialog", string(*callID), "request has no To")
	}
	remoteFrom, ok := request.From()
	if !ok {
		return nil, newDialogError("NewSubscribeDialog", string(*callID), "request has no From")
	}
	remoteTag, _ := remoteFrom.Tag()
	reqCSeq, ok := request.CSeq()
	if !ok {
		return nil, newDialogError("NewSubscribeDialog", string(*callID), "request has no CSeq")
	}

	target, ok := firstContact(request)
	if !ok {
		target = request.Recipient.Clone()
	}

	d := newDialog(opts...)
	d.callID = string(*callID)
	d.localUser = localTo.UserField.Clone()
	d.localTag = localTag
	d.remoteUser = remoteFrom.UserField.Clone()
	d.remoteTag = remoteTag
	d.direction = DirectionIn
	d.remoteTarget = target
	d.routeSet = reverseURIs(recordRouteForward(request))
	d.remoteCSeq = reqCSeq.SeqNo
	d.proxySendFrom = proxySendFromOf(request)
	d.fire(eventConfirm)
	return d, nil
}

// BuildRequest implements spec §4.7's in-dialog request construction:
// pre-increment local_cseq, point the Request-URI at remote_target, set
// From/To from the dialog's tagged user fields, copy the route set, push
// a fresh top Via carrying a branch, and propagate proxy_send_from.
// branchKey is passed to sip.DeterministicBranch; pass nil to fall back
// to sip.GenerateBranch for a non-deterministic branch.
func (d *Dialog) BuildRequest(method sip.RequestMethod, branchKey []byte) (*sip.Request, error) {
	d.mu.Lock()
	routeSet := make([]sip.Uri, len(d.routeSet))
	copy(routeSet, d.routeSet)
	recipient := d.remoteTarget.Clone()
	localUser := d.localUser.Clone()
	localUser.Params.Add("tag", d.localTag)
	remoteUser := d.remoteUser.Clone()
	if d.remoteTag != "" {
		remoteUser.Params.Add("tag", d.remoteTag)
	}
	callID := d.callID
	proxySendFrom := d.proxySendFrom
	d.mu.Unlock()

	if recipient.Host == "" {
		return nil, newDialogError("BuildRequest", callID, "dialog has no remote_target")
	}

	seq := d.localCSeq.Add(1)

	req := sip.NewRequest(method, recipient)
	req.AppendHeader(buildFreshVia(req, routeSet, callID, seq, branchKey, d.config.ResolvedTransport()))

	if routeChain := buildRouteChain(routeSet); routeChain != nil {
		req.AppendHeader(routeChain)
	}

	from := sip.FromHeader{UserField: localUser}
	req.AppendHeader(&from)
	to := sip.ToHeader{UserField: remoteUser}
	req.AppendHeader(&to)

	cid := sip.CallIDHeader(callID)
	req.AppendHeader(&cid)

	cseq := sip.CSeqHeader{SeqNo: seq, MethodName: method}
	req.AppendHeader(&cseq)

	maxForwards := sip.MaxForwardsHeader(70)
	req.AppendHeader(&maxForwards)

	if proxySendFrom != nil {
		req.AppendHeader(&sip.ProxySendFromHeader{Endpoint: *proxySendFrom})
	}

	return req, nil
}

// buildRouteChain turns a plain route set back into the linked Route
// header chain AppendHeader expects, preserving order.
func buildRouteChain(routeSet []sip.Uri) *sip.RouteHeader {
	if len(routeSet) == 0 {
		return nil
	}
	head := &sip.RouteHeader{Address: routeSet[0].Clone()}
	tail := head
	for _, uri := range routeSet[1:] {
		tail.Next = &sip.RouteHeader{Address: uri.Clone()}
		tail = tail.Next
	}
	return head
}

// buildFreshVia synthesizes the branch for the fresh top Via per spec
// §4.6. The transport layer is responsible for filling in this host's
// actual sent-by address before the request goes on the wire; here only
// the branch and the dialog's configured default transport are
// meaningful to the dialog layer.
func buildFreshVia(req *sip.Request, routeSet []sip.Uri, callID string, seq uint32, branchKey []byte, transport string) *sip.ViaHeader {
	via := &sip.ViaHeader{
		ProtocolName:    "SIP",
		ProtocolVersion: "2.0",
		Transport:       transport,
		Params:          sip.NewParams(),
	}

	branch := sip.GenerateBranch()
	if branchKey != nil {
		routeStrs := make([]string, len(routeSet))
		for i, u := range routeSet {
			routeStrs[i] = u.CanonicalAddress()
		}
		branch = sip.DeterministicBranch(branchKey, sip.BranchInput{
			CallID:     callID,
			RequestURI: req.Recipient.CanonicalAddress(),
			CSeqNumber: seq,
			RouteSet:   routeStrs,
		})
	}
	via.Params.Add("branch", branch)
	return via
}
