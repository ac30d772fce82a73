package sipcore

import (
	"context"

	"github.com/sipwire/sipcore/sip"
)

// Hangup marks the dialog Terminated, builds an in-dialog BYE, and hands
// it to transport. Failures during send are logged and swallowed: the
// dialog is already torn down locally regardless of whether the far end
// ever sees the BYE (spec §4.7).
func (d *Dialog) Hangup(ctx context.Context, transport Transport, callerProxy sip.Endpoint, branchKey []byte) error {
	d.fire(eventTerminate)

	req, err := d.BuildRequest(sip.BYE, branchKey)
	if err != nil {
		d.log.Error().Err(err).Str("call_id", d.callID).Msg("failed to build BYE")
		if d.m != nil {
			d.m.ByeFailures.Inc()
		}
		return err
	}

	destination := d.outboundProxy(callerProxy)
	if err := transport.Send(ctx, req, destination); err != nil {
		d.log.Warn().Err(err).Str("call_id", d.callID).Str("destination", destination.String()).Msg("BYE send failed, dialog already torn down locally")
		if d.m != nil {
			d.m.ByeFailures.Inc()
		}
		return nil
	}

	if d.m != nil {
		d.m.ByeSent.Inc()
	}
	return nil
}

// outboundProxy implements the selection rule: the caller-supplied proxy
// wins outright when it is loopback (local testing / same-host routing);
// otherwise proxy_send_from, re-pointed at the default SIP port, takes
// priority so the BYE retraces the path the establishing call arrived
// on; absent that, fall back to the caller-supplied proxy.
func (d *Dialog) outboundProxy(callerProxy sip.Endpoint) sip.Endpoint {
	if callerProxy.IP != nil && callerProxy.IP.IsLoopback() {
		return callerProxy
	}

	d.mu.Lock()
	proxySendFrom := d.proxySendFrom
	d.mu.Unlock()

	if proxySendFrom != nil {
		return sip.NewEndpoint(proxySendFrom.Protocol, proxySendFrom.IP, sip.DefaultPort(sip.DefaultTransport))
	}
	return callerProxy
}
