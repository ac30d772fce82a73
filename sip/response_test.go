package sip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponseFromRequest(t *testing.T) {
	invite := buildInvite(t)
	invite.SetSource("198.51.100.3:12345")

	via, ok := invite.Via()
	require.True(t, ok)
	via.Params.Add("rport", "")

	res := NewResponseFromRequest(invite, int(StatusOK), "OK", nil)

	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "OK", res.Reason)

	resVia, ok := res.Via()
	require.True(t, ok)
	rport, ok := resVia.Params.Get("rport")
	require.True(t, ok)
	assert.Equal(t, "12345", rport)
	received, ok := resVia.Params.Get("received")
	require.True(t, ok)
	assert.Equal(t, "198.51.100.3", received)

	to, ok := res.To()
	require.True(t, ok)
	_, hasTag := to.Tag()
	assert.True(t, hasTag, "a non-100 response must stamp a To tag")
}

func TestNewResponseFromRequestNoTagOnTrying(t *testing.T) {
	invite := buildInvite(t)
	res := NewResponseFromRequest(invite, int(StatusTrying), "Trying", nil)

	to, ok := res.To()
	require.True(t, ok)
	_, hasTag := to.Tag()
	assert.False(t, hasTag, "100 Trying must not get a To tag")
}

func TestNewSDPResponseFromRequest(t *testing.T) {
	invite := buildInvite(t)
	body := []byte("v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\n")

	res := NewSDPResponseFromRequest(invite, body)

	assert.Equal(t, 200, res.StatusCode)
	ct, ok := res.ContentType()
	require.True(t, ok)
	assert.Equal(t, "application/sdp", string(*ct))
	assert.Equal(t, body, res.Body())
}

func TestResponseClassification(t *testing.T) {
	assert.True(t, NewResponse(100, "Trying").IsProvisional())
	assert.True(t, NewResponse(200, "OK").IsSuccess())
	assert.True(t, NewResponse(302, "Moved Temporarily").IsRedirection())
	assert.True(t, NewResponse(404, "Not Found").IsClientError())
	assert.True(t, NewResponse(500, "Server Internal Error").IsServerError())
	assert.True(t, NewResponse(600, "Busy Everywhere").IsGlobalError())
}

func TestCopyResponseIsIndependent(t *testing.T) {
	invite := buildInvite(t)
	res := NewResponseFromRequest(invite, int(StatusOK), "OK", []byte("orig"))

	copied := CopyResponse(res)
	copied.SetBody([]byte("changed"))

	assert.Equal(t, []byte("orig"), res.Body())
	assert.Equal(t, []byte("changed"), copied.Body())
	assert.Equal(t, res.StatusCode, copied.StatusCode)
}

func TestResponseDestinationHonoursReceivedRport(t *testing.T) {
	res := NewResponse(int(StatusOK), "OK")
	viaHdr := &ViaHeader{ProtocolName: "SIP", ProtocolVersion: "2.0", Transport: "UDP", Host: "pc33.atlanta.com", Params: NewParams()}
	viaHdr.Params.Add("received", "203.0.113.9")
	viaHdr.Params.Add("rport", "9999")
	res.AppendHeader(viaHdr)

	assert.Equal(t, "203.0.113.9:9999", res.Destination())
}
