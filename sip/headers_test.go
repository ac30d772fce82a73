package sip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderSetWireOrder(t *testing.T) {
	uri, err := ParseUri("sip:bob@biloxi.com")
	require.NoError(t, err)
	req := NewRequest(INVITE, uri)

	contentType := ContentTypeHeader("application/sdp")
	req.AppendHeader(&contentType)
	cid := CallIDHeader("abc")
	req.AppendHeader(&cid)
	from, err := ParseUserField("sip:alice@atlanta.com;tag=1")
	require.NoError(t, err)
	req.AppendHeader(&FromHeader{UserField: from})
	via := ViaHeader{ProtocolName: "SIP", ProtocolVersion: "2.0", Transport: "UDP", Host: "atlanta.com"}
	req.AppendHeader(&via)

	ordered := req.headerOrderForWire()
	names := make([]string, len(ordered))
	for i, h := range ordered {
		names[i] = h.Name()
	}
	assert.Equal(t, []string{"Via", "From", "Call-ID", "Content-Type"}, names)
}

func TestHeaderSetTypedAccess(t *testing.T) {
	uri, err := ParseUri("sip:bob@biloxi.com")
	require.NoError(t, err)
	req := NewRequest(INVITE, uri)

	_, ok := req.Via()
	assert.False(t, ok)

	via := &ViaHeader{ProtocolName: "SIP", ProtocolVersion: "2.0", Transport: "UDP", Host: "atlanta.com"}
	req.AppendHeader(via)
	got, ok := req.Via()
	require.True(t, ok)
	assert.Same(t, via, got)
}

func TestHeaderSetReplaceAndRemove(t *testing.T) {
	uri, err := ParseUri("sip:bob@biloxi.com")
	require.NoError(t, err)
	req := NewRequest(INVITE, uri)

	cid1 := CallIDHeader("first")
	req.AppendHeader(&cid1)
	cid2 := CallIDHeader("second")
	req.ReplaceHeader(&cid2)

	got, ok := req.CallID()
	require.True(t, ok)
	assert.Equal(t, "second", string(*got))
	assert.Len(t, req.Headers(), 1)

	req.RemoveHeader("Call-ID")
	_, ok = req.CallID()
	assert.False(t, ok)
}

func TestViaHeaderChain(t *testing.T) {
	v1 := &ViaHeader{ProtocolName: "SIP", ProtocolVersion: "2.0", Transport: "UDP", Host: "a.com", Params: NewParams()}
	v1.Params.Add("branch", "z9hG4bK1")
	v2 := &ViaHeader{ProtocolName: "SIP", ProtocolVersion: "2.0", Transport: "UDP", Host: "b.com", Params: NewParams()}
	v2.Params.Add("branch", "z9hG4bK2")
	v1.Next = v2

	assert.Contains(t, v1.Value(), "a.com")
	assert.Contains(t, v1.Value(), "b.com")

	clone := v1.Clone()
	clone.Next.Host = "mutated.com"
	assert.Equal(t, "b.com", v1.Next.Host, "cloning the chain must not alias the tail")
}

func TestRouteHeaderEntriesRoundTrip(t *testing.T) {
	u1, err := ParseUri("sip:p1.example.com;lr")
	require.NoError(t, err)
	u2, err := ParseUri("sip:p2.example.com;lr")
	require.NoError(t, err)

	chain := &RouteHeader{Address: u1}
	chain.Next = &RouteHeader{Address: u2}

	entries := chain.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "p1.example.com", entries[0].Host)
	assert.Equal(t, "p2.example.com", entries[1].Host)
}

func TestContactHeaderWildcard(t *testing.T) {
	h := &ContactHeader{UserField: UserField{Address: Uri{Wildcard: true}}}
	assert.Equal(t, "Contact: *", h.String())
}

func TestSetBodySyncsContentLength(t *testing.T) {
	uri, err := ParseUri("sip:bob@biloxi.com")
	require.NoError(t, err)
	req := NewRequest(INVITE, uri)

	req.SetBody([]byte("v=0"))
	cl, ok := req.ContentLength()
	require.True(t, ok)
	assert.Equal(t, ContentLengthHeader(3), *cl)

	req.SetBody([]byte("v=0\r\n"))
	cl, ok = req.ContentLength()
	require.True(t, ok)
	assert.Equal(t, ContentLengthHeader(5), *cl)
}
