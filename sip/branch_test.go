package sip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateBranch(t *testing.T) {
	a := GenerateBranch()
	b := GenerateBranch()
	assert.True(t, len(a) > len(RFC3261BranchMagicCookie))
	assert.NotEqual(t, a, b, "random branches must not collide in practice")
	assert.Contains(t, a, RFC3261BranchMagicCookie)
}

func TestDeterministicBranch(t *testing.T) {
	key := []byte("test-key")
	in := BranchInput{
		CallID:     "a84b4c76e66710@pc33.atlanta.com",
		RequestURI: "sip:bob@biloxi.com",
		CSeqNumber: 1,
		RouteSet:   []string{"sip:proxy1.example.com", "sip:proxy2.example.com"},
	}

	t.Run("deterministic under the same key and input", func(t *testing.T) {
		a := DeterministicBranch(key, in)
		b := DeterministicBranch(key, in)
		assert.Equal(t, a, b)
		assert.Contains(t, a, RFC3261BranchMagicCookie)
	})

	t.Run("different key changes the branch", func(t *testing.T) {
		a := DeterministicBranch(key, in)
		b := DeterministicBranch([]byte("other-key"), in)
		assert.NotEqual(t, a, b)
	})

	t.Run("any differing field changes the branch", func(t *testing.T) {
		base := DeterministicBranch(key, in)

		withCSeq := in
		withCSeq.CSeqNumber = 2
		assert.NotEqual(t, base, DeterministicBranch(key, withCSeq))

		withRoute := in
		withRoute.RouteSet = []string{"sip:proxy3.example.com"}
		assert.NotEqual(t, base, DeterministicBranch(key, withRoute))

		withURI := in
		withURI.RequestURI = "sip:alice@biloxi.com"
		assert.NotEqual(t, base, DeterministicBranch(key, withURI))
	})
}

func TestHasLooped(t *testing.T) {
	key := []byte("proxy-secret")
	in := BranchInput{CallID: "abc", RequestURI: "sip:bob@biloxi.com", CSeqNumber: 1}

	branch := DeterministicBranch(key, in)
	assert.True(t, HasLooped(key, branch, in))
	assert.False(t, HasLooped(key, GenerateBranch(), in))
}
