package sip

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"strconv"
	"strings"
)

// branchEncoding renders a branch suffix using RFC 4648 base32 without
// padding, lower-cased: token-safe and compact.
var branchEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// BranchInput collects the fields a deterministic branch ID is derived
// from (spec §4.6): everything a forking/looping proxy would need to
// distinguish "the same request, seen twice" from "a genuinely new
// request for the same dialog".
type BranchInput struct {
	ToTag        string
	FromTag      string
	CallID       string
	RequestURI   string
	TopVia       string
	CSeqNumber   uint32
	RouteSet     []string
	ProxyRequire string
}

// GenerateBranch returns a fresh RFC 3261 §8.1.1.7 compliant branch
// parameter (the z9hG4bK magic cookie, a '.', then 16 random chars). Used
// when a new client transaction is created and no deterministic input is
// available or desired.
func GenerateBranch() string {
	return GenerateBranchN(16)
}

// GenerateBranchN is GenerateBranch with an explicit suffix length.
func GenerateBranchN(n int) string {
	return RFC3261BranchMagicCookie + "." + RandString(n)
}

// DeterministicBranch derives a stable branch ID from in, keyed by key
// (typically a per-process secret). Identical inputs under the same key
// always produce the same branch; this lets a stateless proxy recompute
// the branch it would have generated for a retransmission instead of
// keeping transaction state, and lets loop detection (HasLooped) work
// without a shared cache.
func DeterministicBranch(key []byte, in BranchInput) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(in.ToTag))
	mac.Write([]byte{0})
	mac.Write([]byte(in.FromTag))
	mac.Write([]byte{0})
	mac.Write([]byte(in.CallID))
	mac.Write([]byte{0})
	mac.Write([]byte(in.RequestURI))
	mac.Write([]byte{0})
	mac.Write([]byte(in.TopVia))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatUint(uint64(in.CSeqNumber), 10)))
	mac.Write([]byte{0})
	mac.Write([]byte(strings.Join(in.RouteSet, ",")))
	mac.Write([]byte{0})
	mac.Write([]byte(in.ProxyRequire))

	sum := mac.Sum(nil)
	return RFC3261BranchMagicCookie + "." + strings.ToLower(branchEncoding.EncodeToString(sum[:10]))
}

// HasLooped reports whether seenBranch (a branch parameter already
// observed on an earlier occurrence of this request, as collected by a
// proxy along its Via chain) equals the branch that would be computed
// now for the same BranchInput, i.e. whether this request has come back
// around to an agent that already processed it (RFC 3261 §16.3 step 4).
func HasLooped(key []byte, seenBranch string, in BranchInput) bool {
	return seenBranch == DeterministicBranch(key, in)
}
