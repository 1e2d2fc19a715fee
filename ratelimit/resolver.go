package ratelimit

import "strings"

// Identifier derives the abuse-tracking key for a request: the first entry
// of the forwarded-for header, falling back to the transport peer address,
// suffixed with the authenticated user id when one is present.
//
// The forwarded-for header is client-controllable in general topology; this
// trusts the first hop exactly as the deployment configures it and does not
// validate proxy chains. Unauthenticated callers behind one NAT collapse to
// the same identifier, which is an accepted trade-off.
func Identifier(forwardedFor, peerAddr, userId string) string {
	addr := peerAddr
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.SplitN(forwardedFor, ",", 2)[0])
		if first != "" {
			addr = first
		}
	}
	if userId != "" {
		return addr + ":" + userId
	}
	return addr
}
