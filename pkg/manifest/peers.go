// Copyright 2025 Certen Protocol

package manifest

import (
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// parseBootstrapPeerEndpoint decodes a single service-endpoint string (a
// libp2p multiaddr carrying a /p2p/<peer-id> component) into a peer id and
// its one address. Any malformed endpoint is reported via ok=false so the
// caller can drop it without failing manifest resolution.
func parseBootstrapPeerEndpoint(ep string) (id string, addr string, ok bool) {
	ma, err := multiaddr.NewMultiaddr(ep)
	if err != nil {
		return "", "", false
	}
	info, err := peer.AddrInfoFromP2pAddr(ma)
	if err != nil || info == nil || len(info.Addrs) == 0 {
		return "", "", false
	}
	return info.ID.String(), info.Addrs[0].String(), true
}
