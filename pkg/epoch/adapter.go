// Copyright 2025 Certen Protocol

package epoch

import (
	"context"

	"github.com/kepler-network/orbit-core/pkg/authz"
	"github.com/kepler-network/orbit-core/pkg/capgraph"
	"github.com/kepler-network/orbit-core/pkg/khash"
)

// graphAdapter satisfies authz.GraphReader over a capgraph.Querier,
// layering an in-memory view of delegations already applied earlier in the
// current commit batch on top of what's already durable — the
// "transactional snapshot including events already applied earlier in this
// batch" §4.6 point 5 requires.
type graphAdapter struct {
	q       capgraph.Querier
	pending map[khash.Hash]*authz.DelegationView
}

func newGraphAdapter(q capgraph.Querier) *graphAdapter {
	return &graphAdapter{q: q, pending: make(map[khash.Hash]*authz.DelegationView)}
}

func (g *graphAdapter) GetDelegation(ctx context.Context, hash khash.Hash) (*authz.DelegationView, bool, error) {
	if v, ok := g.pending[hash]; ok {
		return v, true, nil
	}
	rec, err := capgraph.GetDelegation(ctx, g.q, hash)
	if err == capgraph.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	revoked, err := capgraph.IsDelegationRevoked(ctx, g.q, hash)
	if err != nil {
		return nil, false, err
	}
	return &authz.DelegationView{
		Delegator:    rec.Info.Delegator,
		Delegate:     rec.Info.Delegate,
		NotBefore:    rec.Info.NotBefore,
		Expiry:       rec.Info.Expiry,
		Capabilities: rec.Info.Capabilities,
		Revoked:      revoked,
	}, true, nil
}

// addPending records a delegation this batch has already validated, so
// later events in the same batch can chain off it before it's durable.
func (g *graphAdapter) addPending(hash khash.Hash, info *authz.DelegationView) {
	g.pending[hash] = info
}

// markRevoked flags hash as revoked for the remainder of this batch,
// whether it's a pending in-batch delegation or one already durable.
func (g *graphAdapter) markRevoked(ctx context.Context, hash khash.Hash) error {
	if v, ok := g.pending[hash]; ok {
		v.Revoked = true
		return nil
	}
	view, ok, err := g.GetDelegation(ctx, hash)
	if err != nil {
		return err
	}
	if ok {
		view.Revoked = true
		g.pending[hash] = view
	}
	return nil
}
