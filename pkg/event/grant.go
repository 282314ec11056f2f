// Copyright 2025 Certen Protocol

package event

import "github.com/kepler-network/orbit-core/pkg/resource"

// toWireGrant flattens a Grant's resource into the nested wire shape.
func toWireGrant(g Grant) (wireCapability, error) {
	wc, err := g.Resource.ToWireCapability()
	if err != nil {
		return wireCapability{}, parseErr(ReasonInvalidResource, err)
	}
	return wireCapability{
		With:    wc.With,
		Can:     wireCan{Namespace: wc.Namespace, Capability: wc.Action},
		Caveats: g.Caveats,
	}, nil
}

// fromWireGrant reconstructs a Grant from its wire shape.
func fromWireGrant(wc wireCapability) (Grant, error) {
	r, err := resource.ResourceFromWireCapability(resource.WireCapability{
		With:      wc.With,
		Namespace: wc.Can.Namespace,
		Action:    wc.Can.Capability,
	})
	if err != nil {
		return Grant{}, parseErr(ReasonInvalidResource, err)
	}
	return Grant{Resource: r, Caveats: wc.Caveats}, nil
}

func toWireGrants(grants []Grant) ([]wireCapability, error) {
	out := make([]wireCapability, 0, len(grants))
	for _, g := range grants {
		wc, err := toWireGrant(g)
		if err != nil {
			return nil, err
		}
		out = append(out, wc)
	}
	return out, nil
}

func fromWireGrants(wcs []wireCapability) ([]Grant, error) {
	out := make([]Grant, 0, len(wcs))
	for _, wc := range wcs {
		g, err := fromWireGrant(wc)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
