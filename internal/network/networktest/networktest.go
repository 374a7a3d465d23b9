// Package networktest provides dataset fixtures for tests.
package networktest

import (
	"fmt"
	"math/rand"

	"github.com/feedergraph/feedergraph/internal/network"
)

var kinds = []network.Kind{
	network.KindTransformer,
	network.KindStreet,
	network.KindHouse,
	network.KindHouse,
}

// RandomDataset builds a messy but duplicate-free dataset from seed: one
// feeder followed by size-1 elements with random forward, backward and street
// references, some of them dangling, some streets removed and some houses
// carrying explicit ids.
func RandomDataset(seed int64, size int) []network.Element {
	if size < 1 {
		size = 1
	}
	r := rand.New(rand.NewSource(seed))

	// ids beyond size are dangling
	ref := func() string { return fmt.Sprintf("n%d", r.Intn(size+size/4+1)) }
	refs := func(max int) []string {
		out := make([]string, r.Intn(max+1))
		for i := range out {
			out[i] = ref()
		}
		return out
	}

	elems := make([]network.Element, 0, size)
	elems = append(elems, network.Element{
		ID:        "n0",
		Kind:      network.KindFeeder,
		NextNodes: refs(3),
	})

	for i := 1; i < size; i++ {
		x, y := r.Float64()*100, r.Float64()*100
		e := network.Element{
			ID:        fmt.Sprintf("n%d", i),
			Kind:      kinds[r.Intn(len(kinds))],
			XMeters:   &x,
			YMeters:   &y,
			NextNodes: refs(2),
			PrevNodes: refs(1),
		}
		switch e.Kind {
		case network.KindHouse:
			h := &network.HouseAttrs{}
			if r.Intn(3) == 0 {
				id := i * 2
				h.HouseID = &id
			}
			e.House = h
		case network.KindStreet:
			e.Street = &network.StreetAttrs{
				ConnectedNodes: refs(2),
				NetNodeID:      ref(),
				Removed:        r.Intn(6) == 0,
			}
		}
		elems = append(elems, e)
	}
	return elems
}

// Chain returns feeder F -> transformer T -> house H with both forward and
// backward references.
func Chain() []network.Element {
	return []network.Element{
		{ID: "F", Kind: network.KindFeeder, NextNodes: []string{"T"}},
		{ID: "T", Kind: network.KindTransformer, PrevNodes: []string{"F"}, NextNodes: []string{"H"}},
		{ID: "H", Kind: network.KindHouse, PrevNodes: []string{"T"}, House: &network.HouseAttrs{}},
	}
}
