package broker

import "testing"

func TestConsumeProxyAvoidsSameHostPairs(t *testing.T) {
	store := NewMetaStore()
	for h := 1; h <= 2; h++ {
		addTestProxies(t, store, hostPort("127.0.0", h), []int{7001, 7002, 7003, 7004})
	}

	pairs, err := store.consumeProxy(8)
	if err != nil {
		t.Fatalf("consumeProxy = %v", err)
	}
	if len(pairs) != 4 {
		t.Fatalf("len(pairs) = %d, want 4", len(pairs))
	}
	for _, p := range pairs {
		if p[0].Address.Host() == p[1].Address.Host() {
			t.Errorf("pair %v/%v shares a host", p[0].Address, p[1].Address)
		}
	}
}

func TestConsumeProxyBalancesHostLinks(t *testing.T) {
	store := NewMetaStore()
	for h := 1; h <= 3; h++ {
		addTestProxies(t, store, hostPort("127.0.0", h), []int{7001, 7002, 7003, 7004})
	}

	pairs, err := store.consumeProxy(12)
	if err != nil {
		t.Fatalf("consumeProxy = %v", err)
	}

	linkCount := map[[2]string]int{}
	for _, p := range pairs {
		h0, h1 := p[0].Address.Host(), p[1].Address.Host()
		if h0 > h1 {
			h0, h1 = h1, h0
		}
		linkCount[[2]string{h0, h1}]++
	}
	// Three hosts, six pairs total: the balanced pairing should spread
	// roughly evenly across the three possible host-pair links rather than
	// reusing one link repeatedly while another sits idle.
	for link, n := range linkCount {
		if n > 3 {
			t.Errorf("link %v used %d times out of 6 pairs, balancing looks skewed", link, n)
		}
	}
}

func TestConsumeProxyInsufficientResources(t *testing.T) {
	store := NewMetaStore()
	addTestProxies(t, store, "127.0.0.1", []int{7001})

	_, err := store.consumeProxy(4)
	if err != ErrNoAvailableResource {
		t.Fatalf("consumeProxy = %v, want ErrNoAvailableResource", err)
	}
}

func TestRemoveRedundantChunksPrunesDominantHost(t *testing.T) {
	buckets := map[string][]ProxyResource{
		"h1": {{Address: "h1:1"}, {Address: "h1:2"}, {Address: "h1:3"}},
		"h2": {{Address: "h2:1"}},
	}
	removeRedundantChunks(buckets)

	total := len(buckets["h1"]) + len(buckets["h2"])
	if 2*len(buckets["h1"]) > total {
		t.Fatalf("h1 still dominates after pruning: h1=%d total=%d", len(buckets["h1"]), total)
	}
}

func TestRemoveRedundantChunksLeavesTieAlone(t *testing.T) {
	buckets := map[string][]ProxyResource{
		"h1": {{Address: "h1:1"}, {Address: "h1:2"}},
		"h2": {{Address: "h2:1"}, {Address: "h2:2"}},
	}
	removeRedundantChunks(buckets)
	if len(buckets["h1"]) != 2 || len(buckets["h2"]) != 2 {
		t.Fatalf("a tied pair of buckets should not be pruned, got h1=%d h2=%d", len(buckets["h1"]), len(buckets["h2"]))
	}
}
