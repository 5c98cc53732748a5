package broker

import (
	"sort"
)

// freeProxies returns every known proxy that is not failed, not currently
// under an active failure report, and not referenced by any chunk in the
// cluster.
func (m *MetaStore) freeProxies() []ProxyResource {
	all := m.proxies.list()
	out := make([]ProxyResource, 0, len(all))
	for _, r := range all {
		if _, failed := m.failedProxies[r.Address]; failed {
			continue
		}
		if reporters, ok := m.failures[r.Address]; ok && len(reporters) > 0 {
			continue
		}
		if m.cluster != nil && m.cluster.referencesProxy(r.Address) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// hostBuckets partitions a proxy list by host (the substring before the
// proxy address's first colon).
func hostBuckets(proxies []ProxyResource) map[string][]ProxyResource {
	buckets := map[string][]ProxyResource{}
	for _, p := range proxies {
		host := p.Address.Host()
		buckets[host] = append(buckets[host], p)
	}
	return buckets
}

// sortedHosts returns the keys of a host-bucket map in ascending order,
// giving every tie-break in the allocator a single deterministic rule
// (spec leaves the choice open; this repository picks sorted host name).
func sortedHosts(buckets map[string][]ProxyResource) []string {
	hosts := make([]string, 0, len(buckets))
	for h := range buckets {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// removeRedundantChunks prunes proxies from whichever single host bucket is
// strictly the largest, while that bucket by itself would make it
// impossible to form anti-affine pairs (2*max > total). Only one bucket is
// ever pruned from per call to this rule — a tie between two largest
// buckets is not dominance and is left alone, matching §4.5 step 2.
func removeRedundantChunks(buckets map[string][]ProxyResource) {
	total := func() int {
		n := 0
		for _, b := range buckets {
			n += len(b)
		}
		return n
	}
	maxHost := func() (string, int) {
		best, bestN := "", -1
		for _, h := range sortedHosts(buckets) {
			if n := len(buckets[h]); n > bestN {
				best, bestN = h, n
			}
		}
		return best, bestN
	}
	for {
		tot := total()
		host, n := maxHost()
		if host == "" || 2*n <= tot {
			return
		}
		buckets[host] = buckets[host][:len(buckets[host])-1]
	}
}

// buildLinkTable returns a symmetric host-to-host matrix counting how many
// existing chunks already pair the two hosts. Every distinct host pair
// among the known hosts is seeded with 0 so "never paired" is the minimally
// weighted, most attractive choice for the pairing loop.
func (m *MetaStore) buildLinkTable(hosts []string) map[string]map[string]int {
	link := map[string]map[string]int{}
	for _, h := range hosts {
		link[h] = map[string]int{}
	}
	for i, a := range hosts {
		for j, b := range hosts {
			if i == j {
				continue
			}
			link[a][b] = 0
		}
	}
	if m.cluster != nil {
		for _, chunk := range m.cluster.Chunks {
			p0, ok0 := m.proxies.get(chunk.Proxies[0])
			p1, ok1 := m.proxies.get(chunk.Proxies[1])
			if !ok0 || !ok1 {
				continue
			}
			h0, h1 := p0.Address.Host(), p1.Address.Host()
			if h0 == h1 {
				continue
			}
			if link[h0] == nil {
				link[h0] = map[string]int{}
			}
			if link[h1] == nil {
				link[h1] = map[string]int{}
			}
			link[h0][h1]++
			link[h1][h0]++
		}
	}
	return link
}

// consumeProxy implements §4.5: it selects n proxies (n/2 ordered pairs)
// from the free pool under host anti-affinity and host-pair-balance
// constraints.
func (m *MetaStore) consumeProxy(n int) ([][2]ProxyResource, error) {
	free := m.freeProxies()
	buckets := hostBuckets(free)

	rawTotal := 0
	for _, b := range buckets {
		rawTotal += len(b)
	}

	removeRedundantChunks(buckets)

	total := 0
	for _, b := range buckets {
		total += len(b)
	}
	if total < n {
		// removeRedundantChunks only discards proxies that a single
		// dominant host holds beyond what anti-affinity could ever pair.
		// If the pool had enough proxies overall but pruning that
		// dominance is what pushed it under n, the pool is imbalanced,
		// not short.
		if rawTotal >= n {
			return nil, ErrResourceNotBalance
		}
		return nil, ErrNoAvailableResource
	}

	hosts := sortedHosts(buckets)
	link := m.buildLinkTable(hosts)

	pairs := make([][2]ProxyResource, 0, n/2)
	for i := 0; i < n/2; i++ {
		firstHost := ""
		firstN := -1
		for _, h := range sortedHosts(buckets) {
			if len(buckets[h]) > firstN {
				firstHost, firstN = h, len(buckets[h])
			}
		}
		first := popLast(buckets, firstHost)

		secondHost := ""
		secondLink := -1
		for _, h := range sortedHosts(buckets) {
			if h == firstHost || len(buckets[h]) == 0 {
				continue
			}
			l := link[firstHost][h]
			if secondHost == "" || l < secondLink {
				secondHost, secondLink = h, l
			}
		}
		second := popLast(buckets, secondHost)

		link[firstHost][secondHost]++
		link[secondHost][firstHost]++
		pairs = append(pairs, [2]ProxyResource{first, second})
	}
	return pairs, nil
}

func popLast(buckets map[string][]ProxyResource, host string) ProxyResource {
	b := buckets[host]
	last := b[len(b)-1]
	buckets[host] = b[:len(b)-1]
	return last
}

// pickReplacementHost anchors the link table at failedHost and returns the
// host with the smallest link count to it among hosts with at least one
// free proxy, used by replace_failed_proxy. Returns "" if no host has a
// free proxy.
func pickReplacementHost(buckets map[string][]ProxyResource, link map[string]map[string]int, failedHost string) string {
	best := ""
	bestLink := -1
	for _, h := range sortedHosts(buckets) {
		if len(buckets[h]) == 0 {
			continue
		}
		l := link[failedHost][h]
		if best == "" || l < bestLink {
			best, bestLink = h, l
		}
	}
	return best
}
