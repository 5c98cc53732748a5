package meta

import "testing"

func TestProxyAddressValid(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:7000", true},
		{"localhost:9999", true},
		{"no-colon", false},
		{"too:many:colons", false},
		{"", false},
	}
	for _, c := range cases {
		t.Run(c.addr, func(t *testing.T) {
			if got := ProxyAddress(c.addr).Valid(); got != c.want {
				t.Errorf("Valid(%q) = %v, want %v", c.addr, got, c.want)
			}
		})
	}
}

func TestProxyAddressHost(t *testing.T) {
	if got := ProxyAddress("10.0.0.1:7000").Host(); got != "10.0.0.1" {
		t.Errorf("Host() = %q, want %q", got, "10.0.0.1")
	}
}

func TestEvenSplit(t *testing.T) {
	t.Run("divides evenly", func(t *testing.T) {
		total := 0
		for i := 0; i < 4; i++ {
			r := EvenSplit(i, 4)
			total += r.Count()
			if r.Count() != SlotNum/4 {
				t.Errorf("master %d got %d slots, want %d", i, r.Count(), SlotNum/4)
			}
		}
		if total != SlotNum {
			t.Errorf("total slots = %d, want %d", total, SlotNum)
		}
	})

	t.Run("remainder distributed to lowest indices, contiguous coverage", func(t *testing.T) {
		m := 3
		total := 0
		next := SlotIndex(0)
		for i := 0; i < m; i++ {
			r := EvenSplit(i, m)
			if r.Start != next {
				t.Fatalf("master %d starts at %d, want %d", i, r.Start, next)
			}
			next = r.End + 1
			total += r.Count()
		}
		if total != SlotNum {
			t.Errorf("total slots = %d, want %d", total, SlotNum)
		}
		// SlotNum=16384, m=3: avg=5461, rem=1, so master 0 gets 5462, others 5461.
		if got := EvenSplit(0, m).Count(); got != 5462 {
			t.Errorf("master 0 count = %d, want 5462", got)
		}
		if got := EvenSplit(1, m).Count(); got != 5461 {
			t.Errorf("master 1 count = %d, want 5461", got)
		}
	})
}

func TestRangeListPopRight(t *testing.T) {
	rl := RangeList{{Start: 0, End: 99}, {Start: 200, End: 299}}

	t.Run("partial pull shrinks last range", func(t *testing.T) {
		pulled, remaining := rl.PopRight(10)
		if got := pulled.SlotCount(); got != 10 {
			t.Fatalf("pulled slot count = %d, want 10", got)
		}
		if want := (Range{Start: 290, End: 299}); pulled[0] != want {
			t.Errorf("pulled = %v, want %v", pulled[0], want)
		}
		if want := (Range{Start: 200, End: 289}); remaining[len(remaining)-1] != want {
			t.Errorf("remaining last range = %v, want %v", remaining[len(remaining)-1], want)
		}
	})

	t.Run("pull spanning whole range and into the next", func(t *testing.T) {
		pulled, remaining := rl.PopRight(150)
		if got := pulled.SlotCount(); got != 150 {
			t.Fatalf("pulled slot count = %d, want 150", got)
		}
		if got := remaining.SlotCount(); got != rl.SlotCount()-150 {
			t.Fatalf("remaining slot count = %d, want %d", got, rl.SlotCount()-150)
		}
	})
}

func TestRangeListMerge(t *testing.T) {
	base := RangeList{{Start: 0, End: 99}}
	merged := base.Merge(RangeList{{Start: 100, End: 149}})
	if len(merged) != 1 {
		t.Fatalf("merged ranges = %d, want 1 (adjacent ranges must coalesce)", len(merged))
	}
	if want := (Range{Start: 0, End: 149}); merged[0] != want {
		t.Errorf("merged = %v, want %v", merged[0], want)
	}

	disjoint := base.Merge(RangeList{{Start: 500, End: 599}})
	if len(disjoint) != 2 {
		t.Errorf("disjoint merge produced %d ranges, want 2", len(disjoint))
	}
}
