package storage

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	t.Run("new store is empty", func(t *testing.T) {
		store := NewMemoryStore()

		if keys := store.List(); len(keys) != 0 {
			t.Errorf("expected empty store, got %d keys", len(keys))
		}
		if _, err := store.Get("nonexistent"); err != ErrKeyNotFound {
			t.Errorf("Get on empty store = %v, want ErrKeyNotFound", err)
		}
	})

	t.Run("put and get round-trips", func(t *testing.T) {
		store := NewMemoryStore()

		if err := store.Put("key1", []byte("value1")); err != nil {
			t.Fatalf("Put = %v", err)
		}
		value, err := store.Get("key1")
		if err != nil {
			t.Fatalf("Get = %v", err)
		}
		if !bytes.Equal(value, []byte("value1")) {
			t.Errorf("Get = %q, want %q", value, "value1")
		}
	})

	t.Run("put overwrites", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put("key1", []byte("value1"))
		store.Put("key1", []byte("value2"))

		value, _ := store.Get("key1")
		if !bytes.Equal(value, []byte("value2")) {
			t.Errorf("Get after overwrite = %q, want %q", value, "value2")
		}
	})

	t.Run("get returns a copy, not a shared slice", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put("key1", []byte("value1"))

		value, _ := store.Get("key1")
		value[0] = 'X'

		fresh, _ := store.Get("key1")
		if !bytes.Equal(fresh, []byte("value1")) {
			t.Errorf("mutating a returned value leaked into the store: %q", fresh)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put("key1", []byte("value1"))

		if err := store.Delete("key1"); err != nil {
			t.Fatalf("Delete = %v", err)
		}
		if _, err := store.Get("key1"); err != ErrKeyNotFound {
			t.Errorf("Get after delete = %v, want ErrKeyNotFound", err)
		}
		if err := store.Delete("key1"); err != nil {
			t.Errorf("second Delete = %v, want nil", err)
		}
	})

	t.Run("list reflects all keys", func(t *testing.T) {
		store := NewMemoryStore()
		testData := map[string][]byte{
			"key1": []byte("value1"),
			"key2": []byte("value2"),
			"key3": []byte("value3"),
		}
		for k, v := range testData {
			if err := store.Put(k, v); err != nil {
				t.Fatalf("Put(%s) = %v", k, err)
			}
		}

		keys := store.List()
		if len(keys) != len(testData) {
			t.Errorf("List returned %d keys, want %d", len(keys), len(testData))
		}
		for _, k := range keys {
			if _, ok := testData[k]; !ok {
				t.Errorf("List returned unexpected key %q", k)
			}
		}
	})

	t.Run("empty and nil values are distinct from absence", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put("empty", []byte{})
		store.Put("nil", nil)

		value, err := store.Get("empty")
		if err != nil || len(value) != 0 {
			t.Errorf("Get(empty) = %v, %v", value, err)
		}
		value, err = store.Get("nil")
		if err != nil || value == nil || len(value) != 0 {
			t.Errorf("Get(nil) = %v, %v, want empty non-nil slice", value, err)
		}
	})
}

func TestMemoryStoreConcurrency(t *testing.T) {
	t.Run("concurrent writes to distinct keys all land", func(t *testing.T) {
		store := NewMemoryStore()
		const goroutines, opsEach = 50, 50

		var wg sync.WaitGroup
		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < opsEach; j++ {
					key := fmt.Sprintf("goroutine-%d-key-%d", id, j)
					if err := store.Put(key, []byte(key)); err != nil {
						t.Errorf("Put = %v", err)
					}
				}
			}(i)
		}
		wg.Wait()

		if keys := store.List(); len(keys) != goroutines*opsEach {
			t.Errorf("List = %d keys, want %d", len(keys), goroutines*opsEach)
		}
	})

	t.Run("concurrent reads and writes don't race or corrupt", func(t *testing.T) {
		store := NewMemoryStore()
		const numKeys = 50
		for i := 0; i < numKeys; i++ {
			store.Put(fmt.Sprintf("key-%d", i), []byte(fmt.Sprintf("value-%d", i)))
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				key := fmt.Sprintf("key-%d", j%numKeys)
				store.Put(key, []byte(fmt.Sprintf("value-%d", j%numKeys)))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				store.Get(fmt.Sprintf("key-%d", j%numKeys))
				store.List()
			}
		}()
		wg.Wait()

		if err := store.Put("final", []byte("ok")); err != nil {
			t.Errorf("store unusable after concurrent access: %v", err)
		}
	})
}

func TestStoreInterface(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
	var store Store = NewMemoryStore()

	if err := store.Put("interface-key", []byte("interface-value")); err != nil {
		t.Fatalf("Put = %v", err)
	}
	value, err := store.Get("interface-key")
	if err != nil || !bytes.Equal(value, []byte("interface-value")) {
		t.Errorf("Get via interface = %q, %v", value, err)
	}
	if err := store.Delete("interface-key"); err != nil {
		t.Fatalf("Delete = %v", err)
	}
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()

	if stats := store.Stats(); stats.Keys != 0 || stats.Bytes != 0 {
		t.Errorf("initial Stats = %+v, want zero", stats)
	}

	store.Put("key1", []byte("value1"))   // 6 bytes
	store.Put("key2", []byte("value22"))  // 7 bytes
	store.Put("key3", []byte("value333")) // 8 bytes

	if stats := store.Stats(); stats.Keys != 3 || stats.Bytes != 21 {
		t.Errorf("Stats after 3 puts = %+v, want {3 21}", stats)
	}

	store.Delete("key2")
	if stats := store.Stats(); stats.Keys != 2 || stats.Bytes != 14 {
		t.Errorf("Stats after delete = %+v, want {2 14}", stats)
	}
}

type proxyRecordFixture struct {
	Address string
	Nodes   [2]string
}

func TestPutJSONGetJSONRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	want := proxyRecordFixture{Address: "127.0.0.1:6000", Nodes: [2]string{"127.0.0.1:7000", "127.0.0.1:7001"}}

	if err := PutJSON(store, string(want.Address), want); err != nil {
		t.Fatalf("PutJSON = %v", err)
	}

	var got proxyRecordFixture
	if err := GetJSON(store, want.Address, &got); err != nil {
		t.Fatalf("GetJSON = %v", err)
	}
	if got != want {
		t.Errorf("GetJSON = %+v, want %+v", got, want)
	}
}

func TestGetJSONMissingKeyReturnsErrKeyNotFound(t *testing.T) {
	store := NewMemoryStore()
	var out proxyRecordFixture
	if err := GetJSON(store, "missing", &out); err != ErrKeyNotFound {
		t.Errorf("GetJSON on missing key = %v, want ErrKeyNotFound", err)
	}
}

func TestPutJSONOverwritesPriorRecord(t *testing.T) {
	store := NewMemoryStore()
	first := proxyRecordFixture{Address: "a", Nodes: [2]string{"n0", "n1"}}
	second := proxyRecordFixture{Address: "a", Nodes: [2]string{"n2", "n3"}}

	PutJSON(store, "key", first)
	PutJSON(store, "key", second)

	var got proxyRecordFixture
	if err := GetJSON(store, "key", &got); err != nil || got != second {
		t.Errorf("GetJSON after overwrite = %+v, %v, want %+v", got, err, second)
	}
}
