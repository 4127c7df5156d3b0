package store

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/rushteam/moviematch/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) err = %v, want store not found", err)
	}

	if err := ms.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := ms.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get(k) = %q, %v", got, err)
	}

	if err := ms.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after delete err = %v, want store not found", err)
	}
}

func TestMemoryStoreUpdateAtomic(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	// 100 个并发 +1：丢更新会让终值小于 100
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ms.Update(ctx, "counter", func(old []byte) ([]byte, error) {
				n := 0
				if old != nil {
					n, _ = strconv.Atoi(string(old))
				}
				return []byte(strconv.Itoa(n + 1)), nil
			})
		}()
	}
	wg.Wait()

	got, err := ms.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "100" {
		t.Errorf("counter = %s, want 100 (lost updates)", got)
	}
}

func TestMemoryStoreUpdateErrorAbortsWrite(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	_ = ms.Set(ctx, "k", []byte("before"))
	err := ms.Update(ctx, "k", func(old []byte) ([]byte, error) {
		return nil, core.ErrStoreNotSupported
	})
	if err == nil {
		t.Fatalf("expected error from Update")
	}
	got, _ := ms.Get(ctx, "k")
	if string(got) != "before" {
		t.Errorf("value = %q, want untouched %q", got, "before")
	}
}

func TestMemoryStoreZRangeDescending(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	for i, member := range []string{"a", "b", "c", "d"} {
		if err := ms.ZAdd(ctx, "z", float64(i), member); err != nil {
			t.Fatalf("ZAdd: %v", err)
		}
	}

	got, err := ms.ZRange(ctx, "z", 0, 1)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	if len(got) != 2 || got[0] != "d" || got[1] != "c" {
		t.Errorf("ZRange(0,1) = %v, want [d c]", got)
	}

	// stop = -1 取全量
	all, err := ms.ZRange(ctx, "z", 0, -1)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	if len(all) != 4 || all[0] != "d" || all[3] != "a" {
		t.Errorf("ZRange(0,-1) = %v, want [d c b a]", all)
	}
}

func TestMemoryStoreHash(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.HSet(ctx, "h", "f1", []byte("v1")); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if err := ms.HSet(ctx, "h", "f2", []byte("v2")); err != nil {
		t.Fatalf("HSet: %v", err)
	}

	got, err := ms.HGet(ctx, "h", "f1")
	if err != nil || string(got) != "v1" {
		t.Errorf("HGet = %q, %v", got, err)
	}
	if _, err := ms.HGet(ctx, "h", "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("HGet(missing) err = %v, want store not found", err)
	}

	all, err := ms.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	if len(all) != 2 || string(all["f1"]) != "v1" || string(all["f2"]) != "v2" {
		t.Errorf("HGetAll = %v", all)
	}
}
