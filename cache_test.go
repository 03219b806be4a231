package sheetqueue_test

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	sheetqueue "github.com/ideamans/go-sheetqueue"
)

func newOp(id string, status sheetqueue.Status) sheetqueue.PendingOperation {
	return sheetqueue.PendingOperation{
		ID:        id,
		SheetKey:  sheetqueue.SheetCarga,
		SheetName: "Carga",
		RowData:   []string{id},
		CreatedAt: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
		Status:    status,
	}
}

func cacheIDs(ops []sheetqueue.PendingOperation) []string {
	ids := make([]string, len(ops))
	for i, op := range ops {
		ids[i] = op.ID
	}
	return ids
}

func TestCache_Basic(t *testing.T) {
	cache := sheetqueue.NewCache()

	t.Run("Get non-existent id", func(t *testing.T) {
		if _, ok := cache.Get("missing"); ok {
			t.Error("Get() ok = true, want false")
		}
	})

	t.Run("Append and Get", func(t *testing.T) {
		if err := cache.Append(newOp("a", sheetqueue.StatusPending)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		got, ok := cache.Get("a")
		if !ok {
			t.Fatal("Get() ok = false, want true")
		}
		if got.SheetName != "Carga" || got.Status != sheetqueue.StatusPending {
			t.Errorf("Get() = %+v", got)
		}
	})

	t.Run("Append duplicate id", func(t *testing.T) {
		err := cache.Append(newOp("a", sheetqueue.StatusError))
		if !errors.Is(err, sheetqueue.ErrDuplicateID) {
			t.Errorf("Append() error = %v, want %v", err, sheetqueue.ErrDuplicateID)
		}
	})

	t.Run("Size", func(t *testing.T) {
		if cache.Size() != 1 {
			t.Errorf("Size() = %v, want %v", cache.Size(), 1)
		}
	})
}

func TestCache_Order(t *testing.T) {
	cache := sheetqueue.NewCache()
	for _, id := range []string{"a", "b", "c", "d"} {
		cache.Append(newOp(id, sheetqueue.StatusPending))
	}

	if got := cacheIDs(cache.All()); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("All() = %v, want insertion order", got)
	}

	cache.Remove("b")
	cache.Update("c", func(op *sheetqueue.PendingOperation) { op.Status = sheetqueue.StatusError })

	if got := cacheIDs(cache.All()); !reflect.DeepEqual(got, []string{"a", "c", "d"}) {
		t.Errorf("All() after remove = %v", got)
	}
}

func TestCache_Update(t *testing.T) {
	cache := sheetqueue.NewCache()
	cache.Append(newOp("a", sheetqueue.StatusPending))

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "existing id", id: "a", want: true},
		{name: "missing id", id: "zzz", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cache.Update(tt.id, func(op *sheetqueue.PendingOperation) {
				op.RetryCount++
			})
			if got != tt.want {
				t.Errorf("Update() = %v, want %v", got, tt.want)
			}
		})
	}

	op, _ := cache.Get("a")
	if op.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", op.RetryCount)
	}
}

func TestCache_Remove(t *testing.T) {
	cache := sheetqueue.NewCache()
	cache.Append(newOp("a", sheetqueue.StatusPending))

	if !cache.Remove("a") {
		t.Error("Remove() = false, want true")
	}
	if cache.Remove("a") {
		t.Error("second Remove() = true, want false")
	}
	if cache.Size() != 0 {
		t.Errorf("Size() = %d, want 0", cache.Size())
	}
}

func TestCache_EligibleIDs(t *testing.T) {
	cache := sheetqueue.NewCache()
	cache.Load([]sheetqueue.PendingOperation{
		newOp("1", sheetqueue.StatusPending),
		newOp("2", sheetqueue.StatusSyncing),
		newOp("3", sheetqueue.StatusError),
		newOp("4", sheetqueue.StatusPending),
	})

	want := []string{"1", "3", "4"}
	if got := cache.EligibleIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("EligibleIDs() = %v, want %v", got, want)
	}
}

func TestCache_Isolation(t *testing.T) {
	cache := sheetqueue.NewCache()

	op := newOp("a", sheetqueue.StatusPending)
	cache.Append(op)
	op.RowData[0] = "mutated after append"

	got, _ := cache.Get("a")
	if got.RowData[0] != "a" {
		t.Errorf("stored row changed through the caller's slice: %q", got.RowData[0])
	}

	got.RowData[0] = "mutated copy"
	all := cache.All()
	if all[0].RowData[0] != "a" {
		t.Errorf("stored row changed through a returned copy: %q", all[0].RowData[0])
	}
}

func TestCache_LoadAndClear(t *testing.T) {
	cache := sheetqueue.NewCache()
	cache.Append(newOp("old", sheetqueue.StatusPending))

	cache.Load([]sheetqueue.PendingOperation{
		newOp("x", sheetqueue.StatusPending),
		newOp("y", sheetqueue.StatusError),
	})
	if got := cacheIDs(cache.All()); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("All() after Load = %v", got)
	}

	cache.Load(nil)
	if cache.Size() != 0 {
		t.Errorf("Size() after Load(nil) = %d, want 0", cache.Size())
	}

	cache.Append(newOp("z", sheetqueue.StatusPending))
	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", cache.Size())
	}
	if all := cache.All(); all == nil || len(all) != 0 {
		t.Errorf("All() after Clear = %#v, want empty slice", all)
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache := sheetqueue.NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("op-%d", i)
			cache.Append(newOp(id, sheetqueue.StatusPending))
			cache.Update(id, func(op *sheetqueue.PendingOperation) { op.Status = sheetqueue.StatusError })
			cache.All()
			cache.EligibleIDs()
		}(i)
	}
	wg.Wait()

	if cache.Size() != 50 {
		t.Errorf("Size() = %d, want 50", cache.Size())
	}
	if n := len(cache.EligibleIDs()); n != 50 {
		t.Errorf("EligibleIDs() len = %d, want 50", n)
	}
}
