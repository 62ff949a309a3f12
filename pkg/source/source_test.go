package source

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestList_MutationsNotifyOnce(t *testing.T) {
	list := NewList("a", "b")
	calls := 0
	remove := list.AddListener(func() { calls++ })

	list.Append("c")
	list.Insert(0, "z")
	list.Set(1, "A")
	require.Equal(t, "b", list.Remove(2))
	list.Move(0, 2)

	require.Equal(t, 5, calls)
	require.Equal(t, []string{"A", "c", "z"}, list.Items())

	remove()
	list.Append("d")
	require.Equal(t, 5, calls)
}

func TestList_BatchCoalescesNotifications(t *testing.T) {
	list := NewList[int]()
	calls := 0
	list.AddListener(func() { calls++ })

	list.Batch(func(l *List[int]) {
		l.Append(1, 2, 3)
		l.Remove(0)
		l.Insert(0, 9)
	})

	require.Equal(t, 1, calls)
	require.Equal(t, []int{9, 2, 3}, list.Items())

	list.Batch(func(*List[int]) {})
	require.Equal(t, 1, calls, "empty batch must not notify")
}

func TestList_SnapshotIsACopy(t *testing.T) {
	list := NewList(1, 2)
	snap := list.Snapshot()
	snap[0] = 100
	require.Equal(t, 1, list.At(0))
	require.Equal(t, []any{1, 2}, list.Snapshot())
}

func TestList_ReplaceKeepsIdentity(t *testing.T) {
	list := NewList("a")
	var asChildren Children = list
	list.Replace("x", "y")
	require.True(t, asChildren == Children(list))
	require.Equal(t, 2, list.Len())
}

func TestList_MovePanicsOutOfRangeWithoutDeadlock(t *testing.T) {
	list := NewList(1, 2)
	require.Panics(t, func() { list.Move(0, 5) })
	list.Append(3)
	require.Equal(t, 3, list.Len())
}

func TestValue_SetNotifiesWithOldAndNew(t *testing.T) {
	v := NewValue("r1")
	var got [][2]any
	v.Observe(func(old, new any) {
		got = append(got, [2]any{old, new})
	})

	v.Set("r2")
	require.Equal(t, "r2", v.Current())
	require.Equal(t, [][2]any{{"r1", "r2"}}, got)
}

func TestValue_EqualitySuppressesNotification(t *testing.T) {
	v := NewValueWithEquality(1, func(a, b int) bool { return a == b })
	calls := 0
	v.AddListener(func(int, int) { calls++ })
	v.Set(1)
	v.Set(2)
	require.Equal(t, 1, calls)
}

func TestValue_ConcurrentSet(t *testing.T) {
	v := NewValue(0)
	var mu sync.Mutex
	seen := 0
	v.AddListener(func(int, int) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Set(i)
		}()
	}
	wg.Wait()
	require.Equal(t, 16, seen)
}
