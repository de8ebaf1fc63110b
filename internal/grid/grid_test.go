package grid

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Load(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Save(_ context.Context, key string, value []byte) error {
	m.data[key] = append([]byte(nil), value...)
	return nil
}

type recordingUpdater struct {
	updates []*domain.Task
	err     error
}

func (u *recordingUpdater) UpdateTask(_ context.Context, task *domain.Task) error {
	if u.err != nil {
		return u.err
	}
	u.updates = append(u.updates, task.Clone())
	return nil
}

func (u *recordingUpdater) last() *domain.Task {
	if len(u.updates) == 0 {
		return nil
	}
	return u.updates[len(u.updates)-1]
}

func newTestController(t *testing.T) (*Controller, *recordingUpdater, *memKV) {
	t.Helper()
	kv := newMemKV()
	updater := &recordingUpdater{}
	return NewController(NewStore(kv), updater), updater, kv
}

func newGridTask(t *testing.T, size int) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("Grid task", 25, size)
	require.NoError(t, err)
	return task
}

func addLinked(t *testing.T, task *domain.Task, title string, index int, completed bool) string {
	t.Helper()
	st, err := domain.NewSubtask(task.ID, title)
	require.NoError(t, err)
	st.LinkTo(index)
	st.Completed = completed
	task.AddSubtask(*st)
	return st.ID
}

func TestIndexSet(t *testing.T) {
	s := NewIndexSet(5, 1, 3, 1)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{1, 3, 5}, s.Sorted())

	assert.False(t, s.Toggle(3))
	assert.True(t, s.Toggle(4))
	assert.Equal(t, []int{1, 4, 5}, s.Sorted())

	dropped := s.Clamp(5)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []int{1, 4}, s.Sorted())

	assert.Equal(t, []int{0, 1, 2}, DefaultIndexSet(3).Sorted())
	assert.Empty(t, DefaultIndexSet(0).Sorted())
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	store := NewStore(kv)

	_, ok, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok, "nothing stored yet")

	t.Run("writes sorted lists and keeps other tasks", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "t1", NewIndexSet(7, 2, 4)))
		require.NoError(t, store.Save(ctx, "t2", NewIndexSet(1)))

		assert.JSONEq(t, `{"t1":[2,4,7],"t2":[1]}`, string(kv.data[ports.KeyProgressGridFill]))
	})

	t.Run("unsorted lists are tolerated on read", func(t *testing.T) {
		kv.data[ports.KeyProgressGridFill] = []byte(`{"t3":[9,0,4]}`)
		set, ok, err := store.Load(ctx, "t3")
		require.NoError(t, err)
		require.True(t, ok)
		if diff := cmp.Diff([]int{0, 4, 9}, set.Sorted()); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("delete drops only that task", func(t *testing.T) {
		kv.data[ports.KeyProgressGridFill] = []byte(`{"t1":[0],"t2":[1]}`)
		require.NoError(t, store.Delete(ctx, "t1"))
		require.NoError(t, store.Delete(ctx, "missing"))
		assert.JSONEq(t, `{"t2":[1]}`, string(kv.data[ports.KeyProgressGridFill]))
	})

	t.Run("corrupt record is treated as empty", func(t *testing.T) {
		kv.data[ports.KeyProgressGridFill] = []byte(`{"t3":`)
		_, ok, err := store.Load(ctx, "t3")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("filled synthesizes the legacy default", func(t *testing.T) {
		task := newGridTask(t, 10)
		task.ProgressGridFilled = 3
		set, err := store.Filled(ctx, task)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, set.Sorted())
	})
}

func TestLinkResolver(t *testing.T) {
	task := newGridTask(t, 5)
	a := addLinked(t, task, "A", 1, false)
	b := addLinked(t, task, "B", 3, false)
	unlinked, _ := domain.NewSubtask(task.ID, "free")
	task.AddSubtask(*unlinked)

	st, ok := LinkedSubtask(task, 3)
	require.True(t, ok)
	assert.Equal(t, b, st.ID)

	_, ok = LinkedSubtask(task, 0)
	assert.False(t, ok)

	assert.Equal(t, []int{0, 1, 2, 4}, AvailableIndices(task, a), "own index stays available")
	assert.Equal(t, []int{0, 2, 4}, AvailableIndices(task, unlinked.ID))
}

func TestToggleCell(t *testing.T) {
	ctx := context.Background()
	c, updater, _ := newTestController(t)
	task := newGridTask(t, 10)

	res, err := c.ToggleCell(ctx, task, 4)
	require.NoError(t, err)
	assert.Nil(t, res.Linked)
	assert.Equal(t, 1, res.Task.ProgressGridFilled)
	assert.Equal(t, []int{4}, res.Filled.Sorted())
	assert.Equal(t, 1, updater.last().ProgressGridFilled)

	res, err = c.ToggleCell(ctx, res.Task, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Task.ProgressGridFilled)
	assert.Empty(t, res.Filled.Sorted())

	_, err = c.ToggleCell(ctx, task, 10)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	_, err = c.ToggleCell(ctx, task, -1)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
}

func TestToggleCell_NeverTouchesSubtasks(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	task := newGridTask(t, 6)
	addLinked(t, task, "linked", 2, false)
	before := task.Clone()

	res, err := c.ToggleCell(ctx, task, 0)
	require.NoError(t, err)
	if diff := cmp.Diff(before.Subtasks, res.Task.Subtasks); diff != "" {
		t.Errorf("subtasks changed (-before +after):\n%s", diff)
	}
}

func TestToggleCell_LinkedCellSurfacesSubtask(t *testing.T) {
	ctx := context.Background()
	c, updater, _ := newTestController(t)
	task := newGridTask(t, 6)
	id := addLinked(t, task, "linked", 2, false)

	res, err := c.ToggleCell(ctx, task, 2)
	require.NoError(t, err)
	require.NotNil(t, res.Linked)
	assert.Equal(t, id, res.Linked.ID)
	assert.False(t, res.Filled.Has(2))
	assert.Empty(t, updater.updates, "linked cell must not write")
}

func TestLinkedSubtaskCoupling(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	task := newGridTask(t, 10)
	id := addLinked(t, task, "write tests", 3, false)

	done, err := c.CompleteLinkedSubtask(ctx, task, id, 3)
	require.NoError(t, err)
	set, _ := c.Filled(ctx, done)
	assert.True(t, set.Has(3))
	assert.Equal(t, 1, done.ProgressGridFilled)
	st, _ := done.FindSubtask(id)
	assert.True(t, st.Completed)

	undone, err := c.UncompleteLinkedSubtask(ctx, done, id, 3)
	require.NoError(t, err)
	set, _ = c.Filled(ctx, undone)
	assert.False(t, set.Has(3))
	assert.Equal(t, 0, undone.ProgressGridFilled)
	st, _ = undone.FindSubtask(id)
	assert.False(t, st.Completed)

	t.Run("wrong index", func(t *testing.T) {
		_, err := c.CompleteLinkedSubtask(ctx, task, id, 4)
		assert.ErrorIs(t, err, domain.ErrSubtaskNotLinked)
	})

	t.Run("unlinked subtask", func(t *testing.T) {
		free, _ := domain.NewSubtask(task.ID, "free")
		task.AddSubtask(*free)
		_, err := c.CompleteLinkedSubtask(ctx, task, free.ID, 0)
		assert.ErrorIs(t, err, domain.ErrSubtaskNotLinked)
	})

	t.Run("missing subtask", func(t *testing.T) {
		_, err := c.CompleteLinkedSubtask(ctx, task, "nope", 3)
		assert.ErrorIs(t, err, domain.ErrSubtaskNotFound)
	})
}

func TestCompleteLinkedSubtask_RollsBackOnUpdateFailure(t *testing.T) {
	ctx := context.Background()
	c, updater, _ := newTestController(t)
	task := newGridTask(t, 10)
	id := addLinked(t, task, "linked", 3, false)
	updater.err = errors.New("disk full")

	_, err := c.CompleteLinkedSubtask(ctx, task, id, 3)
	require.Error(t, err)

	set, err := c.Filled(ctx, task)
	require.NoError(t, err)
	assert.False(t, set.Has(3), "grid save must be rolled back")
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name         string
		filled, size int
		want         int
	}{
		{"empty", 0, 10, 0},
		{"full", 10, 10, 100},
		{"third", 1, 3, 33},
		{"two thirds rounds up", 2, 3, 67},
		{"zero size", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &domain.Task{ProgressGridFilled: tt.filled, ProgressGridSize: tt.size}
			assert.Equal(t, tt.want, Percentage(task))
		})
	}
}

func TestResize(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	task := newGridTask(t, 10)
	id := addLinked(t, task, "late cell", 8, true)
	require.NoError(t, c.Store().Save(ctx, task.ID, NewIndexSet(0, 2, 7, 8, 9)))
	task.ProgressGridFilled = 5

	resized, err := c.Resize(ctx, task, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, resized.ProgressGridSize)
	assert.Equal(t, 2, resized.ProgressGridFilled)

	set, _ := c.Filled(ctx, resized)
	assert.Equal(t, []int{0, 2}, set.Sorted())
	for _, i := range set.Sorted() {
		assert.Less(t, i, resized.ProgressGridSize)
	}

	st, _ := resized.FindSubtask(id)
	assert.False(t, st.Linked(), "subtask beyond the new size loses its link")

	_, err = c.Resize(ctx, task, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidGridSize)
}

func TestResize_GrowKeepsCells(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	task := newGridTask(t, 4)
	res, err := c.ToggleCell(ctx, task, 3)
	require.NoError(t, err)

	grown, err := c.Resize(ctx, res.Task, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, grown.ProgressGridFilled)
	set, _ := c.Filled(ctx, grown)
	assert.Equal(t, []int{3}, set.Sorted())
}

func TestRestoreAndFillTo(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	task := newGridTask(t, 6)
	id := addLinked(t, task, "linked", 1, false)

	filled, err := c.FillTo(ctx, task, 3)
	require.NoError(t, err)
	set, _ := c.Filled(ctx, filled)
	assert.Equal(t, []int{0, 1, 2}, set.Sorted())
	st, _ := filled.FindSubtask(id)
	assert.True(t, st.Completed, "linked subtask follows its cell")

	shrunk, err := c.FillTo(ctx, filled, 1)
	require.NoError(t, err)
	set, _ = c.Filled(ctx, shrunk)
	assert.Equal(t, []int{0}, set.Sorted())
	st, _ = shrunk.FindSubtask(id)
	assert.False(t, st.Completed)

	restored, err := c.Restore(ctx, shrunk, []int{5, 1, 9})
	require.NoError(t, err)
	set, _ = c.Filled(ctx, restored)
	assert.Equal(t, []int{1, 5}, set.Sorted())
	assert.Equal(t, 2, restored.ProgressGridFilled)
	st, _ = restored.FindSubtask(id)
	assert.True(t, st.Completed)

	over, err := c.FillTo(ctx, restored, 99)
	require.NoError(t, err)
	assert.Equal(t, 6, over.ProgressGridFilled)
}

func TestLinkAndUnlinkSubtask(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	task := newGridTask(t, 4)
	taken := addLinked(t, task, "taken", 2, false)
	free, _ := domain.NewSubtask(task.ID, "free")
	task.AddSubtask(*free)

	res, err := c.ToggleCell(ctx, task, 0)
	require.NoError(t, err)

	linked, err := c.LinkSubtask(ctx, res.Task, free.ID, 0)
	require.NoError(t, err)
	st, _ := linked.FindSubtask(free.ID)
	assert.True(t, st.Linked())
	assert.True(t, st.Completed, "linking to a filled cell completes the subtask")

	_, err = c.LinkSubtask(ctx, linked, free.ID, 2)
	assert.ErrorIs(t, err, domain.ErrIndexAlreadyLinked)

	_, err = c.LinkSubtask(ctx, linked, taken, 2)
	assert.NoError(t, err, "relinking to its own cell is allowed")

	_, err = c.LinkSubtask(ctx, linked, free.ID, 4)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)

	unlinked, err := c.UnlinkSubtask(ctx, linked, free.ID)
	require.NoError(t, err)
	st, _ = unlinked.FindSubtask(free.ID)
	assert.False(t, st.Linked())
	assert.Equal(t, 1, unlinked.ProgressGridFilled, "cell keeps its state")

	_, err = c.UnlinkSubtask(ctx, unlinked, free.ID)
	assert.ErrorIs(t, err, domain.ErrSubtaskNotLinked)
}

func TestConcurrentViewsUseLatestSet(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	task := newGridTask(t, 10)

	// Two views captured the same task snapshot before either click.
	viewA := task.Clone()
	viewB := task.Clone()

	_, err := c.ToggleCell(ctx, viewA, 1)
	require.NoError(t, err)
	res, err := c.ToggleCell(ctx, viewB, 5)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 5}, res.Filled.Sorted())
	assert.Equal(t, 2, res.Task.ProgressGridFilled)
}
