package pqueue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pfp/pkg/pqueue"
)

func TestScenarioPromoteDemote(t *testing.T) {
	t.Parallel()

	q := pqueue.New[string](4)
	require.NoError(t, q.Push("A", 10))
	require.NoError(t, q.Push("B", 20))
	require.NoError(t, q.Push("C", 30))

	id, p, ok := q.GetMax()
	require.True(t, ok)
	assert.Equal(t, "C", id)
	assert.Equal(t, float64(30), p)

	require.NoError(t, q.Demote("C", 15))
	id, p, ok = q.GetMax()
	require.True(t, ok)
	assert.Equal(t, "B", id)
	assert.Equal(t, float64(20), p)

	require.NoError(t, q.Promote("A", 40))
	id, p, ok = q.GetMax()
	require.True(t, ok)
	assert.Equal(t, "A", id)
	assert.Equal(t, float64(40), p)
}

func TestPushDuplicateRejected(t *testing.T) {
	t.Parallel()

	q := pqueue.New[string](2)
	require.NoError(t, q.Push("A", 1))

	err := q.Push("A", 2)
	require.Error(t, err)
	assert.ErrorAs(t, err, &pqueue.ErrDuplicateID[string]{})
}

func TestUpdateUnknownIDRejected(t *testing.T) {
	t.Parallel()

	q := pqueue.New[string](2)
	err := q.Promote("ghost", 1)
	require.Error(t, err)
	assert.ErrorAs(t, err, &pqueue.ErrUnknownID[string]{})
}

func TestPopDrainsInPriorityOrder(t *testing.T) {
	t.Parallel()

	q := pqueue.New[int](5)
	values := map[int]float64{1: 5, 2: 9, 3: 1, 4: 7, 5: 3}
	for id, p := range values {
		require.NoError(t, q.Push(id, p))
	}

	var order []float64
	for q.Len() > 0 {
		_, p, ok := q.Pop()
		require.True(t, ok)
		order = append(order, p)
	}

	assert.Equal(t, []float64{9, 7, 5, 3, 1}, order)
}

func TestContainsAndLen(t *testing.T) {
	t.Parallel()

	q := pqueue.New[string](2)
	assert.False(t, q.Contains("A"))
	assert.Equal(t, 0, q.Len())

	require.NoError(t, q.Push("A", 1))
	assert.True(t, q.Contains("A"))
	assert.Equal(t, 1, q.Len())

	_, _, ok := q.Pop()
	require.True(t, ok)
	assert.False(t, q.Contains("A"))
}
