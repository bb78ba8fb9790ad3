package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abelbrown/vitrine/internal/catalog"
)

func list(n int) []catalog.Item {
	out := make([]catalog.Item, n)
	for i := range out {
		out[i] = catalog.Item{ID: int64(i + 1)}
	}
	return out
}

func ids(items []catalog.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestPartitionFiveWithLimitThree(t *testing.T) {
	src := list(5)
	visible, restricted := Policy{IsRestricted: true, VisibleItemLimit: 3}.Partition(src)

	assert.Len(t, visible, 3)
	assert.Len(t, restricted, 2)
	assert.Equal(t, ids(src), append(ids(visible), ids(restricted)...))
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name           string
		policy         Policy
		n              int
		wantVisible    int
		wantRestricted int
	}{
		{"unrestricted", Policy{VisibleItemLimit: 2}, 5, 5, 0},
		{"unbounded", Policy{IsRestricted: true, VisibleItemLimit: Unbounded}, 5, 5, 0},
		{"limit above length", Policy{IsRestricted: true, VisibleItemLimit: 10}, 5, 5, 0},
		{"limit zero", Policy{IsRestricted: true, VisibleItemLimit: 0}, 5, 0, 5},
		{"empty list", Policy{IsRestricted: true, VisibleItemLimit: 3}, 0, 0, 0},
		{"open", Open, 4, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, r := tt.policy.Partition(list(tt.n))
			assert.Len(t, v, tt.wantVisible)
			assert.Len(t, r, tt.wantRestricted)
		})
	}
}

func TestPartitionDoesNotAliasInput(t *testing.T) {
	src := list(4)
	visible, _ := Policy{IsRestricted: true, VisibleItemLimit: 2}.Partition(src)
	visible[0].Title = "changed"
	_ = append(visible, catalog.Item{ID: 99})
	assert.Equal(t, "", src[0].Title)
	assert.Equal(t, int64(3), src[2].ID)
}

func TestForPlanAndLocked(t *testing.T) {
	free := ForPlan("free", 3)
	assert.True(t, free.IsRestricted)
	assert.False(t, free.Locked(2))
	assert.True(t, free.Locked(3))
	assert.Equal(t, "restricted", free.String())

	pro := ForPlan("pro", 3)
	assert.False(t, pro.Locked(100))
	assert.Equal(t, "unrestricted", pro.String())

	assert.Equal(t, 0, ForPlan("unknown", -4).VisibleItemLimit)
}
