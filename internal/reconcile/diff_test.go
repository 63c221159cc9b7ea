package reconcile

import (
	"testing"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDiff(t *testing.T) {
	creator := creatorRow(1, "Owner")

	t.Run("новый участник - одна вставка", func(t *testing.T) {
		diff := ComputeDiff([]domain.Member{creator}, []domain.DesiredMember{{Name: "Alice"}})

		require.Len(t, diff.ToInsert, 1)
		assert.Equal(t, "Alice", diff.ToInsert[0].Member.Name)
		assert.Equal(t, 0, diff.ToInsert[0].Index)
		assert.Empty(t, diff.ToUpdate)
		assert.Empty(t, diff.ToDelete)
	})

	t.Run("переименование - обновление по id", func(t *testing.T) {
		diff := ComputeDiff(
			[]domain.Member{creator, memberRow(5, "Bob")},
			[]domain.DesiredMember{{ID: 5, Name: "Bobby"}},
		)

		assert.Empty(t, diff.ToInsert)
		assert.Empty(t, diff.ToDelete)
		require.Len(t, diff.ToUpdate, 1)
		assert.Equal(t, int64(5), diff.ToUpdate[0].ID)
		assert.Equal(t, "Bobby", diff.ToUpdate[0].Fields.DisplayName)
	})

	t.Run("пустой список удаляет всех, кроме создателя", func(t *testing.T) {
		diff := ComputeDiff(
			[]domain.Member{creator, memberRow(6, "Cara"), memberRow(5, "Bob")},
			nil,
		)

		assert.Empty(t, diff.ToInsert)
		assert.Empty(t, diff.ToUpdate)
		assert.Equal(t, []int64{5, 6}, diff.ToDelete)
	})

	t.Run("без изменений - пустой diff", func(t *testing.T) {
		current := []domain.Member{creator, {ID: 5, DisplayName: "Bob", ContactEmail: "bob@uni.edu"}}
		diff := ComputeDiff(current, []domain.DesiredMember{{ID: 5, Name: " Bob ", Email: "bob@uni.edu "}})
		assert.True(t, diff.IsEmpty())
	})

	t.Run("изменение email - обновление", func(t *testing.T) {
		current := []domain.Member{creator, {ID: 5, DisplayName: "Bob"}}
		diff := ComputeDiff(current, []domain.DesiredMember{{ID: 5, Name: "Bob", Email: "bob@uni.edu"}})
		require.Len(t, diff.ToUpdate, 1)
		assert.Equal(t, "bob@uni.edu", diff.ToUpdate[0].Fields.ContactEmail)
	})

	t.Run("устаревший id - вставка", func(t *testing.T) {
		diff := ComputeDiff([]domain.Member{creator}, []domain.DesiredMember{{ID: 42, Name: "Dan"}})
		require.Len(t, diff.ToInsert, 1)
		assert.Equal(t, "Dan", diff.ToInsert[0].Member.Name)
	})

	t.Run("создатель не попадает в diff", func(t *testing.T) {
		diff := ComputeDiff([]domain.Member{creator}, nil)
		assert.True(t, diff.IsEmpty())
	})

	t.Run("повторное вычисление дает тот же результат", func(t *testing.T) {
		current := []domain.Member{creator, memberRow(5, "Bob"), memberRow(6, "Cara"), memberRow(7, "Dan")}
		desired := []domain.DesiredMember{{ID: 5, Name: "Bobby"}, {Name: "Eve"}, {ID: 7, Name: "Dan"}}

		first := ComputeDiff(current, desired)
		second := ComputeDiff(current, desired)

		assert.Equal(t, first, second)
		assert.True(t, first.Equal(second))
		assert.Equal(t, 3, first.Size())
	})

	t.Run("после применения diff пуст", func(t *testing.T) {
		current := []domain.Member{creator, memberRow(5, "Bob"), memberRow(6, "Cara")}
		desired := []domain.DesiredMember{{ID: 5, Name: "Bobby"}, {ID: 101, Name: "Eve"}}

		after := []domain.Member{creator, memberRow(5, "Bobby"), memberRow(101, "Eve")}
		assert.False(t, ComputeDiff(current, desired).IsEmpty())
		assert.True(t, ComputeDiff(after, desired).IsEmpty())
	})
}

func TestDiffMismatches(t *testing.T) {
	current := []domain.Member{creatorRow(1, "Owner"), memberRow(5, "Bob"), memberRow(6, "Cara")}
	diff := ComputeDiff(current, []domain.DesiredMember{{ID: 5, Name: "Bobby"}, {Name: "Eve"}})

	reasons := map[opKey]string{
		rowKey(domain.OpDelete, 6): "database temporarily unavailable",
	}
	mismatches := diff.Mismatches(current, reasons)

	require.Len(t, mismatches, 3)
	assert.Equal(t, domain.MemberDiff{Op: domain.OpInsert, Name: "Eve", Reason: "change was not applied"}, mismatches[0])
	assert.Equal(t, domain.OpUpdate, mismatches[1].Op)
	assert.Equal(t, int64(5), mismatches[1].MemberID)
	assert.Equal(t, domain.MemberDiff{
		Op:       domain.OpDelete,
		MemberID: 6,
		Name:     "Cara",
		Reason:   "database temporarily unavailable",
	}, mismatches[2])
}
