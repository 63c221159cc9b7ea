package reconcile

import (
	"sort"
	"strings"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
)

// MemberInsert - новая строка; Index указывает на запись желаемого списка
type MemberInsert struct {
	Index  int
	Member domain.DesiredMember
}

type MemberUpdate struct {
	ID     int64
	Index  int
	Fields domain.MemberFields
}

// Diff - операции, переводящие текущий состав группы в желаемый.
// Наборы не пересекаются, строка создателя в них никогда не попадает.
type Diff struct {
	ToInsert []MemberInsert
	ToUpdate []MemberUpdate
	ToDelete []int64
}

func (d Diff) IsEmpty() bool {
	return len(d.ToInsert) == 0 && len(d.ToUpdate) == 0 && len(d.ToDelete) == 0
}

func (d Diff) Size() int {
	return len(d.ToInsert) + len(d.ToUpdate) + len(d.ToDelete)
}

// Equal сравнивает два diff по содержимому операций
func (d Diff) Equal(other Diff) bool {
	if len(d.ToInsert) != len(other.ToInsert) ||
		len(d.ToUpdate) != len(other.ToUpdate) ||
		len(d.ToDelete) != len(other.ToDelete) {
		return false
	}
	for i := range d.ToInsert {
		if d.ToInsert[i] != other.ToInsert[i] {
			return false
		}
	}
	for i := range d.ToUpdate {
		if d.ToUpdate[i] != other.ToUpdate[i] {
			return false
		}
	}
	for i := range d.ToDelete {
		if d.ToDelete[i] != other.ToDelete[i] {
			return false
		}
	}
	return true
}

// ComputeDiff - чистая функция: одинаковые входные данные всегда дают одинаковый diff
func ComputeDiff(current []domain.Member, desired []domain.DesiredMember) Diff {
	existing := make(map[int64]domain.Member, len(current))
	for _, member := range current {
		if member.IsCreator {
			continue
		}
		existing[member.ID] = member
	}

	var diff Diff
	claimed := make(map[int64]bool, len(desired))
	for i, entry := range desired {
		name := strings.TrimSpace(entry.Name)
		email := strings.TrimSpace(entry.Email)

		member, ok := existing[entry.ID]
		if entry.ID == 0 || !ok {
			diff.ToInsert = append(diff.ToInsert, MemberInsert{
				Index:  i,
				Member: domain.DesiredMember{ID: entry.ID, Name: name, Email: email},
			})
			continue
		}
		if claimed[entry.ID] {
			continue
		}
		claimed[entry.ID] = true

		if member.DisplayName != name || strings.TrimSpace(member.ContactEmail) != email {
			diff.ToUpdate = append(diff.ToUpdate, MemberUpdate{
				ID:     entry.ID,
				Index:  i,
				Fields: domain.MemberFields{DisplayName: name, ContactEmail: email},
			})
		}
	}

	for id := range existing {
		if !claimed[id] {
			diff.ToDelete = append(diff.ToDelete, id)
		}
	}
	sort.Slice(diff.ToDelete, func(i, j int) bool { return diff.ToDelete[i] < diff.ToDelete[j] })

	return diff
}

// Mismatches описывает невыполненные операции для показа пользователю.
// reasons - причины последних неудачных попыток по ключу операции.
func (d Diff) Mismatches(current []domain.Member, reasons map[opKey]string) []domain.MemberDiff {
	names := make(map[int64]domain.Member, len(current))
	for _, member := range current {
		names[member.ID] = member
	}

	mismatches := make([]domain.MemberDiff, 0, d.Size())
	for _, ins := range d.ToInsert {
		mismatches = append(mismatches, domain.MemberDiff{
			Op:     domain.OpInsert,
			Name:   ins.Member.Name,
			Email:  ins.Member.Email,
			Reason: reasonFor(reasons, insertKey(ins.Index)),
		})
	}
	for _, upd := range d.ToUpdate {
		mismatches = append(mismatches, domain.MemberDiff{
			Op:       domain.OpUpdate,
			MemberID: upd.ID,
			Name:     upd.Fields.DisplayName,
			Email:    upd.Fields.ContactEmail,
			Reason:   reasonFor(reasons, rowKey(domain.OpUpdate, upd.ID)),
		})
	}
	for _, id := range d.ToDelete {
		member := names[id]
		mismatches = append(mismatches, domain.MemberDiff{
			Op:       domain.OpDelete,
			MemberID: id,
			Name:     member.DisplayName,
			Email:    member.ContactEmail,
			Reason:   reasonFor(reasons, rowKey(domain.OpDelete, id)),
		})
	}
	return mismatches
}

type opKey struct {
	op    domain.MemberOp
	id    int64
	index int
}

func insertKey(index int) opKey {
	return opKey{op: domain.OpInsert, index: index}
}

func rowKey(op domain.MemberOp, id int64) opKey {
	return opKey{op: op, id: id}
}

func reasonFor(reasons map[opKey]string, key opKey) string {
	if reason, ok := reasons[key]; ok {
		return reason
	}
	return "change was not applied"
}
