package reconcile

import (
	"context"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/bagdasarian/uniportal-groups/internal/repository"
)

type ConvergenceStatus string

const (
	Converged ConvergenceStatus = "converged"
	Partial   ConvergenceStatus = "partial"
	Diverged  ConvergenceStatus = "diverged"
)

type Verification struct {
	Status   ConvergenceStatus
	Snapshot []domain.Member
	Residual Diff
}

// Verifier каждый раз читает состав группы заново, кэша нет
type Verifier struct {
	store repository.MemberStore
}

func NewVerifier(store repository.MemberStore) *Verifier {
	return &Verifier{store: store}
}

// Verify сравнивает свежий снимок с желаемым списком.
// Diverged - остаток совпадает с примененным diff, то есть применение ничего не изменило.
func (v *Verifier) Verify(ctx context.Context, groupID int64, desired []domain.DesiredMember, applied Diff) (Verification, error) {
	snapshot, err := v.store.FetchMembers(ctx, groupID)
	if err != nil {
		return Verification{}, err
	}

	return Evaluate(snapshot, desired, applied), nil
}

// Evaluate - сверка по уже прочитанному снимку
func Evaluate(snapshot []domain.Member, desired []domain.DesiredMember, applied Diff) Verification {
	residual := ComputeDiff(snapshot, desired)
	verification := Verification{
		Snapshot: snapshot,
		Residual: residual,
	}

	switch {
	case residual.IsEmpty():
		verification.Status = Converged
	case !applied.IsEmpty() && residual.Equal(applied):
		verification.Status = Diverged
	default:
		verification.Status = Partial
	}

	return verification
}
