package service

import (
	"context"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
)

type GroupService interface {
	CreateGroup(ctx context.Context, callerIdentity string, input CreateGroupInput) (*domain.Group, error)
	GetGroup(ctx context.Context, groupID int64) (*domain.Group, error)
	ReconcileMembers(ctx context.Context, callerIdentity string, groupID int64, desired []domain.DesiredMember) (*domain.ReconcileResult, error)
}

type CreateGroupInput struct {
	SectionID    int64
	Name         string
	CreatorName  string
	CreatorEmail string
}

// MembersReconciler - движок синхронизации участников группы
type MembersReconciler interface {
	Reconcile(ctx context.Context, group *domain.Group, desired []domain.DesiredMember) (*domain.ReconcileResult, error)
}
