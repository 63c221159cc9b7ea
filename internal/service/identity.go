package service

import (
	"context"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
)

// IdentityChecker отвечает только на вопрос, является ли identity создателем группы
type IdentityChecker interface {
	IsCreator(ctx context.Context, identity string, group *domain.Group) bool
}

type creatorIdentityChecker struct{}

func NewCreatorIdentityChecker() IdentityChecker {
	return creatorIdentityChecker{}
}

func (creatorIdentityChecker) IsCreator(_ context.Context, identity string, group *domain.Group) bool {
	if identity == "" || group == nil {
		return false
	}
	if group.CreatorID != identity {
		return false
	}
	owner := group.Creator.OwnerIdentity
	return owner == nil || *owner == identity
}
