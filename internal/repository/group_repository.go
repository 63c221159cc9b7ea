package repository

import (
	"context"
	"errors"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
)

type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id int64) (*domain.Group, error)
}

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrSectionNotFound = errors.New("section not found")
)
