package repository

import (
	"context"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
)

// MemberStore - доступ к строкам group_members.
// Каждая операция выполняется один раз, без повторов, и возвращает ровно то,
// что ответило хранилище. Транзакций между строками нет.
type MemberStore interface {
	FetchMembers(ctx context.Context, groupID int64) ([]domain.Member, error)
	InsertMember(ctx context.Context, member *domain.Member) error
	UpdateMember(ctx context.Context, groupID, id int64, fields domain.MemberFields) error
	// DeleteMembers возвращает id реально удаленных строк;
	// отсутствующие в ответе id уже были удалены ранее.
	DeleteMembers(ctx context.Context, groupID int64, ids []int64) ([]int64, error)
}
