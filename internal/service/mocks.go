package service

import (
	"context"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

type MockMemberStore struct {
	mock.Mock
}

func (m *MockMemberStore) FetchMembers(ctx context.Context, groupID int64) ([]domain.Member, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Member), args.Error(1)
}

func (m *MockMemberStore) InsertMember(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberStore) UpdateMember(ctx context.Context, groupID, id int64, fields domain.MemberFields) error {
	args := m.Called(ctx, groupID, id, fields)
	return args.Error(0)
}

func (m *MockMemberStore) DeleteMembers(ctx context.Context, groupID int64, ids []int64) ([]int64, error) {
	args := m.Called(ctx, groupID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockIdentityChecker struct {
	mock.Mock
}

func (m *MockIdentityChecker) IsCreator(ctx context.Context, identity string, group *domain.Group) bool {
	args := m.Called(ctx, identity, group)
	return args.Bool(0)
}

type MockMembersReconciler struct {
	mock.Mock
}

func (m *MockMembersReconciler) Reconcile(ctx context.Context, group *domain.Group, desired []domain.DesiredMember) (*domain.ReconcileResult, error) {
	args := m.Called(ctx, group, desired)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconcileResult), args.Error(1)
}
