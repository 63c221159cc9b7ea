package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/bagdasarian/uniportal-groups/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceMocks struct {
	groups     *MockGroupRepository
	members    *MockMemberStore
	identity   *MockIdentityChecker
	reconciler *MockMembersReconciler
}

func setupGroupService() (GroupService, serviceMocks) {
	mocks := serviceMocks{
		groups:     new(MockGroupRepository),
		members:    new(MockMemberStore),
		identity:   new(MockIdentityChecker),
		reconciler: new(MockMembersReconciler),
	}
	service := NewGroupService(mocks.groups, mocks.members, mocks.identity, mocks.reconciler, zap.NewNop())
	return service, mocks
}

func existingGroup() *domain.Group {
	owner := "student-1"
	return &domain.Group{
		ID:         7,
		SectionID:  2,
		Name:       "Databases",
		MaxMembers: 4,
		CreatorID:  owner,
		Creator: domain.Member{
			ID:            1,
			GroupID:       7,
			DisplayName:   "Owner",
			IsCreator:     true,
			OwnerIdentity: &owner,
		},
		CreatedAt: time.Now(),
	}
}

func TestGroupService_CreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("успешное создание группы", func(t *testing.T) {
		service, mocks := setupGroupService()

		mocks.groups.On("Create", mock.Anything, mock.MatchedBy(func(g *domain.Group) bool {
			return g.SectionID == 2 && g.Name == "Databases" && g.CreatorID == "student-1" &&
				g.Creator.DisplayName == "Owner" && g.Creator.ContactEmail == "owner@uni.edu"
		})).Run(func(args mock.Arguments) {
			g := args.Get(1).(*domain.Group)
			g.ID = 7
			g.MaxMembers = 4
		}).Return(nil).Once()

		group, err := service.CreateGroup(ctx, "student-1", CreateGroupInput{
			SectionID:    2,
			Name:         " Databases ",
			CreatorName:  "Owner",
			CreatorEmail: "owner@uni.edu",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(7), group.ID)
		assert.Equal(t, 4, group.MaxMembers)
		mocks.groups.AssertExpectations(t)
	})

	t.Run("ошибка: секция не найдена", func(t *testing.T) {
		service, mocks := setupGroupService()
		mocks.groups.On("Create", mock.Anything, mock.Anything).Return(repository.ErrSectionNotFound).Once()

		group, err := service.CreateGroup(ctx, "student-1", CreateGroupInput{SectionID: 99, Name: "X", CreatorName: "Owner"})

		assert.Nil(t, group)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("ошибка: группа уже есть", func(t *testing.T) {
		service, mocks := setupGroupService()
		mocks.groups.On("Create", mock.Anything, mock.Anything).Return(domain.ErrGroupExists).Once()

		_, err := service.CreateGroup(ctx, "student-1", CreateGroupInput{SectionID: 2, Name: "X", CreatorName: "Owner"})

		assert.True(t, errors.Is(err, domain.ErrGroupExists))
	})

	t.Run("ошибка: пустые поля", func(t *testing.T) {
		service, mocks := setupGroupService()

		_, err := service.CreateGroup(ctx, "", CreateGroupInput{Name: "X", CreatorName: "Owner"})
		assert.Equal(t, domain.CodeBadRequest, err.(*domain.DomainError).Code)

		_, err = service.CreateGroup(ctx, "student-1", CreateGroupInput{Name: "  ", CreatorName: "Owner"})
		assert.Equal(t, domain.CodeBadRequest, err.(*domain.DomainError).Code)

		_, err = service.CreateGroup(ctx, "student-1", CreateGroupInput{Name: "X"})
		assert.Equal(t, domain.CodeBadRequest, err.(*domain.DomainError).Code)

		mocks.groups.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestGroupService_GetGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("группа с участниками", func(t *testing.T) {
		service, mocks := setupGroupService()
		group := existingGroup()
		members := []domain.Member{group.Creator, {ID: 5, GroupID: 7, DisplayName: "Bob"}}

		mocks.groups.On("GetByID", mock.Anything, int64(7)).Return(group, nil).Once()
		mocks.members.On("FetchMembers", mock.Anything, int64(7)).Return(members, nil).Once()

		result, err := service.GetGroup(ctx, 7)

		require.NoError(t, err)
		assert.Equal(t, members, result.Members)
		mocks.groups.AssertExpectations(t)
		mocks.members.AssertExpectations(t)
	})

	t.Run("ошибка: группа не найдена", func(t *testing.T) {
		service, mocks := setupGroupService()
		mocks.groups.On("GetByID", mock.Anything, int64(8)).Return(nil, repository.ErrGroupNotFound).Once()

		result, err := service.GetGroup(ctx, 8)

		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		mocks.members.AssertNotCalled(t, "FetchMembers", mock.Anything, mock.Anything)
	})

	t.Run("ошибка чтения участников", func(t *testing.T) {
		service, mocks := setupGroupService()
		storeErr := domain.NewStoreError(domain.StoreErrorTransient, "fetch members", errors.New("timeout"))
		mocks.groups.On("GetByID", mock.Anything, int64(7)).Return(existingGroup(), nil).Once()
		mocks.members.On("FetchMembers", mock.Anything, int64(7)).Return(nil, storeErr).Once()

		_, err := service.GetGroup(ctx, 7)

		assert.ErrorIs(t, err, storeErr)
	})
}

func TestGroupService_ReconcileMembers(t *testing.T) {
	ctx := context.Background()
	desired := []domain.DesiredMember{{Name: "Alice"}}

	t.Run("создатель запускает синхронизацию", func(t *testing.T) {
		service, mocks := setupGroupService()
		group := existingGroup()
		expected := &domain.ReconcileResult{GroupID: 7, Status: domain.StatusConverged, Saved: 1, Total: 1}

		mocks.groups.On("GetByID", mock.Anything, int64(7)).Return(group, nil).Once()
		mocks.identity.On("IsCreator", mock.Anything, "student-1", group).Return(true).Once()
		mocks.reconciler.On("Reconcile", mock.Anything, group, desired).Return(expected, nil).Once()

		result, err := service.ReconcileMembers(ctx, "student-1", 7, desired)

		require.NoError(t, err)
		assert.Equal(t, expected, result)
		mocks.identity.AssertExpectations(t)
		mocks.reconciler.AssertExpectations(t)
	})

	t.Run("ошибка: вызывающий не создатель", func(t *testing.T) {
		service, mocks := setupGroupService()
		group := existingGroup()

		mocks.groups.On("GetByID", mock.Anything, int64(7)).Return(group, nil).Once()
		mocks.identity.On("IsCreator", mock.Anything, "student-2", group).Return(false).Once()

		result, err := service.ReconcileMembers(ctx, "student-2", 7, desired)

		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
		mocks.reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ошибка: группа не найдена", func(t *testing.T) {
		service, mocks := setupGroupService()
		mocks.groups.On("GetByID", mock.Anything, int64(9)).Return(nil, repository.ErrGroupNotFound).Once()

		_, err := service.ReconcileMembers(ctx, "student-1", 9, desired)

		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("ошибка движка передается как есть", func(t *testing.T) {
		service, mocks := setupGroupService()
		group := existingGroup()

		mocks.groups.On("GetByID", mock.Anything, int64(7)).Return(group, nil).Once()
		mocks.identity.On("IsCreator", mock.Anything, "student-1", group).Return(true).Once()
		mocks.reconciler.On("Reconcile", mock.Anything, group, desired).Return(nil, domain.ErrReconciliationInProgress).Once()

		_, err := service.ReconcileMembers(ctx, "student-1", 7, desired)

		assert.True(t, errors.Is(err, domain.ErrReconciliationInProgress))
	})
}

func TestCreatorIdentityChecker(t *testing.T) {
	checker := NewCreatorIdentityChecker()
	ctx := context.Background()
	group := existingGroup()

	t.Run("создатель", func(t *testing.T) {
		assert.True(t, checker.IsCreator(ctx, "student-1", group))
	})

	t.Run("другой пользователь", func(t *testing.T) {
		assert.False(t, checker.IsCreator(ctx, "student-2", group))
	})

	t.Run("пустая identity", func(t *testing.T) {
		assert.False(t, checker.IsCreator(ctx, "", group))
	})

	t.Run("строка создателя принадлежит другому", func(t *testing.T) {
		other := "student-3"
		tampered := existingGroup()
		tampered.Creator.OwnerIdentity = &other
		assert.False(t, checker.IsCreator(ctx, "student-1", tampered))
	})
}
