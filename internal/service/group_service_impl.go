package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/bagdasarian/uniportal-groups/internal/repository"
	"go.uber.org/zap"
)

type groupService struct {
	groupRepo  repository.GroupRepository
	members    repository.MemberStore
	identity   IdentityChecker
	reconciler MembersReconciler
	log        *zap.Logger
}

// NewGroupService создает новый экземпляр GroupService
func NewGroupService(
	groupRepo repository.GroupRepository,
	members repository.MemberStore,
	identity IdentityChecker,
	reconciler MembersReconciler,
	log *zap.Logger,
) GroupService {
	return &groupService{
		groupRepo:  groupRepo,
		members:    members,
		identity:   identity,
		reconciler: reconciler,
		log:        log,
	}
}

// CreateGroup создает группу; вызывающий становится ее создателем
func (s *groupService) CreateGroup(ctx context.Context, callerIdentity string, input CreateGroupInput) (*domain.Group, error) {
	if callerIdentity == "" {
		return nil, domain.NewBadRequestError("caller identity is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.NewBadRequestError("group name is required")
	}
	creatorName := strings.TrimSpace(input.CreatorName)
	if creatorName == "" {
		return nil, domain.NewBadRequestError("creator name is required")
	}

	group := &domain.Group{
		SectionID: input.SectionID,
		Name:      name,
		CreatorID: callerIdentity,
		Creator: domain.Member{
			DisplayName:  creatorName,
			ContactEmail: strings.TrimSpace(input.CreatorEmail),
		},
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrSectionNotFound) {
			return nil, domain.NewNotFoundError("section")
		}
		return nil, err
	}

	s.log.Info("group created",
		zap.Int64("group_id", group.ID),
		zap.Int64("section_id", group.SectionID),
		zap.String("creator_id", callerIdentity),
	)

	return group, nil
}

// GetGroup получает группу со всеми участниками
func (s *groupService) GetGroup(ctx context.Context, groupID int64) (*domain.Group, error) {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.members.FetchMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members

	return group, nil
}

// ReconcileMembers приводит состав группы к списку, присланному создателем
func (s *groupService) ReconcileMembers(ctx context.Context, callerIdentity string, groupID int64, desired []domain.DesiredMember) (*domain.ReconcileResult, error) {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !s.identity.IsCreator(ctx, callerIdentity, group) {
		s.log.Warn("member update by non-creator rejected",
			zap.Int64("group_id", groupID),
			zap.String("caller", callerIdentity),
		)
		return nil, domain.ErrForbidden
	}

	return s.reconciler.Reconcile(ctx, group, desired)
}

func (s *groupService) getGroup(ctx context.Context, groupID int64) (*domain.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, domain.NewNotFoundError("group")
		}
		return nil, err
	}
	return group, nil
}
