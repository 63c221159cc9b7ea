package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/bagdasarian/uniportal-groups/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
)

type groupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) *groupRepository {
	return &groupRepository{db: db}
}

// Create создает группу и строку ее создателя в одной транзакции.
// max_members копируется из секции.
func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO presentation_groups (section_id, name, max_members, creator_id, created_at)
		SELECT s.id, $2, s.max_members, $3, $4
		FROM sections s
		WHERE s.id = $1
		RETURNING id, max_members, created_at
	`

	now := time.Now()
	err = tx.QueryRowContext(ctx, query, group.SectionID, group.Name, group.CreatorID, now).
		Scan(&group.ID, &group.MaxMembers, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrSectionNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrGroupExists
		}
		return err
	}

	creatorQuery := `
		INSERT INTO group_members (group_id, display_name, contact_email, is_creator, owner_identity, created_at)
		VALUES ($1, $2, $3, TRUE, $4, $5)
		RETURNING id, created_at
	`

	creator := &group.Creator
	creator.GroupID = group.ID
	creator.IsCreator = true
	creator.OwnerIdentity = &group.CreatorID
	err = tx.QueryRowContext(
		ctx,
		creatorQuery,
		group.ID,
		creator.DisplayName,
		nullString(creator.ContactEmail),
		group.CreatorID,
		now,
	).Scan(&creator.ID, &creator.CreatedAt)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	group.Members = []domain.Member{*creator}

	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	query := `
		SELECT g.id, g.section_id, g.name, g.max_members, g.creator_id, g.created_at,
		       m.id, m.group_id, m.display_name, m.contact_email, m.is_creator, m.owner_identity, m.created_at, m.updated_at
		FROM presentation_groups g
		JOIN group_members m ON m.group_id = g.id AND m.is_creator
		WHERE g.id = $1
	`

	group := &domain.Group{}
	var email, owner sql.NullString
	var updatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.SectionID,
		&group.Name,
		&group.MaxMembers,
		&group.CreatorID,
		&group.CreatedAt,
		&group.Creator.ID,
		&group.Creator.GroupID,
		&group.Creator.DisplayName,
		&email,
		&group.Creator.IsCreator,
		&owner,
		&group.Creator.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrGroupNotFound
		}
		return nil, err
	}

	group.Creator.ContactEmail = email.String
	if owner.Valid {
		group.Creator.OwnerIdentity = &owner.String
	}
	if updatedAt.Valid {
		group.Creator.UpdatedAt = &updatedAt.Time
	}

	return group, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
