package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
)

type memberRepository struct {
	executor DBExecutor
}

func NewMemberRepository(db *sql.DB) *memberRepository {
	return &memberRepository{executor: db}
}

func (r *memberRepository) FetchMembers(ctx context.Context, groupID int64) ([]domain.Member, error) {
	query := `
		SELECT id, group_id, display_name, contact_email, is_creator, owner_identity, created_at, updated_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY is_creator DESC, id
	`

	rows, err := r.executor.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, classifyError("fetch members", err)
	}
	defer rows.Close()

	members := make([]domain.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, classifyError("fetch members", err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyError("fetch members", err)
	}

	return members, nil
}

func (r *memberRepository) InsertMember(ctx context.Context, member *domain.Member) error {
	if member.IsCreator {
		return domain.NewStoreError(domain.StoreErrorConstraint, "insert member",
			errors.New("creator row is created together with the group"))
	}

	query := `
		INSERT INTO group_members (group_id, display_name, contact_email, is_creator, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING id, created_at
	`

	err := r.executor.QueryRowContext(
		ctx,
		query,
		member.GroupID,
		member.DisplayName,
		nullString(member.ContactEmail),
		time.Now(),
	).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		return classifyError("insert member", err)
	}

	member.UpdatedAt = nil

	return nil
}

func (r *memberRepository) UpdateMember(ctx context.Context, groupID, id int64, fields domain.MemberFields) error {
	query := `
		UPDATE group_members
		SET display_name = $3, contact_email = $4, updated_at = $5
		WHERE id = $1 AND group_id = $2 AND is_creator = FALSE
	`

	result, err := r.executor.ExecContext(
		ctx,
		query,
		id,
		groupID,
		fields.DisplayName,
		nullString(fields.ContactEmail),
		time.Now(),
	)
	if err != nil {
		return classifyError("update member", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classifyError("update member", err)
	}

	if rowsAffected == 0 {
		return classifyError("update member", domain.ErrRowNotFound)
	}

	return nil
}

func (r *memberRepository) DeleteMembers(ctx context.Context, groupID int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		DELETE FROM group_members
		WHERE group_id = $1 AND id = ANY($2::bigint[]) AND is_creator = FALSE
		RETURNING id
	`

	rows, err := r.executor.QueryContext(ctx, query, groupID, int64ArrayLiteral(ids))
	if err != nil {
		return nil, classifyError("delete members", err)
	}
	defer rows.Close()

	deleted := make([]int64, 0, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, classifyError("delete members", err)
		}
		deleted = append(deleted, id)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyError("delete members", err)
	}

	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (domain.Member, error) {
	var member domain.Member
	var email, owner sql.NullString
	var updatedAt sql.NullTime

	err := row.Scan(
		&member.ID,
		&member.GroupID,
		&member.DisplayName,
		&email,
		&member.IsCreator,
		&owner,
		&member.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Member{}, err
	}

	member.ContactEmail = email.String
	if owner.Valid {
		member.OwnerIdentity = &owner.String
	}
	if updatedAt.Valid {
		member.UpdatedAt = &updatedAt.Time
	}

	return member, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// int64ArrayLiteral собирает литерал массива Postgres вида {1,2,3}
func int64ArrayLiteral(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
