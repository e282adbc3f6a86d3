package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quienpaga/quienpaga-backend/internal/store"
	"github.com/quienpaga/quienpaga-backend/logger"
	"github.com/quienpaga/quienpaga-backend/types"
)

// Ensure GroupStore implements store.GroupStore.
var _ store.GroupStore = (*GroupStore)(nil)

// GroupStore implements the membership registry using PostgreSQL.
type GroupStore struct {
	db      DB
	timeout time.Duration
}

// NewGroupStore creates a GroupStore. queryTimeout bounds every store call.
func NewGroupStore(db DB, queryTimeout time.Duration) *GroupStore {
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &GroupStore{db: db, timeout: queryTimeout}
}

// CreateGroup inserts the group row and the creator's admin membership in a
// single transaction, so a half-created group can never be observed.
func (s *GroupStore) CreateGroup(ctx context.Context, params types.CreateGroupParams, creator types.AddMemberParams) (*types.Group, error) {
	log := logger.GetLogger()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var group types.Group
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO groups (name, description, created_by)
			VALUES ($1, $2, $3)
			RETURNING id, name, description, created_by, created_at, updated_at`,
			params.Name,
			params.Description,
			params.CreatedBy,
		).Scan(
			&group.ID,
			&group.Name,
			&group.Description,
			&group.CreatedBy,
			&group.CreatedAt,
			&group.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO members (group_id, user_id, display_name, email, role)
			VALUES ($1, $2, $3, $4, $5)`,
			group.ID,
			creator.UserID,
			creator.DisplayName,
			creator.Email,
			types.MemberRoleAdmin,
		)
		if err != nil {
			return fmt.Errorf("insert creator membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreError(err, "create group")
	}

	log.Infow("Group created", "groupId", group.ID, "createdBy", group.CreatedBy)
	return &group, nil
}

// GetGroup retrieves a single group by ID.
func (s *GroupStore) GetGroup(ctx context.Context, id string) (*types.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var group types.Group
	err := s.db.QueryRow(ctx, `
		SELECT id, name, description, created_by, created_at, updated_at
		FROM groups
		WHERE id = $1`,
		id,
	).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.CreatedBy,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, wrapStoreError(err, "get group")
	}
	return &group, nil
}

// UpdateGroup applies the non-nil fields of the update and returns the
// stored row.
func (s *GroupStore) UpdateGroup(ctx context.Context, groupID string, update types.GroupUpdate) (*types.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var group types.Group
	err := s.db.QueryRow(ctx, `
		UPDATE groups
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, created_by, created_at, updated_at`,
		groupID,
		update.Name,
		update.Description,
	).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.CreatedBy,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, wrapStoreError(err, "update group")
	}

	logger.GetLogger().Infow("Group updated", "groupId", group.ID)
	return &group, nil
}

// ListUserGroups returns the groups the identity has a membership in.
func (s *GroupStore) ListUserGroups(ctx context.Context, userID string) ([]*types.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at, g.updated_at
		FROM groups g
		JOIN members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, wrapStoreError(err, "list user groups")
	}
	defer rows.Close()

	var groups []*types.Group
	for rows.Next() {
		group := &types.Group{}
		if err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.Description,
			&group.CreatedBy,
			&group.CreatedAt,
			&group.UpdatedAt,
		); err != nil {
			return nil, wrapStoreError(err, "scan group")
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(err, "list user groups")
	}
	return groups, nil
}

// DeleteGroupCascade deletes shares, expenses, transfers, members and finally
// the group row in one transaction. Explicit child deletes are issued even
// though the schema declares ON DELETE CASCADE, so the operation does not
// depend on foreign key behavior.
func (s *GroupStore) DeleteGroupCascade(ctx context.Context, groupID string) error {
	log := logger.GetLogger()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM expense_shares
			WHERE expense_id IN (SELECT id FROM expenses WHERE group_id = $1)`,
			groupID,
		); err != nil {
			return fmt.Errorf("delete expense shares: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM expenses WHERE group_id = $1`, groupID); err != nil {
			return fmt.Errorf("delete expenses: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM transfers WHERE group_id = $1`, groupID); err != nil {
			return fmt.Errorf("delete transfers: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM members WHERE group_id = $1`, groupID); err != nil {
			return fmt.Errorf("delete members: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
		if err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return wrapStoreError(err, "delete group cascade")
	}

	log.Infow("Group deleted with cascade", "groupId", groupID)
	return nil
}

// AddMember inserts a member row and returns the stored record.
func (s *GroupStore) AddMember(ctx context.Context, params types.AddMemberParams) (*types.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var member types.Member
	err := s.db.QueryRow(ctx, `
		INSERT INTO members (group_id, user_id, display_name, email, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, group_id, user_id, display_name, email, role, created_at`,
		params.GroupID,
		params.UserID,
		params.DisplayName,
		params.Email,
		params.Role,
	).Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.DisplayName,
		&member.Email,
		&member.Role,
		&member.CreatedAt,
	)
	if err != nil {
		return nil, wrapStoreError(err, "add member")
	}
	return &member, nil
}

// AddMembers bulk-inserts member rows inside one transaction.
func (s *GroupStore) AddMembers(ctx context.Context, groupID string, members []types.AddMemberParams) error {
	if len(members) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		for _, m := range members {
			if _, err := tx.Exec(ctx, `
				INSERT INTO members (group_id, user_id, display_name, email, role)
				VALUES ($1, $2, $3, $4, $5)`,
				groupID,
				m.UserID,
				m.DisplayName,
				m.Email,
				m.Role,
			); err != nil {
				return fmt.Errorf("insert member %q: %w", m.DisplayName, err)
			}
		}
		return nil
	})
	return wrapStoreError(err, "add members")
}

// GetGroupMembers returns all member rows of a group.
func (s *GroupStore) GetGroupMembers(ctx context.Context, groupID string) ([]*types.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, group_id, user_id, display_name, email, role, created_at
		FROM members
		WHERE group_id = $1
		ORDER BY created_at ASC`,
		groupID,
	)
	if err != nil {
		return nil, wrapStoreError(err, "get group members")
	}
	defer rows.Close()

	return scanMembers(rows)
}

// GetMembersByID returns the group's member rows matching the given IDs.
func (s *GroupStore) GetMembersByID(ctx context.Context, groupID string, memberIDs []string) ([]*types.Member, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, group_id, user_id, display_name, email, role, created_at
		FROM members
		WHERE group_id = $1 AND id = ANY($2)`,
		groupID,
		memberIDs,
	)
	if err != nil {
		return nil, wrapStoreError(err, "get members by id")
	}
	defer rows.Close()

	return scanMembers(rows)
}

// RoleOf returns the identity's role in the group, MemberRoleNone when the
// identity has no membership there.
func (s *GroupStore) RoleOf(ctx context.Context, userID, groupID string) (types.MemberRole, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var role types.MemberRole
	err := s.db.QueryRow(ctx, `
		SELECT role FROM members
		WHERE group_id = $1 AND user_id = $2`,
		groupID,
		userID,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.MemberRoleNone, nil
		}
		return types.MemberRoleNone, wrapStoreError(err, "role of")
	}
	return role, nil
}

func scanMembers(rows pgx.Rows) ([]*types.Member, error) {
	var members []*types.Member
	for rows.Next() {
		member := &types.Member{}
		if err := rows.Scan(
			&member.ID,
			&member.GroupID,
			&member.UserID,
			&member.DisplayName,
			&member.Email,
			&member.Role,
			&member.CreatedAt,
		); err != nil {
			return nil, wrapStoreError(err, "scan member")
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(err, "iterate members")
	}
	return members, nil
}
