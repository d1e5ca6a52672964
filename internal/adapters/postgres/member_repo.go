package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meetpoint/meetpoint/internal/core/domain"
)

// MemberRepo implements ports.MemberRepository with pgx.
type MemberRepo struct {
	db *DB
}

// NewMemberRepo creates a new MemberRepo.
func NewMemberRepo(db *DB) *MemberRepo {
	return &MemberRepo{db: db}
}

// Create inserts a member.
func (r *MemberRepo) Create(ctx context.Context, nickname string) (*domain.Member, error) {
	m := domain.Member{Nickname: nickname}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO users (nickname) VALUES ($1)
		RETURNING id, created_at
	`, nickname).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return &m, nil
}

// GetByID returns a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	var m domain.Member
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, nickname, created_at FROM users WHERE id = $1
	`, id).Scan(&m.ID, &m.Nickname, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member %d: %w", id, err)
	}
	return &m, nil
}
