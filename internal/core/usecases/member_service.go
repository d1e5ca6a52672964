package usecases

import (
	"context"
	"strings"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/ports"
)

// MemberService registers and looks up members.
type MemberService struct {
	members ports.MemberRepository
}

// NewMemberService creates a new MemberService.
func NewMemberService(members ports.MemberRepository) *MemberService {
	return &MemberService{members: members}
}

// Register creates a member with the given nickname.
func (s *MemberService) Register(ctx context.Context, nickname string) (*domain.Member, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, domain.Invalid("nickname must not be empty")
	}
	if len(nickname) > 50 {
		return nil, domain.Invalid("nickname must be at most 50 characters")
	}
	return s.members.Create(ctx, nickname)
}

// GetByID returns a single member.
func (s *MemberService) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	return s.members.GetByID(ctx, id)
}
