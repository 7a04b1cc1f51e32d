package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// MemberService handles family member operations
type MemberService struct {
	memberRepo ports.FamilyMemberRepository
	logger     *logger.Logger
}

// NewMemberService creates a new member service
func NewMemberService(memberRepo ports.FamilyMemberRepository, logger *logger.Logger) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		logger:     logger,
	}
}

// CreateMember adds a member to the household, hashing the optional PIN
func (s *MemberService) CreateMember(ctx context.Context, req ports.CreateMemberRequest) (*entities.FamilyMember, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, entities.NewValidationError("name", "is required")
	}
	if !req.Role.IsValid() {
		return nil, entities.NewValidationError("role", fmt.Sprintf("unknown role %q", req.Role))
	}

	pref := req.NotificationPreference
	if pref == "" {
		pref = entities.NotifyPush
	}

	member := &entities.FamilyMember{
		Name:                   name,
		Role:                   req.Role,
		Color:                  req.Color,
		Avatar:                 req.Avatar,
		Phone:                  req.Phone,
		Email:                  req.Email,
		NotificationPreference: pref,
	}

	if req.PIN != nil && *req.PIN != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.PIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash pin: %w", err)
		}
		hash := string(hashed)
		member.PINHash = &hash
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create family member: %w", err)
	}

	s.logger.Infow("Family member created", "member_id", member.ID, "role", member.Role)

	return member, nil
}

// GetMember retrieves a member by ID
func (s *MemberService) GetMember(ctx context.Context, id int64) (*entities.FamilyMember, error) {
	return s.memberRepo.GetByID(ctx, id)
}

// ListMembers returns the whole household
func (s *MemberService) ListMembers(ctx context.Context) ([]*entities.FamilyMember, error) {
	members, err := s.memberRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	return members, nil
}

// DeleteMember removes a member. Records that reference the member keep
// the now dangling id.
func (s *MemberService) DeleteMember(ctx context.Context, id int64) error {
	if err := s.memberRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Infow("Family member deleted", "member_id", id)
	return nil
}

// VerifyPIN checks pin against the member's stored hash
func (s *MemberService) VerifyPIN(ctx context.Context, id int64, pin string) error {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !member.HasPIN() {
		return entities.ErrPINNotSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*member.PINHash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return entities.ErrInvalidPIN
		}
		return fmt.Errorf("failed to verify pin: %w", err)
	}

	return nil
}
