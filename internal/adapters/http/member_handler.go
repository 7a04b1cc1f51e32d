package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// MemberHandler handles family member requests
type MemberHandler struct {
	memberService *services.MemberService
	logger        *logger.Logger
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService, logger *logger.Logger) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
		logger:        logger,
	}
}

// ListMembers godoc
// @Summary List family members
// @Tags family-members
// @Produce json
// @Success 200 {array} entities.FamilyMember
// @Router /family-members [get]
func (h *MemberHandler) ListMembers(c echo.Context) error {
	members, err := h.memberService.ListMembers(c.Request().Context())
	if err != nil {
		requestLog(h.logger, c, err).Errorw("List members failed")
		return httpError(err)
	}

	return c.JSON(http.StatusOK, members)
}

// CreateMember godoc
// @Summary Create a family member
// @Tags family-members
// @Accept json
// @Produce json
// @Param request body ports.CreateMemberRequest true "Member data"
// @Success 201 {object} entities.FamilyMember
// @Failure 400 {object} ErrorResponse
// @Router /family-members [post]
func (h *MemberHandler) CreateMember(c echo.Context) error {
	var req ports.CreateMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	member, err := h.memberService.CreateMember(c.Request().Context(), req)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Create member failed", "name", req.Name)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, member)
}

// GetMember godoc
// @Summary Get a family member
// @Tags family-members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} entities.FamilyMember
// @Failure 404 {object} ErrorResponse
// @Router /family-members/{id} [get]
func (h *MemberHandler) GetMember(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	member, err := h.memberService.GetMember(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, member)
}

// DeleteMember removes a member. Records referencing the member keep the id.
func (h *MemberHandler) DeleteMember(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.memberService.DeleteMember(c.Request().Context(), id); err != nil {
		requestLog(h.logger, c, err).Errorw("Delete member failed", "member_id", id)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// VerifyPIN godoc
// @Summary Check a member PIN
// @Tags family-members
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Param request body ports.VerifyPINRequest true "PIN"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Router /family-members/{id}/verify-pin [post]
func (h *MemberHandler) VerifyPIN(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req ports.VerifyPINRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.memberService.VerifyPIN(c.Request().Context(), id, req.PIN); err != nil {
		requestLog(h.logger, c, err).Warnw("PIN verification failed", "member_id", id, "ip", c.RealIP())
		return httpError(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "PIN verified"})
}
