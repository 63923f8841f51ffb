package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/stayhub/booking-api/internal/api/dto"
	"github.com/stayhub/booking-api/internal/auth"
	"github.com/stayhub/booking-api/internal/domain"
	"github.com/stayhub/booking-api/internal/service"
	apperrors "github.com/stayhub/booking-api/pkg/util"
)

const (
	maxSubjectLength = 200
	maxMessageLength = 5000
)

// SupportHandler manages support ticket endpoints.
type SupportHandler struct {
	service *service.SupportService
}

// NewSupportHandler constructs handler.
func NewSupportHandler(supportService *service.SupportService) *SupportHandler {
	return &SupportHandler{service: supportService}
}

// CreateSupportRequest POST /support.
func (h *SupportHandler) CreateSupportRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateSupportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateCreateSupport(&req); err != nil {
		return err
	}

	ticket, err := h.service.CreateSupportRequest(c.UserContext(), principal.User.ID, service.CreateSupportInput{
		Category: req.Category,
		Subject:  req.Subject,
		Message:  req.Message,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Support request created successfully",
		"data":    dto.FromTicket(ticket),
	})
}

// GetSupportByID GET /support/:id.
func (h *SupportHandler) GetSupportByID(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetSupportByID(c.UserContext(), c.Params("id"), principal.User.ID, principal.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.FromTicket(ticket),
	})
}

// GetSupportList GET /support.
func (h *SupportHandler) GetSupportList(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.ListSupportInput{
		Page:   parseIntQuery(c.Query("page"), 1),
		Limit:  parseIntQuery(c.Query("limit"), 20),
		Status: service.ListStatus(strings.ToLower(c.Query("status", "all"))),
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		category := domain.TicketCategory(strings.ToUpper(categoryStr))
		if !domain.ValidTicketCategory(category) {
			return apperrors.NewValidationError("unknown ticket category", map[string]any{"category": categoryStr})
		}
		input.Category = &category
	}

	list, err := h.service.GetSupportList(c.UserContext(), input, principal.User.ID, principal.Role)
	if err != nil {
		return err
	}

	items := make([]dto.SupportTicketResponse, 0, len(list.Items))
	for i := range list.Items {
		items = append(items, dto.FromTicket(&list.Items[i]))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": dto.SupportListResponse{
			Items: items,
			Total: list.Total,
			Page:  list.Page,
			Limit: list.Limit,
		},
	})
}

// CloseSupportRequest POST /support/:id/close.
func (h *SupportHandler) CloseSupportRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.CloseSupportRequest(c.UserContext(), c.Params("id"), principal.User.ID, principal.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Support request closed successfully",
		"data":    dto.FromTicket(ticket),
	})
}

// GetSupportRepStatistics GET /support/stats/reps. The route carries the
// admin guard; the service performs no role check of its own.
func (h *SupportHandler) GetSupportRepStatistics(c *fiber.Ctx) error {
	stats, err := h.service.GetSupportRepStatistics(c.UserContext())
	if err != nil {
		return err
	}

	totalOpen := 0
	for _, stat := range stats {
		totalOpen += stat.OpenTickets
	}
	average := 0
	if len(stats) > 0 {
		// math.Round rounds half away from zero, which matches half-up for
		// the non-negative means produced here.
		average = int(math.Round(float64(totalOpen) / float64(len(stats))))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": dto.RepStatisticsResponse{
			SupportReps: stats,
			Summary: dto.RepStatisticsSummary{
				TotalReps:            len(stats),
				TotalOpenTickets:     totalOpen,
				AverageTicketsPerRep: average,
			},
		},
	})
}

func validateCreateSupport(req *dto.CreateSupportRequest) error {
	req.Category = domain.TicketCategory(strings.ToUpper(string(req.Category)))
	if !domain.ValidTicketCategory(req.Category) {
		return apperrors.NewValidationError("unknown ticket category", map[string]any{"category": req.Category})
	}
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return apperrors.NewValidationError("subject and message are required", nil)
	}
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		return apperrors.NewValidationError("subject too long", map[string]any{"max": maxSubjectLength})
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return apperrors.NewValidationError("message too long", map[string]any{"max": maxMessageLength})
	}
	return nil
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
