package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	applicationdomain "github.com/municipia/apoios/internal/application/domain"
	"github.com/municipia/apoios/pkg/db/pagination"
)

type createApplicationRequest struct {
	EntityID        string  `json:"entity_id"`
	CategoryID      string  `json:"category_id"`
	Object          string  `json:"object"`
	Description     string  `json:"description"`
	RequestedAmount float64 `json:"requested_amount"`
}

type updateApplicationRequest struct {
	CategoryID      string   `json:"category_id"`
	Object          string   `json:"object"`
	Description     string   `json:"description"`
	RequestedAmount *float64 `json:"requested_amount"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type presidentDecideRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

type deliberateRequest struct {
	Decision       string   `json:"decision"`
	ApprovedAmount *float64 `json:"approved_amount"`
	MeetingDate    string   `json:"meeting_date"`
	VotesFor       *int     `json:"votes_for"`
	VotesAgainst   *int     `json:"votes_against"`
	VotesAbstain   *int     `json:"votes_abstain"`
	VotingNotes    string   `json:"voting_notes"`
	Comment        string   `json:"comment"`
}

func (s *Server) CreateApplication(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// ENTITY actors are pinned to their own entity in the service; the
	// field here only matters for back-office intake.
	entityID, err := parseOptionalSnowflakeID(req.EntityID)
	if err != nil {
		AbortWithError(c, applicationdomain.ErrInvalidEntity)
		return
	}
	categoryID, err := parseOptionalSnowflakeID(req.CategoryID)
	if err != nil {
		AbortWithError(c, newValidationError("category_id", "invalid_category", "invalid category"))
		return
	}

	create := applicationdomain.CreateApplicationRequest{
		CategoryID:      categoryID,
		Object:          strings.TrimSpace(req.Object),
		Description:     strings.TrimSpace(req.Description),
		RequestedAmount: req.RequestedAmount,
	}
	if entityID != nil {
		create.EntityID = *entityID
	}

	resp, err := s.applicationSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListApplications(c *gin.Context) {
	var query struct {
		pagination.Pagination
		EntityID string `form:"entity_id"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entityID, err := parseOptionalSnowflakeID(query.EntityID)
	if err != nil {
		AbortWithError(c, newValidationError("entity_id", "invalid_entity", "invalid entity id"))
		return
	}

	var status *applicationdomain.ApplicationStatus
	if trimmed := strings.TrimSpace(query.Status); trimmed != "" {
		candidate := applicationdomain.ApplicationStatus(strings.ToUpper(trimmed))
		if !applicationdomain.ValidStatus(candidate) {
			AbortWithError(c, newValidationError("status", "invalid_status", "unknown status"))
			return
		}
		status = &candidate
	}

	resp, err := s.applicationSvc.List(c.Request.Context(), applicationdomain.ListApplicationRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		EntityID:  entityID,
		Status:    status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetApplicationByID(c *gin.Context) {
	resp, err := s.applicationSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateApplication(c *gin.Context) {
	var req updateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	categoryID, err := parseOptionalSnowflakeID(req.CategoryID)
	if err != nil {
		AbortWithError(c, newValidationError("category_id", "invalid_category", "invalid category"))
		return
	}

	resp, err := s.applicationSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), applicationdomain.UpdateApplicationRequest{
		CategoryID:      categoryID,
		Object:          strings.TrimSpace(req.Object),
		Description:     strings.TrimSpace(req.Description),
		RequestedAmount: req.RequestedAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteApplication(c *gin.Context) {
	if err := s.applicationSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) SubmitApplication(c *gin.Context) {
	var req commentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.applicationSvc.Submit(c.Request.Context(), strings.TrimSpace(c.Param("id")), applicationdomain.SubmitRequest{
		Comment: strings.TrimSpace(req.Comment),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) BeginApplicationReview(c *gin.Context) {
	resp, err := s.applicationSvc.BeginReview(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReturnApplication(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.applicationSvc.Return(c.Request.Context(), strings.TrimSpace(c.Param("id")), applicationdomain.ReturnRequest{
		Comment: strings.TrimSpace(req.Comment),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ValidateApplication(c *gin.Context) {
	var req commentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.applicationSvc.Validate(c.Request.Context(), strings.TrimSpace(c.Param("id")), applicationdomain.ValidateRequest{
		Comment: strings.TrimSpace(req.Comment),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SendApplicationToPresident(c *gin.Context) {
	resp, err := s.applicationSvc.SendToPresident(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PresidentDecideApplication(c *gin.Context) {
	var req presidentDecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.applicationSvc.PresidentDecide(c.Request.Context(), strings.TrimSpace(c.Param("id")), applicationdomain.PresidentDecideRequest{
		Decision: strings.TrimSpace(req.Decision),
		Comment:  strings.TrimSpace(req.Comment),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeliberateApplication(c *gin.Context) {
	var req deliberateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var meetingDate *time.Time
	if trimmed := strings.TrimSpace(req.MeetingDate); trimmed != "" {
		parsed, err := parseOptionalTime(trimmed, false)
		if err != nil {
			AbortWithError(c, newValidationError("meeting_date", "invalid_meeting_date", "invalid meeting date"))
			return
		}
		meetingDate = parsed
	}

	resp, err := s.applicationSvc.Deliberate(c.Request.Context(), strings.TrimSpace(c.Param("id")), applicationdomain.DeliberateRequest{
		Decision:       strings.TrimSpace(req.Decision),
		ApprovedAmount: req.ApprovedAmount,
		MeetingDate:    meetingDate,
		VotesFor:       req.VotesFor,
		VotesAgainst:   req.VotesAgainst,
		VotesAbstain:   req.VotesAbstain,
		VotingNotes:    strings.TrimSpace(req.VotingNotes),
		Comment:        strings.TrimSpace(req.Comment),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetApplicationDeliberation(c *gin.Context) {
	resp, err := s.applicationSvc.Deliberation(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isApplicationValidationError(err error) bool {
	switch err {
	case applicationdomain.ErrInvalidID,
		applicationdomain.ErrInvalidEntity,
		applicationdomain.ErrInvalidObject,
		applicationdomain.ErrInvalidAmount,
		applicationdomain.ErrInvalidDecision,
		applicationdomain.ErrCommentRequired,
		applicationdomain.ErrMeetingDateRequired:
		return true
	default:
		return false
	}
}
