package v1

import (
	"net/http"
	"strconv"

	"exec-marketplace-backend/internal/delivery/http/response"
	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type CandidateHandler struct {
	candidateUC domain.CandidateUsecase
}

func NewCandidateHandler(public *gin.RouterGroup, protected *gin.RouterGroup, candidateUC domain.CandidateUsecase) {
	handler := &CandidateHandler{candidateUC: candidateUC}

	public.GET("/tags", handler.ListTags)

	admin := protected.Group("/admin")
	{
		admin.POST("/tags", handler.CreateTag)
		admin.PUT("/candidates/:id/history", handler.Reprocess)
		admin.PUT("/candidates/:id/approval", handler.SetApproval)
	}
}

// ListTags godoc
// @Summary      List catalog tags
// @Tags         tags
// @Produce      json
// @Param        category  query  string  false  "Tag category"
// @Success      200  {object}  response.Response
// @Router       /tags [get]
func (h *CandidateHandler) ListTags(c *gin.Context) {
	category := domain.TagCategory(c.Query("category"))
	tags, err := h.candidateUC.ListTags(requestContext(c), category)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Tag list", tags)
}

type CreateTagRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// CreateTag godoc
// @Summary      Create a tag (idempotent upsert)
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        tag  body      CreateTagRequest  true  "Tag JSON"
// @Success      201  {object}  response.Response
// @Router       /admin/tags [post]
// @Security     BearerAuth
func (h *CandidateHandler) CreateTag(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	tag := &domain.Tag{Name: req.Name, Category: domain.TagCategory(req.Category)}
	if err := h.candidateUC.CreateTag(requestContext(c), tag); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Tag created", tag)
}

// Reprocess godoc
// @Summary      Replace a candidate's career history
// @Description  Admin approval pipeline: deletes and reinserts the full child set transactionally
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path      int                   true  "Candidate ID"
// @Param        history  body      domain.CareerHistory  true  "Career history JSON"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/candidates/{id}/history [put]
// @Security     BearerAuth
func (h *CandidateHandler) Reprocess(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperror.BadRequest("Invalid ID format"))
		return
	}

	var history domain.CareerHistory
	if err := c.ShouldBindJSON(&history); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	if err := h.candidateUC.Reprocess(requestContext(c), id, &history); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Career history replaced", nil)
}

type ApprovalRequest struct {
	Active    *bool `json:"active" binding:"required"`
	Completed *bool `json:"completed" binding:"required"`
}

// SetApproval godoc
// @Summary      Set a candidate's visibility flags
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id        path      int              true  "Candidate ID"
// @Param        approval  body      ApprovalRequest  true  "Approval JSON"
// @Success      200  {object}  response.Response
// @Router       /admin/candidates/{id}/approval [put]
// @Security     BearerAuth
func (h *CandidateHandler) SetApproval(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperror.BadRequest("Invalid ID format"))
		return
	}

	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	if err := h.candidateUC.SetApproval(requestContext(c), id, *req.Active, *req.Completed); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Approval updated", nil)
}
