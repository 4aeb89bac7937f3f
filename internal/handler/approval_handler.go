package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/approvals")
	{
		approvals.POST("", middleware.RequireAuth(), h.CreateRequest)
		approvals.GET("", middleware.RequireAuth(), h.ListRequests)
		approvals.GET("/:id", middleware.RequireAuth(), h.GetRequest)
		approvals.PUT("/:id/approve", middleware.RequireApprover(), h.Approve)
		approvals.PUT("/:id/reject", middleware.RequireApprover(), h.Reject)
	}
}

// CreateRequest files a delete or update request against a target entity
// @Summary      Create approval request
// @Description  Files a DELETE or UPDATE request for a customer or supplier; the change applies only once approved
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateApprovalRequestDTO  true  "Request payload"
// @Success      201      {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /approvals [post]
func (h *ApprovalHandler) CreateRequest(c *gin.Context) {
	var req service.CreateApprovalRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	req.RequestedBy = middleware.UserIDFromContext(c)

	result, err := h.approvalService.CreateRequest(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRequests returns approval requests, optionally filtered by status
// @Summary      List approval requests
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "PENDING, APPROVED or REJECTED"
// @Param        target_kind  query     string  false  "CUSTOMER or SUPPLIER"
// @Param        page         query     int     false  "Page number"
// @Param        limit        query     int     false  "Page size"
// @Success      200  {object}  response.List
// @Router       /approvals [get]
func (h *ApprovalHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.ApprovalFilter{
		Status:     c.Query("status"),
		TargetKind: c.Query("target_kind"),
		Page:       params.Page,
		Limit:      params.Limit,
	}

	approvals, total, err := h.approvalService.ListRequests(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, approvals, total, params.Page, params.Limit))
}

// GetRequest returns one approval request with requester/approver details
// @Summary      Get approval request
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /approvals/{id} [get]
func (h *ApprovalHandler) GetRequest(c *gin.Context) {
	result, err := h.approvalService.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Approve approves a pending approval request and applies its side effect
// @Summary      Approve request
// @Description  Flips the request to APPROVED and applies the soft delete or field patch in the same transaction
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /approvals/{id}/approve [put]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	result, err := h.approvalService.Approve(c.Request.Context(), c.Param("id"), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Reject rejects a pending approval request
// @Summary      Reject request
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true   "Request ID"
// @Param        payload  body      service.RejectRequestDTO  false  "Optional comment"
// @Success      200      {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /approvals/{id}/reject [put]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	var req service.RejectRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow empty body — comment is optional
		req.Comment = ""
	}

	result, err := h.approvalService.Reject(c.Request.Context(), c.Param("id"), middleware.UserIDFromContext(c), req.Comment)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
