package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/middleware"
	"backoffice/internal/report"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"
)

type ProjectHandler struct {
	projectService service.ProjectService
	reports        *report.Generator
}

func NewProjectHandler(projectService service.ProjectService, reports *report.Generator) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, reports: reports}
}

func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/projects", middleware.RequireAuth())
	{
		projects.POST("", h.Create)
		projects.GET("", h.List)
		projects.GET("/:id", h.GetByID)
		projects.PATCH("/:id", h.Update)
		projects.DELETE("/:id", middleware.RequireApprover(), h.Delete)
		projects.GET("/:id/report", h.DownloadReport)

		projects.POST("/:id/variations", h.AddVariation)
		projects.PATCH("/:id/variations/:variationId", h.UpdateVariation)
		projects.DELETE("/:id/variations/:variationId", h.DeleteVariation)

		projects.POST("/:id/payments", h.AddPayment)
		projects.PATCH("/:id/payments/:paymentId", h.UpdatePayment)
		projects.DELETE("/:id/payments/:paymentId", h.DeletePayment)
	}
}

// Create registers a new project
// @Summary      Create project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProjectRequest  true  "Project payload"
// @Success      201      {object}  response.Response{data=service.ProjectDetail}
// @Failure      400      {object}  response.Response
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.projectService.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, detail))
}

// List returns paginated projects
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        owner_id  query     string  false  "Filter by owner"
// @Param        search    query     string  false  "Code or description search"
// @Param        page      query     int     false  "Page number"
// @Param        limit     query     int     false  "Page size"
// @Success      200  {object}  response.List
// @Router       /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	projects, total, err := h.projectService.List(c.Request.Context(), service.ProjectFilter{
		OwnerID: c.Query("owner_id"),
		Search:  c.Query("search"),
		Page:    params.Page,
		Limit:   params.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, projects, total, params.Page, params.Limit))
}

// GetByID returns a project with its derived financial snapshot
// @Summary      Get project
// @Description  Returns the stored inputs plus every derived figure, recomputed on read
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  response.Response{data=service.ProjectDetail}
// @Failure      404  {object}  response.Response
// @Router       /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	detail, err := h.projectService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// Update patches only the submitted project fields
// @Summary      Update project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Project ID"
// @Param        payload  body      service.UpdateProjectRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.ProjectDetail}
// @Failure      400      {object}  response.Response
// @Router       /projects/{id} [patch]
func (h *ProjectHandler) Update(c *gin.Context) {
	var req service.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.projectService.Update(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// Delete removes a project and its children
// @Summary      Delete project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "project deleted"}))
}

// DownloadReport streams the project financial statement as an xlsx workbook
// @Summary      Download financial statement
// @Tags         projects
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id   path  string  true  "Project ID"
// @Success      200  {file}  binary
// @Failure      404  {object}  response.Response
// @Router       /projects/{id}/report [get]
func (h *ProjectHandler) DownloadReport(c *gin.Context) {
	detail, err := h.projectService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	payload, err := h.reports.Generate(detail.Project, detail.Snapshot)
	if err != nil {
		writeError(c, err)
		return
	}

	filename := fmt.Sprintf("%s-statement.xlsx", detail.Project.ProjectCode)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", payload)
}

// AddVariation appends a variation order to a project
// @Summary      Add variation order
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Project ID"
// @Param        payload  body      service.CreateVariationRequest  true  "Variation payload"
// @Success      201      {object}  response.Response{data=service.ProjectDetail}
// @Failure      400      {object}  response.Response
// @Router       /projects/{id}/variations [post]
func (h *ProjectHandler) AddVariation(c *gin.Context) {
	var req service.CreateVariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.projectService.AddVariation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, detail))
}

// UpdateVariation patches one variation order
// @Summary      Update variation order
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      string                          true  "Project ID"
// @Param        variationId  path      string                          true  "Variation ID"
// @Param        payload      body      service.UpdateVariationRequest  true  "Fields to change"
// @Success      200          {object}  response.Response{data=service.ProjectDetail}
// @Failure      404          {object}  response.Response
// @Router       /projects/{id}/variations/{variationId} [patch]
func (h *ProjectHandler) UpdateVariation(c *gin.Context) {
	var req service.UpdateVariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.projectService.UpdateVariation(c.Request.Context(), c.Param("id"), c.Param("variationId"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// DeleteVariation removes one variation order
// @Summary      Delete variation order
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      string  true  "Project ID"
// @Param        variationId  path      string  true  "Variation ID"
// @Success      200          {object}  response.Response
// @Failure      404          {object}  response.Response
// @Router       /projects/{id}/variations/{variationId} [delete]
func (h *ProjectHandler) DeleteVariation(c *gin.Context) {
	if err := h.projectService.DeleteVariation(c.Request.Context(), c.Param("id"), c.Param("variationId")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "variation deleted"}))
}

// AddPayment records a payment against a project
// @Summary      Add payment
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Project ID"
// @Param        payload  body      service.CreatePaymentRequest  true  "Payment payload"
// @Success      201      {object}  response.Response{data=service.ProjectDetail}
// @Failure      400      {object}  response.Response
// @Router       /projects/{id}/payments [post]
func (h *ProjectHandler) AddPayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.projectService.AddPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, detail))
}

// UpdatePayment patches one payment
// @Summary      Update payment
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string                        true  "Project ID"
// @Param        paymentId  path      string                        true  "Payment ID"
// @Param        payload    body      service.UpdatePaymentRequest  true  "Fields to change"
// @Success      200        {object}  response.Response{data=service.ProjectDetail}
// @Failure      404        {object}  response.Response
// @Router       /projects/{id}/payments/{paymentId} [patch]
func (h *ProjectHandler) UpdatePayment(c *gin.Context) {
	var req service.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.projectService.UpdatePayment(c.Request.Context(), c.Param("id"), c.Param("paymentId"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// DeletePayment removes one payment
// @Summary      Delete payment
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string  true  "Project ID"
// @Param        paymentId  path      string  true  "Payment ID"
// @Success      200        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /projects/{id}/payments/{paymentId} [delete]
func (h *ProjectHandler) DeletePayment(c *gin.Context) {
	if err := h.projectService.DeletePayment(c.Request.Context(), c.Param("id"), c.Param("paymentId")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "payment deleted"}))
}
