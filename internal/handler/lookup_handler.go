package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/response"
)

type LookupHandler struct {
	lookupService service.LookupService
}

func NewLookupHandler(lookupService service.LookupService) *LookupHandler {
	return &LookupHandler{lookupService: lookupService}
}

func (h *LookupHandler) RegisterRoutes(router *gin.RouterGroup) {
	lookups := router.Group("/lookups", middleware.RequireAuth())
	{
		lookups.GET("/countries", h.Countries)
		lookups.GET("/cities", h.Cities)
		lookups.GET("/currencies", h.Currencies)
		lookups.GET("/banks", h.Banks)
	}

	accounts := router.Group("/bank-accounts", middleware.RequireAuth())
	{
		accounts.POST("", h.CreateBankAccount)
		accounts.GET("", h.BankAccounts)
		accounts.DELETE("/:id", middleware.RequireApprover(), h.DeleteBankAccount)
	}
}

// Countries returns active countries
// @Summary      List countries
// @Tags         lookups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Country}
// @Router       /lookups/countries [get]
func (h *LookupHandler) Countries(c *gin.Context) {
	countries, err := h.lookupService.Countries(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, countries))
}

// Cities returns active cities, optionally limited to one country
// @Summary      List cities
// @Tags         lookups
// @Produce      json
// @Security     BearerAuth
// @Param        country_id  query     string  false  "Country filter"
// @Success      200  {object}  response.Response{data=[]model.City}
// @Router       /lookups/cities [get]
func (h *LookupHandler) Cities(c *gin.Context) {
	cities, err := h.lookupService.Cities(c.Request.Context(), c.Query("country_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cities))
}

// Currencies returns active currencies
// @Summary      List currencies
// @Tags         lookups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Currency}
// @Router       /lookups/currencies [get]
func (h *LookupHandler) Currencies(c *gin.Context) {
	currencies, err := h.lookupService.Currencies(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, currencies))
}

// Banks returns the bank reference table
// @Summary      List banks
// @Tags         lookups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Bank}
// @Router       /lookups/banks [get]
func (h *LookupHandler) Banks(c *gin.Context) {
	banks, err := h.lookupService.Banks(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, banks))
}

// CreateBankAccount registers a bank account, optionally linked to a customer
// @Summary      Create bank account
// @Tags         lookups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateBankAccountRequest  true  "Bank account payload"
// @Success      201      {object}  response.Response{data=model.BankAccount}
// @Failure      400      {object}  response.Response
// @Router       /bank-accounts [post]
func (h *LookupHandler) CreateBankAccount(c *gin.Context) {
	var req service.CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	account, err := h.lookupService.CreateBankAccount(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, account))
}

// BankAccounts lists bank accounts, optionally filtered by linked customer
// @Summary      List bank accounts
// @Tags         lookups
// @Produce      json
// @Security     BearerAuth
// @Param        customer_id  query     string  false  "Linked customer filter"
// @Success      200  {object}  response.Response{data=[]model.BankAccount}
// @Router       /bank-accounts [get]
func (h *LookupHandler) BankAccounts(c *gin.Context) {
	accounts, err := h.lookupService.BankAccounts(c.Request.Context(), c.Query("customer_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, accounts))
}

// DeleteBankAccount removes a bank account
// @Summary      Delete bank account
// @Tags         lookups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Bank account ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /bank-accounts/{id} [delete]
func (h *LookupHandler) DeleteBankAccount(c *gin.Context) {
	if err := h.lookupService.DeleteBankAccount(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "bank account deleted"}))
}
