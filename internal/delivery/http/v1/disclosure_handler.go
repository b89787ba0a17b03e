package v1

import (
	"net/http"

	"exec-marketplace-backend/internal/delivery/http/response"
	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type DisclosureHandler struct {
	disclosureUC domain.DisclosureUsecase
}

func NewDisclosureHandler(protected *gin.RouterGroup, disclosureUC domain.DisclosureUsecase) {
	handler := &DisclosureHandler{disclosureUC: disclosureUC}

	disclosures := protected.Group("/disclosures")
	{
		disclosures.POST("/unlock", handler.Unlock)
		disclosures.POST("/reserve", handler.Reserve)
		disclosures.GET("/balance", handler.Balance)
	}
}

type UnlockRequest struct {
	CandidateID int64  `json:"candidate_id" binding:"required"`
	PaymentRef  string `json:"payment_ref"`
}

// Unlock godoc
// @Summary      Unlock a candidate's full profile
// @Description  Debits one credit and grants disclosure; replaying a payment reference is a no-op success
// @Tags         disclosures
// @Accept       json
// @Produce      json
// @Param        unlock  body      UnlockRequest  true  "Unlock JSON"
// @Success      200  {object}  response.Response
// @Failure      402  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /disclosures/unlock [post]
// @Security     BearerAuth
func (h *DisclosureHandler) Unlock(c *gin.Context) {
	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	entitlement, err := h.disclosureUC.EnsureUnlocked(requestContext(c), req.CandidateID, req.PaymentRef)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Profile unlocked", gin.H{
		"entitlement": entitlement,
		"transaction": entitlement.Transaction,
	})
}

// Reserve godoc
// @Summary      Reserve an unlock pending external payment
// @Description  Records a pending ledger row; the entitlement is granted when the payment webhook confirms
// @Tags         disclosures
// @Accept       json
// @Produce      json
// @Param        unlock  body      UnlockRequest  true  "Reserve JSON"
// @Success      202  {object}  response.Response
// @Router       /disclosures/reserve [post]
// @Security     BearerAuth
func (h *DisclosureHandler) Reserve(c *gin.Context) {
	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	transaction, err := h.disclosureUC.ReserveUnlock(requestContext(c), req.CandidateID, req.PaymentRef)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusAccepted, "Unlock reserved, awaiting payment confirmation", transaction)
}

// Balance godoc
// @Summary      Get credit balance and transaction history
// @Tags         disclosures
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /disclosures/balance [get]
// @Security     BearerAuth
func (h *DisclosureHandler) Balance(c *gin.Context) {
	balance, transactions, err := h.disclosureUC.GetBalance(requestContext(c))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Credit balance", gin.H{
		"balance":      balance,
		"transactions": transactions,
	})
}
