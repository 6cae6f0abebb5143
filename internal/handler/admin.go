package handler

import (
	"rewardhub/internal/model"
	"rewardhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// Users
// ============================================================

// ListUsers GET /api/v1/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	response.Success(c, h.engine.Users())
}

// DeleteUser DELETE /api/v1/admin/users/:email
func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.engine.DeleteUser(c.Param("email")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, nil)
}

type AdjustBalanceRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

// AdjustBalance POST /api/v1/admin/users/:email/adjust
func (h *Handler) AdjustBalance(c *gin.Context) {
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	balance, err := h.engine.AdjustBalance(c.Param("email"), req.Delta)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"email":   c.Param("email"),
		"balance": balance,
	})
}

// ============================================================
// Request decisions
// ============================================================

// statusQuery reads ?status= and rejects unknown values.
func statusQuery(c *gin.Context) (string, bool) {
	status := c.Query("status")
	if status != "" && !model.IsValidStatus(status) {
		response.ParamError(c, "invalid status")
		return "", false
	}
	return status, true
}

// ListWithdrawals GET /api/v1/admin/withdrawals?status=
func (h *Handler) ListWithdrawals(c *gin.Context) {
	status, ok := statusQuery(c)
	if !ok {
		return
	}
	response.Success(c, h.engine.Withdrawals(status))
}

// ApproveWithdrawal POST /api/v1/admin/withdrawals/:id/approve
func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	w, err := h.engine.ApproveWithdrawal(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, w)
}

// RejectWithdrawal POST /api/v1/admin/withdrawals/:id/reject
func (h *Handler) RejectWithdrawal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	w, err := h.engine.RejectWithdrawal(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, w)
}

// ListDeposits GET /api/v1/admin/deposits?status=
func (h *Handler) ListDeposits(c *gin.Context) {
	status, ok := statusQuery(c)
	if !ok {
		return
	}
	response.Success(c, h.engine.Deposits(status))
}

// ApproveDeposit POST /api/v1/admin/deposits/:id/approve
func (h *Handler) ApproveDeposit(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	d, err := h.engine.ApproveDeposit(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, d)
}

// RejectDeposit POST /api/v1/admin/deposits/:id/reject
func (h *Handler) RejectDeposit(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	d, err := h.engine.RejectDeposit(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, d)
}

// ============================================================
// Catalog
// ============================================================

type AddTaskRequest struct {
	ID        string `json:"id"`
	Title     string `json:"title" binding:"required"`
	Reward    int64  `json:"reward" binding:"gte=0"`
	Total     int    `json:"total" binding:"gte=0"`
	IsHot     bool   `json:"is_hot"`
	TargetURL string `json:"target_url" binding:"omitempty,url"`
}

// AddTask POST /api/v1/admin/tasks
func (h *Handler) AddTask(c *gin.Context) {
	var req AddTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	t, err := h.engine.AddTask(model.Task{
		ID:        req.ID,
		Title:     req.Title,
		Reward:    req.Reward,
		Total:     req.Total,
		IsHot:     req.IsHot,
		TargetURL: req.TargetURL,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, t)
}

// DeleteTask DELETE /api/v1/admin/tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.engine.DeleteTask(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, nil)
}

type AddAnnouncementRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

// AddAnnouncement POST /api/v1/admin/announcements
func (h *Handler) AddAnnouncement(c *gin.Context) {
	var req AddAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	a, err := h.engine.AddAnnouncement(req.Title, req.Body)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, a)
}

// DeleteAnnouncement DELETE /api/v1/admin/announcements/:id
func (h *Handler) DeleteAnnouncement(c *gin.Context) {
	response.NotImplemented(c, "deleting announcements is not supported")
}
