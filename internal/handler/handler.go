package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"rewardhub/internal/logger"
	"rewardhub/internal/model"
	"rewardhub/internal/session"
	"rewardhub/internal/txlog"
	"rewardhub/internal/workflow"
	"rewardhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler exposes the workflow engine and the session manager over HTTP.
type Handler struct {
	engine   *workflow.Engine
	sessions *session.Manager
	log      *slog.Logger
}

func NewHandler(engine *workflow.Engine, sessions *session.Manager) *Handler {
	return &Handler{
		engine:   engine,
		sessions: sessions,
		log:      logger.WithComponent("Handler"),
	}
}

// fail maps domain errors to business codes. Anything unknown is a server error.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrRequestNotFound):
		response.BusinessError(c, response.CodeRequestNotFound, "request not found")
	case errors.Is(err, workflow.ErrAlreadyResolved):
		response.BusinessError(c, response.CodeAlreadyResolved, "request already resolved")
	case errors.Is(err, workflow.ErrInsufficientBalance):
		response.BusinessError(c, response.CodeBalanceNotEnough, "insufficient balance")
	case errors.Is(err, workflow.ErrUserExists):
		response.BusinessError(c, response.CodeUserExists, "user already registered")
	case errors.Is(err, workflow.ErrUserNotFound):
		response.BusinessError(c, response.CodeUserNotFound, "user not found")
	case errors.Is(err, workflow.ErrInvalidAmount):
		response.BusinessError(c, response.CodeInvalidAmount, "invalid amount")
	case errors.Is(err, workflow.ErrTaskNotFound):
		response.BusinessError(c, response.CodeTaskNotFound, "task not found")
	case errors.Is(err, txlog.ErrTransactionNotFound):
		response.BusinessError(c, response.CodeTransactionNotFound, "transaction not found")
	case errors.Is(err, session.ErrNoActiveUser):
		response.Error(c, response.CodeUnauthorized, "no active session")
	case errors.Is(err, workflow.ErrInvalidUser),
		errors.Is(err, workflow.ErrInvalidTask),
		errors.Is(err, workflow.ErrInvalidAnnouncement),
		errors.Is(err, workflow.ErrInvalidDestination),
		errors.Is(err, workflow.ErrInvalidTarget):
		response.ParamError(c, err.Error())
	default:
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		response.ServerError(c, err.Error())
	}
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "invalid id")
		return 0, false
	}
	return id, true
}

// ============================================================
// Users
// ============================================================

type RegisterRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
}

// Register POST /api/v1/users/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	u, err := h.engine.RegisterUser(req.Email, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, u)
}

// GetUser GET /api/v1/users/:email
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.engine.User(c.Param("email"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, u)
}

// ============================================================
// Session
// ============================================================

type LoginRequest struct {
	Email string `json:"email" binding:"required"`
}

// Login POST /api/v1/session/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	u, err := h.sessions.Login(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, u)
}

// Logout POST /api/v1/session/logout
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, nil)
}

// GetSession GET /api/v1/session
func (h *Handler) GetSession(c *gin.Context) {
	u, ok := h.sessions.ActiveUser()
	if !ok {
		h.fail(c, session.ErrNoActiveUser)
		return
	}
	response.Success(c, gin.H{
		"user":       u,
		"reset_date": h.sessions.Today(),
	})
}

// ============================================================
// Tasks
// ============================================================

// ListTasks GET /api/v1/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	response.Success(c, h.engine.Tasks())
}

type CompleteTaskRequest struct {
	Email string `json:"email" binding:"required"`
}

// CompleteTask POST /api/v1/tasks/:id/complete
// The reward and title come from the catalog, never from the client.
func (h *Handler) CompleteTask(c *gin.Context) {
	var req CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	task, ok := h.engine.Task(c.Param("id"))
	if !ok {
		h.fail(c, workflow.ErrTaskNotFound)
		return
	}

	tx, err := h.engine.CompleteTask(req.Email, task.ID, task.Reward, task.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, tx)
}

// ============================================================
// Withdrawals and deposits
// ============================================================

type WithdrawalRequest struct {
	Email   string `json:"email" binding:"required"`
	Amount  int64  `json:"amount" binding:"required,gt=0"`
	Bank    string `json:"bank" binding:"required"`
	Account string `json:"account" binding:"required"`
}

// RequestWithdrawal POST /api/v1/withdrawals
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	w, err := h.engine.RequestWithdrawal(req.Email, req.Amount, workflow.WithdrawalDestination{
		Bank:    req.Bank,
		Account: req.Account,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, w)
}

type DepositRequest struct {
	Email         string `json:"email" binding:"required"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Game          string `json:"game" binding:"required"`
	PackageName   string `json:"package_name" binding:"required"`
	GameAccountID string `json:"game_account_id" binding:"required"`
}

// RequestDeposit POST /api/v1/deposits
func (h *Handler) RequestDeposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	d, err := h.engine.RequestDeposit(req.Email, req.Amount, workflow.DepositTarget{
		Game:          req.Game,
		PackageName:   req.PackageName,
		GameAccountID: req.GameAccountID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, d)
}

// ============================================================
// Transactions and announcements
// ============================================================

// ListTransactions GET /api/v1/transactions?email=&kind=&status=
// Newest first.
func (h *Handler) ListTransactions(c *gin.Context) {
	f := txlog.Filter{
		Kind:      c.Query("kind"),
		Status:    c.Query("status"),
		UserEmail: c.Query("email"),
	}
	if f.Kind != "" && !model.IsValidKind(f.Kind) {
		response.ParamError(c, "invalid kind")
		return
	}
	if f.Status != "" && !model.IsValidStatus(f.Status) {
		response.ParamError(c, "invalid status")
		return
	}

	txs := h.engine.Transactions(f)
	response.Success(c, gin.H{
		"list":  txs,
		"total": len(txs),
	})
}

// GetTransaction GET /api/v1/transactions/:id
func (h *Handler) GetTransaction(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, found := h.engine.Transaction(id)
	if !found {
		h.fail(c, txlog.ErrTransactionNotFound)
		return
	}
	response.Success(c, tx)
}

// ListAnnouncements GET /api/v1/announcements
func (h *Handler) ListAnnouncements(c *gin.Context) {
	response.Success(c, h.engine.Announcements())
}
