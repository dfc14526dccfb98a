package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"trakr/internal/middleware"
	"trakr/internal/model"
	"trakr/internal/repository"
)

type TokenIssuer interface {
	GenerateToken(email string) (string, error)
	Expiry() time.Duration
}

// SessionConfig controls the login cookie and password reset tokens.
type SessionConfig struct {
	CookieSecure  bool
	ResetTokenTTL time.Duration
}

type UserHandler struct {
	repo     repository.UserRepositoryInterface
	projects repository.ProjectRepositoryInterface
	tokens   TokenIssuer
	session  SessionConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewUserHandler(
	repo repository.UserRepositoryInterface,
	projects repository.ProjectRepositoryInterface,
	tokens TokenIssuer,
	session SessionConfig,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		repo:     repo,
		projects: projects,
		tokens:   tokens,
		session:  session,
		logger:   logger,
		now:      time.Now,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=2"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type OpenProjectRequest struct {
	ProjectID *int64 `json:"project_id"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required,uuid"`
	Password string `json:"password" binding:"required,min=6"`
}

type UserResponse struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	OpenProject *int64 `json:"open_project"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, OpenProject: u.OpenProject}
}

// startSession issues a token for user, sets the session cookie and writes
// the auth response with status.
func (h *UserHandler) startSession(c *gin.Context, status int, user *model.User) {
	token, err := h.tokens.GenerateToken(user.Email)
	if err != nil {
		h.logger.Error("Failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token error"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.tokens.Expiry().Seconds()), "/", "", h.session.CookieSecure, true)

	c.JSON(status, AuthResponse{Token: token, User: toUserResponse(user)})
}

// Register godoc
// @Summary      Register a user
// @Description  Creates the account and starts a session.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterRequest  true  "Account"
// @Success      201   {object}  AuthResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req.Email = strings.ToLower(req.Email)

	existing, err := h.repo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("Failed to look up user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Hash error"})
		return
	}

	user := &model.User{
		Email:          req.Email,
		Name:           strings.TrimSpace(req.Name),
		HashedPassword: string(hash),
	}

	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		h.logger.Error("Failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create failed"})
		return
	}

	h.startSession(c, http.StatusCreated, user)
}

// Login godoc
// @Summary      Log in
// @Description  Sets the "token" cookie and also returns the token for bearer use.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Credentials"
// @Success      200   {object}  AuthResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user, err := h.repo.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		h.logger.Error("Failed to look up user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	h.startSession(c, http.StatusOK, user)
}

// Logout godoc
// @Summary      Log out
// @Tags         Users
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.session.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me godoc
// @Summary      Current user
// @Tags         Users
// @Produce      json
// @Success      200  {object}  UserResponse
// @Security     BearerAuth
// @Router       /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	user, err := h.repo.FindByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load user")
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// SetOpenProject godoc
// @Summary      Remember the project the user has open
// @Description  A null project_id clears it.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      OpenProjectRequest  true  "Project"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /me/open_project [put]
func (h *UserHandler) SetOpenProject(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req OpenProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if req.ProjectID != nil {
		if _, err := h.projects.Authorize(c.Request.Context(), *req.ProjectID, email); err != nil {
			respondError(c, h.logger, err, "Failed to check project access")
			return
		}
	}

	if err := h.repo.SetOpenProject(c.Request.Context(), email, req.ProjectID); err != nil {
		respondError(c, h.logger, err, "Failed to update open project")
		return
	}

	c.JSON(http.StatusOK, gin.H{"open_project": req.ProjectID})
}

// ForgotPassword godoc
// @Summary      Request a password reset
// @Description  Always answers 200 so the endpoint does not reveal which emails exist.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      ForgotPasswordRequest  true  "Email"
// @Success      200   {object}  map[string]string
// @Router       /password/forgot [post]
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	email := strings.ToLower(req.Email)
	response := gin.H{"message": "If the account exists, a reset link has been sent"}

	user, err := h.repo.FindByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, h.logger, err, "Failed to look up user")
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, response)
		return
	}

	token := uuid.NewString()
	expires := h.now().UTC().Add(h.session.ResetTokenTTL)
	if err := h.repo.SetResetToken(c.Request.Context(), email, token, expires); err != nil {
		respondError(c, h.logger, err, "Failed to store reset token")
		return
	}

	// Delivery is out of scope; the link goes to the log.
	h.logger.Info("Password reset requested",
		zap.String("email", email),
		zap.String("reset_token", token),
		zap.Time("expires", expires),
	)

	c.JSON(http.StatusOK, response)
}

// ResetPassword godoc
// @Summary      Set a new password with a reset token
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      ResetPasswordRequest  true  "Token and password"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  ErrorResponse
// @Router       /password/reset [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Hash error"})
		return
	}

	if err := h.repo.ResetPassword(c.Request.Context(), req.Token, string(hash), h.now().UTC()); err != nil {
		respondError(c, h.logger, err, "Failed to reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
