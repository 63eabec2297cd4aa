package user

import (
	"net/http"
	"strconv"
	"time"

	"github.com/almasbek/mediaportal/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts user management under the provided (authenticated)
// router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/users", handler.listUsers)
	group.PUT("/users/me", handler.updateMe)
	group.GET("/users/:userID", handler.getUser)
	group.PUT("/users/:userID", handler.updateUser)
}

type httpHandler struct {
	service *Service
}

type updateRequest struct {
	Email          *string `json:"email" binding:"omitempty,email"`
	Username       *string `json:"username" binding:"omitempty,min=3,max=20"`
	Password       *string `json:"password" binding:"omitempty,min=8,max=72"`
	ProfilePicture *string `json:"profile_picture" binding:"omitempty,max=500"`
	IsActive       *bool   `json:"is_active"`
}

type userPayload struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	ProfilePicture *string    `json:"profile_picture,omitempty"`
	IsActive       bool       `json:"is_active"`
	IsAdmin        bool       `json:"is_admin"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// Listing all users is admin-only.
func (h *httpHandler) listUsers(c *gin.Context) {
	_, caller, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if !caller.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not enough permissions"})
		return
	}

	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	users, err := h.service.List(c.Request.Context(), skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	payload := make([]userPayload, 0, len(users))
	for _, u := range users {
		payload = append(payload, marshalUser(u))
	}
	c.JSON(http.StatusOK, payload)
}

// Users may read their own record; admins may read anyone's.
func (h *httpHandler) getUser(c *gin.Context) {
	callerID, caller, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	targetID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if targetID != callerID && !caller.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not enough permissions"})
		return
	}

	u, err := h.service.Get(c.Request.Context(), targetID)
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, marshalUser(u))
}

func (h *httpHandler) updateMe(c *gin.Context) {
	callerID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Accounts cannot deactivate themselves through the profile endpoint.
	u, err := h.service.Update(c.Request.Context(), callerID, UpdateInput{
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, marshalUser(u))
}

func (h *httpHandler) updateUser(c *gin.Context) {
	callerID, caller, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	targetID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if targetID != callerID && !caller.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not enough permissions"})
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := UpdateInput{
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	}
	if caller.IsAdmin {
		input.IsActive = req.IsActive
	}

	u, err := h.service.Update(c.Request.Context(), targetID, input)
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, marshalUser(u))
}

func marshalUser(u auth.User) userPayload {
	payload := userPayload{
		ID:             u.ID.String(),
		Email:          u.Email,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		IsActive:       u.IsActive,
		IsAdmin:        u.IsAdmin,
	}
	if !u.CreatedAt.IsZero() {
		created := u.CreatedAt.UTC()
		payload.CreatedAt = &created
	}
	return payload
}

func respondUserError(c *gin.Context, err error) {
	switch err {
	case ErrUserNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case ErrEmailTaken:
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
	case ErrUsernameTaken:
		c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
	case ErrInvalidUsername:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
	case ErrWeakPassword:
		c.JSON(http.StatusBadRequest, gin.H{"error": "password does not meet strength requirements"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
	}
}
