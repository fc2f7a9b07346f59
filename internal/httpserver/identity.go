package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type federatedRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// respondIdentity returns the session's identity, null when signed out.
func (h *handlers) respondIdentity(c *gin.Context, status int) {
	id := sessionID(c)
	user, ok := h.deps.Identity.Current(c.Request.Context(), id)
	body := gin.H{"user": nil, "notices": h.deps.Notices.Drain(id)}
	if ok {
		body["user"] = user
	}
	c.JSON(status, body)
}

func (h *handlers) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, badRequest("email and password are required", map[string]string{"body": err.Error()}))
		return
	}
	if err := h.deps.Identity.SignIn(c.Request.Context(), sessionID(c), req.Email, req.Password); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondIdentity(c, http.StatusOK)
}

func (h *handlers) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, badRequest("invalid sign-up request", map[string]string{"body": err.Error()}))
		return
	}
	if err := h.deps.Identity.SignUp(c.Request.Context(), sessionID(c), req.Email, req.Password, req.Name); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondIdentity(c, http.StatusCreated)
}

func (h *handlers) signInWithGoogle(c *gin.Context) {
	var req federatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, badRequest("idToken is required", map[string]string{"body": err.Error()}))
		return
	}
	if err := h.deps.Identity.SignInWithGoogle(c.Request.Context(), sessionID(c), req.IDToken); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondIdentity(c, http.StatusOK)
}

func (h *handlers) signOut(c *gin.Context) {
	if err := h.deps.Identity.Logout(c.Request.Context(), sessionID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondIdentity(c, http.StatusOK)
}

func (h *handlers) me(c *gin.Context) {
	h.respondIdentity(c, http.StatusOK)
}
