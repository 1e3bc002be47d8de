package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/smilecms/internal/middleware"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials, opens a session and returns a bearer token.
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "username and password are required") {
		return
	}

	user, err := a.auth.Authenticate(req.Username, req.Password)
	if err != nil {
		a.respondServiceError(c, err, "login")
		return
	}

	token, expires, err := a.auth.IssueToken(user)
	if err != nil {
		a.respondServiceError(c, err, "issue token")
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserID, user.ID)
	session.Set(middleware.SessionUsername, user.Username)
	session.Set(middleware.SessionRole, user.Role)
	if err := session.Save(); err != nil {
		a.respondServiceError(c, err, "save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Logged in successfully",
		"token":     token,
		"expiresAt": expires,
		"user":      user,
	})
}

// Logout clears the session.
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		a.respondServiceError(c, err, "clear session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the authenticated user.
func (a *API) Me(c *gin.Context) {
	user, err := a.auth.GetUser(middleware.CurrentUserID(c))
	if err != nil {
		a.respondServiceError(c, err, "current user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
