package controllers

import (
	"errors"
	"net/http"

	"eventboard-api/middleware"
	"eventboard-api/services"
	"eventboard-api/utils"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	identities *services.IdentityService
}

func NewSessionController(identities *services.IdentityService) *SessionController {
	return &SessionController{identities: identities}
}

type SessionResponse struct {
	Identity services.Identity `json:"identity"`
	Token    string            `json:"token"`
}

type ModeratorLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Session returns the identity resolved or minted by the session middleware.
func (sc *SessionController) Session(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		utils.SendError(c, http.StatusServiceUnavailable, "Could not establish a session")
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Identity: id, Token: middleware.SessionToken(c)})
}

func (sc *SessionController) ModeratorLogin(c *gin.Context) {
	var req ModeratorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Password is required")
		return
	}

	id, token, err := sc.identities.MintModerator(req.Password)
	switch {
	case errors.Is(err, services.ErrModeratorDisabled):
		utils.SendError(c, http.StatusForbidden, "Moderator sign-in is not configured")
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.SendError(c, http.StatusUnauthorized, "Invalid password")
		return
	case err != nil:
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{Identity: id, Token: token})
}
