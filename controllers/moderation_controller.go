package controllers

import (
	"io"
	"net/http"

	"eventboard-api/middleware"
	"eventboard-api/services"
	"eventboard-api/utils"

	"github.com/gin-gonic/gin"
)

type ModerationController struct {
	moderation *services.ModerationService
}

func NewModerationController(moderation *services.ModerationService) *ModerationController {
	return &ModerationController{moderation: moderation}
}

func (mc *ModerationController) GetPending(c *gin.Context) {
	events := mc.moderation.Pending()
	c.JSON(http.StatusOK, gin.H{
		"events":  toEventResponses(events),
		"count":   len(events),
		"loading": mc.moderation.Loading(),
	})
}

// StreamPending sends a "pending" event with the queue and a "count" event
// with its size after every snapshot.
func (mc *ModerationController) StreamPending(c *gin.Context) {
	ctx := c.Request.Context()
	pending := mc.moderation.Watch(ctx)
	counts := mc.moderation.WatchCount(ctx)

	prepareStream(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case events, ok := <-pending:
			if !ok {
				return false
			}
			c.SSEvent("pending", toEventResponses(events))
		case n, ok := <-counts:
			if !ok {
				return false
			}
			c.SSEvent("count", n)
		case <-ctx.Done():
			return false
		}
		return true
	})
}

func (mc *ModerationController) ApproveEvent(c *gin.Context) {
	eventID := c.Param("id")
	if !utils.IsValidEventID(eventID) {
		utils.SendError(c, http.StatusBadRequest, "Invalid event ID")
		return
	}

	if err := mc.moderation.Approve(c.Request.Context(), eventID); err != nil {
		utils.RespondError(c, err)
		return
	}

	moderator, _ := middleware.CurrentIdentity(c)
	utils.SendSuccess(c, "Event approved", gin.H{"id": eventID, "moderator": moderator.ID})
}

func (mc *ModerationController) DeleteEvent(c *gin.Context) {
	eventID := c.Param("id")
	if !utils.IsValidEventID(eventID) {
		utils.SendError(c, http.StatusBadRequest, "Invalid event ID")
		return
	}

	if err := mc.moderation.Reject(c.Request.Context(), eventID); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SendSuccess(c, "Event deleted", gin.H{"id": eventID})
}
