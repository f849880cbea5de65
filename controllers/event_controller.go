package controllers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventboard-api/middleware"
	"eventboard-api/models"
	"eventboard-api/services"
	"eventboard-api/utils"

	"github.com/gin-gonic/gin"
)

type EventController struct {
	submission *services.SubmissionService
	discovery  *services.DiscoveryService
	now        func() time.Time
}

func NewEventController(submission *services.SubmissionService, discovery *services.DiscoveryService) *EventController {
	return &EventController{
		submission: submission,
		discovery:  discovery,
		now:        time.Now,
	}
}

// CreateEventRequest is the submission form. Date is a calendar day or an
// RFC 3339 timestamp.
type CreateEventRequest struct {
	Title          string   `json:"title" form:"title"`
	Description    string   `json:"description" form:"description"`
	Date           string   `json:"date" form:"date"`
	Time           string   `json:"time" form:"time"`
	Location       string   `json:"location" form:"location"`
	EventLink      string   `json:"eventLink" form:"eventLink"`
	ImageData      string   `json:"imageData" form:"-"`
	Type           string   `json:"type" form:"type"`
	CommunityFocus []string `json:"communityFocus" form:"communityFocus"`
}

// EventResponse adds the rendered description to an event.
type EventResponse struct {
	models.CommunityEvent
	DescriptionHTML string `json:"descriptionHtml"`
}

type CreateEventResponse struct {
	services.SubmitResult
	ImageDropped bool `json:"imageDropped,omitempty"`
}

func toEventResponses(events []models.CommunityEvent) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{CommunityEvent: e, DescriptionHTML: utils.RenderMarkdown(e.Description)})
	}
	return out
}

// filterFromQuery reads type and focus. An absent focus parameter selects the
// default preset; a present but empty one disables focus filtering.
func filterFromQuery(c *gin.Context) (services.FilterState, []models.FieldProblem) {
	state := services.DefaultFilterState()
	var problems []models.FieldProblem

	t, ok := services.ParseTypeFilter(c.Query("type"))
	if !ok {
		problems = append(problems, models.FieldProblem{Field: "type", Message: "must be one of: All InPerson Remote"})
	}
	state = state.WithType(t)

	if values, present := c.GetQueryArray("focus"); present {
		focus, unknown := utils.ParseFocusParams(values)
		for _, u := range unknown {
			problems = append(problems, models.FieldProblem{Field: "focus", Message: "\"" + u + "\" is not a recognised community focus"})
		}
		state.Focus = focus
	}
	return state, problems
}

func (ec *EventController) GetEvents(c *gin.Context) {
	state, problems := filterFromQuery(c)
	if len(problems) > 0 {
		utils.SendValidationError(c, problems)
		return
	}

	events := ec.discovery.View(state)
	c.JSON(http.StatusOK, gin.H{
		"events":  toEventResponses(events),
		"filter":  state,
		"loading": ec.discovery.Loading(),
	})
}

func (ec *EventController) StreamEvents(c *gin.Context) {
	state, problems := filterFromQuery(c)
	if len(problems) > 0 {
		utils.SendValidationError(c, problems)
		return
	}

	ch := ec.discovery.Watch(c.Request.Context(), state)
	streamChannel(c, "events", ch, func(events []models.CommunityEvent) any {
		return toEventResponses(events)
	})
}

func (ec *EventController) GetCalendar(c *gin.Context) {
	state, problems := filterFromQuery(c)
	if len(problems) > 0 {
		utils.SendValidationError(c, problems)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteCalendar(&buf, ec.discovery.View(state), ec.now()); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="events.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func (ec *EventController) CreateEvent(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req CreateEventRequest
	imageDropped := false

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadBytes+1<<20)
		if err := c.ShouldBind(&req); err != nil {
			utils.SendError(c, http.StatusBadRequest, "Invalid form data")
			return
		}
		imageData, err := attachUpload(c)
		switch {
		case errors.Is(err, errNoUpload):
		case errors.Is(err, models.ErrImageTooLarge):
			slog.Warn("image_dropped", "user_id", identity.ID, "error", err)
			imageDropped = true
		case errors.Is(err, services.ErrUnsupportedImage):
			utils.SendError(c, http.StatusBadRequest, "Image must be a JPEG, PNG or GIF")
			return
		case err != nil:
			utils.RespondError(c, err)
			return
		}
		req.ImageData = imageData
	} else if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	draft, problems := req.toDraft()
	if len(problems) > 0 {
		utils.SendValidationError(c, problems)
		return
	}

	result, err := ec.submission.Submit(c.Request.Context(), draft, identity.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateEventResponse{SubmitResult: result, ImageDropped: imageDropped})
}

// UploadImage inlines an image ahead of a JSON submission.
func (ec *EventController) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadBytes+1<<20)

	imageData, err := attachUpload(c)
	switch {
	case errors.Is(err, errNoUpload):
		utils.SendError(c, http.StatusBadRequest, "Image file is required")
		return
	case errors.Is(err, models.ErrImageTooLarge):
		utils.SendError(c, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, services.ErrUnsupportedImage):
		utils.SendError(c, http.StatusBadRequest, "Image must be a JPEG, PNG or GIF")
		return
	case err != nil:
		utils.RespondError(c, err)
		return
	}

	utils.SendSuccess(c, "Image attached", gin.H{"imageData": imageData})
}

var errNoUpload = errors.New("no image uploaded")

// attachUpload inlines the optional "image" form file. A missing file yields
// "" with errNoUpload.
func attachUpload(c *gin.Context) (string, error) {
	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", errNoUpload
		}
		return "", err
	}
	f, err := header.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return services.AttachImage(f, header.Header.Get("Content-Type"), models.MaxImageBytes)
}

func (r CreateEventRequest) toDraft() (models.Draft, []models.FieldProblem) {
	var problems []models.FieldProblem

	date, err := utils.ParseEventDate(r.Date)
	if err != nil {
		problems = append(problems, models.FieldProblem{Field: "date", Message: "must be YYYY-MM-DD"})
	}

	focus, unknown := utils.ParseFocusParams(r.CommunityFocus)
	for _, u := range unknown {
		problems = append(problems, models.FieldProblem{Field: "communityFocus", Message: "\"" + u + "\" is not a recognised community focus"})
	}

	return models.Draft{
		Title:          r.Title,
		Description:    r.Description,
		Date:           date,
		Time:           r.Time,
		Location:       r.Location,
		EventLink:      r.EventLink,
		ImageData:      r.ImageData,
		Type:           models.EventType(r.Type),
		CommunityFocus: focus,
	}, problems
}
