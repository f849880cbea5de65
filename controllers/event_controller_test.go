package controllers

import (
	"net/http/httptest"
	"testing"
	"time"

	"eventboard-api/models"
	"eventboard-api/services"

	"github.com/gin-gonic/gin"
)

func queryContext(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/v1/events?"+rawQuery, nil)
	return c
}

func TestFilterFromQuery(t *testing.T) {
	tests := []struct {
		query     string
		wantType  services.TypeFilter
		wantFocus models.FocusSet
		wantErr   bool
	}{
		{"", services.TypeAll, services.DefaultFilterState().Focus, false},
		{"type=remote", services.TypeRemote, services.DefaultFilterState().Focus, false},
		{"focus=", services.TypeAll, models.FocusSet{}, false},
		{"focus=AAPI&focus=Black", services.TypeAll, models.FocusSet{models.FocusAAPI, models.FocusBlack}, false},
		{"focus=Trans,Latinx", services.TypeAll, models.FocusSet{models.FocusTrans, models.FocusLatinx}, false},
		{"type=Hybrid", services.TypeAll, nil, true},
		{"focus=Goth", services.TypeAll, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			state, problems := filterFromQuery(queryContext(tt.query))
			if tt.wantErr {
				if len(problems) == 0 {
					t.Fatal("expected problems")
				}
				return
			}
			if len(problems) > 0 {
				t.Fatalf("problems = %+v", problems)
			}
			if state.Type != tt.wantType {
				t.Errorf("type = %q, want %q", state.Type, tt.wantType)
			}
			if len(state.Focus) != len(tt.wantFocus) {
				t.Fatalf("focus = %v, want %v", state.Focus, tt.wantFocus)
			}
			for i := range tt.wantFocus {
				if state.Focus[i] != tt.wantFocus[i] {
					t.Errorf("focus = %v, want %v", state.Focus, tt.wantFocus)
				}
			}
		})
	}
}

func TestCreateEventRequestToDraft(t *testing.T) {
	req := CreateEventRequest{
		Title:          "Pride Picnic",
		Description:    "Potluck",
		Date:           "2024-06-01",
		Location:       "Discovery Green",
		Type:           "Remote",
		CommunityFocus: []string{"trans", "Trans", "lgbt+"},
	}
	draft, problems := req.toDraft()
	if len(problems) > 0 {
		t.Fatalf("problems = %+v", problems)
	}
	if !draft.Date.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", draft.Date)
	}
	if draft.Type != models.EventTypeRemote {
		t.Errorf("type = %q", draft.Type)
	}
	if len(draft.CommunityFocus) != 2 {
		t.Errorf("focus = %v", draft.CommunityFocus)
	}

	req.CommunityFocus = []string{"Goth"}
	req.Date = "soon"
	_, problems = req.toDraft()
	if len(problems) != 2 {
		t.Errorf("problems = %+v", problems)
	}
}

func TestToEventResponsesRendersMarkdown(t *testing.T) {
	out := toEventResponses([]models.CommunityEvent{{ID: "e1", Description: "*bring snacks*"}})
	if len(out) != 1 || out[0].ID != "e1" {
		t.Fatalf("out = %+v", out)
	}
	if out[0].DescriptionHTML != "<p><em>bring snacks</em></p>\n" {
		t.Errorf("html = %q", out[0].DescriptionHTML)
	}
}
