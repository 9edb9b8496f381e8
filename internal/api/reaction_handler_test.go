package api

import (
	"net/http"
	"testing"

	"github.com/Ry1and/flockr/internal/gateway"
)

func TestAddReaction(t *testing.T) {
	app := newMessageApp(t)

	expectStatus(t, call(t, app.reactions.AddReaction, http.MethodPut, bobID, "", "id", id(aliceMsgID), "react_id", "1"),
		http.StatusNoContent)

	ev, ok := app.gw.find(gateway.EventMessageReactionAdd)
	if !ok {
		t.Fatalf("expected MESSAGE_REACTION_ADD, got %v", app.gw.eventNames())
	}
	data := ev.Data.(gateway.ReactionData)
	if data.MessageID != aliceMsgID || data.UserID != bobID || data.ReactID != 1 || data.ChannelID != generalID {
		t.Errorf("unexpected payload %+v", data)
	}

	expectError(t, call(t, app.reactions.AddReaction, http.MethodPut, bobID, "", "id", id(aliceMsgID), "react_id", "1"),
		http.StatusBadRequest, "ALREADY_REACTED")
}

func TestAddReaction_Errors(t *testing.T) {
	app := newMessageApp(t)

	tests := []struct {
		name    string
		caller  int64
		message int64
		react   string
		status  int
		code    string
	}{
		{"unknown react", bobID, aliceMsgID, "2", http.StatusBadRequest, "INVALID_REACT"},
		{"malformed react", bobID, aliceMsgID, "x", http.StatusBadRequest, "INVALID_ID"},
		{"unknown message", bobID, missingID, "1", http.StatusNotFound, "UNKNOWN_MESSAGE"},
		{"not a member", carolID, aliceMsgID, "1", http.StatusForbidden, "NOT_A_MEMBER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, app.reactions.AddReaction, http.MethodPut, tt.caller, "", "id", id(tt.message), "react_id", tt.react)
			expectError(t, rec, tt.status, tt.code)
		})
	}
}

func TestRemoveReaction(t *testing.T) {
	app := newMessageApp(t)

	expectError(t, call(t, app.reactions.RemoveReaction, http.MethodDelete, bobID, "", "id", id(aliceMsgID), "react_id", "1"),
		http.StatusBadRequest, "NOT_REACTED")

	expectStatus(t, call(t, app.reactions.AddReaction, http.MethodPut, bobID, "", "id", id(aliceMsgID), "react_id", "1"),
		http.StatusNoContent)
	expectStatus(t, call(t, app.reactions.RemoveReaction, http.MethodDelete, bobID, "", "id", id(aliceMsgID), "react_id", "1"),
		http.StatusNoContent)

	if _, ok := app.gw.find(gateway.EventMessageReactionRemove); !ok {
		t.Errorf("expected MESSAGE_REACTION_REMOVE, got %v", app.gw.eventNames())
	}
}
