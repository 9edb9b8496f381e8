package api

import (
	"net/http"
	"testing"

	"github.com/Ry1and/flockr/internal/gateway"
)

func TestChangePermission(t *testing.T) {
	app := newTestApp(t)

	expectStatus(t, call(t, app.admin.ChangePermission, http.MethodPost, ownerID, `{"permission_id":1}`, "id", id(aliceID)),
		http.StatusNoContent)
	if !app.world.users[aliceID].IsGlobalOwner {
		t.Fatal("expected alice to be promoted")
	}
	if _, ok := app.gw.find(gateway.EventUserUpdate); !ok {
		t.Errorf("expected USER_UPDATE, got %v", app.gw.eventNames())
	}

	// The new global owner can now demote others, including the first owner.
	expectStatus(t, call(t, app.admin.ChangePermission, http.MethodPost, aliceID, `{"permission_id":2}`, "id", id(ownerID)),
		http.StatusNoContent)
	if app.world.users[ownerID].IsGlobalOwner {
		t.Error("expected the first owner to be demoted")
	}
}

func TestChangePermission_SelfIsNoOp(t *testing.T) {
	app := newTestApp(t)

	expectStatus(t, call(t, app.admin.ChangePermission, http.MethodPost, ownerID, `{"permission_id":2}`, "id", id(ownerID)),
		http.StatusNoContent)
	if !app.world.users[ownerID].IsGlobalOwner {
		t.Error("changing one's own permission must not take effect")
	}
}

func TestChangePermission_Errors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		caller int64
		target string
		body   string
		status int
		code   string
	}{
		{"unknown user", ownerID, id(missingID), `{"permission_id":1}`, http.StatusNotFound, "UNKNOWN_USER"},
		{"bad permission", ownerID, id(aliceID), `{"permission_id":3}`, http.StatusBadRequest, "INVALID_PERMISSION"},
		{"not a global owner", aliceID, id(bobID), `{"permission_id":1}`, http.StatusForbidden, "MISSING_PERMISSIONS"},
		{"malformed id", ownerID, "x", `{"permission_id":1}`, http.StatusBadRequest, "INVALID_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, app.admin.ChangePermission, http.MethodPost, tt.caller, tt.body, "id", tt.target)
			expectError(t, rec, tt.status, tt.code)
		})
	}
}
