package permissions

import (
	"strings"
	"testing"
)

func TestHas(t *testing.T) {
	p := PermViewChannel | PermSendMessages
	if !p.Has(PermViewChannel) {
		t.Error("expected Has(PermViewChannel) to be true")
	}
	if !p.Has(PermViewChannel | PermSendMessages) {
		t.Error("expected Has(ViewChannel|SendMessages) to be true")
	}
	if p.Has(PermSendMessages | PermPinMessages) {
		t.Error("expected Has to require every bit")
	}
}

func TestAddRemove(t *testing.T) {
	p := PermViewChannel.Add(PermAddReactions)
	if !p.Has(PermAddReactions) || !p.Has(PermViewChannel) {
		t.Fatalf("Add lost bits: %s", p)
	}
	if p.Add(PermAddReactions) != p {
		t.Error("adding the same permission twice should be idempotent")
	}

	p = p.Remove(PermAddReactions)
	if p.Has(PermAddReactions) {
		t.Error("expected AddReactions to be removed")
	}
	if p.Remove(PermManageUsers) != p {
		t.Error("removing an absent permission should be a no-op")
	}
}

func TestTierSets(t *testing.T) {
	if PermMember.Has(PermPinMessages) {
		t.Error("members must not pin")
	}
	if !PermChannelOwner.Has(PermPinMessages | PermManageOwners) {
		t.Error("channel owners pin and manage owners")
	}
	if PermGlobalOwner.Has(PermPinMessages) {
		t.Error("global tier alone must not grant pinning")
	}
	if PermGlobalOwner.Has(PermViewChannel) {
		t.Error("global tier alone must not grant viewing a channel")
	}
	if !PermAll.Has(PermMember | PermChannelOwner | PermGlobalOwner) {
		t.Error("PermAll should cover every tier")
	}
}

func TestString(t *testing.T) {
	if got := Permission(0).String(); got != "NONE" {
		t.Errorf("expected NONE, got %s", got)
	}
	if got := PermJoinPrivate.String(); got != "JOIN_PRIVATE" {
		t.Errorf("expected JOIN_PRIVATE, got %s", got)
	}
	if got := (PermViewChannel | PermManageUsers).String(); got != "VIEW_CHANNEL | MANAGE_USERS" {
		t.Errorf("unexpected string %q", got)
	}
	if got := Permission(1 << 40).String(); got != "UNKNOWN" {
		t.Errorf("expected UNKNOWN, got %s", got)
	}
	if !strings.Contains(PermMember.String(), "INVITE_MEMBERS") {
		t.Error("member tier should list INVITE_MEMBERS")
	}
}
