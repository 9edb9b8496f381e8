package permissions

// Subject is a user's standing with respect to one channel.
type Subject struct {
	UserID       int64
	GlobalOwner  bool
	Member       bool
	ChannelOwner bool
}

// Compute returns the permissions a subject holds on its channel.
//
// Members may view, post, invite and react. Channel owners who are members
// additionally pin, moderate messages and manage owners. Global owners
// moderate messages, manage owners, join private channels and change global
// tiers wherever they are, but pinning stays with channel owners.
func Compute(s Subject) Permission {
	var p Permission
	if s.Member {
		p |= PermMember
		if s.ChannelOwner {
			p |= PermChannelOwner
		}
	}
	if s.GlobalOwner {
		p |= PermGlobalOwner
	}
	return p
}

// CanJoin reports whether the subject may join a channel with the given visibility.
func CanJoin(s Subject, isPublic bool) bool {
	return isPublic || Compute(s).Has(PermJoinPrivate)
}

// JoinsAsOwner reports whether a user entering a channel (by joining or by
// invitation) is made a channel owner at the same time.
func JoinsAsOwner(globalOwner bool) bool {
	return globalOwner
}

// CanModifyMessage reports whether the subject may edit or remove a message
// written by authorID. Authors may always touch their own messages, even
// after leaving the channel.
func CanModifyMessage(s Subject, authorID int64) bool {
	if s.UserID == authorID {
		return true
	}
	return Compute(s).Has(PermManageMessages)
}

// Seat is one entry of a channel's membership list, in join order.
type Seat struct {
	UserID  int64
	IsOwner bool
}

// LeavePlan is the set of changes that follow a member leaving a channel.
type LeavePlan struct {
	// DeleteChannel is set when nobody is left.
	DeleteChannel bool
	// Promote names the member to make owner when the last owner left.
	Promote *int64
}

// PlanLeave decides what happens when userID leaves a channel whose members,
// in join order, are seats. The leaving user must be among seats.
func PlanLeave(seats []Seat, userID int64) LeavePlan {
	var remaining []Seat
	for _, s := range seats {
		if s.UserID != userID {
			remaining = append(remaining, s)
		}
	}
	if len(remaining) == 0 {
		return LeavePlan{DeleteChannel: true}
	}
	for _, s := range remaining {
		if s.IsOwner {
			return LeavePlan{}
		}
	}
	next := remaining[0].UserID
	return LeavePlan{Promote: &next}
}
