package domain

import (
	"fmt"
	"strings"

	"github.com/deemkeen/fedisync/origin"
)

// TempOidPrefix marks an origin id that was derived locally because
// the real one has not been seen yet. Repeated partial sightings of
// the same actor derive the same temporary oid and so collapse into
// one row.
const TempOidPrefix = "fedisynctemp:"

// Actor is a participant in a social network, identified within one
// origin by its oid and across origins by a webfinger id (name@host).
type Actor struct {
	ID     int64
	Origin origin.Origin
	Oid    string

	Username    string
	RealName    string
	WebFingerID string

	Description string
	Homepage    string
	ProfileURL  string
	AvatarURL   string
	BannerURL   string
	Location    string

	NotesCount     int64
	FavoritesCount int64
	FollowingCount int64
	FollowersCount int64

	CreatedDate int64
	UpdatedDate int64

	FollowedByMe TriState

	// LatestActivity is the actor's most recent note when the origin
	// inlines it into the actor payload.
	LatestActivity *Activity
}

// EmptyActor is the zero actor.
var EmptyActor = Actor{}

// ActorFromOid builds a minimal actor reference.
func ActorFromOid(o origin.Origin, oid string) Actor {
	return Actor{Origin: o, Oid: oid}
}

func (a Actor) IsEmpty() bool {
	return a.Origin.IsEmpty() || (a.ID == 0 && a.Oid == "" && a.Username == "" && a.WebFingerID == "")
}

// IsOidReal reports whether an oid came from the origin rather than
// from a local derivation.
func IsOidReal(oid string) bool {
	return oid != "" && !strings.HasPrefix(oid, TempOidPrefix)
}

// HasRealOid reports whether the actor's own oid is real.
func (a Actor) HasRealOid() bool {
	return IsOidReal(a.Oid)
}

// TempOid derives a deterministic placeholder oid from whatever
// identifying attribute is available.
func (a Actor) TempOid() string {
	switch {
	case a.WebFingerID != "":
		return TempOidPrefix + a.WebFingerID
	case a.Username != "":
		return TempOidPrefix + a.Username
	default:
		return TempOidPrefix + a.Oid
	}
}

// IsPartiallyDefined reports whether required display attributes are
// still missing, so that a stored row should not be overwritten with
// even less data.
func (a Actor) IsPartiallyDefined() bool {
	return !a.HasRealOid() || a.WebFingerID == "" || a.Username == "" || a.RealName == ""
}

// BuildWebFingerID fills the webfinger id from the username and the
// origin host, when both are known and the id is still empty.
func (a *Actor) BuildWebFingerID() {
	if a.WebFingerID != "" || a.Username == "" {
		return
	}
	if strings.Contains(a.Username, "@") {
		a.WebFingerID = a.Username
		return
	}
	host := a.Origin.Host()
	if host == "" {
		return
	}
	a.WebFingerID = a.Username + "@" + host
}

// NamePreferablyWebFinger is used in log lines.
func (a Actor) NamePreferablyWebFinger() string {
	if a.WebFingerID != "" {
		return a.WebFingerID
	}
	if a.Username != "" {
		return a.Username
	}
	return a.Oid
}

// SameActor compares two actor references within one origin, falling
// back to the webfinger id for cross-sighting matches.
func (a Actor) SameActor(other Actor) bool {
	if a.IsEmpty() || other.IsEmpty() {
		return false
	}
	if a.ID != 0 && other.ID != 0 {
		return a.ID == other.ID
	}
	if a.Origin.ID == other.Origin.ID && a.HasRealOid() && other.HasRealOid() {
		return a.Oid == other.Oid
	}
	return a.WebFingerID != "" && a.WebFingerID == other.WebFingerID
}

// Act wraps this actor as the object of a new activity, e.g. the
// target of a FOLLOW.
func (a Actor) Act(actor Actor, accountActor Actor, atype ActivityType) *Activity {
	activity := NewActivity(accountActor, atype)
	activity.Actor = actor
	activity.ObjActor = a
	return activity
}

func (a Actor) String() string {
	return fmt.Sprintf("Actor[id:%d, oid:%s, webfinger:%s]", a.ID, a.Oid, a.WebFingerID)
}
