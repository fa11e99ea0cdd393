package connection

import (
	"fmt"

	"github.com/deemkeen/fedisync/domain"
	"github.com/deemkeen/fedisync/origin"
)

// Routine selects a server-side timeline endpoint.
type Routine int

const (
	RoutineHome Routine = iota
	RoutineNotifications
	RoutineActorTimeline
	RoutineSearch
)

func (r Routine) String() string {
	switch r {
	case RoutineHome:
		return "home"
	case RoutineNotifications:
		return "notifications"
	case RoutineActorTimeline:
		return "actor"
	case RoutineSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Credentials hold whatever the origin needs to authenticate calls.
type Credentials struct {
	AccessToken string
}

// Connection is a per-origin API adapter. Every implementation maps
// its own wire dialect onto the unified activity model, leaves absent
// wire fields at type-appropriate empty values, and returns timeline
// pages in chronological order (oldest first) regardless of the
// origin's native order.
//
// All methods block on network I/O and must be called off any
// latency-sensitive path.
type Connection interface {
	// GetTimeline fetches one page of a timeline. since and until are
	// opaque positions from earlier pages; limit is clamped to the
	// origin maximum. actorOid is required for RoutineActorTimeline.
	GetTimeline(routine Routine, since, until domain.TimelinePosition, limit int, actorOid string) ([]*domain.Activity, error)

	GetNote(oid string) (*domain.Activity, error)
	GetActor(oidOrName string) (domain.Actor, error)
	GetFriends(actorOid string) ([]domain.Actor, error)
	GetFollowers(actorOid string) ([]domain.Actor, error)

	UpdateStatus(body string, mediaURI string, inReplyToOid string) (*domain.Activity, error)
	PostReblog(oid string) (*domain.Activity, error)
	DestroyStatus(oid string) error
	FollowActor(oid string, follow bool) (*domain.Activity, error)
	CreateFavorite(oid string) (*domain.Activity, error)
	DestroyFavorite(oid string) (*domain.Activity, error)

	SearchNotes(query string, limit int) ([]*domain.Activity, error)
}

// ForOrigin builds the adapter matching the origin's API dialect.
// accountActor is the local account on whose behalf calls are made.
func ForOrigin(o origin.Origin, accountActor domain.Actor, creds Credentials) (Connection, error) {
	switch o.Type {
	case origin.TypeTwitter:
		return newTwitterConnection(o, accountActor, creds), nil
	case origin.TypePumpio:
		return newPumpioConnection(o, accountActor, creds), nil
	case origin.TypeGnuSocial:
		return newGnuSocialConnection(o, accountActor, creds), nil
	default:
		return nil, fmt.Errorf("no connection for origin type %s", o.Type)
	}
}
