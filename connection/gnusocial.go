package connection

import (
	"net/url"
	"strconv"

	"github.com/deemkeen/fedisync/domain"
	"github.com/deemkeen/fedisync/origin"
)

// gnuSocialConnection speaks the GNU social (StatusNet) dialect, a
// Twitter-compatible API with a few extensions: a conversation id on
// every status and an attachments array. The extensions are handled
// in the shared tweet mapping, only the search endpoint differs.
type gnuSocialConnection struct {
	*twitterConnection
}

func newGnuSocialConnection(o origin.Origin, accountActor domain.Actor, creds Credentials) *gnuSocialConnection {
	return &gnuSocialConnection{newTwitterConnection(o, accountActor, creds)}
}

func (c *gnuSocialConnection) GetTimeline(routine Routine, since, until domain.TimelinePosition, limit int, actorOid string) ([]*domain.Activity, error) {
	if routine == RoutineSearch {
		return c.SearchNotes(actorOid, limit)
	}
	return c.twitterConnection.GetTimeline(routine, since, until, limit, actorOid)
}

// SearchNotes uses the StatusNet search endpoint, which returns a
// bare status array rather than Twitter's wrapper object.
func (c *gnuSocialConnection) SearchNotes(searchQuery string, limit int) ([]*domain.Activity, error) {
	query := url.Values{}
	query.Set("q", searchQuery)
	query.Set("rpp", strconv.Itoa(c.origin.FixDownloadLimit(limit)))

	var tweets []twitterTweet
	if err := c.http.getJSON(c.apiPrefix+"search.json", query, &tweets); err != nil {
		return nil, err
	}
	return c.activitiesFromTweets(tweets), nil
}
