package connection

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deemkeen/fedisync/domain"
	"github.com/deemkeen/fedisync/origin"
)

// publicCollectionID marks a pump.io recipient list as world-readable.
const publicCollectionID = "http://activityschema.org/collection/public"

// pumpioConnection talks the pump.io ActivityStreams dialect.
type pumpioConnection struct {
	origin       origin.Origin
	accountActor domain.Actor
	http         *jsonClient
}

func newPumpioConnection(o origin.Origin, accountActor domain.Actor, creds Credentials) *pumpioConnection {
	return &pumpioConnection{
		origin:       o,
		accountActor: accountActor,
		http:         newJSONClient(o.URL, creds),
	}
}

type pumpioObject struct {
	ID          string          `json:"id"`
	ObjectType  string          `json:"objectType"`
	Content     string          `json:"content"`
	DisplayName string          `json:"displayName"`
	Summary     string          `json:"summary"`
	URL         string          `json:"url"`
	Updated     string          `json:"updated"`
	Published   string          `json:"published"`
	Author      *pumpioObject   `json:"author"`
	InReplyTo   *pumpioObject   `json:"inReplyTo"`
	Image       struct {
		URL string `json:"url"`
	} `json:"image"`
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
}

type pumpioActivity struct {
	ID        string          `json:"id"`
	Verb      string          `json:"verb"`
	Updated   string          `json:"updated"`
	Published string          `json:"published"`
	Actor     *pumpioObject   `json:"actor"`
	Object    json.RawMessage `json:"object"`
	To        []pumpioObject  `json:"to"`
	CC        []pumpioObject  `json:"cc"`
	Generator *pumpioObject   `json:"generator"`
}

// nickname is the local part of the account's user@host name, used to
// build feed paths.
func (c *pumpioConnection) nickname() string {
	name := c.accountActor.Username
	if idx := strings.Index(name, "@"); idx > 0 {
		return name[:idx]
	}
	return name
}

func (c *pumpioConnection) GetTimeline(routine Routine, since, until domain.TimelinePosition, limit int, actorOid string) ([]*domain.Activity, error) {
	var path string
	switch routine {
	case RoutineHome:
		path = "/api/user/" + c.nickname() + "/inbox/major"
	case RoutineNotifications:
		path = "/api/user/" + c.nickname() + "/inbox/direct/major"
	case RoutineActorTimeline:
		nick := actorOid
		if idx := strings.Index(nick, ":"); idx >= 0 {
			nick = nick[idx+1:]
		}
		if idx := strings.Index(nick, "@"); idx > 0 {
			nick = nick[:idx]
		}
		path = "/api/user/" + nick + "/feed/major"
	default:
		return nil, NewHardError("unsupported timeline routine "+routine.String(), nil)
	}

	query := url.Values{}
	query.Set("count", strconv.Itoa(c.origin.FixDownloadLimit(limit)))
	if !since.IsEmpty() {
		query.Set("since", since.String())
	}
	if !until.IsEmpty() {
		query.Set("before", until.String())
	}

	var feed struct {
		Items []pumpioActivity `json:"items"`
	}
	if err := c.http.getJSON(path, query, &feed); err != nil {
		return nil, err
	}

	// Feed items arrive newest first.
	activities := make([]*domain.Activity, 0, len(feed.Items))
	for i := len(feed.Items) - 1; i >= 0; i-- {
		if a := c.activityFromWire(&feed.Items[i]); a != nil {
			activities = append(activities, a)
		}
	}
	return activities, nil
}

func verbToActivityType(verb string) domain.ActivityType {
	switch verb {
	case "post":
		return domain.ActivityCreate
	case "update":
		return domain.ActivityUpdate
	case "delete":
		return domain.ActivityDelete
	case "share":
		return domain.ActivityAnnounce
	case "unshare":
		return domain.ActivityUndoAnnounce
	case "favorite", "like":
		return domain.ActivityLike
	case "unfavorite", "unlike":
		return domain.ActivityUndoLike
	case "follow":
		return domain.ActivityFollow
	case "stop-following":
		return domain.ActivityUndoFollow
	default:
		return domain.ActivityEmpty
	}
}

func (c *pumpioConnection) activityFromWire(wire *pumpioActivity) *domain.Activity {
	atype := verbToActivityType(wire.Verb)
	if atype == domain.ActivityEmpty {
		return nil
	}

	a := domain.NewActivity(c.accountActor, atype)
	a.Oid = wire.ID
	a.Actor = c.actorFromObject(wire.Actor)
	a.UpdatedDate = parsePumpioDate(wire.Updated)
	if a.UpdatedDate == 0 {
		a.UpdatedDate = parsePumpioDate(wire.Published)
	}

	var obj pumpioObject
	if len(wire.Object) > 0 {
		if err := json.Unmarshal(wire.Object, &obj); err != nil {
			return nil
		}
	}

	switch obj.ObjectType {
	case "person":
		objActor := c.actorFromObject(&obj)
		if atype == domain.ActivityFollow || atype == domain.ActivityUndoFollow {
			if a.Actor.SameActor(c.accountActor) {
				objActor.FollowedByMe = domain.TriStateFromBool(atype == domain.ActivityFollow)
			}
		}
		a.ObjActor = objActor
	case "activity":
		var inner pumpioActivity
		if err := json.Unmarshal(wire.Object, &inner); err == nil {
			a.Activity = c.activityFromWire(&inner)
		}
	default:
		a.Note = c.noteFromObject(&obj, wire)
		if obj.Author != nil && a.Actor.IsEmpty() {
			a.Actor = c.actorFromObject(obj.Author)
		}
	}
	return a
}

func (c *pumpioConnection) noteFromObject(obj *pumpioObject, wire *pumpioActivity) *domain.Note {
	note := domain.NewNote(c.origin, obj.ID)
	note.Status = domain.StatusLoaded
	if obj.Author != nil {
		note.Author = c.actorFromObject(obj.Author)
	}
	note.SetBody(obj.Content)
	note.URL = obj.URL
	note.UpdatedDate = parsePumpioDate(obj.Updated)
	if note.UpdatedDate == 0 {
		note.UpdatedDate = parsePumpioDate(wire.Updated)
	}
	if wire.Generator != nil {
		note.Via = wire.Generator.DisplayName
	}
	if obj.InReplyTo != nil && obj.InReplyTo.ID != "" {
		parent := domain.NewPartialNote(c.accountActor, obj.InReplyTo.ID, 0, domain.StatusUnknown)
		if obj.InReplyTo.Author != nil {
			parent.Actor = c.actorFromObject(obj.InReplyTo.Author)
		}
		note.InReplyTo = parent
	}

	public := domain.TriUnknown
	for _, recipient := range append(append([]pumpioObject{}, wire.To...), wire.CC...) {
		if recipient.ID == publicCollectionID {
			public = domain.TriTrue
			continue
		}
		if recipient.ObjectType == "person" {
			note.Audience.Add(c.actorFromObject(&recipient))
		}
	}
	if public == domain.TriUnknown && note.Audience.NonEmpty() {
		public = domain.TriFalse
	}
	note.Public = public
	return note
}

func (c *pumpioConnection) actorFromObject(obj *pumpioObject) domain.Actor {
	if obj == nil || obj.ID == "" {
		return domain.EmptyActor
	}
	actor := domain.ActorFromOid(c.origin, obj.ID)
	actor.RealName = obj.DisplayName
	actor.Description = obj.Summary
	actor.ProfileURL = obj.URL
	actor.AvatarURL = obj.Image.URL
	actor.FollowersCount = obj.FollowersCount
	actor.FollowingCount = obj.FollowingCount
	actor.UpdatedDate = parsePumpioDate(obj.Updated)
	if webfinger, ok := strings.CutPrefix(obj.ID, "acct:"); ok {
		actor.WebFingerID = webfinger
		actor.Username = webfinger
	}
	return actor
}

func (c *pumpioConnection) GetNote(oid string) (*domain.Activity, error) {
	var obj pumpioObject
	if err := c.http.getJSON(oid, nil, &obj); err != nil {
		return nil, err
	}
	a := domain.NewActivity(c.accountActor, domain.ActivityUpdate)
	a.Note = c.noteFromObject(&obj, &pumpioActivity{})
	if obj.Author != nil {
		a.Actor = c.actorFromObject(obj.Author)
	}
	a.UpdatedDate = a.Note.UpdatedDate
	return a, nil
}

func (c *pumpioConnection) GetActor(oidOrName string) (domain.Actor, error) {
	nick := oidOrName
	if idx := strings.Index(nick, ":"); idx >= 0 {
		nick = nick[idx+1:]
	}
	if idx := strings.Index(nick, "@"); idx > 0 {
		nick = nick[:idx]
	}
	var obj pumpioObject
	if err := c.http.getJSON("/api/user/"+nick+"/profile", nil, &obj); err != nil {
		return domain.EmptyActor, err
	}
	return c.actorFromObject(&obj), nil
}

func (c *pumpioConnection) GetFriends(actorOid string) ([]domain.Actor, error) {
	return c.actorList("following", actorOid)
}

func (c *pumpioConnection) GetFollowers(actorOid string) ([]domain.Actor, error) {
	return c.actorList("followers", actorOid)
}

func (c *pumpioConnection) actorList(endpoint string, actorOid string) ([]domain.Actor, error) {
	nick := actorOid
	if idx := strings.Index(nick, ":"); idx >= 0 {
		nick = nick[idx+1:]
	}
	if idx := strings.Index(nick, "@"); idx > 0 {
		nick = nick[:idx]
	}
	query := url.Values{}
	query.Set("count", strconv.Itoa(origin.DownloadLimitMax))

	var feed struct {
		Items []pumpioObject `json:"items"`
	}
	if err := c.http.getJSON("/api/user/"+nick+"/"+endpoint, query, &feed); err != nil {
		return nil, err
	}
	actors := make([]domain.Actor, 0, len(feed.Items))
	for i := range feed.Items {
		actors = append(actors, c.actorFromObject(&feed.Items[i]))
	}
	return actors, nil
}

// postActivity sends one activity to the account's outbox and maps
// the server's echo back into the model.
func (c *pumpioConnection) postActivity(payload map[string]any) (*domain.Activity, error) {
	var echoed pumpioActivity
	if err := c.http.postJSON("/api/user/"+c.nickname()+"/feed", payload, &echoed); err != nil {
		return nil, err
	}
	a := c.activityFromWire(&echoed)
	if a == nil {
		return nil, NewHardError("server returned an unrecognized activity", nil)
	}
	return a, nil
}

func (c *pumpioConnection) UpdateStatus(body string, mediaURI string, inReplyToOid string) (*domain.Activity, error) {
	object := map[string]any{
		"objectType": "note",
		"content":    body,
	}
	if inReplyToOid != "" {
		object["inReplyTo"] = map[string]any{"id": inReplyToOid, "objectType": "note"}
	}
	if mediaURI != "" {
		object["objectType"] = "image"
		object["fullImage"] = map[string]any{"url": mediaURI}
	}
	return c.postActivity(map[string]any{"verb": "post", "object": object})
}

func (c *pumpioConnection) PostReblog(oid string) (*domain.Activity, error) {
	return c.postActivity(map[string]any{
		"verb":   "share",
		"object": map[string]any{"id": oid, "objectType": "note"},
	})
}

func (c *pumpioConnection) DestroyStatus(oid string) error {
	_, err := c.postActivity(map[string]any{
		"verb":   "delete",
		"object": map[string]any{"id": oid, "objectType": "note"},
	})
	return err
}

func (c *pumpioConnection) FollowActor(oid string, follow bool) (*domain.Activity, error) {
	verb := "follow"
	if !follow {
		verb = "stop-following"
	}
	return c.postActivity(map[string]any{
		"verb":   verb,
		"object": map[string]any{"id": oid, "objectType": "person"},
	})
}

func (c *pumpioConnection) CreateFavorite(oid string) (*domain.Activity, error) {
	return c.postActivity(map[string]any{
		"verb":   "favorite",
		"object": map[string]any{"id": oid, "objectType": "note"},
	})
}

func (c *pumpioConnection) DestroyFavorite(oid string) (*domain.Activity, error) {
	return c.postActivity(map[string]any{
		"verb":   "unfavorite",
		"object": map[string]any{"id": oid, "objectType": "note"},
	})
}

// SearchNotes is not part of the pump.io API.
func (c *pumpioConnection) SearchNotes(query string, limit int) ([]*domain.Activity, error) {
	return nil, NewHardError("search is not supported by pump.io origins", nil)
}

func parsePumpioDate(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
