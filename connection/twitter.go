package connection

import (
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/deemkeen/fedisync/domain"
	"github.com/deemkeen/fedisync/origin"
)

// twitterConnection talks the Twitter-like REST dialect. It is also
// the base of the GNU social adapter, which shares most endpoints.
type twitterConnection struct {
	origin       origin.Origin
	accountActor domain.Actor
	http         *jsonClient
	apiPrefix    string
}

func newTwitterConnection(o origin.Origin, accountActor domain.Actor, creds Credentials) *twitterConnection {
	return &twitterConnection{
		origin:       o,
		accountActor: accountActor,
		http:         newJSONClient(o.URL, creds),
		apiPrefix:    "/" + o.BasicPath() + "/",
	}
}

type twitterUser struct {
	ID               int64  `json:"id"`
	IDStr            string `json:"id_str"`
	ScreenName       string `json:"screen_name"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Location         string `json:"location"`
	URL              string `json:"url"`
	ProfileImageURL  string `json:"profile_image_url_https"`
	ProfileBannerURL string `json:"profile_banner_url"`
	StatusesCount    int64  `json:"statuses_count"`
	FavouritesCount  int64  `json:"favourites_count"`
	FriendsCount     int64  `json:"friends_count"`
	FollowersCount   int64  `json:"followers_count"`
	CreatedAt        string `json:"created_at"`
	Following        *bool  `json:"following"`
}

type twitterTweet struct {
	ID                   int64         `json:"id"`
	IDStr                string        `json:"id_str"`
	Text                 string        `json:"text"`
	FullText             string        `json:"full_text"`
	CreatedAt            string        `json:"created_at"`
	User                 *twitterUser  `json:"user"`
	InReplyToStatusIDStr string        `json:"in_reply_to_status_id_str"`
	InReplyToUserIDStr   string        `json:"in_reply_to_user_id_str"`
	RetweetedStatus      *twitterTweet `json:"retweeted_status"`
	Favorited            *bool         `json:"favorited"`
	Source               string        `json:"source"`
	Entities             struct {
		Media []struct {
			MediaURL string `json:"media_url_https"`
			Type     string `json:"type"`
		} `json:"media"`
	} `json:"entities"`

	// GNU social extensions, absent on Twitter wire data.
	StatusnetConversationID int64 `json:"statusnet_conversation_id"`
	StatusnetAttachments    []struct {
		URL      string `json:"url"`
		Mimetype string `json:"mimetype"`
	} `json:"attachments"`
}

func (t *twitterTweet) oid() string {
	if t.IDStr != "" {
		return t.IDStr
	}
	if t.ID != 0 {
		return strconv.FormatInt(t.ID, 10)
	}
	return ""
}

func (u *twitterUser) oid() string {
	if u.IDStr != "" {
		return u.IDStr
	}
	if u.ID != 0 {
		return strconv.FormatInt(u.ID, 10)
	}
	return ""
}

func (c *twitterConnection) GetTimeline(routine Routine, since, until domain.TimelinePosition, limit int, actorOid string) ([]*domain.Activity, error) {
	query := url.Values{}
	query.Set("count", strconv.Itoa(c.origin.FixDownloadLimit(limit)))
	if !since.IsEmpty() {
		query.Set("since_id", since.String())
	}
	if !until.IsEmpty() {
		query.Set("max_id", until.String())
	}

	var path string
	switch routine {
	case RoutineHome:
		path = c.apiPrefix + "statuses/home_timeline.json"
	case RoutineNotifications:
		path = c.apiPrefix + "statuses/mentions_timeline.json"
	case RoutineActorTimeline:
		path = c.apiPrefix + "statuses/user_timeline.json"
		query.Set("user_id", actorOid)
	case RoutineSearch:
		return c.SearchNotes(actorOid, limit)
	default:
		return nil, NewHardError("unsupported timeline routine "+routine.String(), nil)
	}

	var tweets []twitterTweet
	if err := c.http.getJSON(path, query, &tweets); err != nil {
		return nil, err
	}
	return c.activitiesFromTweets(tweets), nil
}

func (c *twitterConnection) SearchNotes(searchQuery string, limit int) ([]*domain.Activity, error) {
	query := url.Values{}
	query.Set("q", searchQuery)
	query.Set("count", strconv.Itoa(c.origin.FixDownloadLimit(limit)))

	var result struct {
		Statuses []twitterTweet `json:"statuses"`
	}
	if err := c.http.getJSON(c.apiPrefix+"search/tweets.json", query, &result); err != nil {
		return nil, err
	}
	return c.activitiesFromTweets(result.Statuses), nil
}

// activitiesFromTweets maps one wire page. The wire order is newest
// first, the result is reversed to chronological.
func (c *twitterConnection) activitiesFromTweets(tweets []twitterTweet) []*domain.Activity {
	activities := make([]*domain.Activity, 0, len(tweets))
	for i := len(tweets) - 1; i >= 0; i-- {
		activities = append(activities, c.activityFromTweet(&tweets[i]))
	}
	return activities
}

func (c *twitterConnection) activityFromTweet(t *twitterTweet) *domain.Activity {
	if t.RetweetedStatus != nil {
		// A retweet decomposes into an ANNOUNCE wrapping the inner
		// note's own activity. The ANNOUNCE's position is the inner
		// note's oid, its date is the retweet's.
		inner := c.activityFromTweet(t.RetweetedStatus)
		a := domain.NewActivity(c.accountActor, domain.ActivityAnnounce)
		a.Actor = c.actorFromUser(t.User)
		a.Activity = inner
		a.UpdatedDate = parseTwitterDate(t.CreatedAt)
		return a
	}

	a := domain.NewActivity(c.accountActor, domain.ActivityUpdate)
	a.Oid = t.oid()
	a.Actor = c.actorFromUser(t.User)
	a.UpdatedDate = parseTwitterDate(t.CreatedAt)

	note := domain.NewNote(c.origin, t.oid())
	note.Status = domain.StatusLoaded
	note.Author = a.Actor
	note.UpdatedDate = a.UpdatedDate
	body := t.FullText
	if body == "" {
		body = t.Text
	}
	note.SetBody(body)
	note.Via = stripSourceTags(t.Source)
	if t.Favorited != nil {
		note.Favorited = domain.TriStateFromBool(*t.Favorited)
	}
	if t.InReplyToStatusIDStr != "" {
		parent := domain.NewPartialNote(c.accountActor, t.InReplyToStatusIDStr, 0, domain.StatusUnknown)
		if t.InReplyToUserIDStr != "" {
			parent.Actor = domain.ActorFromOid(c.origin, t.InReplyToUserIDStr)
		}
		note.InReplyTo = parent
	}
	if t.StatusnetConversationID > 0 {
		note.ConversationOid = strconv.FormatInt(t.StatusnetConversationID, 10)
	}
	for _, m := range t.Entities.Media {
		note.Attachments = append(note.Attachments, domain.Attachment{URI: m.MediaURL, ContentType: m.Type})
	}
	for _, m := range t.StatusnetAttachments {
		note.Attachments = append(note.Attachments, domain.Attachment{URI: m.URL, ContentType: m.Mimetype})
	}
	a.Note = note
	return a
}

func (c *twitterConnection) actorFromUser(u *twitterUser) domain.Actor {
	if u == nil {
		return domain.EmptyActor
	}
	actor := domain.ActorFromOid(c.origin, u.oid())
	actor.Username = u.ScreenName
	actor.RealName = u.Name
	actor.Description = u.Description
	actor.Location = u.Location
	actor.Homepage = u.URL
	actor.AvatarURL = u.ProfileImageURL
	actor.BannerURL = u.ProfileBannerURL
	actor.NotesCount = u.StatusesCount
	actor.FavoritesCount = u.FavouritesCount
	actor.FollowingCount = u.FriendsCount
	actor.FollowersCount = u.FollowersCount
	actor.CreatedDate = parseTwitterDate(u.CreatedAt)
	if u.Following != nil {
		actor.FollowedByMe = domain.TriStateFromBool(*u.Following)
	}
	actor.BuildWebFingerID()
	return actor
}

func (c *twitterConnection) GetNote(oid string) (*domain.Activity, error) {
	query := url.Values{}
	query.Set("id", oid)
	var tweet twitterTweet
	if err := c.http.getJSON(c.apiPrefix+"statuses/show.json", query, &tweet); err != nil {
		return nil, err
	}
	return c.activityFromTweet(&tweet), nil
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

func (c *twitterConnection) GetActor(oidOrName string) (domain.Actor, error) {
	query := url.Values{}
	if digitsOnly.MatchString(oidOrName) {
		query.Set("user_id", oidOrName)
	} else {
		query.Set("screen_name", oidOrName)
	}
	var user twitterUser
	if err := c.http.getJSON(c.apiPrefix+"users/show.json", query, &user); err != nil {
		return domain.EmptyActor, err
	}
	return c.actorFromUser(&user), nil
}

func (c *twitterConnection) GetFriends(actorOid string) ([]domain.Actor, error) {
	return c.actorList("friends/list.json", actorOid)
}

func (c *twitterConnection) GetFollowers(actorOid string) ([]domain.Actor, error) {
	return c.actorList("followers/list.json", actorOid)
}

func (c *twitterConnection) actorList(endpoint string, actorOid string) ([]domain.Actor, error) {
	query := url.Values{}
	query.Set("user_id", actorOid)
	query.Set("count", strconv.Itoa(origin.DownloadLimitMax))

	var result struct {
		Users []twitterUser `json:"users"`
	}
	if err := c.http.getJSON(c.apiPrefix+endpoint, query, &result); err != nil {
		return nil, err
	}
	actors := make([]domain.Actor, 0, len(result.Users))
	for i := range result.Users {
		actors = append(actors, c.actorFromUser(&result.Users[i]))
	}
	return actors, nil
}

func (c *twitterConnection) UpdateStatus(body string, mediaURI string, inReplyToOid string) (*domain.Activity, error) {
	form := url.Values{}
	form.Set("status", body)
	if inReplyToOid != "" {
		form.Set("in_reply_to_status_id", inReplyToOid)
	}
	if mediaURI != "" {
		form.Set("media", mediaURI)
	}
	var tweet twitterTweet
	if err := c.http.postForm(c.apiPrefix+"statuses/update.json", form, &tweet); err != nil {
		return nil, err
	}
	return c.activityFromTweet(&tweet), nil
}

func (c *twitterConnection) PostReblog(oid string) (*domain.Activity, error) {
	var tweet twitterTweet
	if err := c.http.postForm(c.apiPrefix+"statuses/retweet/"+oid+".json", url.Values{}, &tweet); err != nil {
		return nil, err
	}
	return c.activityFromTweet(&tweet), nil
}

func (c *twitterConnection) DestroyStatus(oid string) error {
	return c.http.postForm(c.apiPrefix+"statuses/destroy/"+oid+".json", url.Values{}, nil)
}

func (c *twitterConnection) FollowActor(oid string, follow bool) (*domain.Activity, error) {
	endpoint := "friendships/create.json"
	atype := domain.ActivityFollow
	if !follow {
		endpoint = "friendships/destroy.json"
		atype = domain.ActivityUndoFollow
	}
	form := url.Values{}
	form.Set("user_id", oid)
	var user twitterUser
	if err := c.http.postForm(c.apiPrefix+endpoint, form, &user); err != nil {
		return nil, err
	}
	target := c.actorFromUser(&user)
	target.FollowedByMe = domain.TriStateFromBool(follow)
	return target.Act(c.accountActor, c.accountActor, atype), nil
}

func (c *twitterConnection) CreateFavorite(oid string) (*domain.Activity, error) {
	return c.favorite("favorites/create.json", oid, domain.ActivityLike)
}

func (c *twitterConnection) DestroyFavorite(oid string) (*domain.Activity, error) {
	return c.favorite("favorites/destroy.json", oid, domain.ActivityUndoLike)
}

func (c *twitterConnection) favorite(endpoint string, oid string, atype domain.ActivityType) (*domain.Activity, error) {
	form := url.Values{}
	form.Set("id", oid)
	var tweet twitterTweet
	if err := c.http.postForm(c.apiPrefix+endpoint, form, &tweet); err != nil {
		return nil, err
	}
	a := domain.NewActivity(c.accountActor, atype)
	a.Actor = c.accountActor
	a.Note = c.activityFromTweet(&tweet).GetNote()
	a.UpdatedDate = time.Now().UnixMilli()
	return a, nil
}

// parseTwitterDate parses the legacy "Wed Aug 27 13:08:45 +0000 2008"
// format, returning 0 for anything unparseable.
func parseTwitterDate(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RubyDate, s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

var sourceTagRe = regexp.MustCompile(`<[^>]*>`)

// stripSourceTags reduces the "via" field, which arrives as an HTML
// anchor, to its plain text.
func stripSourceTags(source string) string {
	return sourceTagRe.ReplaceAllString(source, "")
}
