package web

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/deemkeen/fedisync/db"
	"github.com/deemkeen/fedisync/util"
	"github.com/gorilla/feeds"
)

// GetRSS renders the locally synced timeline as an RSS feed.
func GetRSS(conf *util.AppConfig, store *db.DB, limit int) (string, error) {

	err, items := store.ReadFeedItems(limit)
	if err != nil || items == nil {
		log.Println("Could not get feed items!", err)
		return "", errors.New("error retrieving feed items")
	}

	link := fmt.Sprintf("http://%s:%d/feed", conf.Conf.Host, conf.Conf.HttpPort)

	feed := &feeds.Feed{
		Title:       "Fedisync Timeline",
		Link:        &feeds.Link{Href: link},
		Description: "notes synced from federated origins",
		Author:      &feeds.Author{Name: util.Name},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, item := range *items {
		created := util.MillisToTime(item.UpdatedDate)
		href := item.URL
		if href == "" {
			href = fmt.Sprintf("%s/%d", link, item.NoteID)
		}
		feedItems = append(feedItems,
			&feeds.Item{
				Id:      item.Oid,
				Title:   created.Format(util.DateTimeFormat()),
				Link:    &feeds.Link{Href: href},
				Content: item.Body,
				Author:  &feeds.Author{Name: item.AuthorName},
				Created: created,
			})
	}

	feed.Items = feedItems
	return feed.ToRss()
}
