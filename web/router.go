package web

import (
	"fmt"
	"log"
	"strconv"

	"github.com/deemkeen/fedisync/conversation"
	"github.com/deemkeen/fedisync/db"
	"github.com/deemkeen/fedisync/util"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"golang.org/x/time/rate"
)

const feedItemLimit = 50

func Router(conf *util.AppConfig, store *db.DB) error {
	log.Printf("Starting feed server on %s:%d", conf.Conf.Host, conf.Conf.HttpPort)
	g := engine(conf, store)

	err := g.Run(fmt.Sprintf(":%d", conf.Conf.HttpPort))
	if err != nil {
		return err
	}
	return nil
}

func engine(conf *util.AppConfig, store *db.DB) *gin.Engine {
	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	// RSS rendering of everything synced so far
	g.GET("/feed", func(c *gin.Context) {

		c.Header("Content-Type", "application/xml; charset=utf-8")

		rss, err := GetRSS(conf, store, feedItemLimit)
		if err != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rss})
		}
	})

	g.GET("/api/status", func(c *gin.Context) {
		err, activities, notes, actors := store.Counts()
		if err != nil {
			c.JSON(500, gin.H{"error": "could not read counts"})
			return
		}
		c.JSON(200, gin.H{
			"version":    util.GetNameAndVersion(),
			"activities": activities,
			"notes":      notes,
			"actors":     actors,
		})
	})

	// The reconstructed reply tree around one locally stored note.
	// Serves from the local store only, no origin fetches.
	g.GET("/api/conversation/:id", func(c *gin.Context) {
		noteID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || noteID <= 0 {
			c.JSON(404, gin.H{"error": "Invalid note ID"})
			return
		}

		loader := conversation.NewLoader(store, nil, nil)
		err, items := loader.Load(noteID)
		if err != nil || len(items) == 0 {
			c.JSON(404, gin.H{"error": "Conversation not found"})
			return
		}

		type conversationEntry struct {
			NoteID       int64  `json:"noteId"`
			Oid          string `json:"oid"`
			Body         string `json:"body"`
			UpdatedDate  int64  `json:"updatedDate"`
			ReplyLevel   int    `json:"replyLevel"`
			HistoryOrder int    `json:"historyOrder"`
			IndentLevel  int    `json:"indentLevel"`
		}
		entries := make([]conversationEntry, 0, len(items))
		for _, item := range items {
			entries = append(entries, conversationEntry{
				NoteID:       item.NoteID,
				Oid:          item.Oid,
				Body:         item.Body,
				UpdatedDate:  item.UpdatedDate,
				ReplyLevel:   item.ReplyLevel,
				HistoryOrder: item.HistoryOrder,
				IndentLevel:  item.IndentLevel,
			})
		}
		c.JSON(200, entries)
	})

	return g
}
