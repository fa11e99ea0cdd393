package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/deemkeen/fedisync/connection"
	"github.com/deemkeen/fedisync/data"
	"github.com/deemkeen/fedisync/db"
	"github.com/deemkeen/fedisync/domain"
	"github.com/deemkeen/fedisync/origin"
	syncer "github.com/deemkeen/fedisync/sync"
	"github.com/deemkeen/fedisync/util"
	"github.com/deemkeen/fedisync/web"
	"github.com/joho/godotenv"
)

type account struct {
	actor      domain.Actor
	conn       connection.Connection
	downloader *syncer.Downloader
}

func main() {

	godotenv.Load()

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println("Configuration: ")
	fmt.Println(util.PrettyPrint(conf))

	store, err := db.Open(util.ResolveFilePath(conf.Conf.DbFile))
	if err != nil {
		log.Fatalln(err)
	}
	defer store.Close()

	registry, err := buildRegistry(conf)
	if err != nil {
		log.Fatalln(err)
	}

	accounts, err := buildAccounts(conf, store, registry)
	if err != nil {
		log.Fatalln(err)
	}
	if len(accounts) == 0 {
		log.Println("No accounts configured, serving local data only")
	}

	startServing(conf, store, accounts)
}

func buildRegistry(conf *util.AppConfig) (*origin.Registry, error) {
	var origins []origin.Origin
	for _, oc := range conf.Origins {
		otype := origin.TypeFromName(oc.Type)
		if otype == origin.TypeUnknown {
			return nil, fmt.Errorf("origin %s: unknown type %q", oc.Name, oc.Type)
		}
		origins = append(origins, origin.Origin{
			ID:   oc.ID,
			Type: otype,
			Name: oc.Name,
			URL:  oc.URL,
		})
	}
	return origin.NewRegistry(origins...), nil
}

func buildAccounts(conf *util.AppConfig, store *db.DB, registry *origin.Registry) ([]account, error) {
	limits := syncer.DefaultLimits()
	if conf.Conf.LimitLatest > 0 {
		limits.Latest = conf.Conf.LimitLatest
	}
	if conf.Conf.LimitYounger > 0 {
		limits.Younger = conf.Conf.LimitYounger
	}
	if conf.Conf.LimitOlder > 0 {
		limits.Older = conf.Conf.LimitOlder
	}
	if conf.StaleAfter() > 0 {
		limits.StaleAfter = conf.StaleAfter()
	}
	keywords := data.NewKeywordsFilter(conf.Conf.KeywordsFilter)

	var accounts []account
	for _, ac := range conf.Accounts {
		o := registry.FromName(ac.Origin)
		if o.IsEmpty() {
			return nil, fmt.Errorf("account %s: no origin named %q", ac.Username, ac.Origin)
		}

		actor := domain.ActorFromOid(o, ac.Oid)
		actor.Username = ac.Username
		actor.BuildWebFingerID()

		err, actor := data.EnsureAccountActor(store, actor)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", ac.Username, err)
		}

		conn, err := connection.ForOrigin(o, actor, connection.Credentials{AccessToken: ac.AccessToken})
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", ac.Username, err)
		}

		accounts = append(accounts, account{
			actor:      actor,
			conn:       conn,
			downloader: syncer.NewDownloader(store, conn, actor, keywords, limits),
		})
	}
	return accounts, nil
}

func startServing(conf *util.AppConfig, store *db.DB, accounts []account) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	var stopping atomic.Bool
	for i := range accounts {
		accounts[i].downloader.Stopping = stopping.Load
	}

	go func() {
		if err := web.Router(conf, store); err != nil {
			log.Fatalln(err)
		}
	}()

	quit := make(chan struct{})
	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		runSyncLoop(conf, accounts, quit)
	}()

	<-done
	log.Println("Stopping sync loop")
	stopping.Store(true)
	close(quit)
	<-syncDone
	log.Println("Stopped")
}

// runSyncLoop syncs every account's home and notifications timelines
// on a fixed interval until quit closes.
func runSyncLoop(conf *util.AppConfig, accounts []account, quit chan struct{}) {
	ticker := time.NewTicker(conf.SyncInterval())
	defer ticker.Stop()

	syncAll(accounts)
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			syncAll(accounts)
		}
	}
}

func syncAll(accounts []account) {
	for _, a := range accounts {
		for _, ttype := range []domain.TimelineType{domain.TimelineHome, domain.TimelineNotifications} {
			result := a.downloader.Sync(syncer.Request{
				TimelineType: ttype,
				Direction:    syncer.DirectionYounger,
			})
			if result.Ok() {
				log.Printf("Sync %s %s: %d downloaded, %d new activities",
					a.actor.NamePreferablyWebFinger(), result.Timeline.Type,
					result.Downloaded, result.Counters.NewActivities)
			} else {
				log.Printf("Sync %s %s failed (hard=%v): %v",
					a.actor.NamePreferablyWebFinger(), result.Timeline.Type,
					result.Hard, result.Err)
			}
		}
	}
}
