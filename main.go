package main

import (
	"context"
	"log"
	"photovote/auth"
	"photovote/config"
	"photovote/db"
	"photovote/handlers"
	"photovote/models"
	"photovote/photos"
	"photovote/processing"
	"photovote/realtime"
	"photovote/router"
	"photovote/settings"
	"photovote/storage"
	"photovote/voting"
	"strings"
	"time"

	"github.com/gin-gonic/autotls"
)

func main() {
	db.Init(config.MYSQL_DSN, config.SQLITE_FILE)
	if err := models.Init(db.Instance); err != nil {
		log.Fatalf("Auto-migrate error: %v", err)
	}
	storage.Init()
	store := storage.GetDefaultStorage()

	ctx := context.Background()
	hub := realtime.NewHub()
	gate := settings.NewStore(db.Instance, hub)
	if err := gate.Init(ctx, config.DEFAULT_UPLOADING_OPEN, config.DEFAULT_VOTING_OPEN); err != nil {
		log.Fatalf("Settings init error: %v", err)
	}
	if config.ADMIN_KEY == "" {
		log.Println("ADMIN_KEY is not configured, admin end-points are disabled")
	}

	processor := processing.NewProcessor(db.Instance, store, hub, uint(config.THUMB_SIZE))
	go processor.Start(ctx, time.Duration(config.PROCESSING_INTERVAL_SEC)*time.Second)

	view := voting.NewView(db.Instance)
	h := &handlers.Handlers{
		Votes:    voting.NewService(db.Instance, gate, hub),
		View:     view,
		Settings: gate,
		Photos:   photos.NewService(db.Instance, gate, store, hub, int64(config.MAX_UPLOAD_MB)<<20),
		Gallery:  photos.NewGallery(view, store),
		Storage:  store,
		Identity: auth.ClientKey{},
	}
	r := router.New(h, hub, router.NewSessionStore(db.Instance))

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(r, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = r.Run(config.BIND_ADDRESS)
	}
	log.Fatalf("Server stopped: %v", err)
}
