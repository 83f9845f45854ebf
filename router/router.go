package router

import (
	"log"
	"photovote/auth"
	"photovote/config"
	"photovote/handlers"
	"photovote/realtime"
	"photovote/utils"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultSessionKey     = "change me: session cookie secret"
	sessionCookieName     = "token"
	sessionExpirationTime = 7 * 86400
	mediaCacheTime        = 30 * 86400
)

// NewSessionStore keeps admin sessions in the database
func NewSessionStore(db *gorm.DB) sessions.Store {
	key := config.SESSION_KEY
	if key == "" || key == defaultSessionKey {
		// Sessions won't survive a restart
		log.Println("SESSION_KEY is not configured, using a random one")
		key = utils.Rand16BytesToBase62()
	}
	store := gormsessions.NewStore(db, true, []byte(key))
	store.Options(sessions.Options{Path: "/", MaxAge: sessionExpirationTime, HttpOnly: true})
	return store
}

func New(h *handlers.Handlers, hub *realtime.Hub, sessionStore sessions.Store) *gin.Engine {
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	router.MaxMultipartMemory = 8 << 20
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", auth.VoterKeyHeader, auth.AdminKeyHeader, "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        30 * 24 * time.Hour,
	}))
	router.Use(sessions.Sessions(sessionCookieName, sessionStore))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/media/", "/ws"})))
	}
	noCache := (&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler()
	mediaCache := (&utils.CacheRouter{CacheTime: mediaCacheTime, Public: true}).Handler()

	api := router.Group("/", noCache)
	api.GET("/health", handlers.Health)
	// Voting
	api.GET("/voter/new", h.VoterNew)
	api.POST("/vote", h.Vote)
	api.GET("/votes/mine", h.MyVotes)
	// Photos
	api.GET("/photos", h.PhotoList)
	api.GET("/photos/top", h.PhotoTop)
	api.GET("/photos/counts", h.PhotoCounts)
	api.POST("/photos", h.PhotoUpload)
	api.GET("/settings", h.SettingsGet)
	// Admin
	api.POST("/admin/login", h.AdminLogin)
	api.POST("/admin/logout", h.AdminLogout)
	adminRouter := &auth.Router{Base: api}
	adminRouter.GET("/admin/settings", h.AdminSettingsGet)
	adminRouter.POST("/admin/settings", h.AdminSettingsPost)
	// Realtime
	api.GET("/ws", hub.WebSocket)

	// Stored objects never change, their names are unique
	router.GET("/media/*path", mediaCache, h.Media)

	return router
}
