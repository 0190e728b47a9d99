package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"commentfeed/internal/config"
	"commentfeed/internal/db"
	"commentfeed/internal/logger"
	"commentfeed/internal/middleware"
	"commentfeed/internal/models"
	"commentfeed/internal/router"
	"commentfeed/internal/sanitizer"
	"commentfeed/internal/services"
	"commentfeed/internal/utils"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	// Initialize Database
	conn, err := db.Init(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(conn)

	repo := services.NewGormCommentRepository(conn)
	feed, err := services.NewFeedService(repo, sanitizer.New(), services.FeedConfig{
		CacheSize:    cfg.FeedCacheSize,
		CacheTTL:     cfg.FeedCacheTTL,
		DefaultSort:  models.SortField(cfg.DefaultSort),
		DefaultOrder: models.SortDirection(cfg.DefaultOrder),
	}, log)
	if err != nil {
		log.Fatal("failed to initialize feed", zap.Error(err))
	}

	hub := services.NewHub(log)
	broadcaster := services.NewBroadcaster(repo, feed, hub, log)
	comments := services.NewCommentService(repo, feed, broadcaster, log)

	// 后台推送 worker
	ctx, stop := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		broadcaster.Run(ctx)
	}()

	// Initialize Gin
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), gin.Recovery())

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("commentfeed_session", store))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	r.HTMLRender = loadTemplates(cfg.TemplatesDir)

	// Static Assets
	r.Static("/static", cfg.StaticDir)
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("create upload dir", zap.String("dir", cfg.UploadDir), zap.Error(err))
	}
	if cfg.AdminToken == "" {
		log.Info("ADMIN_TOKEN not set, edit/delete api disabled")
	}

	router.RegisterRoutes(r, router.Deps{
		Feed:       feed,
		Comments:   comments,
		Captcha:    services.NewCaptchaService(),
		Hub:        hub,
		SiteURL:    cfg.SiteURL,
		UploadDir:  cfg.UploadDir,
		AdminToken: cfg.AdminToken,
		Log:        log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stop()
	<-workerDone
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo":   timeAgo,
		"stripHTML": utils.StripTags,
	}
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	seconds := int(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d秒前", max(seconds, 0))
	case seconds < 3600:
		return fmt.Sprintf("%d分钟前", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d小时前", seconds/3600)
	case seconds < 2592000:
		return fmt.Sprintf("%d天前", seconds/86400)
	case seconds < 31536000:
		return fmt.Sprintf("%d个月前", seconds/2592000)
	}
	return fmt.Sprintf("%d年前", seconds/31536000)
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	components, err := filepath.Glob(templatesDir + "/components/*.html")
	if err != nil {
		panic(err)
	}

	// Helper to assemble files: layout first so it is the executed template
	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(components)+1)
		files = append(files, layouts...)
		files = append(files, components...)
		files = append(files, view)
		return files
	}

	funcMap := templateFuncs()

	// Manual registration to ensure keys match handler expectation
	r.AddFromFilesFuncs("feed.html", funcMap, assemble(templatesDir+"/views/feed.html")...)
	r.AddFromFilesFuncs("error.html", funcMap, assemble(templatesDir+"/views/error.html")...)

	return r
}
