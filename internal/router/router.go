package router

import (
	"commentfeed/internal/handlers"
	"commentfeed/internal/middleware"
	"commentfeed/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps 路由需要的服务
type Deps struct {
	Feed       *services.FeedService
	Comments   *services.CommentService
	Captcha    *services.CaptchaService
	Hub        *services.Hub
	SiteURL    string
	UploadDir  string // 附件目录，对外挂在 /uploads
	AdminToken string // 为空时关闭管理接口
	Log        *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	feedHandler := handlers.NewFeedHandler(d.Feed, d.Comments, d.Log)
	commentHandler := handlers.NewCommentHandler(d.Comments, d.Captcha, d.UploadDir, d.Log)
	captchaHandler := handlers.NewCaptchaHandler(d.Captcha, d.Log)
	liveHandler := handlers.NewLiveHandler(d.Hub, d.Log)
	seoHandler := handlers.NewSEOHandler(d.Feed, d.SiteURL, d.Log)

	// 页面 (Pages)
	r.GET("/", feedHandler.Page)    // 评论页
	r.GET("/ping", handlers.Ping)   // 健康检查
	r.GET("/ws", liveHandler.Serve) // 实时更新
	r.Static(handlers.UploadsURL, d.UploadDir)

	// SEO
	r.GET("/robots.txt", seoHandler.RobotsTxt) // robots.txt
	r.GET("/feed.xml", seoHandler.RSSFeed)     // 最新评论 RSS

	// API
	api := r.Group("/api")
	{
		api.GET("/comments", feedHandler.List)       // 扁平记录
		api.GET("/comments/tree", feedHandler.Tree)  // 排序后的评论树
		api.GET("/comments/:id", feedHandler.Get)    // 单条评论
		api.POST("/comments", commentHandler.Create) // 发表评论
		api.GET("/captcha", captchaHandler.New)      // 获取验证码
	}

	// 管理接口，需要 ADMIN_TOKEN
	admin := api.Group("/comments", middleware.AdminRequired(d.AdminToken))
	{
		admin.PATCH("/:id", commentHandler.Update)  // 编辑评论
		admin.DELETE("/:id", commentHandler.Delete) // 删除评论及回复
	}
}
