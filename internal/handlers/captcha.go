package handlers

import (
	"net/http"

	"commentfeed/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CaptchaHandler struct {
	captcha *services.CaptchaService
	log     *zap.Logger
}

func NewCaptchaHandler(captcha *services.CaptchaService, log *zap.Logger) *CaptchaHandler {
	return &CaptchaHandler{captcha: captcha, log: log}
}

// New 生成验证码并存入 session，覆盖之前的验证码
func (h *CaptchaHandler) New(c *gin.Context) {
	code := h.captcha.Generate(services.DefaultCaptchaLength)

	session := sessions.Default(c)
	session.Set(captchaSessionKey, code)
	if err := session.Save(); err != nil {
		h.log.Error("save captcha session", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": http.StatusText(http.StatusInternalServerError)})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"captcha": code})
}
