package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"commentfeed/internal/services"
	"commentfeed/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	captchaSessionKey = "captcha"
	attachmentField   = "file"
	// multipart 请求体上限：最大附件 + 正文
	maxRequestBody = services.MaxImageSize + services.MaxTextBytes + 64*1024
	// UploadsURL 是附件的公开路径前缀
	UploadsURL = "/uploads"
)

type CommentHandler struct {
	comments  *services.CommentService
	captcha   *services.CaptchaService
	uploadDir string
	log       *zap.Logger
}

func NewCommentHandler(comments *services.CommentService, captcha *services.CaptchaService, uploadDir string, log *zap.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, captcha: captcha, uploadDir: uploadDir, log: log}
}

// Create 发表评论，支持 JSON 和 multipart/form-data（可带附件）
func (h *CommentHandler) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)

	var in services.CreateCommentInput
	if err := c.ShouldBind(&in); err != nil {
		abortJSON(c, h.log, fmt.Errorf("%w: %v", services.ErrInvalidInput, err))
		return
	}

	// 验证码一次有效，无论结果如何都清除
	session := sessions.Default(c)
	expected, _ := session.Get(captchaSessionKey).(string)
	session.Delete(captchaSessionKey)
	if err := session.Save(); err != nil {
		h.log.Warn("save session", zap.Error(err))
	}
	if !h.captcha.Verify(expected, in.Captcha) {
		abortJSON(c, h.log, services.ErrCaptchaMismatch)
		return
	}

	var att *services.Attachment
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile(attachmentField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			abortJSON(c, h.log, fmt.Errorf("%w: %v", services.ErrInvalidInput, err))
			return
		default:
			if att, err = services.InspectAttachment(header); err != nil {
				if !errors.Is(err, services.ErrAttachmentInvalid) {
					err = fmt.Errorf("%w: %v", services.ErrAttachmentInvalid, err)
				}
				abortJSON(c, h.log, err)
				return
			}
			if err := h.saveAttachment(c, header, att); err != nil {
				abortJSON(c, h.log, err)
				return
			}
		}
	}

	comment, err := h.comments.Create(c.Request.Context(), in, att)
	if err != nil {
		h.discardAttachment(att)
		abortJSON(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// saveAttachment 用随机文件名保存附件，扩展名取自内容识别结果
func (h *CommentHandler) saveAttachment(c *gin.Context, header *multipart.FileHeader, att *services.Attachment) error {
	name := uuid.NewString() + att.Ext
	if err := c.SaveUploadedFile(header, filepath.Join(h.uploadDir, name)); err != nil {
		return fmt.Errorf("save attachment: %w", err)
	}
	att.URL = path.Join(UploadsURL, name)
	return nil
}

func (h *CommentHandler) discardAttachment(att *services.Attachment) {
	if att == nil || att.URL == "" {
		return
	}
	file := filepath.Join(h.uploadDir, path.Base(att.URL))
	if err := os.Remove(file); err != nil {
		h.log.Warn("remove orphan attachment", zap.String("file", file), zap.Error(err))
	}
}

// Update 修改评论 (PATCH /api/comments/:id)
func (h *CommentHandler) Update(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxTextBytes+64*1024)
	var in services.UpdateCommentInput
	if err := c.ShouldBind(&in); err != nil {
		abortJSON(c, h.log, fmt.Errorf("%w: %v", services.ErrInvalidInput, err))
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), utils.ParseID(c.Param("id")), in)
	if err != nil {
		abortJSON(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete 删除评论和它的全部回复 (DELETE /api/comments/:id)
func (h *CommentHandler) Delete(c *gin.Context) {
	ids, err := h.comments.Delete(c.Request.Context(), utils.ParseID(c.Param("id")))
	if err != nil {
		abortJSON(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": ids})
}
