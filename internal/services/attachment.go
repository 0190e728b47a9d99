package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"commentfeed/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxImageSize      = 5 * 1024 * 1024
	MaxTextSize       = 100 * 1024
	textSnippetBytes  = 4096
	textPreviewLength = 400
	maxAttachmentName = 255
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// Attachment 附件元数据，文件内容本身不落盘
type Attachment struct {
	Name        string
	Type        string
	Size        int64
	Width       int
	Height      int
	TextPreview string
	// Ext 按内容识别，保存文件时使用，不信任原文件名
	Ext string
	// URL 是保存后的公开地址，未保存时为空
	URL string
}

// InspectAttachment 校验上传文件并提取元数据
// 参数: header - multipart 文件头
// 返回: Attachment, error
func InspectAttachment(header *multipart.FileHeader) (*Attachment, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("打开附件失败: %w", err)
	}
	defer file.Close()

	return inspect(file, filepath.Base(header.Filename), header.Size)
}

func inspect(r io.Reader, name string, size int64) (*Attachment, error) {
	// 只读取限定大小的内容，超出部分说明文件过大
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("读取附件失败: %w", err)
	}
	if size <= 0 || int64(len(data)) > size {
		size = int64(len(data))
	}

	detected := mimetype.Detect(data)
	mtype := strings.ToLower(detected.String())
	if i := strings.Index(mtype, ";"); i >= 0 {
		mtype = strings.TrimSpace(mtype[:i])
	}

	att := &Attachment{Name: truncateRunes(name, maxAttachmentName), Size: size, Ext: detected.Extension()}

	switch {
	case allowedImageTypes[mtype]:
		if size > MaxImageSize {
			return nil, fmt.Errorf("%w: image larger than 5 MB", ErrAttachmentInvalid)
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: cannot decode image", ErrAttachmentInvalid)
		}
		att.Type = models.AttachmentImage
		att.Width, att.Height = cfg.Width, cfg.Height
	case mtype == "text/plain":
		if size > MaxTextSize {
			return nil, fmt.Errorf("%w: text file larger than 100 KB", ErrAttachmentInvalid)
		}
		snippet := data
		if len(snippet) > textSnippetBytes {
			snippet = snippet[:textSnippetBytes]
		}
		att.Type = models.AttachmentText
		att.TextPreview = truncateRunes(strings.ToValidUTF8(string(snippet), ""), textPreviewLength)
	default:
		return nil, fmt.Errorf("%w: only PNG, JPG, GIF or TXT allowed", ErrAttachmentInvalid)
	}
	return att, nil
}

// apply 把附件元数据写入评论
func (a *Attachment) apply(c *models.Comment) {
	if a == nil {
		return
	}
	c.AttachmentName = a.Name
	c.AttachmentType = a.Type
	c.AttachmentSize = a.Size
	c.AttachmentWidth = a.Width
	c.AttachmentHeight = a.Height
	c.AttachmentTextPreview = a.TextPreview
	if a.URL != "" {
		url := a.URL
		c.AttachmentURL = &url
	}
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
