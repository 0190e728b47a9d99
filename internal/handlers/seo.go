package handlers

import (
	"fmt"
	"html"
	"net/http"
	"slices"
	"strings"
	"time"

	"commentfeed/internal/models"
	"commentfeed/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const rssItems = 20

type SEOHandler struct {
	feed    *services.FeedService
	siteURL string
	log     *zap.Logger
}

func NewSEOHandler(feed *services.FeedService, siteURL string, log *zap.Logger) *SEOHandler {
	return &SEOHandler{feed: feed, siteURL: strings.TrimRight(siteURL, "/"), log: log}
}

// RobotsTxt 返回robots.txt内容
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

# 禁止爬取API端点
Disallow: /api/
Disallow: /ws

Sitemap: %s/feed.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// RSSFeed 生成最新评论的 RSS 2.0 feed
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	records, err := h.feed.Records(c.Request.Context())
	if err != nil {
		h.log.Error("load records for rss", zap.Error(err))
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	// 最新的在前，不修改缓存里的切片
	latest := slices.Clone(records)
	slices.SortStableFunc(latest, func(a, b models.Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(latest) > rssItems {
		latest = latest[:rssItems]
	}

	// 构建RSS XML
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>Comments</title>
    <link>` + h.siteURL + `/</link>
    <description>Latest comments</description>
    <lastBuildDate>` + time.Now().Format(time.RFC1123Z) + `</lastBuildDate>
    <atom:link href="` + h.siteURL + `/feed.xml" rel="self" type="application/rss+xml"/>
`

	for _, comment := range latest {
		node := h.feed.Render(comment)
		link := fmt.Sprintf("%s/#comment-%d", h.siteURL, comment.ID)

		title := node.DisplayName
		if node.Excerpt != "" {
			title += ": " + node.Excerpt
		}

		// 清洗后的 HTML 中 > 已被转义，不会提前结束 CDATA
		rss += `    <item>
      <title>` + escapeXML(title) + `</title>
      <link>` + link + `</link>
      <description><![CDATA[` + string(node.HTML) + `]]></description>
      <pubDate>` + comment.CreatedAt.Format(time.RFC1123Z) + `</pubDate>
      <guid isPermaLink="true">` + link + `</guid>
    </item>
`
	}

	// 结束RSS
	rss += `  </channel>
</rss>`

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, rss)
}

// escapeXML 转义XML特殊字符
func escapeXML(s string) string {
	return html.EscapeString(s)
}
