package models

import (
	"time"
)

// 附件类型
const (
	AttachmentImage = "image"
	AttachmentText  = "text"
)

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserName  string    `gorm:"size:100;not null" json:"user_name"`
	Email     string    `gorm:"size:254;not null" json:"email"`
	HomePage  *string   `gorm:"size:200" json:"home_page"` // Optional
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	ParentID  *uint     `gorm:"column:parent_id;index" json:"parent"` // Nullable for top-level comments

	// 附件元数据，原样透传
	AttachmentURL         *string `gorm:"size:500" json:"attachment_url"`
	AttachmentName        string  `gorm:"size:255" json:"attachment_name"`
	AttachmentType        string  `gorm:"size:10" json:"attachment_type"` // image, text or empty
	AttachmentSize        int64   `gorm:"default:0" json:"attachment_size"`
	AttachmentWidth       int     `gorm:"default:0" json:"attachment_width"`
	AttachmentHeight      int     `gorm:"default:0" json:"attachment_height"`
	AttachmentTextPreview string  `gorm:"type:text" json:"attachment_text_preview"`
}

// Clone returns a copy that shares no pointers with c.
func (c Comment) Clone() Comment {
	out := c
	if c.HomePage != nil {
		v := *c.HomePage
		out.HomePage = &v
	}
	if c.ParentID != nil {
		v := *c.ParentID
		out.ParentID = &v
	}
	if c.AttachmentURL != nil {
		v := *c.AttachmentURL
		out.AttachmentURL = &v
	}
	return out
}

// CommentNode is a comment together with its direct replies.
type CommentNode struct {
	Comment
	Replies []*CommentNode `gorm:"-" json:"replies"`
}

type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByUserName  SortField = "user_name"
	SortByEmail     SortField = "email"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)
