package message

import (
	"errors"
	"time"
)

const (
	FeedLatest   = "latest"
	FeedTrending = "trending"
	FeedPrivate  = "private"
	FeedMine     = "mine"
)

type CreateRequest struct {
	Content    string `json:"content"`
	IsPrivate  bool   `json:"is_private"`
	PrivateKey string `json:"private_key"`
	FileName   string `json:"file_name"`
}

type UpdateRequest struct {
	Content string `json:"content" binding:"required"`
}

// AuthorInfo mirrors the comment author shape so clients render both
// the same way.
type AuthorInfo struct {
	ID       *uint  `json:"id"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

type MessageResponse struct {
	ID           uint       `json:"id"`
	Content      string     `json:"content"`
	IsPrivate    bool       `json:"is_private"`
	User         AuthorInfo `json:"user"`
	Time         time.Time  `json:"time"`
	CommentCount int64      `json:"comment_count"`
	Deletable    bool       `json:"deletable"`
	HasFile      bool       `json:"has_file"`
	FileName     string     `json:"file_name,omitempty"`
	FileMimeType string     `json:"file_mime_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
}

var (
	errMessageNotFound    = errors.New("message not found")
	errEmptyContent       = errors.New("message needs text or a file")
	errFileMissing        = errors.New("referenced upload does not exist")
	errPrivateKeyRequired = errors.New("private messages require a private key")
	errNotOwner           = errors.New("only the owner or an admin may modify this message")
)
