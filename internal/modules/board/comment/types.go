package comment

import (
	"errors"
	"time"
)

// Sort keys accepted by the comment list endpoint.
const (
	SortTimeDesc  = "-time"
	SortTimeAsc   = "+time"
	SortScoreDesc = "-score"
	SortScoreAsc  = "+score"
)

type CreateRequest struct {
	MessageID uint   `json:"messageId"`
	Pid       *uint  `json:"pid"`
	Text      string `json:"text"`
}

type UpdateRequest struct {
	Text string `json:"text" binding:"required"`
}

type VoteRequest struct {
	Vote int `json:"vote"`
}

// AuthorInfo identifies a comment author. Verified is true for
// registered users; anonymous authors carry only their generated label.
type AuthorInfo struct {
	ID       *uint  `json:"id"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// CommentResponse is the wire shape of one comment. Replies nest to
// unbounded depth; Pid is always set for replies so flattened output
// keeps the back-reference.
type CommentResponse struct {
	ID        uint              `json:"id"`
	Pid       *uint             `json:"pid"`
	MessageID uint              `json:"message_id"`
	Text      string            `json:"text"`
	User      AuthorInfo        `json:"user"`
	Score     int               `json:"score"`
	Time      time.Time         `json:"time"`
	Deletable bool              `json:"deletable"`
	Editable  bool              `json:"editable"`
	Replies   []CommentResponse `json:"replies"`
}

// VoteResult reports the post-toggle state: Vote is 0 when the voter
// retracted their previous vote.
type VoteResult struct {
	Score int `json:"score"`
	Vote  int `json:"vote"`
}

var (
	errMissingMessageID = errors.New("messageId is required")
	errEmptyText        = errors.New("comment text must not be empty")
	errParentNotFound   = errors.New("parent comment not found")
	errParentMismatch   = errors.New("parent comment belongs to a different message")
	errCommentNotFound  = errors.New("comment not found")
	errNotEditable      = errors.New("comment is not editable")
	errNotOwner         = errors.New("only the author or an admin may modify this comment")
	errInvalidVote      = errors.New("vote must be 1 or -1")
	errInvalidSort      = errors.New("sort must be one of -time, +time, -score, +score")
)
