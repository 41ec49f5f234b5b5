package responder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/goldierill/board/internal/config"
	"github.com/goldierill/board/internal/models"
)

const replyTimeout = 45 * time.Second

const systemPrompt = "You are %s, a friendly resident of a small message board. " +
	"Someone mentioned you in a comment. Reply briefly and helpfully in the " +
	"language of the comment. Plain text only, no markdown."

// Responder watches new comments for an @-mention of the bot and posts
// an AI-generated reply under the triggering comment.
type Responder struct {
	db  *gorm.DB
	cfg config.AIConfig
}

func New(db *gorm.DB, cfg config.AIConfig) *Responder {
	return &Responder{db: db, cfg: cfg}
}

// BotName returns the configured mention handle.
func (r *Responder) BotName() string {
	if r.cfg.BotName == "" {
		return "GoldieRill"
	}
	return r.cfg.BotName
}

// Mentioned reports whether text @-mentions the bot, case-insensitively.
func (r *Responder) Mentioned(text string) bool {
	return strings.Contains(strings.ToLower(text), "@"+strings.ToLower(r.BotName()))
}

// CommentPosted implements the comment module's Notifier. The reply is
// generated off the request path; a failure is logged, never surfaced
// to the commenter.
func (r *Responder) CommentPosted(c models.CommentModel) {
	if !r.cfg.Enable || c.Username == r.BotName() || !r.Mentioned(c.Text) {
		return
	}
	go r.reply(c)
}

func (r *Responder) reply(trigger models.CommentModel) {
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	var message models.MessageModel
	if err := r.db.First(&message, trigger.MessageID).Error; err != nil {
		zap.L().Warn("responder: message lookup failed",
			zap.Uint("message_id", trigger.MessageID), zap.Error(err))
		return
	}

	prompt := fmt.Sprintf("Original post:\n%s\n\nComment mentioning you (by %s):\n%s",
		message.Content, trigger.Username, trigger.Text)

	text, err := generate(ctx, r.cfg, fmt.Sprintf(systemPrompt, r.BotName()), prompt)
	if err != nil {
		zap.L().Warn("responder: generation failed",
			zap.Uint("comment_id", trigger.ID), zap.Error(err))
		return
	}

	parentID := trigger.ID
	row := models.CommentModel{
		MessageID: trigger.MessageID,
		ParentID:  &parentID,
		Username:  r.BotName(),
		Text:      text,
		Votes:     models.VoteLedger{},
		Editable:  false,
	}
	if err := r.db.Create(&row).Error; err != nil {
		zap.L().Error("responder: failed to store reply",
			zap.Uint("comment_id", trigger.ID), zap.Error(err))
		return
	}

	zap.L().Info("responder: replied",
		zap.Uint("trigger", trigger.ID),
		zap.Uint("reply", row.ID))
}
