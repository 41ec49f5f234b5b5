package models

// MessageModel is a board post: free text, an optional file attachment, or
// both. Private messages are visible only to their owner or to readers
// presenting the matching private key.
type MessageModel struct {
	Base
	Content      string  `json:"content"        gorm:"type:text;not null"`
	IsPrivate    bool    `json:"is_private"     gorm:"index;default:false"`
	PrivateKey   *string `json:"-"              gorm:"size:191;index"`
	UserID       *uint   `json:"user_id"        gorm:"index"`
	HasFile      bool    `json:"has_file"       gorm:"default:false"`
	FileName     string  `json:"file_name"`
	FileMimeType string  `json:"file_mime_type"`
	FileSize     int64   `json:"file_size"`
}

func (MessageModel) TableName() string { return "messages" }
