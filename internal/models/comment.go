package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VoteLedger maps a voter identity ("user_<id>" or "anonymous_<ip>") to a
// signed unit vote. It is stored as an opaque JSON blob on the comment row;
// a blob that fails to parse is treated as an empty ledger rather than a
// fatal error, so a corrupted row stays votable.
type VoteLedger map[string]int

// Scan implements sql.Scanner.
func (v *VoteLedger) Scan(value interface{}) error {
	if value == nil {
		*v = VoteLedger{}
		return nil
	}

	var raw []byte
	switch data := value.(type) {
	case []byte:
		raw = data
	case string:
		raw = []byte(data)
	default:
		return fmt.Errorf("unsupported vote ledger column type %T", value)
	}

	if len(raw) == 0 {
		*v = VoteLedger{}
		return nil
	}

	out := VoteLedger{}
	if err := json.Unmarshal(raw, &out); err != nil {
		zap.L().Warn("malformed vote ledger, treating as empty",
			zap.Error(err),
			zap.ByteString("raw", raw))
		*v = VoteLedger{}
		return nil
	}
	*v = out
	return nil
}

// Value implements driver.Valuer.
func (v VoteLedger) Value() (driver.Value, error) {
	if v == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Sum returns the signed total of all ledger entries. The stored score must
// always equal this value; it is recomputed only in tests and diagnostics,
// never on the vote hot path.
func (v VoteLedger) Sum() int {
	total := 0
	for _, d := range v {
		total += d
	}
	return total
}

// CommentModel is a comment on a message. ParentID nil means top-level;
// otherwise it references another comment on the same message, to unbounded
// depth. Soft delete keeps the row so surviving children's parent references
// stay valid.
type CommentModel struct {
	Base
	MessageID uint           `json:"message_id" gorm:"not null;index"`
	ParentID  *uint          `json:"pid"        gorm:"index"`
	UserID    *uint          `json:"user_id"    gorm:"index"`
	Username  string         `json:"username"   gorm:"not null"`
	Text      string         `json:"text"       gorm:"type:text;not null"`
	Score     int            `json:"score"      gorm:"default:0"`
	Votes     VoteLedger     `json:"-"          gorm:"type:longtext"`
	Editable  bool           `json:"editable"   gorm:"default:true"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Children is populated by the tree assembler, not by GORM.
	Children []CommentModel `json:"replies,omitempty" gorm:"-"`
}

func (CommentModel) TableName() string { return "comments" }
