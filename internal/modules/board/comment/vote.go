package comment

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/goldierill/board/internal/models"
)

// toggle mutates the ledger per the vote rules and returns the score
// delta plus the voter's effective vote after the call:
//
//	no prior entry      -> record it,   delta = direction, effective = direction
//	same prior entry    -> retract it,  delta = -direction, effective = 0
//	opposite prior entry -> flip it,    delta = 2*direction, effective = direction
func toggle(ledger models.VoteLedger, voter string, direction int) (delta, effective int) {
	prev, ok := ledger[voter]
	switch {
	case !ok:
		ledger[voter] = direction
		return direction, direction
	case prev == direction:
		delete(ledger, voter)
		return -direction, 0
	default:
		ledger[voter] = direction
		return 2 * direction, direction
	}
}

// ApplyVote toggles one voter's vote on a comment. The row is locked
// FOR UPDATE for the read-modify-write, and score and ledger land in a
// single UPDATE so no reader ever sees them disagree. The score moves
// by the toggle delta only; it is never recomputed from the ledger.
func (s *Service) ApplyVote(commentID uint, voter string, direction int) (*VoteResult, error) {
	if direction != 1 && direction != -1 {
		return nil, errInvalidVote
	}

	var result VoteResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row models.CommentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errCommentNotFound
			}
			return err
		}

		ledger := row.Votes
		if ledger == nil {
			ledger = models.VoteLedger{}
		}

		delta, effective := toggle(ledger, voter, direction)
		newScore := row.Score + delta

		if err := tx.Model(&row).Updates(map[string]interface{}{
			"score": newScore,
			"votes": ledger,
		}).Error; err != nil {
			return err
		}

		result = VoteResult{Score: newScore, Vote: effective}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
