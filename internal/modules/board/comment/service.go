package comment

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goldierill/board/internal/models"
	"github.com/goldierill/board/internal/pkg/pagination"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func sortClause(sort string) (string, error) {
	switch sort {
	case "", SortTimeDesc:
		return "created_at DESC, id DESC", nil
	case SortTimeAsc:
		return "created_at ASC, id ASC", nil
	case SortScoreDesc:
		return "score DESC, created_at ASC, id ASC", nil
	case SortScoreAsc:
		return "score ASC, created_at ASC, id ASC", nil
	default:
		return "", errInvalidSort
	}
}

// FetchTree returns one page of a message's top-level comments with all
// descendants attached. Replies are pulled level by level with a batched
// parent-id query; the loop ends when a level comes back empty, so the
// depth bound is the data's actual nesting, not a constant. A seen-set
// keeps a malformed parent chain from looping forever. Any query error
// aborts the whole call; a partial tree is never returned.
func (s *Service) FetchTree(messageID uint, sort string, pq pagination.Query) ([]models.CommentModel, pagination.Pagination, error) {
	if messageID == 0 {
		return nil, pagination.Pagination{}, errMissingMessageID
	}
	order, err := sortClause(sort)
	if err != nil {
		return nil, pagination.Pagination{}, err
	}

	q := s.db.Model(&models.CommentModel{}).
		Where("message_id = ? AND parent_id IS NULL", messageID).
		Order(order)

	var topRows []models.CommentModel
	page, err := pagination.Paginate(q, pq, &topRows)
	if err != nil {
		return nil, pagination.Pagination{}, err
	}
	if len(topRows) == 0 {
		return []models.CommentModel{}, page, nil
	}

	// Arena of every fetched row, by level. Attachment happens after all
	// levels are in, deepest first, so value-copied children already carry
	// their own subtrees.
	top := make([]*models.CommentModel, len(topRows))
	byID := make(map[uint]*models.CommentModel, len(topRows))
	seen := make(map[uint]bool, len(topRows))
	frontier := make([]uint, 0, len(topRows))

	for i := range topRows {
		node := &topRows[i]
		top[i] = node
		byID[node.ID] = node
		seen[node.ID] = true
		frontier = append(frontier, node.ID)
	}

	levels := [][]*models.CommentModel{top}
	for len(frontier) > 0 {
		var rows []models.CommentModel
		if err := s.db.
			Where("parent_id IN ?", frontier).
			Order("created_at ASC, id ASC").
			Find(&rows).Error; err != nil {
			return nil, pagination.Pagination{}, err
		}

		level := make([]*models.CommentModel, 0, len(rows))
		next := make([]uint, 0, len(rows))
		for i := range rows {
			node := &rows[i]
			if seen[node.ID] {
				continue
			}
			seen[node.ID] = true
			byID[node.ID] = node
			level = append(level, node)
			next = append(next, node.ID)
		}
		if len(level) == 0 {
			break
		}
		levels = append(levels, level)
		frontier = next
	}

	for l := len(levels) - 1; l >= 1; l-- {
		for _, node := range levels[l] {
			parent := byID[*node.ParentID]
			parent.Children = append(parent.Children, *node)
		}
	}

	out := make([]models.CommentModel, len(top))
	for i, node := range top {
		out[i] = *node
	}
	return out, page, nil
}

// Create posts a comment. Anonymous authors get a generated label; a
// parent, when given, must exist (non-deleted) on the same message.
func (s *Service) Create(req CreateRequest, authorID *uint, authorName string) (*models.CommentModel, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.MessageID == 0 {
		return nil, errMissingMessageID
	}
	if req.Text == "" {
		return nil, errEmptyText
	}

	var messageCount int64
	if err := s.db.Model(&models.MessageModel{}).
		Where("id = ?", req.MessageID).
		Count(&messageCount).Error; err != nil {
		return nil, err
	}
	if messageCount == 0 {
		return nil, errMissingMessageID
	}

	if req.Pid != nil {
		var parent models.CommentModel
		if err := s.db.First(&parent, *req.Pid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errParentNotFound
			}
			return nil, err
		}
		if parent.MessageID != req.MessageID {
			return nil, errParentMismatch
		}
	}

	if authorID == nil {
		authorName = anonymousName()
	}

	row := models.CommentModel{
		MessageID: req.MessageID,
		ParentID:  req.Pid,
		UserID:    authorID,
		Username:  authorName,
		Text:      req.Text,
		Votes:     models.VoteLedger{},
		Editable:  true,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Update edits the text of an editable comment owned by the caller
// (admins bypass ownership; nobody bypasses the editability flag).
func (s *Service) Update(id uint, req UpdateRequest, viewerID *uint, isAdmin bool) (*models.CommentModel, error) {
	row, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !canModify(row, viewerID, isAdmin) {
		return nil, errNotOwner
	}
	if !row.Editable {
		return nil, errNotEditable
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errEmptyText
	}

	if err := s.db.Model(row).Update("text", text).Error; err != nil {
		return nil, err
	}
	row.Text = text
	return row, nil
}

// Delete soft-deletes a comment. The row survives so replies keep a
// valid parent reference.
func (s *Service) Delete(id uint, viewerID *uint, isAdmin bool) error {
	row, err := s.load(id)
	if err != nil {
		return err
	}
	if !canModify(row, viewerID, isAdmin) {
		return errNotOwner
	}
	return s.db.Delete(row).Error
}

func (s *Service) load(id uint) (*models.CommentModel, error) {
	var row models.CommentModel
	if err := s.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCommentNotFound
		}
		return nil, err
	}
	return &row, nil
}

func canModify(row *models.CommentModel, viewerID *uint, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	return viewerID != nil && row.UserID != nil && *viewerID == *row.UserID
}

func anonymousName() string {
	return "anonymous_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ToResponse converts a model subtree to the wire shape, computing the
// viewer's deletable flag at every depth.
func (s *Service) ToResponse(row *models.CommentModel, viewerID *uint, isAdmin bool) CommentResponse {
	author := AuthorInfo{Name: row.Username}
	if row.UserID != nil {
		author.ID = row.UserID
		author.Verified = true
	}

	resp := CommentResponse{
		ID:        row.ID,
		Pid:       row.ParentID,
		MessageID: row.MessageID,
		Text:      row.Text,
		User:      author,
		Score:     row.Score,
		Time:      row.CreatedAt,
		Deletable: canModify(row, viewerID, isAdmin),
		Editable:  row.Editable,
		Replies:   []CommentResponse{},
	}
	for i := range row.Children {
		resp.Replies = append(resp.Replies, s.ToResponse(&row.Children[i], viewerID, isAdmin))
	}
	return resp
}
