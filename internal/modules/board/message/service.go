package message

import (
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/goldierill/board/internal/models"
	"github.com/goldierill/board/internal/pkg/pagination"
)

const trendingWindow = 7 * 24 * time.Hour

type Service struct {
	db         *gorm.DB
	uploadsDir string
}

func NewService(db *gorm.DB, uploadsDir string) *Service {
	return &Service{db: db, uploadsDir: uploadsDir}
}

// FeedQuery narrows the message list. PrivateKey gates the private feed,
// ViewerID gates "mine" and decides deletability.
type FeedQuery struct {
	Feed       string
	Search     string
	PrivateKey string
	ViewerID   *uint
	IsAdmin    bool
}

// Feed returns one page of the requested feed.
func (s *Service) Feed(fq FeedQuery, pq pagination.Query) ([]MessageResponse, pagination.Pagination, error) {
	q := s.db.Model(&models.MessageModel{})

	switch fq.Feed {
	case FeedPrivate:
		if fq.PrivateKey == "" {
			return nil, pagination.Pagination{}, errPrivateKeyRequired
		}
		q = q.Where("is_private = ? AND private_key = ?", true, fq.PrivateKey).
			Order("created_at DESC")
	case FeedMine:
		if fq.ViewerID == nil {
			return nil, pagination.Pagination{}, errNotOwner
		}
		q = q.Where("user_id = ?", *fq.ViewerID).
			Order("is_private DESC, created_at DESC")
	case FeedTrending:
		since := time.Now().Add(-trendingWindow)
		q = q.Where("is_private = ?", false).
			Order(clause.OrderBy{Expression: clause.Expr{
				SQL:  "(SELECT COUNT(*) FROM comments WHERE comments.message_id = messages.id AND comments.deleted_at IS NULL AND comments.created_at > ?) DESC, messages.created_at DESC",
				Vars: []interface{}{since},
			}})
	default:
		q = q.Where("is_private = ?", false).Order("created_at DESC")
	}

	if fq.Search != "" {
		q = q.Where("content LIKE ?", "%"+fq.Search+"%")
	}

	var rows []models.MessageModel
	page, err := pagination.Paginate(q, pq, &rows)
	if err != nil {
		return nil, pagination.Pagination{}, err
	}

	out := make([]MessageResponse, 0, len(rows))
	for i := range rows {
		out = append(out, s.toResponse(&rows[i], fq.ViewerID, fq.IsAdmin))
	}
	return out, page, nil
}

// Get returns one message, enforcing the private gate.
func (s *Service) Get(id uint, viewerID *uint, isAdmin bool, privateKey string) (*MessageResponse, error) {
	row, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !s.canView(row, viewerID, isAdmin, privateKey) {
		return nil, errMessageNotFound
	}
	resp := s.toResponse(row, viewerID, isAdmin)
	return &resp, nil
}

// Create posts a new message. Anonymous authors are allowed; a referenced
// upload must already exist on disk.
func (s *Service) Create(req CreateRequest, authorID *uint) (*MessageResponse, error) {
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" && req.FileName == "" {
		return nil, errEmptyContent
	}
	if req.IsPrivate && req.PrivateKey == "" {
		return nil, errPrivateKeyRequired
	}

	row := models.MessageModel{
		Content:   req.Content,
		IsPrivate: req.IsPrivate,
		UserID:    authorID,
	}
	if req.IsPrivate {
		key := req.PrivateKey
		row.PrivateKey = &key
	}

	if req.FileName != "" {
		info, err := os.Stat(filepath.Join(s.uploadsDir, filepath.Base(req.FileName)))
		if err != nil {
			return nil, errFileMissing
		}
		row.HasFile = true
		row.FileName = filepath.Base(req.FileName)
		row.FileSize = info.Size()
		row.FileMimeType = mime.TypeByExtension(filepath.Ext(row.FileName))
	}

	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}
	resp := s.toResponse(&row, authorID, false)
	return &resp, nil
}

// Update edits the message text. Owner or admin only.
func (s *Service) Update(id uint, req UpdateRequest, viewerID *uint, isAdmin bool) (*MessageResponse, error) {
	row, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !s.canModify(row, viewerID, isAdmin) {
		return nil, errNotOwner
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errEmptyContent
	}

	if err := s.db.Model(row).Update("content", content).Error; err != nil {
		return nil, err
	}
	row.Content = content
	resp := s.toResponse(row, viewerID, isAdmin)
	return &resp, nil
}

// Delete removes a message, its comments and its attached file.
func (s *Service) Delete(id uint, viewerID *uint, isAdmin bool) error {
	row, err := s.load(id)
	if err != nil {
		return err
	}
	if !s.canModify(row, viewerID, isAdmin) {
		return errNotOwner
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", row.ID).
			Delete(&models.CommentModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(row).Error
	})
	if err != nil {
		return err
	}

	if row.HasFile && row.FileName != "" {
		path := filepath.Join(s.uploadsDir, filepath.Base(row.FileName))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("failed to remove message file", zap.String("file", row.FileName), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) load(id uint) (*models.MessageModel, error) {
	var row models.MessageModel
	if err := s.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errMessageNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) canView(row *models.MessageModel, viewerID *uint, isAdmin bool, key string) bool {
	if !row.IsPrivate || isAdmin {
		return true
	}
	if viewerID != nil && row.UserID != nil && *viewerID == *row.UserID {
		return true
	}
	return row.PrivateKey != nil && key != "" && key == *row.PrivateKey
}

func (s *Service) canModify(row *models.MessageModel, viewerID *uint, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	return viewerID != nil && row.UserID != nil && *viewerID == *row.UserID
}

func (s *Service) toResponse(row *models.MessageModel, viewerID *uint, isAdmin bool) MessageResponse {
	author := AuthorInfo{Name: "anonymous"}
	if row.UserID != nil {
		var user models.UserModel
		if err := s.db.Select("id", "username").First(&user, *row.UserID).Error; err == nil {
			author = AuthorInfo{ID: row.UserID, Name: user.Username, Verified: true}
		}
	}

	var commentCount int64
	s.db.Model(&models.CommentModel{}).
		Where("message_id = ?", row.ID).
		Count(&commentCount)

	return MessageResponse{
		ID:           row.ID,
		Content:      row.Content,
		IsPrivate:    row.IsPrivate,
		User:         author,
		Time:         row.CreatedAt,
		CommentCount: commentCount,
		Deletable:    s.canModify(row, viewerID, isAdmin),
		HasFile:      row.HasFile,
		FileName:     row.FileName,
		FileMimeType: row.FileMimeType,
		FileSize:     row.FileSize,
	}
}
