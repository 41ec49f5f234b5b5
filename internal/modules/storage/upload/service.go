package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/goldierill/board/internal/config"
	"github.com/goldierill/board/internal/models"
)

const (
	maxUploadSize = 10 << 20 // 10 MiB
	orphanGrace   = time.Hour
)

var (
	errFileTooLarge  = errors.New("file exceeds the 10 MiB limit")
	errFileNotFound  = errors.New("file not found")
	errAccessDenied  = errors.New("file belongs to a private message")
	errEmptyUpload   = errors.New("no file in request")
	errBadFileName   = errors.New("invalid file name")
	errStoreFailed   = errors.New("failed to store file")
	allowedExtension = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
		".pdf": true, ".txt": true, ".md": true, ".zip": true,
		".mp3": true, ".mp4": true, ".webm": true,
	}
)

type Service struct {
	db       *gorm.DB
	dir      string
	s3cfg    config.S3Config
	s3client *s3.Client
}

func NewService(db *gorm.DB, dir string, s3cfg config.S3Config) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}

	svc := &Service{db: db, dir: dir, s3cfg: s3cfg}
	if s3cfg.Enable {
		svc.s3client = s3.New(s3.Options{
			Region: s3cfg.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, "")),
			BaseEndpoint: nonEmpty(s3cfg.Endpoint),
			UsePathStyle: s3cfg.Endpoint != "",
		})
	}
	return svc, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StoredFile describes a saved upload.
type StoredFile struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// Save writes an uploaded file under a server-assigned name and, when
// configured, mirrors it to S3.
func (s *Service) Save(ctx context.Context, header *multipart.FileHeader) (*StoredFile, error) {
	if header == nil {
		return nil, errEmptyUpload
	}
	if header.Size > maxUploadSize {
		return nil, errFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtension[ext] {
		return nil, errBadFileName
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(s.dir, name)

	src, err := header.Open()
	if err != nil {
		return nil, errStoreFailed
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, errStoreFailed
	}
	defer out.Close()

	written, err := io.Copy(out, src)
	if err != nil {
		os.Remove(dst)
		return nil, errStoreFailed
	}

	if s.s3client != nil {
		s.mirror(ctx, name, dst)
	}
	return &StoredFile{FileName: name, Size: written}, nil
}

func (s *Service) mirror(ctx context.Context, name, path string) {
	f, err := os.Open(path)
	if err != nil {
		zap.L().Warn("s3 mirror: open failed", zap.String("file", name), zap.Error(err))
		return
	}
	defer f.Close()

	_, err = s.s3client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.s3cfg.Bucket),
		Key:    aws.String("uploads/" + name),
		Body:   f,
	})
	if err != nil {
		zap.L().Warn("s3 mirror: put failed", zap.String("file", name), zap.Error(err))
		return
	}
	zap.L().Debug("s3 mirror: uploaded", zap.String("file", name))
}

// Resolve returns the on-disk path of name if the viewer may read it.
// Files attached to private messages require ownership, admin or the
// message's private key; files no message references are not served.
func (s *Service) Resolve(name string, viewerID *uint, isAdmin bool, key string) (string, error) {
	name = filepath.Base(name)
	if name == "" || name == "." || strings.ContainsAny(name, "/\\") {
		return "", errBadFileName
	}

	var message models.MessageModel
	err := s.db.Where("file_name = ?", name).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errFileNotFound
		}
		return "", err
	}

	if message.IsPrivate && !isAdmin {
		owner := viewerID != nil && message.UserID != nil && *viewerID == *message.UserID
		keyed := message.PrivateKey != nil && key != "" && key == *message.PrivateKey
		if !owner && !keyed {
			return "", errAccessDenied
		}
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", errFileNotFound
	}
	return path, nil
}

// SweepOrphans deletes uploaded files no message references. Files
// younger than the grace period are skipped so an upload can finish
// before its message is posted.
func (s *Service) SweepOrphans(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < orphanGrace {
			continue
		}

		var count int64
		if err := s.db.Model(&models.MessageModel{}).
			Where("file_name = ?", entry.Name()).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			zap.L().Warn("orphan sweep: remove failed", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		zap.L().Info("orphan sweep: removed files", zap.Int("count", removed))
	}
	return nil
}
