package message

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goldierill/board/internal/models"
	"github.com/goldierill/board/internal/pkg/pagination"
)

func TestFeedPrivateRequiresKey(t *testing.T) {
	svc := NewService(nil, t.TempDir())

	_, _, err := svc.Feed(FeedQuery{Feed: FeedPrivate}, pagination.Query{Page: 1, Limit: 20})
	assert.ErrorIs(t, err, errPrivateKeyRequired)
}

func TestFeedMineRequiresViewer(t *testing.T) {
	svc := NewService(nil, t.TempDir())

	_, _, err := svc.Feed(FeedQuery{Feed: FeedMine}, pagination.Query{Page: 1, Limit: 20})
	assert.ErrorIs(t, err, errNotOwner)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(nil, t.TempDir())

	_, err := svc.Create(CreateRequest{Content: "   "}, nil)
	assert.ErrorIs(t, err, errEmptyContent)

	_, err = svc.Create(CreateRequest{Content: "hi", IsPrivate: true}, nil)
	assert.ErrorIs(t, err, errPrivateKeyRequired)

	_, err = svc.Create(CreateRequest{Content: "hi", FileName: "nope.png"}, nil)
	assert.ErrorIs(t, err, errFileMissing)
}

func TestCanView(t *testing.T) {
	svc := NewService(nil, t.TempDir())

	owner := uint(1)
	stranger := uint(2)
	key := "hunter2"
	private := &models.MessageModel{IsPrivate: true, UserID: &owner, PrivateKey: &key}
	public := &models.MessageModel{}

	assert.True(t, svc.canView(public, nil, false, ""))
	assert.True(t, svc.canView(private, &owner, false, ""))
	assert.True(t, svc.canView(private, nil, true, ""))
	assert.True(t, svc.canView(private, nil, false, "hunter2"))
	assert.False(t, svc.canView(private, &stranger, false, ""))
	assert.False(t, svc.canView(private, nil, false, "wrong"))
	assert.False(t, svc.canView(private, nil, false, ""))
}

func TestCanModify(t *testing.T) {
	svc := NewService(nil, t.TempDir())

	owner := uint(1)
	stranger := uint(2)
	owned := &models.MessageModel{UserID: &owner}
	anonymous := &models.MessageModel{}

	assert.True(t, svc.canModify(owned, &owner, false))
	assert.True(t, svc.canModify(owned, &stranger, true))
	assert.False(t, svc.canModify(owned, &stranger, false))
	assert.False(t, svc.canModify(owned, nil, false))
	// Anonymous posts are only manageable by admins.
	assert.False(t, svc.canModify(anonymous, &owner, false))
	assert.True(t, svc.canModify(anonymous, nil, true))
}
