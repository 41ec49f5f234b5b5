package comment

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/goldierill/board/internal/pkg/pagination"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	return db, mock
}

var commentColumns = []string{
	"id", "created_at", "updated_at", "message_id", "parent_id",
	"user_id", "username", "text", "score", "votes", "editable", "deleted_at",
}

func commentRow(rows *sqlmock.Rows, id uint, parentID interface{}, sec int64, text string) {
	ts := time.Unix(sec, 0)
	rows.AddRow(id, ts, ts, 1, parentID, nil, "anonymous_abc12345", text, 0, "{}", true, nil)
}

func TestFetchTreeRequiresMessageID(t *testing.T) {
	svc := NewService(nil)

	_, _, err := svc.FetchTree(0, SortTimeDesc, pagination.Query{Page: 1, Limit: 50})
	assert.ErrorIs(t, err, errMissingMessageID)
}

func TestFetchTreeRejectsUnknownSort(t *testing.T) {
	svc := NewService(nil)

	_, _, err := svc.FetchTree(1, "score", pagination.Query{Page: 1, Limit: 50})
	assert.ErrorIs(t, err, errInvalidSort)
}

func TestFetchTreeEmptyMessage(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT .+ FROM `comments`").
		WillReturnRows(sqlmock.NewRows(commentColumns))

	tree, page, err := svc.FetchTree(1, SortTimeDesc, pagination.Query{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, tree)
	assert.Equal(t, int64(0), page.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchTreeThreeLevels(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	topRows := sqlmock.NewRows(commentColumns)
	commentRow(topRows, 1, nil, 10, "top")
	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE message_id").
		WillReturnRows(topRows)

	level1 := sqlmock.NewRows(commentColumns)
	commentRow(level1, 2, 1, 20, "reply")
	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE parent_id IN").
		WillReturnRows(level1)

	level2 := sqlmock.NewRows(commentColumns)
	commentRow(level2, 3, 2, 30, "reply to reply")
	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE parent_id IN").
		WillReturnRows(level2)

	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE parent_id IN").
		WillReturnRows(sqlmock.NewRows(commentColumns))

	tree, page, err := svc.FetchTree(1, SortTimeDesc, pagination.Query{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	require.Len(t, tree, 1)
	assert.Equal(t, uint(1), tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, uint(2), tree[0].Children[0].ID)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, uint(3), tree[0].Children[0].Children[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchTreeSiblingRepliesTimeAscending(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	topRows := sqlmock.NewRows(commentColumns)
	commentRow(topRows, 1, nil, 10, "top")
	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE message_id").
		WillReturnRows(topRows)

	// The level query orders replies time-ascending; attachment must
	// keep that order.
	level1 := sqlmock.NewRows(commentColumns)
	commentRow(level1, 2, 1, 20, "older reply")
	commentRow(level1, 3, 1, 30, "newer reply")
	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE parent_id IN").
		WillReturnRows(level1)

	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE parent_id IN").
		WillReturnRows(sqlmock.NewRows(commentColumns))

	tree, _, err := svc.FetchTree(1, SortTimeDesc, pagination.Query{Page: 1, Limit: 50})
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, uint(2), tree[0].Children[0].ID)
	assert.Equal(t, uint(3), tree[0].Children[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchTreeAbortsOnStorageError(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	topRows := sqlmock.NewRows(commentColumns)
	commentRow(topRows, 1, nil, 10, "top")
	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE message_id").
		WillReturnRows(topRows)

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE parent_id IN").
		WillReturnError(boom)

	tree, _, err := svc.FetchTree(1, SortTimeDesc, pagination.Query{Page: 1, Limit: 50})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, tree, "a partial tree must never be returned")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyVoteUpvote(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	rows := sqlmock.NewRows(commentColumns)
	commentRow(rows, 7, nil, 10, "votable")
	mock.ExpectQuery("SELECT .+ FROM `comments` .+FOR UPDATE").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE `comments` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.ApplyVote(7, "user_1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 1, result.Vote)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyVoteMissingComment(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM `comments` .+FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(commentColumns))
	mock.ExpectRollback()

	result, err := svc.ApplyVote(404, "user_1", 1)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, errCommentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateValidatesBeforeTouchingStorage(t *testing.T) {
	svc := NewService(nil)

	_, err := svc.Create(CreateRequest{MessageID: 0, Text: "hi"}, nil, "")
	assert.ErrorIs(t, err, errMissingMessageID)

	_, err = svc.Create(CreateRequest{MessageID: 1, Text: "   "}, nil, "")
	assert.ErrorIs(t, err, errEmptyText)
}

func TestCreateRejectsMissingParent(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	pid := uint(42)
	mock.ExpectQuery("SELECT .+ FROM `comments`").
		WillReturnRows(sqlmock.NewRows(commentColumns))

	_, err := svc.Create(CreateRequest{MessageID: 1, Pid: &pid, Text: "reply"}, nil, "")
	assert.ErrorIs(t, err, errParentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
