package comment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tsTime(sec int64) time.Time { return time.Unix(sec, 0) }

func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock := newMockDB(t)
	handler := NewHandler(NewService(db), nil)

	router := gin.New()
	api := router.Group("/api")
	handler.RegisterRoutes(api, func(c *gin.Context) { c.Next() })
	return router, mock
}

func TestListRequiresMessageID(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRejectsUnknownSort(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/comments?messageId=1&sort=hot", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListReturnsTreeAndPagination(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	topRows := sqlmock.NewRows(commentColumns)
	commentRow(topRows, 1, nil, 10, "hello")
	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE message_id").
		WillReturnRows(topRows)
	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE parent_id IN").
		WillReturnRows(sqlmock.NewRows(commentColumns))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/comments?messageId=1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Comments []CommentResponse `json:"comments"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Comments, 1)
	assert.Equal(t, "hello", body.Comments[0].Text)
	assert.Equal(t, int64(1), body.Pagination.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsEmptyText(t *testing.T) {
	router, _ := setupRouter(t)

	payload, _ := json.Marshal(CreateRequest{MessageID: 1, Text: "  "})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/comments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteRejectsInvalidValue(t *testing.T) {
	router, _ := setupRouter(t)

	payload, _ := json.Marshal(VoteRequest{Vote: 5})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/comments/1/vote", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteMissingCommentIs404(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM `comments` .+FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(commentColumns))
	mock.ExpectRollback()

	payload, _ := json.Marshal(VoteRequest{Vote: 1})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/comments/99/vote", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteWithoutOwnershipIsForbidden(t *testing.T) {
	router, mock := setupRouter(t)

	// Anonymous viewer, comment owned by user 1.
	ts := int64(10)
	rows := sqlmock.NewRows(commentColumns)
	rows.AddRow(5, tsTime(ts), tsTime(ts), 1, nil, 1, "alice", "mine", 0, "{}", true, nil)
	mock.ExpectQuery("SELECT .+ FROM `comments`").WillReturnRows(rows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/comments/5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
