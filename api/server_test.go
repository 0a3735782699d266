package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"confbid/bidding"
)

func init() {
	gin.SetMode(gin.TestMode)
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "confbid.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func setupServer(t *testing.T, config ServerConfig, redisClient *redis.Client) (*ServerImpl, *gin.Engine) {
	t.Helper()
	var db *gorm.DB
	if config.Store.URL == "" {
		db = openTestDB(t)
	}
	impl, err := NewServerWithClients(config, db, redisClient)
	require.NoError(t, err)
	impl.Start()
	t.Cleanup(impl.Close)
	return impl, impl.NewRouter()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestNewServerWithClients(t *testing.T) {
	_, err := NewServerWithClients(ServerConfig{}, nil, nil)
	assert.Error(t, err)

	_, err = NewServerWithClients(ServerConfig{Store: StoreConfig{URL: "ftp://nowhere"}}, nil, nil)
	assert.Error(t, err)
}

func TestStoreAPI(t *testing.T) {
	_, router := setupServer(t, ServerConfig{}, nil)

	// 同一組可以重複新增，choice 原樣保存
	w := doJSON(t, router, http.MethodPost, "/api/bids", gin.H{"reviewer": 1, "article": 5, "choice": "interesado!!"})
	require.Equal(t, http.StatusCreated, w.Code)
	first := decode[bidding.BidRecord](t, w)
	assert.Equal(t, bidding.Choice("interesado!!"), first.Choice)

	w = doJSON(t, router, http.MethodPost, "/api/bids", gin.H{"reviewer": 1, "article": 5, "choice": "Quizás"})
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[bidding.BidRecord](t, w)

	w = doJSON(t, router, http.MethodGet, "/api/bids?reviewer=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]bidding.BidRecord](t, w), 2)

	w = doJSON(t, router, http.MethodPatch, "/api/bids/"+strconv.FormatUint(second.ID, 10), gin.H{"choice": "No Interesado"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bidding.ChoiceNotInterested, decode[bidding.BidRecord](t, w).Choice)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{name: "list without reviewer", method: http.MethodGet, path: "/api/bids", status: http.StatusBadRequest},
		{name: "create without article", method: http.MethodPost, path: "/api/bids", body: gin.H{"reviewer": 1}, status: http.StatusBadRequest},
		{name: "update missing bid", method: http.MethodPatch, path: "/api/bids/999", body: gin.H{"choice": "Quizás"}, status: http.StatusNotFound},
		{name: "update without choice", method: http.MethodPatch, path: "/api/bids/1", body: gin.H{}, status: http.StatusBadRequest},
		{name: "update invalid id", method: http.MethodPatch, path: "/api/bids/abc", body: gin.H{"choice": "Quizás"}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decode[errorResponse](t, w).Message)
		})
	}
}

func TestPreferenceAPI(t *testing.T) {
	_, router := setupServer(t, ServerConfig{}, nil)

	// 既有的重複紀錄
	for _, choice := range []string{"Interesado", "quizas"} {
		w := doJSON(t, router, http.MethodPost, "/api/bids", gin.H{"reviewer": 1, "article": 5, "choice": choice})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/reviewers/1/preferences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[preferenceList](t, w)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, bidding.ChoiceMaybe, list.Items[0].Choice)

	// 寫入會更新 ID 最大的那筆，不會新增
	w = doJSON(t, router, http.MethodPut, "/api/reviewers/1/preferences/5", gin.H{"choice": "No Interesado"})
	require.Equal(t, http.StatusOK, w.Code)
	saved := decode[bidding.BidRecord](t, w)
	assert.Equal(t, uint64(2), saved.ID)
	assert.Equal(t, bidding.ChoiceNotInterested, saved.Choice)

	w = doJSON(t, router, http.MethodPut, "/api/reviewers/1/preferences/6", gin.H{"choice": "Interesado"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/reviewers/1/preferences", nil)
	list = decode[preferenceList](t, w)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, []uint64{5, 6}, []uint64{list.Items[0].Article, list.Items[1].Article})

	w = doJSON(t, router, http.MethodGet, "/api/reviewers/2/preferences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"items":[]}`, w.Body.String())

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{name: "unset choice", path: "/api/reviewers/1/preferences/5", body: gin.H{"choice": ""}, status: http.StatusBadRequest},
		{name: "unknown choice", path: "/api/reviewers/1/preferences/5", body: gin.H{"choice": "maybe later"}, status: http.StatusBadRequest},
		{name: "invalid article", path: "/api/reviewers/1/preferences/0", body: gin.H{"choice": "Quizás"}, status: http.StatusBadRequest},
		{name: "invalid body", path: "/api/reviewers/1/preferences/5", body: "nope", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decode[errorResponse](t, w).Message)
		})
	}
}

// 透過遠端儲存端寫入，並在 Redis stream 上發布事件
func TestPreferenceAPI_RemoteStore(t *testing.T) {
	_, storeRouter := setupServer(t, ServerConfig{}, nil)
	storeServer := httptest.NewServer(storeRouter)
	t.Cleanup(storeServer.Close)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	_, router := setupServer(t, ServerConfig{
		Store: StoreConfig{URL: storeServer.URL + "/api", Timeout: time.Second},
		Redis: RedisConfig{
			Addr:       mr.Addr(),
			KeyPrefix:  "confbid:",
			StreamKeys: RedisStreamKeys{BidEvents: "confbid:bid-events"},
		},
	}, redisClient)

	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodPut, "/api/reviewers/1/preferences/5", gin.H{"choice": "Quizás"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	// 遠端只會有一筆
	w := doJSON(t, storeRouter, http.MethodGet, "/api/bids?reviewer=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]bidding.BidRecord](t, w), 1)

	// 原始紀錄的路由只在本機資料庫時提供
	w = doJSON(t, router, http.MethodGet, "/api/bids?reviewer=1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Eventually(t, func() bool {
		entries, err := mr.Stream("confbid:bid-events")
		return err == nil && len(entries) == 3
	}, time.Second, 10*time.Millisecond)
	assert.False(t, mr.Exists("confbid:bid:1:5:lock"))
}

func TestPreferenceAPI_RemoteUnavailable(t *testing.T) {
	storeServer := httptest.NewServer(http.NotFoundHandler())
	url := storeServer.URL
	storeServer.Close()

	_, router := setupServer(t, ServerConfig{Store: StoreConfig{URL: url, Timeout: time.Second}}, nil)

	w := doJSON(t, router, http.MethodGet, "/api/reviewers/1/preferences", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = doJSON(t, router, http.MethodPut, "/api/reviewers/1/preferences/5", gin.H{"choice": "Interesado"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), decode[errorResponse](t, w).Message)
}

func TestPreferenceAPI_RemoteMalformed(t *testing.T) {
	storeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"not":"a list"}`))
	}))
	t.Cleanup(storeServer.Close)

	_, router := setupServer(t, ServerConfig{Store: StoreConfig{URL: storeServer.URL, Timeout: time.Second}}, nil)

	w := doJSON(t, router, http.MethodGet, "/api/reviewers/1/preferences", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestOps(t *testing.T) {
	_, router := setupServer(t, ServerConfig{CORS: CORSConfig{AllowOrigins: []string{"https://ui.example.org"}}}, nil)

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	doJSON(t, router, http.MethodGet, "/api/reviewers/1/preferences", nil)
	w = doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/api/reviewers/:reviewerID/preferences"`)

	req := httptest.NewRequest(http.MethodOptions, "/api/reviewers/1/preferences/5", nil)
	req.Header.Set("Origin", "https://ui.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "https://ui.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut))
}

func TestHealthz_Unhealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	_, router := setupServer(t, ServerConfig{}, redisClient)

	mr.Close()
	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
