package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/auth"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/chat"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/executor"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/market"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/planner"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store/memory"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/tools"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/utils"
)

type stubQuotes struct {
	history map[string][]market.PricePoint
}

func (s *stubQuotes) Quote(_ context.Context, symbol string) (*models.Quote, error) {
	if symbol == "" {
		return nil, market.ErrSymbolRequired
	}
	if strings.ToUpper(symbol) != "AAPL" {
		return nil, market.ErrNoData
	}
	return &models.Quote{Symbol: "AAPL", Price: 190.5, Currency: "USD", Source: "stub"}, nil
}

func (s *stubQuotes) History(_ context.Context, symbol, _ string) ([]market.PricePoint, error) {
	return s.history[symbol], nil
}

type stubNews struct{}

func (stubNews) Latest(context.Context) ([]models.NewsArticle, error) {
	return []models.NewsArticle{{Title: "Indexes rally", URL: "https://example.com/a"}}, nil
}

func (stubNews) Trending(context.Context) ([]models.NewsArticle, error) {
	return []models.NewsArticle{{Title: "Most active", URL: "https://example.com/b"}}, nil
}

func (stubNews) Stock(_ context.Context, ticker string) ([]models.NewsArticle, error) {
	return []models.NewsArticle{{Title: ticker + " beats estimates", URL: "https://example.com/c", Ticker: ticker}}, nil
}

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
	quotes *stubQuotes
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	quotes := &stubQuotes{history: map[string][]market.PricePoint{}}
	env := newTestEnv(t, quotes, stubNews{})
	env.quotes = quotes
	return env
}

func newTestEnv(t *testing.T, quotes QuoteSource, news NewsSource) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	authService, err := auth.NewService("test-secret", time.Hour, "advisor", st, nil)
	if err != nil {
		t.Fatalf("failed to create auth service: %v", err)
	}

	factory := executor.NewFactory(context.Background(), utils.LLMConfig{}, tools.NewSet(tools.Deps{}), nil)

	handler := NewHandler(Dependencies{
		Auth:          authService,
		Chat:          chat.NewService(st, st, nil, factory, 0, nil),
		Conversations: st,
		Users:         st,
		Portfolios:    st,
		Bookmarks:     st,
		Planner:       planner.New(nil, st, nil),
		Quotes:        quotes,
		News:          news,
		Server:        utils.ServerConfig{DevMode: true, DevUserID: "dev-user"},
		Market:        utils.MarketConfig{PerformanceRange: "6mo"},
	})
	router := gin.New()
	router.Use(CORS("http://localhost:3000"))
	handler.RegisterRoutes(router)

	return &testEnv{router: router, store: st}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := newJSONRequest(t, method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, rec.Code, rec.Body.String())
	}
	var resp map[string]any
	decodeBody(t, rec.Body.Bytes(), &resp)
	return resp["token"].(string)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupTestRouter(t)
	env.register(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var loginResp map[string]any
	decodeBody(t, rec.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("expected token in login response")
	}

	rec = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected me to succeed, got %d", rec.Code)
	}
	var me map[string]map[string]any
	decodeBody(t, rec.Body.Bytes(), &me)
	if me["user"]["username"] != "alice" {
		t.Fatalf("unexpected me response: %v", me)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"identifier": "alice", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate user, got %d", rec.Code)
	}
}

func TestValidationReportsFields(t *testing.T) {
	env := setupTestRouter(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob",
		"email":    "not-an-email",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decodeBody(t, rec.Body.Bytes(), &resp)
	if resp.Fields["password"] != "is required" {
		t.Fatalf("expected password field error, got %v", resp.Fields)
	}
	if resp.Fields["email"] == "" {
		t.Fatalf("expected email field error, got %v", resp.Fields)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupTestRouter(t)
	token := env.register(t, "carol")

	if rec := env.do(t, http.MethodPost, "/api/auth/logout", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected logout to succeed, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/auth/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", rec.Code)
	}
}

func TestChatRequiresAuthAndPersistsNothing(t *testing.T) {
	env := setupTestRouter(t)

	rec := env.do(t, http.MethodPost, "/api/chat", "", map[string]string{"message": "How should I invest my money?"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/chat", "not-a-jwt", map[string]string{"message": "How should I invest my money?"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	token := env.register(t, "dave")
	rec = env.do(t, http.MethodGet, "/api/conversations", token, nil)
	var convs []models.Conversation
	decodeBody(t, rec.Body.Bytes(), &convs)
	if len(convs) != 0 {
		t.Fatalf("expected no conversations, got %d", len(convs))
	}
	if convs, _ := env.store.ListConversations(context.Background(), "", 100, 0); len(convs) != 0 {
		t.Fatalf("expected nothing persisted for anonymous requests")
	}
}

func TestChatRejectsExpiredAndForeignTokens(t *testing.T) {
	env := setupTestRouter(t)
	const userID = "4f1c2b7e-0000-4000-8000-000000000042"

	sign := func(aud string, expiresAt time.Time) string {
		claims := auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID,
				Audience:  jwt.ClaimStrings{aud},
				IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		return signed
	}

	tokens := map[string]string{
		"expired":        sign(auth.Audience, time.Now().Add(-time.Minute)),
		"wrong audience": sign("anon", time.Now().Add(time.Hour)),
	}
	for name, token := range tokens {
		rec := env.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "How should I invest my money?"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d: %s", name, rec.Code, rec.Body.String())
		}
	}

	convs, err := env.store.ListConversations(context.Background(), userID, 100, 0)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(convs) != 0 {
		t.Fatalf("expected no conversations for rejected tokens, got %d", len(convs))
	}
}

func TestChatEnvelope(t *testing.T) {
	env := setupTestRouter(t)
	token := env.register(t, "erin")

	rec := env.do(t, http.MethodPost, "/api/chat", token, map[string]any{
		"message": "How should I invest my money?",
		"context": map[string]string{"page": "dashboard"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var reply map[string]any
	decodeBody(t, rec.Body.Bytes(), &reply)
	for _, key := range []string{"message", "agent_name", "agent_display_name", "agent_icon", "agent_color", "conversation_id", "conversation_title", "created_at"} {
		if _, ok := reply[key]; !ok {
			t.Fatalf("expected %q in envelope, got %v", key, reply)
		}
	}
	if reply["agent_name"] != agents.PortfolioManager {
		t.Fatalf("expected portfolio manager, got %v", reply["agent_name"])
	}
	if reply["message"] != executor.CannedReply(agents.PortfolioManager) {
		t.Fatalf("unexpected fallback reply: %v", reply["message"])
	}

	convID := reply["conversation_id"].(string)
	rec = env.do(t, http.MethodPost, "/api/chat?conversation_id="+convID, token, map[string]string{"message": "What about taxes?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on follow-up, got %d", rec.Code)
	}
	var followUp map[string]any
	decodeBody(t, rec.Body.Bytes(), &followUp)
	if _, ok := followUp["conversation_title"]; ok {
		t.Fatalf("title should only be returned when the conversation is created")
	}
	if followUp["agent_name"] != agents.TaxPlanner {
		t.Fatalf("expected tax planner, got %v", followUp["agent_name"])
	}

	rec = env.do(t, http.MethodGet, "/api/conversations/"+convID+"/messages", token, nil)
	var msgs []models.Message
	decodeBody(t, rec.Body.Bytes(), &msgs)
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[0].UserMessage != "How should I invest my money?" || msgs[3].AgentName != agents.TaxPlanner {
		t.Fatalf("messages out of order: %+v", msgs)
	}

	rec = env.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", rec.Code)
	}
}

func TestDeleteConversationThenNotFound(t *testing.T) {
	env := setupTestRouter(t)
	token := env.register(t, "frank")
	other := env.register(t, "grace")

	rec := env.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "Plan my budget"})
	var reply map[string]any
	decodeBody(t, rec.Body.Bytes(), &reply)
	convID := reply["conversation_id"].(string)

	if rec := env.do(t, http.MethodGet, "/api/conversations/"+convID, other, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's conversation, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/conversations/"+convID, other, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting another user's conversation, got %d", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, "/api/conversations/"+convID, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected delete to succeed, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/conversations/"+convID, token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/conversations/"+convID+"/messages", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for messages after delete, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/chat?conversation_id="+convID, token, map[string]string{"message": "hi"}); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 chatting into a deleted conversation, got %d", rec.Code)
	}
}

func TestConversationCrud(t *testing.T) {
	env := setupTestRouter(t)
	token := env.register(t, "heidi")

	rec := env.do(t, http.MethodPost, "/api/conversations", token, map[string]string{"title": ""})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var conv models.Conversation
	decodeBody(t, rec.Body.Bytes(), &conv)
	if conv.Title != "New Financial Conversation" {
		t.Fatalf("expected default title, got %q", conv.Title)
	}

	rec = env.do(t, http.MethodPut, "/api/conversations/"+conv.ID+"/title", token, map[string]string{"title": "Retirement"})
	decodeBody(t, rec.Body.Bytes(), &conv)
	if rec.Code != http.StatusOK || conv.Title != "Retirement" {
		t.Fatalf("expected renamed conversation, got %d %q", rec.Code, conv.Title)
	}

	env.do(t, http.MethodPost, "/api/chat?conversation_id="+conv.ID, token, map[string]string{"message": "When can I retire?"})
	if rec := env.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/clear", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected clear to succeed, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/conversations/"+conv.ID+"/messages", token, nil)
	var msgs []models.Message
	decodeBody(t, rec.Body.Bytes(), &msgs)
	if len(msgs) != 0 {
		t.Fatalf("expected cleared conversation, got %d messages", len(msgs))
	}
}

func TestPortfolioAndPerformance(t *testing.T) {
	env := setupTestRouter(t)
	token := env.register(t, "ivan")

	rec := env.do(t, http.MethodPost, "/api/portfolio", token, map[string]any{"name": "Core", "cash": 100})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var p models.Portfolio
	decodeBody(t, rec.Body.Bytes(), &p)
	if p.RiskTolerance != "moderate" {
		t.Fatalf("expected default risk tolerance, got %q", p.RiskTolerance)
	}

	rec = env.do(t, http.MethodPost, "/api/portfolio/"+p.ID+"/stocks", token, map[string]any{"ticker": "aapl", "shares": 0})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero shares, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/portfolio/"+p.ID+"/stocks", token, map[string]any{
		"ticker": "aapl", "shares": 2, "purchase_price": 9, "purchase_date": "2024-01-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 adding stock, got %d: %s", rec.Code, rec.Body.String())
	}

	env.quotes.history["AAPL"] = []market.PricePoint{
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Close: 10},
		{Date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), Close: 12},
	}

	rec = env.do(t, http.MethodGet, "/api/portfolio/"+p.ID+"/performance", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var perf struct {
		Range  string             `json:"range"`
		Series []tools.ValuePoint `json:"series"`
		Chart  tools.Chart        `json:"chart"`
	}
	decodeBody(t, rec.Body.Bytes(), &perf)
	if perf.Range != "6mo" || len(perf.Series) != 2 {
		t.Fatalf("unexpected performance: %+v", perf)
	}
	if perf.Series[0].Value != 120 || perf.Series[1].Value != 124 {
		t.Fatalf("unexpected values: %+v", perf.Series)
	}

	other := env.register(t, "judy")
	if rec := env.do(t, http.MethodGet, "/api/portfolio/"+p.ID, other, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's portfolio, got %d", rec.Code)
	}
}

func TestMarketNewsAndBookmarks(t *testing.T) {
	env := setupTestRouter(t)
	token := env.register(t, "ken")

	rec := env.do(t, http.MethodGet, "/api/market/quote/aapl", token, nil)
	var quote models.Quote
	decodeBody(t, rec.Body.Bytes(), &quote)
	if rec.Code != http.StatusOK || quote.Price != 190.5 {
		t.Fatalf("unexpected quote response %d: %+v", rec.Code, quote)
	}
	if rec := env.do(t, http.MethodGet, "/api/market/quote/ZZZZ", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown symbol, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/news/stock/MSFT", token, nil)
	var news struct {
		Articles []models.NewsArticle `json:"articles"`
	}
	decodeBody(t, rec.Body.Bytes(), &news)
	if len(news.Articles) != 1 || news.Articles[0].Ticker != "MSFT" {
		t.Fatalf("unexpected news: %+v", news)
	}

	bookmark := map[string]any{"title": "Indexes rally", "url": "https://example.com/a", "tags": []string{"macro"}}
	if rec := env.do(t, http.MethodPost, "/api/news/bookmarks", token, bookmark); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/api/news/bookmarks", token, bookmark); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate bookmark, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/news/bookmarks", token, nil)
	var bookmarks []models.Bookmark
	decodeBody(t, rec.Body.Bytes(), &bookmarks)
	if len(bookmarks) != 1 || len(bookmarks[0].Tags) != 1 {
		t.Fatalf("unexpected bookmarks: %+v", bookmarks)
	}

	if rec := env.do(t, http.MethodDelete, "/api/news/bookmarks/"+bookmarks[0].ID, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected delete to succeed, got %d", rec.Code)
	}
}

func TestFinancialPlanAndAPIKeys(t *testing.T) {
	env := setupTestRouter(t)
	token := env.register(t, "leo")

	rec := env.do(t, http.MethodPost, "/api/financial-plan", token, map[string]any{
		"income": 90000, "expenses": 3000, "goals": []string{"house"}, "risk_tolerance": "aggressive",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decodeBody(t, rec.Body.Bytes(), &created)
	plan := created["plan"].(map[string]any)
	for _, section := range planner.Sections {
		if _, ok := plan[section]; !ok {
			t.Fatalf("expected section %q in plan", section)
		}
	}

	rec = env.do(t, http.MethodPost, "/api/financial-plan", token, map[string]any{"income": -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative income, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/financial-plans", token, nil)
	var plans struct {
		Plans []models.FinancialPlan `json:"plans"`
	}
	decodeBody(t, rec.Body.Bytes(), &plans)
	if len(plans.Plans) != 1 || plans.Plans[0].ID != created["plan_id"] {
		t.Fatalf("unexpected plans: %+v", plans)
	}

	rec = env.do(t, http.MethodPost, "/api/user/api-keys", token, map[string]string{"google_api_key": "AIzaSecretKey1234"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/user/api-keys", token, nil)
	var keys map[string]any
	decodeBody(t, rec.Body.Bytes(), &keys)
	if keys["google_api_key"] != "****1234" || keys["rapidapi_key"] != "" {
		t.Fatalf("expected masked keys, got %v", keys)
	}
}

func TestDevChatAndCORS(t *testing.T) {
	env := setupTestRouter(t)

	rec := env.do(t, http.MethodPost, "/api/dev/chat", "", map[string]string{"message": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected dev chat to work without a token, got %d", rec.Code)
	}
	if convs, _ := env.store.ListConversations(context.Background(), "dev-user", 10, 0); len(convs) != 1 {
		t.Fatalf("expected dev conversation to be stored for the dev user")
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected origin to be allowed")
	}
}

func TestChatWebsocket(t *testing.T) {
	env := setupTestRouter(t)
	token := env.register(t, "mallory")

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"message": ""}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var errFrame map[string]any
	if err := conn.ReadJSON(&errFrame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if errFrame["type"] != "error" {
		t.Fatalf("expected error frame, got %v", errFrame)
	}

	if err := conn.WriteJSON(map[string]string{"message": "How should I invest my money?"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply chat.Reply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.AgentName != agents.PortfolioManager || reply.ConversationID == "" {
		t.Fatalf("unexpected websocket reply: %+v", reply)
	}
}

func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	req, err := http.NewRequest(method, path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, data []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestMarketQuoteUsesStoredKey(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("apikey"); got != "user-av-key" {
			t.Errorf("expected the stored key, got %q", got)
		}
		_, _ = w.Write([]byte(`{"Global Quote":{"01. symbol":"IBM","05. price":"182.5000"}}`))
	}))
	defer upstream.Close()

	quotes, err := market.NewQuoteService(time.Minute, nil, nil, market.NewAlphaVantage(upstream.URL, "", 0, nil))
	if err != nil {
		t.Fatalf("quote service: %v", err)
	}
	defer quotes.Close()

	env := newTestEnv(t, quotes, stubNews{})
	token := env.register(t, "quinn")

	if rec := env.do(t, http.MethodGet, "/api/market/quote/IBM", token, nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without any alpha vantage key, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(t, http.MethodPost, "/api/user/api-keys", token, map[string]string{"alpha_vantage_key": "user-av-key"}); rec.Code != http.StatusOK {
		t.Fatalf("expected keys to save, got %d", rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/market/quote/IBM", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with the stored key, got %d: %s", rec.Code, rec.Body.String())
	}
	var quote models.Quote
	decodeBody(t, rec.Body.Bytes(), &quote)
	if quote.Symbol != "IBM" || quote.Price != 182.5 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}
