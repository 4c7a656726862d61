package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/campus-notify-core/internal/clock"
	"github.com/sandeepkv93/campus-notify-core/internal/database"
	"github.com/sandeepkv93/campus-notify-core/internal/http/handler"
	"github.com/sandeepkv93/campus-notify-core/internal/http/router"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
	"github.com/sandeepkv93/campus-notify-core/internal/security"
	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

const testTokenSecret = "abcdefghijklmnopqrstuvwxyz123456"

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// captureTransport records every email the stack hands to the provider.
type captureTransport struct {
	mu   sync.Mutex
	sent []service.EmailMessage
}

func (c *captureTransport) Name() string { return "capture" }

func (c *captureTransport) Send(_ context.Context, msg service.EmailMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

var codePattern = regexp.MustCompile(`Your code: (\d{6})`)

func (c *captureTransport) LastCode(t *testing.T, to string) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.sent) - 1; i >= 0; i-- {
		if c.sent[i].To != to {
			continue
		}
		if m := codePattern.FindStringSubmatch(c.sent[i].Text); m != nil {
			return m[1]
		}
	}
	t.Fatalf("no credential email captured for %s", to)
	return ""
}

type testStack struct {
	baseURL string
	client  *http.Client
	db      *gorm.DB
	clock   *clock.Manual
	mail    *captureTransport
	tokens  *security.AccessTokenManager
	users   repository.UserRepository
}

type stackOptions struct {
	credentialRPM int
}

func newTestStack(t *testing.T, opts stackOptions) *testStack {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if opts.credentialRPM == 0 {
		opts.credentialRPM = 1000
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewManual(time.Now())
	mail := &captureTransport{}

	users := repository.NewUserRepository(db)
	credentials := repository.NewCredentialRepository(db)
	notifications := repository.NewNotificationRepository(db)

	limiter := service.NewCredentialRateLimiter(credentials, time.Hour, 5)
	issuer := service.NewCredentialIssuer(credentials, limiter, service.NewNoopVerifyAttemptGuard(), clk,
		service.CredentialPolicy{TTL: 10 * time.Minute, TicketTTL: 15 * time.Minute}, log)
	renderer := service.NewEmailRenderer("Campus Community", "http://localhost:3000")
	emailChannel := service.NewEmailChannel(mail, time.Second)
	dispatcher := service.NewNotificationDispatcher(notifications, users,
		service.NewRealtimeChannel(nil, 0), emailChannel, renderer, clk, log)
	recovery := service.NewAccountRecoveryService(issuer, users, emailChannel, renderer, dispatcher, clk, log)
	tokens := security.NewAccessTokenManager(testTokenSecret, "iss", "aud")

	r := router.NewRouter(router.Dependencies{
		CredentialHandler:         handler.NewCredentialHandler(recovery),
		NotificationHandler:       handler.NewNotificationHandler(dispatcher),
		AccessTokens:              tokens,
		CORSOrigins:               []string{"http://localhost"},
		APIRateLimitPerMin:        1000,
		CredentialRateLimitPerMin: opts.credentialRPM,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testStack{
		baseURL: srv.URL,
		client:  srv.Client(),
		db:      db,
		clock:   clk,
		mail:    mail,
		tokens:  tokens,
		users:   users,
	}
}

func (s *testStack) bearer(t *testing.T, userID uint) map[string]string {
	t.Helper()
	token, err := s.tokens.Sign(userID, "student", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func (s *testStack) doJSON(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env apiEnvelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}

func decodeData[T any](t *testing.T, env apiEnvelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", string(env.Data), err)
	}
	return out
}

func itoa(v uint) string { return fmt.Sprintf("%d", v) }
