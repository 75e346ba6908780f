package service

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"go-bazaar-admin/internal/apperror"
	"go-bazaar-admin/internal/config"
	"go-bazaar-admin/internal/notify"
	"go-bazaar-admin/internal/repository/memstore"
	"go-bazaar-admin/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type published struct {
	Type    string
	Message string
	Data    interface{}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []published
}

func (r *eventRecorder) Publish(eventType, message string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Type: eventType, Message: message, Data: data})
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *memstore.Store
	mail      *notify.Recorder
	events    *eventRecorder
	clock     *clock
	tokens    *jwt.Manager
	auth      AuthService
	inventory InventoryService
	audit     AuditService
	dashboard DashboardService
}

var testAuthConfig = AuthConfig{
	AdminEmail:       "admin@bazaar.test",
	FrontendURL:      "http://front.test",
	BackendURL:       "http://api.test",
	ResetTokenTTL:    15 * time.Minute,
	DecisionTokenTTL: 72 * time.Hour,
	EmailChangeTTL:   24 * time.Hour,
	PasswordMinLen:   3,
}

func newFixture(t *testing.T, policy config.UndoPolicy, log *zap.Logger) *fixture {
	t.Helper()
	if log == nil {
		log = zap.NewNop()
	}
	f := &fixture{
		store:  memstore.New(),
		mail:   &notify.Recorder{},
		events: &eventRecorder{},
		clock:  &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		tokens: jwt.NewManager("test-secret", time.Hour),
	}
	f.store.Now = f.clock.Now

	auth := NewAuthService(f.store, f.tokens, f.mail, f.events, testAuthConfig, log).(*authService)
	auth.now = f.clock.Now
	f.auth = auth
	f.inventory = NewInventoryService(f.store, f.events, 3, log)
	f.audit = NewAuditService(f.store, policy, f.events, log)
	f.dashboard = NewDashboardService(f.store, 3, log)
	return f
}

var tokenPattern = regexp.MustCompile(`[0-9a-f]{64}`)

// lastToken pulls the raw token out of the newest mail sent to addr
func (f *fixture) lastToken(t *testing.T, addr string) string {
	t.Helper()
	msgs := f.mail.To(addr)
	require.NotEmpty(t, msgs, "no mail sent to %s", addr)
	tok := tokenPattern.FindString(msgs[len(msgs)-1].Body)
	require.NotEmpty(t, tok, "no token in mail to %s", addr)
	return tok
}

// activeUser registers and approves an account
func (f *fixture) activeUser(t *testing.T, username, email, password string) {
	t.Helper()
	require.NoError(t, f.auth.Register(&RegisterRequest{Username: username, Email: email, Password: password}))
	_, err := f.auth.Decide(f.lastToken(t, testAuthConfig.AdminEmail), DecisionAccept)
	require.NoError(t, err)
}

func assertKind(t *testing.T, want apperror.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want.String(), apperror.KindOf(err).String(), "error: %v", err)
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
