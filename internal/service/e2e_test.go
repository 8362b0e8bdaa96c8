package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gestor-eventos/eventctl/internal/api"
	"github.com/gestor-eventos/eventctl/internal/models"
	"github.com/gestor-eventos/eventctl/internal/session"
)

// fakeAPI is an in-memory stand-in for the remote events service, speaking
// the same contract: bcrypt-checked credentials, JWT bearer tokens, and the
// upstream validator's "<field> must match pattern" rejection messages.
type fakeAPI struct {
	mu     sync.Mutex
	secret []byte

	nextUserID  int64
	nextEventID int64
	users       map[string]fakeUser
	events      map[int64]models.Event
}

type fakeUser struct {
	id           int64
	name         string
	passwordHash string
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func newFakeAPI(t *testing.T, seed ...models.Event) (*fakeAPI, string) {
	t.Helper()
	f := &fakeAPI{
		secret:      []byte("test-secret"),
		nextUserID:  1,
		nextEventID: 1,
		users:       map[string]fakeUser{},
		events:      map[int64]models.Event{},
	}
	for _, evt := range seed {
		evt.ID = f.nextEventID
		f.nextEventID++
		f.events[evt.ID] = evt
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/register", f.register)
	r.POST("/login", f.login)

	authed := r.Group("/", f.requireToken)
	authed.GET("/events", f.listEvents)
	authed.POST("/events", f.createEvent)
	authed.PUT("/events/:id", f.updateEvent)
	authed.DELETE("/events/:id", f.deleteEvent)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func (f *fakeAPI) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	if !emailPattern.MatchString(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"message": `email must match pattern "^\S+@\S+\.\S+$"`})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "password must be at least 8 characters"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[req.Email]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El email ya está registrado"})
		return
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	f.users[req.Email] = fakeUser{id: f.nextUserID, name: req.Name, passwordHash: string(hash)}
	f.nextUserID++
	c.Status(http.StatusCreated)
}

func (f *fakeAPI) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Credenciales inválidas"})
		return
	}

	f.mu.Lock()
	user, exists := f.users[req.Email]
	f.mu.Unlock()
	if !exists || bcrypt.CompareHashAndPassword([]byte(user.passwordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
		return
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.id,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(f.secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		User:  models.UserInfo{ID: user.id, Name: user.name, Email: req.Email},
		Token: token,
	})
}

func (f *fakeAPI) requireToken(c *gin.Context) {
	raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	_, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) { return f.secret, nil })
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Next()
}

func (f *fakeAPI) listEvents(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Event, 0, len(f.events))
	for _, evt := range f.events {
		out = append(out, evt)
	}
	c.JSON(http.StatusOK, out)
}

type eventBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	UserID      int64  `json:"userId"`
}

func (f *fakeAPI) createEvent(c *gin.Context) {
	var body eventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	date, err := time.Parse(time.RFC3339, body.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "date must match pattern ISO-8601"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	evt := models.Event{
		ID: f.nextEventID, Title: body.Title, Description: body.Description,
		Location: body.Location, Date: date, UserID: body.UserID,
	}
	f.nextEventID++
	f.events[evt.ID] = evt
	c.JSON(http.StatusCreated, evt)
}

func (f *fakeAPI) updateEvent(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	var body eventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	evt, exists := f.events[id]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "evento no encontrado"})
		return
	}
	evt.Title = body.Title
	evt.Description = body.Description
	evt.Location = body.Location
	if date, err := time.Parse(time.RFC3339, body.Date); err == nil {
		evt.Date = date
	}
	f.events[id] = evt
	c.JSON(http.StatusOK, evt)
}

func (f *fakeAPI) deleteEvent(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, id)
	c.Status(http.StatusNoContent)
}

func newE2EService(t *testing.T, baseURL string) (*EventService, *session.Store, *fakePrompter) {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "session.yaml"))
	gateway := api.NewClient(baseURL, 5*time.Second, store, zap.NewNop())
	prompter := &fakePrompter{}
	svc := NewEventService(gateway, store, prompter, nil, zap.NewNop())
	return svc, store, prompter
}

func TestEndToEndRegisterLoginAndCrud(t *testing.T) {
	ctx := context.Background()
	_, url := newFakeAPI(t)
	svc, store, prompter := newE2EService(t, url)

	require.NoError(t, svc.RegisterFlow(ctx, "Test User", "test@example.com", "password123"))
	require.NoError(t, svc.LoginFlow(ctx, "test@example.com", "password123"))

	sess, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "Test User", sess.Name)
	exp, known := session.TokenExpiry(sess.Token)
	require.True(t, known)
	assert.True(t, exp.After(time.Now()))

	// Create two events, earliest last, and verify scoping plus default sort.
	prompter.drafts = []*models.EventDraft{{
		Title: "Conferencia", Description: "d", Location: "Bogotá",
		Date: time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}}
	require.NoError(t, svc.CreateFlow(ctx))

	prompter.drafts = []*models.EventDraft{{
		Title: "Ensayo", Description: "d", Location: "Cali",
		Date: time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}}
	require.NoError(t, svc.CreateFlow(ctx))

	events := svc.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Ensayo", events[0].Title, "default sort is date ascending")
	assert.Equal(t, "Conferencia", events[1].Title)

	// Edit the first event.
	prompter.drafts = []*models.EventDraft{{
		Title: "Ensayo general", Description: "d", Location: "Cali",
		Date: time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}}
	require.NoError(t, svc.EditFlow(ctx, events[0]))
	assert.Equal(t, "Ensayo general", svc.Events()[0].Title)

	// Delete it.
	prompter.confirms = []bool{true}
	require.NoError(t, svc.DeleteFlow(ctx, svc.Events()[0]))
	events = svc.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Conferencia", events[0].Title)

	require.NoError(t, svc.Logout())
	_, ok = store.Current()
	assert.False(t, ok)
}

func TestEndToEndListIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(72 * time.Hour).UTC()
	fake, url := newFakeAPI(t,
		models.Event{Title: "mío temprano", Date: future, UserID: 1},
		models.Event{Title: "mío tarde", Date: future.Add(time.Hour), UserID: 1},
		models.Event{Title: "ajeno", Date: future, UserID: 2},
	)
	svc, _, _ := newE2EService(t, url)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	fake.users["test@example.com"] = fakeUser{id: 1, name: "Test User", passwordHash: string(hash)}
	fake.nextUserID = 2

	require.NoError(t, svc.LoginFlow(ctx, "test@example.com", "password123"))
	require.NoError(t, svc.Refresh(ctx))

	events := svc.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "mío temprano", events[0].Title)
	assert.Equal(t, "mío tarde", events[1].Title)
	for _, evt := range events {
		assert.Equal(t, int64(1), evt.UserID)
	}
}

func TestEndToEndLoginRejection(t *testing.T) {
	ctx := context.Background()
	_, url := newFakeAPI(t)
	svc, store, prompter := newE2EService(t, url)

	require.Error(t, svc.LoginFlow(ctx, "nobody@example.com", "whatever"))
	_, ok := store.Current()
	assert.False(t, ok)
	assert.Equal(t, "Credenciales inválidas", prompter.lastNote(t).text)
}

func TestEndToEndRegisterBadEmail(t *testing.T) {
	ctx := context.Background()
	_, url := newFakeAPI(t)
	svc, _, prompter := newE2EService(t, url)

	// The client-side email check fires first for a plainly malformed value.
	require.Error(t, svc.RegisterFlow(ctx, "Test User", "not-an-email", "password123"))
	assert.Equal(t, MsgFieldsRequired, prompter.lastNote(t).text)

	// A value that passes the client check but not the server pattern comes
	// back as a "match pattern" message and translates to the email text.
	require.Error(t, svc.RegisterFlow(ctx, "Test User", "a@b", "password123"))
	assert.Equal(t, "Formato de email inválido", prompter.lastNote(t).text)
}
