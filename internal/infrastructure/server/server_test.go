package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/familyhub/core/internal/adapters/repository"
	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/voice"
	"github.com/familyhub/core/internal/infrastructure/config"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/infrastructure/metrics"
	"github.com/familyhub/core/internal/ports"
)

var testNow = time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *repository.MemoryStore
	handler http.Handler
}

func newTestEnv(t *testing.T, loc *time.Location, checks map[string]HealthCheck) *testEnv {
	t.Helper()

	if loc == nil {
		loc = time.UTC
	}

	cfg := &config.Config{
		App:      config.AppConfig{Name: "FamilyHub", Version: "test"},
		Storage:  config.StorageConfig{Driver: "memory"},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*"},
		Metrics:  config.MetricsConfig{Enabled: true},
	}

	store := repository.NewMemoryStore()
	log := logger.NewNop()
	m := metrics.New()
	clock := services.Clock(func() time.Time { return testNow })

	store.Members().Create(context.Background(), &entities.FamilyMember{Name: "Sarah", Role: entities.MemberRoleMom})
	store.Members().Create(context.Background(), &entities.FamilyMember{Name: "Emma", Role: entities.MemberRoleChild})

	extractor := voice.NewExtractor(voice.ExtractorConfig{DefaultAssigneeID: 1, DefaultHour: 9, EventDuration: time.Hour})
	ai := services.NewAIInterpreter(nil, loc, m, log, clock)

	deps := Dependencies{
		Store:         store,
		Checks:        checks,
		Metrics:       m,
		Location:      loc,
		Members:       services.NewMemberService(store.Members(), log),
		Tasks:         services.NewTaskService(store.Tasks(), log, clock),
		Events:        services.NewEventService(store.Events(), log, clock),
		Deadlines:     services.NewDeadlineService(store.Deadlines(), log, clock),
		VoiceNotes:    services.NewVoiceNoteService(store.VoiceNotes(), log, clock),
		Notifications: services.NewNotificationService(store.Notifications(), store.Members(), nil, m, log, clock),
		Voice: services.NewVoiceService(services.VoiceServiceDeps{
			Contexts:     services.NewFamilyContextProvider(store, nil, 0, 10, log, clock),
			Interpreter:  services.NewFallbackChain(log, services.NewRuleInterpreter(extractor, loc, clock), ai),
			Materializer: services.NewMaterializer(store, services.MaterializerConfig{DefaultAssigneeID: 1, EventDuration: time.Hour}, m, log, clock),
			Suggester:    ai,
			Extractor:    extractor,
			Location:     loc,
			Metrics:      m,
			Logger:       log,
			Clock:        clock,
		}),
	}

	srv, err := New(cfg, deps, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &testEnv{store: store, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	for _, path := range []string{"/health", "/health/detailed", "/ready"} {
		rec := env.do(t, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, body %s", path, rec.Code, rec.Body.String())
		}
	}

	if rec := env.do(t, http.MethodGet, "/health", ""); rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("request id header missing")
	}
}

func TestDetailedHealthReportsFailingCheck(t *testing.T) {
	env := newTestEnv(t, nil, map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rec := env.do(t, http.MethodGet, "/health/detailed", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Status string                            `json:"status"`
		Checks map[string]map[string]interface{} `json:"checks"`
	}
	decode(t, rec, &body)
	if body.Status != "error" || body.Checks["redis"]["status"] != "error" || body.Checks["storage"]["status"] != "ok" {
		t.Errorf("body = %+v", body)
	}
}

func TestVoiceCommandEndpoint(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
		wantActions int
	}{
		{
			name:        "rule based task",
			body:        `{"message":"add buy milk to my task list"}`,
			wantStatus:  http.StatusOK,
			wantMessage: `Created task "buy milk"`,
			wantActions: 1,
		},
		{
			name:        "unclassified without AI",
			body:        `{"message":"Hey Lisa, add soccer practice to calendar Thursday at 4pm"}`,
			wantStatus:  http.StatusOK,
			wantMessage: services.AIUnavailableMessage,
			wantActions: 0,
		},
		{
			name:       "missing message",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blank message",
			body:       `{"message":"   "}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"message":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, nil)

			rec := env.do(t, http.MethodPost, "/api/ai/voice-command", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp struct {
				Message string            `json:"message"`
				Actions []json.RawMessage `json:"actions"`
			}
			decode(t, rec, &resp)
			if resp.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", resp.Message, tt.wantMessage)
			}
			if resp.Actions == nil {
				t.Error("actions must be an array, not null")
			}
			if len(resp.Actions) != tt.wantActions {
				t.Errorf("actions = %d, want %d", len(resp.Actions), tt.wantActions)
			}
		})
	}
}

func TestVoiceCommandPersistsTask(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	env.do(t, http.MethodPost, "/api/ai/voice-command", `{"message":"add buy milk to my task list"}`)

	rec := env.do(t, http.MethodGet, "/api/tasks?pending=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var tasks []entities.Task
	decode(t, rec, &tasks)
	if len(tasks) != 1 || tasks[0].Title != "buy milk" {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestSmartTaskCreationWithoutAI(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/ai/smart-task-creation", `{"voiceInput":"add clean the garage to my todo list"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp ports.SmartTaskResponse
	decode(t, rec, &resp)
	if len(resp.Tasks) != 1 {
		t.Fatalf("tasks = %+v", resp.Tasks)
	}
	if !strings.Contains(resp.Interpretation, "not configured") {
		t.Errorf("interpretation = %q", resp.Interpretation)
	}

	tasks, _ := env.store.Tasks().List(context.Background(), ports.TaskFilter{})
	if len(tasks) != 0 {
		t.Errorf("smart task creation persisted %d tasks", len(tasks))
	}
}

func TestMemberEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/family-members", `{"name":"Tom","role":"dad","pin":"4321"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var member entities.FamilyMember
	decode(t, rec, &member)
	if strings.Contains(rec.Body.String(), "4321") {
		t.Error("response leaks the pin")
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"list", http.MethodGet, "/api/family-members", "", http.StatusOK},
		{"bad role", http.MethodPost, "/api/family-members", `{"name":"Rex","role":"dog"}`, http.StatusBadRequest},
		{"get unknown", http.MethodGet, "/api/family-members/99", "", http.StatusNotFound},
		{"get invalid id", http.MethodGet, "/api/family-members/abc", "", http.StatusBadRequest},
		{"correct pin", http.MethodPost, "/api/family-members/3/verify-pin", `{"pin":"4321"}`, http.StatusOK},
		{"wrong pin", http.MethodPost, "/api/family-members/3/verify-pin", `{"pin":"0000"}`, http.StatusUnauthorized},
		{"pin not set", http.MethodPost, "/api/family-members/1/verify-pin", `{"pin":"0000"}`, http.StatusConflict},
		{"delete", http.MethodDelete, "/api/family-members/2", "", http.StatusNoContent},
		{"delete again", http.MethodDelete, "/api/family-members/2", "", http.StatusNotFound},
	}

	if member.ID != 3 {
		t.Fatalf("member id = %d, want 3", member.ID)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestTaskEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/tasks", `{"title":"mow lawn","assignedTo":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/tasks/1/complete", `{"completedBy":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body.String())
	}
	var task entities.Task
	decode(t, rec, &task)
	if !task.Completed || task.CompletedBy == nil || *task.CompletedBy != 2 {
		t.Errorf("task = %+v", task)
	}

	if rec := env.do(t, http.MethodPost, "/api/tasks/1/complete", ""); rec.Code != http.StatusOK {
		t.Errorf("second completion status = %d", rec.Code)
	}

	var pending []entities.Task
	decode(t, env.do(t, http.MethodGet, "/api/tasks?pending=true", ""), &pending)
	if len(pending) != 0 {
		t.Errorf("pending = %+v", pending)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown task", "/api/tasks/42", http.StatusNotFound},
		{"bad assignee filter", "/api/tasks?assignedTo=me", http.StatusBadRequest},
		{"bad limit", "/api/tasks?limit=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(t, http.MethodGet, tt.path, ""); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if rec := env.do(t, http.MethodPost, "/api/tasks", `{"title":"x","priority":"urgent"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid priority status = %d", rec.Code)
	}
}

func TestEventTimesUseHouseholdZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zone data unavailable: %v", err)
	}
	env := newTestEnv(t, loc, nil)

	rec := env.do(t, http.MethodPost, "/api/events", `{"title":"Dentist","startTime":"2024-05-11T15:00","endTime":"2024-05-11T16:00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	got, err := env.store.Events().GetByID(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 5, 11, 15, 0, 0, 0, loc)
	if !got.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", got.StartTime, want)
	}
	if got.Visibility != entities.VisibilityShared {
		t.Errorf("visibility = %q, want shared", got.Visibility)
	}
}

func TestEventEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"create", http.MethodPost, "/api/events", `{"title":"Soccer","startTime":"2024-05-12T16:00:00Z"}`, http.StatusCreated},
		{"end before start", http.MethodPost, "/api/events", `{"title":"Bad","startTime":"2024-05-12T16:00","endTime":"2024-05-12T15:00"}`, http.StatusBadRequest},
		{"unparseable start", http.MethodPost, "/api/events", `{"title":"Bad","startTime":"next week"}`, http.StatusBadRequest},
		{"bad visibility", http.MethodPost, "/api/events", `{"title":"Bad","startTime":"2024-05-12T16:00","type":"secret"}`, http.StatusBadRequest},
		{"get", http.MethodGet, "/api/events/1", "", http.StatusOK},
		{"update", http.MethodPut, "/api/events/1", `{"title":"Soccer finals","startTime":"2024-05-12T17:00","type":"busy"}`, http.StatusOK},
		{"update unknown", http.MethodPut, "/api/events/9", `{"title":"x","startTime":"2024-05-12T17:00"}`, http.StatusNotFound},
		{"list from", http.MethodGet, "/api/events?from=2024-05-12", "", http.StatusOK},
		{"list bad from", http.MethodGet, "/api/events?from=soon", "", http.StatusBadRequest},
		{"delete", http.MethodDelete, "/api/events/1", "", http.StatusNoContent},
		{"get deleted", http.MethodGet, "/api/events/1", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := env.do(t, tt.method, tt.path, tt.body)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d, body %s", tt.name, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestDeadlineAndVoiceNoteEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/deadlines", `{"title":"Permission slip","dueDate":"2024-05-13T08:00:00Z","familyMemberId":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("deadline status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/api/deadlines/1/complete", ""); rec.Code != http.StatusOK {
		t.Errorf("complete deadline status = %d", rec.Code)
	}
	var pending []entities.Deadline
	decode(t, env.do(t, http.MethodGet, "/api/deadlines?pending=true", ""), &pending)
	if len(pending) != 0 {
		t.Errorf("pending deadlines = %+v", pending)
	}

	if rec := env.do(t, http.MethodPost, "/api/voice-notes", `{"content":"pick up dry cleaning","createdBy":1}`); rec.Code != http.StatusCreated {
		t.Errorf("voice note status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/api/voice-notes", `{"createdBy":1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty voice note status = %d", rec.Code)
	}
	var notes []entities.VoiceNote
	decode(t, env.do(t, http.MethodGet, "/api/voice-notes?createdBy=1", ""), &notes)
	if len(notes) != 1 {
		t.Errorf("notes = %+v", notes)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/notifications", `{"type":"reminder","title":"Dentist","message":"Dentist at 3pm","recipientId":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created entities.Notification
	decode(t, rec, &created)
	if created.Status != entities.NotificationPending || created.Method != entities.DeliveryInApp {
		t.Errorf("created = %+v", created)
	}

	if rec := env.do(t, http.MethodPost, "/api/notifications/1/sent", ""); rec.Code != http.StatusOK {
		t.Fatalf("mark sent status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/notifications/1/sent", ""); rec.Code != http.StatusConflict {
		t.Errorf("second mark sent status = %d, want 409", rec.Code)
	}

	var sent []entities.Notification
	decode(t, env.do(t, http.MethodGet, "/api/notifications?recipientId=2&status=sent", ""), &sent)
	if len(sent) != 1 || sent[0].SentAt == nil {
		t.Errorf("sent = %+v", sent)
	}

	if rec := env.do(t, http.MethodGet, "/api/notifications?status=lost", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status filter = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	env.do(t, http.MethodPost, "/api/ai/voice-command", `{"message":"add buy milk to my task list"}`)

	rec := env.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{
		`voice_commands_total{route="rules"} 1`,
		`voice_actions_total{outcome="created",type="create_task"} 1`,
		`http_requests_total{method="POST",path="/api/ai/voice-command",status="200"} 1`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestNotFoundRoute(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/api/unknown", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["message"] == "" {
		t.Errorf("body = %s", rec.Body.String())
	}
}
