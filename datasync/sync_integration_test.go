package datasync_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/edspark/schoolhub_backend/auth"
	"github.com/edspark/schoolhub_backend/config"
	"github.com/edspark/schoolhub_backend/datasync"
	"github.com/edspark/schoolhub_backend/models"
	"github.com/edspark/schoolhub_backend/utils"
	"github.com/gin-gonic/gin"
)

func TestSyncPushPullRoundTrip(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	router, _, username := setupSyncTest(t)

	// 1) Pull a freshly provisioned school: version 1, every collection
	// present and empty.
	pull := doPull(t, router, username)
	if pull.Version != 1 {
		t.Fatalf("fresh pull version = %d, want 1", pull.Version)
	}
	if !pull.Data.IsEmpty() {
		t.Fatalf("fresh pull should be empty: %+v", pull.Data)
	}

	// 2) Push a full document. Unknown enums must normalize, the payment
	// without items must gain a synthetic line, attendance must fan out.
	payload := map[string]any{
		"baseVersion": 1,
		"data": map[string]any{
			"rooms": []any{
				map[string]any{"id": "r1", "name": "Main Hall", "type": "Hall", "capacity": 120},
				map[string]any{"id": "r2", "name": "Annex", "type": "Gymnasium_Annex", "capacity": 35},
			},
			"classes": []any{
				map[string]any{"id": "c1", "name": "Grade 1A", "level": "1", "curriculum": "National", "roomId": "r2"},
			},
			"staff": []any{
				map[string]any{"id": "sf1", "name": "Daw Mya", "role": "Teacher", "salary": 450000, "status": "Active"},
			},
			"students": []any{
				map[string]any{"id": "st1", "name": "Aung Aung", "classId": "c1", "status": "Active"},
				map[string]any{"id": "st2", "name": "Su Su", "classId": "c1", "status": "Active"},
			},
			"feeStructures": []any{
				map[string]any{"id": "f1", "name": "Tuition", "amount": 45000, "frequency": "Monthly"},
			},
			"payments": []any{
				map[string]any{
					"id": "p1", "studentId": "st1", "totalAmount": 45000,
					"date": "2026-01-10", "method": "Bank Transfer", "status": "Completed",
				},
			},
			"attendance": map[string]any{
				"2026-01-05": map[string]any{
					"c1": map[string]any{
						"st1": map[string]any{"status": "Present"},
						"st2": map[string]any{"status": "Late", "remark": "traffic"},
					},
				},
			},
			"staffAttendance": map[string]any{
				"2026-01-05": map[string]any{
					"sf1": map[string]any{"status": "Present", "checkIn": "08:05"},
				},
			},
		},
	}
	pushResp := doPush(t, router, username, payload, http.StatusOK)
	if pushResp.Version != 2 {
		t.Fatalf("push version = %d, want 2", pushResp.Version)
	}

	// 3) Pull back and verify normalization and derived rows.
	pull = doPull(t, router, username)
	if pull.Version != 2 {
		t.Fatalf("pull after push version = %d, want 2", pull.Version)
	}
	doc := pull.Data
	if len(doc.Rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(doc.Rooms))
	}
	roomTypes := map[string]string{}
	for _, r := range doc.Rooms {
		roomTypes[r.ID] = r.Type
	}
	if roomTypes["r1"] != "Hall" {
		t.Errorf("room r1 type = %q, want Hall", roomTypes["r1"])
	}
	if roomTypes["r2"] != "Classroom" {
		t.Errorf("unknown room type should normalize to Classroom, got %q", roomTypes["r2"])
	}
	if len(doc.Payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(doc.Payments))
	}
	p := doc.Payments[0]
	if p.Method != "Bank transfer" {
		t.Errorf("payment method = %q, want Bank transfer", p.Method)
	}
	if len(p.Items) != 1 {
		t.Fatalf("payment without items should export one synthetic line, got %d", len(p.Items))
	}
	if p.Items[0].Description != "Payment" || p.Items[0].Amount != 45000 {
		t.Errorf("synthetic line wrong: %+v", p.Items[0])
	}
	day := doc.Attendance["2026-01-05"]["c1"]
	if len(day) != 2 {
		t.Fatalf("attendance cells = %d, want 2", len(day))
	}
	if day["st2"].Status != "Late" || day["st2"].Remark != "traffic" {
		t.Errorf("attendance cell wrong: %+v", day["st2"])
	}
	if doc.StaffAttendance["2026-01-05"]["sf1"].CheckIn != "08:05" {
		t.Errorf("staff attendance cell wrong: %+v", doc.StaffAttendance["2026-01-05"]["sf1"])
	}

	// 4) Stale baseVersion: 409 with server version and stored snapshot,
	// nothing mutated.
	stale := map[string]any{
		"baseVersion": 1,
		"data":        map[string]any{"students": []any{}},
	}
	conflict := doPushConflict(t, router, username, stale)
	if conflict.ServerVersion != 2 {
		t.Errorf("conflict server version = %d, want 2", conflict.ServerVersion)
	}
	var snapshot map[string]any
	if err := json.Unmarshal(conflict.ServerData, &snapshot); err != nil {
		t.Fatalf("conflict server data is not JSON: %v", err)
	}
	if _, ok := snapshot["students"]; !ok {
		t.Error("conflict snapshot should be the stored document")
	}
	pull = doPull(t, router, username)
	if pull.Version != 2 || len(pull.Data.Students) != 2 {
		t.Fatalf("rejected push must not mutate state: version=%d students=%d", pull.Version, len(pull.Data.Students))
	}

	// 5) Full replace: pushing a smaller document removes everything the
	// new document does not carry.
	replacement := map[string]any{
		"baseVersion": 2,
		"data": map[string]any{
			"students": []any{
				map[string]any{"id": "st9", "name": "Kyaw Kyaw", "status": "Active"},
			},
		},
	}
	pushResp = doPush(t, router, username, replacement, http.StatusOK)
	if pushResp.Version != 3 {
		t.Fatalf("replacement version = %d, want 3", pushResp.Version)
	}
	pull = doPull(t, router, username)
	if len(pull.Data.Students) != 1 || pull.Data.Students[0].ID != "st9" {
		t.Fatalf("full replace failed: %+v", pull.Data.Students)
	}
	if len(pull.Data.Rooms) != 0 || len(pull.Data.Payments) != 0 || len(pull.Data.Attendance) != 0 {
		t.Error("full replace should drop collections not in the new document")
	}

	// 6) Omitted baseVersion skips the conflict check.
	forced := map[string]any{
		"data": map[string]any{"students": []any{}},
	}
	pushResp = doPush(t, router, username, forced, http.StatusOK)
	if pushResp.Version != 4 {
		t.Fatalf("forced push version = %d, want 4", pushResp.Version)
	}

	// 7) Import then export directly must be idempotent: exporting what was
	// just imported and importing it again changes nothing.
	first := doPull(t, router, username)
	again := map[string]any{"baseVersion": 4, "data": docToAny(t, first.Data)}
	doPush(t, router, username, again, http.StatusOK)
	second := doPull(t, router, username)
	second.Data.ExportDate = first.Data.ExportDate
	a, _ := json.Marshal(first.Data)
	b, _ := json.Marshal(second.Data)
	if !bytes.Equal(a, b) {
		t.Errorf("push of a pulled document must round-trip\nfirst:  %s\nsecond: %s", a, b)
	}
}

func TestSyncRejectsMalformedPush(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	router, _, username := setupSyncTest(t)

	// Missing data field: 400.
	req := httptest.NewRequest(http.MethodPost, "/sync/push", strings.NewReader(`{"baseVersion":1}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(utils.SetUsernameInContext(req.Context(), username))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("push without data = %d, want 400", w.Code)
	}

	// Unauthenticated: 401.
	req = httptest.NewRequest(http.MethodGet, "/sync/pull", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("pull without session = %d, want 401", w.Code)
	}

	// A school with no dataset row yet degenerates to version 0 and the
	// empty document shape.
	bare := models.School{Name: "Bare School"}
	if err := config.GetDB().Create(&bare).Error; err != nil {
		t.Fatalf("create bare school: %v", err)
	}
	bareUser := models.User{
		Username: fmt.Sprintf("bare-%d", time.Now().UnixNano()),
		Password: "x",
		Role:     models.UserRoleSchool,
		SchoolId: bare.ID.String(),
	}
	if err := config.GetDB().Create(&bareUser).Error; err != nil {
		t.Fatalf("create bare user: %v", err)
	}
	pull := doPull(t, router, bareUser.Username)
	if pull.Version != 0 {
		t.Errorf("never-pushed school version = %d, want 0", pull.Version)
	}
	if pull.UpdatedAt != nil {
		t.Errorf("never-pushed school updatedAt = %v, want null", *pull.UpdatedAt)
	}
	if !pull.Data.IsEmpty() {
		t.Errorf("never-pushed school should pull the empty shape: %+v", pull.Data)
	}
}

func TestLoginIssuesAndLogoutRevokesSessionToken(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	router, _, username := setupSyncTest(t)

	// Wrong password: 401, no token issued.
	body, _ := json.Marshal(map[string]string{"username": username, "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login with wrong password = %d, want 401", w.Code)
	}

	// Unknown user behaves identically.
	body, _ = json.Marshal(map[string]string{"username": "nobody", "password": testPassword})
	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login with unknown user = %d, want 401", w.Code)
	}

	// Correct credentials: a token backed by a redis session. Login also
	// drops any cached user record so school resolution starts fresh.
	if err := config.SetRedisValue("User:"+username, "stale", time.Hour); err != nil {
		t.Fatalf("seed stale user cache: %v", err)
	}
	body, _ = json.Marshal(map[string]string{"username": username, "password": testPassword})
	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", w.Code, w.Body.String())
	}
	var login auth.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if login.Token == "" {
		t.Fatal("login returned no token")
	}
	stored, exists, err := config.GetRedisValue("Token:" + login.Token)
	if err != nil || !exists {
		t.Fatalf("session not stored: exists=%v err=%v", exists, err)
	}
	if stored != username {
		t.Errorf("session maps to %q, want %q", stored, username)
	}
	if _, exists, _ := config.GetRedisValue("User:" + username); exists {
		t.Error("login must invalidate the cached user record")
	}

	// Logout revokes the session.
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("token", login.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", w.Code)
	}
	if _, exists, _ := config.GetRedisValue("Token:" + login.Token); exists {
		t.Error("logout must remove the session")
	}
}

const testPassword = "s3cret-pass"

// setupSyncTest boots mysql+redis containers, migrates the schema,
// provisions a school with a console user and returns a router with the
// sync and auth routes mounted behind a stub session layer.
func setupSyncTest(t *testing.T) (*gin.Engine, string, string) {
	t.Helper()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "schoolhub_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	school, err := models.CreateSchool(ctx, &models.NewSchool{Name: "Test School"}, datasync.DefaultDatasetKey)
	if err != nil {
		t.Fatalf("CreateSchool: %v", err)
	}
	username := fmt.Sprintf("console-%d", time.Now().UnixNano())
	hashed, err := utils.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Username: username,
		Password: string(hashed),
		Role:     models.UserRoleSchool,
		SchoolId: school.ID.String(),
	}
	if err := config.GetDB().Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := datasync.NewHandlers(datasync.Config{})
	router.GET("/sync/pull", h.Pull())
	router.POST("/sync/push", h.Push())
	a := auth.NewHandlers()
	router.POST("/login", a.Login())
	router.POST("/logout", a.Logout())
	return router, school.ID.String(), username
}

func doPull(t *testing.T, router *gin.Engine, username string) datasync.PullResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/sync/pull", nil)
	req = req.WithContext(utils.SetUsernameInContext(req.Context(), username))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("pull status = %d: %s", w.Code, w.Body.String())
	}
	var resp datasync.PullResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode pull response: %v", err)
	}
	return resp
}

func doPush(t *testing.T, router *gin.Engine, username string, payload map[string]any, wantStatus int) datasync.PushResponse {
	t.Helper()
	w := pushRaw(t, router, username, payload)
	if w.Code != wantStatus {
		t.Fatalf("push status = %d, want %d: %s", w.Code, wantStatus, w.Body.String())
	}
	var resp datasync.PushResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode push response: %v", err)
	}
	return resp
}

func doPushConflict(t *testing.T, router *gin.Engine, username string, payload map[string]any) datasync.ConflictResponse {
	t.Helper()
	w := pushRaw(t, router, username, payload)
	if w.Code != http.StatusConflict {
		t.Fatalf("push status = %d, want 409: %s", w.Code, w.Body.String())
	}
	var resp datasync.ConflictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode conflict response: %v", err)
	}
	return resp
}

func pushRaw(t *testing.T, router *gin.Engine, username string, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/sync/push", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(utils.SetUsernameInContext(req.Context(), username))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func docToAny(t *testing.T, doc *datasync.Document) any {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	return v
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("schoolhub-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("schoolhub-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=schoolhub_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
