package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"financas/internal/auth"
	"financas/internal/log"
	"financas/internal/services"
	"financas/internal/storage"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type testEnv struct {
	srv  *Server
	repo *storage.SQLiteRepository
}

func newTestEnv(t *testing.T, ratePerMinute int) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	dash := services.NewDashboardService(repo, time.UTC, time.Minute)
	srv := NewServer(
		Config{Addr: ":0", RateLimitPerMinute: ratePerMinute},
		Deps{
			Logger:    log.New(log.Config{Output: io.Discard}),
			Records:   services.NewRecordServices(repo, services.Hooks{Invalidator: dash}),
			Dashboard: dash,
			Auth:      auth.NewPasswordAuthenticator(repo),
			Sessions:  auth.NewSessionManager(testSecret, time.Hour, false, repo),
			Users:     repo,
			DB:        repo,
		},
	)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

// signIn registers a user and logs in, returning the session cookie and user id.
func (e *testEnv) signIn(t *testing.T, email string) (*http.Cookie, string) {
	t.Helper()
	body := `{"name":"Teste","email":"` + email + `","password":"senha-segura"}`
	if rr := e.do(t, http.MethodPost, "/api/auth/register", body, nil); rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body)
	}

	rr := e.do(t, http.MethodPost, "/api/auth/login", `{"email":"`+email+`","password":"senha-segura"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body)
	}
	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decodeBody(t, rr, &resp)
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c, resp.User.ID
		}
	}
	t.Fatalf("login did not set %s", auth.CookieName)
	return nil, ""
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	dec := json.NewDecoder(rr.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorBody
	decodeBody(t, rr, &body)
	return body.Error
}

func TestHealthReadyAndReference(t *testing.T) {
	env := newTestEnv(t, 100)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body)
		}
	}

	tests := []struct {
		path string
		want string
	}{
		{"/api/categorias", "Mercado"},
		{"/api/formas-pagamento", "Pix"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, tt.path, "", nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			var list []string
			decodeBody(t, rr, &list)
			found := false
			for _, v := range list {
				found = found || v == tt.want
			}
			if !found {
				t.Fatalf("%v does not contain %q", list, tt.want)
			}
		})
	}

	rr := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "financas_http_requests_total") {
		t.Fatalf("metrics status=%d missing request counter", rr.Code)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t, 100)
	rr := env.do(t, http.MethodGet, "/healthz", "", nil)

	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := rr.Header().Get("X-Request-ID"); !strings.HasPrefix(got, "req_") {
		t.Errorf("X-Request-ID = %q", got)
	}
	if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestProtectedEndpointsRequireSession(t *testing.T) {
	env := newTestEnv(t, 1000)
	body := `{"descricao":"Aluguel","valor":1500,"vencimentoDia":5}`

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/contas-mensais", ""},
		{http.MethodPost, "/api/contas-mensais", body},
		{http.MethodPut, "/api/contas-mensais/abc", body},
		{http.MethodDelete, "/api/contas-mensais?id=abc", ""},
		{http.MethodGet, "/api/parcelas", ""},
		{http.MethodGet, "/api/gastos-variaveis", ""},
		{http.MethodGet, "/api/renda", ""},
		{http.MethodGet, "/api/contas-futuras", ""},
		{http.MethodGet, "/api/dashboard", ""},
		{http.MethodGet, "/api/auth/session", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, tt.body, nil)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status=%d, want 401", rr.Code)
			}
			if got := errorOf(t, rr); got != "Não autorizado" {
				t.Fatalf("error = %q", got)
			}
		})
	}

	t.Run("forged cookie", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/contas-mensais", body, &http.Cookie{Name: auth.CookieName, Value: "not-a-jwt"})
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status=%d, want 401", rr.Code)
		}
	})
}

func TestRecordLifecycle(t *testing.T) {
	env := newTestEnv(t, 1000)
	cookie, userID := env.signIn(t, "ana@example.com")

	create := `{"descricao":"  Compras do mês ","categoria":"Mercado","valor":"R$ 1.234,56","data":"2025-06-05","formaPagamento":"Pix","userId":"someone-else"}`
	rr := env.do(t, http.MethodPost, "/api/gastos-variaveis", create, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body)
	}
	var created map[string]any
	decodeBody(t, rr, &created)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("created record has no id: %v", created)
	}
	if created["userId"] != userID {
		t.Fatalf("userId = %v, want caller %s", created["userId"], userID)
	}
	if created["descricao"] != "Compras do mês" || created["valor"] != json.Number("1234.56") {
		t.Fatalf("created = %v", created)
	}

	rr = env.do(t, http.MethodPut, "/api/gastos-variaveis/"+id,
		`{"descricao":"Feira","categoria":"Mercado","valor":80,"data":"2025-06-06"}`, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("update by path status=%d body=%s", rr.Code, rr.Body)
	}

	rr = env.do(t, http.MethodPut, "/api/gastos-variaveis",
		`{"id":"`+id+`","descricao":"Feira livre","valor":"95,50","data":"2025-06-06"}`, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("update by body status=%d body=%s", rr.Code, rr.Body)
	}

	rr = env.do(t, http.MethodGet, "/api/gastos-variaveis", "", cookie)
	var list []map[string]any
	decodeBody(t, rr, &list)
	if len(list) != 1 || list[0]["descricao"] != "Feira livre" || list[0]["valor"] != json.Number("95.50") {
		t.Fatalf("list = %v", list)
	}

	rr = env.do(t, http.MethodDelete, "/api/gastos-variaveis?id="+id, "", cookie)
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"success":true}` {
		t.Fatalf("delete status=%d body=%s", rr.Code, rr.Body)
	}

	rr = env.do(t, http.MethodGet, "/api/gastos-variaveis", "", cookie)
	list = nil
	decodeBody(t, rr, &list)
	if len(list) != 0 {
		t.Fatalf("list after delete = %v", list)
	}
}

func TestRecordErrors(t *testing.T) {
	env := newTestEnv(t, 1000)
	cookie, _ := env.signIn(t, "bia@example.com")

	rr := env.do(t, http.MethodPost, "/api/renda", `{"descricao":"Salário","valor":5000,"dataRecebimento":"2025-06-01"}`, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("seed status=%d body=%s", rr.Code, rr.Body)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"malformed json", http.MethodPost, "/api/renda", `{"descricao":`, http.StatusBadRequest, "JSON inválido"},
		{"short description", http.MethodPost, "/api/renda", `{"descricao":"ab","valor":10,"dataRecebimento":"2025-06-01"}`, http.StatusBadRequest, "Descrição deve ter pelo menos 3 caracteres"},
		{"zero amount", http.MethodPost, "/api/renda", `{"descricao":"Bônus","valor":0,"dataRecebimento":"2025-06-01"}`, http.StatusBadRequest, "Valor deve ser maior que zero"},
		{"bad date", http.MethodPost, "/api/renda", `{"descricao":"Bônus","valor":10,"dataRecebimento":"ontem"}`, http.StatusBadRequest, "Data inválida"},
		{"update without id", http.MethodPut, "/api/renda", `{"descricao":"Bônus","valor":10,"dataRecebimento":"2025-06-01"}`, http.StatusBadRequest, "ID não fornecido"},
		{"delete without id", http.MethodDelete, "/api/renda", "", http.StatusBadRequest, "ID não fornecido"},
		{"update missing", http.MethodPut, "/api/renda/nope", `{"descricao":"Bônus","valor":10,"dataRecebimento":"2025-06-01"}`, http.StatusNotFound, "Não encontrado"},
		{"delete missing", http.MethodDelete, "/api/renda/nope", "", http.StatusNotFound, "Não encontrado"},
		{"bad priority", http.MethodPost, "/api/contas-futuras", `{"descricao":"IPVA","valorEstimado":900,"previsaoPagamento":"2026-01-10","prioridade":"URGENTE"}`, http.StatusBadRequest, "Prioridade inválida"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, tt.body, cookie)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d, want %d (body=%s)", rr.Code, tt.wantStatus, rr.Body)
			}
			if got := errorOf(t, rr); got != tt.wantError {
				t.Fatalf("error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestForeignRecordsAreInvisible(t *testing.T) {
	env := newTestEnv(t, 1000)
	owner, _ := env.signIn(t, "dona@example.com")
	intruder, _ := env.signIn(t, "intruso@example.com")

	rr := env.do(t, http.MethodPost, "/api/contas-mensais", `{"descricao":"Internet","valor":99.9,"vencimentoDia":20}`, owner)
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body)
	}
	var bill map[string]any
	decodeBody(t, rr, &bill)
	id := bill["id"].(string)

	rr = env.do(t, http.MethodPut, "/api/contas-mensais/"+id, `{"descricao":"Sequestro","valor":1,"vencimentoDia":1}`, intruder)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("foreign update status=%d, want 404", rr.Code)
	}
	rr = env.do(t, http.MethodDelete, "/api/contas-mensais/"+id, "", intruder)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("foreign delete status=%d, want 404", rr.Code)
	}
	if got, err := env.repo.MonthlyBills().Get(context.Background(), id); err != nil || got.Description != "Internet" {
		t.Fatalf("stored bill = %+v, %v", got, err)
	}
	rr = env.do(t, http.MethodGet, "/api/contas-mensais", "", intruder)
	var list []map[string]any
	decodeBody(t, rr, &list)
	if len(list) != 0 {
		t.Fatalf("intruder sees %v", list)
	}

	rr = env.do(t, http.MethodGet, "/api/contas-mensais", "", owner)
	list = nil
	decodeBody(t, rr, &list)
	if len(list) != 1 || list[0]["descricao"] != "Internet" {
		t.Fatalf("owner list = %v", list)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	env := newTestEnv(t, 1000)
	cookie, _ := env.signIn(t, "caio@example.com")

	seed := []struct{ path, body string }{
		{"/api/renda", `{"descricao":"Salário","valor":5000,"dataRecebimento":"2025-06-01"}`},
		{"/api/contas-mensais", `{"descricao":"Aluguel","valor":1000,"vencimentoDia":10}`},
		{"/api/gastos-variaveis", `{"descricao":"Mercado","categoria":"Mercado","valor":"1234,56","data":"2025-06-05"}`},
		{"/api/parcelas", `{"descricao":"Notebook","valorParcela":500,"numeroParcelas":2,"parcelaAtual":1,"vencimentoData":"2025-06-20"}`},
		{"/api/gastos-variaveis", `{"descricao":"Julho","valor":10,"data":"2025-07-01"}`},
	}
	for _, s := range seed {
		if rr := env.do(t, http.MethodPost, s.path, s.body, cookie); rr.Code != http.StatusOK {
			t.Fatalf("seed %s status=%d body=%s", s.path, rr.Code, rr.Body)
		}
	}

	rr := env.do(t, http.MethodGet, "/api/dashboard?ano=2025&mes=6", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d body=%s", rr.Code, rr.Body)
	}
	var d struct {
		Renda       json.Number `json:"rendaTotal"`
		TotalGastos json.Number `json:"totalGastos"`
		Saldo       json.Number `json:"saldo"`
		QtdGastos   int         `json:"qtdGastosVariaveis"`
		ChartData   []struct {
			Name  string      `json:"name"`
			Value json.Number `json:"value"`
		} `json:"chartData"`
		Periodo struct {
			Inicio string `json:"inicio"`
			Fim    string `json:"fim"`
		} `json:"periodo"`
	}
	decodeBody(t, rr, &d)

	if d.Renda != "5000.00" || d.TotalGastos != "2734.56" || d.Saldo != "2265.44" || d.QtdGastos != 1 {
		t.Fatalf("dashboard = %+v", d)
	}
	if d.Periodo.Inicio != "2025-06-01T00:00:00.000Z" || d.Periodo.Fim != "2025-07-01T00:00:00.000Z" {
		t.Fatalf("periodo = %+v", d.Periodo)
	}
	var names []string
	for _, e := range d.ChartData {
		names = append(names, e.Name)
	}
	if strings.Join(names, ",") != "Mercado,Contas Fixas,Parcelas" {
		t.Fatalf("chart names = %v", names)
	}

	// A mutation invalidates the cached month.
	env.do(t, http.MethodPost, "/api/renda", `{"descricao":"Extra","valor":100,"dataRecebimento":"2025-06-15"}`, cookie)
	rr = env.do(t, http.MethodGet, "/api/dashboard?ano=2025&mes=6", "", cookie)
	decodeBody(t, rr, &d)
	if d.Renda != "5100.00" {
		t.Fatalf("rendaTotal after mutation = %s, want 5100.00", d.Renda)
	}

	for _, q := range []string{"?ano=abc", "?mes=13", "?ano=2025&mes=0"} {
		rr := env.do(t, http.MethodGet, "/api/dashboard"+q, "", cookie)
		if rr.Code != http.StatusBadRequest || errorOf(t, rr) != "Período inválido" {
			t.Fatalf("%s status=%d", q, rr.Code)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, 1000)

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"weak password", `{"name":"Ana","email":"ana@example.com","password":"curta"}`, "Senha deve ter pelo menos 8 caracteres"},
		{"bad email", `{"name":"Ana","email":"not-an-email","password":"senha-segura"}`, "Email inválido"},
		{"missing name", `{"name":" ","email":"ana@example.com","password":"senha-segura"}`, "Nome é obrigatório"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/auth/register", tt.body, nil)
			if rr.Code != http.StatusBadRequest || errorOf(t, rr) != tt.wantError {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
			}
		})
	}

	cookie, userID := env.signIn(t, "ana@example.com")

	rr := env.do(t, http.MethodPost, "/api/auth/register", `{"name":"Ana","email":"ANA@example.com","password":"senha-segura"}`, nil)
	if rr.Code != http.StatusBadRequest || errorOf(t, rr) != "Email já cadastrado" {
		t.Fatalf("duplicate register status=%d body=%s", rr.Code, rr.Body)
	}

	rr = env.do(t, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"errada-123"}`, nil)
	if rr.Code != http.StatusUnauthorized || errorOf(t, rr) != "Email ou senha inválidos" {
		t.Fatalf("bad login status=%d body=%s", rr.Code, rr.Body)
	}

	rr = env.do(t, http.MethodGet, "/api/auth/session", "", cookie)
	if rr.Code != http.StatusOK || strings.Contains(rr.Body.String(), "senha") || !strings.Contains(rr.Body.String(), userID) {
		t.Fatalf("session status=%d body=%s", rr.Code, rr.Body)
	}

	rr = env.do(t, http.MethodPost, "/api/auth/logout", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout status=%d", rr.Code)
	}
	cleared := false
	for _, c := range rr.Result().Cookies() {
		cleared = cleared || (c.Name == auth.CookieName && c.MaxAge < 0)
	}
	if !cleared {
		t.Fatalf("logout did not clear the cookie")
	}

	rr = env.do(t, http.MethodGet, "/api/auth/session", "", cookie)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("session after logout status=%d, want 401", rr.Code)
	}
}

func TestBearerToken(t *testing.T) {
	env := newTestEnv(t, 1000)
	env.signIn(t, "api@example.com")

	rr := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"api@example.com","password":"senha-segura"}`, nil)
	var resp struct {
		Token string `json:"token"`
	}
	decodeBody(t, rr, &resp)
	if resp.Token == "" {
		t.Fatal("login returned no token")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/renda", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	out := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("bearer status=%d body=%s", out.Code, out.Body)
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	env := newTestEnv(t, 2)

	for i := 0; i < 5; i++ {
		if rr := env.do(t, http.MethodGet, "/healthz", "", nil); rr.Code != http.StatusOK {
			t.Fatalf("GET %d status=%d", i, rr.Code)
		}
	}

	body := `{"email":"x@example.com","password":"whatever-123"}`
	for i := 0; i < 2; i++ {
		if rr := env.do(t, http.MethodPost, "/api/auth/login", body, nil); rr.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d limited too early", i)
		}
	}
	rr := env.do(t, http.MethodPost, "/api/auth/login", body, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if got := errorOf(t, rr); got == "" {
		t.Fatal("missing error body")
	}
}
