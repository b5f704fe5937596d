package checkouthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/http/mapper"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/memory"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/application"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
	apierrors "github.com/Apurer/equipment-checkout/internal/shared/errors"
)

type recordingWorkflows struct {
	service ports.Service
	calls   int
	keys    []string
}

func (w *recordingWorkflows) StageRequest(ctx context.Context, req *domain.StagedCheckoutRequest, idempotencyKey string) (*domain.StagedCheckoutRequest, error) {
	w.calls++
	w.keys = append(w.keys, idempotencyKey)
	return w.service.StageRequest(ctx, req, idempotencyKey)
}

func newTestRouter(t *testing.T) (*gin.Engine, *recordingWorkflows) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := application.NewService(memory.NewRepository(), application.WithIdempotencyStore(memory.NewIdempotencyStore()))
	workflows := &recordingWorkflows{service: svc}
	return NewRouter(NewCheckoutAPI(svc, workflows)), workflows
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doWithHeaders(t, router, method, path, body, nil)
}

func doWithHeaders(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func stage(t *testing.T, router http.Handler, userName string, pid int64, choices ...int64) mapper.StagedCheckoutRequest {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/equipment/create_staged_request",
		mapper.StagedCheckoutRequest{UserName: userName, PID: pid, IDChoices: choices})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[mapper.StagedCheckoutRequest](t, rec)
}

func TestCreateStagedRequest_UsesWorkflows(t *testing.T) {
	router, workflows := newTestRouter(t)

	created := stage(t, router, "alice", 1001, 10, 11, 12)

	assert.Equal(t, 1, workflows.calls)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "alice", created.UserName)
	assert.Nil(t, created.SelectedID)
	assert.Equal(t, []int64{10, 11, 12}, created.IDChoices)
}

func TestCreateStagedRequest_EmptyChoicesSerialiseAsArray(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/equipment/create_staged_request", map[string]any{"user_name": "bob", "pid": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id_choices":[]`)
	assert.Contains(t, rec.Body.String(), `"selected_id":null`)
}

func TestCreateStagedRequest_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/equipment/create_staged_request", map[string]any{"user_name": " ", "pid": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, apierrors.TypeValidation, problem.Type)

	req := httptest.NewRequest(http.MethodPost, "/api/equipment/create_staged_request", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	malformed := httptest.NewRecorder()
	router.ServeHTTP(malformed, req)
	assert.Equal(t, http.StatusBadRequest, malformed.Code)
	assert.Equal(t, apierrors.ContentTypeProblemJSON, malformed.Header().Get("Content-Type"))
}

func TestCreateStagedRequest_RejectsClientID(t *testing.T) {
	router, _ := newTestRouter(t)
	body := mapper.StagedCheckoutRequest{ID: 5, UserName: "alice", PID: 1, IDChoices: []int64{1}}

	rec := do(t, router, http.MethodPost, "/api/equipment/create_staged_request", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	created := stage(t, router, "bob", 2, 20)
	assert.Equal(t, int64(1), created.ID)
}

func TestCreateStagedRequest_IdempotencyKey(t *testing.T) {
	router, workflows := newTestRouter(t)
	path := "/api/equipment/create_staged_request"
	body := mapper.StagedCheckoutRequest{UserName: "alice", PID: 1, IDChoices: []int64{10, 11}}
	headers := map[string]string{IdempotencyKeyHeader: " order-42 "}

	first := doWithHeaders(t, router, http.MethodPost, path, body, headers)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	retry := doWithHeaders(t, router, http.MethodPost, path, body, headers)
	require.Equal(t, http.StatusOK, retry.Code, retry.Body.String())
	assert.Equal(t, decode[mapper.StagedCheckoutRequest](t, first), decode[mapper.StagedCheckoutRequest](t, retry))
	assert.Equal(t, []string{"order-42", "order-42"}, workflows.keys)

	list := decode[[]mapper.StagedCheckoutRequest](t, do(t, router, http.MethodGet, "/api/equipment/get_all_staged_requests", nil))
	assert.Len(t, list, 1)

	body.IDChoices = []int64{12}
	conflict := doWithHeaders(t, router, http.MethodPost, path, body, headers)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	problem := decode[apierrors.ProblemDetail](t, conflict)
	assert.Equal(t, apierrors.TypeConflict, problem.Type)
}

func TestGetAllAndGetStagedRequests(t *testing.T) {
	router, _ := newTestRouter(t)
	first := stage(t, router, "alice", 1, 10)
	stage(t, router, "bob", 2, 20)

	rec := do(t, router, http.MethodGet, "/api/equipment/get_all_staged_requests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]mapper.StagedCheckoutRequest](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	rec = do(t, router, http.MethodGet, "/api/equipment/staged_requests/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first, decode[mapper.StagedCheckoutRequest](t, rec))

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/equipment/staged_requests/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/equipment/staged_requests/abc", nil).Code)
}

func TestGetAllStagedRequests_Empty(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/equipment/get_all_staged_requests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUpdateStagedRequest(t *testing.T) {
	router, _ := newTestRouter(t)
	created := stage(t, router, "alice", 1, 10, 11)

	selected := int64(99)
	created.UserName = "alice smith"
	created.SelectedID = &selected
	rec := do(t, router, http.MethodPut, "/api/equipment/update_staged_request", created)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[mapper.StagedCheckoutRequest](t, rec)
	assert.Equal(t, "alice smith", updated.UserName)
	require.NotNil(t, updated.SelectedID)
	assert.Equal(t, int64(99), *updated.SelectedID)

	missing := do(t, router, http.MethodPut, "/api/equipment/update_staged_request",
		mapper.StagedCheckoutRequest{ID: 404, UserName: "ghost", PID: 1})
	assert.Equal(t, http.StatusNotFound, missing.Code)

	noID := do(t, router, http.MethodPut, "/api/equipment/update_staged_request",
		mapper.StagedCheckoutRequest{UserName: "ghost", PID: 1})
	assert.Equal(t, http.StatusBadRequest, noID.Code)
}

func TestSelectEquipment(t *testing.T) {
	router, _ := newTestRouter(t)
	created := stage(t, router, "alice", 1, 10, 11)

	rec := do(t, router, http.MethodPut, "/api/equipment/staged_requests/1/selection", map[string]any{"selected_id": 11})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[mapper.StagedCheckoutRequest](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	require.NotNil(t, updated.SelectedID)
	assert.Equal(t, int64(11), *updated.SelectedID)

	notOffered := do(t, router, http.MethodPut, "/api/equipment/staged_requests/1/selection", map[string]any{"selected_id": 12})
	assert.Equal(t, http.StatusUnprocessableEntity, notOffered.Code)

	missingField := do(t, router, http.MethodPut, "/api/equipment/staged_requests/1/selection", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, missingField.Code)
}

func TestDeleteStagedRequest(t *testing.T) {
	router, _ := newTestRouter(t)
	created := stage(t, router, "alice", 1, 10)

	rec := do(t, router, http.MethodDelete, "/api/equipment/delete_staged_request", created)
	assert.Equal(t, http.StatusOK, rec.Code)

	again := do(t, router, http.MethodDelete, "/api/equipment/delete_staged_request", created)
	assert.Equal(t, http.StatusNotFound, again.Code)
	problem := decode[apierrors.ProblemDetail](t, again)
	assert.Equal(t, resourceType, problem.Extensions["resourceType"])
}

func TestCheckoutAPI_WithoutWorkflows(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(NewCheckoutAPI(application.NewService(memory.NewRepository()), nil))

	created := stage(t, router, "alice", 1, 10)
	assert.Equal(t, int64(1), created.ID)
}
