package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/logger"
	"github.com/tranqh/formintake/internal/queue"
)

func newTaskRouter(q *queue.Queue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/tasks/:task_id", NewTaskHandler(q).Status)
	return r
}

func TestTaskStatus_SuccessCarriesResult(t *testing.T) {
	backend := queue.NewMemoryBackend(time.Hour)
	defer backend.Close()
	q := queue.New(backend, 1, logger.GetDefault())
	q.Register("test.ok", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		return map[string]string{"image_name": "a.jpg"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	id, err := q.Enqueue(context.Background(), "test.ok", nil)
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	router := newTaskRouter(q)

	// Poll the endpoint until the job lands.
	deadline := time.Now().Add(5 * time.Second)
	for {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks/"+id, nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("unexpected status %d", w.Code)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if body["state"] == string(domain.JobStateSuccess) {
			result, ok := body["result"].(map[string]interface{})
			if !ok || result["image_name"] != "a.jpg" {
				t.Fatalf("unexpected result: %v", body["result"])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never completed, last state %v", body["state"])
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTaskStatus_UnknownJobReportsPending(t *testing.T) {
	backend := queue.NewMemoryBackend(time.Hour)
	defer backend.Close()
	q := queue.New(backend, 1, logger.GetDefault())

	router := newTaskRouter(q)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks/does-not-exist", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["state"] != string(domain.JobStatePending) {
		t.Errorf("expected PENDING for unknown job, got %v", body["state"])
	}
	if _, ok := body["result"]; ok {
		t.Error("did not expect a result for unknown job")
	}
}
