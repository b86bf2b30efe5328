package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct{ t *testing.T }

func (l *testLogger) Info(msg string, kv ...interface{})  { l.t.Logf("[INFO] %s %v", msg, kv) }
func (l *testLogger) Error(msg string, kv ...interface{}) { l.t.Logf("[ERROR] %s %v", msg, kv) }
func (l *testLogger) Warn(msg string, kv ...interface{})  { l.t.Logf("[WARN] %s %v", msg, kv) }
func (l *testLogger) Debug(msg string, kv ...interface{}) { l.t.Logf("[DEBUG] %s %v", msg, kv) }

func TestGenstoreClient_SaveGenerationOutput(t *testing.T) {
	generationID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/generations/"+generationID.String()+"/output", r.URL.Path)
		assert.Equal(t, "test-secret", r.Header.Get("X-Internal-Service"))

		var body struct {
			Files        map[string]string `json:"files"`
			AutoActivate bool              `json:"auto_activate"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"main.py": "print('hi')\n"}, body.Files)
		assert.True(t, body.AutoActivate)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"generation_id": generationID,
			"version":       1,
			"status":        "completed",
			"is_active":     true,
			"file_count":    1,
		})
	}))
	defer srv.Close()

	client := NewGenstoreClient(srv.URL, "test-secret", &testLogger{t})

	gen, err := client.SaveGenerationOutput(context.Background(), generationID, map[string]string{"main.py": "print('hi')\n"}, true)
	require.NoError(t, err)
	assert.Equal(t, generationID, gen.ID)
	assert.Equal(t, 1, gen.Version)
	assert.True(t, gen.IsActive)
}

func TestGenstoreClient_ListVersions(t *testing.T) {
	projectID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects/"+projectID.String()+"/versions", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("include_failed"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"total_versions": 2,
			"active_version": 2,
			"versions": []map[string]interface{}{
				{"version": 2, "status": "completed", "is_active": true},
				{"version": 1, "status": "completed", "is_active": false},
			},
		})
	}))
	defer srv.Close()

	client := NewGenstoreClient(srv.URL, "", &testLogger{t})

	list, err := client.ListVersions(context.Background(), projectID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalVersions)
	require.NotNil(t, list.ActiveVersion)
	assert.Equal(t, 2, *list.ActiveVersion)
	require.Len(t, list.Versions, 2)
	assert.True(t, list.Versions[0].IsActive)
}

func TestGenstoreClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"invalid state: generation is processing"}`))
	}))
	defer srv.Close()

	client := NewGenstoreClient(srv.URL, "", &testLogger{t})

	_, err := client.Activate(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid state")
}

func TestGenstoreClient_DeleteGeneration(t *testing.T) {
	generationID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/generations/"+generationID.String(), r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("delete_files"))

		json.NewEncoder(w).Encode(map[string]bool{"deleted": true})
	}))
	defer srv.Close()

	client := NewGenstoreClient(srv.URL, "", &testLogger{t})
	require.NoError(t, client.DeleteGeneration(context.Background(), generationID, false))
}
