package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealhub/pkg/models"
)

func TestDoJSON_DecodesAndReportsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/meals":
			assert.Equal(t, "pie", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(`{"total":2,"count":1,"source":"catalog","items":[{"id":"1","name":"Pie"}]}`))
		case "/meals/9":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":"not_found"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"mealdb down","retryable":true}`))
		}
	}))
	defer srv.Close()

	resp, err := fetchList(context.Background(), srv.Client(), srv.URL+"/", "pie", "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Pie", resp.Items[0].Name)

	var detail detailResponse
	err = doJSON(context.Background(), srv.Client(), endpoint(srv.URL, "/meals/9", nil), &detail)
	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "not_found", apiErr.Message)

	err = doJSON(context.Background(), srv.Client(), endpoint(srv.URL, "/gallery", nil), &galleryResponse{})
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Retryable)
	assert.Contains(t, err.Error(), "(retryable)")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSV(&buf, []models.Meal{
		{ID: "1", Name: "Fish, chips", Category: "Seafood", Region: "British"},
		{ID: "2", Name: "Pie"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"id,name,category,region,image_url",
		`1,"Fish, chips",Seafood,British,`,
		"2,Pie,,,",
	}, lines)
}

func TestWebsocketURL(t *testing.T) {
	u, err := websocketURL("https://meals.example.com/api", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "wss://meals.example.com/ws", u)

	u, err = websocketURL("http://localhost:8080", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws", u)

	_, err = websocketURL("localhost", "/ws")
	assert.Error(t, err)
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, []byte(`{"type":"catalog.replaced","count":3}`), true)
	assert.Contains(t, buf.String(), "\n  \"count\": 3")

	buf.Reset()
	printEvent(&buf, []byte("not json"), true)
	assert.Equal(t, "not json\n", buf.String())
}
