package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"mealhub/internal/projection"
	"mealhub/pkg/models"
)

type listResponse struct {
	Generation string        `json:"generation"`
	Source     string        `json:"source"`
	Total      int           `json:"total"`
	Count      int           `json:"count"`
	Items      []models.Meal `json:"items"`
}

type detailResponse struct {
	Meal        models.Meal         `json:"meal"`
	Ingredients []models.Ingredient `json:"ingredients"`
	Prev        string              `json:"prev"`
	Next        string              `json:"next"`
	InCache     bool                `json:"in_cache"`
	Enriched    bool                `json:"enriched"`
	Error       string              `json:"error"`
}

type galleryResponse struct {
	Generation string             `json:"generation"`
	Categories []string           `json:"categories"`
	Active     []string           `json:"active"`
	Refetched  bool               `json:"refetched"`
	Groups     []projection.Group `json:"groups"`
	Items      []models.Meal      `json:"items"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

// apiError carries the server's error body.
type apiError struct {
	Status    int
	Message   string
	Retryable bool
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
	if e.Retryable {
		msg += " (retryable)"
	}
	return msg
}

func endpoint(base, path string, q url.Values) string {
	u := strings.TrimRight(base, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func doJSON(ctx context.Context, client *http.Client, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var body struct {
			Error     string `json:"error"`
			Status    string `json:"status"`
			Retryable bool   `json:"retryable"`
		}
		_ = json.Unmarshal(data, &body)
		msg := body.Error
		if msg == "" {
			msg = body.Status
		}
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return &apiError{Status: resp.StatusCode, Message: msg, Retryable: body.Retryable}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func fetchList(ctx context.Context, client *http.Client, base, query, sort, order string) (listResponse, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if sort != "" {
		q.Set("sort", sort)
	}
	if order != "" {
		q.Set("order", order)
	}
	var out listResponse
	err := doJSON(ctx, client, endpoint(base, "/meals", q), &out)
	return out, err
}
