package mealdb

import (
	"errors"
	"fmt"
)

const (
	OpListCategories   = "list-categories"
	OpFilterByCategory = "filter-by-category"
	OpLookupByID       = "lookup-by-id"
)

// RequestError is returned for any failed MealDB call: transport errors,
// timeouts, HTTP error statuses and undecodable bodies.
type RequestError struct {
	Op         string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("mealdb %s (%s): %v", e.Op, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsRequestError reports whether err wraps a *RequestError.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
