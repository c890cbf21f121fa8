package batch

import (
	"fmt"
)

// Status values of a Result.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result represents the result of a single item in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the item failed.
func (r Result) Failed() bool {
	return r.Status != StatusSuccess
}

// Summary counts the outcome of a batch
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Summarize counts successful and failed results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Failed() {
			s.Failed++
		} else {
			s.Successful++
		}
	}
	return s
}

// ProcessBatch executes fn on each item in order and collects results.
// id extracts the result id of an item. A panic in fn is recovered into an
// error result for that item.
func ProcessBatch[T any](items []T, id func(T) string, fn func(T) (string, error)) []Result {
	results := make([]Result, 0, len(items))

	for _, item := range items {
		res, err := call(item, fn)
		if err != nil {
			results = append(results, NewErrorResult(id(item), err))
			continue
		}
		results = append(results, NewSuccessResult(id(item), res))
	}

	return results
}

func call[T any](item T, fn func(T) (string, error)) (res string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(item)
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
