package catalog

import "fmt"

// FetchError wraps any failure to load the product list. The cache keeps serving
// the previous product set when it is returned.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("catalog fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
