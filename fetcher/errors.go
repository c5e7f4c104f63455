package fetcher

import "fmt"

// FetchExhaustedError is returned once every strategy in every retry round failed
type FetchExhaustedError struct {
	URL    string
	Rounds int
	Last   error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("all fetch strategies failed after %d rounds, please check your network settings or try using a VPN: %v", e.Rounds, e.Last)
}

func (e *FetchExhaustedError) Unwrap() error {
	return e.Last
}
