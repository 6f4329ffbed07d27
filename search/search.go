// Package search drives the comparison from user input: it normalizes the
// query, guards against duplicate and overlapping requests, calls the
// registry and commits successful results to the session's store.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/git-pkgs/compare/internal/core"
	"github.com/git-pkgs/compare/store"
)

// User-facing messages.
const (
	MsgDuplicate    = "Package already added to comparison"
	MsgFetchFailed  = "Failed to fetch package data. Please try again."
	MsgInvalidQuery = "Not a valid package name or package URL"
)

var (
	// ErrBusy is returned when a search is submitted while another is in flight.
	ErrBusy = errors.New("a search is already in progress")

	// ErrInvalidQuery is returned for a package URL that cannot be used.
	ErrInvalidQuery = errors.New("invalid query")
)

// Status is the search input's UI state.
type Status int

const (
	Idle Status = iota
	Loading
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Failed:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Fetcher produces a complete record for a package name, or an error.
type Fetcher interface {
	FetchRecord(ctx context.Context, name string) (core.PackageRecord, error)
}

// State is a snapshot of a controller.
type State struct {
	Status  Status
	Message string // set when Status is Failed
	Pending string // name being fetched when Status is Loading
	Store   store.Store
}

// Result classifies how a submission ended.
type Result string

const (
	ResultAdded     Result = "added"
	ResultDuplicate Result = "duplicate"
	ResultFailed    Result = "failed"
	ResultInvalid   Result = "invalid"
)

// Event describes a finished submission, for logging and metrics.
type Event struct {
	Name     string
	Result   Result
	Err      error
	Duration time.Duration
}

// Controller is the search input of one session. It is safe for concurrent
// use; at most one fetch is in flight at a time.
type Controller struct {
	fetcher   Fetcher
	ecosystem string
	observe   func(Event)

	mu    sync.Mutex
	state State
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers fn to be called after every submission that got
// past the blank-input and busy checks.
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) {
		c.observe = fn
	}
}

// WithEcosystem sets the PURL type accepted in queries. Default "npm".
func WithEcosystem(eco string) Option {
	return func(c *Controller) {
		c.ecosystem = eco
	}
}

// NewController creates an idle controller with an empty store.
func NewController(f Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher:   f,
		ecosystem: "npm",
		state:     State{Store: store.New()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Normalize turns user input into a package name. Bare names are trimmed;
// package URLs ("pkg:npm/%40babel/core@7.0.0") are resolved to their name.
func (c *Controller) Normalize(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", core.ErrInvalidName
	}
	if !core.IsPURL(q) {
		return q, nil
	}

	eco, name, err := core.NameFromPURL(q)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if eco != c.ecosystem {
		return "", fmt.Errorf("%w: %s is not a %s package", ErrInvalidQuery, q, c.ecosystem)
	}
	return name, nil
}

// Submit searches for query and adds the result to the store.
//
// A blank query returns core.ErrInvalidName and leaves the state alone, as
// does a submission while another is loading (ErrBusy). A name already in
// the store moves to the error state without a network call. Otherwise the
// state is loading until the fetch settles, then idle with one new entry or
// error with the generic failure message.
func (c *Controller) Submit(ctx context.Context, query string) error {
	name, normErr := c.Normalize(query)
	if errors.Is(normErr, core.ErrInvalidName) {
		return normErr
	}

	c.mu.Lock()
	if c.state.Status == Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	if normErr != nil {
		c.fail(MsgInvalidQuery)
		c.mu.Unlock()
		c.emit(Event{Name: strings.TrimSpace(query), Result: ResultInvalid, Err: normErr})
		return normErr
	}
	if c.state.Store.Has(name) {
		c.fail(MsgDuplicate)
		c.mu.Unlock()
		err := &core.DuplicateError{Name: name}
		c.emit(Event{Name: name, Result: ResultDuplicate, Err: err})
		return err
	}
	c.state.Status = Loading
	c.state.Message = ""
	c.state.Pending = name
	c.mu.Unlock()

	start := time.Now()
	rec, err := c.fetcher.FetchRecord(ctx, name)
	elapsed := time.Since(start)

	c.mu.Lock()
	c.state.Pending = ""
	if err != nil {
		if !errors.Is(err, core.ErrFetchFailed) {
			err = &core.FetchError{Ecosystem: c.ecosystem, Name: name, Err: err}
		}
		c.fail(MsgFetchFailed)
		c.mu.Unlock()
		c.emit(Event{Name: name, Result: ResultFailed, Err: err, Duration: elapsed})
		return err
	}

	// The entry is keyed by the name that was checked for duplicates above.
	rec.Name = name

	// Merge into the store as it is now, not as it was when the fetch began,
	// so removals made meanwhile are kept.
	next, err := c.state.Store.With(rec)
	if err != nil {
		c.fail(MsgDuplicate)
		c.mu.Unlock()
		c.emit(Event{Name: name, Result: ResultDuplicate, Err: err, Duration: elapsed})
		return err
	}
	c.state.Store = next
	c.state.Status = Idle
	c.state.Message = ""
	c.mu.Unlock()

	c.emit(Event{Name: name, Result: ResultAdded, Duration: elapsed})
	return nil
}

// Remove drops name from the store. Removing an absent name is a no-op.
func (c *Controller) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Store = c.state.Store.Without(name)
}

// Dismiss clears the error banner.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status == Failed {
		c.state.Status = Idle
		c.state.Message = ""
	}
}

// fail must be called with mu held.
func (c *Controller) fail(msg string) {
	c.state.Status = Failed
	c.state.Message = msg
}

func (c *Controller) emit(ev Event) {
	if c.observe != nil {
		c.observe(ev)
	}
}
