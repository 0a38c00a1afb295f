package domain

import "errors"

// ErrNoStartNode is reported when a flow has no node of type start.
var ErrNoStartNode = errors.New("fluxo sem nó inicial")

// ErrNotWaiting is returned when input arrives while the run is not suspended.
var ErrNotWaiting = errors.New("run is not waiting for input")

// ErrNotIdle is returned when Start is called on a run that already started.
var ErrNotIdle = errors.New("run already started")

// ErrBusy is returned when a call arrives while the engine is still processing a step.
var ErrBusy = errors.New("run is busy processing a previous step")

// ErrNodeNotFound is returned when an edge or state points to an unknown node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when two nodes share an id.
var ErrDuplicateNode = errors.New("duplicate node id")

// ErrRunNotFound is returned when a conversation id has no run or archived transcript.
var ErrRunNotFound = errors.New("run not found")
