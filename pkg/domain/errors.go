package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrFlowNotFound is returned when a loader has no flow for the requested ID.
var ErrFlowNotFound = errors.New("flow not found")

// ErrNoStartNode is returned when a graph has no node without incoming edges.
var ErrNoStartNode = errors.New("graph has no start node")

// ErrSubflowCycle is returned when a flow includes itself through flow nodes.
var ErrSubflowCycle = errors.New("sub-flow cycle detected")

// ErrFormSubmitted is returned when values are applied to a submitted session.
var ErrFormSubmitted = errors.New("form already submitted")
