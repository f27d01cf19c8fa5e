// Package handler implements the per-image double-buffer state machine
// that threads one image through a sequence of workers.
//
// The handler alternates between two sibling temp files so a pipeline of k
// successful steps allocates at most two temp files instead of k, and the
// original file is never written. Result always points at the latest file
// produced by a successful step.
package handler

import (
	"imageoptim/internal/imagepath"
)

// Handler drives one image through successive worker applications. Not
// safe for concurrent use; each image gets its own Handler.
type Handler struct {
	original *imagepath.Path
	src      *imagepath.Path
	dst      *imagepath.Path
	result   *imagepath.Path

	// temps tracks every temp file this handler allocated. With the
	// double-buffer alternation it never grows past two entries.
	temps []*imagepath.Path
}

// New starts a handler reading from original.
func New(original *imagepath.Path) *Handler {
	return &Handler{original: original, src: original}
}

// Process runs one worker application as a transition: fn receives the
// current source and a destination temp path and reports success. On
// success the destination becomes the new result and the buffers advance;
// on failure the allocated destination is kept for reuse by the next step.
func (h *Handler) Process(fn func(src, dst string) bool) bool {
	if h.dst == nil {
		h.dst = h.original.TempPath()
		h.temps = append(h.temps, h.dst)
	}

	if !fn(h.src.String(), h.dst.String()) {
		return false
	}

	h.result = h.dst
	if h.src == h.original {
		// First success: the produced temp becomes the source and the
		// second buffer is allocated lazily on the next call.
		h.src = h.dst
		h.dst = nil
	} else {
		h.src, h.dst = h.dst, h.src
	}
	return true
}

// Result returns the latest successful output, or nil if no step
// succeeded. The file is owned by the handler until Cleanup runs.
func (h *Handler) Result() *imagepath.Path {
	return h.result
}

// Cleanup unlinks every temp file the handler owns except the result,
// which is left for the caller to consume or rename. Safe to call on all
// exit paths, including cancellation, and more than once.
func (h *Handler) Cleanup() error {
	var firstErr error
	remaining := h.temps[:0]
	for _, temp := range h.temps {
		if temp == h.result {
			remaining = append(remaining, temp)
			continue
		}
		if err := temp.Remove(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	h.temps = remaining
	h.dst = nil
	return firstErr
}

// Discard unlinks every temp file including the result. Used when the
// engine decides the pipeline produced no improvement.
func (h *Handler) Discard() error {
	h.result = nil
	return h.Cleanup()
}
