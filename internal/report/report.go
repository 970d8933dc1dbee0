// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package report fans the thermometer's text lines and readings out to the
// configured outputs (console, serial link, MQTT, display, WebSocket).
package report

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/relabs-tech/bmp180_thermometer/internal/env"
)

// Sink accepts human-readable lines.
type Sink interface {
	WriteLine(line string) error
}

// SamplePublisher accepts structured readings.
type SamplePublisher interface {
	PublishSample(s env.Sample) error
}

// Reporter forwards every line to all sinks and every sample to all
// publishers. A failing output is logged and skipped; reporting never stops
// acquisition.
type Reporter struct {
	mu         sync.Mutex
	sinks      []Sink
	publishers []SamplePublisher
	closers    []io.Closer
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// AddSink registers s for lines. If s also publishes samples or can be
// closed, it is registered for those too.
func (r *Reporter) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
	r.track(s)
}

// AddPublisher registers p for samples only.
func (r *Reporter) AddPublisher(p SamplePublisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers = append(r.publishers, p)
	if c, ok := p.(io.Closer); ok {
		r.closers = append(r.closers, c)
	}
}

func (r *Reporter) track(s Sink) {
	if p, ok := s.(SamplePublisher); ok {
		r.publishers = append(r.publishers, p)
	}
	if c, ok := s.(io.Closer); ok {
		r.closers = append(r.closers, c)
	}
}

// Linef formats a line and writes it to every sink.
func (r *Reporter) Linef(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sinks {
		if err := s.WriteLine(line); err != nil {
			log.Printf("report: %T: %v", s, err)
		}
	}
}

// Publish sends s to every publisher.
func (r *Reporter) Publish(s env.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.publishers {
		if err := p.PublishSample(s); err != nil {
			log.Printf("report: %T: %v", p, err)
		}
	}
}

// Close closes every output that holds a resource.
func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Writer is a Sink over any io.Writer, terminating each line with EOL.
type Writer struct {
	w   io.Writer
	eol string
	c   io.Closer
}

// NewWriter returns a Sink that does not close w.
func NewWriter(w io.Writer, eol string) *Writer {
	return &Writer{w: w, eol: eol}
}

func (w *Writer) WriteLine(line string) error {
	_, err := io.WriteString(w.w, line+w.eol)
	return err
}

func (w *Writer) Close() error {
	if w.c == nil {
		return nil
	}
	return w.c.Close()
}
