// Package compliance writes an append-only record of relayed messages.
// Strictly off the hot path: Append never blocks and failures are
// logged locally, never surfaced to the sender.
package compliance

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

type record struct {
	TS   time.Time `json:"ts"`
	Name string    `json:"name"`
	Text string    `json:"text"`
}

// FileSink appends JSON lines to a log file through a buffered channel
// drained by one writer goroutine. A full buffer drops the record.
type FileSink struct {
	ch   chan record
	done chan struct{}
	f    *os.File
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	s := &FileSink{
		ch:   make(chan record, 256),
		done: make(chan struct{}),
		f:    f,
	}
	go s.run()
	log.Info().Str("module", "compliance").Str("path", path).Msg("compliance sink open")
	return s, nil
}

func (s *FileSink) Append(ts time.Time, name, text string) {
	select {
	case s.ch <- record{TS: ts, Name: name, Text: text}:
	default:
		log.Warn().Str("module", "compliance").Msg("sink buffer full, record dropped")
	}
}

// Close stops the writer after draining buffered records.
func (s *FileSink) Close() error {
	close(s.ch)
	<-s.done
	return s.f.Close()
}

func (s *FileSink) run() {
	defer close(s.done)
	enc := json.NewEncoder(s.f)
	for rec := range s.ch {
		if err := enc.Encode(rec); err != nil {
			log.Warn().Err(err).Str("module", "compliance").Msg("append failed")
		}
	}
}

// Discard is the sink used when no compliance log is configured.
type Discard struct{}

func (Discard) Append(time.Time, string, string) {}
