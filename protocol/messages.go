// SPDX-License-Identifier: EPL-2.0

package protocol

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ik5/sonix/waveform"
)

// Message is the tagged union carried between the pool and its
// workers. Concrete envelopes are the only values that cross that
// boundary; the receiver owns a payload after it is sent.
type Message interface {
	isMessage()
	Header() Envelope
}

// Envelope is the header every message carries.
type Envelope struct {
	ID        string
	Timestamp time.Time
}

func (e Envelope) Header() Envelope { return e }

var msgCounter atomic.Uint64

// NewEnvelope allocates a process-unique envelope header.
func NewEnvelope() Envelope {
	return Envelope{
		ID:        fmt.Sprintf("msg-%d", msgCounter.Add(1)),
		Timestamp: time.Now(),
	}
}

// Request asks a worker to process one file.
type Request struct {
	Envelope
	RequestID     string
	FilePath      string
	Config        ProcessingConfig
	StreamResults bool
}

// Response is the single terminal answer for a request.
type Response struct {
	Envelope
	RequestID  string
	Waveform   *waveform.Data
	Error      string
	ErrorType  ErrorType
	IsComplete bool
	Cancelled  bool
}

// Progress is an optional intermediate update for a request.
// PartialData carries the amplitudes reduced so far when streaming.
type Progress struct {
	Envelope
	RequestID     string
	Progress      float64
	StatusMessage string
	PartialData   []float64
}

// ErrorMessage reports a fatal worker-level failure, such as a failed
// subsystem initialization. Job-level failures use Response instead.
type ErrorMessage struct {
	Envelope
	RequestID    string
	ErrorMessage string
	ErrorType    ErrorType
	StackTrace   string
}

// Cancellation advises a worker to stop the named request at its next
// checkpoint.
type Cancellation struct {
	Envelope
	RequestID string
}

// Heartbeat is the worker's periodic liveness signal. The first
// heartbeat doubles as the ready signal after startup.
type Heartbeat struct {
	Envelope
	WorkerID int
}

// Shutdown asks a worker to exit after its current job.
type Shutdown struct {
	Envelope
}

func (Request) isMessage()      {}
func (Response) isMessage()     {}
func (Progress) isMessage()     {}
func (ErrorMessage) isMessage() {}
func (Cancellation) isMessage() {}
func (Heartbeat) isMessage()    {}
func (Shutdown) isMessage()     {}
