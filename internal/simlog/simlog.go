// Package simlog implements a minimal logiface.Event, modeled on
// logiface-stumpy's byte-buffer-append approach: fields are appended
// directly to a reused byte buffer and flushed as one JSON object per line.
// It exists so the desim kernel can depend on the real
// github.com/joeycumines/logiface facade without pulling in stumpy's full
// feature set (UTF-8 escaping tuning, pooled encoders, etc.), which the
// kernel's low-cardinality event log doesn't need.
package simlog

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

type (
	// Event is a concrete logiface.Event implementation that appends
	// fields to a byte buffer as a single JSON object.
	Event struct {
		logiface.UnimplementedEvent

		lvl logiface.Level
		buf bytes.Buffer
		n   int // number of fields written, for comma placement
	}

	// Writer flushes completed Events to an underlying io.Writer, one JSON
	// object per line.
	Writer struct {
		mu sync.Mutex
		w  io.Writer
	}
)

var eventPool = sync.Pool{New: func() any { return new(Event) }}

func newEvent(level logiface.Level) *Event {
	e := eventPool.Get().(*Event)
	e.lvl = level
	e.buf.Reset()
	e.n = 0
	e.buf.WriteByte('{')
	return e
}

func releaseEvent(e *Event) {
	if e == nil {
		return
	}
	eventPool.Put(e)
}

// Level implements logiface.Event.
func (e *Event) Level() logiface.Level { return e.lvl }

func (e *Event) writeKey(key string) {
	if e.n > 0 {
		e.buf.WriteByte(',')
	}
	e.n++
	e.buf.WriteByte('"')
	e.buf.WriteString(key)
	e.buf.WriteString(`":`)
}

func (e *Event) writeStringValue(s string) {
	b, _ := marshalString(s)
	e.buf.Write(b)
}

// AddField implements logiface.Event.
func (e *Event) AddField(key string, val any) {
	e.writeKey(key)
	e.buf.WriteString(fmt.Sprintf("%q", fmt.Sprint(val)))
}

// AddMessage implements the optional logiface.Event.AddMessage.
func (e *Event) AddMessage(msg string) bool {
	e.writeKey("msg")
	e.writeStringValue(msg)
	return true
}

// AddError implements the optional logiface.Event.AddError.
func (e *Event) AddError(err error) bool {
	e.writeKey("error")
	e.writeStringValue(err.Error())
	return true
}

// AddString implements the optional logiface.Event.AddString.
func (e *Event) AddString(key string, val string) bool {
	e.writeKey(key)
	e.writeStringValue(val)
	return true
}

// AddInt implements the optional logiface.Event.AddInt.
func (e *Event) AddInt(key string, val int) bool {
	e.writeKey(key)
	e.buf.WriteString(strconv.Itoa(val))
	return true
}

// AddInt64 implements the optional logiface.Event.AddInt64.
func (e *Event) AddInt64(key string, val int64) bool {
	e.writeKey(key)
	e.buf.WriteString(strconv.FormatInt(val, 10))
	return true
}

// AddUint64 implements the optional logiface.Event.AddUint64.
func (e *Event) AddUint64(key string, val uint64) bool {
	e.writeKey(key)
	e.buf.WriteString(strconv.FormatUint(val, 10))
	return true
}

// AddFloat64 implements the optional logiface.Event.AddFloat64.
func (e *Event) AddFloat64(key string, val float64) bool {
	e.writeKey(key)
	e.buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	return true
}

// AddFloat32 implements the optional logiface.Event.AddFloat32.
func (e *Event) AddFloat32(key string, val float32) bool {
	e.writeKey(key)
	e.buf.WriteString(strconv.FormatFloat(float64(val), 'g', -1, 32))
	return true
}

// AddBool implements the optional logiface.Event.AddBool.
func (e *Event) AddBool(key string, val bool) bool {
	e.writeKey(key)
	e.buf.WriteString(strconv.FormatBool(val))
	return true
}

// AddDuration implements the optional logiface.Event.AddDuration.
func (e *Event) AddDuration(key string, val time.Duration) bool {
	e.writeKey(key)
	e.writeStringValue(val.String())
	return true
}

// AddTime implements the optional logiface.Event.AddTime.
func (e *Event) AddTime(key string, val time.Time) bool {
	e.writeKey(key)
	e.writeStringValue(val.Format(time.RFC3339Nano))
	return true
}

// AddBase64Bytes implements the optional logiface.Event.AddBase64Bytes.
func (e *Event) AddBase64Bytes(key string, val []byte, enc *base64.Encoding) bool {
	e.writeKey(key)
	e.writeStringValue(enc.EncodeToString(val))
	return true
}

func marshalString(s string) ([]byte, error) {
	return []byte(strconv.Quote(s)), nil
}

// NewWriter wraps w as a logiface.Writer[*Event].
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Write implements logiface.Writer.
func (w *Writer) Write(event *Event) error {
	event.buf.WriteByte('}')
	event.buf.WriteByte('\n')

	w.mu.Lock()
	_, err := w.w.Write(event.buf.Bytes())
	w.mu.Unlock()

	releaseEvent(event)
	return err
}

// Factory implements logiface.EventFactory[*Event].
type Factory struct{}

// NewEvent implements logiface.EventFactory.
func (Factory) NewEvent(level logiface.Level) *Event { return newEvent(level) }

// New builds a ready-to-use logiface.Logger writing JSON lines to w at the
// given minimum level.
func New(w io.Writer, level logiface.Level) *logiface.Logger[*Event] {
	return logiface.New[*Event](
		logiface.WithEventFactory[*Event](Factory{}),
		logiface.WithWriter[*Event](NewWriter(w)),
		logiface.WithLevel[*Event](level),
	)
}
