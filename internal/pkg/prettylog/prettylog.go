// Package prettylog provides a consola-style zap encoder for development
// consoles: icon per level, dim timestamps, key=value fields and a delta
// since the previous line.
package prettylog

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	ansiReset   = "\033[0m"
	ansiBlack   = "\033[30m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
	ansiGray    = "\033[90m"
	ansiBgRed   = "\033[41m"
)

// HintKey marks a field that overrides the icon for one entry instead of
// being printed as a key=value pair.
const HintKey = "_pl"

const (
	HintSuccess = "success"
	HintReady   = "ready"
	HintStart   = "start"
)

// SuccessField renders the entry with the success checkmark icon.
func SuccessField() zapcore.Field {
	return zapcore.Field{Key: HintKey, Type: zapcore.StringType, String: HintSuccess}
}

// ReadyField renders the entry with the ready checkmark icon.
func ReadyField() zapcore.Field {
	return zapcore.Field{Key: HintKey, Type: zapcore.StringType, String: HintReady}
}

// StartField renders the entry with the spinner icon.
func StartField() zapcore.Field {
	return zapcore.Field{Key: HintKey, Type: zapcore.StringType, String: HintStart}
}

var lastEntryMs atomic.Int64

func sincePrevious() int64 {
	now := time.Now().UnixMilli()
	prev := lastEntryMs.Swap(now)
	if prev == 0 {
		return 0
	}
	return now - prev
}

var bufPool = buffer.NewPool()

// Encoder is a zapcore.Encoder producing human-oriented console lines.
type Encoder struct {
	color  bool
	fields []kv
}

type kv struct {
	key string
	val string
}

// NewEncoder creates an Encoder. Pass color=true for ANSI output.
func NewEncoder(color bool) zapcore.Encoder {
	return &Encoder{color: color}
}

// ShouldColor honors the NO_COLOR convention.
func ShouldColor() bool {
	return os.Getenv("NO_COLOR") == ""
}

func (e *Encoder) Clone() zapcore.Encoder {
	clone := &Encoder{color: e.color, fields: make([]kv, len(e.fields))}
	copy(clone.fields, e.fields)
	return clone
}

func (e *Encoder) paint(buf *buffer.Buffer, color, text string) {
	if e.color && color != "" {
		buf.AppendString(color)
		buf.AppendString(text)
		buf.AppendString(ansiReset)
		return
	}
	buf.AppendString(text)
}

// EncodeEntry implements zapcore.Encoder.
func (e *Encoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := bufPool.Get()

	hint := ""
	merged := make([]kv, 0, len(e.fields)+len(fields))
	merged = append(merged, e.fields...)
	if len(fields) > 0 {
		tmp := &fieldCollector{}
		for _, f := range fields {
			f.AddTo(tmp)
		}
		merged = append(merged, tmp.fields...)
	}
	printable := merged[:0]
	for _, f := range merged {
		if f.key == HintKey {
			hint = f.val
			continue
		}
		printable = append(printable, f)
	}

	badge := entry.Level >= zapcore.ErrorLevel
	if badge {
		buf.AppendByte('\n')
	}

	e.paint(buf, ansiGray, entry.Time.Format("2006-01-02 15:04:05"))
	buf.AppendByte(' ')

	if badge {
		label := " " + strings.ToUpper(entry.Level.String()) + " "
		if e.color {
			buf.AppendString(ansiBgRed)
			buf.AppendString(ansiBlack)
			buf.AppendString(label)
			buf.AppendString(ansiReset)
		} else {
			buf.AppendString(label)
		}
	} else {
		icon, iconColor := levelIcon(entry.Level, hint)
		e.paint(buf, iconColor, icon)
	}
	buf.AppendByte(' ')

	if entry.LoggerName != "" {
		e.paint(buf, ansiYellow, "["+entry.LoggerName+"]")
		buf.AppendByte(' ')
	}

	buf.AppendString(entry.Message)

	for _, f := range printable {
		buf.AppendByte(' ')
		buf.AppendString(f.key)
		buf.AppendByte('=')
		if needsQuote(f.val) {
			buf.AppendString(strconv.Quote(f.val))
		} else {
			buf.AppendString(f.val)
		}
	}

	if delta := sincePrevious(); delta > 0 {
		e.paint(buf, ansiYellow, fmt.Sprintf(" +%dms", delta))
	}

	if badge {
		buf.AppendByte('\n')
	}
	buf.AppendByte('\n')
	return buf, nil
}

func levelIcon(level zapcore.Level, hint string) (icon string, color string) {
	switch hint {
	case HintSuccess, HintReady:
		return "✔", ansiGreen
	case HintStart:
		return "◐", ansiMagenta
	}
	switch level {
	case zapcore.DebugLevel:
		return "⚙", ansiGray
	case zapcore.WarnLevel:
		return "⚠", ansiYellow
	case zapcore.ErrorLevel, zapcore.FatalLevel, zapcore.DPanicLevel, zapcore.PanicLevel:
		return "✖", ansiRed
	default:
		return "ℹ", ansiCyan
	}
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == ' ' || r == '"' || r == '=' || r == '\n' || r == '\r' || r == '\t' {
			return true
		}
		i += size
	}
	return false
}

func (e *Encoder) addField(key, val string) {
	e.fields = append(e.fields, kv{key: key, val: val})
}

func (e *Encoder) AddArray(key string, arr zapcore.ArrayMarshaler) error {
	enc := &fieldCollector{}
	if err := arr.MarshalLogArray(enc); err != nil {
		return err
	}
	e.addField(key, "["+strings.Join(enc.items, ",")+"]")
	return nil
}

func (e *Encoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	enc := &fieldCollector{}
	if err := obj.MarshalLogObject(enc); err != nil {
		return err
	}
	parts := make([]string, 0, len(enc.fields))
	for _, f := range enc.fields {
		parts = append(parts, f.key+"="+f.val)
	}
	e.addField(key, "{"+strings.Join(parts, " ")+"}")
	return nil
}

func (e *Encoder) AddBinary(key string, val []byte)          { e.addField(key, fmt.Sprintf("%x", val)) }
func (e *Encoder) AddByteString(key string, val []byte)      { e.addField(key, string(val)) }
func (e *Encoder) AddBool(key string, val bool)              { e.addField(key, strconv.FormatBool(val)) }
func (e *Encoder) AddComplex128(key string, val complex128)  { e.addField(key, fmt.Sprint(val)) }
func (e *Encoder) AddComplex64(key string, val complex64)    { e.addField(key, fmt.Sprint(val)) }
func (e *Encoder) AddDuration(key string, val time.Duration) { e.addField(key, val.String()) }
func (e *Encoder) AddFloat64(key string, val float64) {
	e.addField(key, strconv.FormatFloat(val, 'f', -1, 64))
}
func (e *Encoder) AddFloat32(key string, val float32) {
	e.addField(key, strconv.FormatFloat(float64(val), 'f', -1, 32))
}
func (e *Encoder) AddInt(key string, val int)     { e.addField(key, strconv.Itoa(val)) }
func (e *Encoder) AddInt64(key string, val int64) { e.addField(key, strconv.FormatInt(val, 10)) }
func (e *Encoder) AddInt32(key string, val int32) { e.addField(key, strconv.FormatInt(int64(val), 10)) }
func (e *Encoder) AddInt16(key string, val int16) { e.addField(key, strconv.FormatInt(int64(val), 10)) }
func (e *Encoder) AddInt8(key string, val int8)   { e.addField(key, strconv.FormatInt(int64(val), 10)) }
func (e *Encoder) AddString(key string, val string)  { e.addField(key, val) }
func (e *Encoder) AddTime(key string, val time.Time) { e.addField(key, val.Format(time.RFC3339)) }
func (e *Encoder) AddUint(key string, val uint)      { e.addField(key, strconv.FormatUint(uint64(val), 10)) }
func (e *Encoder) AddUint64(key string, val uint64)  { e.addField(key, strconv.FormatUint(val, 10)) }
func (e *Encoder) AddUint32(key string, val uint32) {
	e.addField(key, strconv.FormatUint(uint64(val), 10))
}
func (e *Encoder) AddUint16(key string, val uint16) {
	e.addField(key, strconv.FormatUint(uint64(val), 10))
}
func (e *Encoder) AddUint8(key string, val uint8) {
	e.addField(key, strconv.FormatUint(uint64(val), 10))
}
func (e *Encoder) AddUintptr(key string, val uintptr) { e.addField(key, fmt.Sprintf("0x%x", val)) }
func (e *Encoder) AddReflected(key string, val interface{}) error {
	e.addField(key, fmt.Sprint(val))
	return nil
}
func (e *Encoder) OpenNamespace(key string) {
	for i := range e.fields {
		e.fields[i].key = key + "." + e.fields[i].key
	}
}

// fieldCollector flattens zap fields into printable key=value pairs. It
// serves both as an ObjectEncoder for fields and an ArrayEncoder for
// array-valued fields.
type fieldCollector struct {
	fields []kv
	items  []string
}

func (c *fieldCollector) addField(key, val string) {
	c.fields = append(c.fields, kv{key: key, val: val})
}
func (c *fieldCollector) AddArray(key string, arr zapcore.ArrayMarshaler) error {
	c.addField(key, "<array>")
	return nil
}
func (c *fieldCollector) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	c.addField(key, "<object>")
	return nil
}
func (c *fieldCollector) AddBinary(key string, val []byte)          { c.addField(key, fmt.Sprintf("%x", val)) }
func (c *fieldCollector) AddByteString(key string, val []byte)      { c.addField(key, string(val)) }
func (c *fieldCollector) AddBool(key string, val bool)              { c.addField(key, strconv.FormatBool(val)) }
func (c *fieldCollector) AddComplex128(key string, val complex128)  { c.addField(key, fmt.Sprint(val)) }
func (c *fieldCollector) AddComplex64(key string, val complex64)    { c.addField(key, fmt.Sprint(val)) }
func (c *fieldCollector) AddDuration(key string, val time.Duration) { c.addField(key, val.String()) }
func (c *fieldCollector) AddFloat64(key string, val float64) {
	c.addField(key, strconv.FormatFloat(val, 'f', -1, 64))
}
func (c *fieldCollector) AddFloat32(key string, val float32) {
	c.addField(key, strconv.FormatFloat(float64(val), 'f', -1, 32))
}
func (c *fieldCollector) AddInt(key string, val int)     { c.addField(key, strconv.Itoa(val)) }
func (c *fieldCollector) AddInt64(key string, val int64) { c.addField(key, strconv.FormatInt(val, 10)) }
func (c *fieldCollector) AddInt32(key string, val int32) {
	c.addField(key, strconv.FormatInt(int64(val), 10))
}
func (c *fieldCollector) AddInt16(key string, val int16) {
	c.addField(key, strconv.FormatInt(int64(val), 10))
}
func (c *fieldCollector) AddInt8(key string, val int8) {
	c.addField(key, strconv.FormatInt(int64(val), 10))
}
func (c *fieldCollector) AddString(key string, val string) { c.addField(key, val) }
func (c *fieldCollector) AddTime(key string, val time.Time) {
	c.addField(key, val.Format(time.RFC3339))
}
func (c *fieldCollector) AddUint(key string, val uint) {
	c.addField(key, strconv.FormatUint(uint64(val), 10))
}
func (c *fieldCollector) AddUint64(key string, val uint64) {
	c.addField(key, strconv.FormatUint(val, 10))
}
func (c *fieldCollector) AddUint32(key string, val uint32) {
	c.addField(key, strconv.FormatUint(uint64(val), 10))
}
func (c *fieldCollector) AddUint16(key string, val uint16) {
	c.addField(key, strconv.FormatUint(uint64(val), 10))
}
func (c *fieldCollector) AddUint8(key string, val uint8) {
	c.addField(key, strconv.FormatUint(uint64(val), 10))
}
func (c *fieldCollector) AddUintptr(key string, val uintptr) {
	c.addField(key, fmt.Sprintf("0x%x", val))
}
func (c *fieldCollector) AddReflected(key string, val interface{}) error {
	c.addField(key, fmt.Sprint(val))
	return nil
}
func (c *fieldCollector) OpenNamespace(_ string) {}

func (c *fieldCollector) AppendBool(v bool)              { c.items = append(c.items, strconv.FormatBool(v)) }
func (c *fieldCollector) AppendByteString(v []byte)      { c.items = append(c.items, string(v)) }
func (c *fieldCollector) AppendComplex128(v complex128)  { c.items = append(c.items, fmt.Sprint(v)) }
func (c *fieldCollector) AppendComplex64(v complex64)    { c.items = append(c.items, fmt.Sprint(v)) }
func (c *fieldCollector) AppendDuration(v time.Duration) { c.items = append(c.items, v.String()) }
func (c *fieldCollector) AppendFloat64(v float64) {
	c.items = append(c.items, strconv.FormatFloat(v, 'f', -1, 64))
}
func (c *fieldCollector) AppendFloat32(v float32) {
	c.items = append(c.items, strconv.FormatFloat(float64(v), 'f', -1, 32))
}
func (c *fieldCollector) AppendInt(v int)     { c.items = append(c.items, strconv.Itoa(v)) }
func (c *fieldCollector) AppendInt64(v int64) { c.items = append(c.items, strconv.FormatInt(v, 10)) }
func (c *fieldCollector) AppendInt32(v int32) {
	c.items = append(c.items, strconv.FormatInt(int64(v), 10))
}
func (c *fieldCollector) AppendInt16(v int16) {
	c.items = append(c.items, strconv.FormatInt(int64(v), 10))
}
func (c *fieldCollector) AppendInt8(v int8) {
	c.items = append(c.items, strconv.FormatInt(int64(v), 10))
}
func (c *fieldCollector) AppendString(v string)  { c.items = append(c.items, v) }
func (c *fieldCollector) AppendTime(v time.Time) { c.items = append(c.items, v.Format(time.RFC3339)) }
func (c *fieldCollector) AppendUint(v uint) {
	c.items = append(c.items, strconv.FormatUint(uint64(v), 10))
}
func (c *fieldCollector) AppendUint64(v uint64) { c.items = append(c.items, strconv.FormatUint(v, 10)) }
func (c *fieldCollector) AppendUint32(v uint32) {
	c.items = append(c.items, strconv.FormatUint(uint64(v), 10))
}
func (c *fieldCollector) AppendUint16(v uint16) {
	c.items = append(c.items, strconv.FormatUint(uint64(v), 10))
}
func (c *fieldCollector) AppendUint8(v uint8) {
	c.items = append(c.items, strconv.FormatUint(uint64(v), 10))
}
func (c *fieldCollector) AppendUintptr(v uintptr) { c.items = append(c.items, fmt.Sprintf("0x%x", v)) }
func (c *fieldCollector) AppendReflected(v interface{}) error {
	c.items = append(c.items, fmt.Sprint(v))
	return nil
}
func (c *fieldCollector) AppendArray(v zapcore.ArrayMarshaler) error { return v.MarshalLogArray(c) }
func (c *fieldCollector) AppendObject(v zapcore.ObjectMarshaler) error {
	c.items = append(c.items, "<object>")
	return nil
}
