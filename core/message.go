package core

import "fmt"

// Message defers building the log text until an event is dispatched.
// Render must be pure: calling it any number of times yields the same text.
type Message interface {
	Render() string
}

// formatMessage holds a printf-style template and its positional arguments.
type formatMessage struct {
	format string
	args   []any
}

// NewMessage returns a Message rendered with fmt.Sprintf on first use.
// Without arguments the format string is returned verbatim.
func NewMessage(format string, args ...any) Message {
	return formatMessage{format: format, args: args}
}

func (m formatMessage) Render() string {
	if len(m.args) == 0 {
		return m.format
	}
	return fmt.Sprintf(m.format, m.args...)
}

func (m formatMessage) String() string {
	return m.Render()
}

// Text is a Message that is already rendered.
type Text string

// Render returns the text unchanged
func (t Text) Render() string {
	return string(t)
}

// fieldsMessage renders a message followed by key=value pairs.
type fieldsMessage struct {
	msg    string
	fields []Field
}

// NewFieldsMessage returns a Message that renders as "msg key=value ...".
// The fields slice is copied so the caller may reuse it.
func NewFieldsMessage(msg string, fields ...Field) Message {
	if len(fields) == 0 {
		return Text(msg)
	}
	fs := make([]Field, len(fields))
	copy(fs, fields)
	return fieldsMessage{msg: msg, fields: fs}
}

func (m fieldsMessage) Render() string {
	buf := make([]byte, 0, len(m.msg)+16*len(m.fields))
	buf = append(buf, m.msg...)
	for _, f := range m.fields {
		buf = f.AppendTo(buf)
	}
	return string(buf)
}
