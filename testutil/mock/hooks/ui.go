// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package hooks

import "sync"

// Message is a single message received by a RecordingUI.
type Message struct {
	Level string
	Text  string
}

// RecordingUI keeps every message it is given.
type RecordingUI struct {
	l        sync.Mutex
	Messages []Message
}

func NewRecordingUI() *RecordingUI {
	return &RecordingUI{}
}

func (r *RecordingUI) Info(msg string)    { r.add("info", msg) }
func (r *RecordingUI) Success(msg string) { r.add("success", msg) }
func (r *RecordingUI) Warn(msg string)    { r.add("warn", msg) }

// Levels returns the level of every recorded message in order.
func (r *RecordingUI) Levels() []string {
	r.l.Lock()
	defer r.l.Unlock()

	levels := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		levels = append(levels, m.Level)
	}

	return levels
}

func (r *RecordingUI) add(level, msg string) {
	r.l.Lock()
	defer r.l.Unlock()
	r.Messages = append(r.Messages, Message{Level: level, Text: msg})
}
