// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 12 // Width for status text
)

// 🔈 Mode selects which messages reach the console
type Mode int

const (
	ModeErrorOnly Mode = iota // errors only, on the error stream
	ModeVerbose               // everything
	ModeQuiet                 // nothing
)

// 🎯 FileOperation represents a written destination for logging
type FileOperation struct {
	Path       string // Destination path
	Source     string // Source path
	Status     string // Operation status
	IsNew      bool   // Whether the destination did not exist
	IsModified bool   // Whether the destination content changed
	IsFailed   bool   // Whether the transformation failed
	Parameters int    // Number of parameters applied
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	out        io.Writer
	errOut     io.Writer
	mode       Mode
	mu         sync.Mutex
	operations []FileOperation
}

// 🏭 New creates a new logger writing info to out and errors to errOut
func New(out, errOut io.Writer, mode Mode, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:   zlog,
		out:    out,
		errOut: errOut,
		mode:   mode,
	}
}

// 🔇 Nop returns a logger that prints nothing
func Nop() *Logger {
	return New(io.Discard, io.Discard, ModeQuiet, zerolog.Nop())
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, or a silent one
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return Nop()
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

func (l *Logger) verbose() bool {
	return l.mode == ModeVerbose
}

func (l *Logger) showErrors() bool {
	return l.mode != ModeQuiet
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsNew:
		symbol = '✓'
		symbolColor = color.FgGreen
	case op.IsModified:
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	line := fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		fmt.Sprintf("%-*s", statusWidth, op.Status))

	if op.Parameters > 0 {
		line += color.New(color.Faint).Sprintf("(%d parameters)", op.Parameters)
	}
	return line
}

// 📝 LogFileOperation logs a written destination
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	if l.verbose() {
		fmt.Fprintln(l.out, l.formatFileOperation(op))
	}

	l.zlog.Info().
		Str("destination", op.Path).
		Str("source", op.Source).
		Str("status", op.Status).
		Bool("is_new", op.IsNew).
		Bool("is_modified", op.IsModified).
		Bool("is_failed", op.IsFailed).
		Int("parameters", op.Parameters).
		Msg("file operation")
}

// 📊 Summary prints a table of every logged file operation
func (l *Logger) Summary() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.verbose() || len(l.operations) == 0 {
		return
	}

	data := pterm.TableData{{"Source", "Destination", "Status"}}
	for _, op := range l.operations {
		data = append(data, []string{op.Source, op.Path, op.Status})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		l.zlog.Debug().Err(err).Msg("rendering summary")
		return
	}
	fmt.Fprintln(l.out, table)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.verbose() {
		cttText := color.New(color.Bold, color.FgCyan).Sprint("ctt")
		fmt.Fprintf(l.out, "\n%s %s\n\n", cttText, color.New(color.Faint).Sprint("• "+msg))
	}
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.verbose() {
		fmt.Fprintf(l.out, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	}
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.verbose() {
		fmt.Fprintf(l.out, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	}
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.showErrors() {
		fmt.Fprintf(l.errOut, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	}
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.verbose() {
		fmt.Fprintf(l.out, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	}
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
