package logger

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// prettyEncoder renders colorized single-line headers with indented JSON
// blocks for structured fields. Intended for local development only.
type prettyEncoder struct {
	zapcore.Encoder
	console zapcore.Encoder
	json    zapcore.Encoder
	pool    buffer.Pool
}

func newPrettyZap(level zap.AtomicLevel) *zap.Logger {
	enc := newPrettyEncoder(encoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level)
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(os.Stderr)))
}

func newPrettyEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	console := zapcore.NewConsoleEncoder(cfg)
	return &prettyEncoder{
		Encoder: console,
		console: console,
		json:    zapcore.NewJSONEncoder(cfg),
		pool:    buffer.NewPool(),
	}
}

// Clone keeps derived loggers on the pretty encoder.
func (e *prettyEncoder) Clone() zapcore.Encoder {
	return &prettyEncoder{
		Encoder: e.Encoder.Clone(),
		console: e.console.Clone(),
		json:    e.json.Clone(),
		pool:    e.pool,
	}
}

func (e *prettyEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	header, err := e.console.EncodeEntry(entry, nil)
	if err != nil {
		return nil, err
	}

	line := colorizeLevel(strings.TrimRight(header.String(), "\n"), entry.Level)

	if len(fields) > 0 {
		block, blockErr := e.fieldsBlock(entry, fields)
		if blockErr != nil {
			return nil, blockErr
		}
		if block != "" {
			line += "\n" + block
		}
	}

	buf := e.pool.Get()
	buf.AppendString(line)
	buf.AppendString("\n")
	return buf, nil
}

// fieldsBlock renders the structured fields as indented JSON, dropping the
// keys already shown in the header line.
func (e *prettyEncoder) fieldsBlock(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	raw, err := e.json.EncodeEntry(entry, fields)
	if err != nil {
		return "", err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw.Bytes(), &payload); err != nil {
		return strings.TrimSpace(raw.String()), nil //nolint:nilerr // fall back to the raw line
	}

	for _, k := range []string{messageKey, levelKey, nameKey, timeKey} {
		delete(payload, k)
	}
	if len(payload) == 0 {
		return "", nil
	}

	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return strings.TrimSpace(raw.String()), nil //nolint:nilerr // fall back to the raw line
	}
	return string(pretty), nil
}

func colorizeLevel(line string, level zapcore.Level) string {
	var c *color.Color

	switch level {
	case zapcore.DebugLevel:
		c = color.New(color.FgCyan)
	case zapcore.InfoLevel:
		c = color.New(color.FgGreen)
	case zapcore.WarnLevel:
		c = color.New(color.FgYellow)
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		c = color.New(color.FgRed, color.Bold)
	case zapcore.InvalidLevel:
		c = color.New(color.FgMagenta)
	default:
		return line
	}

	capital := level.CapitalString()
	if strings.Contains(line, capital) {
		return strings.Replace(line, capital, c.Sprint(capital), 1)
	}
	return line
}
