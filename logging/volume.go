package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Volume is the severity of a log entry.
type Volume uint8

const (
	Debug Volume = iota
	Info
	Warning
	Error
	Fatal
)

var volumeNames = [...]string{"DEBUG", "INFO ", "WARN ", "ERROR", "FATAL"}

// Name returns the fixed width name used in text output.
func (v Volume) Name() string {
	if int(v) < len(volumeNames) {
		return volumeNames[v]
	}
	return "?????"
}

func (v Volume) String() string {
	return strings.TrimSpace(v.Name())
}

// ParseVolume accepts the names returned by String, in any case.
func ParseVolume(s string) (Volume, error) {
	for i, name := range volumeNames {
		if strings.EqualFold(strings.TrimSpace(name), s) {
			return Volume(i), nil
		}
	}
	return 0, fmt.Errorf("logging: unknown volume %q", s)
}

// zapLevel maps a volume to a zap level. Fatal maps to ErrorLevel when
// written through a core, so an entry never exits the process.
func (v Volume) zapLevel() zapcore.Level {
	switch v {
	case Debug:
		return zapcore.DebugLevel
	case Info:
		return zapcore.InfoLevel
	case Warning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
