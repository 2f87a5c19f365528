package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
)

// HistoryLogger appends one JSON object per line.
type HistoryLogger struct {
	w io.Writer
}

func NewHistoryLogger(w io.Writer) *HistoryLogger {
	return &HistoryLogger{w: w}
}

func OpenHistory(path string) (*HistoryLogger, func() error, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return NewHistoryLogger(file), file.Close, nil
}

func (l *HistoryLogger) Append(record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = l.w.Write(append(data, '\n'))
	return err
}

// AppendHistory opens path, appends record and closes it again.
func AppendHistory(path string, record any) error {
	history, closeFn, err := OpenHistory(path)
	if err != nil {
		return err
	}
	if err := history.Append(record); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}
