package runtimelog

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charlesshaw3/SimpleServers/internal/metrics"
	"github.com/charlesshaw3/SimpleServers/pkg/log"
)

// DefaultWindow is the default number of trailing log bytes scanned per read.
const DefaultWindow = 2 * 1024 * 1024

// ReadWindow returns up to the last maxBytes of the file at path. When the file is larger than the
// window, any partial line at the start of the window is dropped. Any failure yields empty text.
func ReadWindow(path string, maxBytes int64) string {
	file, errOpen := os.Open(path)
	if errOpen != nil {
		if !errors.Is(errOpen, fs.ErrNotExist) {
			degradedLog(path, errOpen)
		}

		return ""
	}

	defer log.Closer(file)

	info, errStat := file.Stat()
	if errStat != nil {
		degradedLog(path, errStat)

		return ""
	}

	// Reading from one byte before the window tells us whether the window starts on a line boundary.
	offset := int64(0)
	if maxBytes > 0 && info.Size() > maxBytes {
		offset = info.Size() - maxBytes - 1
	}

	body, errRead := io.ReadAll(io.NewSectionReader(file, offset, info.Size()-offset))
	if errRead != nil {
		degradedLog(path, errRead)

		return ""
	}

	if offset > 0 {
		if newline := bytes.IndexByte(body, '\n'); newline >= 0 {
			body = body[newline+1:]
		} else {
			body = nil
		}
	}

	return string(body)
}

func degradedLog(path string, err error) {
	slog.Warn("Runtime log unreadable, skipping", slog.String("path", path), log.ErrAttr(err))
	metrics.DegradedRead(filepath.Base(path))
}
