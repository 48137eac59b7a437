// Package feedback builds the logger handles every nimph run threads
// through its context: console output mirrored into a per-run log file, a
// file-only debug stream, and generated run ids so log files from separate
// invocations never collide.
package feedback

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/xid"

	"github.com/saem/nimph/internal/fs"
)

const infoPrefix = "[INFO]  "
const warnPrefix = "[WARN]  "
const debugPrefix = "[DEBUG] "

// Loggers carries the output handles for one run. Callers build it once at
// startup and pass the individual loggers down; nothing here is global.
type Loggers struct {
	RunID string
	Path  string
	Out   *log.Logger
	Err   *log.Logger
	Debug *log.Logger

	file *os.File
}

// New opens the run log file under logDir and wires the console writers to
// mirror into it. The debug stream writes to the file only.
func New(stdout, stderr io.Writer, logDir string) (*Loggers, error) {
	runID := xid.New().String()
	path := filepath.Join(logDir, fmt.Sprintf("%s-%s.log", time.Now().Format("2006-01-02-150405"), runID))

	if err := fs.EnsureDir(logDir, 0777); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	return &Loggers{
		RunID: runID,
		Path:  path,
		Out:   log.New(io.MultiWriter(stdout, f), infoPrefix, 0),
		Err:   log.New(io.MultiWriter(stderr, f), warnPrefix, 0),
		Debug: log.New(f, debugPrefix, log.Lmicroseconds|log.LUTC),
		file:  f,
	}, nil
}

// Discard returns loggers that write console output only, for tests and
// for degraded startup when the log directory is unusable.
func Discard(stdout, stderr io.Writer) *Loggers {
	return &Loggers{
		RunID: xid.New().String(),
		Out:   log.New(stdout, infoPrefix, 0),
		Err:   log.New(stderr, warnPrefix, 0),
		Debug: log.New(io.Discard, debugPrefix, 0),
	}
}

// Close flushes and closes the underlying log file, if any.
func (l *Loggers) Close() {
	if l.file != nil {
		l.file.Close()
	}
}
