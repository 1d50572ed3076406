package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type entry struct {
	logger *log.Logger
	writer io.Writer
	file   *os.File
}

var (
	mu          sync.Mutex
	initialized bool
	logDir      string
	loggers     map[string]*entry
)

// Init configures the log directory and points the standard logger at the
// app log. Each named logger writes to stdout and to yy.mm_<name>.log.
func Init(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	logDir = dir
	loggers = make(map[string]*entry)
	initialized = true

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	appEntry, err := buildLoggerLocked("app")
	if err != nil {
		log.SetOutput(timeWriter{w: os.Stdout})
		log.SetFlags(0)
		return err
	}

	loggers["app"] = appEntry
	log.SetOutput(appEntry.writer)
	log.SetFlags(0)
	return nil
}

// Get returns the logger for name, creating its file on first use. Before
// Init it logs to stdout only.
func Get(name string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if !initialized {
		return log.New(timeWriter{w: os.Stdout}, fmt.Sprintf("[%s] ", name), 0)
	}

	if entry := loggers[name]; entry != nil {
		return entry.logger
	}

	entry, err := buildLoggerLocked(name)
	if err != nil {
		return log.New(timeWriter{w: os.Stdout}, fmt.Sprintf("[%s] ", name), 0)
	}
	loggers[name] = entry
	return entry.logger
}

// Close releases all log files and restores stdout logging.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	initialized = false
	log.SetOutput(timeWriter{w: os.Stdout})
}

func closeLocked() {
	for _, e := range loggers {
		if e.file != nil {
			e.file.Close()
		}
	}
	loggers = nil
}

func buildLoggerLocked(name string) (*entry, error) {
	suffix := time.Now().Format("06.01") // yy.mm
	filename := suffix + "_" + name + ".log"
	path := filepath.Join(logDir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	writer := io.MultiWriter(os.Stdout, file)
	logger := log.New(timeWriter{w: writer}, "", 0)
	return &entry{logger: logger, writer: writer, file: file}, nil
}

// KV formats fields as space separated key=value pairs in key order.
// Values containing spaces or quotes are quoted.
func KV(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprint(fields[k])
		if v == "" || strings.ContainsAny(v, " \t\"=") {
			v = fmt.Sprintf("%q", v)
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

type timeWriter struct {
	w io.Writer
}

func (t timeWriter) Write(p []byte) (int, error) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	lines := strings.Split(string(p), "\n")
	total := 0
	for i, line := range lines {
		if line == "" && i == len(lines)-1 {
			continue
		}
		entry := ts + ", " + line
		if i < len(lines)-1 {
			entry += "\n"
		}
		n, err := t.w.Write([]byte(entry))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
