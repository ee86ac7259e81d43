package watcher

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"grimm.is/portcullis/internal/clock"
	"grimm.is/portcullis/internal/logging"
	"grimm.is/portcullis/internal/metrics"
)

// FileSource follows a text log written by an external packet filter.
// Each line is whitespace-separated: RFC3339 timestamp, source address,
// destination port, token. Lines with a wrong token or malformed fields
// are discarded.
type FileSource struct {
	path   string
	secret string
	logger *logging.Logger
	clk    clock.Clock

	poll   time.Duration
	events chan Event
	done   chan struct{}
}

// NewFileSource creates a source following the given file. The file is
// read from its current end, like tail -f.
func NewFileSource(path, secret string, logger *logging.Logger, clk clock.Clock) *FileSource {
	if clk == nil {
		clk = &clock.RealClock{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FileSource{
		path:   path,
		secret: secret,
		logger: logger.WithComponent("filewatch"),
		clk:    clk,
		poll:   200 * time.Millisecond,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
}

// Start verifies the file is readable and begins following it.
func (s *FileSource) Start() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open knock log: %w", err)
	}

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to seek knock log: %w", err)
	}
	f.Close()

	s.logger.Info("following knock log", "file", s.path)
	go s.follow(offset)
	return nil
}

// Stop terminates the follower and closes the event channel.
func (s *FileSource) Stop() {
	close(s.done)
}

// Events returns the channel knock events arrive on.
func (s *FileSource) Events() <-chan Event {
	return s.events
}

func (s *FileSource) follow(offset int64) {
	defer close(s.events)

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			offset = s.readFrom(offset)
		}
	}
}

// readFrom consumes complete lines appended since offset and returns the
// new offset. Truncation (rotation) restarts from the beginning.
func (s *FileSource) readFrom(offset int64) int64 {
	f, err := os.Open(s.path)
	if err != nil {
		return offset
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return offset
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return offset
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// Partial line without newline stays for the next pass.
			return offset
		}
		offset += int64(len(line))
		s.handleLine(strings.TrimSpace(line))
	}
}

func (s *FileSource) handleLine(line string) {
	if line == "" {
		return
	}

	fields := strings.Fields(line)
	if len(fields) < 4 {
		return
	}

	at, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return
	}
	addr := fields[1]
	port, err := strconv.ParseUint(fields[2], 10, 16)
	if err != nil || port == 0 {
		return
	}
	if s.secret != "" && fields[3] != s.secret {
		s.logger.Debug("line without token discarded", "address", addr)
		return
	}

	metrics.Get().EventsTotal.WithLabelValues("file").Inc()

	select {
	case s.events <- Event{Addr: addr, Port: uint16(port), At: at}:
	default:
		s.logger.Warn("event channel full, knock dropped", "address", addr)
	}
}
