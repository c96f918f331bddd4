package flowlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxLineSize bounds a single flow-log line.
const maxLineSize = 1 << 20

// ErrLineTooLong is handed to the line handler in place of a line longer than
// maxLineSize. The rest of that line is discarded and reading continues.
var ErrLineTooLong = errors.New("flow log line too long")

// Reader reads flow-log records from a text file, one per line.
type Reader struct {
	file *os.File
	r    io.Reader
}

// NewReader opens the flow-log file at the given path.
func NewReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open flow log file: %w", err)
	}
	return &Reader{file: file, r: file}, nil
}

// NewReaderFrom wraps an already open stream. Close is a no-op for it.
func NewReaderFrom(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// ReadLines calls handle for every line of the stream in file order and returns
// the number of lines read. Oversized lines are reported to handle with
// ErrLineTooLong; only a failing stream stops the read.
func (r *Reader) ReadLines(handle func(line string, err error)) (int, error) {
	br := bufio.NewReaderSize(r.r, 64*1024)
	buf := make([]byte, 0, 64*1024)

	count := 0
	for {
		line, tooLong, err := readLine(br, buf[:0])
		if err != nil && err != io.EOF {
			return count, fmt.Errorf("failed reading flow log at line %d: %w", count+1, err)
		}
		if err == io.EOF && len(line) == 0 && !tooLong {
			return count, nil
		}

		count++
		if tooLong {
			handle("", ErrLineTooLong)
		} else {
			handle(string(line), nil)
		}
		if err == io.EOF {
			return count, nil
		}
		buf = line
	}
}

// readLine reads through the next newline, appending to buf while the line fits
// in maxLineSize. The returned line has its line ending removed.
func readLine(br *bufio.Reader, buf []byte) ([]byte, bool, error) {
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize+2 {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}

		buf = trimLineEnding(buf)
		if len(buf) > maxLineSize {
			tooLong = true
			buf = buf[:0]
		}
		return buf, tooLong, err
	}
}

func trimLineEnding(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}
