package probing

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"VoronMonitor/pkg/metrics"
)

const excerptRunes = 60

type logPattern struct {
	key string
	re  *regexp.Regexp
}

var klipperPatterns = []logPattern{
	{"timer_close", regexp.MustCompile(`Timer too close`)},
	{"mcu_shutdown", regexp.MustCompile(`MCU '.*' shutdown`)},
	{"lost_comm", regexp.MustCompile(`Timeout on serial communication`)},
}

// KlipperLogProbe tails klippy.log from a retained byte offset and reports
// firmware errors that appeared since the last cycle. A file smaller than the
// offset is treated as rotated and read again from the start.
type KlipperLogProbe struct {
	path   string
	offset int64
}

// NewKlipperLogProbe starts tailing at the file's current end so history
// written before the monitor started is not reported.
func NewKlipperLogProbe(path string) *KlipperLogProbe {
	p := &KlipperLogProbe{path: path}
	if info, err := os.Stat(path); err == nil {
		p.offset = info.Size()
	}
	return p
}

func (p *KlipperLogProbe) Name() string { return "KlipperLog" }

// Offset is the byte position the next read starts from.
func (p *KlipperLogProbe) Offset() int64 { return p.offset }

func (p *KlipperLogProbe) Check(ctx context.Context) (metrics.Record, error) {
	f, err := os.Open(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size < p.offset {
		p.offset = 0
	}
	if size == p.offset {
		return nil, nil
	}

	if _, err := f.Seek(p.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", p.path, err)
	}
	chunk := io.LimitReader(f, size-p.offset)

	var found []string
	scanner := bufio.NewScanner(chunk)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		for _, pat := range klipperPatterns {
			if pat.re.MatchString(line) {
				found = append(found, pat.key+": "+excerpt(line))
			}
		}
	}
	p.offset = size

	var rec metrics.Record
	if len(found) > 0 {
		rec = metrics.Record{metrics.LogErrors: strings.Join(found, "; ")}
	}
	if err := scanner.Err(); err != nil {
		return rec, fmt.Errorf("read %s: %w", p.path, err)
	}
	return rec, nil
}

func excerpt(line string) string {
	r := []rune(strings.TrimSpace(line))
	if len(r) > excerptRunes {
		r = r[:excerptRunes]
	}
	return string(r)
}
