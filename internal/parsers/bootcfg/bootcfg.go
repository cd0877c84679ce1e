// Package bootcfg reads and writes the textual boot image config format: one
// "key = value" pair per line. The same codec backs extracted config files,
// -f config file input and -c command line overrides.
package bootcfg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// Entry is a single key/value pair. Entries are kept in an ordered list and
// applied in order, so later entries override earlier ones.
type Entry struct {
	Key   string
	Value string
}

// ParseLine splits one config line into an entry. Leading whitespace and the
// whitespace around '=' are ignored; the value runs to the end of the line.
func ParseLine(line string) (Entry, error) {
	line = strings.TrimSuffix(line, "\n")

	rest := strings.TrimLeft(line, " \t")
	i := strings.IndexAny(rest, " =\t")
	if i < 0 {
		return Entry{}, fmt.Errorf("%s: bad config entry", rest)
	}

	key := rest[:i]
	rest = strings.TrimLeft(rest[i:], " \t")
	if !strings.HasPrefix(rest, "=") {
		return Entry{}, fmt.Errorf("%s: bad config entry", key)
	}
	value := strings.TrimLeft(rest[1:], " \t")

	return Entry{Key: key, Value: value}, nil
}

// Parse reads entries from a stream, one per line, preserving order.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
	for scanner.Scan() {
		entry, err := ParseLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return entries, nil
}

// ParseFile reads entries from a config file.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Format renders a header plus total image size as config text, in the same
// key order and hex formatting the extract command has always produced, so an
// extracted config feeds back into update unchanged.
func Format(h *types.BootImgHdr, imageSize uint64) []byte {
	buf := &bytes.Buffer{}

	fmt.Fprintf(buf, "bootsize = 0x%x\n", imageSize)
	fmt.Fprintf(buf, "pagesize = 0x%x\n", h.PageSize)

	fmt.Fprintf(buf, "kerneladdr = 0x%x\n", h.KernelAddr)
	fmt.Fprintf(buf, "ramdiskaddr = 0x%x\n", h.RamdiskAddr)
	fmt.Fprintf(buf, "secondaddr = 0x%x\n", h.SecondAddr)
	fmt.Fprintf(buf, "tagsaddr = 0x%x\n", h.TagsAddr)
	fmt.Fprintf(buf, "recoverydtobooffs = 0x%x\n", h.RecoveryDtboOffset)
	fmt.Fprintf(buf, "dtbaddr = 0x%x\n", h.DtbAddr)

	fmt.Fprintf(buf, "name = %s\n", h.NameString())
	fmt.Fprintf(buf, "cmdline = %s\n", h.CmdlineString())

	return buf.Bytes()
}
