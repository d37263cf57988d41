// Package report renders cache statistics and tag store dumps.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sarchlab/cachesim/cache"
)

const separator = "------------------------------"

// PrintStats writes the counters of a cache in a human-readable form.
func PrintStats(w io.Writer, name string, stats cache.Stats) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, separator)
	fmt.Fprintf(bw, "%s Hit Rate: %s %% \n", name, formatPercent(stats.HitRate()))
	fmt.Fprintln(bw, separator)
	fmt.Fprintf(bw, "number of accesses: %d\n", stats.Accesses)
	fmt.Fprintf(bw, "number of hits: %d\n", stats.Hits)
	fmt.Fprintf(bw, "number of misses: %d\n", stats.Misses)
	fmt.Fprintf(bw, "number of writes: %d\n", stats.Writes)
	fmt.Fprintf(bw, "number of writebacks: %d\n", stats.Writebacks)

	return bw.Flush()
}

func formatPercent(rate float64) string {
	return strconv.FormatFloat(rate*100, 'g', 6, 64)
}

// DumpTagStore writes every set of the snapshot on its own row. The ways in
// a row are ordered as in the snapshot, from MRU to LRU.
func DumpTagStore(w io.Writer, snapshot cache.TagStoreSnapshot) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, separator)
	fmt.Fprintf(bw, "%s Tag Store\n", snapshot.Name)
	fmt.Fprintln(bw, separator)

	for _, set := range snapshot.Sets {
		for _, l := range set.Lines {
			fmt.Fprintf(bw, "[%d, %d, %10x] ", b2i(l.Valid), b2i(l.Dirty), l.Tag)
		}

		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

// DumpTagStoreToFile writes the dump into <dir>/<name>.dump and returns the
// path of the file.
func DumpTagStoreToFile(
	dir string,
	snapshot cache.TagStoreSnapshot,
) (path string, err error) {
	path = filepath.Join(dir, snapshot.Name+".dump")

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	err = DumpTagStore(f, snapshot)

	return path, err
}

func b2i(b bool) int {
	if b {
		return 1
	}

	return 0
}
