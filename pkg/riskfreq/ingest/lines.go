package ingest

import "bytes"

// splitLines is a bufio.SplitFunc that ends lines at "\r\n", "\r" or "\n".
// A line longer than limit is cut to its first limit bytes and the rest of it is
// skipped, so an oversized line never fails the read.
func splitLines(limit int) func(data []byte, atEOF bool) (int, []byte, error) {
	skipping := false
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}

		if i := bytes.IndexAny(data, "\r\n"); i >= 0 && i < limit {
			advance := i + 1
			if data[i] == '\r' {
				switch {
				case i+1 < len(data):
					if data[i+1] == '\n' {
						advance++
					}
				case !atEOF && len(data) < limit:
					// need one more byte to tell "\r" from "\r\n"
					return 0, nil, nil
				}
			}
			if skipping {
				skipping = false
				return advance, nil, nil
			}
			return advance, data[:i], nil
		}

		if len(data) >= limit {
			if skipping {
				return limit, nil, nil
			}
			skipping = true
			return limit, data[:limit], nil
		}
		if atEOF {
			if skipping {
				skipping = false
				return len(data), nil, nil
			}
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
