package cmd

import (
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// lookupCharset resolves an IANA character set name. It returns a nil
// encoding for UTF-8 (and its aliases), which needs no transcoding.
func lookupCharset(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, ErrCharset.Wrap(err).With(slog.String("charset", name))
	}

	if enc == nil {
		// Known to the index but without an implementation.
		return nil, ErrCharset.With(slog.String("charset", name))
	}

	if canonical, err := ianaindex.IANA.Name(enc); err == nil &&
		strings.EqualFold(canonical, "UTF-8") {
		return nil, nil
	}

	return enc, nil
}

// decodeReader returns r decoded from enc into UTF-8.
func decodeReader(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		return r
	}

	return transform.NewReader(r, enc.NewDecoder())
}

// nopWriteCloser adapts an io.Writer that needs no flushing.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// encodeWriter returns a writer that encodes UTF-8 text written to it with enc
// before passing it to w. It must be closed to flush buffered output. Closing
// it does not close w.
func encodeWriter(w io.Writer, enc encoding.Encoding) io.WriteCloser {
	if enc == nil {
		return nopWriteCloser{w}
	}

	return transform.NewWriter(w, enc.NewEncoder())
}
