package installer

import (
	"context"
	"io"

	"github.com/oshokin/cursor-launcher/internal/logger"
)

const (
	// percentStep throttles progress lines to one per 10% when the size is known.
	percentStep = 10

	// indeterminateStep throttles progress lines to one per 8 MiB otherwise.
	indeterminateStep = 8 * 1024 * 1024

	percentTotal = 100
)

// progressReader reports download progress as chunks arrive.
// With a known total it logs percentage steps; without one it degrades
// to byte counts.
type progressReader struct {
	ctx    context.Context
	reader io.Reader
	total  int64
	read   int64
	// lastReport is the last percent (or byte offset) already reported.
	lastReport int64
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.report()
	}

	return n, err
}

func (p *progressReader) report() {
	if p.total > 0 {
		percent := p.read * percentTotal / p.total
		if percent >= p.lastReport+percentStep {
			p.lastReport = percent
			logger.InfoKV(p.ctx, "Download progress",
				"percent", percent, "bytes", p.read, "total", p.total)
		}

		return
	}

	if p.read >= p.lastReport+indeterminateStep {
		p.lastReport = p.read
		logger.InfoKV(p.ctx, "Download progress", "bytes", p.read)
	}
}
