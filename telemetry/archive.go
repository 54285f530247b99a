package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// FrameVersion is the archive format version written into each header.
const FrameVersion = 1

// FrameHeader is the first JSON line of an archived frame. It can be read
// without decoding the body.
type FrameHeader struct {
	Version    int    `json:"version"`
	Tick       uint64 `json:"tick"`
	Seed       int64  `json:"seed"`
	Population int    `json:"population"`
}

// ChunkSummary is the per-chunk resource state stored in a frame.
type ChunkSummary struct {
	X             int        `json:"x"`
	Y             int        `json:"y"`
	Totals        [6]float64 `json:"totals"`
	ModifiedCells int        `json:"modified_cells"`
}

// Frame is a full organism snapshot plus chunk summaries for one tick.
type Frame struct {
	Header    FrameHeader     `json:"header"`
	Organisms []OrganismState `json:"organisms"`
	Chunks    []ChunkSummary  `json:"chunks"`
	Ecosystem EcosystemStats  `json:"ecosystem"`
}

// ArchivePath returns the frame path for a tick under an output directory.
func ArchivePath(dir string, tick uint64) string {
	return filepath.Join(dir, "archive", fmt.Sprintf("tick_%08d.json.zst", tick))
}

// WriteFrame writes frame zstd-compressed: a header line followed by the
// JSON-encoded frame.
func WriteFrame(path string, frame Frame) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(frame.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&frame); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadFrame reads a frame written by WriteFrame.
func ReadFrame(path string) (Frame, error) {
	var frame Frame
	f, err := os.Open(path)
	if err != nil {
		return frame, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return frame, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line is repeated inside the body.
	if _, err := br.ReadBytes('\n'); err != nil {
		return frame, fmt.Errorf("reading header: %w", err)
	}
	if err := json.NewDecoder(br).Decode(&frame); err != nil {
		return frame, fmt.Errorf("json decode: %w", err)
	}
	if frame.Header.Version != FrameVersion {
		return frame, fmt.Errorf("unsupported frame version %d", frame.Header.Version)
	}
	return frame, nil
}

// ReadFrameHeader reads only the header line of an archived frame.
func ReadFrameHeader(path string) (FrameHeader, error) {
	var h FrameHeader
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return h, fmt.Errorf("reading header: %w", err)
	}
	if len(line) == 0 {
		return h, errors.New("empty frame")
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("parsing header: %w", err)
	}
	return h, nil
}
