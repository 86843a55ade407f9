package voice

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const (
	DefaultMicCommand    = "arecord"
	DefaultPlayerCommand = "play"
)

// CommandMicrophone records through an external program writing raw PCM to
// stdout (arecord or sox rec)
type CommandMicrophone struct {
	Command string
}

// micArgs returns the arguments that make name emit 16-bit mono PCM
func micArgs(name string) []string {
	rate := strconv.Itoa(SampleRate)
	switch filepath.Base(name) {
	case "rec", "sox":
		args := []string{"-q", "-t", "raw", "-b", "16", "-e", "signed-integer", "-r", rate, "-c", "1", "-"}
		if filepath.Base(name) == "sox" {
			args = append([]string{"-d"}, args...)
		}
		return args
	default:
		return []string{"-q", "-f", "S16_LE", "-r", rate, "-c", "1", "-t", "raw"}
	}
}

// Open starts the recorder and waits for the first audio bytes, so a missing
// or busy device is reported here rather than as silence
func (m *CommandMicrophone) Open(ctx context.Context) (io.ReadCloser, error) {
	name := m.Command
	if name == "" {
		name = DefaultMicCommand
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("recorder %q not found: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, path, micArgs(name)...)
	stderr := &limitedBuffer{limit: 4096}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recorder: %w", err)
	}

	reader := bufio.NewReaderSize(stdout, audioChunkSize)
	if _, err := reader.Peek(1); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("recorder produced no audio: %s", strings.TrimSpace(stderr.String()))
	}

	return &commandStream{cmd: cmd, reader: reader}, nil
}

// Available reports whether the recorder program can be found
func (m *CommandMicrophone) Available() bool {
	name := m.Command
	if name == "" {
		name = DefaultMicCommand
	}
	_, err := exec.LookPath(name)
	return err == nil
}

type commandStream struct {
	cmd    *exec.Cmd
	reader io.Reader
	once   sync.Once
}

func (s *commandStream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *commandStream) Close() error {
	var err error
	s.once.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		err = s.cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Killed on purpose.
			err = nil
		}
	})
	return err
}

// CommandPlayer plays raw PCM through an external program reading stdin
// (sox play or aplay). Rate and pitch are applied only by sox.
type CommandPlayer struct {
	Command string
}

func playerArgs(name string, format AudioFormat, opts SpeakOptions) []string {
	rate := strconv.Itoa(format.SampleRate)
	channels := strconv.Itoa(format.Channels)

	switch filepath.Base(name) {
	case "aplay":
		return []string{"-q", "-f", "S16_LE", "-r", rate, "-c", channels, "-t", "raw", "-"}
	default:
		args := []string{"-q", "-t", "raw", "-b", "16", "-e", "signed-integer", "-r", rate, "-c", channels, "-"}
		if opts.Rate > 0 && opts.Rate != 1 {
			args = append(args, "tempo", strconv.FormatFloat(opts.Rate, 'f', 2, 64))
		}
		if opts.Pitch > 0 && opts.Pitch != 1 {
			// 0..2 maps to -1200..+1200 cents, one octave either way.
			cents := (opts.Pitch - 1) * 1200
			args = append(args, "pitch", strconv.FormatFloat(cents, 'f', 0, 64))
		}
		return args
	}
}

// Play implements Player
func (p *CommandPlayer) Play(ctx context.Context, pcm []byte, format AudioFormat, opts SpeakOptions) error {
	name := p.Command
	if name == "" {
		name = DefaultPlayerCommand
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("player %q not found: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, path, playerArgs(name, format, opts)...)
	cmd.Stdin = bytes.NewReader(pcm)
	stderr := &limitedBuffer{limit: 4096}
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Available reports whether the player program can be found
func (p *CommandPlayer) Available() bool {
	name := p.Command
	if name == "" {
		name = DefaultPlayerCommand
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// limitedBuffer keeps the first limit bytes written to it
type limitedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
