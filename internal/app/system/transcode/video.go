package transcode

import (
	"context"
	"fmt"
	"os"

	execute "github.com/alexellis/go-execute/v2"
	"go.uber.org/zap"
)

// transcodeVideo writes data to a scoped temporary input file, invokes the
// external transcoder at the target bitrate, and reads back the temporary
// output file. Both temp files are removed on every exit path, including
// transcoder failure and timeout.
func (s *Service) transcodeVideo(ctx context.Context, data []byte, inExt, outFormat string, bitrateKbps int) ([]byte, error) {
	in, err := os.CreateTemp("", "video_input_*."+safeExt(inExt))
	if err != nil {
		return nil, fmt.Errorf("creating temp input: %w", err)
	}
	defer os.Remove(in.Name())

	if _, err := in.Write(data); err != nil {
		in.Close()
		return nil, fmt.Errorf("writing temp input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("closing temp input: %w", err)
	}

	out, err := os.CreateTemp("", "video_output_*."+safeExt(outFormat))
	if err != nil {
		return nil, fmt.Errorf("creating temp output: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	if s.ffmpegTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ffmpegTimeout)
		defer cancel()
	}

	task := execute.ExecTask{
		Command: s.ffmpegPath,
		Args: []string{
			"-y",
			"-i", in.Name(),
			"-b:v", fmt.Sprintf("%dk", bitrateKbps),
			outPath,
		},
		StreamStdio: false,
	}

	res, err := task.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcoder: %w", err)
	}
	if res.ExitCode != 0 {
		s.logger.Warn("transcoder exited non-zero",
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", tail(res.Stderr, 512)))
		return nil, fmt.Errorf("transcoder exit code %d: %s", res.ExitCode, tail(res.Stderr, 512))
	}

	result, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("reading temp output: %w", err)
	}
	return result, nil
}

// safeExt keeps temp-file suffixes sane when the original name had no
// extension.
func safeExt(ext string) string {
	if ext == "" {
		return "bin"
	}
	return ext
}

// tail returns at most the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
