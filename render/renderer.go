package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const (
	DefaultEngine  = "pdflatex"
	DefaultTimeout = time.Minute

	jobName = "document"
)

// Renderer turns LaTeX source into PDF bytes with an external engine.
type Renderer struct {
	Engine  string
	Timeout time.Duration

	*zap.SugaredLogger
}

func NewRenderer(engine string, timeout time.Duration, logger *zap.Logger) *Renderer {
	if engine == "" {
		engine = DefaultEngine
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		Engine:        engine,
		Timeout:       timeout,
		SugaredLogger: logger.Named("render").Sugar(),
	}
}

// Render compiles content and returns the produced PDF.
func (r *Renderer) Render(ctx context.Context, content string) ([]byte, error) {
	return r.RenderTo(ctx, content, nil)
}

// RenderTo is Render with the engine's console output also copied to log
// as it is produced. log may be nil.
func (r *Renderer) RenderTo(ctx context.Context, content string, log io.Writer) ([]byte, error) {
	workDir, err := os.MkdirTemp("", "corvex-render-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create work directory: %v", ErrIO, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			r.Warnf("failed to remove %s: %v", workDir, err)
		}
	}()

	source := filepath.Join(workDir, jobName+".tex")
	if err := os.WriteFile(source, []byte(content), 0o600); err != nil {
		return nil, fmt.Errorf("%w: write source: %v", ErrIO, err)
	}

	if err := r.run(ctx, workDir, source, log); err != nil {
		return nil, err
	}

	pdf, err := os.ReadFile(filepath.Join(workDir, jobName+".pdf"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputMissing, err)
	}
	if mtype := mimetype.Detect(pdf); !mtype.Is("application/pdf") {
		return nil, fmt.Errorf("%w: engine produced %s", ErrOutputMissing, mtype.String())
	}

	r.Debugf("rendered %d bytes of source into %d bytes of pdf", len(content), len(pdf))
	return pdf, nil
}

func (r *Renderer) run(ctx context.Context, workDir, source string, log io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Engine,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory", workDir,
		source,
	)
	cmd.Dir = workDir
	// children holding the pipes open must not keep Wait blocked after a kill
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	if log != nil {
		cmd.Stdout = io.MultiWriter(&stdout, log)
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.Debugf("%s finished in %v", r.Engine, time.Since(start))

	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %v", ErrRenderTimeout, r.Timeout)
		}
		return fmt.Errorf("render cancelled: %w", ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &RenderError{
			ExitCode:   exitErr.ExitCode(),
			Diagnostic: diagnostic(stderr.String(), stdout.String()),
		}
	}
	return fmt.Errorf("%w %q: %v", ErrProcessLaunch, r.Engine, err)
}

// diagnostic prefers stderr; TeX engines report most errors on stdout.
func diagnostic(stderr, stdout string) string {
	if strings.TrimSpace(stderr) != "" {
		return stderr
	}
	if strings.TrimSpace(stdout) != "" {
		return stdout
	}
	return "render engine exited without output"
}
