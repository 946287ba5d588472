// Package generator creates PNG thumbnails for arbitrary files by driving the Quick Look
// qlmanage utility and normalizing the name of the file it produces.
package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/SkyMack/qlthumb/internal/telemetry/metrics"
)

const (
	// DefaultTool is the executable searched for on the PATH
	DefaultTool = "qlmanage"
	// DefaultSize is the maximum pixel dimension used when a Request does not set one
	DefaultSize = 512

	successMarker      = "produced one thumbnail"
	thumbnailExtension = ".png"
	folderPerm         = 0o755
)

// Request describes a single thumbnail to generate
type Request struct {
	// Source is the path of the input file (required)
	Source string
	// Folder is the destination directory; empty means the source file's directory
	Folder string
	// Size bounds the thumbnail's largest dimension in pixels; zero means DefaultSize
	Size int
}

func (r Request) validate() error {
	var result error

	if r.Source == "" {
		result = multierror.Append(result, fmt.Errorf("source path must be a non-empty string"))
	}
	if r.Size < 0 {
		result = multierror.Append(result, fmt.Errorf("size must not be negative, got %d", r.Size))
	}

	return result
}

// Callback receives the outcome of CreateAsync; path is empty whenever err is non-nil
type Callback func(path string, err error)

// Generator runs the thumbnail pipeline. A Generator holds no per-request state and may be
// shared between goroutines.
type Generator struct {
	tool     string
	lookPath LookPathFunc
	stat     func(name string) (fs.FileInfo, error)
	runner   Runner
	timeout  time.Duration
	logger   log.FieldLogger
	metrics  metrics.Recorder
}

// Option configures a Generator
type Option func(*Generator)

// WithTool sets the executable name (or path) of the thumbnailing tool
func WithTool(tool string) Option {
	return func(g *Generator) { g.tool = tool }
}

// WithLookPath replaces the search-path resolver
func WithLookPath(fn LookPathFunc) Option {
	return func(g *Generator) { g.lookPath = fn }
}

// WithRunner replaces the subprocess runner
func WithRunner(r Runner) Option {
	return func(g *Generator) { g.runner = r }
}

// WithTimeout bounds each tool invocation; zero disables the bound
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithLogger sets the logger every request's fields are attached to
func WithLogger(l log.FieldLogger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithMetrics sets the recorder counting requests and their outcomes
func WithMetrics(m metrics.Recorder) Option {
	return func(g *Generator) { g.metrics = m }
}

// New returns a Generator that invokes qlmanage found on the PATH
func New(opts ...Option) *Generator {
	g := &Generator{
		tool:     DefaultTool,
		lookPath: exec.LookPath,
		stat:     os.Stat,
		runner:   ExecRunner{},
		logger:   log.StandardLogger(),
		metrics:  metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateAsync validates req and then runs Create on a new goroutine, handing the outcome to done
// exactly once. Invalid requests and a nil callback are reported synchronously.
func (g *Generator) CreateAsync(ctx context.Context, req Request, done Callback) error {
	if done == nil {
		return ErrNilCallback
	}
	if err := req.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	go func() {
		done(g.Create(ctx, req))
	}()
	return nil
}

// Create generates the thumbnail for req and returns the absolute path of
// <folder>/<source name without extension>.png
func (g *Generator) Create(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	l := g.logger.WithFields(log.Fields{
		"request.id": uuid.NewString(),
		"src.path":   req.Source,
	})
	g.metrics.Increment(ctx, metrics.RequestReceived, nil)

	thumbPath, srcType, err := g.create(ctx, l, req)
	if err != nil {
		stage := "unknown"
		var se *stageError
		if errors.As(err, &se) {
			stage = se.stage
		}
		l.WithFields(log.Fields{
			"error": err,
			"stage": stage,
		}).Error("thumbnail generation failed")
		g.metrics.Increment(ctx, metrics.Failed, map[string]string{"stage": stage})
		return "", err
	}

	l.WithField("dst.path", thumbPath).Info("thumbnail created")
	g.metrics.Increment(ctx, metrics.Created, map[string]string{"source.type": srcType})
	return thumbPath, nil
}

func (g *Generator) create(ctx context.Context, l log.FieldLogger, req Request) (string, string, error) {
	command, err := g.lookPath(g.tool)
	if err != nil {
		return "", "", failAt(stageTool, ErrToolNotFound, err)
	}

	srcPath, err := filepath.Abs(req.Source)
	if err != nil {
		return "", "", failAt(stageStat, ErrSourceNotFound, err)
	}
	folder := filepath.Dir(srcPath)
	if req.Folder != "" {
		if folder, err = filepath.Abs(req.Folder); err != nil {
			return "", "", failAt(stageMkdir, ErrFolderCreate, err)
		}
	}
	size := req.Size
	if size == 0 {
		size = DefaultSize
	}

	if _, err := g.stat(srcPath); err != nil {
		return "", "", failAt(stageStat, ErrSourceNotFound, err)
	}
	srcType := sourceType(srcPath)

	if err := os.Mkdir(folder, folderPerm); err != nil && !errors.Is(err, fs.ErrExist) {
		return "", "", failAt(stageMkdir, ErrFolderCreate, err)
	}

	l = l.WithFields(log.Fields{
		"src.type":   srcType,
		"thumb.size": size,
		"tool.path":  command,
	})
	l.Debug("invoking thumbnail tool")
	if err := g.generate(ctx, command, srcPath, folder, size); err != nil {
		return "", "", err
	}

	base := filepath.Base(srcPath)
	generated := filepath.Join(folder, base+thumbnailExtension)
	thumbPath := filepath.Join(folder, strings.TrimSuffix(base, extension(base))+thumbnailExtension)

	if generated != thumbPath {
		if err := os.Rename(generated, thumbPath); err != nil {
			if rmErr := os.Remove(generated); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				l.WithFields(log.Fields{
					"error":     rmErr,
					"file.path": generated,
				}).Warn("unable to remove orphaned thumbnail")
			}
			return "", "", failAt(stageRename, ErrRename, err)
		}
	}

	if _, err := g.stat(thumbPath); err != nil {
		return "", "", failAt(stageVerify, ErrVerify, err)
	}

	return thumbPath, srcType, nil
}

// generate runs `<tool> -t -s <size> <src> -o <folder>`. qlmanage reports most failures only on
// stdout, so success is decided by the marker text rather than the exit status.
func (g *Generator) generate(ctx context.Context, command, srcPath, folder string, size int) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	args := []string{"-t", "-s", strconv.Itoa(size), srcPath, "-o", folder}
	stdout, stderr, runErr := g.runner.Run(ctx, command, args...)
	if bytes.Contains(stdout, []byte(successMarker)) {
		return nil
	}

	return failAt(stageExec, ErrGenerate, diagnose(ctx, stdout, stderr, runErr))
}

// diagnose picks the most useful description of a failed run: stdout when the tool wrote any,
// then the process error, then stderr.
func diagnose(ctx context.Context, stdout, stderr []byte, runErr error) error {
	if out := strings.TrimSpace(string(stdout)); out != "" {
		return errors.New(out)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if runErr != nil {
		return runErr
	}
	if out := strings.TrimSpace(string(stderr)); out != "" {
		return errors.New(out)
	}
	return fmt.Errorf("tool produced no output")
}

// extension returns the suffix starting at the last dot of base. A leading dot marks a hidden
// file, not an extension, so ".bashrc" has none.
func extension(base string) string {
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[i:]
	}
	return ""
}
