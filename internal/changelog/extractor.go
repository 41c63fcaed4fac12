package changelog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/virtualboard/relnotes/internal/config"
	"github.com/virtualboard/relnotes/internal/util"
)

// StdoutPath writes the extracted release to the extractor's Stdout.
const StdoutPath = "-"

// Result describes a completed extraction.
type Result struct {
	Release
	Source  string `json:"source"`
	Output  string `json:"output"`
	Bytes   int    `json:"bytes"`
	Written bool   `json:"written"`
}

// Extractor copies the latest release of a changelog into its own file.
type Extractor struct {
	opts *config.Options
	log  *logrus.Entry

	// Stdout receives the release when the output path is StdoutPath.
	Stdout io.Writer
}

// NewExtractor creates an extractor configured by opts.
func NewExtractor(opts *config.Options) *Extractor {
	return &Extractor{
		opts:   opts,
		log:    opts.Logger().WithField("component", "extractor"),
		Stdout: os.Stdout,
	}
}

// Extract reads changelogPath, selects its latest release and writes it to outputPath,
// replacing any existing content. Nothing is written when no release is found.
func (e *Extractor) Extract(changelogPath, outputPath string) (*Result, error) {
	log := e.log.WithFields(logrus.Fields{"source": changelogPath, "output": outputPath})

	// #nosec G304 -- changelog path provided as command argument
	data, err := os.ReadFile(changelogPath)
	if err != nil {
		return nil, &FileError{Op: "read", Path: changelogPath, Err: err}
	}
	log.WithField("bytes", len(data)).Info("Read changelog")

	rel, err := Latest(string(data), e.parseOptions())
	if err != nil {
		var noRel *NoReleaseError
		if errors.As(err, &noRel) {
			noRel.Source = changelogPath
		}
		log.WithError(err).Warn("Changelog has no release section")
		return nil, err
	}

	rendered := rel.Markdown()
	res := &Result{
		Release: rel,
		Source:  changelogPath,
		Output:  outputPath,
		Bytes:   len(rendered),
	}

	if e.opts.DryRun {
		log.WithField("heading", rel.Heading).Info("Dry run, skipping write")
		return res, nil
	}

	if err := e.write(outputPath, rendered); err != nil {
		return nil, err
	}
	res.Written = true
	log.WithFields(logrus.Fields{"heading": rel.Heading, "bytes": res.Bytes}).Info("Wrote release notes")
	return res, nil
}

func (e *Extractor) write(outputPath, rendered string) error {
	if outputPath == StdoutPath {
		if _, err := io.WriteString(e.Stdout, rendered); err != nil {
			return &FileError{Op: "write", Path: "stdout", Err: err}
		}
		return nil
	}

	mode, err := e.opts.Settings.FileModeValue()
	if err != nil {
		return fmt.Errorf("failed to resolve output mode: %w", err)
	}
	if err := util.ReplaceFile(outputPath, []byte(rendered), mode, e.opts.Settings.FileModeSet); err != nil {
		return &FileError{Op: "write", Path: outputPath, Err: err}
	}
	return nil
}

func (e *Extractor) parseOptions() ParseOptions {
	mode := LineEndings(e.opts.Settings.LineEndings)
	if mode == "" {
		mode = LineEndingsNormalize
	}
	return ParseOptions{LineEndings: mode}
}
