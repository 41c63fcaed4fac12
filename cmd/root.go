package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/virtualboard/relnotes/internal/changelog"
	"github.com/virtualboard/relnotes/internal/config"
	"github.com/virtualboard/relnotes/internal/release"
	"github.com/virtualboard/relnotes/internal/version"
)

type rootFlags struct {
	json          bool
	verbose       bool
	dryRun        bool
	logFile       string
	configFile    string
	lineEndings   string
	publishTag    string
	repo          string
	createRelease bool
}

var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "relnotes <changelog> <output>",
		Short: "Extract the latest release notes from a changelog",
		Long: `relnotes copies the most recent release section of a markdown changelog into its own file.

Releases are the "## " headings that follow the document title. The first one is
written to <output> with a normalized "## " heading line; surrounding blank lines are
dropped and the body is kept as-is. Use "-" as <output> to print to stdout; to write
a file literally named "-", pass "./-".

Examples:
  relnotes CHANGELOG.md RELEASE.md
  relnotes CHANGELOG.md - --json
  relnotes CHANGELOG.md RELEASE.md --publish v1.2.0 --repo owner/name`,
		Args:          cobra.ExactArgs(2),
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Current(); err == nil {
				return nil
			}
			opts := config.New()
			if err := opts.Init(flags.json, flags.verbose, flags.dryRun, flags.logFile, flags.configFile); err != nil {
				return classify(err)
			}
			cmd.SetContext(opts.WithContext(cmd.Context()))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.FromContext(cmd.Context())
			if err != nil {
				return err
			}
			if err := applyOverrides(opts, flags); err != nil {
				return err
			}
			return runExtract(cmd, opts, flags, args[0], args[1])
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&flags.json, "json", false, "Output machine-readable JSON")
	pf.BoolVar(&flags.verbose, "verbose", false, "Enable verbose logging")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "Report what would be extracted without writing or publishing")
	pf.StringVar(&flags.logFile, "log-file", "", "File to write verbose logs")
	pf.StringVar(&flags.configFile, "config", "", "Settings file (default: "+config.DefaultSettingsFile+" when present)")

	f := cmd.Flags()
	f.StringVar(&flags.lineEndings, "line-endings", "", "How to treat CRLF input: normalize or preserve")
	f.StringVar(&flags.publishTag, "publish", "", "Replace the body of the GitHub release with this tag")
	f.StringVar(&flags.repo, "repo", "", "GitHub repository (owner/name) used with --publish")
	f.BoolVar(&flags.createRelease, "create-release", false, "Create the release when --publish finds none")

	return cmd
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return err
	}
	opts, err := config.Current()
	if err == nil {
		if cerr := opts.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "failed to close resources: %v\n", cerr)
		}
	}
	return nil
}

// RootCommand returns the configured root command; primarily for testing scenarios.
func RootCommand() *cobra.Command {
	return rootCmd
}

func applyOverrides(opts *config.Options, flags *rootFlags) error {
	if flags.lineEndings != "" {
		if !config.ValidLineEndings(flags.lineEndings) {
			return NewCLIError(ExitCodeValidation, fmt.Sprintf("invalid --line-endings %q (expected %s or %s)",
				flags.lineEndings, config.LineEndingsNormalize, config.LineEndingsPreserve))
		}
		opts.Settings.LineEndings = flags.lineEndings
	}
	if flags.repo != "" {
		opts.Settings.GitHub.Repo = flags.repo
	}
	if flags.createRelease && flags.publishTag == "" {
		return NewCLIError(ExitCodeValidation, "--create-release requires --publish")
	}
	return nil
}

func runExtract(cmd *cobra.Command, opts *config.Options, flags *rootFlags, source, output string) error {
	target, err := publishTarget(opts, flags)
	if err != nil {
		return err
	}
	var pub *release.Publisher
	if target != nil && !opts.DryRun {
		pub, err = release.NewPublisher(opts.Settings.GitHub, opts.Logger())
		if err != nil {
			return WrapCLIError(ExitCodePublish, err)
		}
	}

	ext := changelog.NewExtractor(opts)
	ext.Stdout = cmd.OutOrStdout()
	if opts.JSONOutput && output == changelog.StdoutPath {
		// the notes travel inside the JSON payload instead
		ext.Stdout = io.Discard
	}

	res, err := ext.Extract(source, output)
	if err != nil {
		return classify(err)
	}

	data := map[string]interface{}{
		"heading": res.Heading,
		"source":  res.Source,
		"output":  res.Output,
		"bytes":   res.Bytes,
		"written": res.Written,
	}
	if output == changelog.StdoutPath {
		data["notes"] = res.Markdown()
	}

	if target != nil {
		if pub == nil {
			opts.Logger().WithField("component", "cli").WithField("tag", target.Tag).Info("Dry run, skipping publish")
		} else {
			published, err := pub.Publish(cmd.Context(), *target, res.Markdown())
			if err != nil {
				return WrapCLIError(ExitCodePublish, err)
			}
			data["release"] = published
		}
	}

	return respond(cmd, opts, true, summary(opts, res, output), data)
}

// publishTarget validates the publish flags before anything is written.
// It returns nil when --publish was not given.
func publishTarget(opts *config.Options, flags *rootFlags) (*release.Target, error) {
	if flags.publishTag == "" {
		return nil, nil
	}
	repo := opts.Settings.GitHub.Repo
	if repo == "" {
		return nil, NewCLIError(ExitCodeValidation, "--publish requires --repo or github.repo in the settings file")
	}
	owner, name, err := release.ParseRepo(repo)
	if err != nil {
		return nil, WrapCLIError(ExitCodeValidation, err)
	}
	return &release.Target{
		Owner:  owner,
		Repo:   name,
		Tag:    flags.publishTag,
		Create: flags.createRelease,
	}, nil
}

func summary(opts *config.Options, res *changelog.Result, output string) string {
	if opts.DryRun {
		return fmt.Sprintf("Would extract %s from %s to %s", res.Heading, res.Source, res.Output)
	}
	if output == changelog.StdoutPath {
		// human mode already printed the notes themselves
		return ""
	}
	return fmt.Sprintf("Extracted %s from %s to %s", res.Heading, res.Source, res.Output)
}
