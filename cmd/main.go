package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/jaxxstorm/tagver"
	"github.com/sethvargo/go-githubactions"
)

// Version will be set by build process
var Version = "dev"

type CLI struct {
	Labels      string `help:"Label configuration of the form '<label>,<cleanMarker>'" env:"INPUT_LABELS"`
	Source      string `short:"s" default:"github" enum:"github,git" help:"Where to read commits and tags from"`
	Repo        string `short:"r" help:"Repository path for the git source (default: current directory)"`
	Token       string `help:"GitHub API token" env:"GITHUB_TOKEN"`
	Repository  string `help:"GitHub repository as owner/name" env:"GITHUB_REPOSITORY"`
	APIURL      string `name:"api-url" help:"GitHub API base URL" env:"GITHUB_API_URL"`
	Ref         string `help:"Ref being built (e.g., 'refs/heads/main')" env:"GITHUB_REF"`
	SHA         string `help:"Commit being built (default: the ref)" env:"GITHUB_SHA"`
	EventName   string `help:"Event that triggered the build" env:"GITHUB_EVENT_NAME"`
	TagPattern  string `help:"Regex pattern to filter tags (e.g., '^v')"`
	Output      string `hidden:"" env:"GITHUB_OUTPUT" help:"Actions output file"`
	JSON        bool   `short:"j" help:"Output as JSON"`
	ShowVersion bool   `help:"Show version information" name:"version"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("tagver"),
		kong.Description("Compute a build version from the most recent tag and the commits since it"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	action := newAction()
	if err := cli.Run(context.Background(), action); err != nil {
		action.Fatalf("%v", err)
	}
}

// newAction keeps workflow commands on stderr so stdout carries only the version
func newAction() *githubactions.Action {
	return githubactions.New(githubactions.WithWriter(os.Stderr))
}

func (c *CLI) Run(ctx context.Context, action *githubactions.Action) error {
	if c.ShowVersion {
		return c.showVersion()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// A pushed release tag needs no source, so a source error only matters
	// once the calculation asks for one
	source, sourceErr := c.newSource()

	result, err := tagver.Calculate(ctx, tagver.Options{
		Source:     source,
		Ref:        c.Ref,
		SHA:        c.SHA,
		EventName:  c.EventName,
		Labels:     c.Labels,
		TagPattern: c.TagPattern,
		Logger:     logger,
	})
	if err != nil {
		if sourceErr != nil {
			return sourceErr
		}
		return err
	}

	if c.Output != "" {
		action.SetOutput("version", result.Version)
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Println(result.Version)
	return nil
}

func (c *CLI) newSource() (tagver.Source, error) {
	if c.Source == "git" {
		repoPath := c.Repo
		if repoPath == "" {
			var err error
			repoPath, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("getting current directory: %w", err)
			}
		}

		repo, err := tagver.OpenRepository(repoPath)
		if err != nil {
			return nil, fmt.Errorf("opening repository: %w", err)
		}
		return tagver.NewGitSource(repo), nil
	}

	client, err := tagver.NewGitHubClient(c.Token, c.APIURL)
	if err != nil {
		return nil, err
	}
	source, err := tagver.NewGitHubSource(client, c.Repository)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (c *CLI) showVersion() error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "tagver",
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(versionInfo)
	}

	fmt.Printf("tagver version %s\n", Version)
	return nil
}
