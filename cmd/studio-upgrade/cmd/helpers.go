package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juju/mgo/v3"
	"github.com/mattn/go-isatty"

	"github.com/bianoble/studio/internal/config"
	"github.com/bianoble/studio/internal/doctor"
	"github.com/bianoble/studio/internal/migration"
	"github.com/bianoble/studio/internal/mongo"
	"github.com/bianoble/studio/internal/state"
)

// server bundles everything located from the settings file.
type server struct {
	cfg  *config.Config
	path string // settings file
	root string // server checkout
}

// locateServer finds and loads the settings file. With --config the path
// is taken as given; otherwise conf/studio.yaml is discovered by walking
// up from the working directory.
func locateServer() (*server, error) {
	path := configPath
	var root string

	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		path, root, err = config.Discover(wd)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		root, err = config.ServerRootFor(path)
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &server{cfg: cfg, path: path, root: root}, nil
}

// loadState reads the recorded install state, zero if none exists yet.
func loadState(root string) (*state.State, error) {
	return state.Load(state.PathFor(root))
}

// saveState writes the install state atomically.
func saveState(root string, st *state.State) error {
	return state.Save(state.PathFor(root), st)
}

// dbTimeout bounds database dials. Tests shorten it so a dead server does
// not stall the suite.
var dbTimeout = mongo.DefaultTimeout

// dialDatabase connects to the server's MongoDB.
func dialDatabase(cfg *config.Config) (*mgo.Session, *mgo.Database, error) {
	return mongo.Dial(cfg.Database, dbTimeout)
}

// newRunner builds the migration runner over the shipped migration set.
func newRunner(db *mgo.Database) *migration.Runner {
	return &migration.Runner{
		DB:         db,
		Store:      migration.NewChangelogStore(db),
		Migrations: migration.All(),
		Log:        detail,
	}
}

// checkGitPresent fails fast before any prompt or network call when git
// is missing or too old.
func checkGitPresent(ctx context.Context) error {
	checker := &doctor.Checker{}
	if result := checker.CheckGit(ctx); !result.OK() {
		return result.Err
	}
	return nil
}

// isInteractive reports whether stdin is a terminal a human can answer
// prompts on.
func isInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// input is where prompts read from. A var so tests can script answers.
var (
	input   io.Reader = os.Stdin
	scanner *bufio.Scanner
)

func readLine() string {
	if scanner == nil {
		scanner = bufio.NewScanner(input)
	}
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// confirm asks a yes/no question defaulting to no.
func confirm(question string) bool {
	fmt.Print(question)
	answer := strings.ToLower(readLine())
	return answer == "y" || answer == "yes"
}

// confirmDefaultYes asks a yes/no question where a bare enter means yes.
func confirmDefaultYes(question string) bool {
	fmt.Print(question)
	answer := strings.ToLower(readLine())
	return answer == "" || answer == "y" || answer == "yes"
}

// prompt asks for a free-form value.
func prompt(label string) string {
	fmt.Print(label)
	return readLine()
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
