// Package target parses the command line of a pelias invocation.
package target

import (
	"strings"
	"unicode"

	"github.com/pelias/cli/internal/apperr"
)

// DefaultBranch is used when the repository token carries no branch.
const DefaultBranch = "master"

// BranchSeparator splits a repository token into name and branch.
const BranchSeparator = "#"

// HelpFlag requests the usage text when given as the first token.
const HelpFlag = "--help"

// Target is the repository and command an invocation operates on.
type Target struct {
	Name           string
	Branch         string
	Subcommand     string
	SubcommandArgs []string
}

// Parsed is the result of Parse.
type Parsed struct {
	Help   bool
	Target Target
}

// MissingSubcommand reports whether no subcommand token was given.
func (p Parsed) MissingSubcommand() bool {
	return !p.Help && p.Target.Subcommand == ""
}

// Parse turns the raw argument list (without the program name) into a
// Target. defaultBranch is used when the first token has no branch; an empty
// value falls back to DefaultBranch.
func Parse(args []string, defaultBranch string) (Parsed, error) {
	if len(args) == 0 {
		return Parsed{}, apperr.Usagef("missing repository name")
	}
	if args[0] == HelpFlag {
		return Parsed{Help: true}, nil
	}
	if defaultBranch == "" {
		defaultBranch = DefaultBranch
	}

	name, branch := SplitRepository(args[0], defaultBranch)
	if err := ValidateName(name); err != nil {
		return Parsed{}, err
	}
	if err := ValidateBranch(branch); err != nil {
		return Parsed{}, err
	}

	t := Target{Name: name, Branch: branch, SubcommandArgs: []string{}}
	if len(args) > 1 {
		t.Subcommand = args[1]
		t.SubcommandArgs = append(t.SubcommandArgs, args[2:]...)
	}
	return Parsed{Target: t}, nil
}

// SplitRepository splits token on the first BranchSeparator. A missing or
// empty branch yields defaultBranch.
func SplitRepository(token, defaultBranch string) (string, string) {
	name, branch, found := strings.Cut(token, BranchSeparator)
	if !found || branch == "" {
		return name, defaultBranch
	}
	return name, branch
}

// ValidateName rejects names that cannot be used as a directory under the
// cache root.
func ValidateName(name string) error {
	switch {
	case name == "":
		return apperr.Usagef("missing repository name")
	case strings.HasPrefix(name, "."):
		return apperr.Usagef("invalid repository name %q: must not start with '.'", name)
	case strings.ContainsAny(name, `/\`):
		return apperr.Usagef("invalid repository name %q: must not contain a path separator", name)
	}
	return nil
}

// ValidateBranch rejects branch names git would refuse or read as an option.
// It follows the rules of git check-ref-format --branch.
func ValidateBranch(branch string) error {
	invalid := func(reason string) error {
		return apperr.Usagef("invalid branch name %q: %s", branch, reason)
	}
	switch {
	case branch == "":
		return invalid("must not be empty")
	case strings.HasPrefix(branch, "-"):
		return invalid("must not start with '-'")
	case strings.HasPrefix(branch, "/"), strings.HasSuffix(branch, "/"), strings.Contains(branch, "//"):
		return invalid("misplaced '/'")
	case strings.HasSuffix(branch, "."), strings.HasSuffix(branch, ".lock"):
		return invalid("must not end with '.' or '.lock'")
	case strings.Contains(branch, ".."), strings.Contains(branch, "@{"), branch == "@":
		return invalid("must not contain '..' or '@{'")
	case strings.ContainsAny(branch, "~^:?*[\\"):
		return invalid("must not contain any of ~^:?*[\\")
	case strings.IndexFunc(branch, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		return invalid("must not contain whitespace or control characters")
	}
	for _, part := range strings.Split(branch, "/") {
		if strings.HasPrefix(part, ".") {
			return invalid("components must not start with '.'")
		}
	}
	return nil
}
