package rules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/s1-filter/internal/filter/domain"
	"github.com/haukened/s1-filter/internal/filter/services/classifier"
)

// ruleRecord mirrors one entry of a rule file. Every field is optional at
// this layer; defaults and validation happen at compile time.
type ruleRecord struct {
	ID      string `koanf:"id"`
	Pattern string `koanf:"pattern"`
	Message string `koanf:"message"`
	Action  string `koanf:"action"`
}

type ruleFile struct {
	Whitelist []ruleRecord `koanf:"whitelist"`
	Blacklist []ruleRecord `koanf:"blacklist"`
}

// FileSource reads rules from a YAML, JSON or TOML file with top-level
// "whitelist" and "blacklist" lists. The file is re-read on every Load.
type FileSource struct {
	path string
}

// NewFileSource returns a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the rule file location.
func (s *FileSource) Path() string { return s.path }

// ParserFor returns the koanf parser for a rule file path, chosen by extension.
func ParserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Load parses the rule file. A missing file yields ErrSourceNotFound.
func (s *FileSource) Load(ctx context.Context) (domain.RuleFeed, error) {
	if err := ctx.Err(); err != nil {
		return domain.RuleFeed{}, err
	}
	parser, err := ParserFor(s.path)
	if err != nil {
		return domain.RuleFeed{}, err
	}
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.RuleFeed{}, fmt.Errorf("%w: %s", ErrSourceNotFound, s.path)
		}
		return domain.RuleFeed{}, fmt.Errorf("failed to stat rule file %s: %w", s.path, err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), parser); err != nil {
		return domain.RuleFeed{}, fmt.Errorf("failed to load rule file %s: %w", s.path, err)
	}

	var rf ruleFile
	if err := k.Unmarshal("", &rf); err != nil {
		return domain.RuleFeed{}, fmt.Errorf("failed to decode rule file %s: %w", s.path, err)
	}
	return domain.RuleFeed{
		Whitelist: toSpecs(rf.Whitelist),
		Blacklist: toSpecs(rf.Blacklist),
	}, nil
}

func toSpecs(records []ruleRecord) []domain.RuleSpec {
	out := make([]domain.RuleSpec, 0, len(records))
	for _, r := range records {
		out = append(out, domain.RuleSpec{
			ID:      r.ID,
			Pattern: r.Pattern,
			Message: r.Message,
			Action:  r.Action,
		})
	}
	return out
}

var _ classifier.RuleSource = (*FileSource)(nil)
