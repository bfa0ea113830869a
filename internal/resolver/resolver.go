// Package resolver locates a usable model for a requested identifier:
// exact registry match first, then the local naming convention for
// already-customized installs, then download-and-register, walking the
// fallback chain until an alias resolves.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lamactl/internal/ollama"
	"lamactl/pkg/types"
)

// customSuffix is the naming convention marking a locally built variant:
// "<short-name>-custom" plus an optional uniqueness suffix.
const customSuffix = "-custom"

// Daemon is the slice of the daemon control surface the resolver consumes.
type Daemon interface {
	Tags(ctx context.Context) ([]types.ModelInfo, error)
	Pull(ctx context.Context, source string, onProgress func(ollama.PullProgress)) error
	Create(ctx context.Context, name, manifest string) error
}

// Source says how a resolution was satisfied.
type Source int

const (
	// SourceExact: the requested alias was already registered.
	SourceExact Source = iota
	// SourceConvention: a "<short>-custom*" variant was reused.
	SourceConvention
	// SourceInstalled: the model was pulled and registered fresh.
	SourceInstalled
	// SourceAutoSelected: every alias failed and auto-select picked an
	// arbitrary installed model.
	SourceAutoSelected
)

func (s Source) String() string {
	switch s {
	case SourceExact:
		return "exact"
	case SourceConvention:
		return "convention"
	case SourceInstalled:
		return "installed"
	default:
		return "auto-selected"
	}
}

// Resolution is a successfully resolved model.
type Resolution struct {
	// Name as registered in the daemon, usable in completion requests.
	Name string
	// Source of the resolution.
	Source Source
	// Attempts that failed before this one succeeded.
	Attempts []Attempt
}

// Attempt records one failed alias with its reason.
type Attempt struct {
	Alias  string
	Reason string
}

// Options tune the install path.
type Options struct {
	// AutoSelect permits falling back to any installed model when the
	// whole chain fails.
	AutoSelect bool
	// ContextWindow for the synthesized build manifest; 0 keeps the
	// daemon default.
	ContextWindow int
	// SystemPrompt baked into the build manifest, optional.
	SystemPrompt string
	// Quantization variant requested from the registry, optional.
	Quantization string
	// Progress receives download status lines, optional.
	Progress func(ollama.PullProgress)
}

// Resolver implements the resolution flow against one daemon.
type Resolver struct {
	daemon Daemon
	log    zerolog.Logger

	// persist is called with the winning name after a successful
	// resolution; nil disables persistence.
	persist func(name string) error

	// now provides install-name uniqueness suffixes.
	now func() time.Time
}

// New constructs a Resolver. persist may be nil.
func New(daemon Daemon, log zerolog.Logger, persist func(name string) error) *Resolver {
	return &Resolver{daemon: daemon, log: log, persist: persist, now: time.Now}
}

// Resolve tries each alias of chain in order and returns the first success.
// An empty chain is an error unless auto-select is on, in which case any
// installed model will do. On exhaustion the returned error is a
// *ResolutionError carrying every attempted alias with its reason, unless
// auto-select finds a substitute.
func (r *Resolver) Resolve(ctx context.Context, chain []string, opts Options) (Resolution, error) {
	if len(chain) == 0 && !opts.AutoSelect {
		return Resolution{}, fmt.Errorf("resolve: empty fallback chain")
	}

	var attempts []Attempt
	for _, alias := range chain {
		res, err := r.resolveOne(ctx, alias, opts)
		if err == nil {
			res.Attempts = attempts
			if r.persist != nil {
				if perr := r.persist(res.Name); perr != nil {
					return res, perr
				}
			}
			r.log.Info().Str("model", res.Name).Str("source", res.Source.String()).Msg("model resolved")
			return res, nil
		}
		r.log.Warn().Str("alias", alias).Err(err).Msg("alias did not resolve")
		attempts = append(attempts, Attempt{Alias: alias, Reason: err.Error()})
	}

	if opts.AutoSelect {
		if res, err := r.autoSelect(ctx); err == nil {
			res.Attempts = attempts
			if r.persist != nil {
				if perr := r.persist(res.Name); perr != nil {
					return res, perr
				}
			}
			r.log.Info().Str("model", res.Name).Msg("auto-selected installed model")
			return res, nil
		}
	}
	return Resolution{}, &ResolutionError{Attempts: attempts}
}

func (r *Resolver) resolveOne(ctx context.Context, alias string, opts Options) (Resolution, error) {
	installed, err := r.daemon.Tags(ctx)
	if err != nil {
		return Resolution{}, err
	}

	// Step 1: exact match, tag-insensitive on the requested side.
	for _, m := range installed {
		if m.Name == alias || m.BaseName() == alias {
			return Resolution{Name: m.Name, Source: SourceExact}, nil
		}
	}

	// Step 2: already-customized variant under the naming convention.
	if m, ok := pickConventionMatch(installed, alias); ok {
		return Resolution{Name: m.Name, Source: SourceConvention}, nil
	}

	// Step 3: heavyweight path — pull the artifact and register a build.
	return r.install(ctx, alias, opts)
}

// pickConventionMatch selects among "<short>-custom*" entries. Newest
// creation time wins; when timestamps tie or are absent the full name
// compares lexicographically descending, which orders the
// "<short>-custom-<timestamp>" names produced by install newest-first.
func pickConventionMatch(installed []types.ModelInfo, alias string) (types.ModelInfo, bool) {
	prefix := shortName(alias) + customSuffix
	var candidates []types.ModelInfo
	for _, m := range installed {
		if strings.HasPrefix(m.BaseName(), prefix) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return types.ModelInfo{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		ti, tj := candidates[i].ModifiedAt, candidates[j].ModifiedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return candidates[i].Name > candidates[j].Name
	})
	return candidates[0], true
}

func (r *Resolver) install(ctx context.Context, alias string, opts Options) (Resolution, error) {
	source := alias
	if opts.Quantization != "" && !strings.Contains(alias, ":") {
		source = alias + ":" + opts.Quantization
	}

	r.log.Info().Str("source", source).Msg("pulling model artifact")
	if err := r.daemon.Pull(ctx, source, opts.Progress); err != nil {
		return Resolution{}, err
	}

	// Uniqueness suffix avoids colliding with partial prior attempts.
	name := fmt.Sprintf("%s%s-%s", shortName(alias), customSuffix, r.now().Format("20060102150405"))
	manifest := BuildManifest(types.ModelDescriptor{
		Name:          alias,
		Source:        source,
		ContextWindow: opts.ContextWindow,
		SystemPrompt:  opts.SystemPrompt,
	})
	r.log.Info().Str("name", name).Msg("registering build manifest")
	if err := r.daemon.Create(ctx, name, manifest); err != nil {
		return Resolution{}, err
	}
	return Resolution{Name: name, Source: SourceInstalled}, nil
}

func (r *Resolver) autoSelect(ctx context.Context) (Resolution, error) {
	installed, err := r.daemon.Tags(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if len(installed) == 0 {
		return Resolution{}, fmt.Errorf("no models installed")
	}
	return Resolution{Name: installed[0].Name, Source: SourceAutoSelected}, nil
}

// BuildManifest synthesizes the declarative build manifest registered with
// the daemon: source artifact, context window, optional system prompt.
func BuildManifest(d types.ModelDescriptor) string {
	source := d.Source
	if source == "" {
		source = d.Name
	}
	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n", source)
	if d.ContextWindow > 0 {
		fmt.Fprintf(&b, "PARAMETER num_ctx %d\n", d.ContextWindow)
	}
	if d.SystemPrompt != "" {
		fmt.Fprintf(&b, "SYSTEM \"\"\"%s\"\"\"\n", d.SystemPrompt)
	}
	return b.String()
}

// shortName derives the stable prefix for the naming convention: the part
// after any registry path, with the tag stripped.
func shortName(alias string) string {
	s := alias
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	return s
}
