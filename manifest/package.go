// Package manifest builds .deb packages from declarative package definition
// files, in YAML or JSON.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/etnz/deb-builder/deb"
	"github.com/etnz/deb-builder/source"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

// Package represents the definition of a Debian package: where its control
// files and data come from, and where the results are written.
type Package struct {
	// Defines is a map of variables available to templates ({{.name}}) and
	// to control files ([[name]]).
	Defines map[string]string `json:"defines" yaml:"defines"`
	// Control is a directory whose regular files are the control files.
	Control string `json:"control" yaml:"control"`
	// ControlFiles lists additional control files.
	ControlFiles []string `json:"control_files" yaml:"control_files"`
	// Data lists the data sources, in order.
	Data []Data `json:"data" yaml:"data"`
	// Compression of the data archive: "gzip" (default), "bzip2" or "none".
	Compression string `json:"compression" yaml:"compression"`
	// Output is the .deb to write. When empty or ending with a slash, the
	// package is written in that directory under its standard filename.
	Output string `json:"output" yaml:"output"`
	// Changes, when set, also produces a .changes document.
	Changes *Changes `json:"changes" yaml:"changes"`

	filePath string
	fs       afero.Fs
	engine   *templateEngine
}

// Data is a data source of the package.
type Data struct {
	// Type is "file", "archive", "directory" or "literal".
	Type string `json:"type" yaml:"type"`
	Src  string `json:"src" yaml:"src"`
	// Paths are the directories created by a literal source.
	Paths []string `json:"paths" yaml:"paths"`
	// FailOnMissing defaults to true.
	FailOnMissing *bool `json:"fail_on_missing" yaml:"fail_on_missing"`
	// Includes and Excludes are comma or space separated glob lists.
	Includes string  `json:"includes" yaml:"includes"`
	Excludes string  `json:"excludes" yaml:"excludes"`
	Mapper   *Mapper `json:"mapper" yaml:"mapper"`
}

// Mapper rewrites the entries of a data source.
type Mapper struct {
	Prefix   string `json:"prefix" yaml:"prefix"`
	Strip    int    `json:"strip" yaml:"strip"`
	User     string `json:"user" yaml:"user"`
	UID      *int   `json:"uid" yaml:"uid"`
	Group    string `json:"group" yaml:"group"`
	GID      *int   `json:"gid" yaml:"gid"`
	FileMode string `json:"filemode" yaml:"filemode"`
	DirMode  string `json:"dirmode" yaml:"dirmode"`
}

// Changes describes the .changes document.
type Changes struct {
	// Output defaults to the .deb path with a .changes extension.
	Output string `json:"output" yaml:"output"`
	// Entries lists the change sets, most recent first.
	Entries []ChangeEntry `json:"entries" yaml:"entries"`
	// Sign, when set, clear-signs the document.
	Sign *Signing `json:"sign" yaml:"sign"`
}

// ChangeEntry is one release of the changelog. Package and Version default
// to the ones of the package.
type ChangeEntry struct {
	Package      string   `json:"package" yaml:"package"`
	Version      string   `json:"version" yaml:"version"`
	Distribution string   `json:"distribution" yaml:"distribution"`
	Urgency      string   `json:"urgency" yaml:"urgency"`
	ChangedBy    string   `json:"changed_by" yaml:"changed_by"`
	Changes      []string `json:"changes" yaml:"changes"`
}

// Signing selects the OpenPGP key.
type Signing struct {
	// Keyring is the path to the secret key ring.
	Keyring string `json:"keyring" yaml:"keyring"`
	// Key is the key id.
	Key string `json:"key" yaml:"key"`
	// Passphrase is better given through Options.
	Passphrase string `json:"passphrase" yaml:"passphrase"`
}

// Load reads and parses a package definition file.
// It supports both JSON and YAML formats based on the file extension.
func Load(fs afero.Fs, path string, defines map[string]string) (*Package, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package definition: %w", err)
	}

	var pkg Package
	if err := unmarshal(path, content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package definition %s: %w", path, err)
	}

	pkg.filePath = path
	pkg.fs = fs
	// Defines given by the caller win over the ones of the file.
	pkg.engine = newTemplateEngine(pkg.Defines).sub(defines)
	return &pkg, nil
}

// Options are the settings of a build that do not belong to the definition.
type Options struct {
	// Maintainer overrides the Maintainer of the control file when complete.
	Maintainer deb.Maintainer
	// Passphrase unlocks the signing key when the definition has none.
	Passphrase string
	Logger     *slog.Logger
	Listener   deb.Listener
}

// Result describes what a build produced.
type Result struct {
	Package       *deb.Descriptor
	Output        string
	Changes       *deb.Descriptor
	ChangesOutput string
}

func (p *Package) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(p.filePath), path)
}

func (p *Package) renderPath(name, path string) (string, error) {
	v, err := p.engine.render(name, path)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return p.resolve(v), nil
}

// controlFiles lists the control inputs: the files of the control directory
// in lexical order, then the explicit control files.
func (p *Package) controlFiles() ([]string, error) {
	var files []string
	if p.Control != "" {
		dir, err := p.renderPath("control", p.Control)
		if err != nil {
			return nil, err
		}
		infos, err := afero.ReadDir(p.fs, dir)
		if err != nil {
			return nil, fmt.Errorf("reading control directory: %w", err)
		}
		for _, info := range infos {
			if info.Mode().IsRegular() {
				files = append(files, filepath.Join(dir, info.Name()))
			}
		}
	}
	for i, f := range p.ControlFiles {
		path, err := p.renderPath(fmt.Sprintf("control_files[%d]", i), f)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

// sources creates the data sources.
func (p *Package) sources() ([]deb.Source, error) {
	var sources []deb.Source
	for i, d := range p.Data {
		name := fmt.Sprintf("data[%d]", i)
		src, err := p.renderPath(name+".src", d.Src)
		if err != nil {
			return nil, err
		}
		paths, err := p.engine.renderAll(name+".paths", d.Paths)
		if err != nil {
			return nil, fmt.Errorf("rendering %s.paths: %w", name, err)
		}

		c := source.Config{
			Type:          source.Type(d.Type),
			Src:           src,
			Paths:         paths,
			FailOnMissing: d.FailOnMissing == nil || *d.FailOnMissing,
			Filter: source.Filter{
				Includes: source.SplitPatterns(d.Includes),
				Excludes: source.SplitPatterns(d.Excludes),
			},
		}
		if m := d.Mapper; m != nil {
			prefix, err := p.engine.render(name+".mapper.prefix", m.Prefix)
			if err != nil {
				return nil, fmt.Errorf("rendering %s.mapper.prefix: %w", name, err)
			}
			c.Mapper = &source.PermMapper{
				Prefix:   prefix,
				Strip:    m.Strip,
				User:     m.User,
				UID:      m.UID,
				Group:    m.Group,
				GID:      m.GID,
				FileMode: m.FileMode,
				DirMode:  m.DirMode,
			}
		}

		s, err := source.New(p.fs, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// Build writes the package, and the .changes document when requested.
func (p *Package) Build(opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts.Listener.Emit(EventManifestLoaded{Path: p.filePath})

	controlFiles, err := p.controlFiles()
	if err != nil {
		return nil, err
	}
	sources, err := p.sources()
	if err != nil {
		return nil, err
	}

	token, err := p.engine.render("compression", p.Compression)
	if err != nil {
		return nil, fmt.Errorf("rendering compression: %w", err)
	}
	if token == "" {
		token = deb.Gzip.String()
	}

	rendered, err := p.engine.render("output", p.Output)
	if err != nil {
		return nil, fmt.Errorf("rendering output: %w", err)
	}
	output := p.resolve(rendered)
	// Without a file name, the package name is only known once built.
	standardName := rendered == "" || strings.HasSuffix(rendered, "/")
	if standardName {
		dir := output
		if dir == "" {
			dir = filepath.Dir(p.filePath)
		}
		output = filepath.Join(dir, ".deb-build.deb")
	}

	proc := deb.NewProcessor(p.fs)
	proc.Substitution.Resolver = p.engine
	proc.Maintainer = opts.Maintainer
	proc.Logger = logger
	proc.Listener = opts.Listener

	d, err := proc.CreateDeb(controlFiles, sources, output, deb.ParseCompression(token))
	if err != nil {
		return nil, err
	}

	if standardName {
		final := filepath.Join(filepath.Dir(output), deb.StandardFilename(d))
		if err := p.fs.Rename(output, final); err != nil {
			return nil, fmt.Errorf("renaming package: %w", err)
		}
		output = final
		d.Set(deb.FieldFile, filepath.Base(final))
	}
	opts.Listener.Emit(EventPackageBuilt{
		Manifest:     p.filePath,
		Output:       output,
		Package:      d.Value(deb.FieldPackage),
		Version:      d.Value(deb.FieldVersion),
		Architecture: d.Value(deb.FieldArchitecture),
	})

	res := &Result{Package: d, Output: output}
	if p.Changes == nil {
		return res, nil
	}
	if err := p.buildChanges(proc, opts, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Package) buildChanges(proc *deb.Processor, opts Options, res *Result) error {
	c := p.Changes

	output, err := p.renderPath("changes.output", c.Output)
	if err != nil {
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(res.Output, filepath.Ext(res.Output)) + ".changes"
	}

	var sets deb.StaticChanges
	for i, e := range c.Entries {
		name := fmt.Sprintf("changes.entries[%d]", i)
		changes, err := p.engine.renderAll(name+".changes", e.Changes)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", name, err)
		}
		set := deb.ChangeSet{
			Package:      e.Package,
			Version:      e.Version,
			Distribution: e.Distribution,
			Urgency:      e.Urgency,
			ChangedBy:    e.ChangedBy,
			Changes:      changes,
		}
		if set.Package == "" {
			set.Package = res.Package.Value(deb.FieldPackage)
		}
		if set.Version == "" {
			set.Version = res.Package.Value(deb.FieldVersion)
		}
		if set.Distribution == "" {
			set.Distribution = res.Package.Value(deb.FieldDistribution)
		}
		sets = append(sets, set)
	}

	var creds deb.Credentials
	if s := c.Sign; s != nil {
		keyring, err := p.renderPath("changes.sign.keyring", s.Keyring)
		if err != nil {
			return err
		}
		ring, err := afero.ReadFile(p.fs, keyring)
		if err != nil {
			return fmt.Errorf("reading key ring: %w", err)
		}
		creds = deb.Credentials{
			Ring:       bytes.NewReader(ring),
			KeyID:      s.Key,
			Passphrase: s.Passphrase,
		}
		if creds.Passphrase == "" {
			creds.Passphrase = opts.Passphrase
		}
	}

	out, err := p.fs.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	changes, err := proc.CreateChanges(res.Package, sets, creds, out)
	if err != nil {
		return err
	}
	res.Changes = changes
	res.ChangesOutput = output
	opts.Listener.Emit(EventChangesWritten{Output: output, SigningKey: creds.KeyID})
	return nil
}

// unmarshal parses JSON or YAML based on file extension.
func unmarshal(path string, data []byte, v interface{}) error {
	ext := strings.ToLower(filepath.Ext(path))
	r := bytes.NewReader(data)
	if ext == ".yaml" || ext == ".yml" {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		return dec.Decode(v)
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
