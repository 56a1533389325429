// Package dockerfile renders build recipes into Dockerfiles and packages
// build contexts for the Docker daemon.
package dockerfile

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/google/shlex"

	"github.com/schmitthub/gantry/internal/config"
)

//go:embed assets/Dockerfile.tmpl
var assetsFS embed.FS

// DefaultWorkdir is used when the recipe does not set one.
const DefaultWorkdir = "/usr/src/app"

// Context carries the template data for a generated Dockerfile. Only fields
// that affect the image filesystem belong here; labels are applied through
// the build API so they never invalidate layer caches.
type Context struct {
	BaseImage string
	Workdir   string
	Manifest  string
	Install   string
	Port      int
	Command   []string
}

// Generator renders a Dockerfile from a build recipe.
type Generator struct {
	cfg *config.BuildConfig
}

// NewGenerator creates a Generator for the given build configuration.
func NewGenerator(cfg *config.BuildConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate renders the Dockerfile bytes. The output is deterministic given
// identical configuration: same inputs, byte-identical recipe.
func (g *Generator) Generate() ([]byte, error) {
	if g.cfg.BaseImage == "" {
		return nil, fmt.Errorf("generate dockerfile: build.base_image is required")
	}
	if g.cfg.Command == "" {
		return nil, fmt.Errorf("generate dockerfile: build.command is required")
	}

	argv, err := shlex.Split(g.cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("generate dockerfile: parsing build.command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("generate dockerfile: build.command is empty")
	}

	ctx := Context{
		BaseImage: g.cfg.BaseImage,
		Workdir:   g.cfg.Workdir,
		Manifest:  g.cfg.Manifest,
		Install:   g.cfg.Install,
		Port:      g.cfg.Port,
		Command:   argv,
	}
	if ctx.Workdir == "" {
		ctx.Workdir = DefaultWorkdir
	}

	tmpl, err := template.ParseFS(assetsFS, "assets/Dockerfile.tmpl")
	if err != nil {
		return nil, fmt.Errorf("generate dockerfile: parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("generate dockerfile: rendering template: %w", err)
	}
	return buf.Bytes(), nil
}
