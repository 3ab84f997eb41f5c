// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package cloudinit

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	vm "github.com/hashicorp/nocloud-seed/internal/shared"

	"github.com/hashicorp/go-hclog"
)

const (
	// MountTarget is where the NoCloud datasource looks for its seed inside
	// the machine.
	MountTarget = "/var/lib/cloud/seed/nocloud"

	dirPermissions  = 0755
	filePermissions = 0644

	templateFSRoot   = "templates"
	metaDataTemplate = "meta-data.tmpl"
)

var (
	//go:embed templates
	templateFS embed.FS
)

// InstanceMetaData is the fallback meta-data written when the user supplied
// none. Values are written verbatim, never quoted.
type InstanceMetaData struct {
	InstanceID    string
	LocalHostname string
}

// File is a document written into the seed directory.
type File struct {
	Name    string
	Content string

	// Generated is set for the meta-data synthesized from the machine
	// identity.
	Generated bool
}

// MaterializedSet is the result of Prepare. An empty set has no files and
// requests no mount.
type MaterializedSet struct {
	Files       []File
	MountSource string
	MountTarget string
}

// Empty reports whether nothing was written and no mount is needed.
func (s *MaterializedSet) Empty() bool {
	return s == nil || s.MountSource == ""
}

// Mount returns the read-only bind mount the caller has to add to the
// machine's volumes.
func (s *MaterializedSet) Mount() vm.MountFileConfig {
	return vm.MountFileConfig{
		Source:      s.MountSource,
		Destination: s.MountTarget,
		ReadOnly:    true,
	}
}

// Filenames returns the names of the written files in write order.
func (s *MaterializedSet) Filenames() []string {
	names := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		names = append(names, f.Name)
	}

	return names
}

type Controller struct {
	logger hclog.Logger
}

func NewController(logger hclog.Logger) *Controller {
	return &Controller{
		logger: logger.Named("cloud-init"),
	}
}

// Prepare writes the active documents of ci into workDir, adding a meta-data
// document derived from id when none was configured. Relative document paths
// are resolved against baseDir. When no document is active nothing is
// written and an empty set is returned.
//
// Files written before a failure are left in place.
func (c *Controller) Prepare(ci *Config, id vm.Identity, workDir, baseDir string) (*MaterializedSet, error) {
	docs := ci.Active()
	if len(docs) == 0 {
		c.logger.Debug("no cloud-init documents configured", "name", id.Name)
		return &MaterializedSet{}, nil
	}

	if err := os.MkdirAll(workDir, dirPermissions); err != nil {
		return nil, &DirectoryCreateError{Path: workDir, Err: err}
	}

	set := &MaterializedSet{}
	hasMetaData := false

	for _, doc := range docs {
		content, err := c.Render(doc, baseDir)
		if err != nil {
			return nil, err
		}

		if err := set.write(workDir, doc.Kind.Filename(), content, false); err != nil {
			return nil, err
		}

		c.logger.Debug("document written", "name", id.Name, "kind", doc.Kind, "contents", content)

		if doc.Kind == MetaData {
			hasMetaData = true
		}
	}

	if !hasMetaData {
		md, err := renderMetaData(id)
		if err != nil {
			return nil, fmt.Errorf("cloudinit: unable to render meta data %s: %w", id.Name, err)
		}

		if err := set.write(workDir, MetaData.Filename(), md, true); err != nil {
			return nil, err
		}

		c.logger.Debug("meta-data synthesized", "name", id.Name, "contents", md)
	}

	set.MountSource = workDir
	set.MountTarget = MountTarget

	c.logger.Info("cloud-init seed prepared", "name", id.Name, "path", workDir, "files", set.Filenames())

	return set, nil
}

// Render returns the normalized content of a single document without
// writing anything.
func (c *Controller) Render(doc Document, baseDir string) (string, error) {
	content := doc.Inline

	if doc.Path != "" {
		if doc.Inline != "" {
			c.logger.Warn("both inline and path set, using path", "kind", doc.Kind, "path", doc.Path)
		}

		path := ResolvePath(baseDir, doc.Path)
		b, err := readSource(path)
		if err != nil {
			return "", &SourceReadError{Kind: doc.Kind, Path: path, Err: err}
		}

		content = string(b)
	}

	return NormalizeHeader(doc.ContentType, content), nil
}

// Cleanup removes workDir and everything below it. A missing directory is
// not an error, anything at workDir that is not a directory is left alone.
func (c *Controller) Cleanup(workDir string) error {
	info, err := os.Lstat(workDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("nothing to clean up", "path", workDir)
			return nil
		}

		return &CleanupError{Path: workDir, Err: err}
	}

	if !info.IsDir() {
		c.logger.Warn("seed path is not a directory, leaving it in place", "path", workDir, "mode", info.Mode().String())
		return nil
	}

	if err := os.RemoveAll(workDir); err != nil {
		return &CleanupError{Path: workDir, Err: err}
	}

	c.logger.Info("cloud-init seed removed", "path", workDir)

	return nil
}

// ResolvePath interprets path relative to baseDir unless it is absolute.
func ResolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(baseDir, path)
}

func readSource(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}

	return os.ReadFile(path)
}

func renderMetaData(id vm.Identity) (string, error) {
	var b bytes.Buffer
	err := executeTemplate(InstanceMetaData{
		InstanceID:    id.Name,
		LocalHostname: id.EffectiveHostname(),
	}, metaDataTemplate, &b)
	if err != nil {
		return "", err
	}

	return b.String(), nil
}

func executeTemplate(data any, in string, out io.Writer) error {
	fsys, err := fs.Sub(templateFS, templateFSRoot)
	if err != nil {
		return fmt.Errorf("cloudinit: unable to get templates fs %s: %w", in, err)
	}

	tmpl, err := template.ParseFS(fsys, in)
	if err != nil {
		return fmt.Errorf("cloudinit: unable to parse template %s: %w", in, err)
	}

	if err := tmpl.Execute(out, data); err != nil {
		return fmt.Errorf("cloudinit: unable to execute template %s: %w", in, err)
	}

	return nil
}

func (s *MaterializedSet) write(dir, name, content string, generated bool) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), filePermissions); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	s.Files = append(s.Files, File{Name: name, Content: content, Generated: generated})

	return nil
}
