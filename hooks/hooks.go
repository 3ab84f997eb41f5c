// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

// Package hooks connects the cloud-init seed to a host's machine lifecycle.
// The host calls BeforeCreate before the container is created and
// AfterDestroy or AfterHalt once it is gone.
package hooks

import (
	"fmt"

	"github.com/hashicorp/nocloud-seed/cloudinit"
	vm "github.com/hashicorp/nocloud-seed/internal/shared"

	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultProvider is the container provider the hooks act for.
	DefaultProvider = "docker"

	// DefaultDataDir is where seeds live, relative to the machine's root
	// path.
	DefaultDataDir = ".vagrant/cloudinit"
)

// UI is the host's user facing message sink.
type UI interface {
	Info(msg string)
	Success(msg string)
	Warn(msg string)
}

// Materializer writes and removes cloud-init seeds. It is implemented by
// cloudinit.Controller.
type Materializer interface {
	Prepare(ci *cloudinit.Config, id vm.Identity, workDir, baseDir string) (*cloudinit.MaterializedSet, error)
	Cleanup(workDir string) error
}

// Machine is the snapshot of a machine the host passes to every hook.
type Machine struct {
	Provider string
	Name     string
	Hostname string

	// RootPath is the project directory, relative document paths are
	// resolved against it.
	RootPath string

	CloudInit *cloudinit.Config

	// Volumes is the provider's volume list, owned by the host. BeforeCreate
	// appends the seed mount to it.
	Volumes []string
}

func (m *Machine) Identity() vm.Identity {
	return vm.Identity{Name: m.Name, Hostname: m.Hostname}
}

type Handler struct {
	logger       hclog.Logger
	provider     string
	dataDir      string
	ui           UI
	materializer Materializer
	prepared     *preparedStore
}

type Option func(*Handler)

// WithProvider sets the provider the hooks act for.
func WithProvider(name string) Option {
	return func(h *Handler) {
		h.provider = name
	}
}

// WithDataDir sets the seed directory. A relative directory is resolved
// against each machine's root path.
func WithDataDir(dir string) Option {
	return func(h *Handler) {
		h.dataDir = dir
	}
}

func WithUI(ui UI) Option {
	return func(h *Handler) {
		h.ui = ui
	}
}

func WithMaterializer(m Materializer) Option {
	return func(h *Handler) {
		h.materializer = m
	}
}

// New creates a new hooks handler.
func New(logger hclog.Logger, opts ...Option) *Handler {
	h := &Handler{
		logger:   logger.Named("hooks"),
		provider: DefaultProvider,
		dataDir:  DefaultDataDir,
		ui:       nopUI{},
		prepared: newPreparedStore(),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.materializer == nil {
		h.materializer = cloudinit.NewController(logger)
	}

	return h
}

// WorkDir returns the seed directory of the machine.
func (h *Handler) WorkDir(m *Machine) string {
	return cloudinit.ResolvePath(cloudinit.ResolvePath(m.RootPath, h.dataDir), m.Name)
}

// Prepared reports whether this handler prepared a seed for the named
// machine that was not cleaned up yet.
func (h *Handler) Prepared(name string) (*cloudinit.MaterializedSet, bool) {
	return h.prepared.Get(name)
}

// BeforeCreate materializes the machine's cloud-init seed and appends the
// read-only seed mount to m.Volumes. Machines of other providers, and
// machines without any document configured, are left untouched. An error
// must abort the creation of the machine.
func (h *Handler) BeforeCreate(m *Machine) error {
	if !h.applies(m) {
		h.logger.Trace("skipping machine of other provider", "machine", m.Name, "provider", m.Provider)
		return nil
	}

	if len(m.CloudInit.Active()) == 0 {
		h.logger.Debug("cloud-init not configured", "machine", m.Name)
		return nil
	}

	id := m.Identity()
	if err := id.ValidateName(); err != nil {
		return fmt.Errorf("hooks: invalid machine %q: %w", m.Name, err)
	}

	// An invalid hostname is still passed through to meta-data.
	if id.Hostname != "" && !vm.IsValidHostname(id.Hostname) {
		h.logger.Warn("hostname is not a valid DNS name", "machine", m.Name, "hostname", id.Hostname)
		h.ui.Warn(fmt.Sprintf("hostname %q is not a valid DNS name", id.Hostname))
	}

	h.ui.Info("preparing cloud-init seed")

	workDir := h.WorkDir(m)
	set, err := h.materializer.Prepare(m.CloudInit, id, workDir, m.RootPath)
	if err != nil {
		return fmt.Errorf("hooks: unable to prepare cloud-init for %s: %w", m.Name, err)
	}

	if set.Empty() {
		return nil
	}

	for _, f := range set.Files {
		if f.Generated {
			h.ui.Info(fmt.Sprintf("Created %s (auto-generated)", f.Name))
		} else {
			h.ui.Info(fmt.Sprintf("Created %s", f.Name))
		}
	}

	mount := set.Mount().String()
	m.Volumes = append(m.Volumes, mount)
	h.prepared.Set(m.Name, set)

	h.logger.Info("cloud-init seed mounted", "machine", m.Name, "volume", mount)
	h.ui.Success(fmt.Sprintf("cloud-init seed prepared at %s", set.MountSource))
	h.ui.Info(fmt.Sprintf("Files will be mounted at %s in container", set.MountTarget))

	return nil
}

// AfterDestroy removes the machine's seed.
func (h *Handler) AfterDestroy(m *Machine) {
	h.cleanup(m, "destroy")
}

// AfterHalt removes the machine's seed. It is rebuilt on the next create.
func (h *Handler) AfterHalt(m *Machine) {
	h.cleanup(m, "halt")
}

// cleanup runs for every machine of the provider, prepared or not. Removal
// failures are reported as warnings and never fail the lifecycle action.
func (h *Handler) cleanup(m *Machine, event string) {
	if !h.applies(m) {
		return
	}

	if err := (vm.Identity{Name: m.Name}).ValidateName(); err != nil {
		h.logger.Warn("refusing to clean up machine", "machine", m.Name, "event", event, "error", err)
		return
	}

	workDir := h.WorkDir(m)
	if err := h.materializer.Cleanup(workDir); err != nil {
		h.logger.Warn("unable to remove cloud-init seed", "machine", m.Name, "event", event, "error", err)
		h.ui.Warn(fmt.Sprintf("unable to remove cloud-init seed: %v", err))
		return
	}

	if h.prepared.Delete(m.Name) {
		h.ui.Info("cloud-init seed removed")
	}

	h.logger.Debug("cloud-init seed cleaned up", "machine", m.Name, "event", event)
}

func (h *Handler) applies(m *Machine) bool {
	return m != nil && m.Provider == h.provider
}

type nopUI struct{}

func (nopUI) Info(string)    {}
func (nopUI) Success(string) {}
func (nopUI) Warn(string)    {}
