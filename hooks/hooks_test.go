// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/nocloud-seed/cloudinit"
	vm "github.com/hashicorp/nocloud-seed/internal/shared"
	"github.com/hashicorp/nocloud-seed/testutil/mock"
	mockhooks "github.com/hashicorp/nocloud-seed/testutil/mock/hooks"

	"github.com/hashicorp/go-hclog"
	"github.com/shoenig/test/must"
)

func strPtr(s string) *string { return &s }

func userDataConfig() *cloudinit.Config {
	return cloudinit.Resolve(&cloudinit.RawConfig{
		UserData: &cloudinit.RawDocument{Inline: strPtr("packages: [curl]")},
	})
}

func TestHandler_WorkDir(t *testing.T) {
	m := &Machine{Name: "web01", RootPath: "/proj"}

	must.Eq(t, "/proj/.vagrant/cloudinit/web01", New(hclog.NewNullLogger()).WorkDir(m))
	must.Eq(t, "/proj/state/seed/web01", New(hclog.NewNullLogger(), WithDataDir("state/seed")).WorkDir(m))
	must.Eq(t, "/var/lib/nocloud/web01", New(hclog.NewNullLogger(), WithDataDir("/var/lib/nocloud")).WorkDir(m))
}

func TestHandler_BeforeCreate(t *testing.T) {
	ci := userDataConfig()
	prepared := &cloudinit.MaterializedSet{
		Files: []cloudinit.File{
			{Name: "user-data"},
			{Name: "meta-data", Generated: true},
		},
		MountSource: "/proj/.vagrant/cloudinit/web01",
		MountTarget: cloudinit.MountTarget,
	}

	tests := []struct {
		name            string
		machine         *Machine
		expect          []any
		expectedVolumes []string
		expectedUI      []string
		wantErr         error
	}{
		{
			name: "mount_appended",
			machine: &Machine{
				Provider:  "docker",
				Name:      "web01",
				RootPath:  "/proj",
				CloudInit: ci,
				Volumes:   []string{"/data:/data"},
			},
			expect: []any{
				mockhooks.Prepare{
					Config:   ci,
					Identity: vm.Identity{Name: "web01"},
					WorkDir:  "/proj/.vagrant/cloudinit/web01",
					BaseDir:  "/proj",
					Result:   prepared,
				},
			},
			expectedVolumes: []string{"/data:/data", "/proj/.vagrant/cloudinit/web01:/var/lib/cloud/seed/nocloud:ro"},
			expectedUI:      []string{"info", "info", "info", "success", "info"},
		},
		{
			name: "invalid_hostname_is_a_warning",
			machine: &Machine{
				Provider:  "docker",
				Name:      "web01",
				Hostname:  "my_host",
				RootPath:  "/proj",
				CloudInit: ci,
			},
			expect: []any{
				mockhooks.Prepare{
					Config:   ci,
					Identity: vm.Identity{Name: "web01", Hostname: "my_host"},
					WorkDir:  "/proj/.vagrant/cloudinit/web01",
					BaseDir:  "/proj",
					Result:   prepared,
				},
			},
			expectedVolumes: []string{"/proj/.vagrant/cloudinit/web01:/var/lib/cloud/seed/nocloud:ro"},
			expectedUI:      []string{"warn", "info", "info", "info", "success", "info"},
		},
		{
			name: "other_provider_skipped",
			machine: &Machine{
				Provider:  "virtualbox",
				Name:      "web01",
				RootPath:  "/proj",
				CloudInit: ci,
			},
			expectedUI: []string{},
		},
		{
			name: "nothing_configured",
			machine: &Machine{
				Provider:  "docker",
				Name:      "web01",
				RootPath:  "/proj",
				CloudInit: cloudinit.Resolve(nil),
			},
			expectedUI: []string{},
		},
		{
			name: "no_cloud_init_block",
			machine: &Machine{
				Provider: "docker",
				Name:     "web01",
				RootPath: "/proj",
			},
			expectedUI: []string{},
		},
		{
			name: "invalid_identity",
			machine: &Machine{
				Provider:  "docker",
				Hostname:  "bad_host",
				RootPath:  "/proj",
				CloudInit: ci,
			},
			expectedUI: []string{},
			wantErr:    vm.ErrEmptyName,
		},
		{
			name: "prepare_error_propagated",
			machine: &Machine{
				Provider:  "docker",
				Name:      "web01",
				Hostname:  "web01.local",
				RootPath:  "/proj",
				CloudInit: ci,
			},
			expect: []any{
				mockhooks.Prepare{
					Config:   ci,
					Identity: vm.Identity{Name: "web01", Hostname: "web01.local"},
					WorkDir:  "/proj/.vagrant/cloudinit/web01",
					BaseDir:  "/proj",
					Err:      mock.MockTestErr,
				},
			},
			expectedUI: []string{"info"},
			wantErr:    mock.MockTestErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			materializer := mockhooks.NewMaterializer(t).Expect(tt.expect...)
			ui := mockhooks.NewRecordingUI()

			h := New(hclog.NewNullLogger(), WithMaterializer(materializer), WithUI(ui))

			err := h.BeforeCreate(tt.machine)
			if tt.wantErr != nil {
				must.ErrorIs(t, err, tt.wantErr)
			} else {
				must.NoError(t, err)
			}

			must.Eq(t, tt.expectedVolumes, tt.machine.Volumes)
			must.Eq(t, tt.expectedUI, ui.Levels())
			materializer.AssertExpectations()

			_, ok := h.Prepared(tt.machine.Name)
			must.Eq(t, tt.expectedVolumes != nil, ok)
		})
	}
}

func TestHandler_BeforeCreate_messages(t *testing.T) {
	ci := userDataConfig()
	materializer := mockhooks.NewMaterializer(t).Expect(
		mockhooks.Prepare{
			Config:   ci,
			Identity: vm.Identity{Name: "web01"},
			WorkDir:  "/proj/.vagrant/cloudinit/web01",
			BaseDir:  "/proj",
			Result: &cloudinit.MaterializedSet{
				Files: []cloudinit.File{
					{Name: "user-data"},
					{Name: "meta-data", Generated: true},
				},
				MountSource: "/proj/.vagrant/cloudinit/web01",
				MountTarget: cloudinit.MountTarget,
			},
		},
	)
	ui := mockhooks.NewRecordingUI()
	h := New(hclog.NewNullLogger(), WithMaterializer(materializer), WithUI(ui))

	must.NoError(t, h.BeforeCreate(&Machine{Provider: "docker", Name: "web01", RootPath: "/proj", CloudInit: ci}))
	materializer.AssertExpectations()

	must.Eq(t, []mockhooks.Message{
		{Level: "info", Text: "preparing cloud-init seed"},
		{Level: "info", Text: "Created user-data"},
		{Level: "info", Text: "Created meta-data (auto-generated)"},
		{Level: "success", Text: "cloud-init seed prepared at /proj/.vagrant/cloudinit/web01"},
		{Level: "info", Text: "Files will be mounted at /var/lib/cloud/seed/nocloud in container"},
	}, ui.Messages)
}

func TestHandler_AfterDestroy(t *testing.T) {
	t.Run("removes seed", func(t *testing.T) {
		materializer := mockhooks.NewMaterializer(t).Expect(
			mockhooks.Cleanup{WorkDir: "/proj/.vagrant/cloudinit/web01"},
		)
		ui := mockhooks.NewRecordingUI()
		h := New(hclog.NewNullLogger(), WithMaterializer(materializer), WithUI(ui))

		h.AfterDestroy(&Machine{Provider: "docker", Name: "web01", RootPath: "/proj"})

		materializer.AssertExpectations()
		// Never prepared by this handler, so nothing to report.
		must.SliceEmpty(t, ui.Messages)
	})

	t.Run("cleanup error is a warning", func(t *testing.T) {
		cleanupErr := &cloudinit.CleanupError{Path: "/proj/.vagrant/cloudinit/web01", Err: fs.ErrPermission}
		materializer := mockhooks.NewMaterializer(t).Expect(
			mockhooks.Cleanup{WorkDir: "/proj/.vagrant/cloudinit/web01", Err: cleanupErr},
		)
		ui := mockhooks.NewRecordingUI()
		h := New(hclog.NewNullLogger(), WithMaterializer(materializer), WithUI(ui))

		h.AfterDestroy(&Machine{Provider: "docker", Name: "web01", RootPath: "/proj"})

		materializer.AssertExpectations()
		must.Eq(t, []string{"warn"}, ui.Levels())
		must.StrContains(t, ui.Messages[0].Text, "permission denied")
	})

	t.Run("other provider skipped", func(t *testing.T) {
		materializer := mockhooks.NewMaterializer(t)
		h := New(hclog.NewNullLogger(), WithMaterializer(materializer))

		h.AfterDestroy(&Machine{Provider: "libvirt", Name: "web01", RootPath: "/proj"})
		materializer.AssertExpectations()
	})

	t.Run("unnamed machine skipped", func(t *testing.T) {
		materializer := mockhooks.NewMaterializer(t)
		h := New(hclog.NewNullLogger(), WithMaterializer(materializer))

		h.AfterHalt(&Machine{Provider: "docker", RootPath: "/proj"})
		materializer.AssertExpectations()
	})
}

func TestHandler_lifecycle(t *testing.T) {
	root := t.TempDir()
	must.NoError(t, os.MkdirAll(filepath.Join(root, "files"), 0755))
	must.NoError(t, os.WriteFile(filepath.Join(root, "files", "cloud-config.yml"), []byte("packages: [curl]\n"), 0644))

	ci := cloudinit.Resolve(&cloudinit.RawConfig{
		UserData: &cloudinit.RawDocument{Path: strPtr("files/cloud-config.yml")},
	})

	ui := mockhooks.NewRecordingUI()
	h := New(hclog.NewNullLogger(), WithUI(ui))
	m := &Machine{Provider: "docker", Name: "web01", RootPath: root, CloudInit: ci}
	workDir := filepath.Join(root, ".vagrant", "cloudinit", "web01")

	// Absent -> Prepared
	must.NoError(t, h.BeforeCreate(m))
	must.Eq(t, []string{workDir + ":/var/lib/cloud/seed/nocloud:ro"}, m.Volumes)

	b, err := os.ReadFile(filepath.Join(workDir, "user-data"))
	must.NoError(t, err)
	must.Eq(t, "#cloud-config\npackages: [curl]\n", string(b))

	b, err = os.ReadFile(filepath.Join(workDir, "meta-data"))
	must.NoError(t, err)
	must.Eq(t, "instance-id: web01\nlocal-hostname: web01\n", string(b))

	set, ok := h.Prepared("web01")
	must.True(t, ok)
	must.Eq(t, []string{"user-data", "meta-data"}, set.Filenames())

	// Prepared -> Absent
	h.AfterHalt(m)
	_, err = os.Stat(workDir)
	must.True(t, errors.Is(err, fs.ErrNotExist))

	_, ok = h.Prepared("web01")
	must.False(t, ok)

	// Absent -> Absent
	h.AfterDestroy(m)

	must.Eq(t, []string{"info", "info", "info", "success", "info", "info"}, ui.Levels())
}

func TestHandler_BeforeCreate_sourceReadError(t *testing.T) {
	root := t.TempDir()
	ci := cloudinit.Resolve(&cloudinit.RawConfig{
		UserData: &cloudinit.RawDocument{Path: strPtr("missing.yml")},
	})

	h := New(hclog.NewNullLogger())
	m := &Machine{Provider: "docker", Name: "web01", RootPath: root, CloudInit: ci}

	err := h.BeforeCreate(m)

	var srcErr *cloudinit.SourceReadError
	must.True(t, errors.As(err, &srcErr))
	must.Eq(t, filepath.Join(root, "missing.yml"), srcErr.Path)
	must.SliceEmpty(t, m.Volumes)
}
