// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"github.com/hashicorp/nocloud-seed/cloudinit"
	vm "github.com/hashicorp/nocloud-seed/internal/shared"
	"github.com/shoenig/test/must"
)

type Prepare struct {
	// Config is compared by identity, a nil Config matches any.
	Config   *cloudinit.Config
	Identity vm.Identity
	WorkDir  string
	BaseDir  string
	Result   *cloudinit.MaterializedSet
	Err      error
}

type Cleanup struct {
	WorkDir string
	Err     error
}

func NewMaterializer(t must.T) *MockMaterializer {
	return &MockMaterializer{t: t}
}

type MockMaterializer struct {
	t must.T

	prepare []Prepare
	cleanup []Cleanup
}

func (m *MockMaterializer) Expect(calls ...any) *MockMaterializer {
	for _, call := range calls {
		switch c := call.(type) {
		case Prepare:
			m.ExpectPrepare(c)
		case Cleanup:
			m.ExpectCleanup(c)
		default:
			m.t.Fatalf("unsupported type for mock expectation: %T", c)
		}
	}

	return m
}

func (m *MockMaterializer) ExpectPrepare(p Prepare) *MockMaterializer {
	m.prepare = append(m.prepare, p)
	return m
}

func (m *MockMaterializer) ExpectCleanup(c Cleanup) *MockMaterializer {
	m.cleanup = append(m.cleanup, c)
	return m
}

func (m *MockMaterializer) Prepare(ci *cloudinit.Config, id vm.Identity, workDir, baseDir string) (*cloudinit.MaterializedSet, error) {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.prepare,
		must.Sprint("Unexpected call to Prepare"))
	call := m.prepare[0]
	m.prepare = m.prepare[1:]

	if call.Config != nil {
		must.True(m.t, call.Config == ci,
			must.Sprint("Prepare received incorrect arguments"))
	}
	must.Eq(m.t, call.Identity, id,
		must.Sprint("Prepare received incorrect arguments"))
	must.Eq(m.t, call.WorkDir, workDir,
		must.Sprint("Prepare received incorrect arguments"))
	must.Eq(m.t, call.BaseDir, baseDir,
		must.Sprint("Prepare received incorrect arguments"))

	return call.Result, call.Err
}

func (m *MockMaterializer) Cleanup(workDir string) error {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.cleanup,
		must.Sprint("Unexpected call to Cleanup"))
	call := m.cleanup[0]
	m.cleanup = m.cleanup[1:]

	must.Eq(m.t, call.WorkDir, workDir,
		must.Sprint("Cleanup received incorrect arguments"))

	return call.Err
}

// AssertExpectations fails if any expected call was not made.
func (m *MockMaterializer) AssertExpectations() {
	m.t.Helper()

	must.SliceEmpty(m.t, m.prepare,
		must.Sprintf("Prepare expecting %d more call(s)", len(m.prepare)))
	must.SliceEmpty(m.t, m.cleanup,
		must.Sprintf("Cleanup expecting %d more call(s)", len(m.cleanup)))
}
