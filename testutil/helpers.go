// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"syscall"
	"testing"

	"github.com/shoenig/test/must"
)

// RequireNonRoot will skip the test if running as root, where permission
// bits are not enforced.
func RequireNonRoot(t *testing.T) {
	if syscall.Geteuid() == 0 {
		t.Skip("Test requires an unprivileged user")
	}
}

// ReadOnlyDir makes dir read-only for the duration of the test.
func ReadOnlyDir(t *testing.T, dir string) {
	t.Helper()

	must.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() {
		_ = os.Chmod(dir, 0755)
	})
}
