// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package vm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const (
	maxNameLength     = 63 // According to RFC 1123 (https://www.rfc-editor.org/rfc/rfc1123.html) should be at most 63 characters
	maxHostnameLength = 253
)

var (
	// matches valid DNS labels according to RFC 1123 (https://www.rfc-editor.org/rfc/rfc1123.html),
	// should be at most 63 characters according to the RFC
	validLabel = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)

	ErrEmptyName       = errors.New("machine name can not be empty")
	ErrInvalidName     = errors.New("machine name can not contain path separators")
	ErrInvalidHostName = fmt.Errorf("a hostname must consist of dot separated alphanumeric labels, each may contain '-', must start and end with an alphanumeric character and be less than %d characters", maxNameLength+1)
)

// Identity is the (name, hostname) pair of a provisioned machine. The name
// partitions the on-disk state, both values feed the synthesized meta-data.
type Identity struct {
	Name     string
	Hostname string
}

// EffectiveHostname returns the hostname, falling back to the machine name
// when none was declared.
func (id Identity) EffectiveHostname() string {
	if id.Hostname != "" {
		return id.Hostname
	}

	return id.Name
}

// ValidateName checks that the name can safely be used as a single path
// component.
func (id Identity) ValidateName() error {
	switch {
	case id.Name == "":
		return ErrEmptyName
	case strings.ContainsAny(id.Name, `/\`) || id.Name == "." || id.Name == "..":
		return ErrInvalidName
	}

	return nil
}

func (id Identity) Validate() error {
	var mErr *multierror.Error
	if err := id.ValidateName(); err != nil {
		mErr = multierror.Append(mErr, err)
	}

	if id.Hostname != "" && !IsValidHostname(id.Hostname) {
		mErr = multierror.Append(mErr, ErrInvalidHostName)
	}

	return mErr.ErrorOrNil()
}

// MountFileConfig describes a host directory bind mounted into the machine.
type MountFileConfig struct {
	Source      string
	Destination string
	ReadOnly    bool
}

// String renders the mount in the "source:destination[:ro]" form container
// providers accept in their volume lists.
func (m MountFileConfig) String() string {
	s := m.Source + ":" + m.Destination
	if m.ReadOnly {
		s += ":ro"
	}

	return s
}

// IsValidLabel returns true if the string given is a valid DNS label (RFC 1123).
// Note: the only difference between RFC 1035 and RFC 1123 labels is that in
// RFC 1123 labels can begin with a number.
func IsValidLabel(name string) bool {
	return validLabel.MatchString(name)
}

// IsValidHostname returns true for a single label or a fully qualified name
// made of valid labels.
func IsValidHostname(name string) bool {
	if len(name) > maxHostnameLength {
		return false
	}

	for _, label := range strings.Split(name, ".") {
		if !IsValidLabel(label) {
			return false
		}
	}

	return true
}
