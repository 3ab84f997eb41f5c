// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package cloudinit

import "strings"

const (
	cloudConfigMarker = "#cloud-config"
	shebangMarker     = "#!"
	defaultShebang    = "#!/bin/bash"
)

// NormalizeHeader makes sure content starts with the marker the NoCloud
// datasource uses to recognize documents of the given content type. Content
// that already carries the marker, and content of any other type, is
// returned unchanged.
func NormalizeHeader(contentType, content string) string {
	switch contentType {
	case ContentTypeCloudConfig:
		if !strings.HasPrefix(content, cloudConfigMarker) {
			return cloudConfigMarker + "\n" + content
		}
	case ContentTypeShellScript:
		if !strings.HasPrefix(content, shebangMarker) {
			return defaultShebang + "\n" + content
		}
	}

	return content
}
