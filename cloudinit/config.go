// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package cloudinit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/nomad/plugins/shared/hclspec"
	"gopkg.in/yaml.v3"
)

// DocumentKind is one of the four NoCloud documents. Its value is the
// canonical filename inside the seed directory.
type DocumentKind string

const (
	UserData      = DocumentKind("user-data")
	MetaData      = DocumentKind("meta-data")
	VendorData    = DocumentKind("vendor-data")
	NetworkConfig = DocumentKind("network-config")
)

// Kinds lists every document kind in the order documents are written.
var Kinds = []DocumentKind{UserData, MetaData, VendorData, NetworkConfig}

func (k DocumentKind) Filename() string {
	return string(k)
}

// BlockName is the name of the configuration block for the kind, e.g.
// "user_data".
func (k DocumentKind) BlockName() string {
	return strings.ReplaceAll(string(k), "-", "_")
}

// ParseDocumentKind accepts either the filename or the block name of a kind.
func ParseDocumentKind(s string) (DocumentKind, error) {
	for _, k := range Kinds {
		if s == k.Filename() || s == k.BlockName() {
			return k, nil
		}
	}

	return "", fmt.Errorf("cloudinit: unknown document kind %q", s)
}

const (
	ContentTypeCloudConfig = "text/cloud-config"
	ContentTypeShellScript = "text/x-shellscript"

	DefaultContentType = ContentTypeCloudConfig
)

var (
	documentSpec = hclspec.NewObject(map[string]*hclspec.Spec{
		"content_type": hclspec.NewAttr("content_type", "string", false),
		"inline":       hclspec.NewAttr("inline", "string", false),
		"path":         hclspec.NewAttr("path", "string", false),
	})

	// ConfigSpec is the schema of the cloud_init stanza. Hosts embed it in
	// their own schema, e.g.
	//
	//	"cloud_init": hclspec.NewBlock("cloud_init", false, cloudinit.ConfigSpec)
	ConfigSpec = hclspec.NewObject(map[string]*hclspec.Spec{
		"user_data":      hclspec.NewBlock("user_data", false, documentSpec),
		"meta_data":      hclspec.NewBlock("meta_data", false, documentSpec),
		"vendor_data":    hclspec.NewBlock("vendor_data", false, documentSpec),
		"network_config": hclspec.NewBlock("network_config", false, documentSpec),
	})
)

// RawDocument is a document as the user wrote it. A nil field was never set,
// a pointer to an empty string was explicitly cleared.
type RawDocument struct {
	ContentType *string `codec:"content_type" yaml:"content_type"`
	Inline      *string `codec:"inline" yaml:"inline"`
	Path        *string `codec:"path" yaml:"path"`
}

// RawConfig is the unresolved cloud_init stanza. A nil block is equivalent
// to a block with nothing set.
type RawConfig struct {
	UserData      *RawDocument `codec:"user_data" yaml:"user_data"`
	MetaData      *RawDocument `codec:"meta_data" yaml:"meta_data"`
	VendorData    *RawDocument `codec:"vendor_data" yaml:"vendor_data"`
	NetworkConfig *RawDocument `codec:"network_config" yaml:"network_config"`
}

func (r *RawConfig) block(kind DocumentKind) *RawDocument {
	if r == nil {
		return nil
	}

	switch kind {
	case UserData:
		return r.UserData
	case MetaData:
		return r.MetaData
	case VendorData:
		return r.VendorData
	case NetworkConfig:
		return r.NetworkConfig
	}

	return nil
}

// Document is the resolved form of a RawDocument.
type Document struct {
	Kind        DocumentKind
	ContentType string
	Inline      string
	Path        string
}

// Active reports whether the document has anything to materialize.
func (d Document) Active() bool {
	return d.Inline != "" || d.Path != ""
}

// Config holds one resolved document per kind. It is a snapshot and is not
// modified after Resolve returns it.
type Config struct {
	docs map[DocumentKind]Document
}

// Document returns the resolved document of the given kind.
func (c *Config) Document(kind DocumentKind) Document {
	if c == nil {
		return Document{Kind: kind, ContentType: DefaultContentType}
	}

	return c.docs[kind]
}

// Active returns the active documents in write order.
func (c *Config) Active() []Document {
	var active []Document
	for _, k := range Kinds {
		if d := c.Document(k); d.Active() {
			active = append(active, d)
		}
	}

	return active
}

// Resolve fills in defaults for every unset field of raw: the content type
// becomes text/cloud-config, inline and path become empty. It never fails
// and a nil raw config resolves to four inactive documents.
func Resolve(raw *RawConfig) *Config {
	c := &Config{docs: make(map[DocumentKind]Document, len(Kinds))}

	for _, k := range Kinds {
		d := Document{Kind: k, ContentType: DefaultContentType}

		if rd := raw.block(k); rd != nil {
			if rd.ContentType != nil {
				d.ContentType = *rd.ContentType
			}
			if rd.Inline != nil {
				d.Inline = *rd.Inline
			}
			if rd.Path != nil {
				d.Path = *rd.Path
			}
		}

		c.docs[k] = d
	}

	return c
}

// LoadFile decodes a file holding the user_data, meta_data, vendor_data and
// network_config blocks. Files ending in .hcl are read as a cloud_init
// stanza, anything else as YAML.
func LoadFile(path string) (*RawConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cloudinit: unable to open config file %s: %w", path, err)
	}
	defer f.Close()

	if filepath.Ext(path) == ".hcl" {
		src, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("cloudinit: unable to read config file %s: %w", path, err)
		}

		return DecodeHCL(src, path)
	}

	return Decode(f)
}

// Decode reads a YAML cloud-init configuration. Unknown keys are rejected and
// an empty document yields an empty RawConfig.
func Decode(r io.Reader) (*RawConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	raw := &RawConfig{}
	if err := dec.Decode(raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("cloudinit: unable to decode config: %w", err)
	}

	return raw, nil
}
