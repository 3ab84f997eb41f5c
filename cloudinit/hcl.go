// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package cloudinit

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hcldec"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/nomad/helper/pluginutils/hclspecutils"
	"github.com/hashicorp/nomad/plugins/base"
	"github.com/hashicorp/nomad/plugins/shared/hclspec"
	"github.com/zclconf/go-cty/cty/msgpack"
)

// fileSpec is the schema of a stand-alone HCL file holding a single
// cloud_init stanza.
var fileSpec = hclspec.NewObject(map[string]*hclspec.Spec{
	"cloud_init": hclspec.NewBlock("cloud_init", false, ConfigSpec),
})

type hclFile struct {
	CloudInit *RawConfig `codec:"cloud_init"`
}

// DecodeHCL reads a cloud_init stanza from HCL source. A file without the
// stanza yields an empty RawConfig.
func DecodeHCL(src []byte, filename string) (*RawConfig, error) {
	spec, diags := hclspecutils.Convert(fileSpec)
	if diags.HasErrors() {
		return nil, fmt.Errorf("cloudinit: invalid config schema: %w", diags)
	}

	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("cloudinit: unable to parse config %s: %w", filename, diags)
	}

	val, diags := hcldec.Decode(file.Body, spec, nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("cloudinit: unable to decode config %s: %w", filename, diags)
	}

	data, err := msgpack.Marshal(val, val.Type())
	if err != nil {
		return nil, fmt.Errorf("cloudinit: unable to encode config %s: %w", filename, err)
	}

	var out hclFile
	if err := base.MsgPackDecode(data, &out); err != nil {
		return nil, fmt.Errorf("cloudinit: unable to decode config %s: %w", filename, err)
	}

	if out.CloudInit == nil {
		return &RawConfig{}, nil
	}

	return out.CloudInit, nil
}
