// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

// CppPropertiesConfiguration is the subset of one c_cpp_properties.json
// configuration this tool reads. Every other key of the external format is
// ignored on decode.
type CppPropertiesConfiguration struct {
	Name          string   `json:"name"`
	IncludePath   []string `json:"includePath,omitempty"`
	ForcedInclude []string `json:"forcedInclude,omitempty"`
	Defines       []string `json:"defines,omitempty"`
}

// CppProperties is the root object of a c_cpp_properties.json file.
type CppProperties struct {
	Configurations []CppPropertiesConfiguration `json:"configurations"`
}

// Configuration returns the properties configuration matching name. When no
// exact match exists and the file defines exactly one configuration, that
// sole configuration is returned; otherwise nil.
func (p *CppProperties) Configuration(name string) *CppPropertiesConfiguration {
	for i := range p.Configurations {
		if p.Configurations[i].Name == name {
			return &p.Configurations[i]
		}
	}
	if len(p.Configurations) == 1 {
		return &p.Configurations[0]
	}
	return nil
}

// Scope converts the configuration into a variable scope exposing
// includePath, forcedInclude and defines as multi-valued variables.
func (c *CppPropertiesConfiguration) Scope() Scope {
	return Scope{
		"includePath":   List(c.IncludePath...),
		"forcedInclude": List(c.ForcedInclude...),
		"defines":       List(c.Defines...),
	}
}
