package parsers

import (
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// TerraformParser extracts provider and resource inventories from Terraform sources
type TerraformParser struct{}

// NewTerraformParser creates a new Terraform parser
func NewTerraformParser() *TerraformParser {
	return &TerraformParser{}
}

// TerraformProvider is a provider pinned in .terraform.lock.hcl or declared in required_providers
type TerraformProvider struct {
	Name    string `json:"name" yaml:"name"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// TerraformResource is one resource block of a .tf file
type TerraformResource struct {
	Type     string // e.g. "aws_instance"
	Name     string
	Provider string // prefix of the type, e.g. "aws"
}

// TerraformConfig is what one .tf file declares
type TerraformConfig struct {
	Providers []TerraformProvider
	Resources []TerraformResource
}

// TerraformInfo aggregates the configs of a repository
type TerraformInfo struct {
	Providers           []string            `json:"providers" yaml:"providers"`
	Pinned              []TerraformProvider `json:"pinned,omitempty" yaml:"pinned,omitempty"`
	ResourcesByProvider map[string]int      `json:"resources_by_provider,omitempty" yaml:"resources_by_provider,omitempty"`
	TotalResources      int                 `json:"total_resources" yaml:"total_resources"`
}

var terraformSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "terraform"},
		{Type: "provider", LabelNames: []string{"name"}},
		{Type: "resource", LabelNames: []string{"type", "name"}},
		{Type: "data", LabelNames: []string{"type", "name"}},
		{Type: "module", LabelNames: []string{"name"}},
		{Type: "variable", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
		{Type: "locals"},
	},
}

var requiredProvidersSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "required_providers"},
	},
}

// ParseLock parses .terraform.lock.hcl and returns the pinned providers
func (p *TerraformParser) ParseLock(content string) []TerraformProvider {
	file, diags := hclparse.NewParser().ParseHCL([]byte(content), ".terraform.lock.hcl")
	if diags.HasErrors() || file.Body == nil {
		return nil
	}

	body, _ := file.Body.Content(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "provider", LabelNames: []string{"name"}}},
	})

	providers := []TerraformProvider{}
	for _, block := range body.Blocks.OfType("provider") {
		if len(block.Labels) == 0 {
			continue
		}
		source := block.Labels[0]
		provider := TerraformProvider{
			Name:    source[strings.LastIndex(source, "/")+1:],
			Source:  source,
			Version: "latest",
		}

		attrs, _ := block.Body.JustAttributes()
		if version, ok := stringAttr(attrs, "version"); ok {
			provider.Version = version
		}
		providers = append(providers, provider)
	}
	return providers
}

// ParseConfig parses a .tf file. It returns nil when the file is not valid HCL.
func (p *TerraformParser) ParseConfig(filename, content string) *TerraformConfig {
	file, diags := hclparse.NewParser().ParseHCL([]byte(content), filename)
	if diags.HasErrors() || file.Body == nil {
		return nil
	}

	// Unknown block types produce diagnostics but the known ones are still returned
	body, _, _ := file.Body.PartialContent(terraformSchema)
	config := &TerraformConfig{}

	for _, block := range body.Blocks.OfType("terraform") {
		config.Providers = append(config.Providers, requiredProviders(block)...)
	}

	for _, block := range body.Blocks.OfType("provider") {
		if len(block.Labels) == 0 {
			continue
		}
		config.Providers = append(config.Providers, TerraformProvider{Name: block.Labels[0]})
	}

	for _, block := range body.Blocks.OfType("resource") {
		if len(block.Labels) < 2 {
			continue
		}
		config.Resources = append(config.Resources, TerraformResource{
			Type:     block.Labels[0],
			Name:     block.Labels[1],
			Provider: providerOf(block.Labels[0]),
		})
	}
	return config
}

// requiredProviders reads terraform { required_providers { aws = { source = ..., version = ... } } }
func requiredProviders(block *hcl.Block) []TerraformProvider {
	content, _, _ := block.Body.PartialContent(requiredProvidersSchema)
	if content == nil {
		return nil
	}

	var providers []TerraformProvider
	for _, rp := range content.Blocks.OfType("required_providers") {
		attrs, _ := rp.Body.JustAttributes()
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			provider := TerraformProvider{Name: name}
			val, diags := attrs[name].Expr.Value(nil)
			if !diags.HasErrors() && val.IsKnown() && !val.IsNull() && val.Type().IsObjectType() {
				if val.Type().HasAttribute("source") {
					if src := val.GetAttr("source"); src.Type() == cty.String && src.IsKnown() && !src.IsNull() {
						provider.Source = src.AsString()
					}
				}
				if val.Type().HasAttribute("version") {
					if v := val.GetAttr("version"); v.Type() == cty.String && v.IsKnown() && !v.IsNull() {
						provider.Version = v.AsString()
					}
				}
			}
			providers = append(providers, provider)
		}
	}
	return providers
}

func stringAttr(attrs hcl.Attributes, name string) (string, bool) {
	attr, ok := attrs[name]
	if !ok {
		return "", false
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || val.Type() != cty.String || val.IsNull() {
		return "", false
	}
	return val.AsString(), true
}

// providerOf extracts the provider from a resource type: aws_instance -> aws
func providerOf(resourceType string) string {
	if i := strings.Index(resourceType, "_"); i > 0 {
		return resourceType[:i]
	}
	return resourceType
}

// Aggregate merges parsed configs and lock entries into one inventory
func (p *TerraformParser) Aggregate(configs []*TerraformConfig, pinned []TerraformProvider) *TerraformInfo {
	info := &TerraformInfo{
		Providers:           []string{},
		Pinned:              pinned,
		ResourcesByProvider: make(map[string]int),
	}

	seen := make(map[string]bool)
	addProvider := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			info.Providers = append(info.Providers, name)
		}
	}

	for _, config := range configs {
		if config == nil {
			continue
		}
		for _, provider := range config.Providers {
			addProvider(provider.Name)
		}
		for _, resource := range config.Resources {
			addProvider(resource.Provider)
			info.ResourcesByProvider[resource.Provider]++
			info.TotalResources++
		}
	}
	for _, provider := range pinned {
		addProvider(provider.Name)
	}

	sort.Strings(info.Providers)
	return info
}
