package parser

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

// Fallback plan contents.
const (
	DefaultBaseImage    = "python:3.12-slim"
	DefaultBuildStage   = "FROM python:3.12-slim AS builder\nWORKDIR /app\nCOPY requirements.txt .\nRUN pip install --no-cache-dir -r requirements.txt"
	DefaultRuntimeStage = "FROM python:3.12-slim\nWORKDIR /app\nCOPY --from=builder /usr/local/lib/python3.12/site-packages /usr/local/lib/python3.12/site-packages\nCOPY . .\nCMD [\"python\", \"main.py\"]"
	DefaultDockerfile   = "# Default Dockerfile\nFROM python:3.12-slim\nWORKDIR /app\nCOPY . .\nRUN pip install -r requirements.txt\nCMD [\"python\", \"main.py\"]"

	DefaultProviderConfig = "provider \"google\" {\n  project = var.project_id\n  region  = var.region\n}"
	DefaultCloudRunConfig = "# Cloud Run configuration pending"
	DefaultIAMConfig      = "# IAM configuration pending"
	DefaultSecretsConfig  = "# Secrets configuration pending"
	DefaultTerraform      = "# Full Terraform pending"
)

// PlanResult is the decoded planning response.
type PlanResult struct {
	RepoMap  *sentinel.RepoMap
	Plan     *sentinel.DeploymentPlan
	Warnings []FieldWarning
	// Fallback is set when the response was not a JSON object and every
	// value comes from defaults.
	Fallback bool
}

// DecodePlan decodes a planning response and attaches sig as the plan's only
// thought signature. It never fails.
func DecodePlan(raw string, sig sentinel.ThoughtSignature) PlanResult {
	doc, ok := parseObject(raw)
	if !ok {
		repoMap, plan := FallbackPlan(sig)
		return PlanResult{
			RepoMap:  repoMap,
			Plan:     plan,
			Warnings: []FieldWarning{{Field: DocumentField, Reason: ReasonMalformedJSON}},
			Fallback: true,
		}
	}

	d := &decoder{}
	repoMap := d.repoMap(d.object(doc, "repo_map", "repo_map"), "repo_map")
	plan := d.deploymentPlan(d.object(doc, "deployment_plan", "deployment_plan"), "deployment_plan")
	plan.ThoughtSignatures = []sentinel.ThoughtSignature{sig}

	return PlanResult{RepoMap: repoMap, Plan: plan, Warnings: d.warnings}
}

// FallbackPlan returns the fully-defaulted planning output.
func FallbackPlan(sig sentinel.ThoughtSignature) (*sentinel.RepoMap, *sentinel.DeploymentPlan) {
	repoMap := sentinel.NewRepoMap("unknown")
	repoMap.PrimaryLanguage = "python"
	repoMap.EntryPoint = "main.py"
	repoMap.DependencyFile = "requirements.txt"

	plan := &sentinel.DeploymentPlan{
		Dockerfile: sentinel.DockerfileSpec{
			BaseImage:            DefaultBaseImage,
			BuildStage:           DefaultBuildStage,
			RuntimeStage:         DefaultRuntimeStage,
			FullContent:          DefaultDockerfile,
			OptimizationsApplied: []string{},
		},
		Terraform: sentinel.TerraformSpec{
			ProviderConfig: DefaultProviderConfig,
			CloudRunConfig: DefaultCloudRunConfig,
			IAMConfig:      DefaultIAMConfig,
			SecretsConfig:  DefaultSecretsConfig,
			FullContent:    DefaultTerraform,
		},
		SecretsRequired:   []sentinel.SecretRequirement{},
		SecretsMissing:    []string{},
		DeploymentRegion:  sentinel.DefaultRegion,
		ServiceURLPattern: sentinel.DefaultServiceURLPattern,
		ThoughtSignatures: []sentinel.ThoughtSignature{sig},
	}
	return repoMap, plan
}

func (d *decoder) repoMap(m map[string]any, path string) *sentinel.RepoMap {
	rm := sentinel.NewRepoMap(d.nonEmpty(m, "project_name", fieldPath(path, "project_name"), "unknown"))
	rm.PrimaryLanguage = d.nonEmpty(m, "primary_language", fieldPath(path, "primary_language"), "unknown")
	rm.Framework = d.optStr(m, "framework", fieldPath(path, "framework"))
	rm.EntryPoint = d.nonEmpty(m, "entry_point", fieldPath(path, "entry_point"), "unknown")
	rm.DependencyFile = d.nonEmpty(m, "dependency_file", fieldPath(path, "dependency_file"), "unknown")

	d.eachObject(m, "dependencies", fieldPath(path, "dependencies"), func(p string, dep map[string]any) {
		name := strings.TrimSpace(d.str(dep, "name", fieldPath(p, "name"), ""))
		if name == "" {
			d.warn(p, ReasonEmpty)
			return
		}
		rm.Dependencies = append(rm.Dependencies, sentinel.DependencyInfo{
			Name:    name,
			Version: d.optStr(dep, "version", fieldPath(p, "version")),
			Source:  d.str(dep, "source", fieldPath(p, "source"), rm.DependencyFile),
		})
	})

	seen := sets.New[string]()
	d.eachObject(m, "file_mappings", fieldPath(path, "file_mappings"), func(p string, fm map[string]any) {
		filePath := d.str(fm, "path", fieldPath(p, "path"), "")
		if filePath == "" {
			d.warn(p, ReasonEmpty)
			return
		}
		if seen.Has(filePath) {
			d.warn(p, ReasonDuplicate)
			return
		}
		seen.Insert(filePath)
		rm.FileMappings = append(rm.FileMappings, sentinel.FileMapping{
			Path:      filePath,
			Language:  d.str(fm, "language", fieldPath(p, "language"), "unknown"),
			SizeBytes: int64(d.integer(fm, "size_bytes", fieldPath(p, "size_bytes"), 0)),
			Purpose:   d.optStr(fm, "purpose", fieldPath(p, "purpose")),
		})
	})

	rm.TotalFiles = d.integer(m, "total_files", fieldPath(path, "total_files"), len(rm.FileMappings))
	if rm.TotalFiles != len(rm.FileMappings) {
		d.warn(fieldPath(path, "total_files"), ReasonInconsistent)
		rm.TotalFiles = len(rm.FileMappings)
	}
	rm.TotalTokens = d.integer(m, "total_tokens", fieldPath(path, "total_tokens"), 0)
	if rm.TotalTokens < 0 {
		d.warn(fieldPath(path, "total_tokens"), ReasonOutOfRange)
		rm.TotalTokens = 0
	}

	flowPath := fieldPath(path, "logic_flow")
	for key, v := range d.object(m, "logic_flow", flowPath) {
		s, err := toScalarString(v)
		if err != nil || v == nil {
			d.warn(fieldPath(flowPath, key), ReasonWrongType)
			continue
		}
		rm.LogicFlow[key] = s
	}

	rm.DetectedEnvVars = sets.List(sets.New(d.stringList(m, "detected_env_vars", fieldPath(path, "detected_env_vars"))...))

	portsPath := fieldPath(path, "detected_ports")
	ports := sets.New[int]()
	for i, v := range d.list(m, "detected_ports", portsPath) {
		port, ok := d.intValue(v, index(portsPath, i))
		if !ok {
			continue
		}
		if port < sentinel.MinPort || port > sentinel.MaxPort {
			d.warn(index(portsPath, i), ReasonOutOfRange)
			continue
		}
		ports.Insert(port)
	}
	rm.DetectedPorts = sets.List(ports)

	return rm
}

func (d *decoder) deploymentPlan(m map[string]any, path string) *sentinel.DeploymentPlan {
	plan := &sentinel.DeploymentPlan{
		Dockerfile:      d.dockerfile(d.object(m, "dockerfile", fieldPath(path, "dockerfile")), fieldPath(path, "dockerfile")),
		Terraform:       d.terraform(d.object(m, "terraform", fieldPath(path, "terraform")), fieldPath(path, "terraform")),
		SecretsRequired: []sentinel.SecretRequirement{},
		SecretsMissing:  d.stringList(m, "secrets_missing", fieldPath(path, "secrets_missing")),
	}

	d.eachObject(m, "secrets_required", fieldPath(path, "secrets_required"), func(p string, sr map[string]any) {
		name := strings.TrimSpace(d.str(sr, "name", fieldPath(p, "name"), ""))
		if name == "" {
			d.warn(p, ReasonEmpty)
			return
		}
		plan.SecretsRequired = append(plan.SecretsRequired, sentinel.SecretRequirement{
			Name:            name,
			SourceFile:      d.str(sr, "source_file", fieldPath(p, "source_file"), "unknown"),
			SourceLine:      d.integer(sr, "source_line", fieldPath(p, "source_line"), 0),
			IsCritical:      d.boolean(sr, "is_critical", fieldPath(p, "is_critical"), true),
			SuggestedSource: d.optStr(sr, "suggested_source", fieldPath(p, "suggested_source")),
		})
	})

	costPath := fieldPath(path, "estimated_monthly_cost_usd")
	plan.EstimatedMonthlyCostUSD = d.number(m, "estimated_monthly_cost_usd", costPath, 0)
	if plan.EstimatedMonthlyCostUSD < 0 {
		d.warn(costPath, ReasonOutOfRange)
		plan.EstimatedMonthlyCostUSD = 0
	}

	plan.DeploymentRegion = d.nonEmpty(m, "deployment_region", fieldPath(path, "deployment_region"), sentinel.DefaultRegion)
	plan.ServiceURLPattern = d.nonEmpty(m, "service_url_pattern", fieldPath(path, "service_url_pattern"), sentinel.DefaultServiceURLPattern)
	return plan
}

func (d *decoder) dockerfile(m map[string]any, path string) sentinel.DockerfileSpec {
	spec := sentinel.DockerfileSpec{
		BaseImage:            d.nonEmpty(m, "base_image", fieldPath(path, "base_image"), DefaultBaseImage),
		BuildStage:           d.str(m, "build_stage", fieldPath(path, "build_stage"), ""),
		RuntimeStage:         d.str(m, "runtime_stage", fieldPath(path, "runtime_stage"), ""),
		OptimizationsApplied: d.stringList(m, "optimizations_applied", fieldPath(path, "optimizations_applied")),
	}
	spec.FullContent = d.str(m, "full_content", fieldPath(path, "full_content"), "")
	if strings.TrimSpace(spec.FullContent) == "" {
		if _, present := m["full_content"]; present {
			d.warn(fieldPath(path, "full_content"), ReasonEmpty)
		}
		spec.FullContent = joinSections(DefaultDockerfile, spec.BuildStage, spec.RuntimeStage)
	}
	return spec
}

func (d *decoder) terraform(m map[string]any, path string) sentinel.TerraformSpec {
	spec := sentinel.TerraformSpec{
		ProviderConfig: d.str(m, "provider_config", fieldPath(path, "provider_config"), ""),
		CloudRunConfig: d.str(m, "cloud_run_config", fieldPath(path, "cloud_run_config"), ""),
		IAMConfig:      d.str(m, "iam_config", fieldPath(path, "iam_config"), ""),
		SecretsConfig:  d.str(m, "secrets_config", fieldPath(path, "secrets_config"), ""),
	}
	spec.FullContent = d.str(m, "full_content", fieldPath(path, "full_content"), "")
	if strings.TrimSpace(spec.FullContent) == "" {
		if _, present := m["full_content"]; present {
			d.warn(fieldPath(path, "full_content"), ReasonEmpty)
		}
		spec.FullContent = joinSections(DefaultTerraform,
			spec.ProviderConfig, spec.CloudRunConfig, spec.IAMConfig, spec.SecretsConfig)
	}
	return spec
}

// nonEmpty reads a string that must not be blank.
func (d *decoder) nonEmpty(m map[string]any, key, path, def string) string {
	s := d.str(m, key, path, def)
	if strings.TrimSpace(s) == "" {
		d.warn(path, ReasonEmpty)
		return def
	}
	return s
}

// joinSections joins the non-blank sections, or returns def when all are blank.
func joinSections(def string, sections ...string) string {
	var parts []string
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimRight(s, "\n"))
		}
	}
	if len(parts) == 0 {
		return def
	}
	return strings.Join(parts, "\n\n") + "\n"
}
