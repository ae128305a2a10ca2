package sentinel

import "time"

// DefaultRegion is used when a plan names no deployment region.
const DefaultRegion = "us-central1"

// DefaultServiceURLPattern is used when a plan names no service URL.
const DefaultServiceURLPattern = "https://PROJECT.run.app"

// DockerfileSpec is the generated container build definition.
type DockerfileSpec struct {
	BaseImage            string   `json:"base_image"`
	BuildStage           string   `json:"build_stage"`
	RuntimeStage         string   `json:"runtime_stage"`
	FullContent          string   `json:"full_content"`
	OptimizationsApplied []string `json:"optimizations_applied"`
}

// TerraformSpec is the generated infrastructure-as-code.
type TerraformSpec struct {
	ProviderConfig string `json:"provider_config"`
	CloudRunConfig string `json:"cloud_run_config"`
	IAMConfig      string `json:"iam_config"`
	SecretsConfig  string `json:"secrets_config"`
	FullContent    string `json:"full_content"`
}

// SecretRequirement is one secret the application needs at runtime.
type SecretRequirement struct {
	Name            string  `json:"name"`
	SourceFile      string  `json:"source_file"`
	SourceLine      int     `json:"source_line"`
	IsCritical      bool    `json:"is_critical"`
	SuggestedSource *string `json:"suggested_source"`
}

// DeploymentPlan is the complete output of planning.
type DeploymentPlan struct {
	Dockerfile              DockerfileSpec      `json:"dockerfile"`
	Terraform               TerraformSpec       `json:"terraform"`
	SecretsRequired         []SecretRequirement `json:"secrets_required"`
	SecretsMissing          []string            `json:"secrets_missing"`
	EstimatedMonthlyCostUSD float64             `json:"estimated_monthly_cost_usd"`
	DeploymentRegion        string              `json:"deployment_region"`
	ServiceURLPattern       string              `json:"service_url_pattern"`
	ThoughtSignatures       []ThoughtSignature  `json:"thought_signatures"`
}

// ThoughtSignature is one append-only audit record binding a reasoning step to
// the action it produced.
type ThoughtSignature struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	ReasoningStep      string    `json:"reasoning_step"`
	ActionTaken        string    `json:"action_taken"`
	VerificationMethod string    `json:"verification_method"`
	RiskLevel          RiskLevel `json:"risk_level"`
	ContextTokensUsed  int       `json:"context_tokens_used"`
}
