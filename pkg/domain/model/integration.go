package model

import "time"

// IntegrationStatus is the outcome of one build cycle
type IntegrationStatus string

const (
	StatusUnknown   IntegrationStatus = "Unknown"
	StatusSuccess   IntegrationStatus = "Success"
	StatusFailure   IntegrationStatus = "Failure"
	StatusException IntegrationStatus = "Exception"
	StatusCancelled IntegrationStatus = "Cancelled"
)

// BuildCondition combines the current and previous status into the kind of
// outcome notifications talk about
type BuildCondition string

const (
	ConditionSuccess     BuildCondition = "Success"
	ConditionFixed       BuildCondition = "Fixed"
	ConditionBroken      BuildCondition = "Broken"
	ConditionStillBroken BuildCondition = "StillBroken"
	ConditionException   BuildCondition = "Exception"
	ConditionUnknown     BuildCondition = "Unknown"
)

// AllBuildConditions lists the conditions that can carry a subject override
var AllBuildConditions = []BuildCondition{
	ConditionSuccess,
	ConditionFixed,
	ConditionBroken,
	ConditionStillBroken,
	ConditionException,
}

// IntegrationResult is what the build engine hands over after a build
type IntegrationResult struct {
	ProjectName       string            `json:"project_name"`
	ProjectURL        string            `json:"project_url,omitempty"`
	Label             string            `json:"label"`
	Status            IntegrationStatus `json:"status"`
	LastStatus        IntegrationStatus `json:"last_status"`
	StartTime         time.Time         `json:"start_time"`
	EndTime           time.Time         `json:"end_time"`
	WorkingDirectory  string            `json:"working_directory"`
	ArtifactDirectory string            `json:"artifact_directory,omitempty"`
	Description       string            `json:"description,omitempty"`
	Modifications     []*Modification   `json:"modifications,omitempty"`
}

// Succeeded reports whether the build passed
func (r *IntegrationResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Failed reports whether the build failed
func (r *IntegrationResult) Failed() bool {
	return r.Status == StatusFailure
}

// Fixed reports whether the build passed after a broken one
func (r *IntegrationResult) Fixed() bool {
	return r.Succeeded() && (r.LastStatus == StatusFailure || r.LastStatus == StatusException)
}

// StatusChanged reports whether the outcome differs from the previous build
func (r *IntegrationResult) StatusChanged() bool {
	return r.Status != r.LastStatus
}

// Condition derives the build condition used for subjects and logging
func (r *IntegrationResult) Condition() BuildCondition {
	switch r.Status {
	case StatusSuccess:
		if r.Fixed() {
			return ConditionFixed
		}
		return ConditionSuccess
	case StatusFailure:
		if r.LastStatus == StatusFailure {
			return ConditionStillBroken
		}
		return ConditionBroken
	case StatusException:
		return ConditionException
	default:
		return ConditionUnknown
	}
}

// Contributors returns the distinct usernames of the modifications in
// first-seen order
func (r *IntegrationResult) Contributors() []string {
	seen := make(map[string]struct{}, len(r.Modifications))
	var names []string
	for _, mod := range r.Modifications {
		if mod == nil || mod.UserName == "" {
			continue
		}
		if _, ok := seen[mod.UserName]; ok {
			continue
		}
		seen[mod.UserName] = struct{}{}
		names = append(names, mod.UserName)
	}
	return names
}

// ProjectInfo identifies the project a change-source provider works for
type ProjectInfo struct {
	Name              string
	WorkingDirectory  string
	ArtifactDirectory string
}

// ParameterDefinition describes a dynamic parameter accepted by a provider
type ParameterDefinition struct {
	Name        string
	Default     string
	Description string
}
