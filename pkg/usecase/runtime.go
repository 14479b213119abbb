package usecase

import (
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/m-mizutani/herald/pkg/strategy/converter"
	"github.com/m-mizutani/herald/pkg/strategy/filter"
	"github.com/m-mizutani/herald/pkg/strategy/message"
)

// Runtime bundles the use cases built from one project snapshot. Nothing in
// it changes after construction; a reload builds a new Runtime.
type Runtime struct {
	project   *model.Project
	chain     *FilterChain
	source    *FilteredSource
	publisher *Publisher
}

// NewRuntime builds filters, converters, resolver, builder and publisher
// from the project. source may be nil when no provider is configured.
func NewRuntime(project *model.Project, source interfaces.SourceControl, gateway interfaces.Gateway) (*Runtime, error) {
	if issues := project.Validate(); issues.HasErrors() {
		return nil, goerr.New("invalid project configuration",
			goerr.T(types.ErrTagConfig),
			goerr.V("issues", issues),
		)
	}

	inclusions, err := filter.NewAll(project.Source.Include)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build inclusion filters")
	}
	exclusions, err := filter.NewAll(project.Source.Exclude)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build exclusion filters")
	}
	chain := NewFilterChain(inclusions, exclusions)

	pub := project.Publisher
	registry, err := model.NewRegistry(pub.Users, pub.Groups)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build recipient registry", goerr.T(types.ErrTagConfig))
	}
	converters, err := converter.NewAll(pub.Converters)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build address converters")
	}
	resolver, err := NewRecipientResolver(registry, converters,
		WithSubjectPrefix(pub.SubjectPrefix),
		WithSubjects(pub.Subjects),
		WithModifierNotificationTypes(pub.ModifierNotificationTypes),
	)
	if err != nil {
		return nil, err
	}

	publisher := NewPublisher(PublisherConfig{
		From:        pub.From,
		ReplyTo:     pub.ReplyTo,
		Attachments: pub.Attachments,
		Transforms:  pub.Transforms,
	}, resolver, message.New(pub.IncludeDetails), gateway)

	rt := &Runtime{
		project:   project,
		chain:     chain,
		publisher: publisher,
	}
	if source != nil {
		rt.source = NewFilteredSource(source, chain)
	}
	return rt, nil
}

// Project returns the configuration the runtime was built from
func (r *Runtime) Project() *model.Project {
	return r.project
}

// FilterChain returns the configured filter chain
func (r *Runtime) FilterChain() *FilterChain {
	return r.chain
}

// Source returns the filtered provider, or nil when none is configured
func (r *Runtime) Source() *FilteredSource {
	return r.source
}

// Publisher returns the notification publisher
func (r *Runtime) Publisher() *Publisher {
	return r.publisher
}

// RuntimeHolder publishes Runtime snapshots. Readers take one snapshot per
// operation so a reload never becomes visible halfway through.
type RuntimeHolder struct {
	current atomic.Pointer[Runtime]
}

// NewRuntimeHolder creates a holder with an initial snapshot
func NewRuntimeHolder(rt *Runtime) *RuntimeHolder {
	h := &RuntimeHolder{}
	h.current.Store(rt)
	return h
}

// Current returns the active snapshot
func (h *RuntimeHolder) Current() *Runtime {
	return h.current.Load()
}

// Swap replaces the active snapshot
func (h *RuntimeHolder) Swap(rt *Runtime) {
	h.current.Store(rt)
}

var _ interfaces.RuntimeProvider = (*RuntimeHolder)(nil)

// ProjectName returns the name of the active project
func (h *RuntimeHolder) ProjectName() string {
	return h.Current().project.Name
}

// Filter returns the filter chain of the active snapshot
func (h *RuntimeHolder) Filter() interfaces.FilterUseCase {
	return h.Current().chain
}

// Publisher returns the publisher of the active snapshot
func (h *RuntimeHolder) Publisher() interfaces.PublishUseCase {
	return h.Current().publisher
}

// Source returns the filtered source of the active snapshot
func (h *RuntimeHolder) Source() interfaces.SourceControl {
	src := h.Current().source
	if src == nil {
		return nil
	}
	return src
}
