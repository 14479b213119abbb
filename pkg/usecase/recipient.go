package usecase

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"text/template"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

var defaultSubjects = map[model.BuildCondition]string{
	model.ConditionSuccess:     "{{.ProjectName}} Build Successful: Build {{.Label}}",
	model.ConditionFixed:       "{{.ProjectName}} Build Fixed: Build {{.Label}}",
	model.ConditionBroken:      "{{.ProjectName}} Build Failed",
	model.ConditionStillBroken: "{{.ProjectName}} Build Still Failing",
	model.ConditionException:   "Exception in {{.ProjectName}} Build",
	model.ConditionUnknown:     "{{.ProjectName}} Build Results",
}

// subjectData is the input of subject templates
type subjectData struct {
	ProjectName string
	Label       string
	Status      model.IntegrationStatus
	Condition   model.BuildCondition
}

// RecipientResolver decides who hears about a build and with what subject.
// It is immutable after construction.
type RecipientResolver struct {
	registry      *model.Registry
	converters    []interfaces.AddressConverter
	modifierTypes []model.NotificationType
	prefix        string
	defaults      map[model.BuildCondition]*template.Template
	overrides     map[model.BuildCondition]*template.Template
}

// ResolverOption configures a RecipientResolver
type ResolverOption func(*RecipientResolver) error

// WithSubjectPrefix prepends prefix to every subject
func WithSubjectPrefix(prefix string) ResolverOption {
	return func(r *RecipientResolver) error {
		r.prefix = prefix
		return nil
	}
}

// WithSubjects sets per-condition subject templates keyed by condition name
func WithSubjects(subjects map[string]string) ResolverOption {
	return func(r *RecipientResolver) error {
		for key, text := range subjects {
			cond := model.BuildCondition(key)
			if !slices.Contains(model.AllBuildConditions, cond) {
				return goerr.New("unknown build condition for subject",
					goerr.T(types.ErrTagConfig), goerr.V("condition", key))
			}
			tmpl, err := template.New(key).Parse(text)
			if err != nil {
				return goerr.Wrap(err, "invalid subject template",
					goerr.T(types.ErrTagConfig), goerr.V("condition", key))
			}
			r.overrides[cond] = tmpl
		}
		return nil
	}
}

// WithModifierNotificationTypes sets the notification types under which
// contributors are notified. Defaults to Always.
func WithModifierNotificationTypes(names []string) ResolverOption {
	return func(r *RecipientResolver) error {
		if len(names) == 0 {
			return nil
		}
		parsed := make([]model.NotificationType, 0, len(names))
		for _, n := range names {
			t, err := model.ParseNotificationType(n)
			if err != nil {
				return goerr.Wrap(err, "invalid modifier notification type", goerr.T(types.ErrTagConfig))
			}
			parsed = append(parsed, t)
		}
		r.modifierTypes = parsed
		return nil
	}
}

// NewRecipientResolver creates a RecipientResolver. Converters are tried
// in the given order.
func NewRecipientResolver(registry *model.Registry, converters []interfaces.AddressConverter, opts ...ResolverOption) (*RecipientResolver, error) {
	if registry == nil {
		empty, err := model.NewRegistry(nil, nil)
		if err != nil {
			return nil, err
		}
		registry = empty
	}

	r := &RecipientResolver{
		registry:      registry,
		converters:    append([]interfaces.AddressConverter(nil), converters...),
		modifierTypes: []model.NotificationType{model.NotifyAlways},
		defaults:      make(map[model.BuildCondition]*template.Template, len(defaultSubjects)),
		overrides:     make(map[model.BuildCondition]*template.Template),
	}
	for cond, text := range defaultSubjects {
		r.defaults[cond] = template.Must(template.New(string(cond)).Parse(text))
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Resolve returns the sorted, deduplicated addresses to notify and the
// subject line. It never fails; unresolvable contributors are dropped.
func (r *RecipientResolver) Resolve(ctx context.Context, result *model.IntegrationResult) *model.Recipients {
	logger := ctxlog.From(ctx)
	applicable := model.ApplicableNotifications(result)

	addresses := make(map[string]struct{})
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			addresses[addr] = struct{}{}
		}
	}

	for _, user := range r.registry.Users() {
		for _, group := range user.Groups {
			if r.registry.GroupNotifies(group, applicable) {
				add(user.Address)
				break
			}
		}
	}

	if r.notifiesModifiers(applicable) {
		seen := make(map[string]struct{})
		for _, mod := range result.Modifications {
			if mod == nil || mod.UserName == "" {
				continue
			}
			if _, ok := seen[mod.UserName]; ok {
				continue
			}
			seen[mod.UserName] = struct{}{}

			addr := r.modifierAddress(mod)
			if addr == "" {
				logger.Debug("Unable to resolve address of contributor", "user", mod.UserName)
				continue
			}
			add(addr)
		}
	}

	list := make([]string, 0, len(addresses))
	for addr := range addresses {
		list = append(list, addr)
	}
	slices.Sort(list)

	return &model.Recipients{
		Addresses: list,
		Subject:   r.Subject(ctx, result),
	}
}

func (r *RecipientResolver) notifiesModifiers(applicable []model.NotificationType) bool {
	for _, t := range r.modifierTypes {
		if slices.Contains(applicable, t) {
			return true
		}
	}
	return false
}

// modifierAddress prefers the registration, then the address recorded on
// the modification, then the first converter with a result
func (r *RecipientResolver) modifierAddress(mod *model.Modification) string {
	if user, ok := r.registry.User(mod.UserName); ok && user.Address != "" {
		return user.Address
	}
	if mod.EmailAddress != "" {
		return mod.EmailAddress
	}
	for _, conv := range r.converters {
		if addr := conv.Convert(mod.UserName); addr != "" {
			return addr
		}
	}
	return ""
}

// Subject renders the subject line for the result
func (r *RecipientResolver) Subject(ctx context.Context, result *model.IntegrationResult) string {
	cond := result.Condition()
	data := subjectData{
		ProjectName: result.ProjectName,
		Label:       result.Label,
		Status:      result.Status,
		Condition:   cond,
	}

	if tmpl, ok := r.overrides[cond]; ok {
		var buf bytes.Buffer
		err := tmpl.Execute(&buf, data)
		if err == nil {
			return r.prefix + buf.String()
		}
		ctxlog.From(ctx).Warn("Failed to render subject override, using default",
			"condition", cond,
			"error", err,
		)
	}

	var buf bytes.Buffer
	if err := r.defaults[cond].Execute(&buf, data); err != nil {
		// defaults only reference fields of subjectData
		return r.prefix + result.ProjectName
	}
	return r.prefix + buf.String()
}
