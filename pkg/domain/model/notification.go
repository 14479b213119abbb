package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// NotificationType selects the build outcomes a group wants to hear about
type NotificationType string

const (
	NotifyAlways    NotificationType = "Always"
	NotifyChange    NotificationType = "Change"
	NotifyFailed    NotificationType = "Failed"
	NotifySuccess   NotificationType = "Success"
	NotifyFixed     NotificationType = "Fixed"
	NotifyException NotificationType = "Exception"
)

var notificationTypes = []NotificationType{
	NotifyAlways,
	NotifyChange,
	NotifyFailed,
	NotifySuccess,
	NotifyFixed,
	NotifyException,
}

// ParseNotificationType accepts the type name case-insensitively
func ParseNotificationType(s string) (NotificationType, error) {
	for _, t := range notificationTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", goerr.New("unknown notification type", goerr.V("type", s))
}

// ApplicableNotifications returns the notification types that fire for the
// result
func ApplicableNotifications(r *IntegrationResult) []NotificationType {
	types := []NotificationType{NotifyAlways}
	if r.StatusChanged() {
		types = append(types, NotifyChange)
	}
	switch r.Status {
	case StatusSuccess:
		types = append(types, NotifySuccess)
		if r.Fixed() {
			types = append(types, NotifyFixed)
		}
	case StatusFailure:
		types = append(types, NotifyFailed)
	case StatusException:
		types = append(types, NotifyException)
	}
	return types
}

// Recipients is the resolved audience of one notification
type Recipients struct {
	Addresses []string
	Subject   string
}

// Empty reports whether nobody can be notified
func (r *Recipients) Empty() bool {
	if r == nil {
		return true
	}
	for _, addr := range r.Addresses {
		if strings.TrimSpace(addr) != "" {
			return false
		}
	}
	return true
}

// Envelope is the fully resolved payload handed to a transport gateway
type Envelope struct {
	ID          string
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	Body        string
	HTML        bool
	Attachments []string
}

// PublishState is the terminal state of one publisher invocation
type PublishState string

const (
	PublishSkipped    PublishState = "skipped"
	PublishSent       PublishState = "sent"
	PublishSendFailed PublishState = "send_failed"
)
