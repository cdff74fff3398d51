package entity

// DefaultDisplayName greets recipients who did not give a name.
const DefaultDisplayName = "User"

// Notification is one request to email a code. It lives for a single request.
type Notification struct {
	Email    string
	FullName string
	Code     string
	Purpose  Purpose
}

// DisplayName returns the greeting name, falling back to DefaultDisplayName.
func (n Notification) DisplayName() string {
	if n.FullName == "" {
		return DefaultDisplayName
	}
	return n.FullName
}

// RenderedMessage is the subject and bodies produced for a Notification.
type RenderedMessage struct {
	Subject  string
	HTMLBody string
	TextBody string
	FromName string
}
